// Package server provides the HTTP host shared by the e-commerce services:
// a Gin engine mounted on a ServeMux, served over HTTP/1.1 and h2c.
//
// ApplyMiddleware installs the standard chain around the whole mux with the
// error response middleware outermost, so every failure leaving a service
// (panics, errors reported through Gin's c.Error, bare 401/403/429 statuses)
// is turned into the JSON problem envelope:
//
//	srv := server.New(cfg.Server, log)
//	srv.ApplyMiddleware(sinks.ExceptionLogger())
//	srv.Use(middleware.Auth(middleware.AuthConfig{TokenValidator: jwtSvc.ValidatorFunc()}))
//	srv.RegisterDefaultEndpoints(cfg.Name, registry.HealthAll)
//	srv.GinEngine().GET("/api/products", listProducts)
//
// Server also implements component.Component through NewComponent.
package server

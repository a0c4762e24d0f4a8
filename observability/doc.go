// Package observability exports traces and request metrics over OTLP/HTTP.
//
//	providers, err := observability.Init(ctx, cfg.Observability, observability.Resource{
//	    Service: "orders", Version: "1.4.0", Environment: "production",
//	}, log)
//	defer providers.Shutdown(ctx)
//
//	srv.Use(observability.Middleware(providers.Tracer("orders"), providers.Metrics))
//
// Middleware labels every request with the middleware.Outcome the error
// response middleware assigns to it.
package observability

// Package bootstrap wires the infrastructure shared by the e-commerce
// services: logging sinks, the database connection, JWT authentication,
// the error response policy and, optionally, the HTTP server.
//
// # Quick Start
//
//	cfg, err := config.Load[bootstrap.SharedConfig]("orders")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := bootstrap.AddSharedServices(ctx, cfg, "orders",
//	    bootstrap.WithModels(&Order{}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	orders := repository.NewGorm[Order](svc.DB, "Order")
//	svc.Server.GinEngine().GET("/orders", listOrders(orders))
//	if err := svc.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Services that bring their own router wrap it with UseSharedPolicies so the
// error response middleware runs first.
package bootstrap

// Package app wires the billing web service together: configuration,
// logging, telemetry, the session store, services, router and HTTP server.
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run serves until SIGINT or SIGTERM, then drains in-flight requests within
// the configured shutdown timeout, stops the session janitor and flushes
// telemetry. The app never calls os.Exit itself.
package app

// Package tracing configures OpenTelemetry tracing for the mock server and the
// verification runner.
//
// Init installs a global TracerProvider exporting spans with the stdout
// exporter and the W3C trace-context propagator. HTTP servers are wrapped with
// Handler and outgoing replay traffic with Transport, both via otelhttp.
//
//	shutdown, err := tracing.Init(tracing.Config{ServiceName: "orders-consumer"}, logger)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(ctx)
//
// Without Init the global provider is a no-op and the wrappers only propagate
// context.
package tracing

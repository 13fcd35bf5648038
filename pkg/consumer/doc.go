// Package consumer runs the consumer side of a contract test: it resolves
// the provider spec, builds a mock from the spec and its approved fixtures,
// serves it on a local port, and records the traffic it answers.
//
//	s, err := consumer.Start(ctx, consumer.Options{
//	    Service: "orders",
//	    Version: "1.4.0",
//	    Broker:  broker.New(os.Getenv("MOCKD_CONTRACT_BROKER_URL")),
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Close(ctx)
//	client := orders.NewClient(s.URL())
//
// Recorded interactions and fixture proposals are uploaded when the session
// closes, after in-flight requests have been answered. When the consumer identity cannot
// be resolved nothing is recorded and a warning is logged.
package consumer

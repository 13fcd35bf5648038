// Package logging provides structured logging configuration for mockd-contract.
//
// It wraps log/slog so the mock engine, recorder, broker client and verifier
// log consistently. Components accept a *slog.Logger through an option and
// fall back to Nop() when none is supplied.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("mock started", "service", "orders", "port", 4280)
//
// Text output is meant for local test runs; JSON output is meant for CI log
// collection. A MultiHandler can fan a record out to several handlers, which
// the CLI uses to tee logs into a file with --log-file.
package logging

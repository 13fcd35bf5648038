// Package cli implements the mockd-contract command line.
//
// Commands:
//
//	mock      serve a contract mock for a provider spec
//	verify    replay recorded interactions against a running provider
//	compare   compare an expected and an actual response
//	resolve   resolve the project identity or a spec version
//	detect    detect a spec's type and list its operations
//	version   print build information
//
// Settings are read through package config; flags override them.
package cli

// Package requestlog keeps a bounded history of requests answered by a mock
// for inspection by tests and tools.
//
// It is distinct from operational logging (which uses log/slog) and from the
// interaction recorder, which uploads to the broker: the request log never
// leaves the process and also holds unmatched and rejected requests.
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{Method: "GET", Path: "/widgets/1", Status: 200})
//	recent := store.List(&requestlog.Filter{Method: "GET", Limit: 10})
package requestlog

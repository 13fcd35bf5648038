// Package testing runs a contract-backed mock inside Go tests.
//
// The mock is generated from a spec file, so every response a test receives
// conforms to the provider's contract. Fixtures pin specific responses.
//
// # Basic Usage
//
//	func TestClient(t *testing.T) {
//	    mock := mockdtest.New(t, "widgets", "testdata/widgets.yaml")
//
//	    mock.Fixture("getWidget").
//	        WithJSON(map[string]any{"id": "w-1", "name": "sprocket"}).
//	        Add()
//
//	    url := mock.Start()
//
//	    resp, err := http.Get(url + "/widgets/w-1")
//	    // ...
//
//	    mock.AssertOperationCalled(t, "getWidget")
//	}
//
// The mock stops when the test finishes. Stop may also be called directly.
//
// # Recording
//
// With WithBroker and a resolvable consumer identity (WithConsumer), every
// served interaction is uploaded to the broker when the mock stops, so the
// provider can later verify it.
//
// # Assertions
//
//	mock.AssertCalled(t, "GET", "/widgets/{id}")
//	mock.AssertCalledTimes(t, "POST", "/widgets", 2)
//	mock.AssertNotCalled(t, "DELETE", "/widgets/{id}")
//
//	for _, req := range mock.Requests() {
//	    req.AssertHeader(t, "Accept", "application/json")
//	}
package testing

package mock

import (
	"context"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/validation"
)

// Document is a loaded API description the engine resolves requests against.
type Document interface {
	Type() contract.SpecType
	Operations() []contract.Operation

	// Resolve maps a request to an operation and its captured path parameters.
	Resolve(req *contract.Request) (contract.Operation, map[string]string, bool)

	// Example derives a response for op from the document alone.
	Example(op contract.Operation, req *contract.Request) (*contract.Response, bool)

	ValidateRequest(ctx context.Context, op contract.Operation, params map[string]string, req *contract.Request) *validation.Result
	ValidateResponse(ctx context.Context, op contract.Operation, params map[string]string, req *contract.Request, resp *contract.Response) *validation.Result
}

// Hinter is implemented by documents that can explain near misses for an
// unresolved request.
type Hinter interface {
	Hints(req *contract.Request) []string
}

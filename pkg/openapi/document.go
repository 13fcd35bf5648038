package openapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/mockd-contract/internal/matching"
	"github.com/getmockd/mockd-contract/pkg/contract"
)

var methodOrder = map[string]int{
	http.MethodGet:     0,
	http.MethodPost:    1,
	http.MethodPut:     2,
	http.MethodPatch:   3,
	http.MethodDelete:  4,
	http.MethodHead:    5,
	http.MethodOptions: 6,
	http.MethodTrace:   7,
}

type operation struct {
	meta     contract.Operation
	pathItem *openapi3.PathItem
	op       *openapi3.Operation
}

// Document is a loaded OpenAPI document.
type Document struct {
	doc    *openapi3.T
	ops    []operation
	byID   map[string]*operation
	router *matching.Router
}

// Load parses and validates an OpenAPI 3 document from YAML or JSON.
// External references are not followed.
func Load(ctx context.Context, content []byte) (*Document, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return newDocument(doc), nil
}

func newDocument(doc *openapi3.T) *Document {
	d := &Document{
		doc:    doc,
		byID:   make(map[string]*operation),
		router: matching.NewRouter(),
	}
	if doc.Paths == nil {
		return d
	}

	paths := doc.Paths.Map()
	templates := make([]string, 0, len(paths))
	for p := range paths {
		templates = append(templates, p)
	}
	sort.Strings(templates)

	for _, tmpl := range templates {
		item := paths[tmpl]
		methods := make([]string, 0, 8)
		for m := range item.Operations() {
			methods = append(methods, strings.ToUpper(m))
		}
		sort.Slice(methods, func(i, j int) bool {
			return methodOrder[methods[i]] < methodOrder[methods[j]]
		})
		for _, m := range methods {
			op := item.GetOperation(m)
			id := op.OperationID
			if id == "" {
				id = m + " " + tmpl
			}
			d.ops = append(d.ops, operation{
				meta: contract.Operation{
					ID:      id,
					Method:  m,
					Path:    tmpl,
					Kind:    contract.KindHTTP,
					Summary: op.Summary,
				},
				pathItem: item,
				op:       op,
			})
		}
	}
	for i := range d.ops {
		o := &d.ops[i]
		d.byID[o.meta.ID] = o
		d.router.Add(matching.Route{ID: o.meta.ID, Method: o.meta.Method, Template: o.meta.Path})
	}
	return d
}

// Type implements mock.Document.
func (d *Document) Type() contract.SpecType { return contract.SpecTypeOpenAPI }

// Title returns the document's info title.
func (d *Document) Title() string {
	if d.doc.Info == nil {
		return ""
	}
	return d.doc.Info.Title
}

// Operations returns every operation in path then method order.
func (d *Document) Operations() []contract.Operation {
	out := make([]contract.Operation, len(d.ops))
	for i, o := range d.ops {
		out[i] = o.meta
	}
	return out
}

// Resolve finds the operation for req and the captured path parameters.
func (d *Document) Resolve(req *contract.Request) (contract.Operation, map[string]string, bool) {
	m, ok := d.router.Resolve(req.Method, req.Path)
	if !ok {
		return contract.Operation{}, nil, false
	}
	return d.byID[m.Route.ID].meta, m.Params, true
}

// Hints describes operations that nearly matched req.
func (d *Document) Hints(req *contract.Request) []string {
	misses := d.router.NearMisses(req.Method, req.Path, 3)
	out := make([]string, 0, len(misses))
	for _, nm := range misses {
		out = append(out, fmt.Sprintf("%s (%s %s): %s", nm.OperationID, nm.Method, nm.Path, nm.Reason))
	}
	return out
}

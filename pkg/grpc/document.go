package grpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// SourceName is the file name the spec content is compiled under.
const SourceName = "contract.proto"

// ErrNoServices is returned when the proto source declares no services.
var ErrNoServices = errors.New("proto source declares no services")

type method struct {
	meta contract.Operation
	desc protoreflect.MethodDescriptor
}

// Document is a compiled .proto spec. Each RPC is an operation addressed as
// POST /<package>.<Service>/<Method>.
type Document struct {
	files  []protoreflect.FileDescriptor
	ops    []contract.Operation
	byPath map[string]*method
	byID   map[string]*method
}

// Load compiles proto source. Imports other than the well-known types are
// resolved against importPaths.
func Load(ctx context.Context, content string, importPaths ...string) (*Document, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(
			protocompile.CompositeResolver{
				&protocompile.SourceResolver{
					Accessor: protocompile.SourceAccessorFromMap(map[string]string{SourceName: content}),
				},
				&protocompile.SourceResolver{ImportPaths: importPaths},
			},
		),
	}

	compiled, err := compiler.Compile(ctx, SourceName)
	if err != nil {
		return nil, fmt.Errorf("compile proto: %w", err)
	}

	d := &Document{
		byPath: make(map[string]*method),
		byID:   make(map[string]*method),
	}
	for _, file := range compiled {
		d.files = append(d.files, file)
		services := file.Services()
		for i := 0; i < services.Len(); i++ {
			svc := services.Get(i)
			methods := svc.Methods()
			for j := 0; j < methods.Len(); j++ {
				d.add(svc, methods.Get(j))
			}
		}
	}
	if len(d.ops) == 0 {
		return nil, ErrNoServices
	}
	sort.Slice(d.ops, func(i, j int) bool { return d.ops[i].ID < d.ops[j].ID })
	return d, nil
}

func (d *Document) add(svc protoreflect.ServiceDescriptor, md protoreflect.MethodDescriptor) {
	id := string(svc.FullName()) + "/" + string(md.Name())
	m := &method{
		meta: contract.Operation{
			ID:     id,
			Method: http.MethodPost,
			Path:   "/" + id,
			Kind:   streamingKind(md),
		},
		desc: md,
	}
	d.ops = append(d.ops, m.meta)
	d.byPath[m.meta.Path] = m
	d.byID[id] = m
}

func streamingKind(md protoreflect.MethodDescriptor) string {
	switch {
	case md.IsStreamingClient() && md.IsStreamingServer():
		return contract.KindBidirectional
	case md.IsStreamingClient():
		return contract.KindClientStreaming
	case md.IsStreamingServer():
		return contract.KindServerStreaming
	default:
		return contract.KindUnary
	}
}

// Type implements mock.Document.
func (d *Document) Type() contract.SpecType { return contract.SpecTypeGRPC }

// Operations returns every RPC sorted by full name.
func (d *Document) Operations() []contract.Operation {
	out := make([]contract.Operation, len(d.ops))
	copy(out, d.ops)
	return out
}

// Services returns the fully qualified service names.
func (d *Document) Services() []string {
	seen := make(map[string]bool)
	var names []string
	for _, op := range d.ops {
		svc, _, _ := strings.Cut(op.ID, "/")
		if !seen[svc] {
			seen[svc] = true
			names = append(names, svc)
		}
	}
	return names
}

// Files returns the compiled file descriptors.
func (d *Document) Files() []protoreflect.FileDescriptor {
	return d.files
}

// Resolve matches POST /<service>/<method>.
func (d *Document) Resolve(req *contract.Request) (contract.Operation, map[string]string, bool) {
	if !strings.EqualFold(req.Method, http.MethodPost) {
		return contract.Operation{}, nil, false
	}
	m, ok := d.byPath[req.Path]
	if !ok {
		return contract.Operation{}, nil, false
	}
	return m.meta, nil, true
}

// Hints lists the RPCs of the service named in an unresolved path.
func (d *Document) Hints(req *contract.Request) []string {
	svc, _, _ := strings.Cut(strings.TrimPrefix(req.Path, "/"), "/")
	var hints []string
	for _, op := range d.ops {
		if strings.HasPrefix(op.ID, svc+"/") {
			hints = append(hints, "POST "+op.Path)
		}
	}
	return hints
}

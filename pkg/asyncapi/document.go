package asyncapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockd-contract/internal/matching"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/validation"
)

// ErrUnsupportedVersion is returned for documents that are not AsyncAPI 2.x or 3.x.
var ErrUnsupportedVersion = errors.New("unsupported AsyncAPI version")

// message is a resolved channel message.
type message struct {
	name     string
	payload  any
	examples []any
	schema   *validation.Schema
}

type operation struct {
	meta     contract.Operation
	messages []*message
}

// Document is a loaded AsyncAPI document.
type Document struct {
	version string
	title   string
	root    map[string]any
	ops     []*operation
	byID    map[string]*operation
	router  *matching.Router
	schemas int
}

// Load parses an AsyncAPI document from YAML or JSON.
func Load(content []byte) (*Document, error) {
	var root map[string]any
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI document: %w", err)
	}
	version, _ := root["asyncapi"].(string)
	d := &Document{
		version: version,
		root:    root,
		byID:    make(map[string]*operation),
		router:  matching.NewRouter(),
	}
	if info, ok := root["info"].(map[string]any); ok {
		d.title, _ = info["title"].(string)
	}

	var err error
	switch {
	case strings.HasPrefix(version, "2."):
		err = d.loadV2()
	case strings.HasPrefix(version, "3."):
		err = d.loadV3()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(d.ops, func(i, j int) bool {
		if d.ops[i].meta.Path != d.ops[j].meta.Path {
			return d.ops[i].meta.Path < d.ops[j].meta.Path
		}
		if d.ops[i].meta.Method != d.ops[j].meta.Method {
			return d.ops[i].meta.Method < d.ops[j].meta.Method
		}
		return d.ops[i].meta.ID < d.ops[j].meta.ID
	})
	for _, op := range d.ops {
		if _, dup := d.byID[op.meta.ID]; dup {
			return nil, fmt.Errorf("duplicate operation id %q", op.meta.ID)
		}
		d.byID[op.meta.ID] = op
		d.router.Add(matching.Route{ID: op.meta.ID, Method: op.meta.Method, Template: op.meta.Path})
	}
	return d, nil
}

// loadV2 reads channels with publish/subscribe operations.
func (d *Document) loadV2() error {
	channels, _ := d.root["channels"].(map[string]any)
	for name, raw := range channels {
		channel, _ := d.resolve(raw).(map[string]any)
		for _, action := range []string{contract.KindPublish, contract.KindSubscribe} {
			rawOp, ok := channel[action].(map[string]any)
			if !ok {
				continue
			}
			op, err := d.newOperation(name, action, rawOp, []any{rawOp["message"]})
			if err != nil {
				return err
			}
			d.ops = append(d.ops, op)
		}
	}
	return nil
}

// loadV3 reads the top-level operations map, whose channels are references.
func (d *Document) loadV3() error {
	ops, _ := d.root["operations"].(map[string]any)
	for id, raw := range ops {
		rawOp, _ := d.resolve(raw).(map[string]any)
		channel, _ := d.resolve(rawOp["channel"]).(map[string]any)
		address, _ := channel["address"].(string)
		if address == "" {
			address = refName(rawOp["channel"])
		}

		var kind string
		switch rawOp["action"] {
		case "send":
			kind = contract.KindSubscribe
		case "receive":
			kind = contract.KindPublish
		default:
			return fmt.Errorf("operation %q: unknown action %v", id, rawOp["action"])
		}

		var msgs []any
		if list, ok := rawOp["messages"].([]any); ok && len(list) > 0 {
			msgs = list
		} else if byName, ok := channel["messages"].(map[string]any); ok {
			for _, name := range sortedKeys(byName) {
				msgs = append(msgs, byName[name])
			}
		}
		if _, hasID := rawOp["operationId"]; !hasID {
			rawOp = withOperationID(rawOp, id)
		}
		op, err := d.newOperation(address, kind, rawOp, msgs)
		if err != nil {
			return err
		}
		d.ops = append(d.ops, op)
	}
	return nil
}

func (d *Document) newOperation(address, kind string, rawOp map[string]any, rawMsgs []any) (*operation, error) {
	id, _ := rawOp["operationId"].(string)
	if id == "" {
		id = kind + " " + address
	}
	method := http.MethodGet
	if kind == contract.KindPublish {
		method = http.MethodPost
	}
	summary, _ := rawOp["summary"].(string)

	op := &operation{
		meta: contract.Operation{
			ID:      id,
			Method:  method,
			Path:    "/" + strings.TrimPrefix(address, "/"),
			Kind:    kind,
			Summary: summary,
		},
	}
	for _, raw := range rawMsgs {
		for _, m := range d.expandMessages(raw) {
			if m.payload != nil {
				d.schemas++
				schema, err := validation.CompileSchema(fmt.Sprintf("asyncapi-payload-%d.json", d.schemas), m.payload)
				if err != nil {
					return nil, fmt.Errorf("operation %q: %w", id, err)
				}
				m.schema = schema
			}
			op.messages = append(op.messages, m)
		}
	}
	return op, nil
}

// expandMessages resolves a message reference, flattening oneOf.
func (d *Document) expandMessages(raw any) []*message {
	name := refName(raw)
	resolved, ok := d.resolve(raw).(map[string]any)
	if !ok {
		return nil
	}
	if oneOf, ok := resolved["oneOf"].([]any); ok {
		var out []*message
		for _, alt := range oneOf {
			out = append(out, d.expandMessages(alt)...)
		}
		return out
	}

	m := &message{name: name, payload: d.inline(resolved["payload"], 0)}
	if n, ok := resolved["name"].(string); ok && n != "" {
		m.name = n
	}
	if m.name == "" {
		m.name = "message"
	}
	if examples, ok := resolved["examples"].([]any); ok {
		for _, ex := range examples {
			if exMap, ok := ex.(map[string]any); ok {
				if p, has := exMap["payload"]; has {
					m.examples = append(m.examples, p)
				}
			}
		}
	}
	return []*message{m}
}

// Type implements mock.Document.
func (d *Document) Type() contract.SpecType { return contract.SpecTypeAsyncAPI }

// Title returns the document's info title.
func (d *Document) Title() string { return d.title }

// Version returns the AsyncAPI version declared by the document.
func (d *Document) Version() string { return d.version }

// Operations returns every channel action ordered by path then method.
func (d *Document) Operations() []contract.Operation {
	out := make([]contract.Operation, len(d.ops))
	for i, op := range d.ops {
		out[i] = op.meta
	}
	return out
}

// Resolve maps req to a channel operation. A request whose method matches no
// action on the channel falls back to the channel's other action.
func (d *Document) Resolve(req *contract.Request) (contract.Operation, map[string]string, bool) {
	m, ok := d.router.Resolve(req.Method, req.Path)
	if !ok {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			if m, ok = d.router.Resolve(method, req.Path); ok {
				break
			}
		}
	}
	if !ok {
		return contract.Operation{}, nil, false
	}
	return d.byID[m.Route.ID].meta, m.Params, true
}

// Hints describes channels that nearly matched req.
func (d *Document) Hints(req *contract.Request) []string {
	misses := d.router.NearMisses(req.Method, req.Path, 3)
	out := make([]string, 0, len(misses))
	for _, nm := range misses {
		out = append(out, fmt.Sprintf("%s (%s): %s", nm.OperationID, nm.Path, nm.Reason))
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func withOperationID(op map[string]any, id string) map[string]any {
	out := make(map[string]any, len(op)+1)
	for k, v := range op {
		out[k] = v
	}
	out["operationId"] = id
	return out
}

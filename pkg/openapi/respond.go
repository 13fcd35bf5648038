package openapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// Example derives a response for the operation from the document. It returns
// false when the operation declares no response, or declares content with
// neither an example nor a schema.
func (d *Document) Example(op contract.Operation, _ *contract.Request) (*contract.Response, bool) {
	o, ok := d.byID[op.ID]
	if !ok || o.op.Responses == nil {
		return nil, false
	}
	status, ref := pickResponse(o.op.Responses)
	if ref == nil || ref.Value == nil {
		return nil, false
	}

	resp := &contract.Response{Status: status, Headers: map[string]string{}}
	for name, h := range ref.Value.Headers {
		if h == nil || h.Value == nil || h.Value.Schema == nil {
			continue
		}
		if v, ok := newGenerator().Generate(h.Value.Schema, name); ok {
			if s, isString := v.(string); isString {
				resp.Headers[name] = s
			}
		}
	}

	if len(ref.Value.Content) == 0 {
		return resp, true
	}
	contentType, mt := pickMediaType(ref.Value.Content)
	body, ok := mediaExample(mt)
	if !ok {
		return nil, false
	}
	resp.Headers["Content-Type"] = contentType
	resp.Body = body
	return resp, true
}

// pickResponse prefers the lowest declared 2xx status, then "default" as 200,
// then the lowest declared status of any class.
func pickResponse(responses *openapi3.Responses) (int, *openapi3.ResponseRef) {
	codes := make([]int, 0, responses.Len())
	for key := range responses.Map() {
		if code, err := strconv.Atoi(key); err == nil {
			codes = append(codes, code)
		}
	}
	sort.Ints(codes)
	for _, code := range codes {
		if code >= 200 && code < 300 {
			return code, responses.Status(code)
		}
	}
	if def := responses.Default(); def != nil {
		return http.StatusOK, def
	}
	if len(codes) > 0 {
		return codes[0], responses.Status(codes[0])
	}
	return 0, nil
}

// pickMediaType prefers application/json, then any JSON type, then the
// alphabetically first declared type.
func pickMediaType(content openapi3.Content) (string, *openapi3.MediaType) {
	if mt, ok := content["application/json"]; ok {
		return "application/json", mt
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if contract.IsJSONContentType(k) {
			return k, content[k]
		}
	}
	return keys[0], content[keys[0]]
}

func mediaExample(mt *openapi3.MediaType) (any, bool) {
	if mt == nil {
		return nil, false
	}
	if mt.Example != nil {
		return mt.Example, true
	}
	if len(mt.Examples) > 0 {
		names := make([]string, 0, len(mt.Examples))
		for name := range mt.Examples {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if ex := mt.Examples[name]; ex != nil && ex.Value != nil && ex.Value.Value != nil {
				return ex.Value.Value, true
			}
		}
	}
	if mt.Schema == nil {
		return nil, false
	}
	return newGenerator().Generate(mt.Schema, "")
}

package asyncapi

import (
	"strings"
)

// maxInlineDepth bounds $ref inlining for recursive schemas.
const maxInlineDepth = 16

// resolve follows a local "#/..." $ref, returning v unchanged otherwise.
func (d *Document) resolve(v any) any {
	for i := 0; i < maxInlineDepth; i++ {
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		ref, ok := m["$ref"].(string)
		if !ok {
			return v
		}
		target, found := d.lookup(ref)
		if !found {
			return v
		}
		v = target
	}
	return v
}

// lookup walks a JSON pointer within the document.
func (d *Document) lookup(ref string) (any, bool) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, false
	}
	var cur any = d.root
	for _, part := range strings.Split(strings.TrimPrefix(ref, "#/"), "/") {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// inline replaces local $refs in a schema tree with their targets.
func (d *Document) inline(v any, depth int) any {
	if depth > maxInlineDepth {
		return map[string]any{}
	}
	switch t := d.resolve(v).(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = d.inline(val, depth+1)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = d.inline(val, depth+1)
		}
		return out
	default:
		return t
	}
}

// refName returns the last segment of a $ref, or "".
func refName(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	ref, _ := m["$ref"].(string)
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ""
}

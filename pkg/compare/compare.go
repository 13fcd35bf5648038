package compare

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/logging"
)

// ArrayMode selects how array elements are compared.
type ArrayMode int

const (
	// FirstElement compares only the first element of non-empty arrays.
	FirstElement ArrayMode = iota
	// AllElements compares every expected element with the actual element at
	// the same index, and the first expected element with any extra actual
	// elements. Expected elements past the end of a shorter actual array are
	// not required: only a populated actual array is checked element-wise.
	AllElements
)

// ParseArrayMode maps "first" and "all" to an ArrayMode.
func ParseArrayMode(s string) (ArrayMode, error) {
	switch s {
	case "", "first":
		return FirstElement, nil
	case "all":
		return AllElements, nil
	}
	return FirstElement, fmt.Errorf("unknown array mode %q (want first or all)", s)
}

// Options configures a Comparator.
type Options struct {
	ArrayMode ArrayMode

	// IgnorePaths are JSONPath expressions removed from both bodies. Each
	// must end in a child, wildcard or index selector.
	IgnorePaths []string

	Logger *slog.Logger
}

// Outcome is the result of a comparison.
type Outcome struct {
	Success bool
	Error   string
	Details *contract.ErrorDetails
}

// Comparator compares responses. It is immutable and safe for concurrent use.
type Comparator struct {
	mode   ArrayMode
	ignore []jp.Expr
	log    *slog.Logger
}

// New compiles opts into a Comparator.
func New(opts Options) (*Comparator, error) {
	c := &Comparator{mode: opts.ArrayMode, log: logging.OrNop(opts.Logger)}
	for _, p := range opts.IgnorePaths {
		x, err := jp.ParseString(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore path %q: %w", p, err)
		}
		if err := deletable(x); err != nil {
			return nil, fmt.Errorf("invalid ignore path %q: %w", p, err)
		}
		c.ignore = append(c.ignore, x)
	}
	return c, nil
}

// deletable rejects expressions jp.Expr.Del can never apply.
func deletable(x jp.Expr) error {
	if len(x) == 0 {
		return fmt.Errorf("empty expression")
	}
	switch last := x[len(x)-1].(type) {
	case jp.Root, jp.At, jp.Bracket, jp.Descent, jp.Slice, *jp.Filter:
		return fmt.Errorf("cannot delete with a trailing %T selector", last)
	}
	return nil
}

var defaultComparator = &Comparator{log: logging.Nop()}

// ValidateResponse compares with the default options.
func ValidateResponse(expected, actual *contract.Response) Outcome {
	return defaultComparator.ValidateResponse(expected, actual)
}

// ValidateResponse checks actual against expected: status, then structure,
// then content sanity.
func (c *Comparator) ValidateResponse(expected, actual *contract.Response) Outcome {
	if expected == nil || actual == nil {
		return fail(contract.ErrorStatusMismatch, "", statusOf(expected), statusOf(actual), "missing response")
	}
	if expected.Status != actual.Status {
		return fail(contract.ErrorStatusMismatch, "", expected.Status, actual.Status,
			fmt.Sprintf("status code mismatch: expected %d, got %d", expected.Status, actual.Status))
	}
	if expected.Body == nil || actual.Body == nil {
		return Outcome{Success: true}
	}

	exp, act := c.prepare(expected.Body), c.prepare(actual.Body)
	success := expected.Status >= 200 && expected.Status < 400
	if d := c.structure(exp, act, "", success); d != nil {
		return Outcome{Error: d.Message, Details: d}
	}
	if success {
		if d := contentSanity(exp, act); d != nil {
			return Outcome{Error: d.Message, Details: d}
		}
	}
	return Outcome{Success: true}
}

// prepare normalizes a body to generic JSON values and applies IgnorePaths.
func (c *Comparator) prepare(body any) any {
	v := normalize(body)
	for _, x := range c.ignore {
		if err := x.Del(v); err != nil {
			c.log.Debug("ignore path not applied", "path", x.String(), "error", err)
		}
	}
	return v
}

// normalize round-trips v through JSON so numbers are float64 and structs
// become maps. Strings that are not JSON stay as they are.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// structure checks that actual carries the shape of expected. When content is
// set, the root-level populated-array and id-type checks are left to
// contentSanity so they report content_mismatch.
func (c *Comparator) structure(expected, actual any, path string, content bool) *contract.ErrorDetails {
	ek, ak := kindOf(expected), kindOf(actual)
	root := content && path == ""

	if ek == kindNull {
		// null only constrains the actual value to be object-like.
		if ak == kindNull || ak == kindObject || ak == kindArray {
			return nil
		}
		return typeMismatch(path, ek, ak)
	}

	switch ek {
	case kindArray:
		act, ok := actual.([]any)
		if !ok {
			return typeMismatch(path, ek, ak)
		}
		exp := expected.([]any)
		if len(exp) == 0 {
			return nil
		}
		if len(act) == 0 {
			if root {
				return nil
			}
			return &contract.ErrorDetails{
				Type:     contract.ErrorStructureMismatch,
				Field:    path,
				Expected: fmt.Sprintf("array with %d items", len(exp)),
				Actual:   "empty array",
				Message:  fmt.Sprintf("expected non-empty array at %s", display(path)),
			}
		}
		if c.mode == FirstElement {
			return c.structure(exp[0], act[0], index(path, 0), false)
		}
		for i := range act {
			e := exp[0]
			if i < len(exp) {
				e = exp[i]
			}
			if d := c.structure(e, act[i], index(path, i), false); d != nil {
				return d
			}
		}
		return nil

	case kindObject:
		act, ok := actual.(map[string]any)
		if !ok {
			return typeMismatch(path, ek, ak)
		}
		exp := expected.(map[string]any)
		for _, key := range sortedKeys(exp) {
			field := join(path, key)
			av, present := act[key]
			if !present {
				return &contract.ErrorDetails{
					Type:     contract.ErrorStructureMismatch,
					Field:    field,
					Expected: exp[key],
					Message:  fmt.Sprintf("missing field %s", display(field)),
				}
			}
			if root && key == "id" && kindOf(exp[key]) != kindOf(av) {
				continue
			}
			if d := c.structure(exp[key], av, field, false); d != nil {
				return d
			}
		}
		return nil
	}

	if ek != ak {
		return typeMismatch(path, ek, ak)
	}
	return nil
}

func contentSanity(expected, actual any) *contract.ErrorDetails {
	if exp, ok := expected.([]any); ok {
		if act, ok := actual.([]any); ok && len(exp) > 0 && len(act) == 0 {
			return &contract.ErrorDetails{
				Type:     contract.ErrorContentMismatch,
				Expected: fmt.Sprintf("array with %d items", len(exp)),
				Actual:   "empty array",
				Message:  "expected a populated array but got an empty one",
			}
		}
		return nil
	}

	exp, eok := expected.(map[string]any)
	act, aok := actual.(map[string]any)
	if !eok || !aok {
		return nil
	}
	eid, ehas := exp["id"]
	aid, ahas := act["id"]
	if ehas && ahas && kindOf(eid) != kindOf(aid) {
		return &contract.ErrorDetails{
			Type:     contract.ErrorContentMismatch,
			Field:    "id",
			Expected: kindOf(eid).String(),
			Actual:   kindOf(aid).String(),
			Message:  fmt.Sprintf("id type changed: expected %s, got %s", kindOf(eid), kindOf(aid)),
		}
	}
	return nil
}

func fail(t contract.ErrorType, field string, expected, actual any, msg string) Outcome {
	return Outcome{
		Error: msg,
		Details: &contract.ErrorDetails{
			Type:     t,
			Field:    field,
			Expected: expected,
			Actual:   actual,
			Message:  msg,
		},
	}
}

func typeMismatch(path string, expected, actual kind) *contract.ErrorDetails {
	return &contract.ErrorDetails{
		Type:     contract.ErrorStructureMismatch,
		Field:    path,
		Expected: expected.String(),
		Actual:   actual.String(),
		Message:  fmt.Sprintf("type mismatch at %s: expected %s, got %s", display(path), expected, actual),
	}
}

func statusOf(r *contract.Response) any {
	if r == nil {
		return nil
	}
	return r.Status
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func display(path string) string {
	if path == "" {
		return "response body"
	}
	return "'" + path + "'"
}

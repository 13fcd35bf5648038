package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IsJSONContentType reports whether the content type denotes a JSON payload,
// including vendor types such as application/problem+json.
func IsJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)
	return ct == "application/json" || strings.HasSuffix(ct, "+json") || ct == "application/graphql-response+json"
}

// DecodeBody converts a raw payload into a body value. JSON content types are
// decoded (numbers as float64); when the content type is empty a JSON decode is
// attempted and raw text is kept on failure. Empty payloads decode to nil.
func DecodeBody(contentType string, data []byte) any {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if contentType == "" || IsJSONContentType(contentType) {
		var v any
		if err := json.Unmarshal(data, &v); err == nil {
			return v
		}
	}
	return string(data)
}

// EncodeBody serializes a body value for the wire. Byte slices are written
// as-is. Strings are written as-is unless contentType is JSON and the string
// is not itself a JSON document, in which case it is encoded as a JSON
// string. Everything else is JSON-encoded. The returned bool reports whether
// the payload is JSON.
func EncodeBody(contentType string, body any) ([]byte, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case string:
		if !IsJSONContentType(contentType) {
			return []byte(b), false, nil
		}
		if json.Valid([]byte(b)) {
			return []byte(b), true, nil
		}
		data, err := json.Marshal(b)
		if err != nil {
			return nil, false, fmt.Errorf("encode body: %w", err)
		}
		return data, true, nil
	case []byte:
		return b, false, nil
	case json.RawMessage:
		return b, true, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, false, fmt.Errorf("encode body: %w", err)
		}
		return data, true, nil
	}
}

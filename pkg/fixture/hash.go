package fixture

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

type canonicalRequest struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Body    any               `json:"body,omitempty"`
}

type canonicalResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

func canonicalHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = v
	}
	return out
}

func canonReq(r *contract.Request) *canonicalRequest {
	if r == nil {
		return nil
	}
	q := r.Query
	if len(q) == 0 {
		q = nil
	}
	return &canonicalRequest{
		Method:  strings.ToUpper(r.Method),
		Path:    r.Path,
		Headers: canonicalHeaders(r.Headers),
		Query:   q,
		Body:    r.Body,
	}
}

func canonResp(r *contract.Response) *canonicalResponse {
	if r == nil {
		return nil
	}
	return &canonicalResponse{
		Status:  r.Status,
		Headers: canonicalHeaders(r.Headers),
		Body:    r.Body,
	}
}

// digest hashes the JSON encoding of v. encoding/json sorts map keys, which
// makes the output independent of map iteration order.
func digest(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", v))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Hash returns the content identity of a fixture: a SHA-256 over the
// operation and the canonicalized request and response.
func Hash(operation string, data contract.FixtureData) string {
	return digest(struct {
		Operation string             `json:"operation"`
		Request   *canonicalRequest  `json:"request,omitempty"`
		Response  *canonicalResponse `json:"response,omitempty"`
	}{operation, canonReq(data.Request), canonResp(data.Response)})
}

// HashInteraction returns the session identity of a recorded interaction.
func HashInteraction(service, consumer, consumerVersion, operation string, req *contract.Request, resp *contract.Response) string {
	return digest(struct {
		Service         string             `json:"service"`
		Consumer        string             `json:"consumer"`
		ConsumerVersion string             `json:"consumerVersion"`
		Operation       string             `json:"operation"`
		Request         *canonicalRequest  `json:"request,omitempty"`
		Response        *canonicalResponse `json:"response,omitempty"`
	}{service, consumer, consumerVersion, operation, canonReq(req), canonResp(resp)})
}

// Dedup drops fixtures whose hash equals an earlier one, keeping the first.
func Dedup(fixtures []contract.Fixture) []contract.Fixture {
	seen := make(map[string]struct{}, len(fixtures))
	out := make([]contract.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		h := Hash(f.Operation, f.Data)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, f)
	}
	return out
}

package matching

import (
	"fmt"
	"sort"
	"strings"
)

// NearMiss is a route that partially matched a request.
type NearMiss struct {
	OperationID string `json:"operationId"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Score       int    `json:"score"`
	Reason      string `json:"reason"`
}

// NearMisses ranks routes that came close to matching method and path.
// A route qualifies when either its path matches (wrong method) or it has
// the right method and segment count with at most one differing literal.
// At most topN results are returned (3 when topN <= 0).
func (r *Router) NearMisses(method, path string, topN int) []NearMiss {
	if topN <= 0 {
		topN = 3
	}
	method = strings.ToUpper(method)

	var out []NearMiss
	for _, rt := range r.routes {
		methodOK := rt.Method == "" || rt.Method == method
		if score, _ := MatchPath(rt.Template, path); score > 0 {
			if methodOK {
				continue
			}
			out = append(out, NearMiss{
				OperationID: rt.ID,
				Method:      rt.Method,
				Path:        rt.Template,
				Score:       score,
				Reason:      fmt.Sprintf("path matched, but method expected %q, got %q", rt.Method, method),
			})
			continue
		}
		if !methodOK {
			continue
		}
		if seg, ok := singleSegmentMismatch(rt.Template, path); ok {
			out = append(out, NearMiss{
				OperationID: rt.ID,
				Method:      rt.Method,
				Path:        rt.Template,
				Score:       ScoreMethod,
				Reason:      fmt.Sprintf("method matched, but path segment %q differs from %q", seg.got, seg.want),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

type segmentDiff struct {
	want, got string
}

func singleSegmentMismatch(template, path string) (segmentDiff, bool) {
	tp := segments(normalize(template))
	pp := segments(normalize(path))
	if len(tp) != len(pp) {
		return segmentDiff{}, false
	}
	var diff segmentDiff
	misses := 0
	for i, part := range tp {
		if _, ok := paramName(part); ok {
			continue
		}
		if part != pp[i] {
			misses++
			diff = segmentDiff{want: part, got: pp[i]}
		}
	}
	return diff, misses == 1
}

package matching

import (
	"strings"
)

// MatchPath checks if the request path matches the template.
// Returns a score > 0 if matched, 0 if not, plus the captured parameters.
//   - Exact match: "/api/users" matches "/api/users"
//   - Named params: "/api/users/{id}" matches "/api/users/123"
//
// A trailing slash on either side is ignored.
func MatchPath(template, path string) (int, map[string]string) {
	template, path = normalize(template), normalize(path)
	if template == path {
		return ScorePathExact, nil
	}
	if !strings.Contains(template, "{") {
		return 0, nil
	}

	templateParts := segments(template)
	pathParts := segments(path)
	if len(templateParts) != len(pathParts) {
		return 0, nil
	}

	params := make(map[string]string)
	score := ScorePathNamedParams
	for i, part := range templateParts {
		if name, ok := paramName(part); ok {
			if pathParts[i] == "" {
				return 0, nil
			}
			params[name] = pathParts[i]
			continue
		}
		if part != pathParts[i] {
			return 0, nil
		}
		score += ScoreLiteralSegment
	}
	return score, params
}

// IsTemplate reports whether the path contains {param} segments.
func IsTemplate(path string) bool {
	for _, part := range segments(path) {
		if _, ok := paramName(part); ok {
			return true
		}
	}
	return false
}

// Expand substitutes params into template. Unknown parameters are left as is.
func Expand(template string, params map[string]string) string {
	parts := strings.Split(template, "/")
	for i, part := range parts {
		if name, ok := paramName(part); ok {
			if v, found := params[name]; found {
				parts[i] = v
			}
		}
	}
	return strings.Join(parts, "/")
}

func paramName(segment string) (string, bool) {
	if len(segment) > 2 && strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
		return segment[1 : len(segment)-1], true
	}
	return "", false
}

func normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func segments(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

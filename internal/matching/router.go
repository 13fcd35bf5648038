package matching

import (
	"strings"
)

// Route binds an operation to a method and path template.
type Route struct {
	ID       string
	Method   string
	Template string
}

// Match is a resolved route with its captured path parameters.
type Match struct {
	Route  Route
	Params map[string]string
	Score  int
}

// Router resolves method+path pairs to routes. It is read-only after the
// last Add and safe for concurrent Resolve calls.
type Router struct {
	routes []Route
}

// NewRouter creates a router over routes.
func NewRouter(routes ...Route) *Router {
	r := &Router{}
	for _, rt := range routes {
		r.Add(rt)
	}
	return r
}

// Add registers a route. Methods are compared case-insensitively; an empty
// method matches any request method.
func (r *Router) Add(rt Route) {
	rt.Method = strings.ToUpper(rt.Method)
	r.routes = append(r.routes, rt)
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Resolve returns the best route for method and path. An exact template match
// wins over any parameterized one; ties keep registration order.
func (r *Router) Resolve(method, path string) (*Match, bool) {
	method = strings.ToUpper(method)
	var best *Match
	for _, rt := range r.routes {
		if rt.Method != "" && rt.Method != method {
			continue
		}
		score, params := MatchPath(rt.Template, path)
		if score == 0 {
			continue
		}
		if best == nil || score > best.Score {
			best = &Match{Route: rt, Params: params, Score: score}
		}
	}
	return best, best != nil
}

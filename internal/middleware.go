package internal

import (
	"fmt"
	"slices"
	"strings"
)

// MiddlewareFactory builds a middleware from the arguments of a route spec.
// For "timeout:5s" the factory registered as "timeout" receives ["5s"].
type MiddlewareFactory func(args ...string) (Middleware, error)

// MiddlewareSet maps names usable in a route's middleware option to factories.
type MiddlewareSet map[string]MiddlewareFactory

// Static returns a factory that ignores arguments.
func Static(mw Middleware) MiddlewareFactory {
	return func(...string) (Middleware, error) { return mw, nil }
}

// MiddlewareQueue collects the middleware a route imports for one request.
// It is not safe for concurrent use.
type MiddlewareQueue struct {
	set     MiddlewareSet
	entries []string
	chain   []Middleware
}

// NewMiddlewareQueue returns an empty queue resolving names from set.
func NewMiddlewareQueue(set MiddlewareSet) *MiddlewareQueue {
	return &MiddlewareQueue{set: set}
}

// Import resolves specs in order and appends them to the queue.
// Specs are "name" or "name:arg1,arg2". Nothing is appended if any spec fails.
func (q *MiddlewareQueue) Import(specs []string) error {
	chain := make([]Middleware, 0, len(specs))
	for _, spec := range specs {
		name, args := parseMiddlewareSpec(spec)
		factory, ok := q.set[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownMiddleware, name)
		}
		mw, err := factory(args...)
		if err != nil {
			return fmt.Errorf("routeforge: middleware %q: %w", spec, err)
		}
		chain = append(chain, mw)
	}

	q.entries = append(q.entries, specs...)
	q.chain = append(q.chain, chain...)
	return nil
}

// Entries returns the imported specs in import order.
func (q *MiddlewareQueue) Entries() []string {
	return slices.Clone(q.entries)
}

// Then wraps h with the imported middleware, first import outermost.
func (q *MiddlewareQueue) Then(h Handler) Handler {
	return Chain(h, q.chain...)
}

func parseMiddlewareSpec(spec string) (string, []string) {
	name, rest, found := strings.Cut(strings.TrimSpace(spec), ":")
	if !found || rest == "" {
		return name, nil
	}
	args := strings.Split(rest, ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return name, args
}

var _ MiddlewareImporter = (*MiddlewareQueue)(nil)

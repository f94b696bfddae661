package loader

import (
	"context"
	"fmt"
)

// Handler is a loader body, or the continuation a unit hands its context to.
type Handler func(ctx context.Context, rc *RequestContext) (Outcome, error)

// Middleware is one unit of the chain. Run either calls next with an
// enriched context or returns without calling it to abort.
type Middleware struct {
	Name string
	Deps []*Middleware
	Run  func(ctx context.Context, rc *RequestContext, next Handler) (Outcome, error)
}

// Pipeline is a flattened, de-duplicated list of units in execution order.
type Pipeline []*Middleware

// Chain flattens units and their dependencies depth-first, dependencies
// first. A unit reachable more than once runs once. It panics on a
// dependency cycle.
func Chain(units ...*Middleware) Pipeline {
	var out Pipeline
	done := make(map[*Middleware]bool)
	visiting := make(map[*Middleware]bool)

	var visit func(m *Middleware)
	visit = func(m *Middleware) {
		if done[m] {
			return
		}
		if visiting[m] {
			panic(fmt.Sprintf("loader: middleware dependency cycle at %q", m.Name))
		}
		visiting[m] = true
		for _, dep := range m.Deps {
			visit(dep)
		}
		visiting[m] = false
		done[m] = true
		out = append(out, m)
	}

	for _, u := range units {
		visit(u)
	}
	return out
}

// With returns a pipeline extended by more units, keeping de-duplication.
func (p Pipeline) With(units ...*Middleware) Pipeline {
	all := make([]*Middleware, 0, len(p)+len(units))
	all = append(all, p...)
	all = append(all, units...)
	return Chain(all...)
}

// Names lists unit names in execution order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, m := range p {
		names[i] = m.Name
	}
	return names
}

// Then composes the pipeline in front of h.
func (p Pipeline) Then(h Handler) Handler {
	next := h
	for i := len(p) - 1; i >= 0; i-- {
		m, inner := p[i], next
		next = func(ctx context.Context, rc *RequestContext) (Outcome, error) {
			return m.Run(ctx, rc, inner)
		}
	}
	return next
}

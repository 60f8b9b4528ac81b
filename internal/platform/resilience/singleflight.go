package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into a single
// execution whose result everyone shares. The third Do result reports whether
// the caller received another call's result. The zero value is ready to use.
type SingleFlight struct {
	mu      sync.Mutex
	pending map[string]*flight
}

type flight struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key at a time. Callers that arrive while a flight for
// the same key is in progress block until it finishes and receive its result.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	g.mu.Lock()
	if g.pending == nil {
		g.pending = make(map[string]*flight)
	}
	if f, found := g.pending[key]; found {
		g.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}

	f := &flight{done: make(chan struct{})}
	g.pending[key] = f
	g.mu.Unlock()

	f.val, f.err = fn()
	close(f.done)

	g.mu.Lock()
	delete(g.pending, key)
	g.mu.Unlock()

	return f.val, f.err, false
}

package confirm

import "sync"

// Gate tracks commands in flight. Callers acquire a token before dispatching a
// command and release it when the command returns; state reconciliation runs
// only while the gate is idle.
type Gate struct {
	mu     sync.Mutex
	next   uint64
	held   map[uint64]string
	onIdle []func()
}

// NewGate creates an idle gate.
func NewGate() *Gate {
	return &Gate{held: make(map[uint64]string)}
}

// Token is one in-flight command. Release is idempotent.
type Token struct {
	gate  *Gate
	id    uint64
	label string
	once  sync.Once
}

// Acquire registers a command in flight.
func (g *Gate) Acquire(label string) *Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	g.held[g.next] = label
	return &Token{gate: g, id: g.next, label: label}
}

// Label returns the label the token was acquired with.
func (t *Token) Label() string {
	return t.label
}

// Release ends the command. When the last token is released every callback
// registered with OnIdle runs on the releasing goroutine.
func (t *Token) Release() {
	t.once.Do(func() {
		g := t.gate
		g.mu.Lock()
		delete(g.held, t.id)
		var callbacks []func()
		if len(g.held) == 0 {
			callbacks = append(callbacks, g.onIdle...)
		}
		g.mu.Unlock()

		for _, fn := range callbacks {
			fn()
		}
	})
}

// Idle reports whether no command is in flight.
func (g *Gate) Idle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held) == 0
}

// InFlight returns the number of unreleased tokens.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}

// OnIdle registers fn to run each time the gate becomes idle.
func (g *Gate) OnIdle(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onIdle = append(g.onIdle, fn)
}

package checkout

import "sync"

// Manager hands out one Checkout per session so the submission phase
// (notably AWAITING_GATEWAY_CALLBACK) survives across requests.
type Manager struct {
	mu      sync.Mutex
	holders map[string]*Checkout
	deps    Deps
}

// NewManager returns a Manager creating holders with the given deps.
func NewManager(deps Deps) *Manager {
	return &Manager{
		holders: map[string]*Checkout{},
		deps:    deps,
	}
}

// Get returns the session's holder, creating it if needed. created
// tells the caller whether the holder still needs hydrating.
func (m *Manager) Get(sessionID string) (co *Checkout, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if co, ok := m.holders[sessionID]; ok {
		return co, false
	}
	co = New(m.deps, sessionID)
	m.holders[sessionID] = co
	return co, true
}

// Drop forgets the session's holder.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holders, sessionID)
}

package session

import (
	"context"
	"sync"

	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
)

// Memory is an in-process checkout.StateStore used for local runs
// (RUN_LOCAL without a session table) and tests.
type Memory struct {
	mu        sync.Mutex
	addresses map[string]checkout.ShippingAddress
	methods   map[string]checkout.PaymentMethod
}

func NewMemory() *Memory {
	return &Memory{
		addresses: map[string]checkout.ShippingAddress{},
		methods:   map[string]checkout.PaymentMethod{},
	}
}

func (m *Memory) SaveAddress(ctx context.Context, sessionID string, addr checkout.ShippingAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses[sessionID] = addr
	return nil
}

func (m *Memory) LoadAddress(ctx context.Context, sessionID string) (*checkout.ShippingAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr, ok := m.addresses[sessionID]
	if !ok {
		return nil, nil
	}
	a := addr
	return &a, nil
}

func (m *Memory) SavePaymentMethod(ctx context.Context, sessionID string, method checkout.PaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[sessionID] = method
	return nil
}

func (m *Memory) LoadPaymentMethod(ctx context.Context, sessionID string) (checkout.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.methods[sessionID], nil
}

func (m *Memory) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.addresses, sessionID)
	delete(m.methods, sessionID)
	return nil
}

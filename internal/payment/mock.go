package payment

import "context"

// Mock permite tests sin pasarela real.
type Mock struct {
	Order      Order
	OrderErr   error
	ValidSig   bool
	LastInput  OrderInput
	OrderCalls int
}

func (m *Mock) CreateOrder(_ context.Context, input OrderInput) (Order, error) {
	m.LastInput = input
	m.OrderCalls++
	if m.OrderErr != nil {
		return Order{}, m.OrderErr
	}
	order := m.Order
	if order.ID == "" {
		order.ID = "order_test"
	}
	if order.Amount == 0 {
		order.Amount = input.Amount
	}
	return order, nil
}

func (m *Mock) VerifySignature(_, _, _ string) bool {
	return m.ValidSig
}

func (m *Mock) KeyID() string {
	return "rzp_test_key"
}

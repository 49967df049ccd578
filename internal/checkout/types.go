package checkout

import (
	"context"

	"github.com/imrishuroy/go-checkout-flow/internal/cart"
)

// PaymentMethod is the binary pay-online / pay-on-delivery choice.
type PaymentMethod string

const (
	PaymentOnline         PaymentMethod = "online"
	PaymentCashOnDelivery PaymentMethod = "cash-on-delivery"

	// DefaultPaymentMethod applies when nothing has been selected or
	// after checkout state is reset.
	DefaultPaymentMethod = PaymentOnline
)

// Valid reports whether m is one of the two supported methods.
func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentCashOnDelivery
}

// ShippingAddress is the address selected for the in-progress checkout.
// All fields must be non-empty by the time order submission is
// attempted; the tags are enforced in PlaceOrder.
type ShippingAddress struct {
	RecipientName string   `json:"recipientName" validate:"required"`
	AddressLines  []string `json:"addressLines" validate:"required,min=1,dive,required"`
	City          string   `json:"city" validate:"required"`
	State         string   `json:"state" validate:"required"`
	PostalCode    string   `json:"postalCode" validate:"required"`
	Phone         string   `json:"phone" validate:"required"`
}

// Phase tracks where an order submission is in the two-path flow
// described by the order submitter state machine. DONE and FAILED are
// terminal; a holder leaves a terminal phase only via ClearCheckoutState.
type Phase string

const (
	PhaseIdle             Phase = "IDLE"
	PhaseSubmitting       Phase = "SUBMITTING"
	PhaseOrderCreated     Phase = "ORDER_CREATED"
	PhaseAwaitingCallback Phase = "AWAITING_GATEWAY_CALLBACK"
	PhaseVerifying        Phase = "VERIFYING"
	PhaseDone             Phase = "DONE"
	PhaseFailed           Phase = "FAILED"
)

// IsTerminal reports whether the phase ends the submission flow.
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// String representation (for logging)
func (p Phase) String() string {
	return string(p)
}

// Result is the outcome of PlaceOrder / ConfirmPayment: either a
// success carrying the internal order id, or a failure carrying a
// human-readable reason.
type Result struct {
	OK      bool   `json:"success"`
	OrderID string `json:"orderId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func success(orderID string) Result {
	return Result{OK: true, OrderID: orderID}
}

func failure(reason string) Result {
	return Result{Reason: reason}
}

// OrderDraft is the payload assembled fresh on each submit attempt and
// handed to the order backend; it is never persisted locally. Field
// names follow the backend's wire contract.
type OrderDraft struct {
	Lines           []cart.Line     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	ItemTotal       int64           `json:"itemTotal"`
	DeliveryFee     int64           `json:"deliveryFee"`
	Discount        int64           `json:"discount"`
	TotalAmount     int64           `json:"totalAmount"`
}

// GatewaySession is the payment provider's server-side handle, bound
// to the exact total amount and the internal order id. Its OrderID is
// the gateway's own session identifier, distinct from ours.
type GatewaySession struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentConfirmation is the signed completion event the gateway hands
// back through its widget callback.
type PaymentConfirmation struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
}

// Ports. Implementations live in internal/cart, internal/orders,
// internal/gateway and internal/session; the holder only sees these.

type CartReader interface {
	GetCart(ctx context.Context, sessionID string) ([]cart.Line, error)
}

type OrderPlacer interface {
	CreateOrder(ctx context.Context, draft OrderDraft) (string, error)
}

type Gateway interface {
	CreateSession(ctx context.Context, amount int64, internalOrderID string) (GatewaySession, error)
	Verify(ctx context.Context, conf PaymentConfirmation, internalOrderID string) error
}

// StateStore persists the session-scoped checkout selections. Absence
// is not an error: Load methods return zero values when nothing was
// saved.
type StateStore interface {
	SaveAddress(ctx context.Context, sessionID string, addr ShippingAddress) error
	LoadAddress(ctx context.Context, sessionID string) (*ShippingAddress, error)
	SavePaymentMethod(ctx context.Context, sessionID string, method PaymentMethod) error
	LoadPaymentMethod(ctx context.Context, sessionID string) (PaymentMethod, error)
	Clear(ctx context.Context, sessionID string) error
}

// Deps groups the collaborators a Checkout needs.
type Deps struct {
	Cart    CartReader
	Orders  OrderPlacer
	Gateway Gateway
	Store   StateStore
}

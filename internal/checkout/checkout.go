// Package checkout holds the single source of truth for an in-progress
// checkout: the cart snapshot, the selected shipping address and payment
// method, and the order submission flow with its payment-gateway
// hand-off. One Checkout instance serves one session.
package checkout

import (
	"context"
	"fmt"
	"log"
	"sync"

	validatorv10 "github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/go-checkout-flow/internal/cart"
	"github.com/imrishuroy/go-checkout-flow/internal/pricing"
)

var validate = validatorv10.New()

// Checkout orchestrates the checkout flow for a single session. All
// state transitions happen under the internal mutex; network calls do
// not hold it. A second PlaceOrder while a submission or verification
// is in flight is rejected rather than left to the caller to prevent.
type Checkout struct {
	mu        sync.Mutex
	sessionID string

	lines          []cart.Line
	address        *ShippingAddress
	payment        PaymentMethod
	phase          Phase
	lastErr        string
	pendingOrderID string
	gatewaySession *GatewaySession

	deps Deps
}

// New returns a Checkout for the given session with default state:
// empty cart, no address, payment method "online", phase IDLE.
func New(deps Deps, sessionID string) *Checkout {
	return &Checkout{
		sessionID: sessionID,
		payment:   DefaultPaymentMethod,
		phase:     PhaseIdle,
		deps:      deps,
	}
}

// State is a point-in-time view of the holder for the read surface.
type State struct {
	SessionID      string           `json:"sessionId"`
	Lines          []cart.Line      `json:"items"`
	Address        *ShippingAddress `json:"shippingAddress,omitempty"`
	PaymentMethod  PaymentMethod    `json:"paymentMethod"`
	Phase          Phase            `json:"phase"`
	Totals         pricing.Totals   `json:"totals"`
	LastError      string           `json:"error,omitempty"`
	GatewaySession *GatewaySession  `json:"gatewaySession,omitempty"`
}

// Snapshot returns the current state and the totals derived from it.
func (c *Checkout) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]cart.Line, len(c.lines))
	copy(lines, c.lines)

	var addr *ShippingAddress
	if c.address != nil {
		a := *c.address
		addr = &a
	}
	var sess *GatewaySession
	if c.gatewaySession != nil {
		s := *c.gatewaySession
		sess = &s
	}

	return State{
		SessionID:      c.sessionID,
		Lines:          lines,
		Address:        addr,
		PaymentMethod:  c.payment,
		Phase:          c.phase,
		Totals:         pricing.Compute(c.lines),
		LastError:      c.lastErr,
		GatewaySession: sess,
	}
}

// Totals recomputes the price breakdown from the current cart snapshot.
func (c *Checkout) Totals() pricing.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.Compute(c.lines)
}

// Hydrate loads persisted address and payment method and fetches the
// cart, in parallel. Every leg is fail-soft: a missing or unreadable
// value leaves the default in place, a cart fetch error surfaces as the
// holder's error message with an empty cart.
func (c *Checkout) Hydrate(ctx context.Context) {
	var (
		addr    *ShippingAddress
		method  PaymentMethod
		lines   []cart.Line
		cartErr error
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		a, err := c.deps.Store.LoadAddress(ctx, c.sessionID)
		if err != nil {
			return fmt.Errorf("load address: %w", err)
		}
		addr = a
		return nil
	})
	g.Go(func() error {
		m, err := c.deps.Store.LoadPaymentMethod(ctx, c.sessionID)
		if err != nil {
			return fmt.Errorf("load payment method: %w", err)
		}
		method = m
		return nil
	})
	g.Go(func() error {
		ls, err := c.deps.Cart.GetCart(ctx, c.sessionID)
		if err != nil {
			cartErr = err
			return nil
		}
		lines = ls
		return nil
	})
	if err := g.Wait(); err != nil {
		// persisted state is an optimization; the session continues on defaults
		log.Printf("[checkout] hydrate session=%s: %v", c.sessionID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.address = addr
	if method.Valid() {
		c.payment = method
	}
	if cartErr != nil {
		c.lines = nil
		c.lastErr = fmt.Sprintf("cart unavailable: %v", cartErr)
		return
	}
	c.lines = lines
}

// RefreshCart re-fetches the cart. On failure the cart is emptied and
// the error message is kept on the holder; retry is a fresh call.
func (c *Checkout) RefreshCart(ctx context.Context) {
	lines, err := c.deps.Cart.GetCart(ctx, c.sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lines = nil
		c.lastErr = fmt.Sprintf("cart unavailable: %v", err)
		return
	}
	c.lines = lines
	c.lastErr = ""
}

// SetShippingAddress stores the address in memory and persists it.
// A persistence error is logged and does not block the in-memory
// update, so checkout can proceed for the current session.
func (c *Checkout) SetShippingAddress(ctx context.Context, addr ShippingAddress) {
	c.mu.Lock()
	a := addr
	c.address = &a
	c.mu.Unlock()

	if err := c.deps.Store.SaveAddress(ctx, c.sessionID, addr); err != nil {
		log.Printf("[checkout] persist address session=%s: %v", c.sessionID, err)
	}
}

// SetPaymentMethod stores the payment choice; same persistence pattern
// as SetShippingAddress.
func (c *Checkout) SetPaymentMethod(ctx context.Context, method PaymentMethod) error {
	if !method.Valid() {
		return fmt.Errorf("unsupported payment method %q", method)
	}

	c.mu.Lock()
	c.payment = method
	c.mu.Unlock()

	if err := c.deps.Store.SavePaymentMethod(ctx, c.sessionID, method); err != nil {
		log.Printf("[checkout] persist payment method session=%s: %v", c.sessionID, err)
	}
	return nil
}

// ClearCheckoutState resets address and payment method to defaults and
// returns the holder to IDLE, independent of any order outcome.
func (c *Checkout) ClearCheckoutState(ctx context.Context) {
	c.mu.Lock()
	c.address = nil
	c.payment = DefaultPaymentMethod
	c.phase = PhaseIdle
	c.pendingOrderID = ""
	c.gatewaySession = nil
	c.lastErr = ""
	c.mu.Unlock()
	c.clearPersisted(ctx)
}

// PlaceOrder assembles a fresh OrderDraft and submits it. Preconditions
// (address set, cart non-empty, nothing already in flight) are checked
// before any network call. On a successful backend response the cart is
// cleared and address/payment method reset; cash-on-delivery finishes
// immediately, the online path opens a gateway session and waits for
// ConfirmPayment.
func (c *Checkout) PlaceOrder(ctx context.Context) Result {
	c.mu.Lock()
	switch c.phase {
	case PhaseSubmitting, PhaseOrderCreated, PhaseAwaitingCallback, PhaseVerifying:
		c.mu.Unlock()
		return failure("submission already in progress")
	}
	if c.address == nil {
		c.mu.Unlock()
		return failure("address required")
	}
	if len(c.lines) == 0 {
		c.mu.Unlock()
		return failure("cart is empty")
	}
	addr := *c.address
	method := c.payment
	lines := make([]cart.Line, len(c.lines))
	copy(lines, c.lines)
	c.phase = PhaseSubmitting
	c.mu.Unlock()

	if err := validate.Struct(addr); err != nil {
		c.fail("address incomplete", PhaseIdle)
		return failure("address incomplete")
	}

	totals := pricing.Compute(lines)
	draft := OrderDraft{
		Lines:           lines,
		ShippingAddress: addr,
		PaymentMethod:   method,
		ItemTotal:       totals.ItemTotal,
		DeliveryFee:     totals.DeliveryFee,
		Discount:        totals.Discount,
		TotalAmount:     totals.TotalAmount,
	}

	orderID, err := c.deps.Orders.CreateOrder(ctx, draft)
	if err != nil {
		// nothing was created; cart, address and payment method stay as they were
		c.fail(fmt.Sprintf("order creation failed: %v", err), PhaseIdle)
		return failure(fmt.Sprintf("order creation failed: %v", err))
	}

	c.mu.Lock()
	c.phase = PhaseOrderCreated
	c.mu.Unlock()

	if method == PaymentCashOnDelivery {
		c.finishOrder(ctx, PhaseDone)
		return success(orderID)
	}

	session, err := c.deps.Gateway.CreateSession(ctx, draft.TotalAmount, orderID)
	if err != nil {
		// the order record exists but is unpaid; surfaced distinctly from
		// order-creation failure, and the user restarts checkout
		reason := fmt.Sprintf("payment could not be started for order %s: %v", orderID, err)
		c.fail(reason, PhaseFailed)
		return failure(reason)
	}

	c.mu.Lock()
	c.lines = nil
	c.address = nil
	c.payment = DefaultPaymentMethod
	c.lastErr = ""
	c.pendingOrderID = orderID
	c.gatewaySession = &session
	c.phase = PhaseAwaitingCallback
	c.mu.Unlock()
	c.clearPersisted(ctx)
	return success(orderID)
}

// ConfirmPayment forwards the gateway's signed confirmation to the
// verification backend. Valid only while a gateway callback is
// awaited; DONE and FAILED are never left except via reset.
func (c *Checkout) ConfirmPayment(ctx context.Context, conf PaymentConfirmation) Result {
	c.mu.Lock()
	if c.phase != PhaseAwaitingCallback {
		c.mu.Unlock()
		return failure("no payment awaiting confirmation")
	}
	orderID := c.pendingOrderID
	c.phase = PhaseVerifying
	c.mu.Unlock()

	if err := c.deps.Gateway.Verify(ctx, conf, orderID); err != nil {
		reason := fmt.Sprintf("payment verification failed for order %s: %v", orderID, err)
		c.fail(reason, PhaseFailed)
		return Result{OrderID: orderID, Reason: reason}
	}

	c.mu.Lock()
	c.phase = PhaseDone
	c.lastErr = ""
	c.mu.Unlock()
	return success(orderID)
}

// AbortPayment records a gateway-reported failure (widget dismissed or
// payment declined) while a callback was awaited. No compensating
// action is taken on the unpaid order.
func (c *Checkout) AbortPayment(reason string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseAwaitingCallback {
		return failure("no payment awaiting confirmation")
	}
	c.phase = PhaseFailed
	if reason == "" {
		reason = "payment failed"
	}
	c.lastErr = reason
	return Result{OrderID: c.pendingOrderID, Reason: reason}
}

// finishOrder clears the transient checkout state after the backend has
// accepted the order, and moves to the given phase. The persisted copy
// is cleared best-effort.
func (c *Checkout) finishOrder(ctx context.Context, next Phase) {
	c.mu.Lock()
	c.lines = nil
	c.address = nil
	c.payment = DefaultPaymentMethod
	c.lastErr = ""
	c.phase = next
	c.mu.Unlock()
	c.clearPersisted(ctx)
}

func (c *Checkout) clearPersisted(ctx context.Context) {
	if err := c.deps.Store.Clear(ctx, c.sessionID); err != nil {
		log.Printf("[checkout] clear persisted state session=%s: %v", c.sessionID, err)
	}
}

func (c *Checkout) fail(reason string, next Phase) {
	c.mu.Lock()
	c.lastErr = reason
	c.phase = next
	c.mu.Unlock()
}

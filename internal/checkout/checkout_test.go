package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/imrishuroy/go-checkout-flow/internal/cart"
)

// --- fakes ---

type fakeCart struct {
	mu    sync.Mutex
	lines []cart.Line
	err   error
	calls int
}

func (f *fakeCart) GetCart(ctx context.Context, sessionID string) ([]cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.lines, nil
}

type fakeOrders struct {
	mu        sync.Mutex
	orderID   string
	err       error
	calls     int
	lastDraft OrderDraft
	block     chan struct{} // when set, CreateOrder waits on it
}

func (f *fakeOrders) CreateOrder(ctx context.Context, draft OrderDraft) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastDraft = draft
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return "", f.err
	}
	return f.orderID, nil
}

type fakeGateway struct {
	session     GatewaySession
	createErr   error
	verifyErr   error
	createCalls int
	verifyCalls int
}

func (f *fakeGateway) CreateSession(ctx context.Context, amount int64, internalOrderID string) (GatewaySession, error) {
	f.createCalls++
	if f.createErr != nil {
		return GatewaySession{}, f.createErr
	}
	return f.session, nil
}

func (f *fakeGateway) Verify(ctx context.Context, conf PaymentConfirmation, internalOrderID string) error {
	f.verifyCalls++
	return f.verifyErr
}

type fakeStore struct {
	mu        sync.Mutex
	addresses map[string]ShippingAddress
	methods   map[string]PaymentMethod
	saveErr   error
	clears    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		addresses: map[string]ShippingAddress{},
		methods:   map[string]PaymentMethod{},
	}
}

func (f *fakeStore) SaveAddress(ctx context.Context, sessionID string, addr ShippingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.addresses[sessionID] = addr
	return nil
}

func (f *fakeStore) LoadAddress(ctx context.Context, sessionID string) (*ShippingAddress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	addr, ok := f.addresses[sessionID]
	if !ok {
		return nil, nil
	}
	a := addr
	return &a, nil
}

func (f *fakeStore) SavePaymentMethod(ctx context.Context, sessionID string, method PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.methods[sessionID] = method
	return nil
}

func (f *fakeStore) LoadPaymentMethod(ctx context.Context, sessionID string) (PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.methods[sessionID], nil
}

func (f *fakeStore) Clear(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	delete(f.addresses, sessionID)
	delete(f.methods, sessionID)
	return nil
}

func validAddress() ShippingAddress {
	return ShippingAddress{
		RecipientName: "Asha Rao",
		AddressLines:  []string{"14 MG Road", "2nd floor"},
		City:          "Bengaluru",
		State:         "Karnataka",
		PostalCode:    "560001",
		Phone:         "9876543210",
	}
}

type deps struct {
	cart    *fakeCart
	orders  *fakeOrders
	gateway *fakeGateway
	store   *fakeStore
}

func newTestCheckout(lines []cart.Line) (*Checkout, *deps) {
	d := &deps{
		cart:    &fakeCart{lines: lines},
		orders:  &fakeOrders{orderID: "order-1"},
		gateway: &fakeGateway{session: GatewaySession{OrderID: "gw-1", Amount: 940, Currency: "INR"}},
		store:   newFakeStore(),
	}
	co := New(Deps{Cart: d.cart, Orders: d.orders, Gateway: d.gateway, Store: d.store}, "sess-1")
	co.Hydrate(context.Background())
	return co, d
}

// --- tests ---

func TestPlaceOrder_NoAddress(t *testing.T) {
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 500, Quantity: 2}})

	res := co.PlaceOrder(context.Background())
	if res.OK {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Reason != "address required" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
	if d.orders.calls != 0 || d.gateway.createCalls != 0 {
		t.Fatalf("expected zero network calls, got orders=%d gateway=%d", d.orders.calls, d.gateway.createCalls)
	}

	totals := co.Totals()
	if totals.ItemTotal != 1000 || totals.DeliveryFee != 40 || totals.Discount != 100 || totals.TotalAmount != 940 {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	co, d := newTestCheckout(nil)
	co.SetShippingAddress(context.Background(), validAddress())

	res := co.PlaceOrder(context.Background())
	if res.OK || res.Reason != "cart is empty" {
		t.Fatalf("expected cart-is-empty failure, got %+v", res)
	}
	if d.orders.calls != 0 {
		t.Fatalf("expected zero network calls, got %d", d.orders.calls)
	}
}

func TestPlaceOrder_CashOnDelivery(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 1000, Quantity: 1}})
	co.SetShippingAddress(ctx, validAddress())
	if err := co.SetPaymentMethod(ctx, PaymentCashOnDelivery); err != nil {
		t.Fatalf("SetPaymentMethod: %v", err)
	}

	res := co.PlaceOrder(ctx)
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.OrderID != "order-1" {
		t.Fatalf("unexpected order id %q", res.OrderID)
	}
	if d.gateway.createCalls != 0 {
		t.Fatalf("cash-on-delivery must not touch the gateway")
	}

	draft := d.orders.lastDraft
	if draft.ItemTotal != 1000 || draft.DeliveryFee != 40 || draft.Discount != 100 || draft.TotalAmount != 940 {
		t.Fatalf("unexpected draft totals %+v", draft)
	}
	if draft.PaymentMethod != PaymentCashOnDelivery {
		t.Fatalf("unexpected payment method %q", draft.PaymentMethod)
	}

	snap := co.Snapshot()
	if len(snap.Lines) != 0 {
		t.Fatalf("cart should be empty after success")
	}
	if snap.Address != nil {
		t.Fatalf("address should be reset after success")
	}
	if snap.PaymentMethod != DefaultPaymentMethod {
		t.Fatalf("payment method should be reset, got %q", snap.PaymentMethod)
	}
	if snap.Phase != PhaseDone {
		t.Fatalf("expected DONE, got %s", snap.Phase)
	}
	if d.store.clears == 0 {
		t.Fatalf("persisted state should be cleared on success")
	}
}

func TestPlaceOrder_BackendFailure_StateUnchanged(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 300, Quantity: 1}})
	co.SetShippingAddress(ctx, validAddress())
	d.orders.err = errors.New("backend down")

	res := co.PlaceOrder(ctx)
	if res.OK {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Reason, "order creation failed") {
		t.Fatalf("unexpected reason %q", res.Reason)
	}

	snap := co.Snapshot()
	if len(snap.Lines) != 1 || snap.Address == nil || snap.PaymentMethod != DefaultPaymentMethod {
		t.Fatalf("state must be unchanged after failure: %+v", snap)
	}
	if snap.Phase != PhaseIdle {
		t.Fatalf("expected IDLE after order-creation failure, got %s", snap.Phase)
	}

	// retry is a fresh user-initiated call
	d.orders.err = nil
	if res := co.PlaceOrder(ctx); !res.OK {
		t.Fatalf("retry should succeed, got %+v", res)
	}
}

func TestPlaceOrder_OnlinePath(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 1000, Quantity: 1}})
	co.SetShippingAddress(ctx, validAddress())

	res := co.PlaceOrder(ctx)
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	if d.gateway.createCalls != 1 {
		t.Fatalf("expected one gateway session, got %d", d.gateway.createCalls)
	}

	snap := co.Snapshot()
	if snap.Phase != PhaseAwaitingCallback {
		t.Fatalf("expected AWAITING_GATEWAY_CALLBACK, got %s", snap.Phase)
	}
	if snap.GatewaySession == nil || snap.GatewaySession.OrderID != "gw-1" {
		t.Fatalf("gateway session should be exposed, got %+v", snap.GatewaySession)
	}

	conf := PaymentConfirmation{GatewayOrderID: "gw-1", PaymentID: "pay-1", Signature: "sig"}
	verified := co.ConfirmPayment(ctx, conf)
	if !verified.OK || verified.OrderID != "order-1" {
		t.Fatalf("expected verified success, got %+v", verified)
	}
	if d.gateway.verifyCalls != 1 {
		t.Fatalf("expected one verify call, got %d", d.gateway.verifyCalls)
	}
	if got := co.Snapshot().Phase; got != PhaseDone {
		t.Fatalf("expected DONE, got %s", got)
	}
}

func TestConfirmPayment_WithoutPendingSubmission(t *testing.T) {
	co, d := newTestCheckout(nil)
	res := co.ConfirmPayment(context.Background(), PaymentConfirmation{})
	if res.OK || res.Reason != "no payment awaiting confirmation" {
		t.Fatalf("unexpected result %+v", res)
	}
	if d.gateway.verifyCalls != 0 {
		t.Fatalf("expected zero verify calls")
	}
}

func TestConfirmPayment_VerificationFails(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 100, Quantity: 1}})
	co.SetShippingAddress(ctx, validAddress())
	d.gateway.verifyErr = errors.New("signature mismatch")

	if res := co.PlaceOrder(ctx); !res.OK {
		t.Fatalf("place order: %+v", res)
	}
	res := co.ConfirmPayment(ctx, PaymentConfirmation{GatewayOrderID: "gw-1", PaymentID: "pay-1", Signature: "bad"})
	if res.OK {
		t.Fatalf("expected failure")
	}
	if got := co.Snapshot().Phase; got != PhaseFailed {
		t.Fatalf("expected FAILED, got %s", got)
	}

	// terminal state is never revisited
	again := co.ConfirmPayment(ctx, PaymentConfirmation{GatewayOrderID: "gw-1", PaymentID: "pay-1", Signature: "sig"})
	if again.OK {
		t.Fatalf("FAILED must be terminal, got %+v", again)
	}
}

func TestPlaceOrder_GatewaySessionFails(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 100, Quantity: 1}})
	co.SetShippingAddress(ctx, validAddress())
	d.gateway.createErr = errors.New("gateway unavailable")

	res := co.PlaceOrder(ctx)
	if res.OK {
		t.Fatalf("expected failure")
	}
	// the order exists but is unpaid; the reason must say which order
	if !strings.Contains(res.Reason, "order-1") {
		t.Fatalf("reason should name the unpaid order, got %q", res.Reason)
	}
	if got := co.Snapshot().Phase; got != PhaseFailed {
		t.Fatalf("expected FAILED, got %s", got)
	}
}

func TestAbortPayment(t *testing.T) {
	ctx := context.Background()
	co, _ := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 100, Quantity: 1}})
	co.SetShippingAddress(ctx, validAddress())

	if res := co.PlaceOrder(ctx); !res.OK {
		t.Fatalf("place order: %+v", res)
	}
	res := co.AbortPayment("widget dismissed")
	if res.OK || res.OrderID != "order-1" || res.Reason != "widget dismissed" {
		t.Fatalf("unexpected abort result %+v", res)
	}
	if got := co.Snapshot().Phase; got != PhaseFailed {
		t.Fatalf("expected FAILED, got %s", got)
	}
}

func TestPersistence_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout(nil)
	co.SetShippingAddress(ctx, validAddress())
	if err := co.SetPaymentMethod(ctx, PaymentCashOnDelivery); err != nil {
		t.Fatalf("SetPaymentMethod: %v", err)
	}

	// fresh holder over the same store simulates a page reload
	co2 := New(Deps{Cart: d.cart, Orders: d.orders, Gateway: d.gateway, Store: d.store}, "sess-1")
	co2.Hydrate(ctx)

	snap := co2.Snapshot()
	if snap.Address == nil || snap.Address.RecipientName != "Asha Rao" {
		t.Fatalf("address not recovered: %+v", snap.Address)
	}
	if snap.PaymentMethod != PaymentCashOnDelivery {
		t.Fatalf("payment method not recovered: %q", snap.PaymentMethod)
	}
}

func TestStorageFailure_DoesNotBlockCheckout(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 100, Quantity: 1}})
	d.store.saveErr = errors.New("quota exceeded")

	co.SetShippingAddress(ctx, validAddress())
	if snap := co.Snapshot(); snap.Address == nil {
		t.Fatalf("in-memory address update must not depend on persistence")
	}

	if err := co.SetPaymentMethod(ctx, PaymentCashOnDelivery); err != nil {
		t.Fatalf("SetPaymentMethod: %v", err)
	}
	if res := co.PlaceOrder(ctx); !res.OK {
		t.Fatalf("checkout should proceed for the current session, got %+v", res)
	}
}

func TestRefreshCart_FailSoft(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 100, Quantity: 1}})
	d.cart.err = errors.New("timeout")

	co.RefreshCart(ctx)
	snap := co.Snapshot()
	if len(snap.Lines) != 0 {
		t.Fatalf("cart should be emptied on fetch failure")
	}
	if !strings.Contains(snap.LastError, "cart unavailable") {
		t.Fatalf("unexpected error message %q", snap.LastError)
	}

	// manual retry
	d.cart.err = nil
	co.RefreshCart(ctx)
	snap = co.Snapshot()
	if len(snap.Lines) != 1 || snap.LastError != "" {
		t.Fatalf("retry should recover the cart: %+v", snap)
	}
}

func TestSetPaymentMethod_Invalid(t *testing.T) {
	co, _ := newTestCheckout(nil)
	if err := co.SetPaymentMethod(context.Background(), PaymentMethod("upi")); err == nil {
		t.Fatalf("expected error for unsupported method")
	}
}

func TestPlaceOrder_IncompleteAddress(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 100, Quantity: 1}})
	addr := validAddress()
	addr.PostalCode = ""
	co.SetShippingAddress(ctx, addr)

	res := co.PlaceOrder(ctx)
	if res.OK || res.Reason != "address incomplete" {
		t.Fatalf("unexpected result %+v", res)
	}
	if d.orders.calls != 0 {
		t.Fatalf("validation failure must not reach the backend")
	}
}

func TestPlaceOrder_RejectsConcurrentSubmit(t *testing.T) {
	ctx := context.Background()
	co, d := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 100, Quantity: 1}})
	co.SetShippingAddress(ctx, validAddress())

	release := make(chan struct{})
	d.orders.block = release

	first := make(chan Result, 1)
	go func() { first <- co.PlaceOrder(ctx) }()

	// wait until the first submission is holding the backend call
	for {
		d.orders.mu.Lock()
		calls := d.orders.calls
		d.orders.mu.Unlock()
		if calls == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	second := co.PlaceOrder(ctx)
	if second.OK || second.Reason != "submission already in progress" {
		t.Fatalf("unexpected second result %+v", second)
	}

	close(release)
	if res := <-first; !res.OK {
		t.Fatalf("first submission should succeed, got %+v", res)
	}
}

func TestClearCheckoutState_ResetsTerminalPhase(t *testing.T) {
	ctx := context.Background()
	co, _ := newTestCheckout([]cart.Line{{ProductRef: "p1", UnitPrice: 100, Quantity: 1}})
	co.SetShippingAddress(ctx, validAddress())
	if err := co.SetPaymentMethod(ctx, PaymentCashOnDelivery); err != nil {
		t.Fatalf("SetPaymentMethod: %v", err)
	}
	if res := co.PlaceOrder(ctx); !res.OK {
		t.Fatalf("place order: %+v", res)
	}

	co.ClearCheckoutState(ctx)
	snap := co.Snapshot()
	if snap.Phase != PhaseIdle || snap.Address != nil || snap.PaymentMethod != DefaultPaymentMethod {
		t.Fatalf("expected defaults after reset, got %+v", snap)
	}
}

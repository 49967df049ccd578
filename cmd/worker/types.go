package worker

// CheckoutEvent is the payload sent from API -> SQS -> Worker.
type CheckoutEvent struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	OrderID       string `json:"order_id"`
	SessionID     string `json:"session_id"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// Event types published by the API.
const (
	EventOrderPlaced      = "order_placed"
	EventPaymentConfirmed = "payment_confirmed"
	EventPaymentFailed    = "payment_failed"
)

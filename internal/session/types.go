package session

import "time"

// Record is the per-session checkout state persisted in DynamoDB.
// Address is kept JSON-serialized, payment_method as a plain string;
// each attribute is written independently, last write wins. ExpiresAt
// lets abandoned checkouts age out via the table's TTL.
type Record struct {
	SessionID     string    `dynamodbav:"session_id"` // PK
	Address       string    `dynamodbav:"address,omitempty"`
	PaymentMethod string    `dynamodbav:"payment_method,omitempty"`
	UpdatedAt     time.Time `dynamodbav:"updated_at"`
	ExpiresAt     int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}

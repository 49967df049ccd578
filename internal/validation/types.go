package validation

import "github.com/imrishuroy/go-checkout-flow/internal/checkout"

// SetAddressRequest is the payload for PUT /checkout/address. Field
// validation here is the address form's job; the holder only re-checks
// completeness at submit time.
type SetAddressRequest struct {
	RecipientName string   `json:"recipientName" validate:"required"`
	AddressLines  []string `json:"addressLines" validate:"required,min=1,dive,required"` // ordered lines, none empty
	City          string   `json:"city" validate:"required"`
	State         string   `json:"state" validate:"required"`
	PostalCode    string   `json:"postalCode" validate:"required"`
	Phone         string   `json:"phone" validate:"required"`
}

// Address converts the request into the holder's address type.
func (r SetAddressRequest) Address() checkout.ShippingAddress {
	return checkout.ShippingAddress{
		RecipientName: r.RecipientName,
		AddressLines:  r.AddressLines,
		City:          r.City,
		State:         r.State,
		PostalCode:    r.PostalCode,
		Phone:         r.Phone,
	}
}

// SetPaymentMethodRequest is the payload for PUT /checkout/payment-method.
type SetPaymentMethodRequest struct {
	Method string `json:"paymentMethod" validate:"required,oneof=online cash-on-delivery"`
}

// ConfirmPaymentRequest carries the gateway widget's signed
// confirmation; field names follow the gateway's callback contract.
type ConfirmPaymentRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	PaymentID      string `json:"razorpay_payment_id" validate:"required"`
	Signature      string `json:"razorpay_signature" validate:"required"`
}

// AbortPaymentRequest reports a gateway failure (widget dismissed or
// payment declined); the reason is optional.
type AbortPaymentRequest struct {
	Reason string `json:"reason"`
}

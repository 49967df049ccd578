package pricing

import (
	"math"

	"github.com/imrishuroy/go-checkout-flow/internal/cart"
)

// All amounts are whole rupees.
const (
	// DeliveryFee is the flat delivery charge applied to any non-empty cart.
	DeliveryFee int64 = 40

	// discountRate is a flat demo rule; a coupon engine would replace
	// Compute rather than extend this constant.
	discountRate = 0.10
)

// Totals is the price breakdown derived from the current cart. It is
// never stored independently of the cart it was computed from.
type Totals struct {
	ItemTotal   int64 `json:"itemTotal"`
	DeliveryFee int64 `json:"deliveryFee"`
	Discount    int64 `json:"discount"`
	TotalAmount int64 `json:"totalAmount"`
}

// Compute derives totals from cart lines:
// subtotal = sum(unitPrice * quantity), delivery fee is flat and
// charged iff the subtotal is positive, discount is the flat rate of
// the subtotal rounded half-up, total = subtotal + fee - discount.
func Compute(lines []cart.Line) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.LineTotal()
	}

	var fee int64
	if subtotal > 0 {
		fee = DeliveryFee
	}
	discount := int64(math.Round(float64(subtotal) * discountRate))

	return Totals{
		ItemTotal:   subtotal,
		DeliveryFee: fee,
		Discount:    discount,
		TotalAmount: subtotal + fee - discount,
	}
}

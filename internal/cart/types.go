package cart

// Line is one product/variant/quantity entry in the shopping cart.
// UnitPrice is in whole rupees; the cart backend owns the records and
// this layer never mutates a line, only re-fetches.
type Line struct {
	ProductRef   string `json:"productId"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"price"`
	Quantity     int64  `json:"quantity"`
	VariantLabel string `json:"variant,omitempty"`
	ImageRef     string `json:"image,omitempty"`
}

// LineTotal is UnitPrice * Quantity for the line.
func (l Line) LineTotal() int64 {
	return l.UnitPrice * l.Quantity
}

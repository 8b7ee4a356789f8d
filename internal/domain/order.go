package domain

// LineItem is one product entry on an order. Price is the unit price in the
// smallest currency unit.
type LineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// Amount returns the line total.
func (li LineItem) Amount() int64 {
	return li.Price * int64(li.Quantity)
}

// Adjustment is a credit or charge applied to an order. Promotions create
// negative adjustments; SourceType and SourceID point back at the action
// that created it.
type Adjustment struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Amount     int64  `json:"amount"`
	SourceType string `json:"source_type,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
}

// Order is the cart or checkout an eligibility check and a discount apply
// against. Totals are kept in the smallest currency unit.
type Order struct {
	ID              string       `json:"id"`
	Number          string       `json:"number"`
	UserID          string       `json:"user_id,omitempty"`
	Email           string       `json:"email,omitempty"`
	Currency        string       `json:"currency"`
	ItemTotal       int64        `json:"item_total"`
	ShipmentTotal   int64        `json:"shipment_total"`
	AdjustmentTotal int64        `json:"adjustment_total"`
	Total           int64        `json:"total"`
	LineItems       []LineItem   `json:"line_items,omitempty"`
	Adjustments     []Adjustment `json:"adjustments,omitempty"`
	ShipAddress     *Address     `json:"ship_address,omitempty"`
	BillAddress     *Address     `json:"bill_address,omitempty"`
}

// RecalculateItemTotal sums the line items into ItemTotal and refreshes the
// grand total.
func (o *Order) RecalculateItemTotal() {
	var total int64
	for _, li := range o.LineItems {
		total += li.Amount()
	}
	o.ItemTotal = total
	o.recalculateTotal()
}

// AddAdjustment appends an adjustment and refreshes the totals.
func (o *Order) AddAdjustment(a Adjustment) {
	o.Adjustments = append(o.Adjustments, a)
	var total int64
	for _, adj := range o.Adjustments {
		total += adj.Amount
	}
	o.AdjustmentTotal = total
	o.recalculateTotal()
}

func (o *Order) recalculateTotal() {
	o.Total = o.ItemTotal + o.ShipmentTotal + o.AdjustmentTotal
	if o.Total < 0 {
		o.Total = 0
	}
}

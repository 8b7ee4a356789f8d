package promotion

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborline/storefront/internal/domain"
)

// ActionTypeFreeShipping cancels the order's shipment charge.
const ActionTypeFreeShipping = "free_shipping"

func init() {
	RegisterAction(ActionTypeFreeShipping, newFreeShippingAction)
}

type freeShippingAction struct {
	actionID string
}

func newFreeShippingAction(rec domain.PromotionAction) (Action, error) {
	return &freeShippingAction{actionID: rec.ID}, nil
}

// Perform offsets the shipment total with a negative adjustment. Orders with
// no shipment charge, or already adjusted by this action, are left untouched.
func (a *freeShippingAction) Perform(_ context.Context, order *domain.Order, promo *domain.Promotion) error {
	if order.ShipmentTotal <= 0 || hasAdjustmentFrom(order, a.actionID) {
		return nil
	}

	order.AddAdjustment(domain.Adjustment{
		ID:         uuid.New().String(),
		Label:      "Free Shipping (" + promo.Name + ")",
		Amount:     -order.ShipmentTotal,
		SourceType: SourceTypePromotionAction,
		SourceID:   a.actionID,
	})
	return nil
}

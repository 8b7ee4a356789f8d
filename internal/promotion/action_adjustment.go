package promotion

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborline/storefront/internal/domain"
)

// ActionTypeCreateAdjustment discounts the order by an amount computed by
// the action's calculator.
const ActionTypeCreateAdjustment = "create_adjustment"

// SourceTypePromotionAction marks adjustments created by promotion actions.
const SourceTypePromotionAction = "promotion_action"

func init() {
	RegisterAction(ActionTypeCreateAdjustment, newCreateAdjustmentAction)
}

type createAdjustmentAction struct {
	actionID   string
	calculator Calculator
}

func newCreateAdjustmentAction(rec domain.PromotionAction) (Action, error) {
	calc, err := NewCalculator(rec)
	if err != nil {
		return nil, err
	}
	return &createAdjustmentAction{actionID: rec.ID, calculator: calc}, nil
}

// Perform computes the discount and records it as a negative adjustment.
// The discount never exceeds what is left of the order total, and an order
// already adjusted by this action is left untouched.
func (a *createAdjustmentAction) Perform(_ context.Context, order *domain.Order, promo *domain.Promotion) error {
	if hasAdjustmentFrom(order, a.actionID) {
		return nil
	}

	amount := a.calculator.Compute(order)
	if amount <= 0 {
		return nil
	}
	if amount > order.Total {
		amount = order.Total
	}

	order.AddAdjustment(domain.Adjustment{
		ID:         uuid.New().String(),
		Label:      "Promotion (" + promo.Name + ")",
		Amount:     -amount,
		SourceType: SourceTypePromotionAction,
		SourceID:   a.actionID,
	})
	return nil
}

func hasAdjustmentFrom(order *domain.Order, actionID string) bool {
	for _, adj := range order.Adjustments {
		if adj.SourceType == SourceTypePromotionAction && adj.SourceID == actionID {
			return true
		}
	}
	return false
}

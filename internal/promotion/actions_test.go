package promotion

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront/internal/domain"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

func TestNewAction_UnknownType(t *testing.T) {
	_, err := NewAction(domain.PromotionAction{Type: "no_such_action"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func flatRateAction(id string, amount int64) domain.PromotionAction {
	prefs, _ := json.Marshal(map[string]int64{"amount": amount})
	return domain.PromotionAction{
		ID:                    id,
		Type:                  ActionTypeCreateAdjustment,
		CalculatorType:        CalculatorFlatRate,
		CalculatorPreferences: prefs,
	}
}

func TestCreateAdjustmentAction_Perform(t *testing.T) {
	action, err := NewAction(flatRateAction("action-1", 1000))
	require.NoError(t, err)

	order := &domain.Order{ItemTotal: 5000, Total: 5000}
	promo := &domain.Promotion{Name: "Spring Sale"}

	require.NoError(t, action.Perform(context.Background(), order, promo))

	require.Len(t, order.Adjustments, 1)
	adj := order.Adjustments[0]
	assert.Equal(t, int64(-1000), adj.Amount)
	assert.Equal(t, "Promotion (Spring Sale)", adj.Label)
	assert.Equal(t, SourceTypePromotionAction, adj.SourceType)
	assert.Equal(t, "action-1", adj.SourceID)
	assert.Equal(t, int64(4000), order.Total)
}

func TestCreateAdjustmentAction_Idempotent(t *testing.T) {
	action, err := NewAction(flatRateAction("action-1", 1000))
	require.NoError(t, err)

	order := &domain.Order{ItemTotal: 5000, Total: 5000}
	promo := &domain.Promotion{Name: "Spring Sale"}
	ctx := context.Background()

	require.NoError(t, action.Perform(ctx, order, promo))
	require.NoError(t, action.Perform(ctx, order, promo))

	assert.Len(t, order.Adjustments, 1)
	assert.Equal(t, int64(4000), order.Total)
}

func TestCreateAdjustmentAction_ClampsToOrderTotal(t *testing.T) {
	action, err := NewAction(flatRateAction("action-1", 9000))
	require.NoError(t, err)

	order := &domain.Order{ItemTotal: 2500, Total: 2500}

	require.NoError(t, action.Perform(context.Background(), order, &domain.Promotion{Name: "Big"}))

	require.Len(t, order.Adjustments, 1)
	assert.Equal(t, int64(-2500), order.Adjustments[0].Amount)
	assert.Equal(t, int64(0), order.Total)
}

func TestCreateAdjustmentAction_ZeroAmountIsNoOp(t *testing.T) {
	action, err := NewAction(flatRateAction("action-1", 0))
	require.NoError(t, err)

	order := &domain.Order{ItemTotal: 2500, Total: 2500}

	require.NoError(t, action.Perform(context.Background(), order, &domain.Promotion{}))

	assert.Empty(t, order.Adjustments)
	assert.Equal(t, int64(2500), order.Total)
}

func TestCreateAdjustmentAction_RequiresKnownCalculator(t *testing.T) {
	_, err := NewAction(domain.PromotionAction{
		Type:           ActionTypeCreateAdjustment,
		CalculatorType: "no_such_calculator",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestFreeShippingAction_Perform(t *testing.T) {
	action, err := NewAction(domain.PromotionAction{ID: "action-2", Type: ActionTypeFreeShipping})
	require.NoError(t, err)

	order := &domain.Order{ItemTotal: 5000, ShipmentTotal: 700, Total: 5700}

	require.NoError(t, action.Perform(context.Background(), order, &domain.Promotion{Name: "Ship Free"}))

	require.Len(t, order.Adjustments, 1)
	adj := order.Adjustments[0]
	assert.Equal(t, int64(-700), adj.Amount)
	assert.Equal(t, "Free Shipping (Ship Free)", adj.Label)
	assert.Equal(t, "action-2", adj.SourceID)
	assert.Equal(t, int64(5000), order.Total)
}

func TestFreeShippingAction_NoShipmentChargeIsNoOp(t *testing.T) {
	action, err := NewAction(domain.PromotionAction{ID: "action-2", Type: ActionTypeFreeShipping})
	require.NoError(t, err)

	order := &domain.Order{ItemTotal: 5000, Total: 5000}

	require.NoError(t, action.Perform(context.Background(), order, &domain.Promotion{}))

	assert.Empty(t, order.Adjustments)
	assert.Equal(t, int64(5000), order.Total)
}

func TestFreeShippingAction_Idempotent(t *testing.T) {
	action, err := NewAction(domain.PromotionAction{ID: "action-2", Type: ActionTypeFreeShipping})
	require.NoError(t, err)

	order := &domain.Order{ItemTotal: 5000, ShipmentTotal: 700, Total: 5700}
	ctx := context.Background()

	require.NoError(t, action.Perform(ctx, order, &domain.Promotion{}))
	require.NoError(t, action.Perform(ctx, order, &domain.Promotion{}))

	assert.Len(t, order.Adjustments, 1)
	assert.Equal(t, int64(5000), order.Total)
}

package promotion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront/internal/domain"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

func TestNewCalculator_UnknownType(t *testing.T) {
	_, err := NewCalculator(domain.PromotionAction{CalculatorType: "no_such_calculator"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestFlatRateCalculator(t *testing.T) {
	calc, err := NewCalculator(domain.PromotionAction{
		CalculatorType:        CalculatorFlatRate,
		CalculatorPreferences: json.RawMessage(`{"amount":1500}`),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1500), calc.Compute(&domain.Order{ItemTotal: 99999}))
	assert.Equal(t, int64(1500), calc.Compute(&domain.Order{}))
}

func TestFlatRateCalculator_NegativeAmountRejected(t *testing.T) {
	_, err := NewCalculator(domain.PromotionAction{
		CalculatorType:        CalculatorFlatRate,
		CalculatorPreferences: json.RawMessage(`{"amount":-100}`),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPercentCalculator(t *testing.T) {
	tests := []struct {
		name      string
		prefs     string
		itemTotal int64
		want      int64
	}{
		{"15 percent", `{"percent_bps":1500}`, 10000, 1500},
		{"rounds down", `{"percent_bps":1500}`, 99, 14},
		{"full discount", `{"percent_bps":10000}`, 4200, 4200},
		{"zero percent", `{"percent_bps":0}`, 10000, 0},
		{"capped", `{"percent_bps":5000,"max_discount":1000}`, 10000, 1000},
		{"under cap", `{"percent_bps":500,"max_discount":1000}`, 10000, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := NewCalculator(domain.PromotionAction{
				CalculatorType:        CalculatorPercentOnItemTotal,
				CalculatorPreferences: json.RawMessage(tt.prefs),
			})
			require.NoError(t, err)

			assert.Equal(t, tt.want, calc.Compute(&domain.Order{ItemTotal: tt.itemTotal}))
		})
	}
}

func TestPercentCalculator_InvalidSettings(t *testing.T) {
	for name, prefs := range map[string]string{
		"over 100 percent": `{"percent_bps":10001}`,
		"negative percent": `{"percent_bps":-1}`,
		"negative cap":     `{"percent_bps":1000,"max_discount":-5}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewCalculator(domain.PromotionAction{
				CalculatorType:        CalculatorPercentOnItemTotal,
				CalculatorPreferences: json.RawMessage(prefs),
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

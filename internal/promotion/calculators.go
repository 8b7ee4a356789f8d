package promotion

import (
	"encoding/json"

	"github.com/harborline/storefront/internal/domain"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

// Calculator type names.
const (
	CalculatorFlatRate           = "flat_rate"
	CalculatorPercentOnItemTotal = "percent_on_item_total"
)

func init() {
	RegisterCalculator(CalculatorFlatRate, newFlatRateCalculator)
	RegisterCalculator(CalculatorPercentOnItemTotal, newPercentCalculator)
}

type flatRatePrefs struct {
	Amount int64 `json:"amount"`
}

type flatRateCalculator struct {
	amount int64
}

func newFlatRateCalculator(rec domain.PromotionAction) (Calculator, error) {
	var prefs flatRatePrefs
	if len(rec.CalculatorPreferences) > 0 {
		if err := json.Unmarshal(rec.CalculatorPreferences, &prefs); err != nil {
			return nil, apperrors.InvalidInput("invalid flat rate settings: " + err.Error())
		}
	}
	if prefs.Amount < 0 {
		return nil, apperrors.InvalidInput("flat rate amount must not be negative")
	}
	return &flatRateCalculator{amount: prefs.Amount}, nil
}

func (c *flatRateCalculator) Compute(*domain.Order) int64 {
	return c.amount
}

type percentPrefs struct {
	// PercentBps is the discount rate in basis points, so 1500 means 15%.
	PercentBps  int64 `json:"percent_bps"`
	MaxDiscount int64 `json:"max_discount,omitempty"`
}

type percentCalculator struct {
	bps int64
	max int64
}

func newPercentCalculator(rec domain.PromotionAction) (Calculator, error) {
	var prefs percentPrefs
	if len(rec.CalculatorPreferences) > 0 {
		if err := json.Unmarshal(rec.CalculatorPreferences, &prefs); err != nil {
			return nil, apperrors.InvalidInput("invalid percent settings: " + err.Error())
		}
	}
	if prefs.PercentBps < 0 || prefs.PercentBps > 10000 {
		return nil, apperrors.InvalidInput("percent must be between 0 and 10000 basis points")
	}
	if prefs.MaxDiscount < 0 {
		return nil, apperrors.InvalidInput("max discount must not be negative")
	}
	return &percentCalculator{bps: prefs.PercentBps, max: prefs.MaxDiscount}, nil
}

func (c *percentCalculator) Compute(order *domain.Order) int64 {
	amount := order.ItemTotal * c.bps / 10000
	if c.max > 0 && amount > c.max {
		amount = c.max
	}
	return amount
}

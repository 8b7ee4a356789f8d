package promotion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harborline/storefront/internal/domain"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

// RuleTypeItemTotal requires the order's item total to clear a threshold.
const RuleTypeItemTotal = "item_total"

// Comparison operators for the item total rule.
const (
	OperatorGTE = "gte"
	OperatorGT  = "gt"
)

func init() {
	RegisterRule(RuleTypeItemTotal, newItemTotalRule)
}

type itemTotalPrefs struct {
	Amount   int64  `json:"amount"`
	Operator string `json:"operator"`
}

type itemTotalRule struct {
	amount   int64
	operator string
}

func newItemTotalRule(rec domain.PromotionRule) (Rule, error) {
	prefs := itemTotalPrefs{Operator: OperatorGTE}
	if len(rec.Preferences) > 0 {
		if err := json.Unmarshal(rec.Preferences, &prefs); err != nil {
			return nil, apperrors.InvalidInput("invalid item total rule preferences: " + err.Error())
		}
	}
	if prefs.Amount < 0 {
		return nil, apperrors.InvalidInput("item total threshold must not be negative")
	}
	switch prefs.Operator {
	case OperatorGTE, OperatorGT:
	case "":
		prefs.Operator = OperatorGTE
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown item total operator %q", prefs.Operator))
	}
	return &itemTotalRule{amount: prefs.Amount, operator: prefs.Operator}, nil
}

func (r *itemTotalRule) Applicable(promotable any) bool {
	_, ok := promotable.(*domain.Order)
	return ok
}

func (r *itemTotalRule) Eligible(_ context.Context, order *domain.Order, _ Options) (bool, error) {
	if r.operator == OperatorGT {
		return order.ItemTotal > r.amount, nil
	}
	return order.ItemTotal >= r.amount, nil
}

func (r *itemTotalRule) Actionable(domain.LineItem) bool {
	return true
}

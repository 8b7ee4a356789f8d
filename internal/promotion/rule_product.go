package promotion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harborline/storefront/internal/domain"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

// RuleTypeProductInSet restricts a promotion to orders containing particular
// products.
const RuleTypeProductInSet = "product_in_set"

// Match policies for the product rule.
const (
	MatchPolicyAny  = "any"
	MatchPolicyAll  = "all"
	MatchPolicyNone = "none"
)

func init() {
	RegisterRule(RuleTypeProductInSet, newProductInSetRule)
}

type productRulePrefs struct {
	MatchPolicy string `json:"match_policy"`
}

type productInSetRule struct {
	productIDs map[string]struct{}
	policy     string
}

func newProductInSetRule(rec domain.PromotionRule) (Rule, error) {
	prefs := productRulePrefs{MatchPolicy: MatchPolicyAny}
	if len(rec.Preferences) > 0 {
		if err := json.Unmarshal(rec.Preferences, &prefs); err != nil {
			return nil, apperrors.InvalidInput("invalid product rule preferences: " + err.Error())
		}
	}
	switch prefs.MatchPolicy {
	case MatchPolicyAny, MatchPolicyAll, MatchPolicyNone:
	case "":
		prefs.MatchPolicy = MatchPolicyAny
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown match policy %q", prefs.MatchPolicy))
	}

	ids := make(map[string]struct{}, len(rec.AssociatedIDs))
	for _, id := range rec.AssociatedIDs {
		ids[id] = struct{}{}
	}
	return &productInSetRule{productIDs: ids, policy: prefs.MatchPolicy}, nil
}

func (r *productInSetRule) Applicable(promotable any) bool {
	_, ok := promotable.(*domain.Order)
	return ok
}

// Eligible applies the match policy against the order's line items. A rule
// with no products configured matches every order.
func (r *productInSetRule) Eligible(_ context.Context, order *domain.Order, _ Options) (bool, error) {
	if len(r.productIDs) == 0 {
		return true, nil
	}

	inOrder := make(map[string]struct{}, len(order.LineItems))
	for _, li := range order.LineItems {
		inOrder[li.ProductID] = struct{}{}
	}

	switch r.policy {
	case MatchPolicyAll:
		for id := range r.productIDs {
			if _, ok := inOrder[id]; !ok {
				return false, nil
			}
		}
		return true, nil
	case MatchPolicyNone:
		for id := range r.productIDs {
			if _, ok := inOrder[id]; ok {
				return false, nil
			}
		}
		return true, nil
	default: // any
		for id := range r.productIDs {
			if _, ok := inOrder[id]; ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Actionable narrows line-item discounts to the configured products. With no
// products configured every line item is fair game.
func (r *productInSetRule) Actionable(li domain.LineItem) bool {
	if len(r.productIDs) == 0 {
		return true
	}
	if r.policy == MatchPolicyNone {
		_, ok := r.productIDs[li.ProductID]
		return !ok
	}
	_, ok := r.productIDs[li.ProductID]
	return ok
}

// Package promotion implements the pluggable rule, action, and calculator
// behaviors behind promotions. Stored promotion rows reference behaviors by
// type name; the registries in this package turn those rows back into
// executable values.
package promotion

import (
	"context"
	"time"

	"github.com/harborline/storefront/internal/domain"
)

// Options carries request-scoped inputs for eligibility checks.
type Options struct {
	// Now is the evaluation time. The zero value means time.Now.
	Now time.Time
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// Rule decides whether an order qualifies for a promotion. A rule is built
// from its stored record by the registry and is immutable afterwards.
type Rule interface {
	// Applicable reports whether the rule knows how to judge the given
	// promotable at all. Rules that only understand orders return false
	// for anything else, and such rules are skipped rather than failed.
	Applicable(promotable any) bool

	// Eligible reports whether the order satisfies the rule.
	Eligible(ctx context.Context, order *domain.Order, opts Options) (bool, error)

	// Actionable reports whether a discount produced under this rule may
	// touch the given line item. Rules with no line-item opinion return
	// true for everything.
	Actionable(li domain.LineItem) bool
}

// Action applies a promotion's effect to an order, recording adjustments on
// it. Perform must be idempotent per (promotion, order): performing the same
// action twice adds nothing the second time.
type Action interface {
	Perform(ctx context.Context, order *domain.Order, promo *domain.Promotion) error
}

// Calculator computes a discount amount for an order, in the smallest
// currency unit. Implementations return a non-negative amount; the action
// decides the sign.
type Calculator interface {
	Compute(order *domain.Order) int64
}

// RulesFor builds the rules behind the stored records and keeps those that
// apply to the given promotable. A record with an unknown type or malformed
// preferences fails the whole selection.
func RulesFor(promotable any, records []domain.PromotionRule) ([]Rule, error) {
	var out []Rule
	for _, rec := range records {
		rule, err := NewRule(rec)
		if err != nil {
			return nil, err
		}
		if rule.Applicable(promotable) {
			out = append(out, rule)
		}
	}
	return out, nil
}

package domain

import (
	"encoding/json"
	"time"
)

// Promotion is a discount campaign made of rules (who qualifies) and actions
// (what the discount does).
type Promotion struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Code        string     `json:"code,omitempty"`
	Description string     `json:"description,omitempty"`
	UsageLimit  *int       `json:"usage_limit,omitempty"`
	UsageCount  int        `json:"usage_count"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Rules   []PromotionRule   `json:"rules,omitempty"`
	Actions []PromotionAction `json:"actions,omitempty"`
}

// Active reports whether the promotion is inside its start/expiry window.
// A nil bound is open-ended.
func (p *Promotion) Active(now time.Time) bool {
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
		return false
	}
	return true
}

// UsageLimitExceeded reports whether the promotion has been used up.
func (p *Promotion) UsageLimitExceeded() bool {
	return p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit
}

// PromotionRule is the stored record of one eligibility rule. Type selects
// the rule behavior, Preferences holds its type-specific settings, and
// AssociatedIDs holds the records the rule is linked to (users for a user
// list rule, products for a product rule). A promotion carries at most one
// rule of each type.
type PromotionRule struct {
	ID            string          `json:"id"`
	PromotionID   string          `json:"promotion_id"`
	Type          string          `json:"type"`
	Preferences   json.RawMessage `json:"preferences,omitempty"`
	AssociatedIDs []string        `json:"associated_ids,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Duplicate returns an unsaved copy of the rule for a new promotion:
// identity fields are cleared and the preferences and associations are
// deep-copied so the copies evolve independently.
func (r PromotionRule) Duplicate(promotionID string) PromotionRule {
	dup := PromotionRule{
		PromotionID: promotionID,
		Type:        r.Type,
	}
	if len(r.Preferences) > 0 {
		dup.Preferences = append(json.RawMessage(nil), r.Preferences...)
	}
	if len(r.AssociatedIDs) > 0 {
		dup.AssociatedIDs = append([]string(nil), r.AssociatedIDs...)
	}
	return dup
}

// PromotionAction is the stored record of one discount effect. Type selects
// the action behavior; actions that compute an amount carry a calculator
// type and its settings.
type PromotionAction struct {
	ID                    string          `json:"id"`
	PromotionID           string          `json:"promotion_id"`
	Type                  string          `json:"type"`
	CalculatorType        string          `json:"calculator_type,omitempty"`
	CalculatorPreferences json.RawMessage `json:"calculator_preferences,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Duplicate returns an unsaved copy of the action for a new promotion,
// including a deep copy of the calculator settings.
func (a PromotionAction) Duplicate(promotionID string) PromotionAction {
	dup := PromotionAction{
		PromotionID:    promotionID,
		Type:           a.Type,
		CalculatorType: a.CalculatorType,
	}
	if len(a.CalculatorPreferences) > 0 {
		dup.CalculatorPreferences = append(json.RawMessage(nil), a.CalculatorPreferences...)
	}
	return dup
}

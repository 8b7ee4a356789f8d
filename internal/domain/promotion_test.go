package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func intPtr(i int) *int {
	return &i
}

func TestPromotionActive(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		startsAt *time.Time
		expires  *time.Time
		want     bool
	}{
		{"no bounds", nil, nil, true},
		{"inside window", timePtr(now.Add(-time.Hour)), timePtr(now.Add(time.Hour)), true},
		{"not yet started", timePtr(now.Add(time.Hour)), nil, false},
		{"already expired", nil, timePtr(now.Add(-time.Hour)), false},
		{"starts exactly now", timePtr(now), nil, true},
		{"expires exactly now", nil, timePtr(now), false},
		{"open start", nil, timePtr(now.Add(time.Hour)), true},
		{"open end", timePtr(now.Add(-time.Hour)), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Promotion{StartsAt: tt.startsAt, ExpiresAt: tt.expires}
			assert.Equal(t, tt.want, p.Active(now))
		})
	}
}

func TestPromotionUsageLimitExceeded(t *testing.T) {
	assert.False(t, (&Promotion{UsageCount: 100}).UsageLimitExceeded())
	assert.False(t, (&Promotion{UsageLimit: intPtr(10), UsageCount: 9}).UsageLimitExceeded())
	assert.True(t, (&Promotion{UsageLimit: intPtr(10), UsageCount: 10}).UsageLimitExceeded())
	assert.True(t, (&Promotion{UsageLimit: intPtr(10), UsageCount: 11}).UsageLimitExceeded())
}

func TestPromotionRuleDuplicate(t *testing.T) {
	rule := PromotionRule{
		ID:            "rule-1",
		PromotionID:   "promo-1",
		Type:          "product_in_set",
		Preferences:   json.RawMessage(`{"match_policy":"any"}`),
		AssociatedIDs: []string{"prod-1", "prod-2"},
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	dup := rule.Duplicate("promo-2")

	assert.Empty(t, dup.ID)
	assert.Equal(t, "promo-2", dup.PromotionID)
	assert.Equal(t, rule.Type, dup.Type)
	assert.Equal(t, rule.Preferences, dup.Preferences)
	assert.Equal(t, rule.AssociatedIDs, dup.AssociatedIDs)
	assert.True(t, dup.CreatedAt.IsZero())

	// The copies must evolve independently.
	dup.Preferences[2] = 'X'
	dup.AssociatedIDs[0] = "other"
	assert.Equal(t, json.RawMessage(`{"match_policy":"any"}`), rule.Preferences)
	assert.Equal(t, []string{"prod-1", "prod-2"}, rule.AssociatedIDs)
}

func TestPromotionRuleDuplicate_EmptyCollections(t *testing.T) {
	dup := PromotionRule{ID: "rule-1", Type: "item_total"}.Duplicate("promo-2")

	assert.Nil(t, dup.Preferences)
	assert.Nil(t, dup.AssociatedIDs)
}

func TestPromotionActionDuplicate(t *testing.T) {
	action := PromotionAction{
		ID:                    "action-1",
		PromotionID:           "promo-1",
		Type:                  "create_adjustment",
		CalculatorType:        "flat_rate",
		CalculatorPreferences: json.RawMessage(`{"amount":500}`),
		CreatedAt:             time.Now().UTC(),
	}

	dup := action.Duplicate("promo-2")

	assert.Empty(t, dup.ID)
	assert.Equal(t, "promo-2", dup.PromotionID)
	assert.Equal(t, action.Type, dup.Type)
	assert.Equal(t, action.CalculatorType, dup.CalculatorType)
	assert.Equal(t, action.CalculatorPreferences, dup.CalculatorPreferences)
	assert.True(t, dup.CreatedAt.IsZero())

	dup.CalculatorPreferences[2] = 'X'
	assert.Equal(t, json.RawMessage(`{"amount":500}`), action.CalculatorPreferences)
}

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

func TestNewRule_UnknownType(t *testing.T) {
	_, err := NewRule(domain.PromotionRule{Type: "no_such_rule"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestKnownRuleTypes(t *testing.T) {
	types := KnownRuleTypes()
	assert.Contains(t, types, RuleTypeUserInList)
	assert.Contains(t, types, RuleTypeProductInSet)
	assert.Contains(t, types, RuleTypeItemTotal)
}

func TestRulesFor_FiltersByApplicability(t *testing.T) {
	records := []domain.PromotionRule{
		{Type: RuleTypeUserInList, AssociatedIDs: []string{"user-1"}},
		{Type: RuleTypeItemTotal, Preferences: json.RawMessage(`{"amount":5000}`)},
	}

	rules, err := RulesFor(&domain.Order{}, records)
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	// None of the rules understand a bare line item.
	rules, err = RulesFor(domain.LineItem{}, records)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRulesFor_UnknownTypeFailsSelection(t *testing.T) {
	_, err := RulesFor(&domain.Order{}, []domain.PromotionRule{{Type: "no_such_rule"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- user_in_list ---

func TestUserInListRule_Applicable(t *testing.T) {
	rule, err := NewRule(domain.PromotionRule{Type: RuleTypeUserInList})
	require.NoError(t, err)

	assert.True(t, rule.Applicable(&domain.Order{}))
	assert.False(t, rule.Applicable("not an order"))
	assert.False(t, rule.Applicable(nil))
}

func TestUserInListRule_Eligible(t *testing.T) {
	rule, err := NewRule(domain.PromotionRule{
		Type:          RuleTypeUserInList,
		AssociatedIDs: []string{"user-1", "user-2"},
	})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := rule.Eligible(ctx, &domain.Order{UserID: "user-1"}, Options{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rule.Eligible(ctx, &domain.Order{UserID: "user-9"}, Options{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserInListRule_GuestOrderNeverEligible(t *testing.T) {
	rule, err := NewRule(domain.PromotionRule{
		Type:          RuleTypeUserInList,
		AssociatedIDs: []string{"user-1"},
	})
	require.NoError(t, err)

	ok, err := rule.Eligible(context.Background(), &domain.Order{}, Options{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserInListRule_EmptyListMatchesNobody(t *testing.T) {
	rule, err := NewRule(domain.PromotionRule{Type: RuleTypeUserInList})
	require.NoError(t, err)

	ok, err := rule.Eligible(context.Background(), &domain.Order{UserID: "user-1"}, Options{})
	require.NoError(t, err)
	assert.False(t, ok)
}

// --- product_in_set ---

func productOrder(productIDs ...string) *domain.Order {
	order := &domain.Order{}
	for _, id := range productIDs {
		order.LineItems = append(order.LineItems, domain.LineItem{ProductID: id, Price: 1000, Quantity: 1})
	}
	order.RecalculateItemTotal()
	return order
}

func TestProductInSetRule_MatchPolicies(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		products []string
		order    *domain.Order
		want     bool
	}{
		{"any match", MatchPolicyAny, []string{"p1", "p2"}, productOrder("p2", "p9"), true},
		{"any no match", MatchPolicyAny, []string{"p1", "p2"}, productOrder("p9"), false},
		{"all present", MatchPolicyAll, []string{"p1", "p2"}, productOrder("p1", "p2", "p9"), true},
		{"all missing one", MatchPolicyAll, []string{"p1", "p2"}, productOrder("p1", "p9"), false},
		{"none absent", MatchPolicyNone, []string{"p1"}, productOrder("p9"), true},
		{"none present", MatchPolicyNone, []string{"p1"}, productOrder("p1", "p9"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs, err := json.Marshal(map[string]string{"match_policy": tt.policy})
			require.NoError(t, err)

			rule, err := NewRule(domain.PromotionRule{
				Type:          RuleTypeProductInSet,
				Preferences:   prefs,
				AssociatedIDs: tt.products,
			})
			require.NoError(t, err)

			ok, err := rule.Eligible(context.Background(), tt.order, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestProductInSetRule_DefaultsToAnyPolicy(t *testing.T) {
	rule, err := NewRule(domain.PromotionRule{
		Type:          RuleTypeProductInSet,
		AssociatedIDs: []string{"p1"},
	})
	require.NoError(t, err)

	ok, err := rule.Eligible(context.Background(), productOrder("p1"), Options{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProductInSetRule_EmptySetMatchesEverything(t *testing.T) {
	rule, err := NewRule(domain.PromotionRule{Type: RuleTypeProductInSet})
	require.NoError(t, err)

	ok, err := rule.Eligible(context.Background(), productOrder("anything"), Options{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProductInSetRule_UnknownPolicyRejected(t *testing.T) {
	_, err := NewRule(domain.PromotionRule{
		Type:        RuleTypeProductInSet,
		Preferences: json.RawMessage(`{"match_policy":"some"}`),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProductInSetRule_MalformedPreferencesRejected(t *testing.T) {
	_, err := NewRule(domain.PromotionRule{
		Type:        RuleTypeProductInSet,
		Preferences: json.RawMessage(`{not json`),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProductInSetRule_Actionable(t *testing.T) {
	rule, err := NewRule(domain.PromotionRule{
		Type:          RuleTypeProductInSet,
		AssociatedIDs: []string{"p1"},
	})
	require.NoError(t, err)

	assert.True(t, rule.Actionable(domain.LineItem{ProductID: "p1"}))
	assert.False(t, rule.Actionable(domain.LineItem{ProductID: "p9"}))
}

func TestProductInSetRule_ActionableInvertedForNonePolicy(t *testing.T) {
	rule, err := NewRule(domain.PromotionRule{
		Type:          RuleTypeProductInSet,
		Preferences:   json.RawMessage(`{"match_policy":"none"}`),
		AssociatedIDs: []string{"p1"},
	})
	require.NoError(t, err)

	assert.False(t, rule.Actionable(domain.LineItem{ProductID: "p1"}))
	assert.True(t, rule.Actionable(domain.LineItem{ProductID: "p9"}))
}

func TestProductInSetRule_ActionableEmptySet(t *testing.T) {
	rule, err := NewRule(domain.PromotionRule{Type: RuleTypeProductInSet})
	require.NoError(t, err)

	assert.True(t, rule.Actionable(domain.LineItem{ProductID: "p1"}))
}

// --- item_total ---

func TestItemTotalRule(t *testing.T) {
	tests := []struct {
		name      string
		prefs     string
		itemTotal int64
		want      bool
	}{
		{"gte met", `{"amount":5000}`, 5000, true},
		{"gte above", `{"amount":5000}`, 5001, true},
		{"gte below", `{"amount":5000}`, 4999, false},
		{"gt equal not enough", `{"amount":5000,"operator":"gt"}`, 5000, false},
		{"gt above", `{"amount":5000,"operator":"gt"}`, 5001, true},
		{"zero threshold", `{}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewRule(domain.PromotionRule{
				Type:        RuleTypeItemTotal,
				Preferences: json.RawMessage(tt.prefs),
			})
			require.NoError(t, err)

			ok, err := rule.Eligible(context.Background(), &domain.Order{ItemTotal: tt.itemTotal}, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestItemTotalRule_InvalidPreferences(t *testing.T) {
	_, err := NewRule(domain.PromotionRule{
		Type:        RuleTypeItemTotal,
		Preferences: json.RawMessage(`{"amount":-1}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = NewRule(domain.PromotionRule{
		Type:        RuleTypeItemTotal,
		Preferences: json.RawMessage(`{"amount":100,"operator":"lte"}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

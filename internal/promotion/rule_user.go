package promotion

import (
	"context"

	"github.com/harborline/storefront/internal/domain"
)

// RuleTypeUserInList restricts a promotion to a hand-picked set of users.
const RuleTypeUserInList = "user_in_list"

func init() {
	RegisterRule(RuleTypeUserInList, newUserInListRule)
}

type userInListRule struct {
	userIDs map[string]struct{}
}

func newUserInListRule(rec domain.PromotionRule) (Rule, error) {
	ids := make(map[string]struct{}, len(rec.AssociatedIDs))
	for _, id := range rec.AssociatedIDs {
		ids[id] = struct{}{}
	}
	return &userInListRule{userIDs: ids}, nil
}

func (r *userInListRule) Applicable(promotable any) bool {
	_, ok := promotable.(*domain.Order)
	return ok
}

// Eligible requires the order to belong to one of the listed users. An empty
// list matches nobody, and guest orders never qualify.
func (r *userInListRule) Eligible(_ context.Context, order *domain.Order, _ Options) (bool, error) {
	if order.UserID == "" {
		return false, nil
	}
	_, ok := r.userIDs[order.UserID]
	return ok, nil
}

func (r *userInListRule) Actionable(domain.LineItem) bool {
	return true
}

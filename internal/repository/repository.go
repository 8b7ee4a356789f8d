package repository

import (
	"context"

	"github.com/harborline/storefront/internal/domain"
)

// AddressBookRepository persists address values and their per-user links.
// Address rows are immutable once written; the links carry the default flag.
type AddressBookRepository interface {
	// CreateAddress inserts a new address value.
	CreateAddress(ctx context.Context, address *domain.Address) error

	// GetAddress retrieves an address by its identifier.
	GetAddress(ctx context.Context, id string) (*domain.Address, error)

	// FindLinkByValue returns the user's link to an address with exactly
	// the given field values, or ErrNotFound when the user has none.
	FindLinkByValue(ctx context.Context, userID string, address domain.Address) (*domain.UserAddress, error)

	// CountForUser returns how many addresses the user has linked.
	CountForUser(ctx context.Context, userID string) (int, error)

	// Link attaches an address to a user's book.
	Link(ctx context.Context, link *domain.UserAddress) error

	// MarkDefault makes the given address the user's one default,
	// unsetting any previous default in the same transaction.
	MarkDefault(ctx context.Context, userID, addressID string) error

	// GetDefault returns the user's default address link, or ErrNotFound.
	GetDefault(ctx context.Context, userID string) (*domain.UserAddress, error)

	// ListForUser returns the user's address book, default first, then
	// newest first.
	ListForUser(ctx context.Context, userID string) ([]domain.UserAddress, error)

	// Unlink removes an address from the user's book. The address row
	// itself is kept; completed orders may still reference it.
	Unlink(ctx context.Context, userID, addressID string) error
}

// PromotionFilter narrows promotion listings.
type PromotionFilter struct {
	Code   *string
	Limit  int
	Offset int
}

// PromotionRepository persists promotions with their rules and actions.
type PromotionRepository interface {
	Create(ctx context.Context, promo *domain.Promotion) error

	// GetByID retrieves a promotion with its rules and actions loaded.
	GetByID(ctx context.Context, id string) (*domain.Promotion, error)

	// GetByCode retrieves a promotion by its coupon code, rules and
	// actions loaded.
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)

	List(ctx context.Context, filter PromotionFilter) ([]domain.Promotion, int, error)
	Update(ctx context.Context, promo *domain.Promotion) error
	Delete(ctx context.Context, id string) error

	// AddRule inserts a rule and its association rows in one transaction.
	// A second rule of the same type on one promotion is a validation
	// error.
	AddRule(ctx context.Context, rule *domain.PromotionRule) error
	RemoveRule(ctx context.Context, promotionID, ruleID string) error
	ListRules(ctx context.Context, promotionID string) ([]domain.PromotionRule, error)

	AddAction(ctx context.Context, action *domain.PromotionAction) error
	RemoveAction(ctx context.Context, promotionID, actionID string) error
	ListActions(ctx context.Context, promotionID string) ([]domain.PromotionAction, error)

	// IncrementUsage atomically bumps the promotion's usage count.
	IncrementUsage(ctx context.Context, id string) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Active *bool
	Limit  int
	Offset int
}

// ProductRepository persists catalog products. Create assigns the permalink,
// retrying until it finds one no existing permalink shares a prefix with.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByPermalink(ctx context.Context, permalink string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/internal/event"
	"github.com/harborline/storefront/internal/promotion"
	"github.com/harborline/storefront/internal/repository"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

// PromotionCache is the coupon-code cache the service reads through. It is
// satisfied by rediscache.PromotionCache.
type PromotionCache interface {
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)
	Set(ctx context.Context, promo *domain.Promotion) error
	Invalidate(ctx context.Context, code string) error
}

// PromotionService manages promotions and applies them to orders.
type PromotionService struct {
	repo     repository.PromotionRepository
	cache    PromotionCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewPromotionService creates a new promotion service.
func NewPromotionService(
	repo repository.PromotionRepository,
	cache PromotionCache,
	producer *event.Producer,
	logger *slog.Logger,
) *PromotionService {
	return &PromotionService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// CreatePromotionInput is the input for creating a promotion.
type CreatePromotionInput struct {
	Name        string
	Code        string
	Description string
	UsageLimit  *int
	StartsAt    *time.Time
	ExpiresAt   *time.Time
}

// CreatePromotion creates a new promotion without rules or actions.
func (s *PromotionService) CreatePromotion(ctx context.Context, input CreatePromotionInput) (*domain.Promotion, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidField("name", "name is required")
	}
	if input.UsageLimit != nil && *input.UsageLimit <= 0 {
		return nil, apperrors.InvalidField("usage_limit", "usage limit must be positive")
	}
	if input.StartsAt != nil && input.ExpiresAt != nil && !input.StartsAt.Before(*input.ExpiresAt) {
		return nil, apperrors.InvalidField("expires_at", "expiry must be after start")
	}

	now := time.Now().UTC()
	promo := &domain.Promotion{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Code:        normalizeCode(input.Code),
		Description: input.Description,
		UsageLimit:  input.UsageLimit,
		StartsAt:    input.StartsAt,
		ExpiresAt:   input.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, promo); err != nil {
		return nil, fmt.Errorf("create promotion: %w", err)
	}

	if err := s.producer.PublishPromotionCreated(ctx, promo); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish promotion.created event",
			slog.String("promotion_id", promo.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "promotion created",
		slog.String("promotion_id", promo.ID),
		slog.String("code", promo.Code),
	)
	return promo, nil
}

// GetPromotion retrieves a promotion with its rules and actions.
func (s *PromotionService) GetPromotion(ctx context.Context, id string) (*domain.Promotion, error) {
	promo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	return promo, nil
}

// GetPromotionByCode retrieves a promotion by coupon code, reading through
// the cache. Cache failures fall back to the database.
func (s *PromotionService) GetPromotionByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, apperrors.InvalidField("code", "code is required")
	}

	if promo, err := s.cache.GetByCode(ctx, code); err == nil {
		return promo, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "promotion cache read failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}

	promo, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get promotion by code: %w", err)
	}

	if err := s.cache.Set(ctx, promo); err != nil {
		s.logger.WarnContext(ctx, "promotion cache write failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}
	return promo, nil
}

// ListPromotions returns a filtered, paginated list of promotions.
func (s *PromotionService) ListPromotions(ctx context.Context, filter repository.PromotionFilter) ([]domain.Promotion, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	promos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list promotions: %w", err)
	}
	return promos, total, nil
}

// UpdatePromotionInput is the input for updating a promotion's own fields.
type UpdatePromotionInput struct {
	Name        *string
	Code        *string
	Description *string
	UsageLimit  *int
	StartsAt    *time.Time
	ExpiresAt   *time.Time
}

// UpdatePromotion applies partial updates to a promotion.
func (s *PromotionService) UpdatePromotion(ctx context.Context, id string, input UpdatePromotionInput) (*domain.Promotion, error) {
	promo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	oldCode := promo.Code

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.InvalidField("name", "name is required")
		}
		promo.Name = strings.TrimSpace(*input.Name)
	}
	if input.Code != nil {
		promo.Code = normalizeCode(*input.Code)
	}
	if input.Description != nil {
		promo.Description = *input.Description
	}
	if input.UsageLimit != nil {
		if *input.UsageLimit <= 0 {
			return nil, apperrors.InvalidField("usage_limit", "usage limit must be positive")
		}
		promo.UsageLimit = input.UsageLimit
	}
	if input.StartsAt != nil {
		promo.StartsAt = input.StartsAt
	}
	if input.ExpiresAt != nil {
		promo.ExpiresAt = input.ExpiresAt
	}
	if promo.StartsAt != nil && promo.ExpiresAt != nil && !promo.StartsAt.Before(*promo.ExpiresAt) {
		return nil, apperrors.InvalidField("expires_at", "expiry must be after start")
	}

	if err := s.repo.Update(ctx, promo); err != nil {
		return nil, fmt.Errorf("update promotion: %w", err)
	}

	s.invalidateCache(ctx, oldCode)
	if promo.Code != oldCode {
		s.invalidateCache(ctx, promo.Code)
	}
	return promo, nil
}

// DeletePromotion removes a promotion with its rules and actions.
func (s *PromotionService) DeletePromotion(ctx context.Context, id string) error {
	promo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get promotion: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}

	s.invalidateCache(ctx, promo.Code)
	s.logger.InfoContext(ctx, "promotion deleted", slog.String("promotion_id", id))
	return nil
}

// AddRuleInput is the input for attaching a rule to a promotion.
type AddRuleInput struct {
	Type          string
	Preferences   json.RawMessage
	AssociatedIDs []string
}

// AddRule attaches an eligibility rule to a promotion. The rule type and its
// settings are validated by constructing the behavior before anything is
// stored.
func (s *PromotionService) AddRule(ctx context.Context, promotionID string, input AddRuleInput) (*domain.PromotionRule, error) {
	promo, err := s.repo.GetByID(ctx, promotionID)
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}

	now := time.Now().UTC()
	rule := &domain.PromotionRule{
		ID:            uuid.New().String(),
		PromotionID:   promo.ID,
		Type:          input.Type,
		Preferences:   input.Preferences,
		AssociatedIDs: input.AssociatedIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := promotion.NewRule(*rule); err != nil {
		return nil, err
	}

	if err := s.repo.AddRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("add rule: %w", err)
	}

	s.invalidateCache(ctx, promo.Code)
	return rule, nil
}

// RemoveRule detaches a rule from a promotion.
func (s *PromotionService) RemoveRule(ctx context.Context, promotionID, ruleID string) error {
	promo, err := s.repo.GetByID(ctx, promotionID)
	if err != nil {
		return fmt.Errorf("get promotion: %w", err)
	}

	if err := s.repo.RemoveRule(ctx, promotionID, ruleID); err != nil {
		return fmt.Errorf("remove rule: %w", err)
	}

	s.invalidateCache(ctx, promo.Code)
	return nil
}

// AddActionInput is the input for attaching an action to a promotion.
type AddActionInput struct {
	Type                  string
	CalculatorType        string
	CalculatorPreferences json.RawMessage
}

// AddAction attaches a discount action to a promotion, validating the action
// type and its calculator before anything is stored.
func (s *PromotionService) AddAction(ctx context.Context, promotionID string, input AddActionInput) (*domain.PromotionAction, error) {
	promo, err := s.repo.GetByID(ctx, promotionID)
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}

	now := time.Now().UTC()
	action := &domain.PromotionAction{
		ID:                    uuid.New().String(),
		PromotionID:           promo.ID,
		Type:                  input.Type,
		CalculatorType:        input.CalculatorType,
		CalculatorPreferences: input.CalculatorPreferences,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if _, err := promotion.NewAction(*action); err != nil {
		return nil, err
	}

	if err := s.repo.AddAction(ctx, action); err != nil {
		return nil, fmt.Errorf("add action: %w", err)
	}

	s.invalidateCache(ctx, promo.Code)
	return action, nil
}

// RemoveAction detaches an action from a promotion.
func (s *PromotionService) RemoveAction(ctx context.Context, promotionID, actionID string) error {
	promo, err := s.repo.GetByID(ctx, promotionID)
	if err != nil {
		return fmt.Errorf("get promotion: %w", err)
	}

	if err := s.repo.RemoveAction(ctx, promotionID, actionID); err != nil {
		return fmt.Errorf("remove action: %w", err)
	}

	s.invalidateCache(ctx, promo.Code)
	return nil
}

// ClonePromotion copies a promotion under a new name and code, duplicating
// every rule with its associations and every action with its calculator
// settings. The clone starts with a zero usage count.
func (s *PromotionService) ClonePromotion(ctx context.Context, id, name, code string) (*domain.Promotion, error) {
	src, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		name = "Copy of " + src.Name
	}

	clone, err := s.CreatePromotion(ctx, CreatePromotionInput{
		Name:        name,
		Code:        code,
		Description: src.Description,
		UsageLimit:  src.UsageLimit,
		StartsAt:    src.StartsAt,
		ExpiresAt:   src.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, rule := range src.Rules {
		dup := rule.Duplicate(clone.ID)
		dup.ID = uuid.New().String()
		dup.CreatedAt = now
		dup.UpdatedAt = now
		if err := s.repo.AddRule(ctx, &dup); err != nil {
			return nil, fmt.Errorf("clone rule %s: %w", rule.Type, err)
		}
		clone.Rules = append(clone.Rules, dup)
	}

	for _, action := range src.Actions {
		dup := action.Duplicate(clone.ID)
		dup.ID = uuid.New().String()
		dup.CreatedAt = now
		dup.UpdatedAt = now
		if err := s.repo.AddAction(ctx, &dup); err != nil {
			return nil, fmt.Errorf("clone action %s: %w", action.Type, err)
		}
		clone.Actions = append(clone.Actions, dup)
	}

	s.logger.InfoContext(ctx, "promotion cloned",
		slog.String("source_id", src.ID),
		slog.String("promotion_id", clone.ID),
	)
	return clone, nil
}

// CheckEligibility reports whether the order qualifies for the promotion.
// Rules that do not apply to orders are skipped; every applicable rule must
// pass.
func (s *PromotionService) CheckEligibility(ctx context.Context, promo *domain.Promotion, order *domain.Order, opts promotion.Options) (bool, error) {
	rules, err := promotion.RulesFor(order, promo.Rules)
	if err != nil {
		return false, err
	}
	for _, rule := range rules {
		ok, err := rule.Eligible(ctx, order, opts)
		if err != nil {
			return false, fmt.Errorf("evaluate rule: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ValidateCoupon checks that the promotion behind a coupon code is active,
// not used up, and eligible for the order. Failures are validation errors
// with customer-presentable messages.
func (s *PromotionService) ValidateCoupon(ctx context.Context, code string, order *domain.Order) (*domain.Promotion, error) {
	promo, err := s.GetPromotionByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !promo.Active(now) {
		return nil, apperrors.Validation("promotion is expired or not yet active")
	}
	if promo.UsageLimitExceeded() {
		return nil, apperrors.Validation("promotion usage limit reached")
	}

	eligible, err := s.CheckEligibility(ctx, promo, order, promotion.Options{Now: now})
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, apperrors.Validation("order is not eligible for this promotion")
	}
	return promo, nil
}

// ApplyCoupon applies the promotion behind a coupon code to an order,
// returning the discount granted. Inactive, exhausted, or ineligible
// promotions are a validation error. A promotion whose actions change
// nothing, such as free shipping on an order with no shipment charge, is
// also rejected so the customer is not told a dead coupon worked.
func (s *PromotionService) ApplyCoupon(ctx context.Context, code string, order *domain.Order) (int64, error) {
	promo, err := s.ValidateCoupon(ctx, code, order)
	if err != nil {
		return 0, err
	}

	totalBefore := order.Total
	for _, rec := range promo.Actions {
		action, err := promotion.NewAction(rec)
		if err != nil {
			return 0, err
		}
		if err := action.Perform(ctx, order, promo); err != nil {
			return 0, fmt.Errorf("perform action %s: %w", rec.Type, err)
		}
	}

	discount := totalBefore - order.Total
	if discount <= 0 {
		return 0, apperrors.Validation("promotion could not be applied to this order")
	}

	if err := s.repo.IncrementUsage(ctx, promo.ID); err != nil {
		return 0, fmt.Errorf("increment usage: %w", err)
	}
	s.invalidateCache(ctx, promo.Code)

	if err := s.producer.PublishPromotionApplied(ctx, promo, order, discount); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish promotion.applied event",
			slog.String("promotion_id", promo.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "promotion applied",
		slog.String("promotion_id", promo.ID),
		slog.String("order_number", order.Number),
		slog.Int64("discount", discount),
	)
	return discount, nil
}

func (s *PromotionService) invalidateCache(ctx context.Context, code string) {
	if err := s.cache.Invalidate(ctx, code); err != nil {
		s.logger.WarnContext(ctx, "promotion cache invalidation failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

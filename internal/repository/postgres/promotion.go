package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/internal/repository"
	"github.com/harborline/storefront/pkg/database"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

// PromotionRepository implements repository.PromotionRepository using
// PostgreSQL.
type PromotionRepository struct {
	db database.DBTX
}

// NewPromotionRepository creates a new PostgreSQL-backed promotion
// repository.
func NewPromotionRepository(db database.DBTX) *PromotionRepository {
	return &PromotionRepository{db: db}
}

const promotionColumns = `id, name, code, description, usage_limit,
	   usage_count, starts_at, expires_at, created_at, updated_at`

// Create inserts a new promotion.
func (r *PromotionRepository) Create(ctx context.Context, p *domain.Promotion) error {
	query := `
		INSERT INTO promotions (
			id, name, code, description, usage_limit, usage_count,
			starts_at, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Code, p.Description, p.UsageLimit, p.UsageCount,
		p.StartsAt, p.ExpiresAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("promotion", "code", p.Code)
		}
		return fmt.Errorf("insert promotion: %w", err)
	}
	return nil
}

// GetByID retrieves a promotion with its rules and actions loaded.
func (r *PromotionRepository) GetByID(ctx context.Context, id string) (*domain.Promotion, error) {
	return r.getBy(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
}

// GetByCode retrieves a promotion by coupon code with its rules and actions
// loaded.
func (r *PromotionRepository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	return r.getBy(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE code = $1`, code)
}

func (r *PromotionRepository) getBy(ctx context.Context, query string, arg any) (*domain.Promotion, error) {
	var p domain.Promotion
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Name, &p.Code, &p.Description, &p.UsageLimit,
		&p.UsageCount, &p.StartsAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("select promotion: %w", err)
	}

	if p.Rules, err = r.ListRules(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Actions, err = r.ListActions(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns promotions matching the filter with the total count.
func (r *PromotionRepository) List(ctx context.Context, filter repository.PromotionFilter) ([]domain.Promotion, int, error) {
	whereClause := ""
	args := []any{}
	argIndex := 1

	if filter.Code != nil {
		whereClause = fmt.Sprintf("WHERE code = $%d", argIndex)
		args = append(args, *filter.Code)
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT `+promotionColumns+`,
			   count(*) OVER() AS total_count
		FROM promotions
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select promotions: %w", err)
	}
	defer rows.Close()

	var (
		promos []domain.Promotion
		total  int
	)
	for rows.Next() {
		var p domain.Promotion
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Code, &p.Description, &p.UsageLimit,
			&p.UsageCount, &p.StartsAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan promotion: %w", err)
		}
		promos = append(promos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate promotions: %w", err)
	}
	return promos, total, nil
}

// Update modifies a promotion's own fields. Rules and actions are managed
// through AddRule and AddAction.
func (r *PromotionRepository) Update(ctx context.Context, p *domain.Promotion) error {
	query := `
		UPDATE promotions
		SET name = $2, code = $3, description = $4, usage_limit = $5,
			starts_at = $6, expires_at = $7, updated_at = NOW()
		WHERE id = $1`

	ct, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Code, p.Description, p.UsageLimit, p.StartsAt, p.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("promotion", "code", p.Code)
		}
		return fmt.Errorf("update promotion: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("promotion", p.ID)
	}
	return nil
}

// Delete removes a promotion. Rules, actions, and association rows go with
// it via foreign keys.
func (r *PromotionRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("promotion", id)
	}
	return nil
}

// AddRule inserts a rule and its association rows in one transaction. The
// unique index on (promotion_id, type) rejects a second rule of the same
// type.
func (r *PromotionRepository) AddRule(ctx context.Context, rule *domain.PromotionRule) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO promotion_rules (id, promotion_id, type, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rule.ID, rule.PromotionID, rule.Type, rule.Preferences,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Validation("promotion already contains a rule of type " + rule.Type)
		}
		return fmt.Errorf("insert promotion rule: %w", err)
	}

	for _, associatedID := range rule.AssociatedIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO promotion_rule_associations (rule_id, associated_id)
			VALUES ($1, $2)`,
			rule.ID, associatedID,
		)
		if err != nil {
			return fmt.Errorf("insert rule association: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RemoveRule deletes a rule from a promotion along with its association
// rows.
func (r *PromotionRepository) RemoveRule(ctx context.Context, promotionID, ruleID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM promotion_rules WHERE id = $1 AND promotion_id = $2`,
		ruleID, promotionID,
	)
	if err != nil {
		return fmt.Errorf("delete promotion rule: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("promotion rule", ruleID)
	}
	return nil
}

// ListRules returns a promotion's rules with their associated IDs.
func (r *PromotionRepository) ListRules(ctx context.Context, promotionID string) ([]domain.PromotionRule, error) {
	query := `
		SELECT pr.id, pr.promotion_id, pr.type, pr.preferences,
			   COALESCE(array_agg(pra.associated_id) FILTER (WHERE pra.associated_id IS NOT NULL), '{}'),
			   pr.created_at, pr.updated_at
		FROM promotion_rules pr
		LEFT JOIN promotion_rule_associations pra ON pra.rule_id = pr.id
		WHERE pr.promotion_id = $1
		GROUP BY pr.id
		ORDER BY pr.created_at`

	rows, err := r.db.Query(ctx, query, promotionID)
	if err != nil {
		return nil, fmt.Errorf("select promotion rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.PromotionRule
	for rows.Next() {
		var rule domain.PromotionRule
		if err := rows.Scan(
			&rule.ID, &rule.PromotionID, &rule.Type, &rule.Preferences,
			&rule.AssociatedIDs, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan promotion rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotion rules: %w", err)
	}
	return rules, nil
}

// AddAction inserts an action.
func (r *PromotionRepository) AddAction(ctx context.Context, action *domain.PromotionAction) error {
	query := `
		INSERT INTO promotion_actions (
			id, promotion_id, type, calculator_type, calculator_preferences,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		action.ID, action.PromotionID, action.Type, action.CalculatorType,
		action.CalculatorPreferences, action.CreatedAt, action.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert promotion action: %w", err)
	}
	return nil
}

// RemoveAction deletes an action from a promotion.
func (r *PromotionRepository) RemoveAction(ctx context.Context, promotionID, actionID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM promotion_actions WHERE id = $1 AND promotion_id = $2`,
		actionID, promotionID,
	)
	if err != nil {
		return fmt.Errorf("delete promotion action: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("promotion action", actionID)
	}
	return nil
}

// ListActions returns a promotion's actions.
func (r *PromotionRepository) ListActions(ctx context.Context, promotionID string) ([]domain.PromotionAction, error) {
	query := `
		SELECT id, promotion_id, type, calculator_type, calculator_preferences,
			   created_at, updated_at
		FROM promotion_actions
		WHERE promotion_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, promotionID)
	if err != nil {
		return nil, fmt.Errorf("select promotion actions: %w", err)
	}
	defer rows.Close()

	var actions []domain.PromotionAction
	for rows.Next() {
		var action domain.PromotionAction
		if err := rows.Scan(
			&action.ID, &action.PromotionID, &action.Type, &action.CalculatorType,
			&action.CalculatorPreferences, &action.CreatedAt, &action.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan promotion action: %w", err)
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotion actions: %w", err)
	}
	return actions, nil
}

// IncrementUsage atomically increments the promotion's usage count.
func (r *PromotionRepository) IncrementUsage(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE promotions
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("increment promotion usage: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("promotion", id)
	}
	return nil
}

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
	"github.com/harborline/storefront/pkg/permalink"
)

// ProductRepository implements repository.ProductRepository using
// PostgreSQL.
type ProductRepository struct {
	db  database.DBTX
	gen permalink.Generator
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
// Permalinks are generated with the given generator.
func NewProductRepository(db database.DBTX, gen permalink.Generator) *ProductRepository {
	return &ProductRepository{db: db, gen: gen}
}

const productColumns = `id, name, slug, permalink, description, sku, price,
	   active, created_at, updated_at`

// Create assigns the product a permalink and inserts it, all in one
// transaction. Candidates are drawn until one is found that is not a prefix
// of any existing permalink. The advisory lock is keyed to the record, so
// creates of distinct products never serialize against each other; the
// unique index on permalink backstops a cross-record candidate race.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, p.ID); err != nil {
		return fmt.Errorf("acquire permalink lock: %w", err)
	}

	for {
		candidate, err := r.gen.Generate()
		if err != nil {
			return err
		}

		var taken bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE permalink LIKE $1 || '%')`,
			candidate,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("check permalink: %w", err)
		}
		if !taken {
			p.Permalink = candidate
			break
		}
	}

	query := `
		INSERT INTO products (
			id, name, slug, permalink, description, sku, price, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = tx.Exec(ctx, query,
		p.ID, p.Name, p.Slug, p.Permalink, p.Description, p.SKU, p.Price,
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getBy(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetByPermalink retrieves a product by its permalink.
func (r *ProductRepository) GetByPermalink(ctx context.Context, link string) (*domain.Product, error) {
	return r.getBy(ctx, `SELECT `+productColumns+` FROM products WHERE permalink = $1`, link)
}

// GetBySlug retrieves a product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getBy(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
}

func (r *ProductRepository) getBy(ctx context.Context, query string, arg any) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Permalink, &p.Description, &p.SKU,
		&p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

// List returns products matching the filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	whereClause := ""
	args := []any{}
	argIndex := 1

	if filter.Active != nil {
		whereClause = fmt.Sprintf("WHERE active = $%d", argIndex)
		args = append(args, *filter.Active)
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT `+productColumns+`,
			   count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var (
		products []domain.Product
		total    int
	)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Permalink, &p.Description, &p.SKU,
			&p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}
	return products, total, nil
}

// Update modifies a product. The permalink is assigned once at creation and
// never changes.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, sku = $5, price = $6,
			active = $7, updated_at = NOW()
		WHERE id = $1`

	ct, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.SKU, p.Price, p.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

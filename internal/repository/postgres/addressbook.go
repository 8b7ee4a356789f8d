package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/pkg/database"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

// AddressBookRepository implements repository.AddressBookRepository using
// PostgreSQL.
type AddressBookRepository struct {
	db database.DBTX
}

// NewAddressBookRepository creates a new PostgreSQL-backed address book
// repository.
func NewAddressBookRepository(db database.DBTX) *AddressBookRepository {
	return &AddressBookRepository{db: db}
}

const addressColumns = `id, first_name, last_name, company, address_line1,
	   address_line2, city, state_code, state_name, postal_code,
	   country_code, phone, created_at`

// CreateAddress inserts a new address value. Addresses are write-once.
func (r *AddressBookRepository) CreateAddress(ctx context.Context, a *domain.Address) error {
	query := `
		INSERT INTO addresses (
			id, first_name, last_name, company, address_line1,
			address_line2, city, state_code, state_name, postal_code,
			country_code, phone, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.FirstName,
		a.LastName,
		a.Company,
		a.AddressLine1,
		a.AddressLine2,
		a.City,
		a.StateCode,
		a.StateName,
		a.PostalCode,
		a.CountryCode,
		a.Phone,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// GetAddress retrieves an address by its ID.
func (r *AddressBookRepository) GetAddress(ctx context.Context, id string) (*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	var a domain.Address
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Company, &a.AddressLine1,
		&a.AddressLine2, &a.City, &a.StateCode, &a.StateName, &a.PostalCode,
		&a.CountryCode, &a.Phone, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("address", id)
		}
		return nil, fmt.Errorf("select address: %w", err)
	}
	return &a, nil
}

// FindLinkByValue returns the user's link to an address whose value fields
// all match the given address.
func (r *AddressBookRepository) FindLinkByValue(ctx context.Context, userID string, address domain.Address) (*domain.UserAddress, error) {
	query := `
		SELECT ua.id, ua.user_id, ua.address_id, ua.is_default, ua.created_at,
			   a.id, a.first_name, a.last_name, a.company, a.address_line1,
			   a.address_line2, a.city, a.state_code, a.state_name,
			   a.postal_code, a.country_code, a.phone, a.created_at
		FROM user_addresses ua
		JOIN addresses a ON a.id = ua.address_id
		WHERE ua.user_id = $1
		  AND a.first_name = $2 AND a.last_name = $3 AND a.company = $4
		  AND a.address_line1 = $5 AND a.address_line2 = $6 AND a.city = $7
		  AND a.state_code = $8 AND a.state_name = $9 AND a.postal_code = $10
		  AND a.country_code = $11 AND a.phone = $12
		LIMIT 1`

	row := r.db.QueryRow(ctx, query,
		userID,
		address.FirstName, address.LastName, address.Company,
		address.AddressLine1, address.AddressLine2, address.City,
		address.StateCode, address.StateName, address.PostalCode,
		address.CountryCode, address.Phone,
	)

	link, err := scanUserAddress(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("select address by value: %w", err)
	}
	return link, nil
}

// CountForUser returns how many addresses the user has linked.
func (r *AddressBookRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM user_addresses WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count user addresses: %w", err)
	}
	return count, nil
}

// Link attaches an address to a user's book.
func (r *AddressBookRepository) Link(ctx context.Context, link *domain.UserAddress) error {
	query := `
		INSERT INTO user_addresses (id, user_id, address_id, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		link.ID, link.UserID, link.AddressID, link.Default, link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user address", "address_id", link.AddressID)
		}
		return fmt.Errorf("insert user address: %w", err)
	}
	return nil
}

// MarkDefault makes the given address the user's single default. The unset
// and set run in one transaction so concurrent readers never see two
// defaults.
func (r *AddressBookRepository) MarkDefault(ctx context.Context, userID, addressID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`UPDATE user_addresses SET is_default = FALSE WHERE user_id = $1 AND is_default = TRUE`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("unset default addresses: %w", err)
	}

	ct, err := tx.Exec(ctx,
		`UPDATE user_addresses SET is_default = TRUE WHERE user_id = $1 AND address_id = $2`,
		userID, addressID,
	)
	if err != nil {
		return fmt.Errorf("set default address: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", addressID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetDefault returns the user's default address link.
func (r *AddressBookRepository) GetDefault(ctx context.Context, userID string) (*domain.UserAddress, error) {
	query := `
		SELECT ua.id, ua.user_id, ua.address_id, ua.is_default, ua.created_at,
			   a.id, a.first_name, a.last_name, a.company, a.address_line1,
			   a.address_line2, a.city, a.state_code, a.state_name,
			   a.postal_code, a.country_code, a.phone, a.created_at
		FROM user_addresses ua
		JOIN addresses a ON a.id = ua.address_id
		WHERE ua.user_id = $1 AND ua.is_default = TRUE`

	link, err := scanUserAddress(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("select default address: %w", err)
	}
	return link, nil
}

// ListForUser returns the user's address book, default first, then newest
// first.
func (r *AddressBookRepository) ListForUser(ctx context.Context, userID string) ([]domain.UserAddress, error) {
	query := `
		SELECT ua.id, ua.user_id, ua.address_id, ua.is_default, ua.created_at,
			   a.id, a.first_name, a.last_name, a.company, a.address_line1,
			   a.address_line2, a.city, a.state_code, a.state_name,
			   a.postal_code, a.country_code, a.phone, a.created_at
		FROM user_addresses ua
		JOIN addresses a ON a.id = ua.address_id
		WHERE ua.user_id = $1
		ORDER BY ua.is_default DESC, ua.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select user addresses: %w", err)
	}
	defer rows.Close()

	var links []domain.UserAddress
	for rows.Next() {
		link, err := scanUserAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user address: %w", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user addresses: %w", err)
	}
	return links, nil
}

// Unlink removes an address from the user's book without deleting the
// address row.
func (r *AddressBookRepository) Unlink(ctx context.Context, userID, addressID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM user_addresses WHERE user_id = $1 AND address_id = $2`,
		userID, addressID,
	)
	if err != nil {
		return fmt.Errorf("delete user address: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", addressID)
	}
	return nil
}

func scanUserAddress(row pgx.Row) (*domain.UserAddress, error) {
	var link domain.UserAddress
	err := row.Scan(
		&link.ID, &link.UserID, &link.AddressID, &link.Default, &link.CreatedAt,
		&link.Address.ID, &link.Address.FirstName, &link.Address.LastName,
		&link.Address.Company, &link.Address.AddressLine1, &link.Address.AddressLine2,
		&link.Address.City, &link.Address.StateCode, &link.Address.StateName,
		&link.Address.PostalCode, &link.Address.CountryCode, &link.Address.Phone,
		&link.Address.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

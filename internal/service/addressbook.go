package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/internal/event"
	"github.com/harborline/storefront/internal/repository"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

// AddressBookService manages per-user address books. Saving is
// deduplicating: an address whose values match one the user already has is
// reused instead of stored again, so repeat checkouts with the same address
// never grow the book.
type AddressBookService struct {
	repo      repository.AddressBookRepository
	gazetteer *domain.Gazetteer
	producer  *event.Producer
	logger    *slog.Logger
}

// NewAddressBookService creates a new address book service.
func NewAddressBookService(
	repo repository.AddressBookRepository,
	gazetteer *domain.Gazetteer,
	producer *event.Producer,
	logger *slog.Logger,
) *AddressBookService {
	return &AddressBookService{
		repo:      repo,
		gazetteer: gazetteer,
		producer:  producer,
		logger:    logger,
	}
}

// SaveAddress adds an address to the user's book, or returns the matching
// entry if the user already has one with the same values. The user's first
// address always becomes the default; otherwise makeDefault controls the
// flag. A reused address that is already the default, or that is not being
// promoted, is returned without touching the store.
func (s *AddressBookService) SaveAddress(ctx context.Context, userID string, address domain.Address, makeDefault bool) (*domain.UserAddress, error) {
	address = address.Normalize(s.gazetteer)
	if issues := address.Validate(s.gazetteer); len(issues) > 0 {
		return nil, validationError(issues)
	}

	count, err := s.repo.CountForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count addresses: %w", err)
	}
	if count == 0 {
		makeDefault = true
	}

	existing, err := s.repo.FindLinkByValue(ctx, userID, address)
	switch {
	case err == nil:
		return s.reuseAddress(ctx, userID, existing, makeDefault)
	case errors.Is(err, apperrors.ErrNotFound):
		// New values; fall through to create.
	default:
		return nil, fmt.Errorf("find address by value: %w", err)
	}

	now := time.Now().UTC()
	address.ID = uuid.New().String()
	address.CreatedAt = now

	if err := s.repo.CreateAddress(ctx, &address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	link := &domain.UserAddress{
		ID:        uuid.New().String(),
		UserID:    userID,
		AddressID: address.ID,
		CreatedAt: now,
		Address:   address,
	}
	if err := s.repo.Link(ctx, link); err != nil {
		return nil, fmt.Errorf("link address: %w", err)
	}

	if makeDefault {
		if err := s.repo.MarkDefault(ctx, userID, address.ID); err != nil {
			return nil, fmt.Errorf("mark default: %w", err)
		}
		link.Default = true
	}

	s.publishSaved(ctx, link, false)

	s.logger.InfoContext(ctx, "address saved",
		slog.String("user_id", userID),
		slog.String("address_id", address.ID),
		slog.Bool("default", link.Default),
	)
	return link, nil
}

// reuseAddress handles a value match against the user's existing book. The
// only write ever needed is a default promotion.
func (s *AddressBookService) reuseAddress(ctx context.Context, userID string, existing *domain.UserAddress, makeDefault bool) (*domain.UserAddress, error) {
	if makeDefault && !existing.Default {
		if err := s.repo.MarkDefault(ctx, userID, existing.AddressID); err != nil {
			return nil, fmt.Errorf("mark default: %w", err)
		}
		existing.Default = true

		if err := s.producer.PublishAddressDefaultChanged(ctx, userID, existing.AddressID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish address.default_changed event",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.publishSaved(ctx, existing, true)
	return existing, nil
}

// MarkDefault makes the given address the user's default, demoting any
// previous default.
func (s *AddressBookService) MarkDefault(ctx context.Context, userID, addressID string) error {
	if err := s.repo.MarkDefault(ctx, userID, addressID); err != nil {
		return fmt.Errorf("mark default: %w", err)
	}

	if err := s.producer.PublishAddressDefaultChanged(ctx, userID, addressID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish address.default_changed event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "default address changed",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)
	return nil
}

// DefaultAddress returns the user's default address link. A user without one
// gets an unsaved placeholder pre-filled with the default country, so checkout
// forms always have a valid-shaped address to render.
func (s *AddressBookService) DefaultAddress(ctx context.Context, userID string) (*domain.UserAddress, error) {
	link, err := s.repo.GetDefault(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.UserAddress{
				UserID:  userID,
				Address: domain.Address{}.WithDefaultCountry(),
			}, nil
		}
		return nil, fmt.Errorf("get default address: %w", err)
	}
	return link, nil
}

// ListAddresses returns the user's address book, default first.
func (s *AddressBookService) ListAddresses(ctx context.Context, userID string) ([]domain.UserAddress, error) {
	links, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return links, nil
}

// RemoveAddress takes an address out of the user's book. The address row
// stays behind for orders that still reference it.
func (s *AddressBookService) RemoveAddress(ctx context.Context, userID, addressID string) error {
	if err := s.repo.Unlink(ctx, userID, addressID); err != nil {
		return fmt.Errorf("remove address: %w", err)
	}

	s.logger.InfoContext(ctx, "address removed",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)
	return nil
}

// PersistOrderAddresses copies a completed order's addresses into the user's
// book. The shipping address becomes the default; the billing address is
// only made default when there is no shipping address.
func (s *AddressBookService) PersistOrderAddresses(ctx context.Context, userID string, order *domain.Order) error {
	if order.ShipAddress != nil && !order.ShipAddress.Empty() {
		if _, err := s.SaveAddress(ctx, userID, *order.ShipAddress, true); err != nil {
			return fmt.Errorf("persist ship address: %w", err)
		}
	}

	if order.BillAddress != nil && !order.BillAddress.Empty() {
		makeDefault := order.ShipAddress == nil || order.ShipAddress.Empty()
		if _, err := s.SaveAddress(ctx, userID, *order.BillAddress, makeDefault); err != nil {
			return fmt.Errorf("persist bill address: %w", err)
		}
	}

	return nil
}

func (s *AddressBookService) publishSaved(ctx context.Context, link *domain.UserAddress, reused bool) {
	if err := s.producer.PublishAddressSaved(ctx, link, reused); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish address.saved event",
			slog.String("user_id", link.UserID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}
}

func validationError(issues []domain.FieldIssue) error {
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.String()
	}
	return apperrors.Validation(strings.Join(msgs, "; "))
}

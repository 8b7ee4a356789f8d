package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harborline/storefront/internal/domain"
	pkgkafka "github.com/harborline/storefront/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicAddressSaved          = "storefront.address.saved"
	TopicAddressDefaultChanged = "storefront.address.default_changed"
	TopicPromotionCreated      = "storefront.promotion.created"
	TopicPromotionApplied      = "storefront.promotion.applied"
	TopicProductCreated        = "storefront.product.created"
)

// Aggregate type constants.
const (
	AggregateTypeAddressBook = "address_book"
	AggregateTypePromotion   = "promotion"
	AggregateTypeProduct     = "product"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront"

// AddressSavedData is the payload for an address.saved event.
type AddressSavedData struct {
	UserID    string `json:"user_id"`
	AddressID string `json:"address_id"`
	Default   bool   `json:"default"`
	// Reused is true when the save matched an existing address instead of
	// creating a new row.
	Reused bool `json:"reused"`
}

// AddressDefaultChangedData is the payload for an address.default_changed
// event.
type AddressDefaultChangedData struct {
	UserID    string `json:"user_id"`
	AddressID string `json:"address_id"`
}

// PromotionCreatedData is the payload for a promotion.created event.
type PromotionCreatedData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// PromotionAppliedData is the payload for a promotion.applied event.
type PromotionAppliedData struct {
	PromotionID string `json:"promotion_id"`
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id,omitempty"`
	Discount    int64  `json:"discount"`
}

// ProductCreatedData is the payload for a product.created event.
type ProductCreatedData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Permalink string `json:"permalink"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishAddressSaved publishes an address.saved event.
func (p *Producer) PublishAddressSaved(ctx context.Context, link *domain.UserAddress, reused bool) error {
	data := AddressSavedData{
		UserID:    link.UserID,
		AddressID: link.AddressID,
		Default:   link.Default,
		Reused:    reused,
	}

	event, err := pkgkafka.NewEvent(TopicAddressSaved, link.UserID, AggregateTypeAddressBook, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create address.saved event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAddressSaved, event); err != nil {
		return fmt.Errorf("publish address.saved event: %w", err)
	}

	p.logger.DebugContext(ctx, "published address.saved event",
		slog.String("user_id", link.UserID),
		slog.String("address_id", link.AddressID),
	)
	return nil
}

// PublishAddressDefaultChanged publishes an address.default_changed event.
func (p *Producer) PublishAddressDefaultChanged(ctx context.Context, userID, addressID string) error {
	data := AddressDefaultChangedData{UserID: userID, AddressID: addressID}

	event, err := pkgkafka.NewEvent(TopicAddressDefaultChanged, userID, AggregateTypeAddressBook, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create address.default_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAddressDefaultChanged, event); err != nil {
		return fmt.Errorf("publish address.default_changed event: %w", err)
	}
	return nil
}

// PublishPromotionCreated publishes a promotion.created event.
func (p *Producer) PublishPromotionCreated(ctx context.Context, promo *domain.Promotion) error {
	data := PromotionCreatedData{ID: promo.ID, Name: promo.Name, Code: promo.Code}

	event, err := pkgkafka.NewEvent(TopicPromotionCreated, promo.ID, AggregateTypePromotion, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create promotion.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPromotionCreated, event); err != nil {
		return fmt.Errorf("publish promotion.created event: %w", err)
	}
	return nil
}

// PublishPromotionApplied publishes a promotion.applied event.
func (p *Producer) PublishPromotionApplied(ctx context.Context, promo *domain.Promotion, order *domain.Order, discount int64) error {
	data := PromotionAppliedData{
		PromotionID: promo.ID,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		UserID:      order.UserID,
		Discount:    discount,
	}

	event, err := pkgkafka.NewEvent(TopicPromotionApplied, promo.ID, AggregateTypePromotion, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create promotion.applied event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPromotionApplied, event); err != nil {
		return fmt.Errorf("publish promotion.applied event: %w", err)
	}

	p.logger.DebugContext(ctx, "published promotion.applied event",
		slog.String("promotion_id", promo.ID),
		slog.String("order_number", order.Number),
	)
	return nil
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	data := ProductCreatedData{
		ID:        product.ID,
		Name:      product.Name,
		Slug:      product.Slug,
		Permalink: product.Permalink,
	}

	event, err := pkgkafka.NewEvent(TopicProductCreated, product.ID, AggregateTypeProduct, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create product.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductCreated, event); err != nil {
		return fmt.Errorf("publish product.created event: %w", err)
	}
	return nil
}

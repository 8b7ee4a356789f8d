package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/internal/repository"
	"github.com/harborline/storefront/internal/service"
	"github.com/harborline/storefront/pkg/httputil"
	"github.com/harborline/storefront/pkg/validator"
)

// PromotionHandler handles HTTP requests for promotion endpoints.
type PromotionHandler struct {
	service *service.PromotionService
	logger  *slog.Logger
}

// NewPromotionHandler creates a new promotion HTTP handler.
func NewPromotionHandler(svc *service.PromotionService, logger *slog.Logger) *PromotionHandler {
	return &PromotionHandler{service: svc, logger: logger}
}

// CreatePromotionRequest is the JSON request body for creating a promotion.
type CreatePromotionRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Code        string  `json:"code" validate:"max=50"`
	Description string  `json:"description"`
	UsageLimit  *int    `json:"usage_limit" validate:"omitempty,gt=0"`
	StartsAt    *string `json:"starts_at"`
	ExpiresAt   *string `json:"expires_at"`
}

// UpdatePromotionRequest is the JSON request body for updating a promotion.
type UpdatePromotionRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Code        *string `json:"code" validate:"omitempty,max=50"`
	Description *string `json:"description"`
	UsageLimit  *int    `json:"usage_limit" validate:"omitempty,gt=0"`
	StartsAt    *string `json:"starts_at"`
	ExpiresAt   *string `json:"expires_at"`
}

// AddRuleRequest is the JSON request body for attaching a rule.
type AddRuleRequest struct {
	Type          string          `json:"type" validate:"required"`
	Preferences   json.RawMessage `json:"preferences"`
	AssociatedIDs []string        `json:"associated_ids" validate:"dive,uuid"`
}

// AddActionRequest is the JSON request body for attaching an action.
type AddActionRequest struct {
	Type                  string          `json:"type" validate:"required"`
	CalculatorType        string          `json:"calculator_type"`
	CalculatorPreferences json.RawMessage `json:"calculator_preferences"`
}

// ClonePromotionRequest is the JSON request body for cloning a promotion.
type ClonePromotionRequest struct {
	Name string `json:"name" validate:"max=255"`
	Code string `json:"code" validate:"max=50"`
}

// OrderPayload is the JSON shape of an order submitted for coupon checks.
type OrderPayload struct {
	ID            string            `json:"id" validate:"omitempty,uuid"`
	Number        string            `json:"number"`
	UserID        string            `json:"user_id" validate:"omitempty,uuid"`
	Currency      string            `json:"currency" validate:"omitempty,len=3"`
	ShipmentTotal int64             `json:"shipment_total" validate:"gte=0"`
	LineItems     []LineItemPayload `json:"line_items" validate:"dive"`
}

// LineItemPayload is one line item in an order payload.
type LineItemPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Price     int64  `json:"price" validate:"gte=0"`
}

func (p OrderPayload) toDomain() *domain.Order {
	order := &domain.Order{
		ID:            p.ID,
		Number:        p.Number,
		UserID:        p.UserID,
		Currency:      p.Currency,
		ShipmentTotal: p.ShipmentTotal,
	}
	for _, li := range p.LineItems {
		order.LineItems = append(order.LineItems, domain.LineItem{
			ProductID: li.ProductID,
			SKU:       li.SKU,
			Quantity:  li.Quantity,
			Price:     li.Price,
		})
	}
	order.RecalculateItemTotal()
	return order
}

// ValidateCouponRequest is the JSON request body for validating a coupon.
type ValidateCouponRequest struct {
	Code  string       `json:"code" validate:"required"`
	Order OrderPayload `json:"order" validate:"required"`
}

// ApplyCouponRequest is the JSON request body for applying a coupon.
type ApplyCouponRequest struct {
	Code  string       `json:"code" validate:"required"`
	Order OrderPayload `json:"order" validate:"required"`
}

// CreatePromotion handles POST /api/v1/promotions
func (h *PromotionHandler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreatePromotionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.CreatePromotionInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		UsageLimit:  req.UsageLimit,
	}

	var ok bool
	if input.StartsAt, ok = h.parseTime(w, req.StartsAt, "starts_at"); !ok {
		return
	}
	if input.ExpiresAt, ok = h.parseTime(w, req.ExpiresAt, "expires_at"); !ok {
		return
	}

	promo, err := h.service.CreatePromotion(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: promo})
}

// ListPromotions handles GET /api/v1/promotions
func (h *PromotionHandler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	page := 1
	perPage := 20

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			perPage = n
		}
	}

	filter := repository.PromotionFilter{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	if v := r.URL.Query().Get("code"); v != "" {
		filter.Code = &v
	}

	promos, total, err := h.service.ListPromotions(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(promos, total, page, perPage))
}

// GetPromotion handles GET /api/v1/promotions/{id}
func (h *PromotionHandler) GetPromotion(w http.ResponseWriter, r *http.Request) {
	promo, err := h.service.GetPromotion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promo})
}

// UpdatePromotion handles PUT /api/v1/promotions/{id}
func (h *PromotionHandler) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdatePromotionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.UpdatePromotionInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		UsageLimit:  req.UsageLimit,
	}

	var ok bool
	if input.StartsAt, ok = h.parseTime(w, req.StartsAt, "starts_at"); !ok {
		return
	}
	if input.ExpiresAt, ok = h.parseTime(w, req.ExpiresAt, "expires_at"); !ok {
		return
	}

	promo, err := h.service.UpdatePromotion(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promo})
}

// DeletePromotion handles DELETE /api/v1/promotions/{id}
func (h *PromotionHandler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePromotion(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddRule handles POST /api/v1/promotions/{id}/rules
func (h *PromotionHandler) AddRule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AddRuleRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	rule, err := h.service.AddRule(r.Context(), chi.URLParam(r, "id"), service.AddRuleInput{
		Type:          req.Type,
		Preferences:   req.Preferences,
		AssociatedIDs: req.AssociatedIDs,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: rule})
}

// RemoveRule handles DELETE /api/v1/promotions/{id}/rules/{ruleID}
func (h *PromotionHandler) RemoveRule(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveRule(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "ruleID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddAction handles POST /api/v1/promotions/{id}/actions
func (h *PromotionHandler) AddAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AddActionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	action, err := h.service.AddAction(r.Context(), chi.URLParam(r, "id"), service.AddActionInput{
		Type:                  req.Type,
		CalculatorType:        req.CalculatorType,
		CalculatorPreferences: req.CalculatorPreferences,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: action})
}

// RemoveAction handles DELETE /api/v1/promotions/{id}/actions/{actionID}
func (h *PromotionHandler) RemoveAction(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveAction(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "actionID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClonePromotion handles POST /api/v1/promotions/{id}/clone
func (h *PromotionHandler) ClonePromotion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ClonePromotionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	clone, err := h.service.ClonePromotion(r.Context(), chi.URLParam(r, "id"), req.Name, req.Code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: clone})
}

// CouponResult is the JSON response for coupon validation and application.
type CouponResult struct {
	PromotionID string        `json:"promotion_id"`
	Code        string        `json:"code"`
	Eligible    bool          `json:"eligible"`
	Discount    int64         `json:"discount,omitempty"`
	Order       *domain.Order `json:"order,omitempty"`
}

// ValidateCoupon handles POST /api/v1/coupons/validate
func (h *PromotionHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ValidateCouponRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	promo, err := h.service.ValidateCoupon(r.Context(), req.Code, req.Order.toDomain())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: CouponResult{
		PromotionID: promo.ID,
		Code:        promo.Code,
		Eligible:    true,
	}})
}

// ApplyCoupon handles POST /api/v1/coupons/apply
func (h *PromotionHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ApplyCouponRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order := req.Order.toDomain()
	discount, err := h.service.ApplyCoupon(r.Context(), req.Code, order)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: CouponResult{
		Code:     req.Code,
		Eligible: true,
		Discount: discount,
		Order:    order,
	}})
}

func (h *PromotionHandler) parseTime(w http.ResponseWriter, v *string, field string) (*time.Time, bool) {
	if v == nil || *v == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "INVALID_INPUT",
				Message: field + " must be in RFC3339 format",
				Field:   field,
			},
		})
		return nil, false
	}
	return &t, true
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/internal/service"
	"github.com/harborline/storefront/pkg/httputil"
	"github.com/harborline/storefront/pkg/validator"
)

// AddressHandler handles HTTP requests for address book endpoints.
type AddressHandler struct {
	service *service.AddressBookService
	logger  *slog.Logger
}

// NewAddressHandler creates a new address book HTTP handler.
func NewAddressHandler(svc *service.AddressBookService, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{service: svc, logger: logger}
}

// AddressPayload is the JSON shape of an address in requests. Field
// presence rules depend on the destination country, so required-ness is
// checked by the service rather than struct tags.
type AddressPayload struct {
	FirstName    string `json:"first_name" validate:"max=100"`
	LastName     string `json:"last_name" validate:"max=100"`
	Company      string `json:"company" validate:"max=100"`
	AddressLine1 string `json:"address_line1" validate:"max=255"`
	AddressLine2 string `json:"address_line2" validate:"max=255"`
	City         string `json:"city" validate:"max=100"`
	StateCode    string `json:"state_code" validate:"max=10"`
	StateName    string `json:"state_name" validate:"max=100"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	CountryCode  string `json:"country_code" validate:"omitempty,len=2"`
	Phone        string `json:"phone" validate:"max=30"`
}

func (p AddressPayload) toDomain() domain.Address {
	return domain.Address{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Company:      p.Company,
		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		City:         p.City,
		StateCode:    p.StateCode,
		StateName:    p.StateName,
		PostalCode:   p.PostalCode,
		CountryCode:  p.CountryCode,
		Phone:        p.Phone,
	}
}

// SaveAddressRequest is the JSON request body for saving an address.
type SaveAddressRequest struct {
	AddressPayload
	Default bool `json:"default"`
}

// PersistOrderAddressesRequest is the JSON request body for copying an
// order's addresses into the book.
type PersistOrderAddressesRequest struct {
	ShipAddress *AddressPayload `json:"ship_address"`
	BillAddress *AddressPayload `json:"bill_address"`
}

// SaveAddress handles POST /api/v1/users/{userID}/addresses
func (h *AddressHandler) SaveAddress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SaveAddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	link, err := h.service.SaveAddress(r.Context(), userID, req.toDomain(), req.Default)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: link})
}

// ListAddresses handles GET /api/v1/users/{userID}/addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	links, err := h.service.ListAddresses(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if links == nil {
		links = []domain.UserAddress{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: links})
}

// GetDefaultAddress handles GET /api/v1/users/{userID}/addresses/default
func (h *AddressHandler) GetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	link, err := h.service.DefaultAddress(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: link})
}

// MarkDefault handles PUT /api/v1/users/{userID}/addresses/{addressID}/default
func (h *AddressHandler) MarkDefault(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	addressID := chi.URLParam(r, "addressID")

	if err := h.service.MarkDefault(r.Context(), userID, addressID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveAddress handles DELETE /api/v1/users/{userID}/addresses/{addressID}
func (h *AddressHandler) RemoveAddress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	addressID := chi.URLParam(r, "addressID")

	if err := h.service.RemoveAddress(r.Context(), userID, addressID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PersistOrderAddresses handles POST /api/v1/users/{userID}/addresses/from-order
func (h *AddressHandler) PersistOrderAddresses(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req PersistOrderAddressesRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order := &domain.Order{}
	if req.ShipAddress != nil {
		addr := req.ShipAddress.toDomain()
		order.ShipAddress = &addr
	}
	if req.BillAddress != nil {
		addr := req.BillAddress.toDomain()
		order.BillAddress = &addr
	}

	if err := h.service.PersistOrderAddresses(r.Context(), userID, order); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	links, err := h.service.ListAddresses(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: links})
}

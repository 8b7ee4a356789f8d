package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/internal/event"
	"github.com/harborline/storefront/internal/service"
	apperrors "github.com/harborline/storefront/pkg/errors"
	"github.com/harborline/storefront/pkg/httputil"
	pkgkafka "github.com/harborline/storefront/pkg/kafka"
)

// ============================================================================
// Mock repository
// ============================================================================

type mockAddressBookRepository struct {
	mock.Mock
}

func (m *mockAddressBookRepository) CreateAddress(ctx context.Context, address *domain.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockAddressBookRepository) GetAddress(ctx context.Context, id string) (*domain.Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressBookRepository) FindLinkByValue(ctx context.Context, userID string, address domain.Address) (*domain.UserAddress, error) {
	args := m.Called(ctx, userID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserAddress), args.Error(1)
}

func (m *mockAddressBookRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockAddressBookRepository) Link(ctx context.Context, link *domain.UserAddress) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *mockAddressBookRepository) MarkDefault(ctx context.Context, userID, addressID string) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

func (m *mockAddressBookRepository) GetDefault(ctx context.Context, userID string) (*domain.UserAddress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserAddress), args.Error(1)
}

func (m *mockAddressBookRepository) ListForUser(ctx context.Context, userID string) ([]domain.UserAddress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserAddress), args.Error(1)
}

func (m *mockAddressBookRepository) Unlink(ctx context.Context, userID, addressID string) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	// No broker is listening; publishes fail and are logged, not returned.
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func testAddressHandler(repo *mockAddressBookRepository) *AddressHandler {
	svc := service.NewAddressBookService(repo, domain.NewGazetteer(), testEventProducer(), testLogger())
	return NewAddressHandler(svc, testLogger())
}

// setupAddressRouter creates a chi router matching the production route layout.
func setupAddressRouter(handler *AddressHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/users/{userID}/addresses", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", handler.SaveAddress)
		r.Get("/", handler.ListAddresses)
		r.Get("/default", handler.GetDefaultAddress)
		r.Post("/from-order", handler.PersistOrderAddresses)
		r.Put("/{addressID}/default", handler.MarkDefault)
		r.Delete("/{addressID}", handler.RemoveAddress)
	})
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func validAddressPayload() AddressPayload {
	return AddressPayload{
		FirstName:    "Alice",
		LastName:     "Smith",
		AddressLine1: "123 Main St",
		City:         "Springfield",
		StateCode:    "IL",
		PostalCode:   "62701",
		CountryCode:  "US",
	}
}

func sampleLink(id, userID string) domain.UserAddress {
	payload := validAddressPayload()
	return domain.UserAddress{
		ID:        id,
		UserID:    userID,
		AddressID: "addr-" + id,
		Address:   payload.toDomain(),
	}
}

// ============================================================================
// POST /api/v1/users/{userID}/addresses - SaveAddress
// ============================================================================

func TestSaveAddress_Created(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	repo.On("CountForUser", mock.Anything, "user-1").Return(2, nil)
	repo.On("FindLinkByValue", mock.Anything, "user-1", mock.AnythingOfType("domain.Address")).
		Return(nil, apperrors.ErrNotFound)
	repo.On("CreateAddress", mock.Anything, mock.AnythingOfType("*domain.Address")).Return(nil)
	repo.On("Link", mock.Anything, mock.AnythingOfType("*domain.UserAddress")).Return(nil)

	b, _ := json.Marshal(SaveAddressRequest{AddressPayload: validAddressPayload()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/user-1/addresses", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	repo.AssertExpectations(t)
}

func TestSaveAddress_InvalidJSON(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/user-1/addresses", bytes.NewReader([]byte(`{invalid json`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "decode request body")
}

func TestSaveAddress_MissingContentType(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	b, _ := json.Marshal(SaveAddressRequest{AddressPayload: validAddressPayload()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/user-1/addresses", bytes.NewReader(b))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	repo.AssertNotCalled(t, "CountForUser", mock.Anything, mock.Anything)
}

func TestSaveAddress_UnknownCountry(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	payload := validAddressPayload()
	payload.CountryCode = "ZZ"
	b, _ := json.Marshal(SaveAddressRequest{AddressPayload: payload})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/user-1/addresses", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	repo.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
}

// ============================================================================
// GET /api/v1/users/{userID}/addresses - ListAddresses
// ============================================================================

func TestListAddresses_DefaultFirst(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	first := sampleLink("link-1", "user-1")
	first.Default = true
	second := sampleLink("link-2", "user-1")
	repo.On("ListForUser", mock.Anything, "user-1").
		Return([]domain.UserAddress{first, second}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/addresses", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []domain.UserAddress `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[0].Default)
	assert.Equal(t, "Alice", resp.Data[0].Address.FirstName)
	repo.AssertExpectations(t)
}

func TestListAddresses_EmptyBook(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	repo.On("ListForUser", mock.Anything, "user-1").Return([]domain.UserAddress{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/addresses", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []domain.UserAddress `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

// ============================================================================
// GET /api/v1/users/{userID}/addresses/default - GetDefaultAddress
// ============================================================================

func TestGetDefaultAddress_Found(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	link := sampleLink("link-1", "user-1")
	link.Default = true
	repo.On("GetDefault", mock.Anything, "user-1").Return(&link, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/addresses/default", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	repo.AssertExpectations(t)
}

func TestGetDefaultAddress_NoDefault(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	repo.On("GetDefault", mock.Anything, "user-1").Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/addresses/default", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// An empty book yields a placeholder with the default country, not a 404.
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data domain.UserAddress `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Data.ID)
	assert.Equal(t, domain.DefaultCountryCode, resp.Data.Address.CountryCode)
}

// ============================================================================
// PUT /api/v1/users/{userID}/addresses/{addressID}/default - MarkDefault
// ============================================================================

func TestMarkDefault_NoContent(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	repo.On("MarkDefault", mock.Anything, "user-1", "addr-1").Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/user-1/addresses/addr-1/default", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}

func TestMarkDefault_NotLinked(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	repo.On("MarkDefault", mock.Anything, "user-1", "addr-9").
		Return(apperrors.NotFound("address", "addr-9"))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/user-1/addresses/addr-9/default", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// ============================================================================
// DELETE /api/v1/users/{userID}/addresses/{addressID} - RemoveAddress
// ============================================================================

func TestRemoveAddress_NoContent(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	repo.On("Unlink", mock.Anything, "user-1", "addr-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/user-1/addresses/addr-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}

// ============================================================================
// POST /api/v1/users/{userID}/addresses/from-order - PersistOrderAddresses
// ============================================================================

func TestPersistOrderAddresses_ShipBecomesDefault(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	ship := validAddressPayload()
	bill := validAddressPayload()
	bill.AddressLine1 = "456 Oak Ave"
	bill.PostalCode = "62702"

	repo.On("CountForUser", mock.Anything, "user-1").Return(1, nil)
	repo.On("FindLinkByValue", mock.Anything, "user-1", mock.AnythingOfType("domain.Address")).
		Return(nil, apperrors.ErrNotFound)
	repo.On("CreateAddress", mock.Anything, mock.AnythingOfType("*domain.Address")).Return(nil)
	repo.On("Link", mock.Anything, mock.AnythingOfType("*domain.UserAddress")).Return(nil)
	repo.On("MarkDefault", mock.Anything, "user-1", mock.AnythingOfType("string")).Return(nil)
	repo.On("ListForUser", mock.Anything, "user-1").
		Return([]domain.UserAddress{sampleLink("link-1", "user-1"), sampleLink("link-2", "user-1")}, nil)

	b, _ := json.Marshal(PersistOrderAddressesRequest{ShipAddress: &ship, BillAddress: &bill})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/user-1/addresses/from-order", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []domain.UserAddress `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)

	// Only the shipping address is promoted.
	repo.AssertNumberOfCalls(t, "MarkDefault", 1)
	repo.AssertNumberOfCalls(t, "CreateAddress", 2)
}

func TestPersistOrderAddresses_NoAddresses(t *testing.T) {
	repo := new(mockAddressBookRepository)
	router := setupAddressRouter(testAddressHandler(repo))

	repo.On("ListForUser", mock.Anything, "user-1").Return([]domain.UserAddress{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/user-1/addresses/from-order", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/internal/service"
	"github.com/harborline/storefront/pkg/health"
	"github.com/harborline/storefront/pkg/middleware"
)

// RouterConfig bundles the dependencies the router needs.
type RouterConfig struct {
	AddressBook    *service.AddressBookService
	Promotions     *service.PromotionService
	Catalog        *service.CatalogService
	Gazetteer      *domain.Gazetteer
	Health         *health.Handler
	Logger         *slog.Logger
	AllowedOrigins []string
	Environment    string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	addressHandler := NewAddressHandler(cfg.AddressBook, cfg.Logger)
	promotionHandler := NewPromotionHandler(cfg.Promotions, cfg.Logger)
	productHandler := NewProductHandler(cfg.Catalog, cfg.Logger)
	geoHandler := NewGeoHandler(cfg.Gazetteer)

	r.Route("/api/v1/users/{userID}/addresses", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", addressHandler.SaveAddress)
		r.Get("/", addressHandler.ListAddresses)
		r.Get("/default", addressHandler.GetDefaultAddress)
		r.Post("/from-order", addressHandler.PersistOrderAddresses)
		r.Put("/{addressID}/default", addressHandler.MarkDefault)
		r.Delete("/{addressID}", addressHandler.RemoveAddress)
	})

	r.Route("/api/v1/promotions", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", promotionHandler.CreatePromotion)
		r.Get("/", promotionHandler.ListPromotions)
		r.Get("/{id}", promotionHandler.GetPromotion)
		r.Put("/{id}", promotionHandler.UpdatePromotion)
		r.Delete("/{id}", promotionHandler.DeletePromotion)
		r.Post("/{id}/clone", promotionHandler.ClonePromotion)
		r.Post("/{id}/rules", promotionHandler.AddRule)
		r.Delete("/{id}/rules/{ruleID}", promotionHandler.RemoveRule)
		r.Post("/{id}/actions", promotionHandler.AddAction)
		r.Delete("/{id}/actions/{actionID}", promotionHandler.RemoveAction)
	})

	r.Route("/api/v1/coupons", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/validate", promotionHandler.ValidateCoupon)
		r.Post("/apply", promotionHandler.ApplyCoupon)
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", productHandler.CreateProduct)
		r.Get("/", productHandler.ListProducts)
		r.Get("/permalink/{permalink}", productHandler.GetProductByPermalink)
		r.Get("/{id}", productHandler.GetProduct)
		r.Put("/{id}", productHandler.UpdateProduct)
		r.Delete("/{id}", productHandler.DeleteProduct)
	})

	r.Route("/api/v1/countries", func(r chi.Router) {
		r.Get("/", geoHandler.ListCountries)
		r.Get("/{code}/states", geoHandler.ListStates)
	})

	return r
}

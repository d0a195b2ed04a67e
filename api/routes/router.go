package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockroomhq/stockroom-backend/api/controllers"
	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/internal/catalog"
	"github.com/stockroomhq/stockroom-backend/internal/ledger"
	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/internal/reports"
	"github.com/stockroomhq/stockroom-backend/internal/stock"
	"github.com/stockroomhq/stockroom-backend/internal/suppliers"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promRegistry *prometheus.Registry,
	catalogService catalog.Service,
	stockService stock.Service,
	ledgerService ledger.Service,
	reportsService reports.Service,
	notificationsService notifications.Service,
	suppliersService suppliers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisP redis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/items", func(r chi.Router) {
		r.Post("/", controllers.CreateItem(catalogService, logg))
		r.Get("/", controllers.GetItems(catalogService, logg))
		r.Get("/{itemId}", controllers.GetItem(catalogService, logg))
		r.Patch("/{itemId}", controllers.UpdateItem(catalogService, logg))
		r.Delete("/{itemId}", controllers.DeleteItem(catalogService, logg))
		r.Put("/{itemId}/stocks/{lotId}", controllers.UpdateLotDetails(stockService, logg))
	})

	r.Route("/api/v1/stocks", func(r chi.Router) {
		r.Post("/", controllers.CreateLot(stockService, logg))
		r.Get("/low-stock", controllers.GetLowStockLots(stockService, logg))
		r.Get("/expiring", controllers.GetExpiringLots(stockService, logg))
		r.Get("/{lotId}", controllers.GetLot(stockService, logg))
		r.Get("/{lotId}/history", controllers.GetLotHistory(ledgerService, logg))
	})

	r.Route("/api/v1/transactions", func(r chi.Router) {
		r.With(middleware.RequireUser(logg)).Post("/", controllers.RecordMovement(ledgerService, logg))
	})

	r.Route("/api/v1/corrections", func(r chi.Router) {
		r.With(middleware.RequireUser(logg)).Put("/", controllers.CorrectQuantity(ledgerService, logg))
	})

	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Get("/financial-summary", controllers.GetFinancialSummary(reportsService, logg))
	})

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Get("/low-stock", controllers.GetLowStockAlerts(notificationsService, logg))
		r.Get("/expiring", controllers.GetExpirationAlerts(notificationsService, logg))
	})

	r.Route("/api/v1/suppliers", func(r chi.Router) {
		r.Post("/", controllers.CreateSupplier(suppliersService, logg))
		r.Get("/", controllers.GetSuppliers(suppliersService, logg))
		r.Get("/{supplierId}", controllers.GetSupplier(suppliersService, logg))
		r.Put("/{supplierId}", controllers.UpdateSupplier(suppliersService, logg))
		r.Delete("/{supplierId}", controllers.DeleteSupplier(suppliersService, logg))
	})

	return r
}

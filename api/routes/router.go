package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukapoint/stockledger-backend/api/controllers"
	"github.com/dukapoint/stockledger-backend/api/middleware"
	"github.com/dukapoint/stockledger-backend/internal/counters"
	"github.com/dukapoint/stockledger-backend/internal/exports"
	"github.com/dukapoint/stockledger-backend/internal/imports"
	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	"github.com/dukapoint/stockledger-backend/internal/sessions"
	"github.com/dukapoint/stockledger-backend/internal/tenants"
	"github.com/dukapoint/stockledger-backend/internal/variance"
	"github.com/dukapoint/stockledger-backend/pkg/config"
	"github.com/dukapoint/stockledger-backend/pkg/db"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
	pkgredis "github.com/dukapoint/stockledger-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. The gateway in front
// of this service owns authentication; identity arrives as headers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    pkgredis.IdempotencyStore
	Registry prometheus.Gatherer

	Tenants   tenants.Repository
	Items     items.Service
	Counters  counters.Service
	Sessions  sessions.Service
	Movements movements.Service
	Variance  variance.Service
	Imports   imports.Service
	Exports   exports.Service
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.DB))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.TenantContext(d.Tenants, d.Logger))
		r.Use(middleware.Idempotency(d.Redis, d.Logger))

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemsList(d.Items, d.Logger))
			r.Post("/", controllers.ItemsCreate(d.Items, d.Logger))
			r.Get("/{itemID}", controllers.ItemsGet(d.Items, d.Logger))
			r.Patch("/{itemID}", controllers.ItemsUpdate(d.Items, d.Logger))
			r.Get("/{itemID}/movements", controllers.MovementsHistory(d.Movements, d.Logger))
		})

		r.Route("/counters", func(r chi.Router) {
			r.Get("/", controllers.CountersList(d.Counters, d.Logger))
			r.Post("/", controllers.CountersCreate(d.Counters, d.Logger))
			r.Patch("/{counterID}", controllers.CountersSetActive(d.Counters, d.Logger))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", controllers.SessionsList(d.Sessions, d.Logger))
			r.Get("/current", controllers.SessionsCurrent(d.Sessions, d.Logger))
			r.Post("/open", controllers.SessionsOpen(d.Sessions, d.Logger))
			r.Post("/close", controllers.SessionsClose(d.Sessions, d.Logger))
		})

		r.Post("/movements", controllers.MovementsRecord(d.Movements, d.Logger))

		r.Route("/stock", func(r chi.Router) {
			r.Get("/levels", controllers.StockLevels(d.Movements, d.Logger))
			r.Get("/items/{itemID}", controllers.StockCurrent(d.Movements, d.Logger))
		})

		r.Get("/variance", controllers.VarianceReport(d.Variance, d.Logger))

		r.Route("/imports", func(r chi.Router) {
			r.Post("/sales", controllers.ImportsSales(d.Imports, d.Logger))
			r.Post("/counts", controllers.ImportsPhysicalCounts(d.Imports, d.Logger))
			r.Post("/restock", controllers.ImportsRestock(d.Imports, d.Logger))
		})

		r.Route("/exports", func(r chi.Router) {
			r.Get("/reorder", controllers.ExportsReorder(d.Exports, d.Logger))
			r.Get("/sales-template", controllers.ExportsSalesTemplate(d.Exports, d.Logger))
		})
	})

	return r
}

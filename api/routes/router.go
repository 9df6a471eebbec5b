package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopfront-backend/api/controllers"
	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/internal/auth"
	"github.com/angelmondragon/shopfront-backend/internal/browse"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/shopfront-backend/internal/checkout"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/kv"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	KV       *kv.Client
	Catalog  *catalog.Client
	Browse   browse.Service
	Cart     *cart.Store
	CartRepo *cart.Repository
	Session  *auth.Manager
	Checkout checkoutsvc.Service
	Metrics  *metrics.RequestMetrics
	Registry *prometheus.Registry
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
		middleware.Metrics(d.Metrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.Logger, d.KV))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/home", controllers.Homepage(d.Browse, d.Logger, d.Session))
		r.Get("/categories", controllers.CategoriesList(d.Browse, d.Logger, d.Session))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(d.Browse, d.Logger, d.Session))
			r.Get("/search", controllers.ProductsSearch(d.Browse, d.Logger, d.Session))
			r.Get("/{id}", controllers.ProductDetail(d.Browse, d.Logger, d.Session))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(d.Cart, d.Logger))
			r.Delete("/", controllers.CartClear(d.Cart, d.Logger))
			r.Post("/items", controllers.CartAddItem(d.Cart, d.Catalog, d.Logger, d.Session))
			r.Put("/items/{productID}", controllers.CartSetQuantity(d.Cart, d.Logger))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(d.Cart, d.Logger))
			r.Post("/merge", controllers.CartMerge(d.Cart, d.Logger))
			r.Get("/stats", controllers.CartStats(d.Cart, d.Logger))
			r.Get("/shipping", controllers.CartShippingEstimate(d.Cart, d.Logger))
			r.Get("/discount", controllers.CartDiscountQuote(d.Cart, d.Logger))
			r.Post("/validate", controllers.CartValidate(d.Cart, d.Logger))
			r.Get("/recommendations", controllers.CartRecommendations(d.Cart, d.Logger, d.Session))
			r.Get("/export", controllers.CartExport(d.CartRepo, d.Logger))
			r.Post("/import", controllers.CartImport(d.Cart, d.CartRepo, d.Logger))
			r.Get("/storage-size", controllers.CartStorageSize(d.CartRepo, d.Logger))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", controllers.AuthLogin(d.Session, d.Logger))
			r.Post("/register", controllers.AuthRegister(d.Session, d.Logger))
			r.Get("/profile", controllers.AuthProfile(d.Session, d.Logger))
			r.Post("/refresh", controllers.AuthRefresh(d.Session, d.Logger))
			r.Post("/logout", controllers.AuthLogout(d.Session, d.Logger))
			r.Get("/session", controllers.AuthSession(d.Session, d.Logger))
		})

		r.Post("/checkout", controllers.CheckoutExecute(d.Checkout, d.Logger))
	})

	return r
}

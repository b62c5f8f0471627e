package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmbasket/farmbasket-backend/api/controllers"
	webhookcontrollers "github.com/farmbasket/farmbasket-backend/api/controllers/webhooks"
	"github.com/farmbasket/farmbasket-backend/api/middleware"
	"github.com/farmbasket/farmbasket-backend/pkg/config"
	"github.com/farmbasket/farmbasket-backend/pkg/db"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
	"github.com/farmbasket/farmbasket-backend/pkg/redis"
	"github.com/farmbasket/farmbasket-backend/pkg/stripe"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         redis.Pinger
	Products      controllers.ProductCatalog
	Carts         controllers.CartService
	Checkout      controllers.CheckoutService
	Orders        controllers.OrderReader
	StripeClient  *stripe.Client
	StripeWebhook webhookcontrollers.StripeWebhookService
	Metrics       prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeClient, deps.Logger))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.Products, deps.Logger))
		r.Get("/{productId}", controllers.ProductDetail(deps.Products, deps.Logger))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartSession(deps.Logger))
		r.Get("/", controllers.CartFetch(deps.Carts, deps.Logger))
		r.Delete("/", controllers.CartClear(deps.Carts, deps.Logger))
		r.Post("/items", controllers.CartAddItem(deps.Carts, deps.Logger))
		r.Post("/items/{productId}/decrement", controllers.CartDecrementItem(deps.Carts, deps.Logger))
		r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Carts, deps.Logger))
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.CartSession(deps.Logger))
		r.Post("/session", controllers.Checkout(deps.Checkout, deps.Logger))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.CartSession(deps.Logger))
		r.Get("/", controllers.OrderList(deps.Orders, deps.Logger))
		r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, deps.Logger))
	})

	return r
}

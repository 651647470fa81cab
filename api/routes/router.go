package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oluwatobiadeoye/kolamart-backend/api/controllers"
	"github.com/oluwatobiadeoye/kolamart-backend/api/middleware"
	cartsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/cart"
	checkoutsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/checkout"
	listingsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/listings"
	ordersvc "github.com/oluwatobiadeoye/kolamart-backend/internal/orders"
	productsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/products"
	storesvc "github.com/oluwatobiadeoye/kolamart-backend/internal/stores"
	walletsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/wallet"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
)

// Services bundles everything the router exposes over HTTP.
type Services struct {
	Stores   storesvc.Service
	Products productsvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Wallet   walletsvc.Service
	Orders   ordersvc.Service
	Listings listingsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/marketplace/feed", controllers.MarketplaceFeed(svcs.Listings, logg))

		r.Route("/stores", func(r chi.Router) {
			r.Post("/", controllers.StoreCreate(svcs.Stores, logg))
			r.Get("/", controllers.StoreList(svcs.Stores, logg))
			r.Get("/{storeID}", controllers.StoreGet(svcs.Stores, logg))
			r.Patch("/{storeID}/loyalty", controllers.StoreUpdateLoyalty(svcs.Stores, logg))
			r.Get("/{storeID}/products", controllers.StorefrontProducts(svcs.Products, logg))
			r.Get("/{storeID}/orders", controllers.OrdersByVendor(svcs.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Get("/{productID}", controllers.ProductGet(svcs.Products, logg))
			r.Delete("/{productID}", controllers.ProductDeactivate(svcs.Products, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items", controllers.CartSetQuantity(svcs.Cart, logg))
			r.Delete("/items", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Post("/clear", controllers.CartClear(svcs.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/submit", controllers.CheckoutSubmit(svcs.Checkout, logg))
			r.Get("/states", controllers.CheckoutStates(svcs.Checkout, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/lookup", controllers.WalletLookup(svcs.Wallet, logg))
			r.Post("/pin", controllers.WalletSetPin(svcs.Wallet, logg))
			r.Post("/balance", controllers.WalletBalance(svcs.Wallet, logg))
			r.Post("/history", controllers.WalletHistory(svcs.Wallet, logg))
			r.Get("/audit", controllers.WalletAudit(svcs.Wallet, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersByShopper(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(svcs.Orders, logg))
			r.Post("/{orderID}/complete", controllers.OrderComplete(svcs.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(svcs.Orders, logg))
		})
	})

	return r
}

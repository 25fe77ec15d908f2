package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kampyn/ordering-gateway/api/controllers"
	"github.com/kampyn/ordering-gateway/api/middleware"
	"github.com/kampyn/ordering-gateway/internal/accounts"
	cartsvc "github.com/kampyn/ordering-gateway/internal/cart"
	"github.com/kampyn/ordering-gateway/internal/directory"
	"github.com/kampyn/ordering-gateway/internal/favorites"
	"github.com/kampyn/ordering-gateway/internal/invoices"
	"github.com/kampyn/ordering-gateway/internal/journal"
	"github.com/kampyn/ordering-gateway/internal/ordersync"
	"github.com/kampyn/ordering-gateway/internal/payment"
	"github.com/kampyn/ordering-gateway/internal/ratelimit"
	"github.com/kampyn/ordering-gateway/pkg/config"
	"github.com/kampyn/ordering-gateway/pkg/logger"
	pkgredis "github.com/kampyn/ordering-gateway/pkg/redis"
)

// Services collects everything the router wires into handlers.
type Services struct {
	Accounts   accounts.Service
	Directory  directory.Service
	Cart       cartsvc.Service
	Payments   payment.Service
	Orders     ordersync.Service
	Favorites  favorites.Service
	Invoices   invoices.Service
	RateLimits ratelimit.Service

	// Journal is nil when the journal feature is disabled.
	Journal *journal.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	idempotencyStore pkgredis.IdempotencyStore,
	readiness map[string]controllers.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.SessionOnly())
		r.Post("/login", controllers.Login(svcs.Accounts, logg))
		r.Post("/signup", controllers.Signup(svcs.Accounts, logg))
		r.Post("/otp/verify", controllers.VerifyOTP(svcs.Accounts, logg))
		r.Post("/logout", controllers.Logout(svcs.Accounts, logg))
		r.Post("/forgot-password", controllers.ForgotPassword(svcs.Accounts, logg))
		r.Post("/reset-password", controllers.ResetPassword(svcs.Accounts, logg))
	})

	r.Route("/api/v1/session/preferences", func(r chi.Router) {
		r.Use(middleware.SessionOnly())
		r.Get("/{key}", controllers.GetPreference(svcs.Accounts, logg))
		r.Put("/{key}", controllers.SetPreference(svcs.Accounts, logg))
	})

	r.Route("/api/v1/colleges", func(r chi.Router) {
		r.Get("/", controllers.ListColleges(svcs.Directory, logg))
		r.Get("/{collegeID}/vendors", controllers.ListCollegeVendors(svcs.Directory, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(svcs.Accounts, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(svcs.Cart, logg))
			r.Delete("/", controllers.ClearCart(svcs.Cart, logg))
			r.Get("/quote", controllers.QuoteCart(svcs.Cart, logg))
			r.Post("/items", controllers.AddCartItem(svcs.Cart, logg))
			r.Post("/items/increase", controllers.IncreaseCartItem(svcs.Cart, logg))
			r.Post("/items/decrease", controllers.DecreaseCartItem(svcs.Cart, logg))
		})

		r.Route("/api/v1/payments", func(r chi.Router) {
			r.Post("/session", controllers.BeginPayment(svcs.Payments, logg))
			r.Get("/session", controllers.CurrentPayment(svcs.Payments, logg))
			r.Post("/verify", controllers.ConfirmPayment(svcs.Payments, logg))
			r.Post("/cancel", controllers.CancelPayment(svcs.Payments, logg))
			r.Post("/reset", controllers.ResetPayment(svcs.Payments, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/active", controllers.UserActiveOrders(svcs.Orders, logg))
			r.Get("/history", controllers.UserOrderHistory(svcs.Orders, logg))
			r.Patch("/{orderID}/advance", controllers.AdvanceOrder(svcs.Orders, logg))
		})

		r.Route("/api/v1/vendors/{vendorID}/orders", func(r chi.Router) {
			r.Get("/", controllers.VendorOrders(svcs.Orders, logg))
			r.Get("/history", controllers.VendorOrderHistory(svcs.Orders, logg))
		})

		r.Route("/api/v1/favourites", func(r chi.Router) {
			r.Get("/", controllers.ListFavorites(svcs.Favorites, logg))
			r.Patch("/{itemID}/{kind}/{vendorID}", controllers.ToggleFavorite(svcs.Favorites, logg))
		})

		r.Route("/api/v1/invoices", func(r chi.Router) {
			r.Get("/vendor/{vendorID}", controllers.ListInvoices(svcs.Invoices, logg))
			r.Post("/bulk-zip", controllers.DownloadInvoiceZip(svcs.Invoices, logg))
		})

		r.Route("/api/v1/admin/rate-limits", func(r chi.Router) {
			r.Get("/", controllers.ListRateLimits(svcs.RateLimits, logg))
			r.Patch("/{key}/release", controllers.ReleaseRateLimit(svcs.RateLimits, logg))
		})

		r.Get("/api/v1/admin/payments/attempts/{key}", controllers.PaymentAttemptLookup(svcs.Journal, logg))
	})

	return r
}

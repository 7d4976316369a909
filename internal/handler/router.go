package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/observability/metrics"
	"github.com/aryan0dhankhar/natours/internal/payment"
	"github.com/aryan0dhankhar/natours/internal/security/audit"
	"github.com/aryan0dhankhar/natours/internal/security/middleware"
	"github.com/aryan0dhankhar/natours/internal/security/ratelimit"
)

const (
	apiLimitMessage   = "Too many requests from this IP, please try again in an hour!"
	loginLimitMessage = "Too many attempts from this IP, please try again later."
)

// Routes collects everything the router mounts.
type Routes struct {
	Production  bool
	CORSOrigins []string
	BodyLimit   int64
	PublicDir   string

	Errors        *Errors
	Authenticator middleware.Authenticator
	Audit         *audit.Logger
	APILimiter    ratelimit.Allower
	LoginThrottle ratelimit.Allower

	Tours     *Resource[domain.Tour, *domain.Tour]
	TourExtra *TourHandler
	Users     *Resource[domain.User, *domain.User]
	Reviews   *Resource[domain.Review, *domain.Review]
	Bookings  *Resource[domain.Booking, *domain.Booking]
	Auth      *AuthHandler
	Account   *UserHandler
	Checkout  *BookingHandler
	Views     *ViewHandler
	Health    *HealthHandler

	Logger *slog.Logger
}

// NewRouter builds the full HTTP surface.
func NewRouter(rt Routes) http.Handler {
	log := rt.Logger
	if log == nil {
		log = slog.Default()
	}
	writeErr := rt.Errors.Write
	protect := middleware.Protect(rt.Authenticator, writeErr)
	restrict := func(roles ...domain.Role) func(http.Handler) http.Handler {
		return middleware.RestrictTo(writeErr, rt.Audit, roles...)
	}
	auditDeletes := func(resource string) func(http.Handler) http.Handler {
		return middleware.AuditDeletes(rt.Audit, resource, func(r *http.Request) string { return chi.URLParam(r, "id") })
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(middleware.SecurityHeaders(rt.Production))
	r.NotFound(rt.Errors.NotFound)
	r.MethodNotAllowed(rt.Errors.MethodNotAllowed)

	r.Get("/healthz", rt.Health.Health)
	r.Get("/readyz", rt.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// The webhook needs the raw body, so it sits outside the JSON API stack.
	r.Post("/webhook-checkout", rt.Checkout.Webhook)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.RateLimit(rt.APILimiter, "api", apiLimitMessage, writeErr, log))
		api.Use(middleware.BodyLimit(rt.BodyLimit))
		api.Use(middleware.ValidateJSONContentType(writeErr, log))
		api.Use(middleware.SanitizeInputs(writeErr, log))

		reviewRoutes := func(rr chi.Router) {
			rr.Use(protect)
			rr.Get("/", rt.Reviews.List)
			rr.With(restrict(domain.RoleUser)).Post("/", rt.Reviews.Create)
			rr.Get("/{id}", rt.Reviews.Get)
			rr.With(restrict(domain.RoleUser, domain.RoleAdmin)).Patch("/{id}", rt.Reviews.Update)
			rr.With(restrict(domain.RoleUser, domain.RoleAdmin), auditDeletes("review")).Delete("/{id}", rt.Reviews.Delete)
		}

		api.Route("/tours", func(tr chi.Router) {
			tr.Get("/top-5-cheap", rt.Tours.Alias(TopCheap))
			tr.Get("/tour-stats", rt.TourExtra.Stats)
			tr.With(protect, restrict(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide)).
				Get("/monthly-plan/{year}", rt.TourExtra.MonthlyPlan)
			tr.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", rt.TourExtra.Within)
			tr.Get("/distances/{latlng}/unit/{unit}", rt.TourExtra.Distances)

			tr.Get("/", rt.Tours.List)
			tr.With(protect, restrict(domain.RoleAdmin, domain.RoleLeadGuide)).Post("/", rt.Tours.Create)
			tr.Get("/{id}", rt.Tours.Get)
			tr.With(protect, restrict(domain.RoleAdmin, domain.RoleLeadGuide)).Patch("/{id}", rt.Tours.Update)
			tr.With(protect, restrict(domain.RoleAdmin, domain.RoleLeadGuide), auditDeletes("tour")).Delete("/{id}", rt.Tours.Delete)

			tr.Route("/{tourId}/reviews", reviewRoutes)
		})

		api.Route("/reviews", reviewRoutes)

		api.Route("/users", func(ur chi.Router) {
			throttle := middleware.RateLimit(rt.LoginThrottle, "login", loginLimitMessage, writeErr, log)
			ur.Post("/signup", rt.Auth.Signup)
			ur.With(throttle).Post("/login", rt.Auth.Login)
			ur.With(middleware.IsLoggedIn(rt.Authenticator, log)).Get("/logout", rt.Auth.Logout)
			ur.With(throttle).Post("/forgotPassword", rt.Auth.ForgotPassword)
			ur.Patch("/resetPassword/{token}", rt.Auth.ResetPassword)

			ur.Group(func(me chi.Router) {
				me.Use(protect)
				me.Patch("/updateMyPassword", rt.Auth.UpdatePassword)
				me.Get("/me", rt.Account.Me)
				me.Patch("/updateMe", rt.Account.UpdateMe)
				me.Delete("/deleteMe", rt.Account.DeleteMe)
			})

			ur.Group(func(admin chi.Router) {
				admin.Use(protect, restrict(domain.RoleAdmin))
				admin.Get("/", rt.Users.List)
				admin.Post("/", rt.Account.CreateUser)
				admin.Get("/{id}", rt.Users.Get)
				admin.Patch("/{id}", rt.Users.Update)
				admin.With(auditDeletes("user")).Delete("/{id}", rt.Users.Delete)
			})
		})

		api.Route("/bookings", func(br chi.Router) {
			br.Use(protect)
			br.Get("/checkout-session/{tourId}", rt.Checkout.CheckoutSession)
			br.Get("/mine", rt.Checkout.Mine)

			br.Group(func(admin chi.Router) {
				admin.Use(restrict(domain.RoleAdmin, domain.RoleLeadGuide))
				admin.Get("/", rt.Bookings.List)
				admin.Post("/", rt.Bookings.Create)
				admin.Get("/{id}", rt.Bookings.Get)
				admin.Patch("/{id}", rt.Bookings.Update)
				admin.With(auditDeletes("booking")).Delete("/{id}", rt.Bookings.Delete)
			})
		})
	})

	r.Group(func(pages chi.Router) {
		pages.Use(middleware.IsLoggedIn(rt.Authenticator, log))
		pages.Get("/", rt.Views.Overview)
		pages.Get("/tour/{slug}", rt.Views.Tour)
		pages.Get("/login", rt.Views.Login)
		pages.Get("/signup", rt.Views.Signup)
	})
	r.Group(func(pages chi.Router) {
		pages.Use(protect)
		pages.Get("/me", rt.Views.Account)
		pages.Get("/my-tours", rt.Views.MyTours)
		pages.Post("/submit-user-data", rt.Views.SubmitUserData)
	})

	if rt.PublicDir != "" {
		static := http.FileServer(http.Dir(rt.PublicDir))
		for _, dir := range []string{"/css/*", "/img/*", "/js/*"} {
			r.Handle(dir, static)
		}
		r.Handle("/favicon.png", static)
	}

	var h http.Handler = r
	h = handlers.CompressHandler(h)
	h = handlers.CORS(
		handlers.AllowedOrigins(rt.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", "Authorization", payment.SignatureHeader}),
		handlers.AllowCredentials(),
	)(h)
	return otelhttp.NewHandler(h, "natours")
}

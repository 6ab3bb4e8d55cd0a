package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"edtpro/internal/adapters/api"
	"edtpro/internal/adapters/http/middleware"
	"edtpro/internal/adapters/http/perf"
	"edtpro/internal/application/session"
	"edtpro/internal/application/validation"
	"edtpro/internal/domain/account"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// maxRequestBody caps every request body. Profile photos are the largest payload.
const maxRequestBody = 8 << 20

// Deps holds everything the handlers call.
type Deps struct {
	Sessions  *session.Accessor
	API       *api.Client
	Validator *validation.Validator
	Collector *perf.Collector
	Limiter   *middleware.RateLimiter
	Options   Options
}

// Options configures cookies, CSRF and readiness.
type Options struct {
	CSRFKey        []byte
	Secure         bool
	TrustedOrigins []string
	CookieMaxAge   time.Duration
	SlowRequestMs  int
	StaticDir      string // empty serves the embedded assets
	// Ready reports whether the client storage backend answers. Nil means always ready.
	Ready func(ctx context.Context) error
}

// app is set by NewMux.
var app Deps

// NewMux wires HTTP handlers for the app.
// PRE: deps.Sessions, deps.API and deps.Validator are set; Options.CSRFKey is 32 bytes
func NewMux(deps Deps) http.Handler {
	app = deps
	if app.Limiter == nil {
		app.Limiter = middleware.NewRateLimiter(10, time.Second)
	}

	mux := http.NewServeMux()
	mux.Handle("/static/", staticHandler(deps.Options.StaticDir))
	registerRoutes(mux)

	// Apply middleware: Timing -> RateLimit -> LimitBody -> ClientID -> CSRF -> SingleSubmit -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.SingleSubmit(middleware.NewInFlight()),
		middleware.CSRF(deps.Options.CSRFKey, middleware.CSRFOptions{
			Secure:         deps.Options.Secure,
			TrustedOrigins: deps.Options.TrustedOrigins,
		}),
		middleware.ClientID(middleware.CookieOptions{
			Secure: deps.Options.Secure,
			MaxAge: int(deps.Options.CookieMaxAge.Seconds()),
		}),
		middleware.LimitBody(maxRequestBody),
		middleware.RateLimit(app.Limiter),
		middleware.Timing(deps.Collector, deps.Options.SlowRequestMs),
	)
}

// registerRoutes mounts every page. Pages of the authenticated area run behind Guard.
func registerRoutes(mux *http.ServeMux) {
	guard := middleware.Guard(app.Sessions)
	protected := func(h http.HandlerFunc) http.Handler { return guard(h) }

	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/forgot-password", handleForgotPassword)
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/{$}", handleRoot)

	mux.Handle("/dashboard", protected(handleDashboard))
	mux.Handle("/profile", protected(handleProfile))
	mux.Handle("/enseignant/grades", protected(handleGrades))
	mux.Handle("/emploi-du-temps", protected(handleSection))
	mux.Handle("/admin/", protected(handleSection))
	mux.Handle("/debug/perf", guard(middleware.RequireRole(account.RoleAdmin)(http.HandlerFunc(handlePerf))))
}

func staticHandler(dir string) http.Handler {
	if dir != "" {
		return http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	}
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

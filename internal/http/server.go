// Package http is the JSON API surface the Loop Ledger SPA talks to.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"loopledger/internal/auth"
	"loopledger/internal/backup"
	"loopledger/internal/cache"
	"loopledger/internal/core"
	"loopledger/internal/geocode"
	"loopledger/internal/log"
	"loopledger/internal/notify"
	"loopledger/internal/services"
)

// AuthClient is the slice of the auth service the server uses.
// *auth.Client satisfies it; tests substitute fakes.
type AuthClient interface {
	Enabled() bool
	SignInWithPassword(ctx context.Context, email, password string) (auth.Session, error)
	SignUp(ctx context.Context, email, password, redirectTo string) (auth.User, error)
	SignInWithOTP(ctx context.Context, email string) error
	UserFromToken(ctx context.Context, token string) (auth.User, error)
	SignOut(ctx context.Context, token string) error
}

// PlacesClient is the slice of the geocoding service the server uses.
type PlacesClient interface {
	Enabled() bool
	Search(ctx context.Context, query string) ([]geocode.Place, error)
}

// Deps carries everything the server serves from.
type Deps struct {
	Loops    *services.LoopService
	Expenses *services.ExpenseService
	Income   *services.IncomeService
	Settings *services.SettingsService
	Backup   *backup.Engine
	Auth     AuthClient
	Places   PlacesClient
	Hub      *notify.Hub
	Logger   *log.Logger

	AuthRedirectTo  string
	SummaryCacheTTL time.Duration
	SessionCacheTTL time.Duration
}

type Server struct {
	http.Server
	deps        Deps
	rateLimiter *rateLimiter

	summaryCache *cache.LRU[Summary]
	sessionCache *cache.LRU[auth.User]

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.SummaryCacheTTL <= 0 {
		deps.SummaryCacheTTL = 5 * time.Minute
	}
	if deps.SessionCacheTTL <= 0 {
		deps.SessionCacheTTL = 5 * time.Minute
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	mux := http.NewServeMux()
	handler := log.Middleware(deps.Logger)(mux)
	s := &Server{
		Server:       http.Server{Addr: addr, Handler: handler},
		deps:         deps,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRU[Summary](24, deps.SummaryCacheTTL),
		sessionCache: cache.NewLRU[auth.User](64, deps.SessionCacheTTL),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/loops", s.withCommon(s.withAuth(s.handleLoops)))
	mux.HandleFunc("/api/loops/", s.withCommon(s.withAuth(s.handleLoopItem)))
	mux.HandleFunc("/api/expenses", s.withCommon(s.withAuth(s.handleExpenses)))
	mux.HandleFunc("/api/expenses/", s.withCommon(s.withAuth(s.handleExpenseItem)))
	mux.HandleFunc("/api/income", s.withCommon(s.withAuth(s.handleIncome)))
	mux.HandleFunc("/api/income/", s.withCommon(s.withAuth(s.handleIncomeItem)))
	mux.HandleFunc("/api/settings", s.withCommon(s.withAuth(s.handleSettings)))
	mux.HandleFunc("/api/summary", s.withCommon(s.withAuth(s.handleSummary)))
	mux.HandleFunc("/api/backup/export", s.withCommon(s.withAuth(s.handleBackupExport)))
	mux.HandleFunc("/api/backup/import", s.withCommon(s.withAuth(s.handleBackupImport)))
	mux.HandleFunc("/api/backup/reset", s.withCommon(s.withAuth(s.handleBackupReset)))
	mux.HandleFunc("/api/places/search", s.withCommon(s.withAuth(s.handlePlacesSearch)))
	mux.HandleFunc("/api/events", s.withCommon(s.withAuth(s.handleEvents)))

	mux.HandleFunc("/api/auth/signin", s.withCommon(s.handleSignIn))
	mux.HandleFunc("/api/auth/signup", s.withCommon(s.handleSignUp))
	mux.HandleFunc("/api/auth/otp", s.withCommon(s.handleOTP))
	mux.HandleFunc("/api/auth/signout", s.withCommon(s.handleSignOut))

	return s
}

// withCommon adds request tracing, logging, security headers, and rate
// limiting on mutating methods.
func (s *Server) withCommon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)
		logger := log.FromContext(ctx).With(log.FieldRequestID, requestID)

		logger.InfoContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// invalidateSummaries drops cached month summaries after any write so
// the next summary read recomputes from the store.
func (s *Server) invalidateSummaries() {
	s.summaryCache.Purge()
}

func (s *Server) summaryKey(now time.Time) string {
	return strconv.Itoa(now.Year()) + "-" + strconv.Itoa(int(now.Month()))
}

// Summary is the month-to-date rollup the SPA's home screen shows.
type Summary struct {
	Month     string  `json:"month"`
	LoopCount int     `json:"loopCount"`
	Cash      float64 `json:"cash"`
	Expenses  float64 `json:"expenses"`
	Income    float64 `json:"income"`
	Net       float64 `json:"net"`
}

func (s *Server) computeSummary(ctx context.Context, now time.Time) Summary {
	loops := core.MonthToDate(s.deps.Loops.List(ctx), now)
	expenses := core.MonthToDate(s.deps.Expenses.List(ctx), now)
	income := core.MonthToDate(s.deps.Income.List(ctx), now)

	cash := core.Round2(core.Sum(loops))
	spent := core.Round2(core.Sum(expenses))
	earned := core.Round2(core.Sum(income))
	return Summary{
		Month:     now.Format("2006-01"),
		LoopCount: len(loops),
		Cash:      cash,
		Expenses:  spent,
		Income:    earned,
		Net:       core.Round2(cash + earned - spent),
	}
}

// Shutdown stops the rate limiter's cleanup goroutine along with the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

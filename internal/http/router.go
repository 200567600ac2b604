// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, admin auth and rate
// limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/templeledger/donations-backend/docs"
	"github.com/templeledger/donations-backend/internal/config"
	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/http/handlers"
	"github.com/templeledger/donations-backend/internal/http/middleware"
	"github.com/templeledger/donations-backend/internal/importer"
	"github.com/templeledger/donations-backend/internal/repo"
	"github.com/templeledger/donations-backend/internal/services"
)

// donationRepoShim adapts the repository free functions to the
// services.DonationRepository and services.IdempotencyRepository interfaces.
// This keeps services decoupled from the concrete repo package while reusing
// existing functions.
type donationRepoShim struct{}

// CreateDonation proxies repo.CreateDonation.
func (donationRepoShim) CreateDonation(ctx context.Context, db *gorm.DB, in domain.DonationInput) (*domain.Donation, error) {
	return repo.CreateDonation(ctx, db, in)
}

// GetDonation proxies repo.GetDonation.
func (donationRepoShim) GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	return repo.GetDonation(ctx, db, id)
}

// ListDonations proxies repo.ListDonations.
func (donationRepoShim) ListDonations(ctx context.Context, db *gorm.DB, scopes ...repo.Scope) ([]domain.Donation, error) {
	return repo.ListDonations(ctx, db, scopes...)
}

// CountDonations proxies repo.CountDonations (pagination support).
func (donationRepoShim) CountDonations(ctx context.Context, db *gorm.DB, scopes ...repo.Scope) (int64, error) {
	return repo.CountDonations(ctx, db, scopes...)
}

// ListDonationsPage proxies repo.ListDonationsPage (pagination support).
func (donationRepoShim) ListDonationsPage(ctx context.Context, db *gorm.DB, offset, limit int, scopes ...repo.Scope) ([]domain.Donation, error) {
	return repo.ListDonationsPage(ctx, db, offset, limit, scopes...)
}

// ListDonationsByPhone proxies repo.ListDonationsByPhone.
func (donationRepoShim) ListDonationsByPhone(ctx context.Context, db *gorm.DB, phone string) ([]domain.Donation, error) {
	return repo.ListDonationsByPhone(ctx, db, phone)
}

// ListDonationsForSearch proxies repo.ListDonationsForSearch.
func (donationRepoShim) ListDonationsForSearch(ctx context.Context, db *gorm.DB, community string) ([]domain.Donation, error) {
	return repo.ListDonationsForSearch(ctx, db, community)
}

// UpdateDonation proxies repo.UpdateDonation.
func (donationRepoShim) UpdateDonation(ctx context.Context, db *gorm.DB, id string, in domain.DonationInput) (*domain.Donation, error) {
	return repo.UpdateDonation(ctx, db, id, in)
}

// DeleteDonation proxies repo.DeleteDonation.
func (donationRepoShim) DeleteDonation(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.DeleteDonation(ctx, db, id)
}

// ReceiptExists proxies repo.ReceiptExists.
func (donationRepoShim) ReceiptExists(ctx context.Context, db *gorm.DB, receiptNo, excludeID string) (bool, error) {
	return repo.ReceiptExists(ctx, db, receiptNo, excludeID)
}

// ListReceiptNumbers proxies repo.ListReceiptNumbers.
func (donationRepoShim) ListReceiptNumbers(ctx context.Context, db *gorm.DB) ([]string, error) {
	return repo.ListReceiptNumbers(ctx, db)
}

// DonationsStats proxies repo.DonationsStats (ETag support).
func (donationRepoShim) DonationsStats(ctx context.Context, db *gorm.DB, scopes ...repo.Scope) (int64, *time.Time, error) {
	return repo.DonationsStats(ctx, db, scopes...)
}

// GetIdempotency proxies repo.GetIdempotency.
func (donationRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, scope, key, now)
}

// CreateIdempotency proxies repo.CreateIdempotency.
func (donationRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key, donationID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, scope, key, donationID, status, ttl)
}

// multipartSlack is the allowance for multipart framing on top of the
// import file itself.
const multipartSlack = 64 << 10

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency,
// compression, CORS and security headers, health and metrics endpoints, and
// then mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII (phone) scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (larger cap for the import upload)
//  6. Metrics
//  7. Idempotency validator (before rate limiters to allow bypass on replay)
//  8. Gzip, CORS and Security headers
//
// Rate limiting is applied per route group: anonymous routes are bucketed by
// client IP, admin routes by identity after AdminAuth.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	createPath := joinPath(apiBase, "/donations")
	importPath := joinPath(apiBase, "/donations/import")
	importMax := cfg.Import.MaxBytes
	if importMax <= 0 {
		importMax = 5 << 20
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Form-Secret",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB), raised for imports
	r.Use(limitBody(1<<20, map[string]int64{
		importPath: importMax + multipartSlack,
	}))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation; only POST {base}/donations is looked up
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			ScopeFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.FullPath() == createPath {
					return domain.IdempotencyScopeCreateDonation
				}
				return ""
			},
		},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Compression (CSV exports and long lists compress well)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag", "Idempotency-Replayed"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:        cfg.Security.EnableHSTS,
		HSTSMaxAge:        cfg.Security.HSTSMaxAge,
		EnablePolicy:      true,
		CSPExemptPrefixes: []string{"/swagger"},
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	shim := donationRepoShim{}
	retry := services.DefaultRetryPolicy()
	if cfg.DB.RetryMax > 0 {
		retry.MaxTries = cfg.DB.RetryMax
	}
	if cfg.DB.RetryInitial > 0 {
		retry.Initial = cfg.DB.RetryInitial
	}
	loc := cfg.TimeZone
	if loc == nil {
		loc = time.UTC
	}

	donationSvc := services.NewDonationService(db, shim)
	donationSvc.Idem = shim
	donationSvc.Retry = retry
	donationSvc.Location = loc
	if cfg.IdempotencyTTL > 0 {
		donationSvc.IdempotencyTTL = cfg.IdempotencyTTL
	}

	donorSvc := services.NewDonorService(db, shim)
	donorSvc.Retry = retry

	dashboardSvc := services.NewDashboardService(db, shim)
	dashboardSvc.Retry = retry
	dashboardSvc.Location = loc
	if cfg.RecentDonations > 0 {
		dashboardSvc.Recent = cfg.RecentDonations
	}

	imp := importer.New(donationSvc, cfg.Import.MaxErrors)
	h := handlers.New(donationSvc, donorSvc, dashboardSvc, imp, handlers.Options{
		ImportMaxBytes: importMax,
		Location:       loc,
	})

	api := groupWithPrefix(r, apiBase)

	// Public intake and lookups
	public := api.Group("")
	public.Use(middleware.NewRateLimiter("public", cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP()).Handler())
	{
		public.POST("/donations", h.CreateDonation)
		public.GET("/donations", h.ListDonations)
		public.GET("/donations/check-receipt/:receiptNo", h.CheckReceipt)
		public.GET("/donations/next-receipt", h.NextReceipt)
		public.GET("/donations/:id", h.GetDonation)

		public.GET("/donors/search", h.SearchDonors)
		public.GET("/donors/:phone", h.GetDonor)

		public.POST("/webhooks/google-form", h.GoogleFormWebhook)
	}

	// Admin (bearer token); responses are never cached
	admin := api.Group("")
	admin.Use(
		middleware.AdminAuth(cfg.AdminToken),
		middleware.NewRateLimiter("admin", cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler(),
		middleware.NoStore(),
	)
	{
		admin.PUT("/donations/:id", h.UpdateDonation)
		admin.DELETE("/donations/:id", h.DeleteDonation)
		admin.GET("/donations/export", h.ExportDonations)
		admin.POST("/donations/import", h.ImportDonations)
		admin.GET("/dashboard/stats", h.DashboardStats)
	}
}

// limitBody returns a Gin middleware that caps the request body size to
// maxBytes using http.MaxBytesReader. Routes listed in overrides (by full
// route path) get their own cap. Requests exceeding the cap will cause
// downstream body reads to error.
func limitBody(maxBytes int64, overrides map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if n, ok := overrides[c.FullPath()]; ok && n > 0 {
			limit = n
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath joins a base path and a route, treating "/" (or empty) as root.
func joinPath(base, route string) string {
	if base == "" || base == "/" {
		return route
	}
	return strings.TrimRight(base, "/") + route
}

// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and the two rate-limiting tiers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/prepnest/go-exam-backend/internal/apperr"
	"github.com/prepnest/go-exam-backend/internal/auth"
	"github.com/prepnest/go-exam-backend/internal/config"
	"github.com/prepnest/go-exam-backend/internal/domain"
	"github.com/prepnest/go-exam-backend/internal/http/handlers"
	"github.com/prepnest/go-exam-backend/internal/http/middleware"
	"github.com/prepnest/go-exam-backend/internal/http/pipeline"
	"github.com/prepnest/go-exam-backend/internal/ratelimit"
	"github.com/prepnest/go-exam-backend/internal/repo"
	"github.com/prepnest/go-exam-backend/internal/services"
	"github.com/prepnest/go-exam-backend/internal/validate"
)

// courseRepoShim adapts the repository free functions to the
// services.CourseRepo interface expected by the CourseService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type courseRepoShim struct{}

func (courseRepoShim) CreateCourse(ctx context.Context, db *gorm.DB, c *domain.Course) error {
	return repo.CreateCourse(ctx, db, c)
}

func (courseRepoShim) GetCourse(ctx context.Context, db *gorm.DB, id string) (*domain.Course, error) {
	return repo.GetCourse(ctx, db, id)
}

func (courseRepoShim) GetCourseBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Course, error) {
	return repo.GetCourseBySlug(ctx, db, slug)
}

func (courseRepoShim) CountCourses(ctx context.Context, db *gorm.DB, publishedOnly bool) (int64, error) {
	return repo.CountCourses(ctx, db, publishedOnly)
}

func (courseRepoShim) ListCoursesPage(ctx context.Context, db *gorm.DB, publishedOnly bool, orderBy string, offset, limit int) ([]domain.Course, error) {
	return repo.ListCoursesPage(ctx, db, publishedOnly, orderBy, offset, limit)
}

func (courseRepoShim) UpdateCourse(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	return repo.UpdateCourse(ctx, db, id, updates)
}

func (courseRepoShim) DeleteCourse(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteCourse(ctx, db, id)
}

// enrollmentRepoShim adapts repo free functions to services.EnrollmentRepo.
type enrollmentRepoShim struct{}

func (enrollmentRepoShim) CreateEnrollment(ctx context.Context, db *gorm.DB, e *domain.Enrollment) error {
	return repo.CreateEnrollment(ctx, db, e)
}

func (enrollmentRepoShim) GetEnrollment(ctx context.Context, db *gorm.DB, userID, courseID string) (*domain.Enrollment, error) {
	return repo.GetEnrollment(ctx, db, userID, courseID)
}

func (enrollmentRepoShim) CountEnrollments(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountEnrollments(ctx, db, userID)
}

func (enrollmentRepoShim) ListEnrollmentsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Enrollment, error) {
	return repo.ListEnrollmentsPage(ctx, db, userID, offset, limit)
}

func (enrollmentRepoShim) UpdateEnrollmentStatus(ctx context.Context, db *gorm.DB, id, userID string, status domain.EnrollmentStatus) error {
	return repo.UpdateEnrollmentStatus(ctx, db, id, userID, status)
}

// seriesRepoShim adapts repo free functions to services.TestSeriesRepo.
type seriesRepoShim struct{}

func (seriesRepoShim) CreateTestSeries(ctx context.Context, db *gorm.DB, ts *domain.TestSeries) error {
	return repo.CreateTestSeries(ctx, db, ts)
}

func (seriesRepoShim) GetTestSeries(ctx context.Context, db *gorm.DB, id string) (*domain.TestSeries, error) {
	return repo.GetTestSeries(ctx, db, id)
}

func (seriesRepoShim) ListTestSeriesByCourse(ctx context.Context, db *gorm.DB, courseID string) ([]domain.TestSeries, error) {
	return repo.ListTestSeriesByCourse(ctx, db, courseID)
}

func (seriesRepoShim) UpdateTestSeries(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	return repo.UpdateTestSeries(ctx, db, id, updates)
}

func (seriesRepoShim) DeleteTestSeries(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteTestSeries(ctx, db, id)
}

// userRepoShim adapts repo free functions to services.UserRepo.
type userRepoShim struct{}

func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (userRepoShim) CountUsers(ctx context.Context, db *gorm.DB, role domain.Role) (int64, error) {
	return repo.CountUsers(ctx, db, role)
}

func (userRepoShim) ListUsersPage(ctx context.Context, db *gorm.DB, role domain.Role, orderBy string, offset, limit int) ([]domain.User, error) {
	return repo.ListUsersPage(ctx, db, role, orderBy, offset, limit)
}

func (userRepoShim) UpdateUserStatus(ctx context.Context, db *gorm.DB, id string, status domain.UserStatus) error {
	return repo.UpdateUserStatus(ctx, db, id, status)
}

func (userRepoShim) UpdateUserRole(ctx context.Context, db *gorm.DB, id string, role domain.Role) error {
	return repo.UpdateUserRole(ctx, db, id, role)
}

// userStoreShim exposes the user table to the auth resolver. The resolver
// contract wants (nil, nil) for unknown users, not an error.
type userStoreShim struct{ db *gorm.DB }

func (s userStoreShim) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.db, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), the edge rate
// limiter, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter, gzip
//  6. Metrics
//  7. Edge token-bucket rate limiter (per user/IP)
//  8. CORS and Security headers
//
// Per-route quotas, validation, authentication, and authorization run inside
// the request pipeline, not as global middleware.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"Authorization",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Edge token-bucket rate limiter per user/IP. Per-route quotas are
	// enforced again inside the pipeline; a request must pass both tiers.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks share the error envelope shape.
	r.NoRoute(func(c *gin.Context) {
		status, body := (apperr.Translator{}).Translate(apperr.NotFound("route not found"))
		c.JSON(status, body)
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, apperr.Response{
			Error: apperr.ErrorBody{
				Code:       "method_not_allowed",
				Message:    "method not allowed",
				StatusCode: http.StatusMethodNotAllowed,
			},
		})
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	courseSvc := services.NewCourseService(db, courseRepoShim{})
	seriesSvc := services.NewTestSeriesService(db, seriesRepoShim{}, courseRepoShim{})
	enrollSvc := services.NewEnrollmentService(db, enrollmentRepoShim{}, courseRepoShim{})
	userSvc := services.NewUserService(db, userRepoShim{})

	courseH := handlers.NewCourseHandlers(courseSvc, seriesSvc)
	enrollH := handlers.NewEnrollmentHandlers(enrollSvc)
	userH := handlers.NewUserHandlers(userSvc)

	// Request pipeline: per-route quotas count in a sliding window keyed by
	// (client, route); the store is Redis-backed when configured so quotas
	// hold across replicas.
	var store ratelimit.Store
	if cfg.RedisAddr != "" {
		store = ratelimit.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		store = ratelimit.NewMemoryStore()
	}
	sessions := auth.NewJWTSessions([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer)
	composer := &pipeline.Composer{
		Resolver:   auth.NewResolver(sessions, userStoreShim{db: db}),
		Limiter:    ratelimit.New(store),
		Translator: apperr.Translator{ExposeInternal: cfg.ExposeInternalErrors},
	}

	quota := &pipeline.RateLimit{Quota: cfg.RouteQuota, Window: cfg.RouteWindow}
	idParams := pipeline.Validation{Params: validate.Form[handlers.CourseIDParams]()}

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Courses
		api.GET("/courses", composer.Compose(pipeline.RouteConfig{
			RateLimit: quota,
		}, courseH.List))
		api.GET("/courses/:id", composer.Compose(pipeline.RouteConfig{
			RateLimit:  quota,
			Validation: idParams,
		}, courseH.Get))
		api.POST("/courses", composer.Compose(pipeline.RouteConfig{
			RequiredRole:        domain.RoleInstructor,
			RequiredPermissions: []string{"course:create"},
			RateLimit:           quota,
			Validation:          pipeline.Validation{Body: validate.JSON[handlers.CourseRequest]()},
		}, courseH.Create))
		api.PUT("/courses/:id", composer.Compose(pipeline.RouteConfig{
			RequiredRole:        domain.RoleInstructor,
			RequiredPermissions: []string{"course:update"},
			RateLimit:           quota,
			Validation: pipeline.Validation{
				Params: validate.Form[handlers.CourseIDParams](),
				Body:   validate.JSON[handlers.CourseRequest](),
			},
		}, courseH.Update))
		api.DELETE("/courses/:id", composer.Compose(pipeline.RouteConfig{
			RequiredRole:        domain.RoleAdmin,
			RequiredPermissions: []string{"course:delete"},
			RateLimit:           quota,
			Validation:          idParams,
		}, courseH.Delete))

		// Test series
		api.GET("/courses/:id/series", composer.Compose(pipeline.RouteConfig{
			RateLimit:  quota,
			Validation: idParams,
		}, courseH.ListSeries))
		api.POST("/courses/:id/series", composer.Compose(pipeline.RouteConfig{
			RequiredRole:        domain.RoleInstructor,
			RequiredPermissions: []string{"testseries:create"},
			RateLimit:           quota,
			Validation: pipeline.Validation{
				Params: validate.Form[handlers.CourseIDParams](),
				Body:   validate.JSON[handlers.SeriesRequest](),
			},
		}, courseH.CreateSeries))

		// Enrollments
		api.POST("/enrollments", composer.Compose(pipeline.RouteConfig{
			RequiredPermissions: []string{"enrollment:create"},
			RateLimit:           quota,
			Validation:          pipeline.Validation{Body: validate.JSON[handlers.EnrollRequest]()},
		}, enrollH.Enroll))
		api.GET("/enrollments", composer.Compose(pipeline.RouteConfig{
			RequireAuth: true,
			RateLimit:   quota,
		}, enrollH.ListMine))
		api.DELETE("/enrollments/:id", composer.Compose(pipeline.RouteConfig{
			RequireAuth: true,
			RateLimit:   quota,
			Validation:  pipeline.Validation{Params: validate.Form[handlers.EnrollmentIDParams]()},
		}, enrollH.Cancel))

		// Users
		api.GET("/me", composer.Compose(pipeline.RouteConfig{
			RequireAuth: true,
			RateLimit:   quota,
		}, userH.Me))
		api.GET("/users", composer.Compose(pipeline.RouteConfig{
			RequiredPermissions: []string{"user:list"},
			RateLimit:           quota,
			Validation:          pipeline.Validation{Query: validate.Form[handlers.ListUsersQuery]()},
		}, userH.List))
		api.PUT("/users/:id/role", composer.Compose(pipeline.RouteConfig{
			RequiredPermissions: []string{"role:assign"},
			RateLimit:           quota,
			Validation: pipeline.Validation{
				Params: validate.Form[handlers.UserIDParams](),
				Body:   validate.JSON[handlers.SetRoleRequest](),
			},
		}, userH.SetRole))
		api.PUT("/users/:id/status", composer.Compose(pipeline.RouteConfig{
			RequiredPermissions: []string{"user:update"},
			RateLimit:           quota,
			Validation: pipeline.Validation{
				Params: validate.Form[handlers.UserIDParams](),
				Body:   validate.JSON[handlers.SetStatusRequest](),
			},
		}, userH.SetStatus))
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
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

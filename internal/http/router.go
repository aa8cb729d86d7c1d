package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/gatekeeper/internal/auth"
	"github.com/geocoder89/gatekeeper/internal/cache"
	"github.com/geocoder89/gatekeeper/internal/config"
	"github.com/geocoder89/gatekeeper/internal/domain/directory"
	"github.com/geocoder89/gatekeeper/internal/domain/user"
	"github.com/geocoder89/gatekeeper/internal/http/handlers"
	"github.com/geocoder89/gatekeeper/internal/http/middlewares"
	"github.com/geocoder89/gatekeeper/internal/observability"
	"github.com/geocoder89/gatekeeper/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Log  *slog.Logger
	Cfg  config.Config
	Prom *observability.Prom
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer

	Tokens    auth.TokenService
	Cookies   auth.CookieJar
	Hasher    security.Hasher
	Users     handlers.UserStore
	Directory handlers.DirectoryStore

	// RateCounter is shared across instances when set (redis); nil keeps
	// counts in process.
	RateCounter middlewares.WindowCounter

	Ping func(ctx context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" && d.Cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}

	r := gin.New()

	// middleware
	r.Use(handlers.Recovery())
	r.Use(middlewares.RequestID())
	if d.Cfg.OTelEndpoint != "" {
		r.Use(otelgin.Middleware(d.Cfg.ServiceName))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(middlewares.DefaultMaxBodyBytes))

	guard := middlewares.NewRouteGuard(middlewares.GuardConfig{}, d.Tokens, d.Cookies, d.Prom)
	r.Use(guard.Middleware())

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// pages
	r.GET("/", handlers.LandingPage)
	r.GET("/login", handlers.LoginPage)
	r.GET("/signup", handlers.SignUpPage)
	r.GET("/home", handlers.HomePage)
	r.GET("/home/:id", handlers.ProfilePage)
	r.GET("/home/:id/contact", handlers.ContactPage)

	// api
	authHandler := handlers.NewAuthHandler(d.Users, d.Hasher, d.Tokens, d.Cookies, d.Prom, d.Log)
	usersHandler := handlers.NewUsersHandler(d.Directory, cache.New[[]directory.Entry](30*time.Second))
	authMW := middlewares.NewAuthMiddleware(d.Tokens, d.Cookies)

	limit, window := d.Cfg.LoginRateLimit, d.Cfg.LoginRateWindow
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	limiter := middlewares.NewRateLimiter(limit, window, d.RateCounter, d.Prom)
	byIP := limiter.RateLimiterMiddleware(middlewares.KeyByIP)

	// auth routes take whatever body they are given: BindJSON answers 400
	// for bad input and logout never reads one
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", byIP, authHandler.Login)
		authGroup.POST("/signup", byIP, authHandler.SignUp)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", authHandler.Me)
	}

	users := r.Group("/users", middlewares.RequireJSON(), authMW.RequireSession())
	{
		users.GET("", usersHandler.ListUsers)
		users.POST("", authMW.RequireRole(user.RoleAdmin), usersHandler.CreateUser)
	}

	return r
}

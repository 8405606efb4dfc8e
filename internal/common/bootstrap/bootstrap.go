package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	authhttp "github.com/AlibekovAA/community-board/internal/auth/http"
	"github.com/AlibekovAA/community-board/internal/auth/service"
	"github.com/AlibekovAA/community-board/internal/common/config"
	"github.com/AlibekovAA/community-board/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/community-board/internal/common/crypto"
	"github.com/AlibekovAA/community-board/internal/common/db"
	commonhttp "github.com/AlibekovAA/community-board/internal/common/http"
	"github.com/AlibekovAA/community-board/internal/common/logger"
	"github.com/AlibekovAA/community-board/internal/common/ratelimit"
	srv "github.com/AlibekovAA/community-board/internal/common/server"
	userrepo "github.com/AlibekovAA/community-board/internal/user/repository"
)

const statusMessage = "Community board API is running"

// Store is the database handle as the rest of the app sees it.
type Store interface {
	Ready(ctx context.Context) error
	Close(ctx context.Context) error
}

type AuthApp struct {
	Log     *logger.Logger
	Config  config.AuthConfig
	Store   Store
	Repo    userrepo.Repository
	Service *service.AuthService
	Handler http.Handler

	shutdownHooks []srv.ShutdownHook
}

// NewAuthApp loads the environment and builds the app. A configuration
// error is fatal.
func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	log, err := initializeLogger("auth")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
		return nil, err
	}

	return BuildAuthApp(ctx, cfg, log)
}

// BuildAuthApp wires an app from an already loaded config. The database is
// not contacted until the first request that needs it.
func BuildAuthApp(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) (*AuthApp, error) {
	store, repo, err := initializeStore(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}

	app := &AuthApp{
		Log:    log,
		Config: cfg,
		Store:  store,
		Repo:   repo,
	}
	app.shutdownHooks = append(app.shutdownHooks, func(ctx context.Context) error {
		log.Infof("auth service: closing database handle")
		return store.Close(ctx)
	})

	app.Service = service.NewAuthService(
		service.AuthServiceDeps{
			Repo:        repo,
			Hasher:      commoncrypto.NewBcryptHasher(cfg.BcryptCost),
			IDGenerator: commoncrypto.NewUUIDGenerator(),
			Log:         log,
		},
		service.AuthServiceConfig{
			JWTSecret:               cfg.JWTSecret,
			AccessTokenTTL:          cfg.AccessTokenTTL,
			RefreshTokenTTL:         cfg.RefreshTokenTTL,
			CircuitBreakerThreshold: cfg.CircuitBreaker.Threshold,
			CircuitBreakerTimeout:   cfg.CircuitBreaker.Timeout,
			CircuitBreakerReset:     cfg.CircuitBreaker.Reset,
		},
	)

	limits, err := app.buildRateLimits()
	if err != nil {
		return nil, err
	}

	app.Handler = NewRouter(RouterDeps{
		Config: cfg,
		Log:    log,
		Auth:   app.Service,
		Store:  store,
		Limits: limits,
		Now:    time.Now,
	})

	return app, nil
}

func (a *AuthApp) ShutdownHooks() []srv.ShutdownHook {
	return a.shutdownHooks
}

// Run serves until SIGINT or SIGTERM.
func (a *AuthApp) Run() {
	server := srv.NewServer(srv.ConfigFor(a.Config.HTTPPort, a.Config.RequestTimeout), a.Handler)
	srv.StartWithGracefulShutdownAndHooks(server, a.Log, "auth", a.shutdownHooks)
}

func initializeStore(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (Store, userrepo.Repository, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		provider := db.NewMongoProvider(cfg, log)
		return provider, userrepo.NewMongoRepository(provider), nil
	case config.DriverPostgres:
		provider, err := db.NewPgProvider(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return provider, userrepo.NewPgRepository(provider), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// RateLimits holds the global limiter for the route prefix and the stricter
// per-path ones for credential endpoints.
type RateLimits struct {
	Global  ratelimit.Limiter
	Backend string
	Paths   []ratelimit.PathRule
}

func (a *AuthApp) buildRateLimits() (RateLimits, error) {
	cfg := a.Config
	limits := RateLimits{Backend: "memory"}

	if cfg.RateLimit.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(cfg.RateLimit.RedisURL)
		if err != nil {
			return RateLimits{}, config.ConfigurationError(err)
		}
		limits.Global = ratelimit.NewRedisLimiter(client, "rate_limit:global", cfg.RateLimit.Window, cfg.RateLimit.Max)
		limits.Backend = "redis"
		a.shutdownHooks = append(a.shutdownHooks, closeRedis(client))
	} else {
		global := ratelimit.NewWindowLimiter(cfg.RateLimit.Window, cfg.RateLimit.Max)
		limits.Global = global
		a.shutdownHooks = append(a.shutdownHooks, stopLimiter(global))
	}

	login := ratelimit.NewLocalLimiter(constants.RateLimitLoginRequestsPerSecond, constants.RateLimitLoginBurst)
	register := ratelimit.NewLocalLimiter(constants.RateLimitRegisterRequestsPerSecond, constants.RateLimitRegisterBurst)
	refresh := ratelimit.NewLocalLimiter(constants.RateLimitRefreshRequestsPerSecond, constants.RateLimitRefreshBurst)
	a.shutdownHooks = append(a.shutdownHooks, stopLimiter(login), stopLimiter(register), stopLimiter(refresh))

	prefix := cfg.RoutePrefix
	limits.Paths = []ratelimit.PathRule{
		{Path: prefix + "/auth/login", Name: "login", Limiter: login},
		{Path: prefix + "/auth/register", Name: "register", Limiter: register},
		{Path: prefix + "/auth/refresh", Name: "refresh", Limiter: refresh},
	}
	return limits, nil
}

func stopLimiter(l *ratelimit.LocalLimiter) srv.ShutdownHook {
	return func(context.Context) error {
		l.Stop()
		return nil
	}
}

func closeRedis(client *redis.Client) srv.ShutdownHook {
	return func(context.Context) error {
		return client.Close()
	}
}

type RouterDeps struct {
	Config config.AuthConfig
	Log    *logger.Logger
	Auth   *service.AuthService
	Store  Store
	Limits RateLimits
	Now    func() time.Time
}

// NewRouter assembles the public surface: status banner, health checks, metrics and
// the auth routes under the route prefix.
func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	status := commonhttp.StatusHandler(statusMessage, now)

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		commonhttp.WriteError(w, http.StatusNotFound, commonhttp.CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", commonhttp.HealthHandler())
	r.Get("/ready", commonhttp.ReadinessHandler(deps.Log, constants.DefaultDBPingTimeout+time.Second, map[string]commonhttp.ReadinessCheck{
		"database": deps.Store.Ready,
	}))
	r.Handle("/metrics", promhttp.Handler())

	authHandler := authhttp.NewHandler(authhttp.HandlerDeps{
		Auth:                 deps.Auth,
		Capabilities:         cfg.Capabilities,
		Log:                  deps.Log,
		ExposeInternalErrors: cfg.IsDevelopment(),
		RequestTimeout:       cfg.RequestTimeout,
	})

	mountAPI := func(r chi.Router) {
		if deps.Limits.Global != nil {
			r.Use(ratelimit.Middleware(deps.Limits.Global, "global", deps.Limits.Backend, deps.Log))
		}
		if len(deps.Limits.Paths) > 0 {
			r.Use(ratelimit.PathMiddleware(deps.Limits.Paths, "memory", deps.Log))
		}
		r.Get("/", status)
		r.Mount("/", authHandler)
	}

	if cfg.RoutePrefix == "" {
		r.Group(mountAPI)
	} else {
		r.Get("/", status)
		r.Route(cfg.RoutePrefix, mountAPI)
	}

	cors := commonhttp.CORSMiddleware(commonhttp.CORSOptions{
		AllowedOrigins:        cfg.CORS.AllowedOrigins,
		AllowedOriginPatterns: cfg.CORS.AllowedOriginPatterns,
		Strict:                cfg.CORS.Strict,
	}, deps.Log)
	if !cfg.CORS.Strict {
		deps.Log.Warn("CORS_STRICT=false: requests from origins outside the allow-list are reflected")
	}

	clientIP := commonhttp.ClientIPMiddleware(cfg.TrustedProxies)

	return commonhttp.BuildBaseHandler("auth", deps.Log, clientIP(cors(r)))
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
}

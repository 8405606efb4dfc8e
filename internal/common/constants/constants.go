package constants

import "time"

const (
	UsernameMinLength  = 3
	UsernameMaxLength  = 32
	PasswordMinLength  = 8
	PasswordMaxLength  = 72
	NameMaxLength      = 64
	EmailMaxLength     = 254
	JWTSecretMinLength = 32

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 2
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMetricsInterval = 30 * time.Second

	DefaultDBConnectAttempts   = 3
	DefaultDBConnectRetryDelay = time.Second
	DefaultDBConnectCooldown   = 5 * time.Second
	DefaultDBPingTimeout       = 2 * time.Second
	MongoServerSelectTimeout   = 5 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second
	ServerWriteGrace        = 5 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAuthHTTPPort = "5000"
	DefaultRoutePrefix  = "/api"
	DefaultClientURL    = "http://localhost:5173"
	DefaultMongoDBName  = "community_board"

	DefaultCircuitBreakerThreshold = 5
	DefaultCircuitBreakerTimeout   = 5 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout = 5 * time.Second
	DefaultAccessTokenTTL     = 24 * time.Hour
	DefaultRefreshTokenTTL    = 7 * 24 * time.Hour

	DefaultRateLimitWindow = 15 * time.Minute
	DefaultRateLimitMax    = 100

	RateLimitLoginRequestsPerSecond    = 0.2
	RateLimitLoginBurst                = 5
	RateLimitRegisterRequestsPerSecond = 0.05
	RateLimitRegisterBurst             = 3
	RateLimitRefreshRequestsPerSecond  = 1
	RateLimitRefreshBurst              = 10
	RateLimitCleanupInterval           = 5 * time.Minute

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28

	DefaultAPIBaseURL    = "http://localhost:5000/api"
	DefaultClientTimeout = 15 * time.Second
	ClientStateFile      = "session.db"
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"

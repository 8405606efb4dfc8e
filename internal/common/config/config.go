package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/community-board/internal/common/constants"
	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMongo    = "mongodb"
)

var (
	defaultAllowedOrigins = []string{
		"http://localhost:5173",
		"http://localhost:3000",
		"https://inside-live.vercel.app",
		"https://inside-live-frontend.vercel.app",
	}
	// Preview deployments of the web client.
	defaultAllowedOriginPatterns = []string{`https://inside-live.*\.vercel\.app`}
)

type DBConfig struct {
	URL             string
	Driver          string
	MongoDatabase   string
	ConnectAttempts int
	RetryDelay      time.Duration
	Cooldown        time.Duration
	AutoMigrate     bool
}

type CircuitBreakerConfig struct {
	Threshold int32
	Timeout   time.Duration
	Reset     time.Duration
}

type CORSConfig struct {
	AllowedOrigins        []string
	AllowedOriginPatterns []*regexp.Regexp
	Strict                bool
}

type RateLimitConfig struct {
	Window   time.Duration
	Max      int
	RedisURL string
}

type AuthConfig struct {
	HTTPPort        string
	RoutePrefix     string
	Environment     string
	Serverless      bool
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RequestTimeout  time.Duration
	BcryptCost      int
	DB              DBConfig
	CircuitBreaker  CircuitBreakerConfig
	CORS            CORSConfig
	RateLimit       RateLimitConfig
	Capabilities    Capabilities
	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the socket address is the client.
	TrustedProxies []netip.Prefix
}

func (c AuthConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// LoadDotEnv reads .env from the working directory. Serverless deployments
// receive their environment from the platform and skip the file.
func LoadDotEnv() error {
	if os.Getenv("VERCEL") == "1" {
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// LoadAuthConfig fails with a CONFIGURATION_ERROR domain error when the
// signing secret or the database URL is missing or malformed.
func LoadAuthConfig() (AuthConfig, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return AuthConfig{}, ConfigurationError(err)
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return AuthConfig{}, ConfigurationError(err)
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return AuthConfig{}, ConfigurationError(err)
	}

	driver, err := detectDriver(databaseURL)
	if err != nil {
		return AuthConfig{}, ConfigurationError(err)
	}

	cors, err := loadCORSConfig()
	if err != nil {
		return AuthConfig{}, ConfigurationError(err)
	}

	trustedProxies, err := parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return AuthConfig{}, ConfigurationError(err)
	}

	return AuthConfig{
		HTTPPort:        getEnv("AUTH_HTTP_PORT", getEnv("PORT", constants.DefaultAuthHTTPPort)),
		RoutePrefix:     normalizePrefix(getEnv("ROUTE_PREFIX", constants.DefaultRoutePrefix)),
		Environment:     getEnv("APP_ENV", EnvProduction),
		Serverless:      os.Getenv("VERCEL") == "1",
		JWTSecret:       jwtSecret,
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", constants.DefaultRefreshTokenTTL),
		RequestTimeout:  getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
		BcryptCost:      getIntEnv("BCRYPT_COST", 12),
		DB: DBConfig{
			URL:             databaseURL,
			Driver:          driver,
			MongoDatabase:   getEnv("MONGO_DATABASE", constants.DefaultMongoDBName),
			ConnectAttempts: getIntEnv("DB_CONNECT_ATTEMPTS", constants.DefaultDBConnectAttempts),
			RetryDelay:      getDurationEnv("DB_CONNECT_RETRY_DELAY", constants.DefaultDBConnectRetryDelay),
			Cooldown:        getDurationEnv("DB_CONNECT_COOLDOWN", constants.DefaultDBConnectCooldown),
			AutoMigrate:     getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		CircuitBreaker: CircuitBreakerConfig{
			Threshold: int32(getIntEnv("CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold)),
			Timeout:   getDurationEnv("CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
			Reset:     getDurationEnv("CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset),
		},
		CORS: cors,
		RateLimit: RateLimitConfig{
			Window:   getDurationEnv("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow),
			Max:      getIntEnv("RATE_LIMIT_MAX", constants.DefaultRateLimitMax),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Capabilities:   LoadCapabilities(),
		TrustedProxies: trustedProxies,
	}, nil
}

// ConfigurationError wraps cause as a CONFIGURATION_ERROR domain error.
func ConfigurationError(cause error) error {
	return commonerrors.ErrConfiguration.WithCause(cause)
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: got %d bytes", commonerrors.ErrInvalidJWTSecret, len(secret))
	}
	return nil
}

func detectDriver(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}

func loadCORSConfig() (CORSConfig, error) {
	origins := []string{getEnv("CLIENT_URL", constants.DefaultClientURL)}
	origins = append(origins, defaultAllowedOrigins...)
	origins = append(origins, splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))...)

	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && !slices.Contains(cleaned, o) {
			cleaned = append(cleaned, o)
		}
	}

	var patterns []*regexp.Regexp
	rawPatterns := append(slices.Clone(defaultAllowedOriginPatterns), splitList(os.Getenv("CORS_ALLOWED_ORIGIN_PATTERNS"))...)
	for _, raw := range rawPatterns {
		re, err := compileOriginPattern(raw)
		if err != nil {
			return CORSConfig{}, fmt.Errorf("invalid CORS origin pattern %q: %w", raw, err)
		}
		patterns = append(patterns, re)
	}

	return CORSConfig{
		AllowedOrigins:        cleaned,
		AllowedOriginPatterns: patterns,
		Strict:                getBoolEnv("CORS_STRICT", true),
	}, nil
}

// parseTrustedProxies accepts CIDRs and bare addresses.
func parseTrustedProxies(v string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range splitList(v) {
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// compileOriginPattern anchors raw so it must match the whole origin.
func compileOriginPattern(raw string) (*regexp.Regexp, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(raw, "^"), "$")
	return regexp.Compile("^(?:" + body + ")$")
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", commonerrors.ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

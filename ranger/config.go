package ranger

import (
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/logger"
	"github.com/xy-planning-network/acrsample/postgres"
)

const (
	// Base URL defaults
	BaseURLEnvVar  = "BASE_URL"
	DefaultBaseURL = "http://" + DefaultHost + DefaultPort

	// App metadata
	AppTitleEnvVar   = "APP_TITLE"
	defaultAppTitle  = "ACR Sample"
	ContactUsEnvVar  = "CONTACT_US_EMAIL"
	defaultContactUs = "hello@xyplanningnetwork.com"

	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// Log defaults
	logLevelEnvVar  = "LOG_LEVEL"
	sentryDsnEnvVar = "SENTRY_DSN"

	// Database defaults
	dbHostEnvVar         = "DATABASE_HOST"
	defaultDBHost        = "localhost"
	dbNameEnvVar         = "DATABASE_NAME"
	dbPassEnvVar         = "DATABASE_PASSWORD"
	dbPortEnvVar         = "DATABASE_PORT"
	defaultDBPort        = "5432"
	dbSSLModeEnvVar      = "DATABASE_SSLMODE"
	defaultDBSSLMode     = "prefer"
	dbURLEnvVar          = "DATABASE_URL"
	dbUserEnvVar         = "DATABASE_USER"
	dbMaxIdleCxnsEnvVar  = "DATABASE_MAX_IDLE_CXNS"
	defaultDBMaxIdleCxns = 1

	// Admin login throttle defaults
	loginFailuresEnvVar = "ADMIN_LOGIN_MAX_FAILURES"
	loginWindowEnvVar   = "ADMIN_LOGIN_WINDOW"

	// Redis defaults
	redisURLEnvVar  = "REDIS_URL"
	redisPassEnvVar = "REDIS_PASSWORD"

	// Web server defaults
	DefaultHost               = "localhost"
	DefaultPort               = ":8000"
	portEnvVar                = "PORT"
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 5 * time.Second

	// TrustedProxiesEnvVar lists the proxies, as IPs or CIDRs, whose X-Forwarded-For is believed.
	TrustedProxiesEnvVar = "TRUSTED_PROXIES"

	// Session defaults
	SessionAuthKeyEnvVar    = "SESSION_AUTH_KEY"
	SessionEncryptKeyEnvVar = "SESSION_ENCRYPTION_KEY"
	sessionMaxAge           = 3600 * 24 * 14

	// Test defaults
	dbTestHostEnvVar     = "DATABASE_TEST_HOST"
	defaultDBTestHost    = "localhost"
	dbTestNameEnvVar     = "DATABASE_TEST_NAME"
	dbTestPassEnvVar     = "DATABASE_TEST_PASSWORD"
	dbTestPortEnvVar     = "DATABASE_TEST_PORT"
	defaultDBTestPort    = "5432"
	dbTestUserEnvVar     = "DATABASE_TEST_USER"
	dbTestSSLModeEnvVar  = "DATABASE_TEST_SSLMODE"
	defaultDBTestSSLMode = "prefer"
)

// NewPostgresConfig constructs a *postgres.CxnConfig appropriate to the given environment.
// Confer the DATABASE env vars for usage.
func NewPostgresConfig(env acrsample.Environment) *postgres.CxnConfig {
	var cfg *postgres.CxnConfig
	url := os.Getenv(dbURLEnvVar)
	switch {
	case env.IsTesting():
		cfg = &postgres.CxnConfig{
			Host:     acrsample.EnvVarOrString(dbTestHostEnvVar, defaultDBTestHost),
			IsTestDB: true,
			Name:     os.Getenv(dbTestNameEnvVar),
			Password: os.Getenv(dbTestPassEnvVar),
			Port:     acrsample.EnvVarOrString(dbTestPortEnvVar, defaultDBTestPort),
			SSLMode:  acrsample.EnvVarOrString(dbTestSSLModeEnvVar, defaultDBTestSSLMode),
			User:     os.Getenv(dbTestUserEnvVar),
		}

	case url == "":
		cfg = &postgres.CxnConfig{
			Host:     acrsample.EnvVarOrString(dbHostEnvVar, defaultDBHost),
			IsTestDB: false,
			Name:     os.Getenv(dbNameEnvVar),
			Password: os.Getenv(dbPassEnvVar),
			Port:     acrsample.EnvVarOrString(dbPortEnvVar, defaultDBPort),
			SSLMode:  acrsample.EnvVarOrString(dbSSLModeEnvVar, defaultDBSSLMode),
			User:     os.Getenv(dbUserEnvVar),
		}

	default:
		cfg = &postgres.CxnConfig{IsTestDB: false, URL: url}
	}

	cfg.MaxIdleCxns = acrsample.EnvVarOrInt(dbMaxIdleCxnsEnvVar, defaultDBMaxIdleCxns)

	return cfg
}

// NewRedisOptions parses REDIS_URL into *redis.Options.
// REDIS_PASSWORD, when set, takes precedence over a password in the URL.
//
// If REDIS_URL is not set, NewRedisOptions returns nil and no error.
func NewRedisOptions() (*redis.Options, error) {
	raw := os.Getenv(redisURLEnvVar)
	if raw == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", acrsample.ErrBadConfig, redisURLEnvVar, err)
	}

	if pass := os.Getenv(redisPassEnvVar); pass != "" {
		opts.Password = pass
	}

	return opts, nil
}

// envVarOrLogLevel gets the environment variable from the provided key,
// parses it into a logger.LogLevel,
// or returns the provided default if the value is unknown.
func envVarOrLogLevel(key string, def logger.LogLevel) logger.LogLevel {
	ll := logger.NewLogLevel(os.Getenv(key))
	if ll == logger.LogLevelUnk {
		return def
	}

	return ll
}

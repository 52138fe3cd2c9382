package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DatabaseConfig holds PostgreSQL connection and pool settings.
// StatementTimeout is sent as a session parameter; zero leaves the server default.
type DatabaseConfig struct {
	Host             string        `env:"HOST"`
	Port             string        `env:"PORT" envDefault:"5432"`
	User             string        `env:"USER"`
	Password         string        `env:"PASSWORD"`
	Name             string        `env:"NAME"`
	SSLMode          string        `env:"SSLMODE" envDefault:"disable"`
	ApplicationName  string        `env:"APPLICATION_NAME" envDefault:"gatewayapi"`
	ConnectTimeout   time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
	StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT" envDefault:"0s"`
	MaxOpenConns     int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns     int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime  time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime  time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"1m"`
}

// MinIOConfig holds object storage settings for MinIO.
// File endpoints are disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
}

// Enabled reports whether object storage is configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	Issuer     string        `env:"ISSUER" envDefault:"gatewayapi"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
}

// CORSConfig describes the cross-origin policy applied to every route.
type CORSConfig struct {
	AllowOrigins     []string `env:"ALLOW_ORIGINS" envDefault:"http://localhost:3000"`
	AllowMethods     []string `env:"ALLOW_METHODS" envDefault:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string `env:"ALLOW_HEADERS" envDefault:"Authorization,Content-Type,X-Request-ID"`
	ExposeHeaders    []string `env:"EXPOSE_HEADERS" envDefault:"X-Request-ID"`
	AllowCredentials bool     `env:"ALLOW_CREDENTIALS" envDefault:"false"`
	MaxAgeSec        int      `env:"MAX_AGE" envDefault:"600"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	// AppHost is the public host:port advertised in the API docs when a request
	// carries no Host header.
	AppHost         string        `env:"APP_HOST" envDefault:"localhost:8080"`
	Port            string        `env:"PORT" envDefault:"8080"`
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"gatewayapi"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	BodyLimitMB     int           `env:"BODY_LIMIT_MB" envDefault:"32"`

	Database DatabaseConfig `envPrefix:"DB_"`
	MinIO    MinIOConfig    `envPrefix:"MINIO_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	CORS     CORSConfig     `envPrefix:"CORS_"`

	// Upstreams maps a service name to its base URL, e.g. "media=http://media:8081,album=http://album:8083".
	Upstreams       map[string]string `env:"UPSTREAM_SERVICES" envKeyValSeparator:"="`
	UpstreamTimeout time.Duration     `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	// UpstreamsFile optionally names a YAML file of upstreams. UPSTREAM_SERVICES entries win on conflict.
	UpstreamsFile string `env:"UPSTREAM_SERVICES_FILE"`
}

const minJWTSecretLen = 16

var upstreamNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Load reads configuration from environment variables and validates it.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() (*AppConfig, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from the given key/value set instead of the process environment.
func LoadFrom(environ map[string]string) (*AppConfig, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*AppConfig, error) {
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if cfg.UpstreamsFile != "" {
		fromFile, err := loadUpstreamFile(cfg.UpstreamsFile)
		if err != nil {
			return nil, err
		}
		if cfg.Upstreams, err = mergeUpstreams(fromFile, cfg.Upstreams); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if strings.TrimSpace(c.AppHost) == "" || strings.Contains(c.AppHost, "://") {
		errs = append(errs, errors.New("APP_HOST must be a bare host[:port]"))
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_TIMEOUT must be positive"))
	}
	if c.Database.StatementTimeout < 0 {
		errs = append(errs, errors.New("DB_STATEMENT_TIMEOUT must not be negative"))
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", minJWTSecretLen))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	if c.BodyLimitMB <= 0 {
		errs = append(errs, errors.New("BODY_LIMIT_MB must be positive"))
	}
	if c.CORS.AllowCredentials && c.CORS.AllowsAnyOrigin() {
		errs = append(errs, errors.New("CORS_ALLOW_CREDENTIALS cannot be combined with a wildcard origin"))
	}
	if c.MinIO.Enabled() && (c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "" || c.MinIO.Bucket == "") {
		errs = append(errs, errors.New("MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required when MINIO_ENDPOINT is set"))
	}
	for name, raw := range c.Upstreams {
		if !upstreamNamePattern.MatchString(name) {
			errs = append(errs, fmt.Errorf("upstream name %q must match %s", name, upstreamNamePattern))
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("upstream %q has invalid url %q", name, raw))
		}
	}

	return errors.Join(errs...)
}

// AllowsAnyOrigin reports whether the origin list contains the "*" wildcard.
func (c CORSConfig) AllowsAnyOrigin() bool {
	for _, o := range c.AllowOrigins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

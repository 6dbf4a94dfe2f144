// Package config loads coursemart settings from the environment. Every
// key has a development default; production refuses the defaults that
// would be unsafe to run with.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"coursemart/internal/storage"
)

const (
	defaultDBPassword      = "changeme"
	defaultFirebaseProject = "demo-coursemart"
)

// Config holds all application configuration values.
type Config struct {
	Host string
	Port string
	Env  string // development, production or testing

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	FirebaseProjectID string
	FirebaseAPIKey    string // Identity Toolkit key for password reset emails
	FirebaseIssuerURL string // auth emulator override; empty uses Google

	// Object storage is optional; see Storage.
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3BucketPublic  string
	S3BucketPrivate string
	S3PublicURL     string

	// AuthRateLimit is requests per minute per client on /auth.
	AuthRateLimit int
	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy bool
	// CatalogCacheTTL is how long public catalog responses are cached.
	CatalogCacheTTL time.Duration
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// env reads typed variables and collects every parse failure, so one
// startup reports all misconfigured keys at once.
type env struct {
	errs []error
}

func (e *env) text(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// integer reads an integer no smaller than minimum.
func (e *env) integer(key string, fallback, minimum int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minimum {
		e.errs = append(e.errs, fmt.Errorf("%s must be an integer >= %d, got %q", key, minimum, v))
		return fallback
	}
	return n
}

// port reads a TCP port in 1..65535 and keeps it in string form.
func (e *env) port(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 65535 {
		e.errs = append(e.errs, fmt.Errorf("%s must be a port between 1 and 65535, got %q", key, v))
		return fallback
	}
	return strconv.Itoa(n)
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.errs = append(e.errs, fmt.Errorf("%s must be a positive duration, got %q", key, v))
		return fallback
	}
	return d
}

func (e *env) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
		return fallback
	}
	return b
}

// Load reads the configuration. The returned error joins every invalid
// key.
func Load() (*Config, error) {
	e := &env{}
	cfg := &Config{
		Host: e.text("APP_HOST", "0.0.0.0"),
		Port: e.port("APP_PORT", "8080"),
		Env:  e.text("APP_ENV", "development"),

		DBHost:     e.text("POSTGRES_HOST", "localhost"),
		DBPort:     e.port("POSTGRES_PORT", "5432"),
		DBUser:     e.text("POSTGRES_USER", "coursemart"),
		DBPassword: e.text("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     e.text("POSTGRES_DB", "coursemart"),
		DBSSLMode:  e.text("POSTGRES_SSLMODE", "disable"),

		ValkeyHost:     e.text("VALKEY_HOST", "localhost"),
		ValkeyPort:     e.port("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyDB:       e.integer("VALKEY_DB", 0, 0),

		FirebaseProjectID: e.text("FIREBASE_PROJECT_ID", defaultFirebaseProject),
		FirebaseAPIKey:    os.Getenv("FIREBASE_API_KEY"),
		FirebaseIssuerURL: os.Getenv("FIREBASE_ISSUER_URL"),

		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        e.text("S3_REGION", "fsn1"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3BucketPublic:  e.text("S3_BUCKET_PUBLIC", "coursemart-public"),
		S3BucketPrivate: e.text("S3_BUCKET_PRIVATE", "coursemart-private"),
		S3PublicURL:     os.Getenv("S3_PUBLIC_URL"),

		AuthRateLimit:   e.integer("AUTH_RATE_LIMIT", 10, 1),
		TrustProxy:      e.boolean("TRUST_PROXY", false),
		CatalogCacheTTL: e.duration("CATALOG_CACHE_TTL", 5*time.Minute),
	}

	if cfg.IsProduction() {
		if cfg.DBPassword == defaultDBPassword {
			e.errs = append(e.errs, errors.New("POSTGRES_PASSWORD must be set in production"))
		}
		if cfg.FirebaseProjectID == defaultFirebaseProject {
			e.errs = append(e.errs, errors.New("FIREBASE_PROJECT_ID must be set in production"))
		}
	}

	if err := errors.Join(e.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DSN returns the PostgreSQL URL. Credentials are escaped.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ValkeyAddr returns the Valkey address.
func (c *Config) ValkeyAddr() string {
	return net.JoinHostPort(c.ValkeyHost, c.ValkeyPort)
}

// IsDev reports development mode, which seeds demo data.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction reports production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Storage returns the object storage settings.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Endpoint:      c.S3Endpoint,
		Region:        c.S3Region,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		PublicBucket:  c.S3BucketPublic,
		PrivateBucket: c.S3BucketPrivate,
		PublicURL:     c.S3PublicURL,
	}
}

package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string        `env:"PORT" env-default:"8080"`
	StorageDriver string        `env:"STORAGE_DRIVER" env-default:"postgres"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	SQLitePath    string        `env:"SQLITE_PATH" env-default:"data/lapse.db"`
	JWTSecret     string        `env:"JWT_SECRET"`
	JWTIssuer     string        `env:"JWT_ISSUER" env-default:"lapse-backend"`
	JWTTTLMinutes int           `env:"JWT_TTL_MINUTES" env-default:"1440"`
	JWTTTL        time.Duration `env:"-"`
	CORSOrigins   []string      `env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
	LogLevel      string        `env:"LOG_LEVEL" env-default:"INFO"`

	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" env-default:"5s"`
	AuthRatePerMinute int           `env:"AUTH_RATE_PER_MINUTE" env-default:"30"`
	AuthRateBurst     int           `env:"AUTH_RATE_BURST" env-default:"10"`
	// TrustedProxies lists peer IPs or CIDRs whose X-Forwarded-For is honored.
	TrustedProxies []string       `env:"TRUSTED_PROXIES" env-separator:","`
	ProxyPrefixes  []netip.Prefix `env:"-"`

	Admin AdminConfig
}

// AdminConfig seeds an administrator account at startup when Email is set.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME" env-default:"admin"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Enabled reports whether an admin account should be seeded.
func (a AdminConfig) Enabled() bool {
	return a.Email != ""
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	cfg.Port = strings.TrimSpace(cfg.Port)
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.JWTIssuer = strings.TrimSpace(cfg.JWTIssuer)
	cfg.CORSOrigins = normalizeOrigins(cfg.CORSOrigins)
	cfg.Admin.Email = strings.TrimSpace(cfg.Admin.Email)
	cfg.Admin.Username = strings.TrimSpace(cfg.Admin.Username)

	if cfg.JWTTTLMinutes > 0 {
		cfg.JWTTTL = time.Duration(cfg.JWTTTLMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 24 * time.Hour
	}
	prefixes, err := ParseProxies(cfg.TrustedProxies)
	if err != nil {
		return Config{}, err
	}
	cfg.ProxyPrefixes = prefixes

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return Config{}, errors.New("SQLITE_PATH is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Admin.Enabled() && cfg.Admin.Password == "" {
		return Config{}, errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// ParseProxies turns IPs and CIDRs into prefixes. A bare IP becomes a single-address prefix.
func ParseProxies(in []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range in {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func normalizeOrigins(in []string) []string {
	var out []string
	for _, part := range in {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

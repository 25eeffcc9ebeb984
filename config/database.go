package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"petalcart"`
	Password string `env:"PASSWORD"                envDefault:"petalcart"`
	Name     string `env:"NAME"                    envDefault:"petalcart"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	// URI is a redis:// or rediss:// URL, or a bare host:port.
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
}

// CacheConfig controls the Redis read-through cache in front of the catalogue.
type CacheConfig struct {
	// ProductTTL is how long a cached product stays fresh. Zero uses the service default.
	ProductTTL time.Duration `env:"CACHE_PRODUCT_TTL" envDefault:"30s"`
}

// Sanitize clamps negative durations.
func (c *CacheConfig) Sanitize() {
	if c.ProductTTL < 0 {
		c.ProductTTL = 0
	}
}

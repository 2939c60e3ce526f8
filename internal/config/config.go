// Package config holds the pool-wide settings for streamdb: the MySQL DSN,
// connection pool tuning, and the streaming-query backpressure thresholds.
package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// Config holds every setting needed to open and tune a streamdb Pool.
type Config struct {
	// DSN is the full go-sql-driver/mysql data source name.
	// Example: "user:pass@tcp(localhost:3306)/mydb?parseTime=true"
	DSN string `yaml:"dsn"`

	// Pool tuning, mirrored onto the underlying *sql.DB.
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`

	// HighWaterMark / LowWaterMark bound the streaming-query row buffer.
	// A pause is requested on the wire connection when the buffer reaches
	// HighWaterMark; resume is requested once it drains to LowWaterMark.
	HighWaterMark int `yaml:"high_water_mark"`
	LowWaterMark  int `yaml:"low_water_mark"`

	// MaxConcurrentQueries bounds the number of simultaneous wire
	// connections a Pool will lease out, via a weighted semaphore layered
	// on top of the underlying *sql.DB pool.
	MaxConcurrentQueries int64 `yaml:"max_concurrent_queries"`
}

// DefaultConfig returns production-ready settings for the given DSN.
func DefaultConfig(dsn string) *Config {
	return &Config{
		DSN:                  dsn,
		MaxOpenConns:         25,
		MaxIdleConns:         5,
		ConnMaxLifetime:      30 * time.Minute,
		ConnMaxIdleTime:      5 * time.Minute,
		ConnectTimeout:       10 * time.Second,
		HighWaterMark:        100,
		LowWaterMark:         75,
		MaxConcurrentQueries: 20,
	}
}

// Load reads a YAML config file and merges it onto DefaultConfig's zero DSN.
// Fields absent from the file keep the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports whether the config is usable to open a pool.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("config: dsn is required")
	}
	if c.HighWaterMark <= c.LowWaterMark {
		return fmt.Errorf("config: high_water_mark (%d) must exceed low_water_mark (%d)", c.HighWaterMark, c.LowWaterMark)
	}
	if c.LowWaterMark < 0 {
		return fmt.Errorf("config: low_water_mark must be non-negative")
	}
	if c.MaxConcurrentQueries <= 0 {
		return fmt.Errorf("config: max_concurrent_queries must be positive")
	}
	return nil
}

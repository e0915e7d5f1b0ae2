// Package timeouts provides the deadlines handlers put on database work.
//
// Guidelines:
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and restriction lookups
//   - Long: bulk restriction writes and project deletes
//
// Values are set once at startup with Configure; unset values keep defaults.
package timeouts

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var (
	mu  sync.RWMutex
	cur = Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
)

// Config holds timeout values. Zero fields are ignored by Configure.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// Ping returns the health-check timeout.
func Ping() time.Duration { return Current().Ping }

// Short returns the single-document timeout.
func Short() time.Duration { return Current().Short }

// Medium returns the list-query timeout.
func Medium() time.Duration { return Current().Medium }

// Long returns the multi-document write timeout.
func Long() time.Duration { return Current().Long }

// Configure overrides the non-zero fields of cfg and logs the result.
func Configure(cfg Config, logger *zap.Logger) {
	mu.Lock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		cur.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		cur.Medium = cfg.Medium
	}
	if cfg.Long > 0 {
		cur.Long = cfg.Long
	}
	applied := cur
	mu.Unlock()

	if logger != nil {
		logger.Info("timeouts configured",
			zap.Duration("ping", applied.Ping),
			zap.Duration("short", applied.Short),
			zap.Duration("medium", applied.Medium),
			zap.Duration("long", applied.Long))
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

// Current returns a copy of the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}


// Package timeouts holds the context deadlines used around database work.
//
// Pick by the shape of the operation:
//   - Ping: health checks
//   - Short: get by id, lookup by email, a single update
//   - Medium: paged lists with counts, notification fan-out
//   - Long: dashboard aggregations, schema setup
//   - Batch: one run of a daily purge sweep
//
// Startup applies configured overrides with Configure.
package timeouts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure overrides them.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

// Config is a full set of timeouts. Zero fields mean "keep the default".
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

var defaults = Config{
	Ping:   DefaultPing,
	Short:  DefaultShort,
	Medium: DefaultMedium,
	Long:   DefaultLong,
	Batch:  DefaultBatch,
}

var active atomic.Pointer[Config]

func init() { Reset() }

func Ping() time.Duration   { return active.Load().Ping }
func Short() time.Duration  { return active.Load().Short }
func Medium() time.Duration { return active.Load().Medium }
func Long() time.Duration   { return active.Load().Long }
func Batch() time.Duration  { return active.Load().Batch }

// Configure replaces the active set with cfg, filling zero fields from the
// defaults.
func Configure(cfg Config) {
	merged := cfg.withDefaults()
	active.Store(&merged)
}

// Reset restores the defaults.
func Reset() {
	d := defaults
	active.Store(&d)
}

// Current returns a copy of the active set.
func Current() Config {
	return *active.Load()
}

func (c Config) withDefaults() Config {
	pick := func(v, def time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return def
	}
	return Config{
		Ping:   pick(c.Ping, defaults.Ping),
		Short:  pick(c.Short, defaults.Short),
		Medium: pick(c.Medium, defaults.Medium),
		Long:   pick(c.Long, defaults.Long),
		Batch:  pick(c.Batch, defaults.Batch),
	}
}

// WithTimeout derives a context with the given deadline. Its cancel func
// logs a warning naming operation when the deadline was what ended it.
//
//	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Batch(), log, "account-purge")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}

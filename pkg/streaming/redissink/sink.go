// Package redissink ships line streams into a Redis stream, so the output of
// a local process pipeline can be consumed off-host.
package redissink

import (
	"context"

	"github.com/redis/go-redis/v9"

	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
	"github.com/vnykmshr/goshell/pkg/common/validation"
	"github.com/vnykmshr/goshell/pkg/metrics"
	"github.com/vnykmshr/goshell/pkg/streaming/stream"
)

// Config holds configuration for a Sink.
type Config struct {
	// Redis client to publish through.
	Redis redis.UniversalClient

	// Stream is the Redis stream key to append to.
	Stream string

	// MaxLen, when positive, caps the stream length (approximate trimming).
	MaxLen int64

	// Field is the entry field each line is stored under. Empty means "line".
	Field string

	// Metrics, when non-nil, counts shipped lines under the stream key.
	Metrics *metrics.Registry
}

// DefaultConfig returns a default sink configuration. The Redis client and
// stream key must still be supplied.
func DefaultConfig() Config {
	return Config{Field: "line"}
}

// Sink appends line records to a Redis stream with XADD.
type Sink struct {
	cfg Config
}

// New validates cfg and creates a Sink.
func New(cfg Config) (*Sink, error) {
	if err := validation.NotNil("redissink", "redis", cfg.Redis); err != nil {
		return nil, err
	}
	if err := validation.NotEmpty("redissink", "stream", cfg.Stream); err != nil {
		return nil, err
	}
	if cfg.MaxLen < 0 {
		return nil, gserrors.NewValidationError("redissink", "maxlen", cfg.MaxLen,
			"cannot be negative")
	}
	if cfg.Field == "" {
		cfg.Field = "line"
	}
	return &Sink{cfg: cfg}, nil
}

// Publish drains the line stream into the Redis stream and returns the number
// of lines shipped. The input's deferred failure, a process exit error or an
// upstream failure, comes back once everything before it has been shipped. A
// failed XADD stops the drain and releases the input.
func (s *Sink) Publish(ctx context.Context, in stream.Stream[string]) (int64, error) {
	var (
		count   int64
		sendErr error
	)
	err := in.ForEachUntil(ctx, func(line string) bool {
		args := &redis.XAddArgs{
			Stream: s.cfg.Stream,
			Values: map[string]interface{}{s.cfg.Field: line},
		}
		if s.cfg.MaxLen > 0 {
			args.MaxLen = s.cfg.MaxLen
			args.Approx = true
		}
		if err := s.cfg.Redis.XAdd(ctx, args).Err(); err != nil {
			sendErr = gserrors.Chain("xadd "+s.cfg.Stream, err)
			return false
		}
		count++
		return true
	})

	if m := s.cfg.Metrics; m != nil {
		m.LinesEmitted.WithLabelValues(s.cfg.Stream).Add(float64(count))
	}

	if sendErr != nil {
		return count, sendErr
	}
	return count, err
}

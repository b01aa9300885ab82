// Package events delivers committed domain events: to the log, to a redis
// stream, or to several sinks at once.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"loanshare/internal/domain/event"
	"loanshare/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

const streamMaxLen = 10_000

type LogSink struct{ log *logger.Logger }

func NewLogSink(l *logger.Logger) *LogSink { return &LogSink{log: l} }

func (s *LogSink) Publish(_ context.Context, evs ...event.Event) error {
	for _, e := range evs {
		amount := ""
		if e.Amount != nil {
			amount = e.Amount.Dec()
		}
		s.log.Info("event",
			"id", e.ID,
			"kind", e.Kind,
			"contract", e.Contract.Hex(),
			"party", e.Party.Hex(),
			"amount", amount,
			"tick", e.Tick,
		)
	}
	return nil
}

// StreamSink appends each event as JSON to a redis stream (XADD, trimmed to
// roughly streamMaxLen entries).
type StreamSink struct {
	rdb    *redis.Client
	stream string
}

func NewStreamSink(rdb *redis.Client, stream string) *StreamSink {
	return &StreamSink{rdb: rdb, stream: stream}
}

func (s *StreamSink) Publish(ctx context.Context, evs ...event.Event) error {
	pipe := s.rdb.Pipeline()
	for _, e := range evs {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", e.ID, err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: streamMaxLen,
			Approx: true,
			Values: map[string]interface{}{
				"kind":    string(e.Kind),
				"payload": payload,
			},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", s.stream, err)
	}
	return nil
}

// Multi publishes to every sink and joins their errors.
type Multi []event.Sink

func (m Multi) Publish(ctx context.Context, evs ...event.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, evs...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

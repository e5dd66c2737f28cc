package persistence

import (
	"context"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/logicflow/pkg/api"
)

// RedisEventStore is an EventStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>run:<id>   => LIST of gob-encoded events, in append order
//	<prefix>idx:runs   => SET of all run IDs
//
// Run lists expire ttl after their last append when ttl is positive.
type RedisEventStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ EventStore = (*RedisEventStore)(nil)

// NewRedisEventStore creates a RedisEventStore.
// prefix is optional but recommended (e.g. "logicflow:").
func NewRedisEventStore(client *redis.Client, prefix string) *RedisEventStore {
	if prefix == "" {
		prefix = "logicflow:"
	}
	return &RedisEventStore{
		client: client,
		prefix: prefix,
	}
}

// WithTTL sets how long a run's events are kept after its last append.
// Zero keeps them forever.
func (s *RedisEventStore) WithTTL(ttl time.Duration) *RedisEventStore {
	s.ttl = ttl
	return s
}

func (s *RedisEventStore) keyRun(id string) string {
	return s.prefix + "run:" + id
}

func (s *RedisEventStore) keyRuns() string {
	return s.prefix + "idx:runs"
}

func (s *RedisEventStore) AppendEvent(ctx context.Context, ev api.Event) error {
	if ev.RunID == "" {
		return ErrEmptyRunID
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	data, err := EncodeEvent(ev)
	if err != nil {
		return err
	}

	key := s.keyRun(ev.RunID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.SAdd(ctx, s.keyRuns(), ev.RunID)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *RedisEventStore) ListEvents(ctx context.Context, runID string) ([]api.Event, error) {
	raw, err := s.client.LRange(ctx, s.keyRun(runID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]api.Event, 0, len(raw))
	for _, item := range raw {
		ev, err := DecodeEvent([]byte(item))
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// ListRuns returns the IDs of every run with recorded events. Runs whose
// events expired may still be listed.
func (s *RedisEventStore) ListRuns(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.keyRuns()).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

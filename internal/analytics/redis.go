// Package analytics counts deliveries per topic in Redis.
//
// Counters are advisory: a lost increment never blocks or fails a dispatch,
// so errors are logged and swallowed here.
package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisSink struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisSink(client *redis.Client, retention time.Duration) *RedisSink {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &RedisSink{client: client, retention: retention}
}

// Record increments the hourly delivery counter for topic.
func (s *RedisSink) Record(ctx context.Context, topic string, sentAt time.Time) {
	key := buildKey(topic, sentAt)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.retention)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("analytics: redis pipeline for %s: %v", key, err)
	}
}

// buildKey buckets deliveries per topic per hour, e.g. "t:truth-dare-all:2024060118".
func buildKey(topic string, t time.Time) string {
	return fmt.Sprintf("t:%s:%s", topic, t.UTC().Format("2006010215"))
}

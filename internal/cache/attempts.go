// Package cache keeps hot attempt records in Redis in front of the SQL store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/logger"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/quiz"
)

const keyPrefix = "adaptivequiz:attempt:"

// Attempts is a write-through attempt cache. Redis failures are logged and
// treated as misses; the store stays authoritative.
type Attempts struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr string, ttl time.Duration, log *logger.Logger) (*Attempts, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, ttl, log), nil
}

func New(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *Attempts {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Attempts{log: log.With("service", "AttemptCache"), rdb: rdb, ttl: ttl}
}

func (c *Attempts) Get(ctx context.Context, id string) (quiz.Attempt, bool) {
	raw, err := c.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("cache get failed", "attempt_id", id, "err", err)
		}
		return quiz.Attempt{}, false
	}
	var a quiz.Attempt
	if err := json.Unmarshal(raw, &a); err != nil {
		c.log.Warn("cache entry corrupt", "attempt_id", id, "err", err)
		return quiz.Attempt{}, false
	}
	return a, true
}

// Put stores a. Completed attempts are evicted rather than cached since they
// are no longer written.
func (c *Attempts) Put(ctx context.Context, a quiz.Attempt) {
	if a.Status == quiz.StatusCompleted {
		if err := c.rdb.Del(ctx, keyPrefix+a.ID).Err(); err != nil {
			c.log.Warn("cache evict failed", "attempt_id", a.ID, "err", err)
		}
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		c.log.Warn("cache encode failed", "attempt_id", a.ID, "err", err)
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+a.ID, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "attempt_id", a.ID, "err", err)
	}
}

func (c *Attempts) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *Attempts) Close() error { return c.rdb.Close() }

var _ quiz.AttemptCache = (*Attempts)(nil)

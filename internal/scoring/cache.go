package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "postscore:score:"

// CacheHooks observe cache traffic. Any hook may be nil.
type CacheHooks struct {
	OnHit   func()
	OnMiss  func()
	OnError func()
}

// CachedScorer remembers clean results in Redis so the same post is only
// sent to the model once per TTL.
type CachedScorer struct {
	next  Scorer
	rdb   *redis.Client
	ttl   time.Duration
	log   *logrus.Logger
	hooks CacheHooks
}

func NewCachedScorer(next Scorer, rdb *redis.Client, ttl time.Duration, log *logrus.Logger, hooks CacheHooks) *CachedScorer {
	return &CachedScorer{next: next, rdb: rdb, ttl: ttl, log: log, hooks: hooks}
}

// CacheKey identifies a post by platform, text and image bytes.
func CacheKey(in Input) string {
	h := sha256.New()
	h.Write([]byte(in.Platform))
	h.Write([]byte{0})
	h.Write([]byte(in.Text))
	h.Write([]byte{0})
	h.Write(in.Image)
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedScorer) Score(ctx context.Context, in Input) (*Result, error) {
	key := CacheKey(in)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			call(c.hooks.OnHit)
			return &res, nil
		}
		c.log.WithField("key", key).Warn("Discarding unreadable cached score")
	case errors.Is(err, redis.Nil):
		call(c.hooks.OnMiss)
	default:
		call(c.hooks.OnError)
		c.log.WithError(err).Warn("Score cache lookup failed")
	}

	res, err := c.next.Score(ctx, in)
	if err != nil {
		return nil, err
	}
	if res.Partial {
		return res, nil
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return res, nil
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		call(c.hooks.OnError)
		c.log.WithError(err).Warn("Score cache store failed")
	}
	return res, nil
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

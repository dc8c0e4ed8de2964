package scoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/postscore/internal/models"
)

type countingScorer struct {
	calls atomic.Int32
	res   Result
	err   error
}

func (s *countingScorer) Score(context.Context, Input) (*Result, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	res := s.res
	return &res, nil
}

func setupCache(t *testing.T, next Scorer) (*CachedScorer, *miniredis.Miniredis, *int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var hits int32
	hooks := CacheHooks{OnHit: func() { atomic.AddInt32(&hits, 1) }}
	return NewCachedScorer(next, client, time.Minute, testLogger(), hooks), mr, &hits
}

func TestCachedScorer_HitSkipsModel(t *testing.T) {
	next := &countingScorer{res: Result{Score: 81, Feedback: "Strong."}}
	cache, mr, hits := setupCache(t, next)
	in := Input{Text: "hello", Platform: models.Twitter}

	first, err := cache.Score(context.Background(), in)
	require.NoError(t, err)
	second, err := cache.Score(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, *first, *second)
	assert.True(t, mr.Exists(CacheKey(in)))
	assert.Equal(t, time.Minute, mr.TTL(CacheKey(in)))
}

func TestCachedScorer_KeyedByPlatformAndImage(t *testing.T) {
	next := &countingScorer{res: Result{Score: 60, Feedback: "ok"}}
	cache, _, _ := setupCache(t, next)
	ctx := context.Background()

	_, _ = cache.Score(ctx, Input{Text: "same", Platform: models.Twitter})
	_, _ = cache.Score(ctx, Input{Text: "same", Platform: models.LinkedIn})
	_, _ = cache.Score(ctx, Input{Text: "same", Platform: models.LinkedIn, Image: []byte{1, 2}})

	assert.Equal(t, int32(3), next.calls.Load())
}

func TestCachedScorer_PartialNotCached(t *testing.T) {
	next := &countingScorer{res: Result{Score: 50, Feedback: PartialFeedback, Partial: true}}
	cache, mr, _ := setupCache(t, next)
	in := Input{Text: "fuzzy", Platform: models.Facebook}

	_, _ = cache.Score(context.Background(), in)
	_, _ = cache.Score(context.Background(), in)

	assert.Equal(t, int32(2), next.calls.Load())
	assert.False(t, mr.Exists(CacheKey(in)))
}

func TestCachedScorer_ErrorsPassThrough(t *testing.T) {
	next := &countingScorer{err: ErrBlocked}
	cache, _, _ := setupCache(t, next)

	_, err := cache.Score(context.Background(), Input{Text: "x", Platform: models.Facebook})
	assert.True(t, errors.Is(err, ErrBlocked))
}

func TestCachedScorer_RedisDown(t *testing.T) {
	next := &countingScorer{res: Result{Score: 70, Feedback: "fine"}}
	cache, mr, _ := setupCache(t, next)
	mr.Close()

	res, err := cache.Score(context.Background(), Input{Text: "x", Platform: models.Facebook})
	require.NoError(t, err)
	assert.Equal(t, 70, res.Score)
}

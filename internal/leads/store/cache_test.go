package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"lead-crm/internal/common/logger"
	"lead-crm/internal/common/metrics"
	"lead-crm/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Stub Store
// ==========================

type stubStore struct {
	leads      []models.Lead
	listErr    error
	insertErr  error
	listCalls  int
	insertArgs []*models.Lead
	exists     bool
}

func (s *stubStore) List(ctx context.Context) ([]models.Lead, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.leads, nil
}

func (s *stubStore) Insert(ctx context.Context, lead *models.Lead) error {
	s.insertArgs = append(s.insertArgs, lead)
	if s.insertErr != nil {
		return s.insertErr
	}
	lead.ID = "new-id"
	return nil
}

func (s *stubStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists, nil
}

// gatedStore holds its first List call open until release is closed, with the
// result captured before it blocks.
type gatedStore struct {
	mu      sync.Mutex
	leads   []models.Lead
	gated   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(leads ...models.Lead) *gatedStore {
	return &gatedStore{
		leads:   leads,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gatedStore) List(ctx context.Context) ([]models.Lead, error) {
	s.mu.Lock()
	snapshot := append([]models.Lead(nil), s.leads...)
	block := !s.gated
	s.gated = true
	s.mu.Unlock()

	if block {
		close(s.entered)
		<-s.release
	}
	return snapshot, nil
}

func (s *gatedStore) Insert(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append([]models.Lead{*lead}, s.leads...)
	return nil
}

func (s *gatedStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func newMiniredisCache(t *testing.T, next Store, ttl time.Duration) (*CachedStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCachedStore(next, rdb, ttl, logger.NewTestLogger(t)), mr
}

// ==========================
// Read-through Tests
// ==========================

func TestCachedStore_List_MissThenHit(t *testing.T) {
	next := &stubStore{leads: []models.Lead{{ID: "1", Name: "Ana"}}}
	c, mr := newMiniredisCache(t, next, 5*time.Minute)

	first, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana", first[0].Name)
	assert.True(t, mr.Exists(ListCacheKey))
	assert.Equal(t, 5*time.Minute, mr.TTL(ListCacheKey))

	second, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.listCalls)
}

func TestCachedStore_List_UndecodableEntryFallsThrough(t *testing.T) {
	next := &stubStore{leads: []models.Lead{{ID: "1"}}}
	c, mr := newMiniredisCache(t, next, time.Minute)
	require.NoError(t, mr.Set(ListCacheKey, "{not json"))

	leads, err := c.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, leads, 1)
	assert.Equal(t, 1, next.listCalls)
}

func TestCachedStore_List_StoreErrorNotCached(t *testing.T) {
	next := &stubStore{listErr: ErrQueryFailed}
	c, mr := newMiniredisCache(t, next, time.Minute)

	_, err := c.List(context.Background())

	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.False(t, mr.Exists(ListCacheKey))
}

func TestCachedStore_Insert_Invalidates(t *testing.T) {
	next := &stubStore{leads: []models.Lead{{ID: "1"}}}
	c, mr := newMiniredisCache(t, next, time.Minute)

	_, err := c.List(context.Background())
	require.NoError(t, err)
	require.True(t, mr.Exists(ListCacheKey))

	require.NoError(t, c.Insert(context.Background(), &models.Lead{Name: "Bo"}))
	assert.False(t, mr.Exists(ListCacheKey))
}

func TestCachedStore_Insert_BumpsGeneration(t *testing.T) {
	c, mr := newMiniredisCache(t, &stubStore{}, time.Minute)

	require.NoError(t, c.Insert(context.Background(), &models.Lead{Name: "Bo"}))
	require.NoError(t, c.Insert(context.Background(), &models.Lead{Name: "Cy"}))

	gen, err := mr.Get(GenerationKey)
	require.NoError(t, err)
	assert.Equal(t, "2", gen)
}

func TestCachedStore_InsertDuringListIsNotHidden(t *testing.T) {
	ctx := context.Background()
	next := newGatedStore(models.Lead{ID: "1", Name: "Ana"})
	c, mr := newMiniredisCache(t, next, time.Minute)

	var stale []models.Lead
	done := make(chan struct{})
	go func() {
		defer close(done)
		stale, _ = c.List(ctx)
	}()

	<-next.entered
	require.NoError(t, c.Insert(ctx, &models.Lead{ID: "2", Name: "Bo"}))
	close(next.release)
	<-done

	assert.Len(t, stale, 1)
	assert.False(t, mr.Exists(ListCacheKey), "list loaded before the insert must not be cached")

	fresh, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, "Bo", fresh[0].Name)
	assert.True(t, mr.Exists(ListCacheKey))
}

func TestCachedStore_Insert_FailureKeepsCache(t *testing.T) {
	next := &stubStore{leads: []models.Lead{{ID: "1"}}, insertErr: ErrDuplicateEmail}
	c, mr := newMiniredisCache(t, next, time.Minute)

	_, err := c.List(context.Background())
	require.NoError(t, err)

	err = c.Insert(context.Background(), &models.Lead{Name: "Bo"})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.True(t, mr.Exists(ListCacheKey))
}

// ==========================
// Redis Failure Tests
// ==========================

func TestCachedStore_List_RedisErrorsBypassed(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	leads := []models.Lead{{ID: "1", Name: "Ana"}}
	next := &stubStore{leads: leads}
	c := NewCachedStore(next, redisClient, 5*time.Minute, logger.NewTestLogger(t))

	redisMock.ExpectGet(ListCacheKey).SetErr(errors.New("redis down"))
	redisMock.ExpectGet(GenerationKey).SetErr(errors.New("redis down"))

	got, err := c.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, leads, got)
	assert.Equal(t, 1, next.listCalls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedStore_List_CacheRequestLabels(t *testing.T) {
	count := func(result string) float64 {
		var m dto.Metric
		require.NoError(t, metrics.LeadCacheRequests.WithLabelValues(result).Write(&m))
		return m.GetCounter().GetValue()
	}

	t.Run("read error is not a miss", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		c := NewCachedStore(&stubStore{}, redisClient, time.Minute, logger.NewTestLogger(t))
		redisMock.ExpectGet(ListCacheKey).SetErr(errors.New("redis down"))
		redisMock.ExpectGet(GenerationKey).SetErr(errors.New("redis down"))

		errBefore, missBefore := count("error"), count("miss")
		_, err := c.List(context.Background())

		require.NoError(t, err)
		assert.Equal(t, errBefore+1, count("error"))
		assert.Equal(t, missBefore, count("miss"))
	})

	t.Run("empty cache is a miss", func(t *testing.T) {
		c, _ := newMiniredisCache(t, &stubStore{}, time.Minute)

		errBefore, missBefore := count("error"), count("miss")
		_, err := c.List(context.Background())

		require.NoError(t, err)
		assert.Equal(t, missBefore+1, count("miss"))
		assert.Equal(t, errBefore, count("error"))
	})
}

func TestCachedStore_List_WriteErrorIgnored(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	leads := []models.Lead{{ID: "1", Name: "Ana"}}
	c := NewCachedStore(&stubStore{leads: leads}, redisClient, 5*time.Minute, logger.NewTestLogger(t))

	data, _ := json.Marshal(leads)
	redisMock.ExpectGet(ListCacheKey).RedisNil()
	redisMock.ExpectGet(GenerationKey).RedisNil()
	redisMock.ExpectEval(setIfGenerationScript, []string{ListCacheKey, GenerationKey},
		"0", data, int64(300000)).SetErr(errors.New("redis down"))

	got, err := c.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, leads, got)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedStore_Insert_InvalidationErrorIgnored(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	next := &stubStore{}
	c := NewCachedStore(next, redisClient, time.Minute, logger.NewTestLogger(t))

	redisMock.ExpectIncr(GenerationKey).SetErr(errors.New("redis down"))
	redisMock.ExpectDel(ListCacheKey).SetErr(errors.New("redis down"))

	lead := &models.Lead{Name: "Bo"}
	require.NoError(t, c.Insert(context.Background(), lead))
	assert.Equal(t, "new-id", lead.ID)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedStore_ExistsByEmail_PassesThrough(t *testing.T) {
	next := &stubStore{exists: true}
	c, _ := newMiniredisCache(t, next, time.Minute)

	exists, err := c.ExistsByEmail(context.Background(), "ana@x.io")

	require.NoError(t, err)
	assert.True(t, exists)
}

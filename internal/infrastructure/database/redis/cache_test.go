package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/dimpat/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = NewClientFrom(db, &RedisConfig{}, logging.NewNopLogger())
	s.cache = NewRedisCache(s.client, logging.NewNopLogger(), WithPrefix("test:"))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type testStruct struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func (s *CacheTestSuite) TestGet_CacheHit() {
	val := testStruct{Name: "John", Age: 30}
	bytes, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").SetVal(string(bytes))

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), val, dest)
}

func (s *CacheTestSuite) TestGet_CacheMiss() {
	s.mock.ExpectGet("test:key1").RedisNil()

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	assert.Equal(s.T(), ErrCacheMiss, err)
	assert.True(s.T(), pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGet_NullCacheMarker() {
	s.mock.ExpectGet("test:key1").SetVal(nullMarker)

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	assert.Equal(s.T(), ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestGet_RedisError() {
	s.mock.ExpectGet("test:key1").SetErr(stderrors.New("connection reset"))

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	require.Error(s.T(), err)
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_CorruptPayload() {
	s.mock.ExpectGet("test:key1").SetVal("{not json")

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)

	err := s.cache.Delete(context.Background(), "a", "b")

	assert.NoError(s.T(), err)
}

func (s *CacheTestSuite) TestDelete_NoKeys() {
	assert.NoError(s.T(), s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestGet_ClosedClient() {
	s.client.closed = true

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	assert.Equal(s.T(), ErrClientClosed, err)
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

// ── behaviour against an in-memory server ────────────────────────────────────

func newMiniCache(t *testing.T, opts ...CacheOption) (*miniredis.Miniredis, *Client, Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Mode: "standalone", Addr: mr.Addr(), KeyPrefix: "t:"}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client, NewRedisCache(client, logging.NewNopLogger(), opts...)
}

func TestCache_SetAppliesJitteredTTL(t *testing.T) {
	mr, _, cache := newMiniCache(t)

	err := cache.Set(context.Background(), "k", testStruct{Name: "a"}, time.Hour)
	require.NoError(t, err)

	ttl := mr.TTL("t:k")
	assert.GreaterOrEqual(t, ttl, 54*time.Minute)
	assert.LessOrEqual(t, ttl, 66*time.Minute)

	raw, err := mr.Get("t:k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","age":0}`, raw)
}

func TestCache_SetUsesDefaultTTL(t *testing.T) {
	mr, _, cache := newMiniCache(t, WithDefaultTTL(10*time.Minute))

	require.NoError(t, cache.Set(context.Background(), "k", 1, 0))

	ttl := mr.TTL("t:k")
	assert.Greater(t, ttl, 8*time.Minute)
	assert.LessOrEqual(t, ttl, 11*time.Minute)
}

func TestCache_GetOrSet_LoadsOnceThenHits(t *testing.T) {
	_, _, cache := newMiniCache(t)
	ctx := context.Background()

	var calls int32
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return testStruct{Name: "loaded", Age: 7}, nil
	}

	var first, second testStruct
	require.NoError(t, cache.GetOrSet(ctx, "k", &first, time.Minute, loader))
	require.NoError(t, cache.GetOrSet(ctx, "k", &second, time.Minute, loader))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, testStruct{Name: "loaded", Age: 7}, first)
	assert.Equal(t, first, second)
}

func TestCache_GetOrSet_ConcurrentCallersShareOneLoad(t *testing.T) {
	_, _, cache := newMiniCache(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return testStruct{Name: "shared"}, nil
	}

	var wg sync.WaitGroup
	results := make([]testStruct, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = cache.GetOrSet(ctx, "k", &results[i], time.Minute, loader)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i].Name)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestCache_GetOrSet_LoaderErrorNotCached(t *testing.T) {
	mr, _, cache := newMiniCache(t)
	boom := stderrors.New("upstream down")

	var dest testStruct
	err := cache.GetOrSet(context.Background(), "k", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("t:k"))
}

func TestCache_GetOrSet_NilResultCachedAsNull(t *testing.T) {
	mr, _, cache := newMiniCache(t, WithNullCacheTTL(5*time.Second))

	var dest testStruct
	err := cache.GetOrSet(context.Background(), "k", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, nil
	})

	assert.Equal(t, ErrCacheMiss, err)
	raw, getErr := mr.Get("t:k")
	require.NoError(t, getErr)
	assert.Equal(t, nullMarker, raw)
	assert.Equal(t, 5*time.Second, mr.TTL("t:k"))
}

func TestCache_Expiry(t *testing.T) {
	mr, _, cache := newMiniCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "k", 1, time.Minute))

	mr.FastForward(2 * time.Minute)

	var v int
	assert.Equal(t, ErrCacheMiss, cache.Get(ctx, "k", &v))
}

func TestNewRedisCache_PrefixFromConfig(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewClientFrom(db, &RedisConfig{KeyPrefix: "cfg:"}, nil)
	cache := NewRedisCache(client, nil)
	mock.ExpectGet("cfg:x").RedisNil()

	var v int
	assert.Equal(t, ErrCacheMiss, cache.Get(context.Background(), "x", &v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

//Personal.AI order the ending

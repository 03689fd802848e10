package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"rkd-client/pkg/rkd"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis emulates the commands TokenStore issues, including the publish script.
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	err    error
	evals  int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			delete(f.ttls, k)
			n++
		}
	}
	return redis.NewIntResult(n, f.err)
}

func (f *fakeRedis) PTTL(ctx context.Context, key string) *redis.DurationCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	ttl, ok := f.ttls[key]
	if !ok {
		return redis.NewDurationResult(-2*time.Millisecond, nil)
	}
	return redis.NewDurationResult(ttl, nil)
}

func (f *fakeRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, errors.New("NOSCRIPT No matching script. Please use EVAL."))
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals++
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}

	key := keys[0]
	if current, ok := f.values[key]; ok {
		var stored StoredToken
		if json.Unmarshal([]byte(current), &stored) == nil && stored.ExpiresUnix > toInt64(args[1]) {
			return redis.NewCmdResult(int64(0), nil)
		}
	}
	f.values[key] = args[0].(string)
	f.ttls[key] = time.Duration(toInt64(args[2])) * time.Millisecond
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeRedis) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeRedis) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("sha", nil)
}

func (f *fakeRedis) Close() error {
	return nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

var creds = rkd.Credentials{Username: "Bob", Password: "hello", ApplicationID: "1234"}

func newTestStore(client CacheClient, now time.Time) *TokenStore {
	s := NewTokenStore(client, creds)
	s.now = func() time.Time { return now }
	return s
}

func TestTokenKey(t *testing.T) {
	assert.Equal(t, "rkd:token:1234:bob", TokenKey("1234", " Bob "))
	assert.Equal(t, "rkd:token:app_1:bob", TokenKey("app:1", "bob"))
}

func TestPublishAndLoad(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	client := newFakeRedis()
	s := newTestStore(client, now)

	tok := &rkd.Token{Value: "abc123", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Publish(context.Background(), tok))

	stored, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", stored.Token)
	assert.True(t, tok.ExpiresAt.Equal(stored.ExpiresAt))
	assert.Equal(t, tok.Value, stored.AsToken().Value)

	ttl, err := s.TTL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)
}

func TestPublishKeepsNewerToken(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	client := newFakeRedis()
	s := newTestStore(client, now)

	require.NoError(t, s.Publish(context.Background(), &rkd.Token{Value: "newer", ExpiresAt: now.Add(2 * time.Hour)}))
	require.NoError(t, s.Publish(context.Background(), &rkd.Token{Value: "older", ExpiresAt: now.Add(time.Hour)}))

	stored, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "newer", stored.Token)
}

func TestPublishSkipsExpiredToken(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	client := newFakeRedis()
	s := newTestStore(client, now)

	require.NoError(t, s.Publish(context.Background(), &rkd.Token{Value: "old", ExpiresAt: now}))
	assert.Equal(t, 0, client.evals)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestLoadExpiredIsNotFound(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	client := newFakeRedis()
	require.NoError(t, newTestStore(client, now).Publish(context.Background(), &rkd.Token{Value: "abc", ExpiresAt: now.Add(time.Minute)}))

	_, err := newTestStore(client, now.Add(2*time.Minute)).Load(context.Background())
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestPublishErrorIsCacheError(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	s := newTestStore(client, now)

	err := s.Publish(context.Background(), &rkd.Token{Value: "abc", ExpiresAt: now.Add(time.Hour)})
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "publish", cacheErr.Operation)
	assert.True(t, cacheErr.Retryable)
}

func TestClear(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	client := newFakeRedis()
	s := newTestStore(client, now)
	require.NoError(t, s.Publish(context.Background(), &rkd.Token{Value: "abc", ExpiresAt: now.Add(time.Hour)}))

	require.NoError(t, s.Clear(context.Background()))
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = s.TTL(context.Background())
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRedisConfigValidate(t *testing.T) {
	assert.NoError(t, RedisConfig{Host: "localhost", Port: 6379}.Validate())
	assert.Error(t, RedisConfig{Port: 6379}.Validate())
	assert.Error(t, RedisConfig{Host: "localhost", Port: 70000}.Validate())
	assert.Error(t, RedisConfig{Host: "localhost", Port: 6379, DB: -1}.Validate())
	assert.Error(t, RedisConfig{Host: "localhost", Port: 6379, TLSEnabled: true, TLSCertFile: "/does/not/exist.pem"}.Validate())
	assert.Equal(t, "localhost:6379", RedisConfig{Host: "localhost", Port: 6379}.Addr())
}

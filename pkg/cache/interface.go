package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the subset of *redis.Client the token store uses.
type CacheClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd
	ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd
	ScriptLoad(ctx context.Context, script string) *redis.StringCmd
	Close() error
}

var _ CacheClient = (*redis.Client)(nil)

// TokenOperations is implemented by TokenStore.
type TokenOperations interface {
	Load(ctx context.Context) (*StoredToken, error)
	TTL(ctx context.Context) (time.Duration, error)
	Clear(ctx context.Context) error
}

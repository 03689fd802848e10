package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rkd-client/pkg/logger"
	"rkd-client/pkg/rkd"

	"github.com/go-redis/redis/v8"
)

// publishTokenScript stores ARGV[1] under KEYS[1] unless the token already
// stored there expires later than ARGV[2]. Several processes can publish
// for the same credentials without an older token overwriting a newer one.
var publishTokenScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[1])
	if current then
		local ok, decoded = pcall(cjson.decode, current)
		if ok and decoded.expires_unix and tonumber(decoded.expires_unix) > tonumber(ARGV[2]) then
			return 0
		end
	end
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
	return 1
`)

// StoredToken is the JSON document published for a token.
type StoredToken struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresUnix int64     `json:"expires_unix"`
}

// Token converts the stored document back into an rkd.Token.
func (s *StoredToken) AsToken() *rkd.Token {
	return &rkd.Token{Value: s.Token, ExpiresAt: s.ExpiresAt}
}

// TokenStore publishes service tokens to Redis. It implements rkd.TokenStore.
type TokenStore struct {
	client CacheClient
	key    string
	now    func() time.Time
}

// NewTokenStore creates a store for the given credentials' token.
func NewTokenStore(client CacheClient, creds rkd.Credentials) *TokenStore {
	return &TokenStore{
		client: client,
		key:    TokenKey(creds.ApplicationID, creds.Username),
		now:    time.Now,
	}
}

// Key returns the Redis key the token is stored under.
func (s *TokenStore) Key() string {
	return s.key
}

// Publish stores tok until it expires. Already expired tokens are skipped.
func (s *TokenStore) Publish(ctx context.Context, tok *rkd.Token) error {
	ttl := tok.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		logger.GlobalLogger.Debugf("skipping publish of expired token: key=%s", s.key)
		return nil
	}

	data, err := json.Marshal(StoredToken{
		Token:       tok.Value,
		ExpiresAt:   tok.ExpiresAt,
		ExpiresUnix: tok.ExpiresAt.Unix(),
	})
	if err != nil {
		IncrementError("publish_marshal")
		return NewCacheError("marshal", err, false)
	}

	start := time.Now()
	stored, err := publishTokenScript.Run(ctx, s.client, []string{s.key}, string(data), tok.ExpiresAt.Unix(), ttl.Milliseconds()).Int()
	RecordOperationDuration("publish", time.Since(start).Seconds())
	if err != nil {
		IncrementError("publish")
		logger.GlobalLogger.Errorf("failed to publish token: key=%s, error=%v", s.key, err)
		return NewCacheError("publish", err, true)
	}
	if stored == 0 {
		logger.GlobalLogger.Debugf("newer token already published: key=%s", s.key)
	}
	return nil
}

// Load returns the published token, or ErrTokenNotFound when there is none
// or it has expired.
func (s *TokenStore) Load(ctx context.Context) (*StoredToken, error) {
	start := time.Now()
	val, err := s.client.Get(ctx, s.key).Result()
	RecordOperationDuration("get", time.Since(start).Seconds())
	if errors.Is(err, redis.Nil) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		IncrementError("get")
		logger.GlobalLogger.Errorf("failed to get key %s: %v", s.key, err)
		return nil, NewCacheError("get", err, true)
	}

	var stored StoredToken
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		IncrementError("get_unmarshal")
		logger.GlobalLogger.Errorf("failed to unmarshal value for key %s: %v", s.key, err)
		return nil, NewCacheError("unmarshal", err, false)
	}
	if !s.now().Before(stored.ExpiresAt) {
		return nil, ErrTokenNotFound
	}
	return &stored, nil
}

// TTL returns how long Redis keeps the published token.
func (s *TokenStore) TTL(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	ttl, err := s.client.PTTL(ctx, s.key).Result()
	RecordOperationDuration("pttl", time.Since(start).Seconds())
	if err != nil {
		IncrementError("pttl")
		return 0, NewCacheError("pttl", err, true)
	}
	if ttl < 0 {
		return 0, ErrTokenNotFound
	}
	return ttl, nil
}

// Clear removes the published token.
func (s *TokenStore) Clear(ctx context.Context) error {
	start := time.Now()
	err := s.client.Del(ctx, s.key).Err()
	RecordOperationDuration("delete", time.Since(start).Seconds())
	if err != nil {
		IncrementError("delete")
		logger.GlobalLogger.Errorf("failed to delete key %s: %v", s.key, err)
		return NewCacheError("delete", err, false)
	}
	return nil
}

var (
	_ rkd.TokenStore  = (*TokenStore)(nil)
	_ TokenOperations = (*TokenStore)(nil)
)

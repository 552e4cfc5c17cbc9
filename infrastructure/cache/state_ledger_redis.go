package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"brand-publisher/domain/model"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth_state:"

// RedisStateLedger shares pending handshakes between replicas. Redis key
// expiry replaces the sweep and GETDEL makes consumption single-use.
type RedisStateLedger struct {
	client   *redis.Client
	ttl      time.Duration
	now      func() time.Time
	generate stateGenerator
}

func NewRedisStateLedger(client *redis.Client, ttl time.Duration) *RedisStateLedger {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &RedisStateLedger{client: client, ttl: ttl, now: time.Now, generate: generateState}
}

func stateKey(token string) string {
	return stateKeyPrefix + token
}

func (l *RedisStateLedger) Issue(ctx context.Context, brandID, tenantID string, platform model.Platform) (*model.OAuthState, error) {
	st, err := newOAuthState(l.generate, l.now(), l.ttl, brandID, tenantID, platform)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	if err := l.client.Set(ctx, stateKey(st.Token), string(payload), l.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store oauth state: %w", err)
	}
	return st, nil
}

func (l *RedisStateLedger) Consume(ctx context.Context, token string) (*model.OAuthState, error) {
	raw, err := l.client.GetDel(ctx, stateKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrInvalidState
	}
	if err != nil {
		return nil, model.Wrap(model.ErrInvalidState, err)
	}
	var st model.OAuthState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, model.Wrap(model.ErrInvalidState, err)
	}
	if stateExpired(&st, l.now()) {
		return nil, model.ErrInvalidState
	}
	return &st, nil
}

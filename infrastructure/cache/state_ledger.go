package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"brand-publisher/domain/model"
	"brand-publisher/infrastructure/logger"

	"golang.org/x/oauth2"
)

const (
	DefaultStateTTL = 10 * time.Minute
	// stateGrace tolerates clock jitter between issue and callback.
	stateGrace = 50 * time.Millisecond
)

type stateGenerator func() (token, verifier string, err error)

func generateState() (string, string, error) {
	b := make([]byte, model.StateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate state token: %w", err)
	}
	return hex.EncodeToString(b), oauth2.GenerateVerifier(), nil
}

func newOAuthState(gen stateGenerator, now time.Time, ttl time.Duration, brandID, tenantID string, platform model.Platform) (*model.OAuthState, error) {
	token, verifier, err := gen()
	if err != nil {
		return nil, err
	}
	return &model.OAuthState{
		Token:        token,
		BrandID:      brandID,
		TenantID:     tenantID,
		Platform:     platform,
		CodeVerifier: verifier,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}, nil
}

func stateExpired(s *model.OAuthState, now time.Time) bool {
	return now.After(s.ExpiresAt.Add(stateGrace))
}

// MemoryStateLedger keeps pending handshakes in process memory.
// A restart drops every pending handshake; users simply restart the flow.
type MemoryStateLedger struct {
	mu       sync.Mutex
	states   map[string]*model.OAuthState
	ttl      time.Duration
	now      func() time.Time
	generate stateGenerator
}

func NewMemoryStateLedger(ttl time.Duration) *MemoryStateLedger {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &MemoryStateLedger{
		states:   make(map[string]*model.OAuthState),
		ttl:      ttl,
		now:      time.Now,
		generate: generateState,
	}
}

// WithClock replaces the time source, used by tests.
func (l *MemoryStateLedger) WithClock(now func() time.Time) *MemoryStateLedger {
	l.now = now
	return l
}

func (l *MemoryStateLedger) Issue(_ context.Context, brandID, tenantID string, platform model.Platform) (*model.OAuthState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := newOAuthState(l.generate, l.now(), l.ttl, brandID, tenantID, platform)
	if err != nil {
		return nil, err
	}
	l.states[st.Token] = st
	out := *st
	return &out, nil
}

func (l *MemoryStateLedger) Consume(_ context.Context, token string) (*model.OAuthState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.states[token]
	if !ok {
		return nil, model.ErrInvalidState
	}
	delete(l.states, token)
	if stateExpired(st, l.now()) {
		return nil, model.ErrInvalidState
	}
	return st, nil
}

// Sweep drops expired entries and returns how many were removed.
func (l *MemoryStateLedger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for token, st := range l.states {
		if stateExpired(st, now) {
			delete(l.states, token)
			removed++
		}
	}
	return removed
}

func (l *MemoryStateLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.states)
}

// Start sweeps on every tick until ctx is done.
func (l *MemoryStateLedger) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				logger.GetLogger().WithField("removed", n).Debug("Swept expired oauth states")
			}
		}
	}
}

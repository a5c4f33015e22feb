package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced manually by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	cfg.CleanupInterval = 0
	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	return l, clock
}

func TestAllow_RunBurstThenDenied(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig())

	for i := 0; i < DefaultRunBurst; i++ {
		info := l.Allow("10.0.0.1", "/extract", "POST")
		require.True(t, info.Allowed, "request %d", i+1)
		assert.Equal(t, DefaultRunsPerHour, info.Limit)
		assert.Equal(t, DefaultRunBurst-i-1, info.Remaining)
	}

	info := l.Allow("10.0.0.1", "/extract", "POST")
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 2*time.Minute, info.RetryAfter)
}

func TestAllow_Refill(t *testing.T) {
	l, clock := newTestLimiter(DefaultConfig())

	for i := 0; i < DefaultRunBurst; i++ {
		require.True(t, l.Allow("10.0.0.1", "/extract", "POST").Allowed)
	}
	require.False(t, l.Allow("10.0.0.1", "/extract", "POST").Allowed)

	// 30 per hour refills one token every two minutes.
	clock.Advance(2 * time.Minute)
	assert.True(t, l.Allow("10.0.0.1", "/extract", "POST").Allowed)
	assert.False(t, l.Allow("10.0.0.1", "/extract", "POST").Allowed)
}

func TestAllow_ClientsAndEndpointsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig())

	for i := 0; i < DefaultRunBurst; i++ {
		require.True(t, l.Allow("10.0.0.1", "/extract", "POST").Allowed)
	}
	assert.False(t, l.Allow("10.0.0.1", "/extract", "POST").Allowed)
	assert.True(t, l.Allow("10.0.0.2", "/extract", "POST").Allowed)
	assert.True(t, l.Allow("10.0.0.1", "/extract/stream", "POST").Allowed)
	assert.True(t, l.Allow("10.0.0.1", "/runs/7f9c2b1e", "GET").Allowed)
}

func TestAllow_Unlimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Allowlist["127.0.0.1"] = true
	l, _ := newTestLimiter(cfg)

	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("10.0.0.1", "/ping", "GET").Allowed)
		require.True(t, l.Allow("127.0.0.1", "/extract", "POST").Allowed)
	}
}

func TestAllow_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	l, _ := newTestLimiter(cfg)

	for i := 0; i < 10; i++ {
		require.True(t, l.Allow("10.0.0.1", "/extract", "POST").Allowed)
	}
}

func TestAllow_DefaultLimitForUnmatchedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultLimit = 2
	l, _ := newTestLimiter(cfg)

	assert.True(t, l.Allow("10.0.0.1", "/unknown", "GET").Allowed)
	assert.True(t, l.Allow("10.0.0.1", "/unknown", "GET").Allowed)
	info := l.Allow("10.0.0.1", "/unknown", "GET")
	assert.False(t, info.Allowed)
	assert.Equal(t, 2, info.Limit)
}

func TestSweep_RemovesIdleBuckets(t *testing.T) {
	l, clock := newTestLimiter(DefaultConfig())

	l.Allow("10.0.0.1", "/extract", "POST")
	clock.Advance(30 * time.Minute)
	l.Allow("10.0.0.2", "/extract", "POST")
	clock.Advance(45 * time.Minute)

	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "10.0.0.2 POST /extract")
}

func TestStop_Idempotent(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	endpoints := DefaultEndpoints(10, 2)

	tests := []struct {
		name   string
		path   string
		method string
		want   string
	}{
		{"exact", "/extract", "POST", "/extract"},
		{"exact stream", "/extract/stream", "POST", "/extract/stream"},
		{"prefix", "/runs/7f9c2b1e", "GET", "/runs/"},
		{"wrong method", "/extract", "GET", ""},
		{"unknown", "/metrics", "GET", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, endpoints)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Path)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RUNS_PER_HOUR", "12")
	t.Setenv("RATE_LIMIT_RUN_BURST", "1")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_ALLOWLIST", "10.0.0.1, 10.0.0.2,")

	cfg := LoadConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Allowlist)

	ep := MatchEndpoint("/extract", "POST", cfg.Endpoints)
	require.NotNil(t, ep)
	assert.Equal(t, 12, ep.Limit)
	assert.Equal(t, 1, ep.Burst)
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}

func TestLoadConfig_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "many")
	t.Setenv("RATE_LIMIT_CLEANUP_INTERVAL", "soon")

	cfg := LoadConfig()
	assert.Equal(t, DefaultLimit, cfg.DefaultLimit)
	assert.Equal(t, DefaultCleanupInterval, cfg.CleanupInterval)
}

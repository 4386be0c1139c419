package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/novatech/management-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	client := &Client{store: mock}

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "ip:login:10.0.0.1", 2, time.Minute)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if allowed != want || count != int64(i+1) {
			t.Fatalf("call %d: allowed=%v count=%d", i, allowed, count)
		}
	}
	key := "nt:rate_limit:ip:login:10.0.0.1"
	if got := mock.ttlMillis[key]; got != time.Minute.Milliseconds() {
		t.Fatalf("expected window armed once with %dms, got %d", time.Minute.Milliseconds(), got)
	}
	if mock.expireArms != 1 {
		t.Fatalf("expected a single expiry, got %d", mock.expireArms)
	}
}

func TestReleaseIfOwner(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockStore()}

	if ok, _ := client.SetNX(ctx, "nt:lock:cron-worker", "owner-a", time.Minute); !ok {
		t.Fatal("expected lock to be taken")
	}
	released, err := client.ReleaseIfOwner(ctx, "nt:lock:cron-worker", "owner-b")
	if err != nil || released {
		t.Fatalf("foreign owner must not release, released=%v err=%v", released, err)
	}
	released, err = client.ReleaseIfOwner(ctx, "nt:lock:cron-worker", "owner-a")
	if err != nil || !released {
		t.Fatalf("owner should release, released=%v err=%v", released, err)
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockStore()}

	if err := client.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("expected v, got %q err=%v", got, err)
	}
	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "k"); !IsNil(err) {
		t.Fatalf("expected missing key after del, got %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error without a store")
	}
	if _, _, err := client.FixedWindowAllow(context.Background(), "s", 1, time.Second); err == nil {
		t.Fatal("expected error without a store")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without raw client should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.RateLimitKey("scope"):   "nt:rate_limit:scope",
		client.LockKey("cron-worker"):  "nt:lock:cron-worker",
		client.AccessSessionKey("jti"): "nt:session:access:jti",
		client.AccessSessionKey(" "):   "nt:session:access",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@cache:6380/3", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 3 || opts.Password != "secret" {
		t.Fatalf("url fields not honoured: %+v", opts)
	}
	if opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("config should fill unset options: pool=%d dial=%s", opts.PoolSize, opts.DialTimeout)
	}
}

type mockStore struct {
	data       map[string]string
	counters   map[string]int64
	ttlMillis  map[string]int64
	expireArms int
}

func newMockStore() *mockStore {
	return &mockStore{
		data:      make(map[string]string),
		counters:  make(map[string]int64),
		ttlMillis: make(map[string]int64),
	}
}

func (m *mockStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockStore) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockStore) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval emulates the two scripts the client ships.
func (m *mockStore) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	switch script {
	case fixedWindowScript:
		m.counters[key]++
		if m.counters[key] == 1 {
			m.ttlMillis[key] = args[0].(int64)
			m.expireArms++
		}
		return redis.NewCmdResult(m.counters[key], nil)
	case releaseIfOwnerScript:
		if m.data[key] == args[0].(string) {
			delete(m.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
}

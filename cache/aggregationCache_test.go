package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"elasticsearch-demo-backend/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type brandCount struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

func newTestCache(t *testing.T, hooks ...redis.Hook) (*RedisCache, *miniredis.Miniredis, *observer.ObservedLogs) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	for _, h := range hooks {
		client.AddHook(h)
	}
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	return NewRedisCache(client, zap.New(core)), mr, logs
}

// refuseDel fails every DEL and lets other commands through.
type refuseDel struct{}

func (refuseDel) DialHook(next redis.DialHook) redis.DialHook { return next }

func (refuseDel) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "del" {
			err := errors.New("del refused")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (refuseDel) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestGetMissThenSet(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()
	params := map[string]string{"price_avg": "true"}

	var got []brandCount
	found, err := c.Get(ctx, "brands", params, &got)
	if err != nil || found {
		t.Fatalf("Get on empty cache = %t, %v; want miss", found, err)
	}

	want := []brandCount{{"华为", 2}, {"小米", 1}}
	if err := c.Set(ctx, "brands", params, want, 10*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	key := utils.GenerateHash("brands", params)
	if !mr.Exists(key) {
		t.Fatalf("key %s not stored", key)
	}
	if ttl := mr.TTL(key); ttl != 10*time.Minute {
		t.Errorf("TTL = %v, want 10m", ttl)
	}

	found, err = c.Get(ctx, "brands", params, &got)
	if err != nil || !found {
		t.Fatalf("Get after Set = %t, %v", found, err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	// other parameters are another entry
	found, _ = c.Get(ctx, "brands", map[string]string{"price_avg": "false"}, &got)
	if found {
		t.Error("entry leaked across parameters")
	}
}

func TestGetDropsUndecodableEntry(t *testing.T) {
	c, mr, logs := newTestCache(t)
	params := map[string]string{"price_avg": "true"}
	key := utils.GenerateHash("brands", params)
	if err := mr.Set(key, "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var got []brandCount
	found, err := c.Get(context.Background(), "brands", params, &got)
	if err != nil || found {
		t.Fatalf("Get = %t, %v; want miss", found, err)
	}
	if mr.Exists(key) {
		t.Error("undecodable entry was kept")
	}
	if logs.FilterMessage("Dropping undecodable cache entry").Len() != 1 {
		t.Errorf("logs = %v", logs.All())
	}
}

func TestGetLogsFailedDrop(t *testing.T) {
	c, mr, logs := newTestCache(t, refuseDel{})
	params := map[string]string{"price_avg": "true"}
	key := utils.GenerateHash("brands", params)
	_ = mr.Set(key, "{broken")

	var got []brandCount
	found, err := c.Get(context.Background(), "brands", params, &got)
	if err != nil || found {
		t.Fatalf("Get = %t, %v; want miss", found, err)
	}
	entries := logs.FilterMessage("Failed to delete cache entry").All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Errorf("logs = %v", logs.All())
	}
}

func TestInvalidateRemovesOnlyResource(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()

	for _, avg := range []string{"true", "false"} {
		if err := c.Set(ctx, "brands", map[string]string{"price_avg": avg}, []brandCount{}, time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := c.Set(ctx, "categories", nil, []string{"手机"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := c.Invalidate(ctx, "brands"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	keys := mr.Keys()
	if len(keys) != 1 || keys[0] != utils.GenerateHash("categories", nil) {
		t.Errorf("keys after invalidate = %v", keys)
	}

	// nothing left to drop
	if err := c.Invalidate(ctx, "brands"); err != nil {
		t.Errorf("second Invalidate: %v", err)
	}
}

func TestRedisErrorsSurface(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()
	mr.SetError("LOADING dataset in memory")

	var got []brandCount
	if found, err := c.Get(ctx, "brands", nil, &got); err == nil || found {
		t.Errorf("Get = %t, %v; want error", found, err)
	}
	if err := c.Set(ctx, "brands", nil, got, time.Minute); err == nil {
		t.Error("Set should fail")
	}
	if err := c.Invalidate(ctx, "brands"); err == nil {
		t.Error("Invalidate should fail")
	}
}

func TestSetRejectsUnencodableValue(t *testing.T) {
	c, mr, _ := newTestCache(t)
	if err := c.Set(context.Background(), "brands", nil, make(chan int), time.Minute); err == nil {
		t.Error("Set(chan) should fail")
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("keys = %v", mr.Keys())
	}
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()
	if err := c.Set(ctx, "brands", nil, 1, time.Minute); err != nil {
		t.Fatal(err)
	}
	var v int
	if found, err := c.Get(ctx, "brands", nil, &v); found || err != nil {
		t.Errorf("Noop.Get = %t, %v", found, err)
	}
	if err := c.Invalidate(ctx, "brands"); err != nil {
		t.Error(err)
	}
}

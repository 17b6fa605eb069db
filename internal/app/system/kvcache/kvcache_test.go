package kvcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/cinecircle/cinecircle/internal/app/system/kvcache"
)

func TestMemory_SetGet(t *testing.T) {
	c := kvcache.NewMemory()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}

	c.Set(ctx, "genres", `[{"id":27,"name":"Horror"}]`, time.Minute)
	got, ok := c.Get(ctx, "genres")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got != `[{"id":27,"name":"Horror"}]` {
		t.Errorf("value: got %q", got)
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := kvcache.NewMemory()
	ctx := context.Background()

	c.Set(ctx, "k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestMemory_Overwrite(t *testing.T) {
	c := kvcache.NewMemory()
	ctx := context.Background()

	c.Set(ctx, "k", "v1", time.Minute)
	c.Set(ctx, "k", "v2", time.Minute)

	got, _ := c.Get(ctx, "k")
	if got != "v2" {
		t.Errorf("value: got %q, want v2", got)
	}
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLRUProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewLRUProvider(2, time.Minute)

	if _, err := p.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
	if err := p.Set(ctx, "a", []byte("report"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := p.Get(ctx, "a")
	if err != nil || string(got) != "report" {
		t.Fatalf("expected cached report, got %q (%v)", got, err)
	}
}

func TestLRUProviderEvictsOldest(t *testing.T) {
	ctx := context.Background()
	p := NewLRUProvider(2, time.Minute)
	_ = p.Set(ctx, "a", []byte("1"), 0)
	_ = p.Set(ctx, "b", []byte("2"), 0)
	_ = p.Set(ctx, "c", []byte("3"), 0)

	if _, err := p.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected oldest entry evicted, got %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", p.Len())
	}
}

func TestLRUProviderPerEntryTTL(t *testing.T) {
	ctx := context.Background()
	p := NewLRUProvider(4, time.Hour)
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return current }

	_ = p.Set(ctx, "short", []byte("x"), time.Second)
	current = current.Add(2 * time.Second)
	if _, err := p.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestNoopProviderAlwaysMisses(t *testing.T) {
	var p Provider = NoopProvider{}
	_ = p.Set(context.Background(), "k", []byte("v"), 0)
	if _, err := p.Get(context.Background(), "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss from noop provider")
	}
}

func TestJSONHelpersDropCorruptEntries(t *testing.T) {
	ctx := context.Background()
	p := NewLRUProvider(4, time.Minute)

	type payload struct{ N int }
	if err := SetJSON(ctx, p, "ok", payload{N: 7}, 0); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	var got payload
	if err := GetJSON(ctx, p, "ok", &got); err != nil || got.N != 7 {
		t.Fatalf("GetJSON: %v %+v", err, got)
	}

	if err := p.Set(ctx, "bad", []byte("{"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := GetJSON(ctx, p, "bad", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected corrupt entry to read as a miss, got %v", err)
	}
	if _, err := p.Get(ctx, "bad"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected corrupt entry to be deleted, got %v", err)
	}
}

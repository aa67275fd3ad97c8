package locks

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeKV struct {
	data map[string]string
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if f.err != nil {
		return f.err
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		return fmt.Errorf("unexpected value type %T", value)
	}
	return nil
}

func newTestStore() (*Store, *fakeKV) {
	kv := newFakeKV()
	return NewStore(kv, zerolog.Nop()), kv
}

func TestListEmptyRoom(t *testing.T) {
	store, _ := newTestStore()

	entries, err := store.List(context.Background(), "c1", "t1")
	if err != nil {
		t.Fatalf("List on empty room: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty set, got %v", entries)
	}
}

func TestAcquireOnePerMember(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	members := []string{"m1", "m2", "m3"}
	for i, m := range members {
		if _, err := store.Acquire(ctx, "c1", "t1", m, fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("Acquire(%s): %v", m, err)
		}
	}

	entries, err := store.List(ctx, "c1", "t1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != len(members) {
		t.Fatalf("expected %d entries, got %d", len(members), len(entries))
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.MemberID] {
			t.Errorf("member %s appears twice", e.MemberID)
		}
		seen[e.MemberID] = true
	}
}

func TestAcquireReplacesPreviousLock(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	if _, err := store.Acquire(ctx, "c1", "t1", "m1", "pA"); err != nil {
		t.Fatal(err)
	}
	entries, err := store.Acquire(ctx, "c1", "t1", "m1", "pB")
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after re-acquire, got %d", len(entries))
	}
	if entries[0].ProblemID != "pB" {
		t.Errorf("expected lock on pB, got %s", entries[0].ProblemID)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	store.Acquire(ctx, "c1", "t1", "m1", "pA")
	store.Acquire(ctx, "c1", "t1", "m2", "pB")

	for i := 0; i < 2; i++ {
		entries, err := store.Release(ctx, "c1", "t1", "m1")
		if err != nil {
			t.Fatalf("Release #%d: %v", i+1, err)
		}
		if len(entries) != 1 || entries[0].MemberID != "m2" {
			t.Fatalf("Release #%d: unexpected set %v", i+1, entries)
		}
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	store.Acquire(ctx, "c1", "t1", "m1", "pA")
	store.Acquire(ctx, "c1", "t2", "m1", "pB")

	entries, _ := store.List(ctx, "c1", "t1")
	if len(entries) != 1 || entries[0].ProblemID != "pA" {
		t.Fatalf("room c1:t1 polluted: %v", entries)
	}
}

func TestStoreErrorSurfaces(t *testing.T) {
	kv := newFakeKV()
	kv.err = fmt.Errorf("connection refused")
	store := NewStore(kv, zerolog.Nop())

	if _, err := store.List(context.Background(), "c1", "t1"); err == nil {
		t.Fatal("expected error when the store is unavailable")
	}
	if _, err := store.Acquire(context.Background(), "c1", "t1", "m1", "pA"); err == nil {
		t.Fatal("expected error when the store is unavailable")
	}
}

package registry

import (
	"context"
	"path/filepath"
	"testing"

	"stalkbot/internal/judge"
	"stalkbot/internal/storage"
	"stalkbot/pkg/logx"
)

func newMemRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Load(context.Background(), nil, logx.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r
}

func TestFollowIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newMemRegistry(t)

	if !r.Follow(ctx, judge.Codeforces, 100, "tourist") {
		t.Fatal("first follow should change the list")
	}
	if r.Follow(ctx, judge.Codeforces, 100, "tourist") {
		t.Fatal("second follow of the same handle should be a no-op")
	}
	if !r.Follow(ctx, judge.AtCoder, 100, "tourist") {
		t.Fatal("same handle on another platform is independent")
	}
	if got := r.List(judge.Codeforces, 100); len(got) != 1 || got[0] != "tourist" {
		t.Fatalf("List = %v", got)
	}
}

func TestFollowRejectsBlankAndUnknownPlatform(t *testing.T) {
	ctx := context.Background()
	r := newMemRegistry(t)
	if r.Follow(ctx, judge.Codeforces, 1, "   ") {
		t.Fatal("blank handle accepted")
	}
	if r.Follow(ctx, judge.Platform("topcoder"), 1, "x") {
		t.Fatal("unknown platform accepted")
	}
}

func TestUnfollowKeepsOrder(t *testing.T) {
	ctx := context.Background()
	r := newMemRegistry(t)
	for _, h := range []string{"a", "b", "c"} {
		r.Follow(ctx, judge.Codeforces, 7, h)
	}
	if !r.Unfollow(ctx, judge.Codeforces, 7, "b") {
		t.Fatal("unfollow of a present handle should report true")
	}
	if r.Unfollow(ctx, judge.Codeforces, 7, "b") {
		t.Fatal("unfollow of an absent handle should report false")
	}
	got := r.List(judge.Codeforces, 7)
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("List after unfollow = %v, want [a c]", got)
	}
}

func TestHandleIndex(t *testing.T) {
	ctx := context.Background()
	r := newMemRegistry(t)
	r.Follow(ctx, judge.Codeforces, 100, "tourist")
	r.Follow(ctx, judge.Codeforces, 200, "tourist")
	r.Follow(ctx, judge.Codeforces, 200, "alice")
	r.Follow(ctx, judge.AtCoder, 300, "chokudai")

	idx := r.HandleIndex(judge.Codeforces)
	if len(idx) != 2 {
		t.Fatalf("index has %d handles, want 2", len(idx))
	}
	if got := idx["tourist"]; got.Cardinality() != 2 || !got.Contains(100) || !got.Contains(200) {
		t.Fatalf("tourist chats = %v", got)
	}
	if got := idx["alice"]; got.Cardinality() != 1 || !got.Contains(200) {
		t.Fatalf("alice chats = %v", got)
	}

	// The index is a snapshot; later mutations must not leak into it.
	r.Follow(ctx, judge.Codeforces, 999, "alice")
	if idx["alice"].Contains(999) {
		t.Fatal("index snapshot mutated by a later follow")
	}
}

func TestNicksPerPlatform(t *testing.T) {
	ctx := context.Background()
	r := newMemRegistry(t)

	if _, ok := r.Nick(judge.Codeforces, 5); ok {
		t.Fatal("nick should be unset initially")
	}
	r.SetNick(ctx, judge.Codeforces, 5, "alice")
	r.SetNick(ctx, judge.AtCoder, 5, "alice_ac")

	if h, ok := r.Nick(judge.Codeforces, 5); !ok || h != "alice" {
		t.Fatalf("cf nick = %q, %v", h, ok)
	}
	prof := r.Profile(5)
	if prof.CF != "alice" || prof.AC != "alice_ac" {
		t.Fatalf("Profile = %+v", prof)
	}
}

func TestLastSeen(t *testing.T) {
	ctx := context.Background()
	r := newMemRegistry(t)

	if _, ok := r.LastSeen(judge.Codeforces, "tourist"); ok {
		t.Fatal("last seen should be empty initially")
	}
	r.SetLastSeen(ctx, judge.Codeforces, "tourist", "42")
	if id, ok := r.LastSeen(judge.Codeforces, "tourist"); !ok || id != "42" {
		t.Fatalf("LastSeen = %q, %v", id, ok)
	}
	if _, ok := r.LastSeen(judge.AtCoder, "tourist"); ok {
		t.Fatal("last seen must be platform-scoped")
	}
}

func TestPersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := storage.Open(storage.Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	r, err := Load(ctx, store, logx.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r.Follow(ctx, judge.Codeforces, 100, "tourist")
	r.SetNick(ctx, judge.AtCoder, 100, "chokudai")
	r.SetLastSeen(ctx, judge.Codeforces, "tourist", "7")

	r2, err := Load(ctx, store, logx.Nop())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := r2.List(judge.Codeforces, 100); len(got) != 1 || got[0] != "tourist" {
		t.Fatalf("reloaded list = %v", got)
	}
	if h, ok := r2.Nick(judge.AtCoder, 100); !ok || h != "chokudai" {
		t.Fatalf("reloaded nick = %q, %v", h, ok)
	}
	if id, ok := r2.LastSeen(judge.Codeforces, "tourist"); !ok || id != "7" {
		t.Fatalf("reloaded last seen = %q, %v", id, ok)
	}
}

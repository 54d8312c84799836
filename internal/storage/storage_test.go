package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"stalkbot/internal/judge"
	"stalkbot/pkg/logx"
)

func sampleState() *State {
	st := NewState()
	st.Nicks[100] = Profile{CF: "alice", AC: "alice_ac"}
	st.Nicks[-200] = Profile{CF: "bob"}
	st.Tracks[judge.Codeforces] = map[int64][]string{
		100:  {"tourist", "alice"},
		-200: {"tourist"},
	}
	st.Tracks[judge.AtCoder] = map[int64][]string{
		100: {"chokudai"},
	}
	st.LastSeen[judge.Codeforces] = map[string]string{"tourist": "987654321"}
	st.LastSeen[judge.AtCoder] = map[string]string{"chokudai": "abc300#abc300_d#1700000000"}
	return st
}

func assertStateEqual(t *testing.T, got, want *State) {
	t.Helper()
	if len(got.Nicks) != len(want.Nicks) {
		t.Fatalf("nicks: got %d entries, want %d", len(got.Nicks), len(want.Nicks))
	}
	for chat, p := range want.Nicks {
		if got.Nicks[chat] != p {
			t.Errorf("nicks[%d] = %+v, want %+v", chat, got.Nicks[chat], p)
		}
	}
	for p, chats := range want.Tracks {
		for chat, handles := range chats {
			gotHandles := got.Tracks[p][chat]
			if len(gotHandles) != len(handles) {
				t.Fatalf("tracks[%s][%d] = %v, want %v", p, chat, gotHandles, handles)
			}
			for i := range handles {
				if gotHandles[i] != handles[i] {
					t.Errorf("tracks[%s][%d][%d] = %q, want %q", p, chat, i, gotHandles[i], handles[i])
				}
			}
		}
	}
	for p, seen := range want.LastSeen {
		for handle, id := range seen {
			if got.LastSeen[p][handle] != id {
				t.Errorf("last_seen[%s][%s] = %q, want %q", p, handle, got.LastSeen[p][handle], id)
			}
		}
	}
}

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) = %T, want nil store", driver, st)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	want := sampleState()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertStateEqual(t, got, want)
}

func TestFileLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Nicks) != 0 || len(got.Tracks) != 0 || len(got.LastSeen) != 0 {
		t.Fatalf("fresh state not empty: %+v", got)
	}
}

func TestFileSkipsMalformedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	raw := `{"nicks":{"abc":{"CF":"x"},"100":{"CF":"alice"}},"tracks":{"cf":{"100":["tourist"]},"mystery":{"1":["y"]}}}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Nicks) != 1 || got.Nicks[100].CF != "alice" {
		t.Fatalf("nicks = %+v, want only chat 100", got.Nicks)
	}
	if _, ok := got.Tracks["mystery"]; ok {
		t.Fatal("unknown platform survived load")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	want := sampleState()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// A second save must replace, not accumulate.
	delete(want.Tracks[judge.Codeforces], -200)
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertStateEqual(t, got, want)
	if _, ok := got.Tracks[judge.Codeforces][-200]; ok {
		t.Fatal("removed track survived a full-state save")
	}
}

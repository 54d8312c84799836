package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"stalkbot/internal/judge"
	logx "stalkbot/pkg/logx"
)

// fileStore is a dependency-free persistence backend: the whole state as
// one JSON document, replaced atomically (write tmp, rename) on every Save.
type fileStore struct {
	log  logx.Logger
	path string

	mu sync.Mutex
}

// wireState is the on-disk shape. JSON objects need string keys, so chat
// ids are stored as their decimal form.
type wireState struct {
	Nicks    map[string]Profile             `json:"nicks,omitempty"`
	Tracks   map[string]map[string][]string `json:"tracks,omitempty"`
	LastSeen map[string]map[string]string   `json:"last_seen,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) Load(ctx context.Context) (*State, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewState(), nil
	}
	if err != nil {
		return nil, err
	}

	var w wireState
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}

	st := NewState()
	for key, p := range w.Nicks {
		chat, ok := parseChatKey(key)
		if !ok {
			s.log.Warn("skipping malformed chat key", logx.String("key", key))
			continue
		}
		st.Nicks[chat] = p
	}
	for tag, chats := range w.Tracks {
		p := judge.Platform(tag)
		if !p.Valid() {
			s.log.Warn("skipping unknown platform", logx.String("platform", tag))
			continue
		}
		byChat := make(map[int64][]string, len(chats))
		for key, handles := range chats {
			chat, ok := parseChatKey(key)
			if !ok {
				s.log.Warn("skipping malformed chat key", logx.String("key", key))
				continue
			}
			byChat[chat] = append([]string(nil), handles...)
		}
		st.Tracks[p] = byChat
	}
	for tag, seen := range w.LastSeen {
		p := judge.Platform(tag)
		if !p.Valid() {
			continue
		}
		m := make(map[string]string, len(seen))
		for handle, id := range seen {
			m[handle] = id
		}
		st.LastSeen[p] = m
	}
	return st, nil
}

func (s *fileStore) Save(ctx context.Context, st *State) error {
	_ = ctx
	w := wireState{
		Nicks:    make(map[string]Profile, len(st.Nicks)),
		Tracks:   make(map[string]map[string][]string, len(st.Tracks)),
		LastSeen: make(map[string]map[string]string, len(st.LastSeen)),
	}
	for chat, p := range st.Nicks {
		w.Nicks[strconv.FormatInt(chat, 10)] = p
	}
	for p, chats := range st.Tracks {
		byChat := make(map[string][]string, len(chats))
		for chat, handles := range chats {
			byChat[strconv.FormatInt(chat, 10)] = append([]string(nil), handles...)
		}
		w.Tracks[string(p)] = byChat
	}
	for p, seen := range st.LastSeen {
		m := make(map[string]string, len(seen))
		for handle, id := range seen {
			m[handle] = id
		}
		w.LastSeen[string(p)] = m
	}

	b, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// parseChatKey normalizes a decimal chat id key. Leading/trailing space is
// tolerated; anything non-numeric is rejected.
func parseChatKey(key string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

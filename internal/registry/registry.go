// Package registry keeps the bot's tracking state: which handles each chat
// follows per judge, the chats' own handles, and the newest submission id
// already reported per handle.
//
// Memory is authoritative. Every mutation is written through to the
// configured store best-effort; a failed save is logged and the in-memory
// state stays as the source of truth.
package registry

import (
	"context"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"stalkbot/internal/judge"
	"stalkbot/internal/storage"
	logx "stalkbot/pkg/logx"
)

type Registry struct {
	log   logx.Logger
	store storage.Store // nil when persistence is disabled

	mu       sync.Mutex
	nicks    map[int64]storage.Profile
	tracks   map[judge.Platform]map[int64][]string
	lastSeen map[judge.Platform]map[string]string
}

// Load builds a registry from the store's saved state. A nil store yields
// an empty in-memory-only registry.
func Load(ctx context.Context, store storage.Store, log logx.Logger) (*Registry, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	st := storage.NewState()
	if store != nil {
		loaded, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		st = loaded
	}
	return &Registry{
		log:      log,
		store:    store,
		nicks:    st.Nicks,
		tracks:   st.Tracks,
		lastSeen: st.LastSeen,
	}, nil
}

// Follow adds handle to the chat's follow list on the platform. It reports
// whether the list changed; following an already-followed handle is a no-op.
func (r *Registry) Follow(ctx context.Context, p judge.Platform, chat int64, handle string) bool {
	handle = strings.TrimSpace(handle)
	if handle == "" || !p.Valid() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.tracks[p][chat] {
		if h == handle {
			return false
		}
	}
	if r.tracks[p] == nil {
		r.tracks[p] = make(map[int64][]string)
	}
	r.tracks[p][chat] = append(r.tracks[p][chat], handle)
	r.persistLocked(ctx)
	return true
}

// Unfollow removes handle from the chat's follow list. It reports whether
// the handle was present.
func (r *Registry) Unfollow(ctx context.Context, p judge.Platform, chat int64, handle string) bool {
	handle = strings.TrimSpace(handle)
	r.mu.Lock()
	defer r.mu.Unlock()

	handles := r.tracks[p][chat]
	for i, h := range handles {
		if h != handle {
			continue
		}
		handles = append(handles[:i], handles[i+1:]...)
		if len(handles) == 0 {
			delete(r.tracks[p], chat)
		} else {
			r.tracks[p][chat] = handles
		}
		r.persistLocked(ctx)
		return true
	}
	return false
}

// List returns the chat's follow list in insertion order.
func (r *Registry) List(p judge.Platform, chat int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tracks[p][chat]...)
}

// HandleIndex builds the reverse index for one platform: every followed
// handle mapped to the set of chats following it. The index is a fresh
// snapshot; callers own it.
func (r *Registry) HandleIndex(p judge.Platform) map[string]mapset.Set[int64] {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := make(map[string]mapset.Set[int64])
	for chat, handles := range r.tracks[p] {
		for _, h := range handles {
			set, ok := idx[h]
			if !ok {
				set = mapset.NewThreadUnsafeSet[int64]()
				idx[h] = set
			}
			set.Add(chat)
		}
	}
	return idx
}

// SetNick records the chat's own handle on the platform.
func (r *Registry) SetNick(ctx context.Context, p judge.Platform, chat int64, handle string) {
	handle = strings.TrimSpace(handle)
	r.mu.Lock()
	defer r.mu.Unlock()

	prof := r.nicks[chat]
	switch p {
	case judge.Codeforces:
		prof.CF = handle
	case judge.AtCoder:
		prof.AC = handle
	default:
		return
	}
	r.nicks[chat] = prof
	r.persistLocked(ctx)
}

// Nick returns the chat's own handle on the platform, if set.
func (r *Registry) Nick(p judge.Platform, chat int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prof := r.nicks[chat]
	var h string
	switch p {
	case judge.Codeforces:
		h = prof.CF
	case judge.AtCoder:
		h = prof.AC
	}
	return h, h != ""
}

// Profile returns both of the chat's own handles.
func (r *Registry) Profile(chat int64) storage.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nicks[chat]
}

// LastSeen returns the newest submission id already reported for the handle.
func (r *Registry) LastSeen(p judge.Platform, handle string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.lastSeen[p][handle]
	return id, ok
}

// SetLastSeen records the newest reported submission id for the handle.
func (r *Registry) SetLastSeen(ctx context.Context, p judge.Platform, handle, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastSeen[p] == nil {
		r.lastSeen[p] = make(map[string]string)
	}
	r.lastSeen[p][handle] = id
	r.persistLocked(ctx)
}

func (r *Registry) persistLocked(ctx context.Context) {
	if r.store == nil {
		return
	}
	st := &storage.State{
		Nicks:    make(map[int64]storage.Profile, len(r.nicks)),
		Tracks:   make(map[judge.Platform]map[int64][]string, len(r.tracks)),
		LastSeen: make(map[judge.Platform]map[string]string, len(r.lastSeen)),
	}
	for chat, prof := range r.nicks {
		st.Nicks[chat] = prof
	}
	for p, chats := range r.tracks {
		byChat := make(map[int64][]string, len(chats))
		for chat, handles := range chats {
			byChat[chat] = append([]string(nil), handles...)
		}
		st.Tracks[p] = byChat
	}
	for p, seen := range r.lastSeen {
		m := make(map[string]string, len(seen))
		for handle, id := range seen {
			m[handle] = id
		}
		st.LastSeen[p] = m
	}
	if err := r.store.Save(ctx, st); err != nil {
		r.log.Error("state save failed", logx.Err(err))
	}
}

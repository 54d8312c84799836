package storage

import (
	"errors"
	"time"

	"stalkbot/internal/judge"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free single-file JSON snapshot
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled and the bot keeps
// everything in memory only.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Profile holds the judge handles a chat registered for itself.
type Profile struct {
	CF string
	AC string
}

// State is the full persisted picture: who each chat follows, the chats'
// own handles, and the newest submission already reported per handle.
type State struct {
	Nicks    map[int64]Profile
	Tracks   map[judge.Platform]map[int64][]string
	LastSeen map[judge.Platform]map[string]string
}

func NewState() *State {
	return &State{
		Nicks:    make(map[int64]Profile),
		Tracks:   make(map[judge.Platform]map[int64][]string),
		LastSeen: make(map[judge.Platform]map[string]string),
	}
}

package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Storage controls how subscriptions and nicknames are persisted.
	Storage *StorageConfig `json:"storage,omitempty"`

	// Fetch controls the shared outbound HTTP client used for judge APIs.
	Fetch FetchConfig `json:"fetch"`

	// Stalker controls the background submission-watching loop.
	Stalker StalkerConfig `json:"stalker"`

	// Judges allows overriding judge API base URLs (mostly for tests).
	Judges JudgesConfig `json:"judges,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./stalkbot_data.json" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// FetchConfig controls the retrying HTTP fetch client.
//
// All durations are Go duration strings.
// Defaults (when fields are omitted/zero):
//   - timeout: "10s"
//   - retry_max: 3 (total attempts)
//   - retry_base: "1s" (doubles after each failed attempt)
type FetchConfig struct {
	Timeout   string `json:"timeout,omitempty"`
	RetryMax  int    `json:"retry_max,omitempty"`
	RetryBase string `json:"retry_base,omitempty"`
}

// StalkerConfig controls the background watch loop.
//
// Schedule accepts a Go duration ("60s"), HH:MM, or a cron expression.
// HandleDelay bounds the request rate against judge APIs while iterating
// tracked handles.
//
// Enabled, Codeforces and AtCoder are pointers so an omitted field means
// "enabled", matching an explicit false only when the operator asks for it.
type StalkerConfig struct {
	Enabled     *bool  `json:"enabled,omitempty"`
	Schedule    string `json:"schedule,omitempty"`
	HandleDelay string `json:"handle_delay,omitempty"`

	Codeforces *bool `json:"codeforces,omitempty"`
	AtCoder    *bool `json:"atcoder,omitempty"`
}

// LoopEnabled reports whether the watch loop should run at all.
func (s StalkerConfig) LoopEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type JudgesConfig struct {
	CodeforcesBaseURL string `json:"codeforces_base_url,omitempty"`
	AtCoderBaseURL    string `json:"atcoder_base_url,omitempty"`
}

package stalker

import (
	"testing"
	"time"
)

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		kind     specKind
		duration time.Duration
	}{
		{name: "cron", raw: "*/5 * * * *", kind: specCron},
		{name: "prefixed cron", raw: "cron:0 0 * * *", kind: specCron},
		{name: "descriptor", raw: "@hourly", kind: specCron},
		{name: "duration", raw: "60s", kind: specInterval, duration: time.Minute},
		{name: "prefixed interval", raw: "interval:45s", kind: specInterval, duration: 45 * time.Second},
		{name: "every prefix", raw: "every:2m30s", kind: specInterval, duration: 150 * time.Second},
		{name: "hhmm", raw: "00:05", kind: specInterval, duration: 5 * time.Minute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("parseSchedule(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if tt.kind == specInterval && got.Every != tt.duration {
				t.Fatalf("Every = %v, want %v", got.Every, tt.duration)
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "0s", "00:99", "cron:"} {
		if _, err := parseSchedule(raw); err == nil {
			t.Errorf("parseSchedule(%q): expected error", raw)
		}
	}
}

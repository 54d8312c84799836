package tgui

// Telegram caps outbound text by character count.
const (
	MaxMessageRunes = 4096
	MaxCaptionRunes = 1024
)

// TruncRunes shortens s to fit in max runes, ellipsis included.
// Strings already within the limit come back untouched.
func TruncRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

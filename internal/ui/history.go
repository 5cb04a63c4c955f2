package ui

import (
	"time"

	"github.com/Aman-CERP/simscore/internal/telemetry"
)

// DefaultHistorySize is how many comparisons the TUI keeps.
const DefaultHistorySize = 5

// PreviewLength is the number of characters kept per text in history.
const PreviewLength = 100

// HistoryEntry is one past comparison.
type HistoryEntry struct {
	Text1  string // preview
	Text2  string // preview
	Method string
	Score  float64
	At     time.Time
}

// History keeps the most recent comparisons in memory only.
type History struct {
	buf *telemetry.CircularBuffer[HistoryEntry]
}

// NewHistory creates a history holding up to size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{buf: telemetry.NewCircularBuffer[HistoryEntry](size)}
}

// Add records a comparison. Texts are cut to previews before storing.
func (h *History) Add(v ResultView) {
	h.buf.Add(HistoryEntry{
		Text1:  Preview(v.Text1, PreviewLength),
		Text2:  Preview(v.Text2, PreviewLength),
		Method: v.Method,
		Score:  v.Score,
		At:     time.Now(),
	})
}

// Entries returns entries newest first.
func (h *History) Entries() []HistoryEntry {
	items := h.buf.Items()
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return h.buf.Size()
}

// Preview returns the first n characters of s, with "..." appended when
// s was longer.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

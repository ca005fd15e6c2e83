package chat

import (
	"iter"
	"time"
)

// MediaPlaceholder replaces the text of turns that carry no text, such as image-only uploads.
const MediaPlaceholder = "[Media content]"

// Session captures one tutoring conversation held in memory.
type Session struct {
	ID           string
	Transcript   []Turn
	CreatedAt    time.Time
	LastActivity time.Time
	MessageCount int
}

// Summary is the list view of a live session.
type Summary struct {
	SessionID    string    `json:"sessionId"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// HistoryEntry is one rendered transcript line exposed to history consumers.
type HistoryEntry struct {
	ID   int    `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Summary returns the list view of s.
func (s Session) Summary() Summary {
	return Summary{
		SessionID:    s.ID,
		MessageCount: s.MessageCount,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
}

// Clone returns a copy of s whose transcript can be appended to without
// affecting the original. Turns themselves are immutable and shared.
func (s Session) Clone() Session {
	clone := s
	clone.Transcript = append([]Turn(nil), s.Transcript...)
	return clone
}

// History yields the transcript as numbered entries starting at 1. The
// sequence reads the snapshot held by s, so it can be ranged over any number
// of times.
func (s Session) History() iter.Seq[HistoryEntry] {
	transcript := s.Transcript
	return func(yield func(HistoryEntry) bool) {
		for i, turn := range transcript {
			text := turn.Content.Text
			if !turn.Content.HasText() {
				text = MediaPlaceholder
			}
			if !yield(HistoryEntry{ID: i + 1, Role: turn.Role, Text: text}) {
				return
			}
		}
	}
}

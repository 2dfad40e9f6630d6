package state

import (
	"time"
)

type MessageRole string

const (
	RoleUser  MessageRole = "user"
	RoleAgent MessageRole = "agent"
)

// Message is one conversation turn entry. Immutable once appended.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	// Handler identifies the producer for agent-role messages.
	Handler string `json:"handler,omitempty"`
}

// RoutingDecision is the routing context carried between turns. It is never
// re-executed; the next turn's classifier only reads it.
type RoutingDecision struct {
	Handler    string  `json:"handler"`
	Confidence float64 `json:"confidence"`
	Raw        string  `json:"raw,omitempty"`
}

// Session is a multi-turn conversational context owned by the Store.
// Messages are append-only; history is bounded by the store's retention.
type Session struct {
	ID           string           `json:"id"`
	Messages     []Message        `json:"messages,omitempty"`
	LastDecision *RoutingDecision `json:"last_decision,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	LastAccessAt time.Time        `json:"last_access_at"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    now.UTC(),
		LastAccessAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.LastAccessAt = now.UTC()
}

// AppendMessage appends and trims the oldest entries beyond maxHistory.
// maxHistory <= 0 means unbounded.
func (s *Session) AppendMessage(m Message, maxHistory int) {
	s.Messages = append(s.Messages, m)
	if maxHistory > 0 && len(s.Messages) > maxHistory {
		trimmed := make([]Message, maxHistory)
		copy(trimmed, s.Messages[len(s.Messages)-maxHistory:])
		s.Messages = trimmed
	}
}

// Recent returns up to n of the latest messages, oldest first.
func (s *Session) Recent(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if len(s.Messages) <= n {
		out := make([]Message, len(s.Messages))
		copy(out, s.Messages)
		return out
	}
	out := make([]Message, n)
	copy(out, s.Messages[len(s.Messages)-n:])
	return out
}

// Clone deep-copies the session so store internals never leak to callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	if s.LastDecision != nil {
		d := *s.LastDecision
		out.LastDecision = &d
	}
	return &out
}

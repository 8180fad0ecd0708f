// Package store persists chat sessions so a conversation can resume across
// process restarts.
package store

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Session is one stored conversation.
type Session struct {
	ID        string
	Model     string
	CreatedAt time.Time
}

// Message is one stored transcript entry, ordered by Seq within its session.
type Message struct {
	SessionID string
	Seq       int
	Role      string
	Content   string
	CreatedAt time.Time
}

// SessionStore defines the contract for session persistence.
type SessionStore interface {
	// CreateSession starts a new session for the given model.
	CreateSession(model string) (Session, error)

	// GetSession retrieves a session by ID.
	GetSession(id string) (Session, error)

	// ListSessions returns all sessions, newest first.
	ListSessions() ([]Session, error)

	// AppendMessage appends one transcript entry; Seq is assigned by the store.
	AppendMessage(sessionID, role, content string) (Message, error)

	// Messages returns a session's transcript in Seq order.
	Messages(sessionID string) ([]Message, error)

	// DeleteSession removes a session and its messages.
	DeleteSession(id string) error

	// Close releases the underlying database connection.
	Close() error
}

// ToTranscript rebuilds the in-memory transcript form from stored messages.
func ToTranscript(messages []Message) []*schema.Message {
	transcript := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		transcript = append(transcript, &schema.Message{
			Role:    schema.RoleType(m.Role),
			Content: m.Content,
		})
	}
	return transcript
}

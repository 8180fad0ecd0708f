package store

import (
	"testing"

	"github.com/cloudwego/eino/schema"
)

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newMemoryStore(t)

	created, err := s.CreateSession("gpt-4o")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.ID == "" {
		t.Fatal("session ID must be assigned")
	}

	got, err := s.GetSession(created.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", got.Model)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newMemoryStore(t)
	if _, err := s.GetSession("nope"); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestAppendAssignsSequence(t *testing.T) {
	s := newMemoryStore(t)
	session, err := s.CreateSession("gpt-4o")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	for i, content := range []string{"first", "second", "third"} {
		msg, err := s.AppendMessage(session.ID, "user", content)
		if err != nil {
			t.Fatalf("AppendMessage(%d): %v", i, err)
		}
		if msg.Seq != i+1 {
			t.Errorf("Seq = %d, want %d", msg.Seq, i+1)
		}
	}

	messages, err := s.Messages(session.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	if messages[2].Content != "third" {
		t.Errorf("messages out of order: %+v", messages)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	s := newMemoryStore(t)
	session, err := s.CreateSession("gpt-4o")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := s.AppendMessage(session.ID, "user", "hi"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	if err := s.DeleteSession(session.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	messages, err := s.Messages(session.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("messages survived session delete: %d left", len(messages))
	}
}

func TestToTranscript(t *testing.T) {
	transcript := ToTranscript([]Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	})
	if len(transcript) != 3 {
		t.Fatalf("got %d messages", len(transcript))
	}
	if transcript[0].Role != schema.System || transcript[2].Role != schema.Assistant {
		t.Errorf("roles not mapped: %v, %v", transcript[0].Role, transcript[2].Role)
	}
	if transcript[1].Content != "hello" {
		t.Errorf("content lost: %q", transcript[1].Content)
	}
}

package testsupport

import (
	"context"
	"testing"

	"github.com/partyshah/ai-math-tutor/internal/config"
	"github.com/partyshah/ai-math-tutor/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// NewSession creates a student plus an active session for tests.
func NewSession(t testing.TB, s *store.Store, studentName string) *store.Session {
	t.Helper()

	student, err := s.CreateStudent(context.Background(), studentName)
	if err != nil {
		t.Fatalf("store.CreateStudent: %v", err)
	}
	session, err := s.CreateSession(context.Background(), student.ID, nil, "")
	if err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return session
}

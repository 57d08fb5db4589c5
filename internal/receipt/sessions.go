package receipt

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/zombor/receipt-tracker/internal/expense"
)

// Sessions keeps one expense session per user
type Sessions struct {
	analyzer expense.Analyzer

	mu       sync.Mutex
	sessions map[string]*expense.Session
}

// NewSessions creates an empty registry whose sessions analyze with analyzer
func NewSessions(analyzer expense.Analyzer) *Sessions {
	return &Sessions{
		analyzer: analyzer,
		sessions: make(map[string]*expense.Session),
	}
}

// Get returns the session of user, creating it on first use
func (s *Sessions) Get(user string) *expense.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[user]
	if !ok {
		slog.Debug("Starting session", "user", user)
		session = expense.NewSession(s.analyzer, nil, nil)
		s.sessions[user] = session
	}
	return session
}

// Drop forgets the session of user so the next Get starts with an empty cache and ledger.
// A session with a batch in progress is kept and expense.ErrBatchRunning is returned.
func (s *Sessions) Drop(user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[user]
	if !ok {
		return nil
	}
	if err := session.Retire(); err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	delete(s.sessions, user)
	return nil
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

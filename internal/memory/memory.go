// Package memory keeps a bounded per-session conversation history.
//
// Each session holds at most 2×maxTurns entries (one user plus one assistant
// entry per logical turn); the oldest entries are evicted first. Sessions are
// created on first append and live until explicitly cleared — idle-session
// expiry is deliberately left to the deployment (SessionCount exists so an
// operator can watch growth).
package memory

import (
	"strings"
	"sync"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// perTurnCap is the maximum content length of a single turn when rendered
// into prompt context.
const perTurnCap = 500

// truncationMarker prefixes formatted context that was cut to fit maxChars.
const truncationMarker = "...[truncated]\n"

// Turn is a single conversation entry. Immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"ts"`
}

// session is one conversation's turn list with its own lock, so concurrent
// appends for the same session serialize without blocking other sessions.
type session struct {
	mu    sync.Mutex
	turns []Turn
}

// Store is an in-process conversation memory with per-session isolation.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	maxTurns int
}

// NewStore creates a Store bounding each session to maxTurns logical turns
// (2×maxTurns entries).
func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &Store{
		sessions: make(map[string]*session),
		maxTurns: maxTurns,
	}
}

// getOrCreate returns the session for id, creating it on first use.
func (s *Store) getOrCreate(id string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = &session{}
	s.sessions[id] = sess
	return sess
}

// Append adds a turn to the session, evicting the oldest entries when the
// 2×maxTurns bound would be exceeded.
func (s *Store) Append(sessionID string, role Role, content string) {
	sess := s.getOrCreate(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.turns = append(sess.turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	if limit := 2 * s.maxTurns; len(sess.turns) > limit {
		sess.turns = sess.turns[len(sess.turns)-limit:]
	}
}

// History returns a copy of the session's turns in order. Unknown sessions
// yield an empty history.
func (s *Store) History(sessionID string) []Turn {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// FormattedContext renders the session history as "Human:"/"Assistant:"
// lines for prompt injection. Each turn's content is capped at 500
// characters; if the whole rendering exceeds maxChars only the trailing
// maxChars characters are kept, prefixed with a truncation marker.
func (s *Store) FormattedContext(sessionID string, maxChars int) string {
	history := s.History(sessionID)
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history))
	for _, turn := range history {
		label := "Assistant"
		if turn.Role == RoleUser {
			label = "Human"
		}
		content := turn.Content
		if runes := []rune(content); len(runes) > perTurnCap {
			content = string(runes[:perTurnCap])
		}
		lines = append(lines, label+": "+content)
	}

	full := strings.Join(lines, "\n")
	if runes := []rune(full); maxChars > 0 && len(runes) > maxChars {
		full = truncationMarker + string(runes[len(runes)-maxChars:])
	}
	return full
}

// Recent returns the last n turns as role/content pairs for inclusion in a
// generation request.
func (s *Store) Recent(sessionID string, n int) []Turn {
	history := s.History(sessionID)
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return history
}

// Clear removes the session entirely; a cleared session is unknown again.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// SessionCount returns the number of live sessions.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

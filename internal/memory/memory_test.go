package memory

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestAppendAndHistory(t *testing.T) {
	s := NewStore(10)
	s.Append("sess1", RoleUser, "hello")
	s.Append("sess1", RoleAssistant, "hi there")

	history := s.History("sess1")
	if len(history) != 2 {
		t.Fatalf("History() returned %d turns, want 2", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "hello" {
		t.Errorf("first turn = %+v", history[0])
	}
	if history[1].Role != RoleAssistant || history[1].Content != "hi there" {
		t.Errorf("second turn = %+v", history[1])
	}
	if history[0].Timestamp.IsZero() {
		t.Error("turn timestamp should be set")
	}
}

func TestHistory_UnknownSession(t *testing.T) {
	s := NewStore(10)
	if h := s.History("nope"); len(h) != 0 {
		t.Errorf("History(unknown) = %v, want empty", h)
	}
}

func TestAppend_EvictsOldestBeyondBound(t *testing.T) {
	const maxTurns = 3
	s := NewStore(maxTurns)

	for i := 0; i < 10; i++ {
		s.Append("sess", RoleUser, fmt.Sprintf("question %d", i))
		s.Append("sess", RoleAssistant, fmt.Sprintf("answer %d", i))
	}

	history := s.History("sess")
	if len(history) != 2*maxTurns {
		t.Fatalf("History() length = %d, want %d", len(history), 2*maxTurns)
	}
	// Retained turns are exactly the most recent ones, in order.
	if history[0].Content != "question 7" {
		t.Errorf("oldest retained turn = %q, want %q", history[0].Content, "question 7")
	}
	if history[len(history)-1].Content != "answer 9" {
		t.Errorf("newest turn = %q, want %q", history[len(history)-1].Content, "answer 9")
	}
}

func TestAppend_BoundHeldAfterEveryMutation(t *testing.T) {
	const maxTurns = 2
	s := NewStore(maxTurns)
	for i := 0; i < 20; i++ {
		s.Append("sess", RoleUser, "x")
		if n := len(s.History("sess")); n > 2*maxTurns {
			t.Fatalf("after append %d: history length %d exceeds bound %d", i, n, 2*maxTurns)
		}
	}
}

func TestFormattedContext(t *testing.T) {
	s := NewStore(10)
	s.Append("sess", RoleUser, "What is Go?")
	s.Append("sess", RoleAssistant, "A programming language.")

	got := s.FormattedContext("sess", 2000)
	want := "Human: What is Go?\nAssistant: A programming language."
	if got != want {
		t.Errorf("FormattedContext() = %q, want %q", got, want)
	}
}

func TestFormattedContext_EmptySession(t *testing.T) {
	s := NewStore(10)
	if got := s.FormattedContext("nope", 2000); got != "" {
		t.Errorf("FormattedContext(unknown) = %q, want empty", got)
	}
}

func TestFormattedContext_PerTurnCap(t *testing.T) {
	s := NewStore(10)
	s.Append("sess", RoleUser, strings.Repeat("a", 800))

	got := s.FormattedContext("sess", 10000)
	want := "Human: " + strings.Repeat("a", perTurnCap)
	if got != want {
		t.Errorf("per-turn cap not applied: len=%d", len(got))
	}
}

func TestFormattedContext_Truncation(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 6; i++ {
		s.Append("sess", RoleUser, strings.Repeat("x", 100))
	}

	const maxChars = 150
	got := s.FormattedContext("sess", maxChars)
	if !strings.HasPrefix(got, truncationMarker) {
		t.Fatalf("truncated context should start with marker, got %q", got[:30])
	}
	if len(got) != len(truncationMarker)+maxChars {
		t.Errorf("truncated length = %d, want %d", len(got), len(truncationMarker)+maxChars)
	}
}

func TestFormattedContext_MultibyteTruncation(t *testing.T) {
	s := NewStore(10)
	s.Append("sess", RoleUser, strings.Repeat("é", 100))

	got := s.FormattedContext("sess", 101)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated context is not valid UTF-8: %q", got[:40])
	}
	if !strings.HasPrefix(got, truncationMarker) {
		t.Fatalf("truncated context should start with marker, got %q", got)
	}
	kept := strings.TrimPrefix(got, truncationMarker)
	if n := utf8.RuneCountInString(kept); n != 101 {
		t.Errorf("kept %d runes, want 101", n)
	}
}

func TestFormattedContext_MultibytePerTurnCap(t *testing.T) {
	s := NewStore(10)
	s.Append("sess", RoleUser, strings.Repeat("日", perTurnCap+50))

	got := s.FormattedContext("sess", 0)
	if !utf8.ValidString(got) {
		t.Fatalf("capped content is not valid UTF-8")
	}
	want := "Human: " + strings.Repeat("日", perTurnCap)
	if got != want {
		t.Errorf("per-turn cap kept %d runes, want %d", utf8.RuneCountInString(got)-7, perTurnCap)
	}
}

func TestRecent(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 5; i++ {
		s.Append("sess", RoleUser, fmt.Sprintf("msg %d", i))
	}

	recent := s.Recent("sess", 2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d turns", len(recent))
	}
	if recent[0].Content != "msg 3" || recent[1].Content != "msg 4" {
		t.Errorf("Recent(2) = %v", recent)
	}

	if got := s.Recent("sess", 0); got != nil {
		t.Errorf("Recent(0) = %v, want nil", got)
	}
	if got := s.Recent("unknown", 3); got != nil {
		t.Errorf("Recent(unknown) = %v, want nil", got)
	}
}

func TestClear(t *testing.T) {
	s := NewStore(10)
	s.Append("sess", RoleUser, "hello")
	if s.SessionCount() != 1 {
		t.Fatalf("SessionCount() = %d, want 1", s.SessionCount())
	}

	s.Clear("sess")
	if s.SessionCount() != 0 {
		t.Errorf("SessionCount() after Clear = %d, want 0", s.SessionCount())
	}
	if h := s.History("sess"); len(h) != 0 {
		t.Errorf("History() after Clear = %v, want empty", h)
	}
}

func TestConcurrentAppends_SameSession(t *testing.T) {
	const maxTurns = 5
	s := NewStore(maxTurns)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append("shared", RoleUser, fmt.Sprintf("msg %d", i))
		}(i)
	}
	wg.Wait()

	if n := len(s.History("shared")); n != 2*maxTurns {
		t.Errorf("history length after concurrent appends = %d, want %d", n, 2*maxTurns)
	}
}

func TestConcurrentSessions_Isolated(t *testing.T) {
	s := NewStore(10)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", i)
			s.Append(id, RoleUser, "question")
			s.Append(id, RoleAssistant, "answer")
		}(i)
	}
	wg.Wait()

	if s.SessionCount() != 20 {
		t.Fatalf("SessionCount() = %d, want 20", s.SessionCount())
	}
	for i := 0; i < 20; i++ {
		if n := len(s.History(fmt.Sprintf("sess-%d", i))); n != 2 {
			t.Errorf("session %d history length = %d, want 2", i, n)
		}
	}
}

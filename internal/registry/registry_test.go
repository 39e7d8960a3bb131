package registry

import (
	"errors"
	"testing"
	"time"

	"principality-lite/principality"
)

func newTestRegistry(t *testing.T, capacity int, ttl time.Duration) *Registry {
	t.Helper()
	r := New(capacity, ttl, time.Hour) // sweep manually in tests
	t.Cleanup(r.Stop)
	return r
}

func testGameState() *principality.GameState {
	return &principality.GameState{
		Players: []principality.PlayerState{{Name: "A"}, {Name: "B"}},
		Supply:  map[principality.CardName]int{principality.Province: 4},
		Phase:   principality.PhaseAction,
		Turn:    1,
	}
}

func TestCreateAndGet(t *testing.T) {
	r := newTestRegistry(t, 10, time.Hour)
	s := r.Create(testGameState(), SessionConfig{Seed: "s"})

	if s.ID == "" {
		t.Fatalf("session has no id")
	}
	got, err := r.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Fatalf("Get returned a different session")
	}
	if _, err := r.Get("game-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGetRefreshesActivity(t *testing.T) {
	r := newTestRegistry(t, 10, time.Hour)
	s := r.Create(testGameState(), SessionConfig{})
	before := s.LastActivity()
	time.Sleep(5 * time.Millisecond)
	if _, err := r.Get(s.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !s.LastActivity().After(before) {
		t.Fatalf("Get did not refresh activity")
	}
}

func TestCapacityEvictsLeastRecentlyActive(t *testing.T) {
	r := newTestRegistry(t, 3, time.Hour)
	a := r.Create(testGameState(), SessionConfig{})
	b := r.Create(testGameState(), SessionConfig{})
	c := r.Create(testGameState(), SessionConfig{})

	// Touch a and c; b becomes the oldest by activity.
	time.Sleep(2 * time.Millisecond)
	if _, err := r.Get(a.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := r.Get(c.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}

	d := r.Create(testGameState(), SessionConfig{})
	if r.Count() != 3 {
		t.Fatalf("count: got %d, want 3", r.Count())
	}
	if _, err := r.Get(b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("b should have been evicted, got %v", err)
	}
	for _, id := range []string{a.ID, c.ID, d.ID} {
		if _, err := r.Get(id); err != nil {
			t.Fatalf("%s should survive: %v", id, err)
		}
	}
}

func TestEvictionTieBreaksByCreationOrder(t *testing.T) {
	r := newTestRegistry(t, 2, time.Hour)
	now := time.Now()
	a := r.Create(testGameState(), SessionConfig{})
	b := r.Create(testGameState(), SessionConfig{})
	// Force identical activity timestamps.
	a.mu.Lock()
	a.lastActivity = now
	a.mu.Unlock()
	b.mu.Lock()
	b.lastActivity = now
	b.mu.Unlock()

	r.Create(testGameState(), SessionConfig{})
	if _, err := r.Get(a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("earliest-created session should lose the tie, got %v", err)
	}
	if _, err := r.Get(b.ID); err != nil {
		t.Fatalf("later-created session should survive: %v", err)
	}
}

func TestReplaceState(t *testing.T) {
	r := newTestRegistry(t, 10, time.Hour)
	s := r.Create(testGameState(), SessionConfig{})

	next := testGameState()
	next.Turn = 2
	if err := r.ReplaceState(s.ID, next); err != nil {
		t.Fatalf("ReplaceState: %v", err)
	}
	if s.State() != next {
		t.Fatalf("state pointer not swapped")
	}
	if s.MoveCount() != 1 {
		t.Fatalf("move count: got %d, want 1", s.MoveCount())
	}
	if err := r.ReplaceState("game-missing", next); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestEndAndList(t *testing.T) {
	r := newTestRegistry(t, 10, time.Hour)
	a := r.Create(testGameState(), SessionConfig{})
	b := r.Create(testGameState(), SessionConfig{})

	list := r.List()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("list not in creation order: %+v", list)
	}

	if !r.End(a.ID) {
		t.Fatalf("End returned false for live session")
	}
	if r.End(a.ID) {
		t.Fatalf("End of removed session should be a no-op")
	}
	if r.Count() != 1 {
		t.Fatalf("count: got %d, want 1", r.Count())
	}
}

func TestSweepExpired(t *testing.T) {
	r := newTestRegistry(t, 10, 10*time.Millisecond)
	old := r.Create(testGameState(), SessionConfig{})
	time.Sleep(20 * time.Millisecond)
	fresh := r.Create(testGameState(), SessionConfig{})

	if n := r.sweepExpired(); n != 1 {
		t.Fatalf("swept: got %d, want 1", n)
	}
	if _, err := r.Get(old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
	if _, err := r.Get(fresh.ID); err != nil {
		t.Fatalf("fresh session should survive: %v", err)
	}
}

func TestActivityDefersExpiry(t *testing.T) {
	r := newTestRegistry(t, 10, 30*time.Millisecond)
	s := r.Create(testGameState(), SessionConfig{})
	for i := 0; i < 3; i++ {
		time.Sleep(15 * time.Millisecond)
		if _, err := r.Get(s.ID); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if n := r.sweepExpired(); n != 0 {
		t.Fatalf("active session swept: %d", n)
	}
}

func TestBeginMoveRejectsConcurrentMutation(t *testing.T) {
	r := newTestRegistry(t, 10, time.Hour)
	s := r.Create(testGameState(), SessionConfig{})

	if !s.BeginMove() {
		t.Fatalf("first BeginMove should succeed")
	}
	if s.BeginMove() {
		t.Fatalf("second BeginMove should be rejected while in flight")
	}
	s.EndMove()
	if !s.BeginMove() {
		t.Fatalf("BeginMove should succeed after EndMove")
	}
	s.EndMove()
}

func TestGameIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := newGameID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

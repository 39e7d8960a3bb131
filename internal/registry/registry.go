package registry

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"sync"
	"time"

	"principality-lite/principality"
	"principality-lite/principality/strategy"
)

var (
	ErrNotFound     = errors.New("game not found")
	ErrMoveInFlight = errors.New("another move is already in progress")
)

// SessionConfig carries per-game options fixed at creation time.
type SessionConfig struct {
	Seed      string
	Tier      strategy.ModelTier
	Narration bool
	// Manual disables automated opponent play and turn-ownership checks;
	// an external controller drives both seats.
	Manual bool
}

// Session is one live game. The state pointer is swapped wholesale on every
// accepted move; readers always see a complete snapshot.
type Session struct {
	ID        string
	CreatedAt time.Time
	Config    SessionConfig

	mu           sync.RWMutex
	state        *principality.GameState
	lastActivity time.Time
	moveCount    int

	moveMu sync.Mutex
}

// GameID returns the session identifier.
func (s *Session) GameID() string { return s.ID }

// NarrationEnabled reports whether this game wants AI reasoning commentary.
func (s *Session) NarrationEnabled() bool { return s.Config.Narration }

// State returns the current snapshot. Snapshots are never mutated after
// publication, so callers may read them without further locking.
func (s *Session) State() *principality.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

func (s *Session) MoveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moveCount
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// BeginMove claims the session for a single mutation sequence. It returns
// false if another mutation is in flight; callers must not wait.
func (s *Session) BeginMove() bool { return s.moveMu.TryLock() }

func (s *Session) EndMove() { s.moveMu.Unlock() }

// Summary is the listing row for one session.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MoveCount    int       `json:"move_count"`
	Turn         int       `json:"turn"`
}

// Registry is a bounded in-memory session store. Capacity overflow evicts
// the least-recently-active session; a background sweeper drops sessions
// idle past the TTL.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string // creation order
	capacity int
	ttl      time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a registry and starts its sweep loop. Stop must be called to
// release the sweeper.
func New(capacity int, ttl, sweepEvery time.Duration) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		capacity: capacity,
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go r.sweepLoop(sweepEvery)
	return r
}

// Create registers a new session. When the registry is full, exactly one
// existing session is evicted first; the new session itself is never an
// eviction candidate.
func (r *Registry) Create(state *principality.GameState, cfg SessionConfig) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.capacity {
		r.evictOldestLocked()
	}

	now := time.Now()
	s := &Session{
		ID:           newGameID(),
		CreatedAt:    now,
		Config:       cfg,
		state:        state,
		lastActivity: now,
	}
	r.sessions[s.ID] = s
	r.order = append(r.order, s.ID)
	log.Printf("[Registry] Created game %s (%d active)", s.ID, len(r.sessions))
	return s
}

// Get looks up a session and refreshes its activity timestamp.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch()
	return s, nil
}

// ReplaceState atomically publishes a new state snapshot, bumping the move
// count and activity timestamp.
func (r *Registry) ReplaceState(id string, state *principality.GameState) error {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	s.mu.Lock()
	s.state = state
	s.moveCount++
	s.lastActivity = time.Now()
	s.mu.Unlock()
	return nil
}

// End removes a session. Removing an unknown id is a no-op.
func (r *Registry) End(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	r.removeLocked(id)
	log.Printf("[Registry] Ended game %s (%d active)", id, len(r.sessions))
	return true
}

// List returns session summaries in creation order.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		s := r.sessions[id]
		s.mu.RLock()
		out = append(out, Summary{
			ID:           s.ID,
			CreatedAt:    s.CreatedAt,
			LastActivity: s.lastActivity,
			MoveCount:    s.moveCount,
			Turn:         s.state.Turn,
		})
		s.mu.RUnlock()
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Stop shuts down the sweep loop. Idempotent.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

func (r *Registry) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.sweepExpired(); n > 0 {
				log.Printf("[Registry] Swept %d expired games", n)
			}
		case <-r.done:
			return
		}
	}
}

// sweepExpired removes every session idle past the TTL and returns how many
// were dropped.
func (r *Registry) sweepExpired() int {
	cutoff := time.Now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []string
	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		r.removeLocked(id)
	}
	return len(expired)
}

// evictOldestLocked drops the least-recently-active session. Walking the
// creation-ordered list with a strict comparison makes ties resolve to the
// earliest-created session.
func (r *Registry) evictOldestLocked() {
	victim := ""
	var victimAt time.Time
	for _, id := range r.order {
		at := r.sessions[id].LastActivity()
		if victim == "" || at.Before(victimAt) {
			victim, victimAt = id, at
		}
	}
	if victim == "" {
		return
	}
	r.removeLocked(victim)
	log.Printf("[Registry] Capacity reached, evicted %s", victim)
}

func (r *Registry) removeLocked(id string) {
	delete(r.sessions, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// newGameID returns an unguessable identifier like "game-3X1hx0WTQ5uEJw2R".
func newGameID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		panic("rand.Read failed: " + err.Error())
	}
	return "game-" + base64.RawURLEncoding.EncodeToString(buf)
}

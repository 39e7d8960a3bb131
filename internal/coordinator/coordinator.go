package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"principality-lite/internal/view"
	"principality-lite/principality"
	"principality-lite/principality/strategy"
)

var ErrTurnRunaway = errors.New("automated turn exceeded move limit")

// maxMovesPerTurn bounds a single automated turn. A legal turn is far
// shorter; hitting this means a stuck decision loop.
const maxMovesPerTurn = 200

type EventType string

const (
	EventTurnStarted  EventType = "turn_started"
	EventMoveMade     EventType = "move_made"
	EventStateChanged EventType = "state_changed"
	EventGameOver     EventType = "game_over"
	EventNarration    EventType = "narration"
)

type Event struct {
	Type    EventType `json:"type"`
	GameID  string    `json:"game_id"`
	Payload any       `json:"payload"`
}

type Listener func(Event)

// Store is the slice of the session registry the coordinator needs: swap in
// a new authoritative state for a game.
type Store interface {
	ReplaceState(id string, state *principality.GameState) error
}

// Session is what the coordinator reads from a live game.
type Session interface {
	GameID() string
	State() *principality.GameState
	NarrationEnabled() bool
}

// Options tunes the coordinator. Zero values get defaults.
type Options struct {
	// AutomatedSeat is the player index the coordinator plays. Seat 0 is
	// always the human.
	AutomatedSeat int
	// TurnTimeout caps a whole automated turn. Once it expires the rest of
	// the turn is played by the fallback strategy only.
	TurnTimeout time.Duration
	// DecisionTimeout caps a single decision within the turn budget.
	DecisionTimeout time.Duration
}

// Coordinator drives the automated player's turns: it resolves pending
// effects, asks the strategy pipeline for moves under time budgets, applies
// them through the store, and fans out events to listeners.
type Coordinator struct {
	engine          *principality.Game
	pipeline        *strategy.Pipeline
	fallback        strategy.Strategy
	store           Store
	automatedSeat   int
	turnTimeout     time.Duration
	decisionTimeout time.Duration

	mu        sync.RWMutex
	listeners map[EventType][]Listener
}

func New(engine *principality.Game, pipeline *strategy.Pipeline, fallback strategy.Strategy, store Store, opts Options) *Coordinator {
	if opts.AutomatedSeat == 0 {
		opts.AutomatedSeat = 1
	}
	if opts.TurnTimeout == 0 {
		opts.TurnTimeout = 60 * time.Second
	}
	if opts.DecisionTimeout == 0 {
		opts.DecisionTimeout = 15 * time.Second
	}
	return &Coordinator{
		engine:          engine,
		pipeline:        pipeline,
		fallback:        fallback,
		store:           store,
		automatedSeat:   opts.AutomatedSeat,
		turnTimeout:     opts.TurnTimeout,
		decisionTimeout: opts.DecisionTimeout,
		listeners:       make(map[EventType][]Listener),
	}
}

// On registers a listener for an event type. Listeners run synchronously on
// the turn loop goroutine; a panicking listener is isolated and logged, and
// never affects the game or other listeners.
func (c *Coordinator) On(t EventType, l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[t] = append(c.listeners[t], l)
}

func (c *Coordinator) emit(t EventType, gameID string, payload any) {
	c.mu.RLock()
	listeners := append([]Listener(nil), c.listeners[t]...)
	c.mu.RUnlock()
	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Coordinator] Listener panic on %s: %v", t, r)
				}
			}()
			l(Event{Type: t, GameID: gameID, Payload: payload})
		}()
	}
}

// AutomatedSeat returns the seat index the coordinator plays.
func (c *Coordinator) AutomatedSeat() int { return c.automatedSeat }

// IsAutomatedTurn reports whether the automated player holds the turn.
func (c *Coordinator) IsAutomatedTurn(s *principality.GameState) bool {
	return s.CurrentPlayer == c.automatedSeat
}

// IsHumanTurn is the complement of IsAutomatedTurn.
func (c *Coordinator) IsHumanTurn(s *principality.GameState) bool {
	return !c.IsAutomatedTurn(s)
}

// ShouldAutoPlay reports whether the coordinator has work to do: the
// automated player holds the turn, or a pending effect awaits its response.
func (c *Coordinator) ShouldAutoPlay(s *principality.GameState) bool {
	if c.engine.IsGameOver(s) {
		return false
	}
	if s.Pending != nil && s.Pending.TargetPlayer == c.automatedSeat {
		return true
	}
	return c.IsAutomatedTurn(s)
}

// TurnResult summarizes a completed automated turn.
type TurnResult struct {
	FinalState  *principality.GameState
	MovesPlayed int
	TotalTimeMs int64
	GameOver    bool
	TimedOut    bool
}

// RunAutomatedTurn plays the automated seat until the turn passes back to a
// human or the game ends. On an engine rejection the loop stops immediately
// and the last accepted state remains authoritative. The result summary is
// valid even when an error is returned.
func (c *Coordinator) RunAutomatedTurn(ctx context.Context, sess Session) (res TurnResult, err error) {
	gameID := sess.GameID()
	turnCtx, cancel := context.WithTimeout(ctx, c.turnTimeout)
	defer cancel()

	start := time.Now()
	timedOut := false
	defer func() {
		res.FinalState = sess.State()
		res.TotalTimeMs = time.Since(start).Milliseconds()
		res.GameOver = c.engine.IsGameOver(res.FinalState)
		res.TimedOut = timedOut
		log.Printf("[Coordinator] Automated turn for %s: %d moves in %dms (timedOut=%v)",
			gameID, res.MovesPlayed, res.TotalTimeMs, timedOut)
	}()

	state := sess.State()
	c.emit(EventTurnStarted, gameID, map[string]any{
		"seat":      c.automatedSeat,
		"turn":      state.Turn,
		"budget_ms": c.turnTimeout.Milliseconds(),
	})

	for moves := 0; ; moves++ {
		if moves >= maxMovesPerTurn {
			return res, ErrTurnRunaway
		}
		state = sess.State()

		if over, reason := c.engine.CheckGameOver(state); over {
			c.emitGameOver(gameID, state, reason)
			return res, nil
		}
		if state.Pending != nil {
			if state.Pending.TargetPlayer != c.automatedSeat {
				break // a human must respond
			}
			if err := c.resolvePending(turnCtx, sess, timedOut); err != nil {
				c.emitStateChanged(gameID, state)
				return res, err
			}
			res.MovesPlayed++
			continue
		}
		if !c.IsAutomatedTurn(state) {
			break
		}

		// Cleanup needs no decision; skip straight through it.
		if state.Phase == principality.PhaseCleanup {
			if err := c.apply(sess, strategy.Decision{
				Move:      principality.Move{Type: principality.MoveEndPhase},
				Reasoning: "cleanup",
				Strategy:  "coordinator",
			}); err != nil {
				return res, err
			}
			res.MovesPlayed++
			continue
		}

		dc := strategy.DecisionContext{
			GameID:      gameID,
			PlayerIndex: c.automatedSeat,
			State:       state,
			ValidMoves:  c.engine.GetValidMoves(state),
		}

		var dec strategy.Decision
		if timedOut || turnCtx.Err() != nil {
			timedOut = true
			dec = c.fallbackDecision(dc)
		} else {
			var err error
			dec, err = c.decide(turnCtx, dc)
			if err != nil {
				// Timeout or total pipeline failure: the rest of the turn
				// belongs to the deterministic strategy.
				if turnCtx.Err() != nil {
					timedOut = true
					log.Printf("[Coordinator] Turn budget exhausted for %s, switching to fallback", gameID)
				} else {
					log.Printf("[Coordinator] Pipeline failed for %s: %v", gameID, err)
				}
				dec = c.fallbackDecision(dc)
			}
		}

		if err := c.apply(sess, dec); err != nil {
			c.emitStateChanged(gameID, sess.State())
			return res, err
		}
		res.MovesPlayed++
	}

	c.emitStateChanged(gameID, sess.State())
	return res, nil
}

// decide races the pipeline against the per-decision budget. A late result
// from an abandoned attempt is discarded, never applied.
func (c *Coordinator) decide(ctx context.Context, dc strategy.DecisionContext) (strategy.Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, c.decisionTimeout)
	defer cancel()

	type result struct {
		dec strategy.Decision
		err error
	}
	ch := make(chan result, 1)
	go func() {
		dec, err := c.pipeline.Decide(ctx, dc)
		ch <- result{dec, err}
	}()
	select {
	case r := <-ch:
		return r.dec, r.err
	case <-ctx.Done():
		return strategy.Decision{}, ctx.Err()
	}
}

func (c *Coordinator) fallbackDecision(dc strategy.DecisionContext) strategy.Decision {
	dec, err := c.fallback.DecideMove(context.Background(), dc)
	if err != nil {
		// The fallback contract is totality; this is unreachable with a
		// conforming strategy.
		log.Printf("[Coordinator] Fallback failed for %s: %v", dc.GameID, err)
		dec = strategy.Decision{
			Move:     principality.Move{Type: principality.MoveEndPhase},
			Strategy: "coordinator",
		}
	}
	return dec
}

// ResolvePendingEffect answers a single pending effect aimed at the
// automated player, outside a full turn loop. It reports whether an effect
// was resolved.
func (c *Coordinator) ResolvePendingEffect(ctx context.Context, sess Session) (bool, error) {
	state := sess.State()
	if state.Pending == nil || state.Pending.TargetPlayer != c.automatedSeat {
		return false, nil
	}
	if err := c.resolvePending(ctx, sess, false); err != nil {
		return false, err
	}
	return true, nil
}

// resolvePending asks the pipeline for the effect response; a failed or
// engine-rejected pipeline answer falls back to the deterministic strategy.
// With fallbackOnly set the pipeline is skipped entirely.
func (c *Coordinator) resolvePending(ctx context.Context, sess Session, fallbackOnly bool) error {
	state := sess.State()
	dc := strategy.DecisionContext{
		GameID:      sess.GameID(),
		PlayerIndex: c.automatedSeat,
		State:       state,
		ValidMoves:  c.engine.GetValidMoves(state),
	}
	if !fallbackOnly {
		if dec, err := c.decide(ctx, dc); err == nil {
			if err := c.apply(sess, dec); err == nil {
				return nil
			}
			log.Printf("[Coordinator] Pending response for %s rejected, using deterministic strategy", dc.GameID)
		}
	}
	return c.apply(sess, c.fallbackDecision(dc))
}

// apply executes a decision and publishes the successor state.
func (c *Coordinator) apply(sess Session, dec strategy.Decision) error {
	gameID := sess.GameID()
	state := sess.State()
	next, err := c.engine.ExecuteMove(state, dec.Move)
	if err != nil {
		return fmt.Errorf("automated move %q rejected: %w", dec.Move.Type, err)
	}
	if err := c.store.ReplaceState(gameID, next); err != nil {
		return err
	}
	c.emit(EventMoveMade, gameID, map[string]any{
		"move":      dec.Move,
		"reasoning": dec.Reasoning,
		"strategy":  dec.Strategy,
		"state":     view.Project(next, view.Spectator),
	})
	if dec.Reasoning != "" && sess.NarrationEnabled() {
		c.emit(EventNarration, gameID, map[string]any{"text": dec.Reasoning})
	}
	return nil
}

func (c *Coordinator) emitStateChanged(gameID string, state *principality.GameState) {
	payload := map[string]any{
		"state": view.Project(state, view.Spectator),
	}
	// Valid-move descriptions name cards in the acting player's hand; publish
	// them only when a human must act next.
	if !c.automatedMustAct(state) {
		payload["valid_moves"] = view.FormatValidMoves(c.engine.GetValidMoves(state), state)
	}
	c.emit(EventStateChanged, gameID, payload)
}

// automatedMustAct reports whether the next decision belongs to the
// automated seat: its pending-effect response, or its turn.
func (c *Coordinator) automatedMustAct(s *principality.GameState) bool {
	if s.Pending != nil {
		return s.Pending.TargetPlayer == c.automatedSeat
	}
	return s.CurrentPlayer == c.automatedSeat
}

func (c *Coordinator) emitGameOver(gameID string, state *principality.GameState, reason string) {
	scores := c.engine.ComputeScores(state)
	winner := "tie"
	if idx := c.engine.Winner(scores); idx >= 0 {
		winner = state.Players[idx].Name
	}
	c.emit(EventGameOver, gameID, map[string]any{
		"reason": reason,
		"scores": scores,
		"winner": winner,
	})
}

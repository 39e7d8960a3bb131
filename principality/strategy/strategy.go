package strategy

import (
	"context"
	"errors"

	"principality-lite/principality"
)

var ErrNoDecision = errors.New("no strategy produced a decision")

// DecisionContext is the read-only input to a strategy: the full state, the
// seat deciding, and the moves the engine will accept.
type DecisionContext struct {
	GameID      string
	PlayerIndex int
	State       *principality.GameState
	ValidMoves  []principality.Move
}

// Decision is a chosen move plus the reasoning behind it.
type Decision struct {
	Move      principality.Move `json:"move"`
	Reasoning string            `json:"reasoning"`
	Strategy  string            `json:"strategy"`
}

// Strategy produces one move per call. DecideMove either returns a complete
// decision or an error; there are no partial results.
type Strategy interface {
	Name() string
	CanHandle(dc DecisionContext) bool
	DecideMove(ctx context.Context, dc DecisionContext) (Decision, error)
}

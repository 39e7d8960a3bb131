package strategy

import (
	"context"
	"log"
)

// Pipeline tries strategies in order until one produces a decision. A
// strategy that declines via CanHandle or fails via DecideMove passes the
// context to the next one untouched.
type Pipeline struct {
	strategies []Strategy
}

func NewPipeline(strategies ...Strategy) *Pipeline {
	return &Pipeline{strategies: strategies}
}

// Decide runs the chain. It returns ErrNoDecision only if every strategy
// declines or fails; a terminal strategy that never fails makes that
// unreachable in practice.
func (p *Pipeline) Decide(ctx context.Context, dc DecisionContext) (Decision, error) {
	for _, s := range p.strategies {
		if !s.CanHandle(dc) {
			continue
		}
		dec, err := s.DecideMove(ctx, dc)
		if err != nil {
			log.Printf("[Pipeline] %s failed for game %s: %v", s.Name(), dc.GameID, err)
			continue
		}
		return dec, nil
	}
	return Decision{}, ErrNoDecision
}

// Names lists the strategies in chain order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name()
	}
	return names
}

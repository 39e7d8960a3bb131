package strategy

import (
	"context"
	"fmt"
	"sort"

	"principality-lite/principality"
)

// BigMoney is the deterministic terminal strategy: play all treasures, buy
// the best affordable money or victory card, never play actions. It handles
// every decision context and never returns an error, so a pipeline ending in
// BigMoney always yields a move.
type BigMoney struct{}

func NewBigMoney() *BigMoney { return &BigMoney{} }

func (b *BigMoney) Name() string { return "big-money" }

func (b *BigMoney) CanHandle(DecisionContext) bool { return true }

func (b *BigMoney) DecideMove(_ context.Context, dc DecisionContext) (Decision, error) {
	s := dc.State
	if s.Pending != nil && s.Pending.TargetPlayer == dc.PlayerIndex {
		return b.respondToPending(s, dc.PlayerIndex), nil
	}

	p := &s.Players[dc.PlayerIndex]
	switch s.Phase {
	case principality.PhaseBuy:
		if hasMove(dc.ValidMoves, principality.MovePlayAllTreasures, "") {
			return b.decision(principality.Move{Type: principality.MovePlayAllTreasures},
				"play all treasures before buying"), nil
		}
		if move, reason, ok := b.pickBuy(p.Coins, s.Supply, dc.ValidMoves); ok {
			return b.decision(move, reason), nil
		}
		return b.decision(principality.Move{Type: principality.MoveEndPhase}, "nothing worth buying"), nil
	default:
		// Action and cleanup phases hold no interest for a money deck.
		return b.decision(principality.Move{Type: principality.MoveEndPhase}, "skip to the next phase"), nil
	}
}

func (b *BigMoney) pickBuy(coins int, supply map[principality.CardName]int, valid []principality.Move) (principality.Move, string, bool) {
	buy := func(name principality.CardName) (principality.Move, bool) {
		if supply[name] > 0 && hasMove(valid, principality.MoveBuy, name) {
			return principality.Move{Type: principality.MoveBuy, Card: name}, true
		}
		return principality.Move{}, false
	}

	if coins >= 8 {
		if m, ok := buy(principality.Province); ok {
			return m, fmt.Sprintf("buy Province with %d coins", coins), true
		}
	}
	if coins >= 6 {
		if m, ok := buy(principality.Gold); ok {
			return m, fmt.Sprintf("buy Gold with %d coins", coins), true
		}
	}
	if coins >= 5 && supply[principality.Province] <= 4 {
		if m, ok := buy(principality.Duchy); ok {
			return m, "buy Duchy in the endgame", true
		}
	}
	if coins >= 3 {
		if m, ok := buy(principality.Silver); ok {
			return m, fmt.Sprintf("buy Silver with %d coins", coins), true
		}
	}
	return principality.Move{}, "", false
}

// respondToPending answers attack effects mechanically: keep expensive
// cards, give up cheap ones.
func (b *BigMoney) respondToPending(s *principality.GameState, player int) Decision {
	pe := s.Pending
	hand := s.Players[player].Hand
	switch pe.Kind {
	case principality.EffectDiscardToHandSize:
		n := len(hand) - pe.HandLimit
		return b.decision(principality.Move{
			Type:  principality.MoveDiscardToHandSize,
			Cards: cheapest(hand, n),
		}, fmt.Sprintf("discard the %d cheapest cards", n))

	case principality.EffectTopdeckVictory:
		victories := filterVictory(hand)
		if len(victories) == 0 {
			return b.decision(principality.Move{Type: principality.MoveTopdeckVictory},
				"no victory card to topdeck")
		}
		pick := cheapest(victories, 1)[0]
		return b.decision(principality.Move{Type: principality.MoveTopdeckVictory, Card: pick},
			fmt.Sprintf("topdeck %s, the cheapest victory card", pick))

	case principality.EffectDiscardForCellar:
		// Ditch dead victory cards and curses, draw live ones.
		var dead []principality.CardName
		for _, name := range hand {
			if principality.IsVictory(name) || name == principality.Curse {
				dead = append(dead, name)
			}
		}
		return b.decision(principality.Move{
			Type:  principality.MoveDiscardForCellar,
			Cards: dead,
		}, fmt.Sprintf("cycle %d dead cards", len(dead)))
	}
	return b.decision(principality.Move{Type: principality.MoveEndPhase}, "unrecognized effect")
}

func (b *BigMoney) decision(m principality.Move, reason string) Decision {
	return Decision{Move: m, Reasoning: reason, Strategy: b.Name()}
}

func hasMove(moves []principality.Move, t principality.MoveType, card principality.CardName) bool {
	for _, m := range moves {
		if m.Type == t && (card == "" || m.Card == card) {
			return true
		}
	}
	return false
}

// cheapest returns the n lowest-cost cards from hand, stable by name among
// equals.
func cheapest(hand []principality.CardName, n int) []principality.CardName {
	sorted := append([]principality.CardName(nil), hand...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := principality.CardCost(sorted[i]), principality.CardCost(sorted[j])
		if ci != cj {
			return ci < cj
		}
		return sorted[i] < sorted[j]
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	if n < 0 {
		n = 0
	}
	return sorted[:n]
}

func filterVictory(hand []principality.CardName) []principality.CardName {
	var out []principality.CardName
	for _, name := range hand {
		if principality.IsVictory(name) {
			out = append(out, name)
		}
	}
	return out
}

// Package view projects full game states into what a single viewer is
// allowed to see. Opponent hands are reduced to counts; everything a
// tabletop spectator could observe stays public.
package view

import (
	"fmt"

	"principality-lite/principality"
)

// Spectator is the viewer index for an observer with no seat; no hand is
// revealed to them.
const Spectator = -1

// PlayerView is one seat as seen by the viewer. Hand is populated only for
// the viewer's own seat.
type PlayerView struct {
	Index     int                     `json:"index"`
	Name      string                  `json:"name"`
	HandCount int                     `json:"hand_count"`
	Hand      []principality.CardName `json:"hand,omitempty"`
	DrawCount int                     `json:"draw_count"`
	Discard   []principality.CardName `json:"discard"`
	InPlay    []principality.CardName `json:"in_play"`
	Actions   int                     `json:"actions"`
	Buys      int                     `json:"buys"`
	Coins     int                     `json:"coins"`
}

// ClientGameState is the wire-safe projection of a game for one viewer.
type ClientGameState struct {
	Viewer        int                          `json:"viewer"`
	Players       []PlayerView                 `json:"players"`
	Supply        map[principality.CardName]int `json:"supply"`
	Trash         []principality.CardName      `json:"trash"`
	Kingdom       []principality.CardName      `json:"kingdom"`
	CurrentPlayer int                          `json:"current_player"`
	Phase         principality.Phase           `json:"phase"`
	Turn          int                          `json:"turn"`
	Pending       *principality.PendingEffect  `json:"pending_effect,omitempty"`
	Log           []string                     `json:"log"`
}

// Project builds the viewer's picture of the state. It copies everything it
// exposes, so the result stays valid after the underlying state is swapped.
func Project(s *principality.GameState, viewer int) ClientGameState {
	cs := ClientGameState{
		Viewer:        viewer,
		Players:       make([]PlayerView, len(s.Players)),
		Supply:        make(map[principality.CardName]int, len(s.Supply)),
		Trash:         append([]principality.CardName(nil), s.Trash...),
		Kingdom:       append([]principality.CardName(nil), s.Kingdom...),
		CurrentPlayer: s.CurrentPlayer,
		Phase:         s.Phase,
		Turn:          s.Turn,
		Log:           append([]string(nil), s.Log...),
	}
	for name, count := range s.Supply {
		cs.Supply[name] = count
	}
	if s.Pending != nil {
		pe := *s.Pending
		cs.Pending = &pe
	}
	for i := range s.Players {
		p := &s.Players[i]
		pv := PlayerView{
			Index:     i,
			Name:      p.Name,
			HandCount: len(p.Hand),
			DrawCount: len(p.Draw),
			Discard:   append([]principality.CardName(nil), p.Discard...),
			InPlay:    append([]principality.CardName(nil), p.InPlay...),
			Actions:   p.Actions,
			Buys:      p.Buys,
			Coins:     p.Coins,
		}
		if i == viewer {
			pv.Hand = append([]principality.CardName(nil), p.Hand...)
		}
		cs.Players[i] = pv
	}
	return cs
}

// DescribedMove pairs a legal move with a human-readable label.
type DescribedMove struct {
	principality.Move
	Description string `json:"description"`
}

// FormatValidMoves attaches descriptions to a legal-move list. It does no
// filtering of its own; the moves are already scoped to the acting player.
func FormatValidMoves(moves []principality.Move, s *principality.GameState) []DescribedMove {
	out := make([]DescribedMove, len(moves))
	for i, m := range moves {
		out[i] = DescribedMove{Move: m, Description: describe(m, s)}
	}
	return out
}

func describe(m principality.Move, s *principality.GameState) string {
	switch m.Type {
	case principality.MovePlayAction, principality.MovePlayTreasure:
		if c, err := principality.CardByName(m.Card); err == nil {
			return fmt.Sprintf("Play %s (%s)", m.Card, c.Description)
		}
		return fmt.Sprintf("Play %s", m.Card)
	case principality.MovePlayAllTreasures:
		return "Play all treasures"
	case principality.MoveBuy:
		return fmt.Sprintf("Buy %s ($%d)", m.Card, principality.CardCost(m.Card))
	case principality.MoveEndPhase:
		return fmt.Sprintf("End %s phase", s.Phase)
	case principality.MoveDiscardToHandSize:
		if s.Pending != nil {
			return fmt.Sprintf("Discard down to %d cards", s.Pending.HandLimit)
		}
		return "Discard down to hand size"
	case principality.MoveTopdeckVictory:
		if m.Card == "" {
			return "Reveal hand (no victory cards)"
		}
		return fmt.Sprintf("Put %s on top of your deck", m.Card)
	case principality.MoveDiscardForCellar:
		return "Discard any number of cards, then draw that many"
	}
	return string(m.Type)
}

package principality

import (
	"fmt"
	"strings"
)

// ParseMove turns a text command into a move, so thin clients can send
// "buy Silver" instead of structured JSON. Supported forms:
//
//	end | end phase
//	play <card> | play all
//	buy <card>
//	discard <card>[, <card>...]
//	topdeck <card> | reveal
func ParseMove(command string, s *GameState) (Move, error) {
	command = strings.TrimSpace(command)
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Move{}, errInvalidMove("empty command")
	}
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(command[len(fields[0]):])

	switch verb {
	case "end":
		return Move{Type: MoveEndPhase}, nil

	case "play":
		if strings.EqualFold(rest, "all") {
			return Move{Type: MovePlayAllTreasures}, nil
		}
		name, err := resolveCardName(rest)
		if err != nil {
			return Move{}, err
		}
		if IsTreasure(name) {
			return Move{Type: MovePlayTreasure, Card: name}, nil
		}
		return Move{Type: MovePlayAction, Card: name}, nil

	case "buy":
		name, err := resolveCardName(rest)
		if err != nil {
			return Move{}, err
		}
		return Move{Type: MoveBuy, Card: name}, nil

	case "discard":
		var cards []CardName
		for _, part := range strings.Split(rest, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, err := resolveCardName(part)
			if err != nil {
				return Move{}, err
			}
			cards = append(cards, name)
		}
		if s != nil && s.Pending != nil && s.Pending.Kind == EffectDiscardForCellar {
			return Move{Type: MoveDiscardForCellar, Cards: cards}, nil
		}
		return Move{Type: MoveDiscardToHandSize, Cards: cards}, nil

	case "topdeck":
		name, err := resolveCardName(rest)
		if err != nil {
			return Move{}, err
		}
		return Move{Type: MoveTopdeckVictory, Card: name}, nil

	case "reveal":
		return Move{Type: MoveTopdeckVictory}, nil
	}
	return Move{}, errInvalidMove(fmt.Sprintf("unknown command %q", verb))
}

// resolveCardName matches a card name case-insensitively.
func resolveCardName(raw string) (CardName, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errInvalidMove("missing card name")
	}
	for name := range cardTable {
		if strings.EqualFold(string(name), raw) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCard, raw)
}

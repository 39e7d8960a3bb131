package strategy

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"principality-lite/principality"
)

//go:embed prompts/decide_move.txt
var decideMovePrompt string

var decideMoveTmpl = template.Must(template.New("decide_move").Parse(decideMovePrompt))

type supplyRow struct {
	Name  principality.CardName
	Count int
}

type promptData struct {
	Turn              int
	Phase             principality.Phase
	Actions           int
	Buys              int
	Coins             int
	Hand              string
	DiscardCount      int
	DrawCount         int
	OpponentHandCount int
	Supply            []supplyRow
	Pending           *principality.PendingEffect
	Moves             []string
}

// buildPrompt renders the decision prompt. Only information the deciding
// player may legally see goes in: opponent hands are reduced to counts.
func buildPrompt(dc DecisionContext) (string, error) {
	s := dc.State
	p := &s.Players[dc.PlayerIndex]

	data := promptData{
		Turn:         s.Turn,
		Phase:        s.Phase,
		Actions:      p.Actions,
		Buys:         p.Buys,
		Coins:        p.Coins,
		Hand:         joinCards(p.Hand),
		DiscardCount: len(p.Discard),
		DrawCount:    len(p.Draw),
		Pending:      s.Pending,
	}
	for i := range s.Players {
		if i != dc.PlayerIndex {
			data.OpponentHandCount = len(s.Players[i].Hand)
			break
		}
	}
	for name, count := range s.Supply {
		data.Supply = append(data.Supply, supplyRow{Name: name, Count: count})
	}
	sort.Slice(data.Supply, func(i, j int) bool {
		ci, cj := principality.CardCost(data.Supply[i].Name), principality.CardCost(data.Supply[j].Name)
		if ci != cj {
			return ci < cj
		}
		return data.Supply[i].Name < data.Supply[j].Name
	})
	for _, m := range dc.ValidMoves {
		raw, err := json.Marshal(m)
		if err != nil {
			return "", err
		}
		data.Moves = append(data.Moves, string(raw))
	}

	var buf bytes.Buffer
	if err := decideMoveTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

type moveReply struct {
	Move      principality.Move `json:"move"`
	Reasoning string            `json:"reasoning"`
}

// parseMoveReply extracts the JSON decision from a model reply, tolerating
// markdown code fences around it.
func parseMoveReply(raw string) (principality.Move, string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var reply moveReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return principality.Move{}, "", fmt.Errorf("unparseable reply: %w", err)
	}
	if reply.Move.Type == "" {
		return principality.Move{}, "", fmt.Errorf("reply missing move type")
	}
	return reply.Move, reply.Reasoning, nil
}

// moveIsLegal checks a proposed move against the legal list. Template moves
// (multi-card responses) match on type alone; the engine validates the card
// selection itself.
func moveIsLegal(m principality.Move, valid []principality.Move) bool {
	for _, v := range valid {
		if v.Type != m.Type {
			continue
		}
		if v.Card == "" || v.Card == m.Card {
			return true
		}
	}
	return false
}

func joinCards(cards []principality.CardName) string {
	if len(cards) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

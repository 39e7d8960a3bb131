package principality

import (
	"fmt"
	"sort"
)

const (
	startingHandSize = 5
	militiaHandLimit = 3
	kingdomPileSize  = 10
	cursePileSize    = 10

	copperSupply = 60
	silverSupply = 40
	goldSupply   = 30

	defaultVictoryPileSize = 4
	defaultPlayers         = 2
)

// Options configures a new game. Zero values fall back to defaults.
type Options struct {
	Players         int
	Seed            string
	Kingdom         []CardName
	VictoryPileSize int
	PlayerNames     []string
}

// Game is the stateless rules engine. All methods treat the passed state as
// read-only; ExecuteMove returns a fresh state.
type Game struct{}

func New() *Game { return &Game{} }

// InitializeGame builds the opening state: shuffled ten-card starting decks
// (7 Copper, 3 Estate), five-card hands, and the supply for the selected
// kingdom. The same seed always produces the same opening.
func (g *Game) InitializeGame(opts Options) (*GameState, error) {
	players := opts.Players
	if players == 0 {
		players = defaultPlayers
	}
	if players < 2 || players > 4 {
		return nil, fmt.Errorf("player count %d out of range", players)
	}
	victoryPile := opts.VictoryPileSize
	if victoryPile == 0 {
		victoryPile = defaultVictoryPileSize
	}
	kingdom := opts.Kingdom
	if len(kingdom) == 0 {
		kingdom = DefaultKingdom
	}
	for _, name := range kingdom {
		c, err := CardByName(name)
		if err != nil {
			return nil, err
		}
		if c.Type != CardAction && name != Gardens {
			return nil, fmt.Errorf("%s is not a kingdom card", name)
		}
	}

	supply := map[CardName]int{
		Copper:   copperSupply,
		Silver:   silverSupply,
		Gold:     goldSupply,
		Estate:   victoryPile,
		Duchy:    victoryPile,
		Province: victoryPile,
	}
	hasAttack := false
	for _, name := range kingdom {
		supply[name] = kingdomPileSize
		if mustCard(name).Attack {
			hasAttack = true
		}
	}
	if hasAttack {
		supply[Curse] = cursePileSize
	}

	state := &GameState{
		Players:       make([]PlayerState, players),
		Supply:        supply,
		Kingdom:       append([]CardName(nil), kingdom...),
		CurrentPlayer: 0,
		Phase:         PhaseAction,
		Turn:          1,
		Seed:          opts.Seed,
	}
	for i := range state.Players {
		name := fmt.Sprintf("Player %d", i+1)
		if i < len(opts.PlayerNames) && opts.PlayerNames[i] != "" {
			name = opts.PlayerNames[i]
		}
		deck := startingDeck()
		rng := newSeededRand(fmt.Sprintf("%s-p%d", opts.Seed, i))
		rng.shuffle(deck)
		p := PlayerState{
			Name:    name,
			Draw:    deck,
			Actions: 1,
			Buys:    1,
		}
		drawCards(&p, startingHandSize, rng)
		state.Players[i] = p
	}
	state.Log = append(state.Log, fmt.Sprintf("Game started with %d players", players))
	return state, nil
}

func startingDeck() []CardName {
	deck := make([]CardName, 0, 10)
	for i := 0; i < 7; i++ {
		deck = append(deck, Copper)
	}
	for i := 0; i < 3; i++ {
		deck = append(deck, Estate)
	}
	return deck
}

// GetValidMoves enumerates the legal moves for whoever must act: the target
// of the pending effect if one is outstanding, otherwise the current player.
// Multi-card responses are returned as templates with Cards unset; the mover
// chooses the cards and ExecuteMove validates them.
func (g *Game) GetValidMoves(s *GameState) []Move {
	if over, _ := g.CheckGameOver(s); over {
		return nil
	}
	if s.Pending != nil {
		return pendingMoves(s)
	}

	p := &s.Players[s.CurrentPlayer]
	var moves []Move
	switch s.Phase {
	case PhaseAction:
		if p.Actions > 0 {
			for _, name := range distinct(p.Hand) {
				if IsAction(name) {
					moves = append(moves, Move{Type: MovePlayAction, Card: name})
				}
			}
		}
	case PhaseBuy:
		hasTreasure := false
		for _, name := range distinct(p.Hand) {
			if IsTreasure(name) {
				hasTreasure = true
				moves = append(moves, Move{Type: MovePlayTreasure, Card: name})
			}
		}
		if hasTreasure {
			moves = append(moves, Move{Type: MovePlayAllTreasures})
		}
		if p.Buys > 0 {
			for _, name := range supplyNames(s.Supply) {
				if s.Supply[name] > 0 && CardCost(name) <= p.Coins {
					moves = append(moves, Move{Type: MoveBuy, Card: name})
				}
			}
		}
	}
	moves = append(moves, Move{Type: MoveEndPhase})
	return moves
}

func pendingMoves(s *GameState) []Move {
	pe := s.Pending
	target := &s.Players[pe.TargetPlayer]
	switch pe.Kind {
	case EffectDiscardToHandSize:
		return []Move{{Type: MoveDiscardToHandSize}}
	case EffectTopdeckVictory:
		var moves []Move
		for _, name := range distinct(target.Hand) {
			if IsVictory(name) {
				moves = append(moves, Move{Type: MoveTopdeckVictory, Card: name})
			}
		}
		if len(moves) == 0 {
			moves = append(moves, Move{Type: MoveTopdeckVictory})
		}
		return moves
	case EffectDiscardForCellar:
		return []Move{{Type: MoveDiscardForCellar}}
	}
	return nil
}

// ExecuteMove validates and applies a move, returning the successor state.
// The input state is never modified; on error it remains the authoritative
// state and the returned state is nil.
func (g *Game) ExecuteMove(s *GameState, m Move) (*GameState, error) {
	if over, _ := g.CheckGameOver(s); over {
		return nil, ErrGameOver
	}
	ns := s.Clone()
	var err error
	if ns.Pending != nil {
		err = applyPendingResponse(ns, m)
	} else {
		err = applyTurnMove(ns, m)
	}
	if err != nil {
		return nil, err
	}
	return ns, nil
}

func applyTurnMove(s *GameState, m Move) error {
	p := &s.Players[s.CurrentPlayer]
	switch m.Type {
	case MovePlayAction:
		if s.Phase != PhaseAction {
			return errInvalidMove("actions can only be played in the action phase")
		}
		if p.Actions <= 0 {
			return errInvalidMove("no actions remaining")
		}
		if !IsAction(m.Card) {
			return errInvalidMove(fmt.Sprintf("%s is not an action card", m.Card))
		}
		if !removeCard(&p.Hand, m.Card) {
			return errInvalidMove(fmt.Sprintf("%s is not in hand", m.Card))
		}
		p.InPlay = append(p.InPlay, m.Card)
		p.Actions--
		playAction(s, m.Card)
		return nil

	case MovePlayTreasure:
		if s.Phase != PhaseBuy {
			return errInvalidMove("treasures can only be played in the buy phase")
		}
		if !IsTreasure(m.Card) {
			return errInvalidMove(fmt.Sprintf("%s is not a treasure", m.Card))
		}
		if !removeCard(&p.Hand, m.Card) {
			return errInvalidMove(fmt.Sprintf("%s is not in hand", m.Card))
		}
		p.InPlay = append(p.InPlay, m.Card)
		p.Coins += mustCard(m.Card).Coins
		s.Log = append(s.Log, fmt.Sprintf("%s plays %s", p.Name, m.Card))
		return nil

	case MovePlayAllTreasures:
		if s.Phase != PhaseBuy {
			return errInvalidMove("treasures can only be played in the buy phase")
		}
		played := 0
		for i := 0; i < len(p.Hand); {
			name := p.Hand[i]
			if !IsTreasure(name) {
				i++
				continue
			}
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			p.InPlay = append(p.InPlay, name)
			p.Coins += mustCard(name).Coins
			played++
		}
		if played == 0 {
			return errInvalidMove("no treasures in hand")
		}
		s.Log = append(s.Log, fmt.Sprintf("%s plays all treasures (+$%d)", p.Name, p.Coins))
		return nil

	case MoveBuy:
		if s.Phase != PhaseBuy {
			return errInvalidMove("buying is only allowed in the buy phase")
		}
		if p.Buys <= 0 {
			return errInvalidMove("no buys remaining")
		}
		stock, ok := s.Supply[m.Card]
		if !ok {
			return errInvalidMove(fmt.Sprintf("%s is not in the supply", m.Card))
		}
		if stock <= 0 {
			return errInvalidMove(fmt.Sprintf("%s pile is empty", m.Card))
		}
		cost := CardCost(m.Card)
		if cost > p.Coins {
			return errInvalidMove(fmt.Sprintf("cannot afford %s (cost %d, have %d)", m.Card, cost, p.Coins))
		}
		s.Supply[m.Card] = stock - 1
		p.Discard = append(p.Discard, m.Card)
		p.Coins -= cost
		p.Buys--
		s.Log = append(s.Log, fmt.Sprintf("%s buys %s", p.Name, m.Card))
		return nil

	case MoveEndPhase:
		switch s.Phase {
		case PhaseAction:
			s.Phase = PhaseBuy
		case PhaseBuy:
			s.Phase = PhaseCleanup
		case PhaseCleanup:
			cleanup(s)
		}
		return nil
	}
	return errInvalidMove(fmt.Sprintf("unknown move type %q", m.Type))
}

// playAction applies an action card's bonuses and any attack effect.
func playAction(s *GameState, name CardName) {
	p := &s.Players[s.CurrentPlayer]
	c := mustCard(name)
	p.Actions += c.Actions
	p.Buys += c.Buys
	p.Coins += c.Coins
	if c.Cards > 0 {
		rng := newSeededRand(fmt.Sprintf("%s-p%d-t%d-draw", s.Seed, s.CurrentPlayer, s.Turn))
		drawCards(p, c.Cards, rng)
	}
	s.Log = append(s.Log, fmt.Sprintf("%s plays %s", p.Name, name))

	switch name {
	case Cellar:
		s.Pending = &PendingEffect{Card: Cellar, Kind: EffectDiscardForCellar, TargetPlayer: s.CurrentPlayer}
	case Militia:
		for _, idx := range opponentsOf(s, s.CurrentPlayer) {
			target := &s.Players[idx]
			if blocksAttack(s, target) || len(target.Hand) <= militiaHandLimit {
				continue
			}
			s.Pending = &PendingEffect{Card: Militia, Kind: EffectDiscardToHandSize, TargetPlayer: idx, HandLimit: militiaHandLimit}
			break
		}
	case Witch:
		for _, idx := range opponentsOf(s, s.CurrentPlayer) {
			target := &s.Players[idx]
			if blocksAttack(s, target) {
				continue
			}
			if s.Supply[Curse] > 0 {
				s.Supply[Curse]--
				target.Discard = append(target.Discard, Curse)
				s.Log = append(s.Log, fmt.Sprintf("%s gains a Curse", target.Name))
			}
		}
	case Bureaucrat:
		if s.Supply[Silver] > 0 {
			s.Supply[Silver]--
			p.Draw = append([]CardName{Silver}, p.Draw...)
			s.Log = append(s.Log, fmt.Sprintf("%s gains a Silver onto their deck", p.Name))
		}
		for _, idx := range opponentsOf(s, s.CurrentPlayer) {
			target := &s.Players[idx]
			if blocksAttack(s, target) {
				continue
			}
			if handHasVictory(target.Hand) {
				s.Pending = &PendingEffect{Card: Bureaucrat, Kind: EffectTopdeckVictory, TargetPlayer: idx}
				break
			}
			s.Log = append(s.Log, fmt.Sprintf("%s reveals a hand with no victory cards", target.Name))
		}
	}
}

func applyPendingResponse(s *GameState, m Move) error {
	pe := s.Pending
	target := &s.Players[pe.TargetPlayer]
	switch pe.Kind {
	case EffectDiscardToHandSize:
		if m.Type != MoveDiscardToHandSize {
			return errInvalidMove(fmt.Sprintf("must respond to %s", pe.Card))
		}
		if len(target.Hand)-len(m.Cards) != pe.HandLimit {
			return errInvalidMove(fmt.Sprintf("must discard down to %d cards", pe.HandLimit))
		}
		if !removeCards(&target.Hand, m.Cards) {
			return errInvalidMove("discarded cards must come from hand")
		}
		target.Discard = append(target.Discard, m.Cards...)
		s.Log = append(s.Log, fmt.Sprintf("%s discards %d cards", target.Name, len(m.Cards)))

	case EffectTopdeckVictory:
		if m.Type != MoveTopdeckVictory {
			return errInvalidMove(fmt.Sprintf("must respond to %s", pe.Card))
		}
		if m.Card == "" {
			if handHasVictory(target.Hand) {
				return errInvalidMove("hand contains a victory card to topdeck")
			}
			s.Log = append(s.Log, fmt.Sprintf("%s reveals a hand with no victory cards", target.Name))
			break
		}
		if !IsVictory(m.Card) {
			return errInvalidMove(fmt.Sprintf("%s is not a victory card", m.Card))
		}
		if !removeCard(&target.Hand, m.Card) {
			return errInvalidMove(fmt.Sprintf("%s is not in hand", m.Card))
		}
		target.Draw = append([]CardName{m.Card}, target.Draw...)
		s.Log = append(s.Log, fmt.Sprintf("%s puts %s on top of their deck", target.Name, m.Card))

	case EffectDiscardForCellar:
		if m.Type != MoveDiscardForCellar {
			return errInvalidMove(fmt.Sprintf("must respond to %s", pe.Card))
		}
		if !removeCards(&target.Hand, m.Cards) {
			return errInvalidMove("discarded cards must come from hand")
		}
		target.Discard = append(target.Discard, m.Cards...)
		if n := len(m.Cards); n > 0 {
			rng := newSeededRand(fmt.Sprintf("%s-p%d-t%d-cellar", s.Seed, pe.TargetPlayer, s.Turn))
			drawCards(target, n, rng)
		}
		s.Log = append(s.Log, fmt.Sprintf("%s discards %d cards and draws as many", target.Name, len(m.Cards)))

	default:
		return errInvalidMove(fmt.Sprintf("unknown pending effect %q", pe.Kind))
	}
	s.Pending = nil
	return nil
}

// cleanup discards hand and in-play cards, draws a fresh hand, resets turn
// resources, and passes the turn.
func cleanup(s *GameState) {
	p := &s.Players[s.CurrentPlayer]
	p.Discard = append(p.Discard, p.Hand...)
	p.Discard = append(p.Discard, p.InPlay...)
	p.Hand = nil
	p.InPlay = nil
	rng := newSeededRand(fmt.Sprintf("%s-p%d-t%d-cleanup", s.Seed, s.CurrentPlayer, s.Turn))
	drawCards(p, startingHandSize, rng)
	p.Actions = 1
	p.Buys = 1
	p.Coins = 0

	s.CurrentPlayer = (s.CurrentPlayer + 1) % len(s.Players)
	if s.CurrentPlayer == 0 {
		s.Turn++
	}
	s.Phase = PhaseAction
	s.Log = append(s.Log, fmt.Sprintf("%s's turn", s.Players[s.CurrentPlayer].Name))
}

// drawCards moves up to n cards from draw to hand, reshuffling the discard
// pile under the draw pile when it runs dry.
func drawCards(p *PlayerState, n int, rng *seededRand) {
	for i := 0; i < n; i++ {
		if len(p.Draw) == 0 {
			if len(p.Discard) == 0 {
				return
			}
			p.Draw = p.Discard
			p.Discard = nil
			rng.shuffle(p.Draw)
		}
		p.Hand = append(p.Hand, p.Draw[0])
		p.Draw = p.Draw[1:]
	}
}

// CheckGameOver reports whether the game has ended and why. The game ends
// when the Province pile empties or any three supply piles are empty.
func (g *Game) CheckGameOver(s *GameState) (bool, string) {
	if s.Supply[Province] == 0 {
		return true, "Province pile is empty"
	}
	empty := 0
	for _, count := range s.Supply {
		if count == 0 {
			empty++
		}
	}
	if empty >= 3 {
		return true, fmt.Sprintf("%d supply piles are empty", empty)
	}
	return false, ""
}

// IsGameOver is a convenience wrapper over CheckGameOver.
func (g *Game) IsGameOver(s *GameState) bool {
	over, _ := g.CheckGameOver(s)
	return over
}

// ComputeScores tallies victory points per player across all zones.
// Gardens scores one point per ten cards owned, rounded down.
func (g *Game) ComputeScores(s *GameState) []PlayerScore {
	scores := make([]PlayerScore, len(s.Players))
	for i := range s.Players {
		p := &s.Players[i]
		all := p.AllCards()
		score := PlayerScore{
			Player:    i,
			Name:      p.Name,
			DeckSize:  len(all),
			Breakdown: map[CardName]int{},
		}
		for _, name := range all {
			pts := 0
			if name == Gardens {
				pts = len(all) / 10
			} else {
				pts = mustCard(name).Points
			}
			if pts != 0 {
				score.Breakdown[name] += pts
				score.Score += pts
			}
		}
		scores[i] = score
	}
	return scores
}

// Winner returns the index of the highest-scoring player, or -1 on a tie.
func (g *Game) Winner(scores []PlayerScore) int {
	best, tie := -1, false
	for _, sc := range scores {
		if best == -1 || sc.Score > scores[best].Score {
			best, tie = sc.Player, false
		} else if sc.Score == scores[best].Score {
			tie = true
		}
	}
	if tie {
		return -1
	}
	return best
}

func opponentsOf(s *GameState, player int) []int {
	idxs := make([]int, 0, len(s.Players)-1)
	for i := 1; i < len(s.Players); i++ {
		idxs = append(idxs, (player+i)%len(s.Players))
	}
	return idxs
}

// blocksAttack reports whether the target holds a reaction card.
func blocksAttack(s *GameState, target *PlayerState) bool {
	for _, name := range target.Hand {
		if c, err := CardByName(name); err == nil && c.Reaction {
			s.Log = append(s.Log, fmt.Sprintf("%s reveals %s", target.Name, name))
			return true
		}
	}
	return false
}

func handHasVictory(hand []CardName) bool {
	for _, name := range hand {
		if IsVictory(name) {
			return true
		}
	}
	return false
}

func removeCard(zone *[]CardName, name CardName) bool {
	for i, c := range *zone {
		if c == name {
			*zone = append((*zone)[:i], (*zone)[i+1:]...)
			return true
		}
	}
	return false
}

func removeCards(zone *[]CardName, names []CardName) bool {
	remaining := append([]CardName(nil), *zone...)
	for _, name := range names {
		if !removeCard(&remaining, name) {
			return false
		}
	}
	*zone = remaining
	return true
}

func distinct(cards []CardName) []CardName {
	seen := make(map[CardName]bool, len(cards))
	out := make([]CardName, 0, len(cards))
	for _, name := range cards {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// supplyNames returns the supply piles in a stable order: by cost, then name.
func supplyNames(supply map[CardName]int) []CardName {
	names := make([]CardName, 0, len(supply))
	for name := range supply {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := CardCost(names[i]), CardCost(names[j])
		if ci != cj {
			return ci < cj
		}
		return names[i] < names[j]
	})
	return names
}

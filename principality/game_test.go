package principality

import (
	"reflect"
	"testing"
)

// testState builds a mid-game two-player state with a full supply and
// explicit hands so tests control every draw.
func testState() *GameState {
	supply := map[CardName]int{
		Copper: 60, Silver: 40, Gold: 30,
		Estate: 4, Duchy: 4, Province: 4,
		Village: 10, Smithy: 10, Militia: 10, Bureaucrat: 10, Moat: 10, Cellar: 10,
		Curse: 10,
	}
	return &GameState{
		Players: []PlayerState{
			{
				Name:    "Alice",
				Hand:    []CardName{Copper, Copper, Silver, Estate, Village},
				Draw:    []CardName{Gold, Copper, Copper, Estate, Copper},
				Actions: 1,
				Buys:    1,
			},
			{
				Name:    "Bob",
				Hand:    []CardName{Copper, Copper, Copper, Estate, Estate},
				Draw:    []CardName{Silver, Copper, Copper, Estate, Copper},
				Actions: 1,
				Buys:    1,
			},
		},
		Supply:  supply,
		Kingdom: []CardName{Village, Smithy, Militia, Bureaucrat, Moat, Cellar},
		Phase:   PhaseAction,
		Turn:    3,
		Seed:    "test-seed",
	}
}

func TestInitializeGameSetup(t *testing.T) {
	g := New()
	s, err := g.InitializeGame(Options{Seed: "abc"})
	if err != nil {
		t.Fatalf("InitializeGame: %v", err)
	}
	if len(s.Players) != 2 {
		t.Fatalf("players: got %d, want 2", len(s.Players))
	}
	for i, p := range s.Players {
		if got := len(p.Hand); got != 5 {
			t.Fatalf("player %d hand: got %d, want 5", i, got)
		}
		if got := len(p.Hand) + len(p.Draw); got != 10 {
			t.Fatalf("player %d deck size: got %d, want 10", i, got)
		}
		coppers, estates := 0, 0
		for _, c := range p.AllCards() {
			switch c {
			case Copper:
				coppers++
			case Estate:
				estates++
			}
		}
		if coppers != 7 || estates != 3 {
			t.Fatalf("player %d deck: got %d Copper, %d Estate, want 7/3", i, coppers, estates)
		}
	}
	if s.Supply[Copper] != 60 || s.Supply[Silver] != 40 || s.Supply[Gold] != 30 {
		t.Fatalf("treasure supply wrong: %v", s.Supply)
	}
	if s.Supply[Province] != 4 {
		t.Fatalf("Province pile: got %d, want 4", s.Supply[Province])
	}
	for _, name := range s.Kingdom {
		if s.Supply[name] != 10 {
			t.Fatalf("%s pile: got %d, want 10", name, s.Supply[name])
		}
	}
	if s.CurrentPlayer != 0 || s.Phase != PhaseAction || s.Turn != 1 {
		t.Fatalf("opening turn state wrong: player=%d phase=%s turn=%d", s.CurrentPlayer, s.Phase, s.Turn)
	}
}

func TestInitializeGameCursePileOnlyWithAttacks(t *testing.T) {
	g := New()
	s, err := g.InitializeGame(Options{Seed: "x", Kingdom: []CardName{Village, Smithy}})
	if err != nil {
		t.Fatalf("InitializeGame: %v", err)
	}
	if _, ok := s.Supply[Curse]; ok {
		t.Fatalf("Curse pile present without attack cards")
	}
	s, err = g.InitializeGame(Options{Seed: "x", Kingdom: []CardName{Village, Militia}})
	if err != nil {
		t.Fatalf("InitializeGame: %v", err)
	}
	if s.Supply[Curse] != 10 {
		t.Fatalf("Curse pile: got %d, want 10", s.Supply[Curse])
	}
}

func TestInitializeGameDeterministic(t *testing.T) {
	g := New()
	a, err := g.InitializeGame(Options{Seed: "same"})
	if err != nil {
		t.Fatalf("InitializeGame: %v", err)
	}
	b, err := g.InitializeGame(Options{Seed: "same"})
	if err != nil {
		t.Fatalf("InitializeGame: %v", err)
	}
	for i := range a.Players {
		if !reflect.DeepEqual(a.Players[i].Hand, b.Players[i].Hand) {
			t.Fatalf("player %d hands differ for same seed: %v vs %v", i, a.Players[i].Hand, b.Players[i].Hand)
		}
		if !reflect.DeepEqual(a.Players[i].Draw, b.Players[i].Draw) {
			t.Fatalf("player %d draw piles differ for same seed", i)
		}
	}
}

func TestExecuteMoveDoesNotMutateInput(t *testing.T) {
	g := New()
	s := testState()
	s.Phase = PhaseBuy
	before := len(s.Players[0].Hand)

	next, err := g.ExecuteMove(s, Move{Type: MovePlayTreasure, Card: Copper})
	if err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}
	if len(s.Players[0].Hand) != before {
		t.Fatalf("input state mutated: hand %d, want %d", len(s.Players[0].Hand), before)
	}
	if len(next.Players[0].Hand) != before-1 {
		t.Fatalf("next state hand: got %d, want %d", len(next.Players[0].Hand), before-1)
	}
	if next.Players[0].Coins != 1 {
		t.Fatalf("coins: got %d, want 1", next.Players[0].Coins)
	}
}

func TestPlayActionVillage(t *testing.T) {
	g := New()
	s := testState()
	next, err := g.ExecuteMove(s, Move{Type: MovePlayAction, Card: Village})
	if err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}
	p := next.Players[0]
	// -1 to play, +2 from the card.
	if p.Actions != 2 {
		t.Fatalf("actions: got %d, want 2", p.Actions)
	}
	// 5 - village + 1 drawn.
	if len(p.Hand) != 5 {
		t.Fatalf("hand: got %d, want 5", len(p.Hand))
	}
	if len(p.InPlay) != 1 || p.InPlay[0] != Village {
		t.Fatalf("in play: got %v, want [Village]", p.InPlay)
	}
}

func TestBuyMove(t *testing.T) {
	g := New()
	s := testState()
	s.Phase = PhaseBuy
	s.Players[0].Coins = 3

	next, err := g.ExecuteMove(s, Move{Type: MoveBuy, Card: Silver})
	if err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}
	p := next.Players[0]
	if p.Coins != 0 || p.Buys != 0 {
		t.Fatalf("after buy: coins=%d buys=%d, want 0/0", p.Coins, p.Buys)
	}
	if next.Supply[Silver] != 39 {
		t.Fatalf("Silver pile: got %d, want 39", next.Supply[Silver])
	}
	if p.Discard[len(p.Discard)-1] != Silver {
		t.Fatalf("bought card not in discard: %v", p.Discard)
	}
}

func TestBuyRejections(t *testing.T) {
	g := New()
	cases := []struct {
		name  string
		setup func(*GameState)
		move  Move
	}{
		{"wrong phase", func(s *GameState) {}, Move{Type: MoveBuy, Card: Silver}},
		{"cannot afford", func(s *GameState) { s.Phase = PhaseBuy; s.Players[0].Coins = 2 }, Move{Type: MoveBuy, Card: Silver}},
		{"no buys", func(s *GameState) { s.Phase = PhaseBuy; s.Players[0].Coins = 9; s.Players[0].Buys = 0 }, Move{Type: MoveBuy, Card: Silver}},
		{"empty pile", func(s *GameState) { s.Phase = PhaseBuy; s.Players[0].Coins = 9; s.Supply[Silver] = 0 }, Move{Type: MoveBuy, Card: Silver}},
		{"not in supply", func(s *GameState) { s.Phase = PhaseBuy; s.Players[0].Coins = 9 }, Move{Type: MoveBuy, Card: Witch}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testState()
			tc.setup(s)
			if _, err := g.ExecuteMove(s, tc.move); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestPlayAllTreasures(t *testing.T) {
	g := New()
	s := testState()
	s.Phase = PhaseBuy

	next, err := g.ExecuteMove(s, Move{Type: MovePlayAllTreasures})
	if err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}
	p := next.Players[0]
	// 2 Copper + 1 Silver = 4 coins.
	if p.Coins != 4 {
		t.Fatalf("coins: got %d, want 4", p.Coins)
	}
	if len(p.Hand) != 2 {
		t.Fatalf("hand after playing treasures: got %d, want 2", len(p.Hand))
	}
}

func TestCleanupAdvancesTurn(t *testing.T) {
	g := New()
	s := testState()
	s.Phase = PhaseCleanup
	s.Players[0].InPlay = []CardName{Copper, Silver}
	s.Players[0].Coins = 3
	s.Players[0].Buys = 0

	next, err := g.ExecuteMove(s, Move{Type: MoveEndPhase})
	if err != nil {
		t.Fatalf("ExecuteMove: %v", err)
	}
	p := next.Players[0]
	if len(p.Hand) != 5 {
		t.Fatalf("new hand: got %d, want 5", len(p.Hand))
	}
	if len(p.InPlay) != 0 {
		t.Fatalf("in play not cleared: %v", p.InPlay)
	}
	if p.Actions != 1 || p.Buys != 1 || p.Coins != 0 {
		t.Fatalf("resources not reset: %d/%d/%d", p.Actions, p.Buys, p.Coins)
	}
	if next.CurrentPlayer != 1 {
		t.Fatalf("current player: got %d, want 1", next.CurrentPlayer)
	}
	if next.Phase != PhaseAction {
		t.Fatalf("phase: got %s, want action", next.Phase)
	}
	if next.Turn != s.Turn {
		t.Fatalf("turn bumped before wrapping to player 0")
	}
}

func TestMilitiaCreatesPendingAndResolution(t *testing.T) {
	g := New()
	s := testState()
	s.Players[0].Hand = []CardName{Militia, Copper, Copper, Copper, Copper}

	next, err := g.ExecuteMove(s, Move{Type: MovePlayAction, Card: Militia})
	if err != nil {
		t.Fatalf("play Militia: %v", err)
	}
	if next.Players[0].Coins != 2 {
		t.Fatalf("Militia coins: got %d, want 2", next.Players[0].Coins)
	}
	pe := next.Pending
	if pe == nil || pe.Kind != EffectDiscardToHandSize || pe.TargetPlayer != 1 || pe.HandLimit != 3 {
		t.Fatalf("pending effect wrong: %+v", pe)
	}

	moves := g.GetValidMoves(next)
	if len(moves) != 1 || moves[0].Type != MoveDiscardToHandSize {
		t.Fatalf("pending valid moves: got %v", moves)
	}

	// Wrong-size discard is rejected; the pending effect survives.
	if _, err := g.ExecuteMove(next, Move{Type: MoveDiscardToHandSize, Cards: []CardName{Copper}}); err == nil {
		t.Fatalf("expected rejection for wrong discard count")
	}

	resolved, err := g.ExecuteMove(next, Move{Type: MoveDiscardToHandSize, Cards: []CardName{Estate, Estate}})
	if err != nil {
		t.Fatalf("resolve Militia: %v", err)
	}
	if resolved.Pending != nil {
		t.Fatalf("pending effect not cleared")
	}
	if got := len(resolved.Players[1].Hand); got != 3 {
		t.Fatalf("target hand: got %d, want 3", got)
	}
}

func TestMilitiaBlockedByMoat(t *testing.T) {
	g := New()
	s := testState()
	s.Players[0].Hand = []CardName{Militia, Copper, Copper, Copper, Copper}
	s.Players[1].Hand = []CardName{Moat, Copper, Copper, Copper, Copper}

	next, err := g.ExecuteMove(s, Move{Type: MovePlayAction, Card: Militia})
	if err != nil {
		t.Fatalf("play Militia: %v", err)
	}
	if next.Pending != nil {
		t.Fatalf("Moat should block the attack, pending=%+v", next.Pending)
	}
	if got := len(next.Players[1].Hand); got != 5 {
		t.Fatalf("defender hand: got %d, want 5", got)
	}
}

func TestBureaucratTopdeck(t *testing.T) {
	g := New()
	s := testState()
	s.Players[0].Hand = []CardName{Bureaucrat, Copper, Copper, Copper, Copper}

	next, err := g.ExecuteMove(s, Move{Type: MovePlayAction, Card: Bureaucrat})
	if err != nil {
		t.Fatalf("play Bureaucrat: %v", err)
	}
	if next.Players[0].Draw[0] != Silver {
		t.Fatalf("attacker should gain Silver on top of deck, got %v", next.Players[0].Draw[0])
	}
	pe := next.Pending
	if pe == nil || pe.Kind != EffectTopdeckVictory || pe.TargetPlayer != 1 {
		t.Fatalf("pending effect wrong: %+v", pe)
	}

	resolved, err := g.ExecuteMove(next, Move{Type: MoveTopdeckVictory, Card: Estate})
	if err != nil {
		t.Fatalf("resolve Bureaucrat: %v", err)
	}
	if resolved.Players[1].Draw[0] != Estate {
		t.Fatalf("victory card not topdecked: %v", resolved.Players[1].Draw[0])
	}
	if resolved.Pending != nil {
		t.Fatalf("pending effect not cleared")
	}
}

func TestCellarCyclesCards(t *testing.T) {
	g := New()
	s := testState()
	s.Players[0].Hand = []CardName{Cellar, Estate, Estate, Copper, Copper}

	next, err := g.ExecuteMove(s, Move{Type: MovePlayAction, Card: Cellar})
	if err != nil {
		t.Fatalf("play Cellar: %v", err)
	}
	if next.Pending == nil || next.Pending.Kind != EffectDiscardForCellar || next.Pending.TargetPlayer != 0 {
		t.Fatalf("pending effect wrong: %+v", next.Pending)
	}

	resolved, err := g.ExecuteMove(next, Move{Type: MoveDiscardForCellar, Cards: []CardName{Estate, Estate}})
	if err != nil {
		t.Fatalf("resolve Cellar: %v", err)
	}
	// 4 after playing Cellar, -2 discarded, +2 drawn.
	if got := len(resolved.Players[0].Hand); got != 4 {
		t.Fatalf("hand after Cellar: got %d, want 4", got)
	}
}

func TestGameOverAndScoring(t *testing.T) {
	g := New()
	s := testState()
	if over, _ := g.CheckGameOver(s); over {
		t.Fatalf("game should not be over")
	}

	s.Supply[Province] = 0
	over, reason := g.CheckGameOver(s)
	if !over || reason == "" {
		t.Fatalf("empty Province pile should end the game")
	}
	if _, err := g.ExecuteMove(s, Move{Type: MoveEndPhase}); err == nil {
		t.Fatalf("moves after game over should be rejected")
	}
	if moves := g.GetValidMoves(s); moves != nil {
		t.Fatalf("no moves should be legal after game over, got %v", moves)
	}

	s.Players[0].Discard = append(s.Players[0].Discard, Province, Duchy, Curse)
	scores := g.ComputeScores(s)
	// Hand Estate + Province + Duchy + Curse = 1 + 6 + 3 - 1 = 9, plus draw Estate = 10.
	if scores[0].Score != 10 {
		t.Fatalf("score: got %d, want 10", scores[0].Score)
	}
	if scores[0].Breakdown[Province] != 6 || scores[0].Breakdown[Curse] != -1 {
		t.Fatalf("breakdown wrong: %v", scores[0].Breakdown)
	}
	if idx := g.Winner(scores); idx != 0 {
		t.Fatalf("winner: got %d, want 0", idx)
	}
}

func TestGardensScoring(t *testing.T) {
	g := New()
	s := testState()
	p := &s.Players[0]
	p.Hand = nil
	p.Draw = nil
	p.Discard = []CardName{Gardens}
	for i := 0; i < 22; i++ {
		p.Discard = append(p.Discard, Copper)
	}
	scores := g.ComputeScores(s)
	// 23 cards total: Gardens is worth 2.
	if scores[0].Score != 2 {
		t.Fatalf("Gardens score: got %d, want 2", scores[0].Score)
	}
}

func TestThreeEmptyPilesEndGame(t *testing.T) {
	g := New()
	s := testState()
	s.Supply[Village] = 0
	s.Supply[Smithy] = 0
	if over, _ := g.CheckGameOver(s); over {
		t.Fatalf("two empty piles should not end the game")
	}
	s.Supply[Moat] = 0
	if over, _ := g.CheckGameOver(s); !over {
		t.Fatalf("three empty piles should end the game")
	}
}

func TestDrawReshufflesDiscard(t *testing.T) {
	p := &PlayerState{
		Draw:    []CardName{Copper},
		Discard: []CardName{Silver, Gold, Estate},
	}
	drawCards(p, 3, newSeededRand("r"))
	if len(p.Hand) != 3 {
		t.Fatalf("hand: got %d, want 3", len(p.Hand))
	}
	if len(p.Draw) != 1 || len(p.Discard) != 0 {
		t.Fatalf("reshuffle wrong: draw=%d discard=%d", len(p.Draw), len(p.Discard))
	}
}

func TestGetValidMovesActionPhase(t *testing.T) {
	g := New()
	s := testState()
	moves := g.GetValidMoves(s)

	wantPlay := false
	for _, m := range moves {
		if m.Type == MovePlayAction && m.Card == Village {
			wantPlay = true
		}
		if m.Type == MoveBuy {
			t.Fatalf("buy move offered in action phase")
		}
	}
	if !wantPlay {
		t.Fatalf("play_action Village missing from %v", moves)
	}
	if moves[len(moves)-1].Type != MoveEndPhase {
		t.Fatalf("end_phase must always be offered")
	}

	s.Players[0].Actions = 0
	for _, m := range g.GetValidMoves(s) {
		if m.Type == MovePlayAction {
			t.Fatalf("play_action offered with no actions left")
		}
	}
}

func TestSeededRandDeterminism(t *testing.T) {
	a := newSeededRand("seed-1")
	b := newSeededRand("seed-1")
	for i := 0; i < 100; i++ {
		if a.next() != b.next() {
			t.Fatalf("same seed diverged at step %d", i)
		}
	}
}

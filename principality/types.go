package principality

// CardName identifies a card pile. Card identity is by name; there is no
// per-copy state.
type CardName string

type CardType string

const (
	CardTreasure CardType = "treasure"
	CardVictory  CardType = "victory"
	CardAction   CardType = "action"
	CardCurse    CardType = "curse"
)

// Card is the static definition of a card: cost plus the bonuses granted
// when played. Attack cards additionally target opponents.
type Card struct {
	Name        CardName
	Type        CardType
	Cost        int
	Coins       int
	Cards       int
	Actions     int
	Buys        int
	Points      int
	Attack      bool
	Reaction    bool
	Description string
}

type Phase string

const (
	PhaseAction  Phase = "action"
	PhaseBuy     Phase = "buy"
	PhaseCleanup Phase = "cleanup"
)

type MoveType string

const (
	MovePlayAction       MoveType = "play_action"
	MovePlayTreasure     MoveType = "play_treasure"
	MovePlayAllTreasures MoveType = "play_all_treasures"
	MoveBuy              MoveType = "buy"
	MoveEndPhase         MoveType = "end_phase"

	// Responses to a pending effect.
	MoveDiscardToHandSize MoveType = "discard_to_hand_size"
	MoveTopdeckVictory    MoveType = "topdeck_victory"
	MoveDiscardForCellar  MoveType = "discard_for_cellar"
)

// Move is a single atomic game action. Card is set for single-card moves,
// Cards for multi-card responses (discards).
type Move struct {
	Type  MoveType   `json:"type"`
	Card  CardName   `json:"card,omitempty"`
	Cards []CardName `json:"cards,omitempty"`
}

type EffectKind string

const (
	EffectDiscardToHandSize EffectKind = "discard_to_hand_size"
	EffectTopdeckVictory    EffectKind = "topdeck_victory"
	EffectDiscardForCellar  EffectKind = "discard_for_cellar"
)

// PendingEffect blocks normal play until TargetPlayer responds. At most one
// is outstanding at a time.
type PendingEffect struct {
	Card         CardName   `json:"card"`
	Kind         EffectKind `json:"kind"`
	TargetPlayer int        `json:"target_player"`
	HandLimit    int        `json:"hand_limit,omitempty"`
}

// PlayerState holds one player's zones and turn resources. Draw index 0 is
// the top of the pile.
type PlayerState struct {
	Name    string
	Draw    []CardName
	Hand    []CardName
	Discard []CardName
	InPlay  []CardName
	Actions int
	Buys    int
	Coins   int
}

// GameState is a full snapshot of a game. Engine operations never mutate a
// state in place; ExecuteMove returns a fresh copy.
type GameState struct {
	Players       []PlayerState
	Supply        map[CardName]int
	Trash         []CardName
	Kingdom       []CardName
	CurrentPlayer int
	Phase         Phase
	Turn          int
	Pending       *PendingEffect
	Seed          string
	Log           []string
}

// PlayerScore is one row of the final scoring table.
type PlayerScore struct {
	Player    int              `json:"player"`
	Name      string           `json:"name"`
	Score     int              `json:"score"`
	DeckSize  int              `json:"deck_size"`
	Breakdown map[CardName]int `json:"breakdown"`
}

// Clone deep-copies the state. Slices are copied, the supply map is copied,
// and the pending effect (if any) gets its own allocation.
func (s *GameState) Clone() *GameState {
	ns := &GameState{
		Players:       make([]PlayerState, len(s.Players)),
		Supply:        make(map[CardName]int, len(s.Supply)),
		Trash:         append([]CardName(nil), s.Trash...),
		Kingdom:       append([]CardName(nil), s.Kingdom...),
		CurrentPlayer: s.CurrentPlayer,
		Phase:         s.Phase,
		Turn:          s.Turn,
		Seed:          s.Seed,
		Log:           append([]string(nil), s.Log...),
	}
	for i, p := range s.Players {
		ns.Players[i] = PlayerState{
			Name:    p.Name,
			Draw:    append([]CardName(nil), p.Draw...),
			Hand:    append([]CardName(nil), p.Hand...),
			Discard: append([]CardName(nil), p.Discard...),
			InPlay:  append([]CardName(nil), p.InPlay...),
			Actions: p.Actions,
			Buys:    p.Buys,
			Coins:   p.Coins,
		}
	}
	for name, count := range s.Supply {
		ns.Supply[name] = count
	}
	if s.Pending != nil {
		pe := *s.Pending
		ns.Pending = &pe
	}
	return ns
}

// AllCards returns every card a player owns across all zones.
func (p *PlayerState) AllCards() []CardName {
	all := make([]CardName, 0, len(p.Draw)+len(p.Hand)+len(p.Discard)+len(p.InPlay))
	all = append(all, p.Draw...)
	all = append(all, p.Hand...)
	all = append(all, p.Discard...)
	all = append(all, p.InPlay...)
	return all
}

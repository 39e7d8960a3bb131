package principality

import "fmt"

// Base cards present in every game.
const (
	Copper   CardName = "Copper"
	Silver   CardName = "Silver"
	Gold     CardName = "Gold"
	Estate   CardName = "Estate"
	Duchy    CardName = "Duchy"
	Province CardName = "Province"
	Curse    CardName = "Curse"
)

// Kingdom cards.
const (
	Village     CardName = "Village"
	Smithy      CardName = "Smithy"
	Laboratory  CardName = "Laboratory"
	Market      CardName = "Market"
	Woodcutter  CardName = "Woodcutter"
	Festival    CardName = "Festival"
	CouncilRoom CardName = "Council Room"
	Cellar      CardName = "Cellar"
	Militia     CardName = "Militia"
	Witch       CardName = "Witch"
	Bureaucrat  CardName = "Bureaucrat"
	Moat        CardName = "Moat"
	Gardens     CardName = "Gardens"
)

var cardTable = map[CardName]Card{
	Copper: {Name: Copper, Type: CardTreasure, Cost: 0, Coins: 1, Description: "+$1"},
	Silver: {Name: Silver, Type: CardTreasure, Cost: 3, Coins: 2, Description: "+$2"},
	Gold:   {Name: Gold, Type: CardTreasure, Cost: 6, Coins: 3, Description: "+$3"},

	Estate:   {Name: Estate, Type: CardVictory, Cost: 2, Points: 1, Description: "1 VP"},
	Duchy:    {Name: Duchy, Type: CardVictory, Cost: 5, Points: 3, Description: "3 VP"},
	Province: {Name: Province, Type: CardVictory, Cost: 8, Points: 6, Description: "6 VP"},
	Gardens:  {Name: Gardens, Type: CardVictory, Cost: 4, Description: "1 VP per 10 cards in your deck"},
	Curse:    {Name: Curse, Type: CardCurse, Cost: 0, Points: -1, Description: "-1 VP"},

	Village:     {Name: Village, Type: CardAction, Cost: 3, Cards: 1, Actions: 2, Description: "+1 Card, +2 Actions"},
	Smithy:      {Name: Smithy, Type: CardAction, Cost: 4, Cards: 3, Description: "+3 Cards"},
	Laboratory:  {Name: Laboratory, Type: CardAction, Cost: 5, Cards: 2, Actions: 1, Description: "+2 Cards, +1 Action"},
	Market:      {Name: Market, Type: CardAction, Cost: 5, Cards: 1, Actions: 1, Coins: 1, Buys: 1, Description: "+1 Card, +1 Action, +$1, +1 Buy"},
	Woodcutter:  {Name: Woodcutter, Type: CardAction, Cost: 3, Coins: 2, Buys: 1, Description: "+$2, +1 Buy"},
	Festival:    {Name: Festival, Type: CardAction, Cost: 5, Actions: 2, Coins: 2, Buys: 1, Description: "+2 Actions, +$2, +1 Buy"},
	CouncilRoom: {Name: CouncilRoom, Type: CardAction, Cost: 5, Cards: 4, Buys: 1, Description: "+4 Cards, +1 Buy"},
	Cellar:      {Name: Cellar, Type: CardAction, Cost: 2, Actions: 1, Description: "+1 Action. Discard any number of cards, then draw that many"},
	Militia:     {Name: Militia, Type: CardAction, Cost: 4, Coins: 2, Attack: true, Description: "+$2. Each other player discards down to 3 cards"},
	Witch:       {Name: Witch, Type: CardAction, Cost: 5, Cards: 2, Attack: true, Description: "+2 Cards. Each other player gains a Curse"},
	Bureaucrat:  {Name: Bureaucrat, Type: CardAction, Cost: 4, Attack: true, Description: "Gain a Silver onto your deck. Each other player topdecks a victory card"},
	Moat:        {Name: Moat, Type: CardAction, Cost: 2, Cards: 2, Reaction: true, Description: "+2 Cards. Blocks attacks while in hand"},
}

// DefaultKingdom is the pile set used when a game is created without an
// explicit kingdom selection.
var DefaultKingdom = []CardName{
	Village, Smithy, Laboratory, Market, Festival,
	CouncilRoom, Cellar, Militia, Bureaucrat, Moat,
}

// KingdomPool lists every card eligible for kingdom selection.
var KingdomPool = []CardName{
	Village, Smithy, Laboratory, Market, Woodcutter, Festival,
	CouncilRoom, Cellar, Militia, Witch, Bureaucrat, Moat, Gardens,
}

// CardByName looks up a card definition.
func CardByName(name CardName) (Card, error) {
	c, ok := cardTable[name]
	if !ok {
		return Card{}, fmt.Errorf("%w: %s", ErrUnknownCard, name)
	}
	return c, nil
}

func mustCard(name CardName) Card {
	c, err := CardByName(name)
	if err != nil {
		panic(err)
	}
	return c
}

func IsTreasure(name CardName) bool {
	c, err := CardByName(name)
	return err == nil && c.Type == CardTreasure
}

func IsAction(name CardName) bool {
	c, err := CardByName(name)
	return err == nil && c.Type == CardAction
}

func IsVictory(name CardName) bool {
	c, err := CardByName(name)
	return err == nil && c.Type == CardVictory
}

// CardCost returns 0 for unknown names; callers validate names separately.
func CardCost(name CardName) int {
	c, err := CardByName(name)
	if err != nil {
		return 0
	}
	return c.Cost
}

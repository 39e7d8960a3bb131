package principality

import "errors"

var (
	ErrGameOver    = errors.New("game already over")
	ErrUnknownCard = errors.New("unknown card")
)

type InvalidMoveError string

func (e InvalidMoveError) Error() string { return "invalid move: " + string(e) }

func errInvalidMove(msg string) error { return InvalidMoveError(msg) }

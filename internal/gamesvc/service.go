// Package gamesvc is the application service in front of the engine: it
// owns session lifecycle, applies human moves, hands the turn to the
// coordinator, and archives finished games.
package gamesvc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"principality-lite/internal/archive"
	"principality-lite/internal/coordinator"
	"principality-lite/internal/registry"
	"principality-lite/internal/view"
	"principality-lite/principality"
	"principality-lite/principality/strategy"
)

const humanSeat = 0

var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrGameOver    = errors.New("game is over")
)

type Service struct {
	engine  *principality.Game
	reg     *registry.Registry
	coord   *coordinator.Coordinator
	archive archive.Service
}

func New(engine *principality.Game, reg *registry.Registry, coord *coordinator.Coordinator, arch archive.Service) *Service {
	return &Service{engine: engine, reg: reg, coord: coord, archive: arch}
}

type CreateGameRequest struct {
	Seed        string                  `json:"seed,omitempty"`
	Kingdom     []principality.CardName `json:"kingdom,omitempty"`
	PlayerName  string                  `json:"player_name,omitempty"`
	ModelTier   string                  `json:"model_tier,omitempty"`
	Narration   bool                    `json:"narration,omitempty"`
	ManualMode  bool                    `json:"manual_mode,omitempty"`
	VictoryPile int                     `json:"victory_pile_size,omitempty"`
}

type GameResponse struct {
	GameID     string               `json:"game_id"`
	State      view.ClientGameState `json:"state"`
	ValidMoves []view.DescribedMove `json:"valid_moves"`
	GameOver   *GameOverInfo        `json:"game_over,omitempty"`
}

type GameOverInfo struct {
	Reason string                     `json:"reason"`
	Scores []principality.PlayerScore `json:"scores"`
	Winner string                     `json:"winner"`
}

// MoveInput carries a human move, either structured or as a text command.
type MoveInput struct {
	Move    *principality.Move `json:"move,omitempty"`
	Command string             `json:"command,omitempty"`
}

// CreateGame initializes a fresh two-player game and registers a session
// for it. An empty seed gets a time-derived one.
func (s *Service) CreateGame(req CreateGameRequest) (*GameResponse, error) {
	seed := req.Seed
	if seed == "" {
		seed = fmt.Sprintf("seed-%d", time.Now().UnixNano())
	}
	tier, err := strategy.ParseTier(req.ModelTier)
	if err != nil {
		return nil, principality.InvalidMoveError(err.Error())
	}
	playerName := req.PlayerName
	if playerName == "" {
		playerName = "You"
	}
	state, err := s.engine.InitializeGame(principality.Options{
		Players:         2,
		Seed:            seed,
		Kingdom:         req.Kingdom,
		VictoryPileSize: req.VictoryPile,
		PlayerNames:     []string{playerName, "Opponent"},
	})
	if err != nil {
		return nil, principality.InvalidMoveError(err.Error())
	}
	sess := s.reg.Create(state, registry.SessionConfig{
		Seed:      seed,
		Tier:      tier,
		Narration: req.Narration,
		Manual:    req.ManualMode,
	})
	return s.gameResponse(sess), nil
}

// GetGame returns the human player's view of a session.
func (s *Service) GetGame(id string) (*GameResponse, error) {
	sess, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}
	return s.gameResponse(sess), nil
}

// Advance applies one human move, then lets the coordinator play the
// automated seat until control returns to the human or the game ends.
// Concurrent calls for the same game are rejected, never interleaved.
func (s *Service) Advance(ctx context.Context, id string, input MoveInput) (*GameResponse, error) {
	sess, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}
	if !sess.BeginMove() {
		return nil, registry.ErrMoveInFlight
	}
	defer sess.EndMove()

	state := sess.State()
	if s.engine.IsGameOver(state) {
		return nil, ErrGameOver
	}
	if !sess.Config.Manual && !s.humanMayAct(state) {
		return nil, ErrNotYourTurn
	}

	move, err := s.resolveMove(input, state)
	if err != nil {
		return nil, err
	}
	next, err := s.engine.ExecuteMove(state, move)
	if err != nil {
		return nil, err
	}
	if err := s.reg.ReplaceState(id, next); err != nil {
		return nil, err
	}
	s.maybeArchive(ctx, sess)

	if !sess.Config.Manual && s.coord.ShouldAutoPlay(next) {
		if _, err := s.coord.RunAutomatedTurn(ctx, sess); err != nil {
			log.Printf("[GameService] Automated turn for %s stopped: %v", id, err)
		}
		s.maybeArchive(ctx, sess)
	}
	return s.gameResponse(sess), nil
}

// EndGame removes a session.
func (s *Service) EndGame(id string) error {
	if !s.reg.End(id) {
		return registry.ErrNotFound
	}
	return nil
}

// ListGames returns summaries of all live sessions in creation order.
func (s *Service) ListGames() []registry.Summary { return s.reg.List() }

// History lists recently finished games from the archive.
func (s *Service) History(ctx context.Context, limit int) ([]archive.Result, error) {
	return s.archive.ListRecent(ctx, limit)
}

// ClientState implements the gateway's state provider: the spectator view
// of a game plus the current legal moves.
func (s *Service) ClientState(gameID string) (any, error) {
	sess, err := s.reg.Get(gameID)
	if err != nil {
		return nil, err
	}
	state := sess.State()
	payload := map[string]any{
		"state": view.Project(state, view.Spectator),
	}
	// Valid-move descriptions name cards in the acting player's hand; keep
	// them out of the snapshot while the automated seat decides.
	if sess.Config.Manual || s.humanMayAct(state) {
		payload["valid_moves"] = view.FormatValidMoves(s.engine.GetValidMoves(state), state)
	}
	return payload, nil
}

// humanMayAct allows a move when the human holds the turn, or when a
// pending effect awaits the human's response.
func (s *Service) humanMayAct(state *principality.GameState) bool {
	if state.Pending != nil {
		return state.Pending.TargetPlayer == humanSeat
	}
	return state.CurrentPlayer == humanSeat
}

func (s *Service) resolveMove(input MoveInput, state *principality.GameState) (principality.Move, error) {
	if input.Move != nil {
		return *input.Move, nil
	}
	if input.Command != "" {
		return principality.ParseMove(input.Command, state)
	}
	return principality.Move{}, principality.InvalidMoveError("missing move")
}

// maybeArchive records the result once the game is over. The archive upsert
// keeps repeated calls harmless.
func (s *Service) maybeArchive(ctx context.Context, sess *registry.Session) {
	state := sess.State()
	over, reason := s.engine.CheckGameOver(state)
	if !over {
		return
	}
	scores := s.engine.ComputeScores(state)
	winner := "tie"
	if idx := s.engine.Winner(scores); idx >= 0 {
		winner = state.Players[idx].Name
	}
	res := archive.Result{
		GameID:     sess.ID,
		Seed:       sess.Config.Seed,
		Winner:     winner,
		Reason:     reason,
		Scores:     scores,
		Turns:      state.Turn,
		MoveCount:  sess.MoveCount(),
		FinishedAt: time.Now().UTC(),
	}
	if err := s.archive.RecordResult(ctx, res); err != nil {
		log.Printf("[GameService] Archive result for %s failed: %v", sess.ID, err)
	}
}

func (s *Service) gameResponse(sess *registry.Session) *GameResponse {
	state := sess.State()
	resp := &GameResponse{
		GameID: sess.ID,
		State:  view.Project(state, humanSeat),
	}
	if over, reason := s.engine.CheckGameOver(state); over {
		scores := s.engine.ComputeScores(state)
		winner := "tie"
		if idx := s.engine.Winner(scores); idx >= 0 {
			winner = state.Players[idx].Name
		}
		resp.GameOver = &GameOverInfo{Reason: reason, Scores: scores, Winner: winner}
		return resp
	}
	// The legal-move list enumerates the acting player's hand, so it is only
	// attached while the human (or, in manual mode, whoever the controller
	// drives) must act.
	if sess.Config.Manual || s.humanMayAct(state) {
		resp.ValidMoves = view.FormatValidMoves(s.engine.GetValidMoves(state), state)
	}
	return resp
}

// Package archive persists finished-game results. The backend is selected
// by environment: memory (no-op), sqlite, or postgres.
package archive

import (
	"context"
	"errors"
	"strings"
	"time"

	"principality-lite/principality"
)

const defaultListLimit = 20

// Result is one finished game.
type Result struct {
	GameID     string                    `json:"game_id"`
	Seed       string                    `json:"seed"`
	Winner     string                    `json:"winner"`
	Reason     string                    `json:"reason"`
	Scores     []principality.PlayerScore `json:"scores"`
	Turns      int                       `json:"turns"`
	MoveCount  int                       `json:"move_count"`
	FinishedAt time.Time                 `json:"finished_at"`
}

type Service interface {
	Close() error
	RecordResult(ctx context.Context, res Result) error
	ListRecent(ctx context.Context, limit int) ([]Result, error)
}

type noopService struct{}

func (n *noopService) Close() error { return nil }

func (n *noopService) RecordResult(context.Context, Result) error { return nil }

func (n *noopService) ListRecent(context.Context, int) ([]Result, error) {
	return []Result{}, nil
}

// NewServiceFromEnv picks a backend by mode name and returns the service
// plus the resolved mode string for startup logging.
func NewServiceFromEnv(mode, dsn string) (Service, string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "memory":
		return &noopService{}, "memory-noop", nil
	case "local", "sqlite":
		svc, err := newSQLiteService(dsn)
		if err != nil {
			return nil, "", err
		}
		return svc, "sqlite", nil
	case "postgres":
		svc, err := newPostgresService(dsn)
		if err != nil {
			return nil, "", err
		}
		return svc, "postgres", nil
	}
	return nil, "", errors.New("unknown archive mode " + mode)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return defaultListLimit
	}
	return limit
}

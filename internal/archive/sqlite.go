package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"principality-lite/principality"
)

const defaultSQLitePath = "./archive.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_results (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id     TEXT NOT NULL UNIQUE,
    seed        TEXT NOT NULL DEFAULT '',
    winner      TEXT NOT NULL DEFAULT '',
    reason      TEXT NOT NULL DEFAULT '',
    scores_json TEXT NOT NULL DEFAULT '[]',
    turns       INTEGER NOT NULL DEFAULT 0,
    move_count  INTEGER NOT NULL DEFAULT 0,
    finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_results_finished_at
    ON game_results (finished_at DESC);
`

type sqliteService struct {
	db *sql.DB
}

func newSQLiteService(path string) (*sqliteService, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteService{db: db}, nil
}

func (s *sqliteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteService) RecordResult(ctx context.Context, res Result) error {
	scoresRaw, err := json.Marshal(res.Scores)
	if err != nil {
		return err
	}
	if res.FinishedAt.IsZero() {
		res.FinishedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO game_results (game_id, seed, winner, reason, scores_json, turns, move_count, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id) DO UPDATE SET
    winner = excluded.winner,
    reason = excluded.reason,
    scores_json = excluded.scores_json,
    turns = excluded.turns,
    move_count = excluded.move_count,
    finished_at = excluded.finished_at
`, res.GameID, res.Seed, res.Winner, res.Reason, string(scoresRaw), res.Turns, res.MoveCount, res.FinishedAt)
	return err
}

func (s *sqliteService) ListRecent(ctx context.Context, limit int) ([]Result, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, seed, winner, reason, scores_json, turns, move_count, finished_at
FROM game_results
ORDER BY finished_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Result, 0, limit)
	for rows.Next() {
		var res Result
		var scoresRaw []byte
		if err := rows.Scan(&res.GameID, &res.Seed, &res.Winner, &res.Reason, &scoresRaw, &res.Turns, &res.MoveCount, &res.FinishedAt); err != nil {
			return nil, err
		}
		if len(scoresRaw) > 0 {
			_ = json.Unmarshal(scoresRaw, &res.Scores)
		}
		if res.Scores == nil {
			res.Scores = []principality.PlayerScore{}
		}
		items = append(items, res)
	}
	return items, rows.Err()
}

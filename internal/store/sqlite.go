// internal/store/sqlite.go
//
// SQLite-backed Store. Expects the games/game_moves schema from
// assets/sql to be migrated already.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type sqliteStore struct{ db *sql.DB }

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) Store { return &sqliteStore{db: db} }

func (s *sqliteStore) CreateGame(ctx context.Context, rec GameRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, ruleset, board, players, status, started_at) VALUES (?,?,?,?,?,?)`,
		rec.ID, rec.Ruleset, rec.Board, strings.Join(rec.Players, ","), StatusPlaying,
		rec.StartedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *sqliteStore) AppendMove(ctx context.Context, gameID string, m MoveRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO game_moves (game_id, ply, color, from_x, from_y, to_x, to_y, captured, played_at)
		 SELECT id,?,?,?,?,?,?,?,? FROM games WHERE id=?`,
		m.Ply, m.Color, m.FromX, m.FromY, m.ToX, m.ToY, m.Captured,
		m.PlayedAt.UTC().Format(time.RFC3339Nano), gameID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *sqliteStore) FinishGame(ctx context.Context, gameID, status, winner string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET status=?, winner=NULLIF(?, ''), finished_at=? WHERE id=?`,
		status, winner, at.UTC().Format(time.RFC3339Nano), gameID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const gameColumns = `id, ruleset, board, players, status, COALESCE(winner,''), started_at, COALESCE(finished_at,'')`

type scanner interface{ Scan(dest ...any) error }

func scanGame(row scanner) (*GameRecord, error) {
	var (
		g                 GameRecord
		players           string
		started, finished string
	)
	if err := row.Scan(&g.ID, &g.Ruleset, &g.Board, &players, &g.Status, &g.Winner, &started, &finished); err != nil {
		return nil, err
	}
	if players != "" {
		g.Players = strings.Split(players, ",")
	}
	g.StartedAt = parseTime(started)
	if finished != "" {
		t := parseTime(finished)
		g.FinishedAt = &t
	}
	return &g, nil
}

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (s *sqliteStore) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ply, color, from_x, from_y, to_x, to_y, captured, played_at
		 FROM game_moves WHERE game_id=? ORDER BY ply`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m      MoveRecord
			played string
		)
		if err := rows.Scan(&m.Ply, &m.Color, &m.FromX, &m.FromY, &m.ToX, &m.ToY, &m.Captured, &played); err != nil {
			return nil, err
		}
		m.PlayedAt = parseTime(played)
		g.Moves = append(g.Moves, m)
	}
	return g, rows.Err()
}

func (s *sqliteStore) ListGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]GameRecord, 0, limit)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

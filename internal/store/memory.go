// internal/store/memory.go
//
// Persistence of played games and their move log.
// This file holds the Store interface, the record types and the in-memory
// implementation; sqlite.go holds the SQLite one.
//
// Characteristics of the memory store:
//   - Records keyed by game ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown game IDs.
var ErrNotFound = errors.New("not found")

// Game status values.
const (
	StatusPlaying = "playing"
	StatusWon     = "won"
	StatusDraw    = "draw"
	StatusAborted = "aborted"
)

// GameRecord is one archived game.
type GameRecord struct {
	ID         string       `json:"id"`
	Ruleset    string       `json:"ruleset"`
	Board      string       `json:"board"`   // starting position, board notation
	Players    []string     `json:"players"` // colors in turn order
	Status     string       `json:"status"`
	Winner     string       `json:"winner,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
	Moves      []MoveRecord `json:"moves,omitempty"`
}

// MoveRecord is one applied move.
type MoveRecord struct {
	Ply      int       `json:"ply"`
	Color    string    `json:"color"`
	FromX    int       `json:"fromX"`
	FromY    int       `json:"fromY"`
	ToX      int       `json:"toX"`
	ToY      int       `json:"toY"`
	Captured bool      `json:"captured"`
	PlayedAt time.Time `json:"playedAt"`
}

// Store defines the persistence interface for game records.
type Store interface {
	// CreateGame inserts a new game in StatusPlaying.
	CreateGame(ctx context.Context, rec GameRecord) error

	// AppendMove adds a move to a game's log.
	AppendMove(ctx context.Context, gameID string, m MoveRecord) error

	// FinishGame sets the final status (and winner, may be empty).
	FinishGame(ctx context.Context, gameID, status, winner string, at time.Time) error

	// GetGame returns a game with its moves, or ErrNotFound.
	GetGame(ctx context.Context, id string) (*GameRecord, error)

	// ListGames returns the most recently started games, without moves.
	ListGames(ctx context.Context, limit int) ([]GameRecord, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex
	games map[string]*GameRecord
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]*GameRecord)}
}

func (m *memory) CreateGame(ctx context.Context, rec GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[rec.ID]; ok {
		return errors.New("game exists")
	}
	rec.Status = StatusPlaying
	rec.Players = append([]string(nil), rec.Players...)
	rec.Moves = nil
	m.games[rec.ID] = &rec
	return nil
}

func (m *memory) AppendMove(ctx context.Context, gameID string, mv MoveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.Moves = append(g.Moves, mv)
	return nil
}

func (m *memory) FinishGame(ctx context.Context, gameID, status, winner string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.Status, g.Winner = status, winner
	g.FinishedAt = &at
	return nil
}

// GetGame returns a copy so callers cannot race with later writes.
func (m *memory) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	cp.Players = append([]string(nil), g.Players...)
	cp.Moves = append([]MoveRecord(nil), g.Moves...)
	return &cp, nil
}

func (m *memory) ListGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	out := make([]GameRecord, 0, len(m.games))
	for _, g := range m.games {
		cp := *g
		cp.Moves = nil
		out = append(out, cp)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

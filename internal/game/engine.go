// internal/game/engine.go
//
// Game state for a single Alfheimr session.
// Responsibilities:
//   - Seat connecting clients: first free color in turn order, or the color
//     named by a valid seat token; everyone else spectates.
//   - Start the game once every color is seated.
//   - Validate and apply moves against the cached legal move list.
//   - Run ruleset hooks, rotate the turn and detect checkmate/stalemate.
//   - Archive the game and its moves in the store (best effort).
//
// Notes:
//   - Game is not safe for concurrent use. Session serializes access.
//   - Methods return the messages to deliver instead of writing to sockets,
//     so the engine can be tested without a network.
package game

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/rules"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/store"
)

// Rejection reasons sent as invalid_message.
const (
	ReasonNotStarted   = "Game has not started yet"
	ReasonNotConnected = "Client has not connected"
	ReasonNotYourTurn  = "It is not your turn"
	ReasonInvalidMove  = "Move is not valid"
	ReasonGameOver     = "Game is over"
	ReasonMalformed    = "Message could not be parsed"
	ReasonUnknown      = "Unknown action"
)

// ClientID identifies a connection for the lifetime of the process.
type ClientID uint64

// Outbound is a message addressed to some clients. A nil To means everyone.
type Outbound struct {
	To  []ClientID
	Msg Message
}

func broadcast(msg Message) Outbound { return Outbound{Msg: msg} }

func unicast(id ClientID, msg Message) Outbound {
	return Outbound{To: []ClientID{id}, Msg: msg}
}

// Seats issues and verifies seat tokens, letting a player reclaim its
// color after a reconnect.
type Seats interface {
	Issue(gameID string, c logic.Color) (string, error)
	Verify(token string) (gameID string, c logic.Color, err error)
}

// State is a read-only snapshot for the HTTP API.
type State struct {
	GameID  string           `json:"gameId"`
	Ruleset string           `json:"ruleset"`
	Board   string           `json:"board"`
	Turn    logic.Color      `json:"turn"`
	Ply     int              `json:"ply"`
	Started bool             `json:"started"`
	Over    bool             `json:"over"`
	Winner  *logic.Color     `json:"winner,omitempty"`
	Seated  []logic.Color    `json:"seated"`
	Clients int              `json:"clients"`
	Moves   []logic.GameMove `json:"moves"`
}

type client struct {
	color *logic.Color // nil for spectators
}

// Game is one running match.
type Game struct {
	ID string

	rs    *rules.Ruleset
	store store.Store
	seats Seats
	now   func() time.Time

	board   *logic.Board
	turn    logic.Color
	ply     int
	legal   []logic.GameMove
	started bool
	over    bool
	winner  *logic.Color

	clients map[ClientID]*client
	seated  map[logic.Color]ClientID
}

// New prepares a game from a ruleset. Nothing is archived until every
// color is seated.
func New(rs *rules.Ruleset, st store.Store, seats Seats) *Game {
	return &Game{
		ID:      genID(),
		rs:      rs,
		store:   st,
		seats:   seats,
		now:     time.Now,
		board:   rs.NewBoard(),
		turn:    rs.Colors[0],
		clients: map[ClientID]*client{},
		seated:  map[logic.Color]ClientID{},
	}
}

// Connect registers a client and returns its greeting plus whatever state
// it needs to catch up. token may be empty.
func (g *Game) Connect(ctx context.Context, id ClientID, token string) []Outbound {
	color, seated := g.pickSeat(token)
	c := &client{}
	greet := NewClient{
		Name:       g.rs.Name,
		GameID:     g.ID,
		ClientType: ClientType{Type: "spectator"},
		Pieces:     pieceNames(g.rs.Pieces),
	}
	if seated {
		c.color = &color
		g.seated[color] = id
		n := uint8(color)
		greet.ClientType = ClientType{Type: "player", Color: &n}
		if g.seats != nil {
			tok, err := g.seats.Issue(g.ID, color)
			if err != nil {
				log.Error().Err(err).Str("game", g.ID).Msg("issue seat token")
			}
			greet.Token = tok
		}
		log.Info().Str("game", g.ID).Uint64("client", uint64(id)).Str("color", color.String()).Msg("player connected")
	} else {
		log.Info().Str("game", g.ID).Uint64("client", uint64(id)).Msg("spectator connected")
	}
	g.clients[id] = c

	out := []Outbound{unicast(id, Message{Action: ActionNewClient, Data: greet})}
	switch {
	case !g.started && len(g.seated) == len(g.rs.Colors):
		out = append(out, g.start(ctx)...)
	case g.over:
		out = append(out, unicast(id, g.endMessage()))
	case g.started:
		out = append(out, unicast(id, g.moveMessage()))
	}
	return out
}

// pickSeat prefers the color named by a valid token for this game, then the
// first free color in turn order.
func (g *Game) pickSeat(token string) (logic.Color, bool) {
	if token != "" && g.seats != nil {
		gid, c, err := g.seats.Verify(token)
		switch {
		case err != nil:
			log.Debug().Err(err).Msg("rejected seat token")
		case gid == g.ID && slices.Contains(g.rs.Colors, c):
			if _, taken := g.seated[c]; !taken {
				return c, true
			}
		}
	}
	for _, c := range g.rs.Colors {
		if _, taken := g.seated[c]; !taken {
			return c, true
		}
	}
	return 0, false
}

// Disconnect forgets a client and frees its seat.
func (g *Game) Disconnect(id ClientID) {
	c, ok := g.clients[id]
	if !ok {
		return
	}
	delete(g.clients, id)
	if c.color != nil && g.seated[*c.color] == id {
		delete(g.seated, *c.color)
		log.Info().Str("game", g.ID).Str("color", c.color.String()).Msg("player disconnected")
		return
	}
	log.Info().Str("game", g.ID).Msg("spectator disconnected")
}

func (g *Game) start(ctx context.Context) []Outbound {
	g.started = true
	g.turn = g.rs.Colors[0]
	players := make([]string, len(g.rs.Colors))
	for i, c := range g.rs.Colors {
		players[i] = c.String()
	}
	err := g.store.CreateGame(ctx, store.GameRecord{
		ID:        g.ID,
		Ruleset:   g.rs.Name,
		Board:     g.board.Notation(),
		Players:   players,
		Status:    store.StatusPlaying,
		StartedAt: g.now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("game", g.ID).Msg("archive game")
	}
	log.Info().Str("game", g.ID).Str("ruleset", g.rs.Name).Msg("game started")
	return g.beginTurn(ctx)
}

// beginTurn computes the legal moves of the player to move and either
// announces the turn or ends the game.
func (g *Game) beginTurn(ctx context.Context) []Outbound {
	legal, err := logic.LegalMoves(g.turn, g.rs.Pieces, g.board, g.rs.Extension())
	if err != nil {
		log.Warn().Err(err).Str("game", g.ID).Msg("extension moves")
	}
	g.legal = legal
	switch logic.ClassifyTerminal(g.turn, legal, g.rs.Pieces, g.board) {
	case logic.StateCheckmated:
		// The previous mover delivered mate.
		prev := g.previous(g.turn)
		return g.finish(ctx, &prev)
	case logic.StateStalemated:
		return g.finish(ctx, nil)
	}
	return []Outbound{broadcast(g.moveMessage())}
}

func (g *Game) previous(c logic.Color) logic.Color {
	i := slices.Index(g.rs.Colors, c)
	n := len(g.rs.Colors)
	return g.rs.Colors[(i+n-1)%n]
}

// finish ends the game; a nil winner is a draw.
func (g *Game) finish(ctx context.Context, winner *logic.Color) []Outbound {
	g.over = true
	g.winner = winner
	g.legal = nil
	status, name := store.StatusDraw, ""
	if winner != nil {
		status, name = store.StatusWon, winner.String()
	}
	if err := g.store.FinishGame(ctx, g.ID, status, name, g.now().UTC()); err != nil {
		log.Error().Err(err).Str("game", g.ID).Msg("archive result")
	}
	log.Info().Str("game", g.ID).Str("status", status).Str("winner", name).Msg("game over")
	return []Outbound{broadcast(g.endMessage())}
}

type moveRequest struct {
	From *logic.Point `json:"from"`
	To   *logic.Point `json:"to"`
}

// HandleMessage processes one raw client message.
func (g *Game) HandleMessage(ctx context.Context, id ClientID, raw []byte) []Outbound {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return []Outbound{unicast(id, invalid(ReasonMalformed))}
	}
	switch in.Action {
	case ActionMove:
		var req moveRequest
		if err := json.Unmarshal(in.Data, &req); err != nil || req.From == nil || req.To == nil {
			return []Outbound{unicast(id, invalid(ReasonMalformed))}
		}
		return g.Move(ctx, id, logic.GameMove{From: *req.From, To: *req.To})
	default:
		return []Outbound{unicast(id, invalid(ReasonUnknown))}
	}
}

// Move validates and plays mv on behalf of client id.
func (g *Game) Move(ctx context.Context, id ClientID, mv logic.GameMove) []Outbound {
	if reason := g.validate(id, mv); reason != "" {
		return []Outbound{unicast(id, invalid(reason))}
	}

	mover := g.turn
	captured, err := g.board.ApplyMove(mv)
	if err != nil {
		// Legal moves always apply; reaching this is a generator bug.
		log.Error().Err(err).Str("game", g.ID).Str("move", mv.String()).Msg("apply legal move")
		return []Outbound{broadcast(Message{Action: ActionError, Data: err.Error()})}
	}
	g.ply++
	log.Debug().Str("game", g.ID).Str("color", mover.String()).Str("move", mv.String()).Bool("captured", captured).Msg("move")

	if err := g.store.AppendMove(ctx, g.ID, store.MoveRecord{
		Ply:      g.ply,
		Color:    mover.String(),
		FromX:    mv.From.X,
		FromY:    mv.From.Y,
		ToX:      mv.To.X,
		ToY:      mv.To.Y,
		Captured: captured,
		PlayedAt: g.now().UTC(),
	}); err != nil {
		log.Error().Err(err).Str("game", g.ID).Msg("archive move")
	}

	var out []Outbound
	res, err := g.rs.AfterMove(rules.MoveContext{
		Board:    g.board,
		Move:     mv,
		Color:    mover,
		Captured: captured,
	})
	if err != nil {
		log.Warn().Err(err).Str("game", g.ID).Msg("hook failed")
		out = append(out, broadcast(Message{Action: ActionError, Data: err.Error()}))
	}

	g.turn = logic.NextColor(g.rs.Colors, mover)
	if res.Winner != nil {
		return append(out, g.finish(ctx, res.Winner)...)
	}
	return append(out, g.beginTurn(ctx)...)
}

func (g *Game) validate(id ClientID, mv logic.GameMove) string {
	if g.over {
		return ReasonGameOver
	}
	if !g.started {
		return ReasonNotStarted
	}
	c, ok := g.clients[id]
	if !ok {
		return ReasonNotConnected
	}
	if c.color == nil || *c.color != g.turn || g.seated[g.turn] != id {
		return ReasonNotYourTurn
	}
	if _, found := slices.BinarySearchFunc(g.legal, mv, logic.GameMove.Compare); !found {
		return ReasonInvalidMove
	}
	return ""
}

// Reset discards the current game and prepares a fresh one with the same
// clients seated in the same colors.
func (g *Game) Reset(ctx context.Context) []Outbound {
	if g.started && !g.over {
		if err := g.store.FinishGame(ctx, g.ID, store.StatusAborted, "", g.now().UTC()); err != nil {
			log.Error().Err(err).Str("game", g.ID).Msg("archive abort")
		}
	}
	old := g.ID
	g.ID = genID()
	g.board = g.rs.NewBoard()
	g.turn = g.rs.Colors[0]
	g.ply = 0
	g.legal = nil
	g.started, g.over, g.winner = false, false, nil
	log.Info().Str("old", old).Str("game", g.ID).Msg("game reset")

	var out []Outbound
	ids := make([]ClientID, 0, len(g.clients))
	for id := range g.clients {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		greet := NewClient{
			Name:       g.rs.Name,
			GameID:     g.ID,
			ClientType: ClientType{Type: "spectator"},
			Pieces:     pieceNames(g.rs.Pieces),
		}
		if c := g.clients[id].color; c != nil {
			n := uint8(*c)
			greet.ClientType = ClientType{Type: "player", Color: &n}
			if g.seats != nil {
				tok, err := g.seats.Issue(g.ID, *c)
				if err != nil {
					log.Error().Err(err).Str("game", g.ID).Msg("issue seat token")
				}
				greet.Token = tok
			}
		}
		out = append(out, unicast(id, Message{Action: ActionNewClient, Data: greet}))
	}
	if len(g.seated) == len(g.rs.Colors) {
		out = append(out, g.start(ctx)...)
	}
	return out
}

// Snapshot returns the current state.
func (g *Game) Snapshot() State {
	seated := make([]logic.Color, 0, len(g.seated))
	for c := range g.seated {
		seated = append(seated, c)
	}
	slices.Sort(seated)
	return State{
		GameID:  g.ID,
		Ruleset: g.rs.Name,
		Board:   g.board.Notation(),
		Turn:    g.turn,
		Ply:     g.ply,
		Started: g.started,
		Over:    g.over,
		Winner:  g.winner,
		Seated:  seated,
		Clients: len(g.clients),
		Moves:   slices.Clone(g.legal),
	}
}

func (g *Game) moveMessage() Message {
	return Message{Action: ActionMove, Data: MoveData{
		Turn:  uint8(g.turn),
		Board: boardData(g.board),
		Moves: g.legal,
	}}
}

func (g *Game) endMessage() Message {
	if g.winner == nil {
		return Message{Action: ActionDraw, Data: DrawData{Board: boardData(g.board)}}
	}
	return Message{Action: ActionWinner, Data: WinnerData{Winner: uint8(*g.winner), Board: boardData(g.board)}}
}

// Encode renders a message for the wire.
func Encode(msg Message) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Action, err)
	}
	return b, nil
}

// genID returns a URL-safe random identifier.
func genID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(errors.Join(errors.New("game: random id"), err))
	}
	return base64.RawURLEncoding.EncodeToString(b[:])
}

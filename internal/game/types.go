// internal/game/types.go
//
// Wire messages exchanged with websocket clients.
// Every message is {"action": ..., "data": ...}.
//
// Server → client actions:
//   - new_client:      name, client_type ({type: player, color: n} | {type: spectator}), pieces, token
//   - invalid_message: string explaining why the client's message was rejected
//   - move:            turn, board, moves (the legal moves of the player to move)
//   - winner:          winner, board
//   - draw:            board
//   - error:           string
//
// Client → server actions:
//   - move: {"from": [x, y], "to": [x, y]}
//
// Colors are sent as their ordinal (0 white, 1 black, 2 yellow).

package game

import (
	"encoding/json"
	"sort"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
)

// Actions.
const (
	ActionNewClient      = "new_client"
	ActionInvalidMessage = "invalid_message"
	ActionMove           = "move"
	ActionWinner         = "winner"
	ActionDraw           = "draw"
	ActionError          = "error"
)

// Message is the envelope of every websocket message.
type Message struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

// inbound is the envelope as received; Data is decoded per action.
type inbound struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// ClientType tells a client whether it plays a color or spectates.
type ClientType struct {
	Type  string `json:"type"` // "player" | "spectator"
	Color *uint8 `json:"color,omitempty"`
}

// NewClient greets a freshly connected client.
type NewClient struct {
	Name       string      `json:"name"`
	GameID     string      `json:"game_id"`
	ClientType ClientType  `json:"client_type"`
	Pieces     [][2]string `json:"pieces"` // [symbol, display name]
	Token      string      `json:"token,omitempty"`
}

// MoveData announces whose turn it is and what they may play.
type MoveData struct {
	Turn  uint8            `json:"turn"`
	Board BoardData        `json:"board"`
	Moves []logic.GameMove `json:"moves"`
}

// WinnerData ends the game with a winner.
type WinnerData struct {
	Winner uint8     `json:"winner"`
	Board  BoardData `json:"board"`
}

// DrawData ends the game without a winner.
type DrawData struct {
	Board BoardData `json:"board"`
}

// Cell is an occupied square; it encodes as [symbol, color].
type Cell struct {
	Symbol string
	Color  uint8
}

func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Symbol, c.Color})
}

// BoardData is the board as sent to clients; empty squares are null.
type BoardData [][]*Cell

func boardData(b *logic.Board) BoardData {
	out := make(BoardData, len(b.Rows))
	for y, row := range b.Rows {
		out[y] = make([]*Cell, len(row))
		for x, p := range row {
			if p != nil {
				out[y][x] = &Cell{Symbol: p.Symbol, Color: uint8(p.Color)}
			}
		}
	}
	return out
}

func pieceNames(pieces logic.PieceList) [][2]string {
	out := make([][2]string, 0, len(pieces))
	for sym, p := range pieces {
		out = append(out, [2]string{sym, p.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func invalid(reason string) Message { return Message{Action: ActionInvalidMessage, Data: reason} }

package game

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/rules"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/store"
)

type fakeSeats struct{}

func (fakeSeats) Issue(gameID string, c logic.Color) (string, error) {
	return gameID + "/" + c.String(), nil
}

func (fakeSeats) Verify(token string) (string, logic.Color, error) {
	gid, col, ok := strings.Cut(token, "/")
	if !ok {
		return "", 0, errors.New("bad token")
	}
	c, err := logic.ParseColor(col)
	return gid, c, err
}

func mv(fx, fy, tx, ty int) logic.GameMove {
	return logic.GameMove{From: logic.Point{X: fx, Y: fy}, To: logic.Point{X: tx, Y: ty}}
}

func moveJSON(m logic.GameMove) []byte {
	b, _ := json.Marshal(map[string]any{"action": "move", "data": map[string]any{"from": m.From, "to": m.To}})
	return b
}

func newGame(t *testing.T, rs *rules.Ruleset) (*Game, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	return New(rs, st, fakeSeats{}), st
}

func loadRules(t *testing.T, doc string) *rules.Ruleset {
	t.Helper()
	rs, err := rules.Load(strings.NewReader(doc))
	require.NoError(t, err)
	return rs
}

func last(out []Outbound) Message {
	return out[len(out)-1].Msg
}

func TestConnect_SeatsAndStart(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	g, st := newGame(t, rs)
	ctx := context.Background()

	out := g.Connect(ctx, 1, "")
	require.Len(t, out, 1)
	assert.Equal(t, []ClientID{1}, out[0].To)
	greet := out[0].Msg.Data.(NewClient)
	assert.Equal(t, "Standard chess", greet.Name)
	assert.Equal(t, "player", greet.ClientType.Type)
	assert.EqualValues(t, 0, *greet.ClientType.Color)
	assert.Equal(t, g.ID+"/white", greet.Token)
	assert.Equal(t, [2]string{"b", "Bishop"}, greet.Pieces[0])
	assert.False(t, g.Snapshot().Started)

	out = g.Connect(ctx, 2, "")
	require.Len(t, out, 2)
	assert.EqualValues(t, 1, *out[0].Msg.Data.(NewClient).ClientType.Color)
	assert.Nil(t, out[1].To)
	require.Equal(t, ActionMove, out[1].Msg.Action)
	md := out[1].Msg.Data.(MoveData)
	assert.EqualValues(t, 0, md.Turn)
	assert.Len(t, md.Moves, 20)

	rec, err := st.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPlaying, rec.Status)
	assert.Equal(t, []string{"white", "black"}, rec.Players)

	// late joiners spectate and catch up
	out = g.Connect(ctx, 3, "")
	require.Len(t, out, 2)
	assert.Equal(t, "spectator", out[0].Msg.Data.(NewClient).ClientType.Type)
	assert.Empty(t, out[0].Msg.Data.(NewClient).Token)
	assert.Equal(t, []ClientID{3}, out[1].To)
	assert.Equal(t, ActionMove, out[1].Msg.Action)

	s := g.Snapshot()
	assert.True(t, s.Started)
	assert.Equal(t, 3, s.Clients)
	assert.Equal(t, []logic.Color{logic.White, logic.Black}, s.Seated)
}

func TestConnect_TokenReclaimsSeat(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	g, _ := newGame(t, rs)
	ctx := context.Background()

	g.Connect(ctx, 1, "")
	g.Connect(ctx, 2, "")
	g.Disconnect(1)
	g.Disconnect(2)

	out := g.Connect(ctx, 3, g.ID+"/black")
	assert.EqualValues(t, 1, *out[0].Msg.Data.(NewClient).ClientType.Color)

	// tokens for other games are ignored
	out = g.Connect(ctx, 4, "other/black")
	assert.EqualValues(t, 0, *out[0].Msg.Data.(NewClient).ClientType.Color)
}

func TestMove_Validation(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	g, _ := newGame(t, rs)
	ctx := context.Background()

	out := g.HandleMessage(ctx, 1, moveJSON(mv(4, 6, 4, 4)))
	assert.Equal(t, invalid(ReasonNotStarted), last(out))

	g.Connect(ctx, 1, "")
	g.Connect(ctx, 2, "")
	g.Connect(ctx, 3, "")

	cases := []struct {
		name string
		id   ClientID
		raw  []byte
		want string
	}{
		{"unknown client", 99, moveJSON(mv(4, 6, 4, 4)), ReasonNotConnected},
		{"wrong player", 2, moveJSON(mv(4, 1, 4, 3)), ReasonNotYourTurn},
		{"spectator", 3, moveJSON(mv(4, 6, 4, 4)), ReasonNotYourTurn},
		{"illegal", 1, moveJSON(mv(0, 6, 0, 3)), ReasonInvalidMove},
		{"empty square", 1, moveJSON(mv(4, 4, 4, 3)), ReasonInvalidMove},
		{"garbage", 1, []byte("{"), ReasonMalformed},
		{"missing to", 1, []byte(`{"action":"move","data":{"from":[4,6]}}`), ReasonMalformed},
		{"short point", 1, []byte(`{"action":"move","data":{"from":[4],"to":[4,4]}}`), ReasonMalformed},
		{"long point", 1, []byte(`{"action":"move","data":{"from":[4,6,0],"to":[4,4]}}`), ReasonMalformed},
		{"unknown action", 1, []byte(`{"action":"resign"}`), ReasonUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := g.HandleMessage(ctx, tc.id, tc.raw)
			require.Len(t, out, 1)
			assert.Equal(t, []ClientID{tc.id}, out[0].To)
			assert.Equal(t, invalid(tc.want), out[0].Msg)
		})
	}

	out = g.HandleMessage(ctx, 1, moveJSON(mv(4, 6, 4, 4)))
	require.Len(t, out, 1)
	md := out[0].Msg.Data.(MoveData)
	assert.EqualValues(t, 1, md.Turn)
	assert.Equal(t, &Cell{Symbol: "p", Color: 0}, md.Board[4][4])
	assert.Nil(t, md.Board[6][4])
	assert.Equal(t, 1, g.Snapshot().Ply)
}

func TestMove_FoolsMate(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	g, st := newGame(t, rs)
	ctx := context.Background()
	g.Connect(ctx, 1, "")
	g.Connect(ctx, 2, "")

	var out []Outbound
	for i, m := range []logic.GameMove{mv(5, 6, 5, 5), mv(4, 1, 4, 3), mv(6, 6, 6, 4), mv(3, 0, 7, 4)} {
		out = g.Move(ctx, ClientID(i%2+1), m)
		require.NotEqual(t, ActionInvalidMessage, last(out).Action, "move %d", i)
	}
	msg := last(out)
	require.Equal(t, ActionWinner, msg.Action)
	assert.EqualValues(t, 1, msg.Data.(WinnerData).Winner)

	rec, err := st.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusWon, rec.Status)
	assert.Equal(t, "black", rec.Winner)
	assert.Len(t, rec.Moves, 4)
	assert.NotNil(t, rec.FinishedAt)

	out = g.Move(ctx, 1, mv(4, 6, 4, 4))
	assert.Equal(t, invalid(ReasonGameOver), last(out))

	// spectators arriving after the end see the result
	out = g.Connect(ctx, 3, "")
	assert.Equal(t, ActionWinner, last(out).Action)
}

const endgameDoc = `
name: Endgame
board: k7/8/8/8/8/1Q6/8/K7
pieces:
  k: {name: King, moves: "1*", royal: true, after_move: "hill:1,7"}
  q: {name: Queen, moves: "n*"}
`

func TestMove_Stalemate(t *testing.T) {
	g, st := newGame(t, loadRules(t, endgameDoc))
	ctx := context.Background()
	g.Connect(ctx, 1, "")
	g.Connect(ctx, 2, "")

	out := g.Move(ctx, 1, mv(1, 5, 1, 2))
	require.Equal(t, ActionDraw, last(out).Action)
	assert.Nil(t, g.Snapshot().Winner)

	rec, err := st.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusDraw, rec.Status)
}

func TestMove_HookWinner(t *testing.T) {
	g, _ := newGame(t, loadRules(t, endgameDoc))
	ctx := context.Background()
	g.Connect(ctx, 1, "")
	g.Connect(ctx, 2, "")

	out := g.Move(ctx, 1, mv(0, 7, 1, 7))
	msg := last(out)
	require.Equal(t, ActionWinner, msg.Action)
	assert.EqualValues(t, 0, msg.Data.(WinnerData).Winner)
	assert.True(t, g.Snapshot().Over)
}

func TestReset(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	g, st := newGame(t, rs)
	ctx := context.Background()
	g.Connect(ctx, 1, "")
	g.Connect(ctx, 2, "")
	g.Move(ctx, 1, mv(4, 6, 4, 4))
	old := g.ID

	out := g.Reset(ctx)
	require.Len(t, out, 3)
	assert.Equal(t, ActionNewClient, out[0].Msg.Action)
	assert.Equal(t, g.ID+"/white", out[0].Msg.Data.(NewClient).Token)
	assert.Equal(t, ActionMove, out[2].Msg.Action)
	assert.NotEqual(t, old, g.ID)

	s := g.Snapshot()
	assert.Equal(t, logic.StandardBoard, s.Board)
	assert.Equal(t, 0, s.Ply)
	assert.Equal(t, logic.White, s.Turn)

	rec, err := st.GetGame(ctx, old)
	require.NoError(t, err)
	assert.Equal(t, store.StatusAborted, rec.Status)
}

func TestEncode(t *testing.T) {
	b, err := Encode(Message{Action: ActionMove, Data: MoveData{
		Turn:  1,
		Board: BoardData{{&Cell{Symbol: "k", Color: 1}, nil}},
		Moves: []logic.GameMove{mv(0, 0, 1, 0)},
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"move","data":{"turn":1,"board":[[["k",1],null]],"moves":[{"from":[0,0],"to":[1,0]}]}}`, string(b))

	b, err = Encode(invalid(ReasonNotYourTurn))
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"invalid_message","data":"It is not your turn"}`, string(b))
}

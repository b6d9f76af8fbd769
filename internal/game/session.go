// internal/game/session.go
//
// Session owns a Game and serializes every access to it on one goroutine.
// Transports call Connect/Disconnect/Message from any goroutine; the
// resulting messages are encoded and handed to a Sender.
package game

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by Session calls made after Run has returned.
var ErrClosed = errors.New("game: session closed")

// Sender delivers encoded messages. A nil to means every connected client.
type Sender interface {
	Send(to []ClientID, payload []byte)
}

// Session is the single writer for one Game.
type Session struct {
	game *Game
	out  Sender
	ops  chan func(context.Context)
	done chan struct{}
}

// NewSession wraps g. Call Run to start processing.
func NewSession(g *Game, out Sender) *Session {
	return &Session{
		game: g,
		out:  out,
		ops:  make(chan func(context.Context), 64),
		done: make(chan struct{}),
	}
}

// Run processes queued operations until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	log.Info().Str("game", s.game.ID).Msg("session running")
	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-s.ops:
			op(ctx)
		}
	}
}

func (s *Session) do(op func(context.Context)) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.ops <- op:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session) deliver(msgs []Outbound) {
	for _, m := range msgs {
		b, err := Encode(m.Msg)
		if err != nil {
			log.Error().Err(err).Msg("encode outbound")
			continue
		}
		s.out.Send(m.To, b)
	}
}

// Connect seats or greets a new client.
func (s *Session) Connect(id ClientID, token string) error {
	return s.do(func(ctx context.Context) { s.deliver(s.game.Connect(ctx, id, token)) })
}

// Disconnect removes a client.
func (s *Session) Disconnect(id ClientID) error {
	return s.do(func(context.Context) { s.game.Disconnect(id) })
}

// Message handles a raw client message.
func (s *Session) Message(id ClientID, raw []byte) error {
	return s.do(func(ctx context.Context) { s.deliver(s.game.HandleMessage(ctx, id, raw)) })
}

// Reset starts a fresh game.
func (s *Session) Reset(ctx context.Context) (State, error) {
	return s.query(ctx, func(c context.Context) State {
		s.deliver(s.game.Reset(c))
		return s.game.Snapshot()
	})
}

// State returns a snapshot of the game.
func (s *Session) State(ctx context.Context) (State, error) {
	return s.query(ctx, func(context.Context) State { return s.game.Snapshot() })
}

func (s *Session) query(ctx context.Context, fn func(context.Context) State) (State, error) {
	reply := make(chan State, 1)
	if err := s.do(func(c context.Context) { reply <- fn(c) }); err != nil {
		return State{}, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-s.done:
		return State{}, ErrClosed
	}
}

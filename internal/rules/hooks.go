// internal/rules/hooks.go
//
// Named rule hooks that rulesets attach to pieces.
// Responsibilities:
//   - Registry of hook factories keyed by name ("promote", "explode", ...).
//   - Hook identifiers take an optional argument: "name" or "name:arg".
//   - Built-in hooks for promotion, atomic captures, king of the hill and
//     a retreat extra move.
//
// Notes:
//   - After-hooks mutate the board they are given; the game session owns
//     that board and serializes access to it.
//   - Extra-move hooks must not mutate the board.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
)

var (
	// ErrUnknownHook indicates a ruleset references a hook nobody registered.
	ErrUnknownHook = errors.New("rules: unknown hook")
	// ErrHookKind indicates a hook is used in a slot it does not implement.
	ErrHookKind = errors.New("rules: hook does not support this slot")
)

// MoveContext is handed to after-move and after-capture hooks.
type MoveContext struct {
	Board    *logic.Board
	Pieces   logic.PieceList
	Move     logic.GameMove
	Color    logic.Color // color of the piece that moved
	Captured bool
}

// Outcome reports side effects of a hook the session must act on.
type Outcome struct {
	Winner *logic.Color
}

// Hook bundles the behaviours a named hook may provide. Nil fields mean the
// hook cannot be used in that slot.
type Hook struct {
	ExtraMoves   func(at logic.Point, board *logic.Board) ([]logic.Point, error)
	AfterMove    func(MoveContext) (Outcome, error)
	AfterCapture func(MoveContext) (Outcome, error)
}

// HookFactory builds a Hook from its argument. pieces is the catalogue of
// the ruleset being loaded.
type HookFactory func(arg string, pieces logic.PieceList) (Hook, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]HookFactory{}
)

// RegisterHook installs a hook factory under name, replacing any previous one.
func RegisterHook(name string, f HookFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Hooks lists the registered hook names.
func Hooks() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func resolveHook(id string, pieces logic.PieceList) (Hook, error) {
	name, arg, _ := strings.Cut(id, ":")
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return Hook{}, fmt.Errorf("%w %q", ErrUnknownHook, name)
	}
	h, err := f(arg, pieces)
	if err != nil {
		return Hook{}, fmt.Errorf("hook %q: %w", id, err)
	}
	return h, nil
}

func init() {
	RegisterHook("promote", promoteHook)
	RegisterHook("explode", explodeHook)
	RegisterHook("hill", hillHook)
	RegisterHook("retreat", retreatHook)
}

// ------------------------------ built-ins ----------------------------------

// promoteHook turns a piece that ends its move on the far row into arg.
func promoteHook(arg string, pieces logic.PieceList) (Hook, error) {
	if arg == "" {
		return Hook{}, errors.New("promote needs a target symbol")
	}
	if _, ok := pieces[arg]; !ok {
		return Hook{}, fmt.Errorf("promote target %q is not a piece", arg)
	}
	return Hook{AfterMove: func(mc MoveContext) (Outcome, error) {
		p, ok := mc.Board.At(mc.Move.To.X, mc.Move.To.Y)
		if !ok || p == nil {
			return Outcome{}, nil
		}
		if mc.Move.To.Y == farRow(p.Color, mc.Board) {
			p.Symbol = arg
		}
		return Outcome{}, nil
	}}, nil
}

func farRow(c logic.Color, b *logic.Board) int {
	if c == logic.White {
		return 0
	}
	return b.Height - 1
}

// explodeHook removes the capturing piece and every non-royal piece next to
// the capture square.
func explodeHook(arg string, pieces logic.PieceList) (Hook, error) {
	if arg != "" {
		return Hook{}, errors.New("explode takes no argument")
	}
	return Hook{AfterCapture: func(mc MoveContext) (Outcome, error) {
		to := mc.Move.To
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				x, y := to.X+dx, to.Y+dy
				p, ok := mc.Board.At(x, y)
				if !ok || p == nil {
					continue
				}
				if def, ok := mc.Pieces[p.Symbol]; ok && def.Royal && (dx != 0 || dy != 0) {
					continue
				}
				_ = mc.Board.Set(x, y, nil)
			}
		}
		return Outcome{}, nil
	}}, nil
}

// hillHook declares the mover the winner when a royal piece ends its move
// on one of the listed squares ("x,y;x,y;...").
func hillHook(arg string, pieces logic.PieceList) (Hook, error) {
	squares, err := parsePoints(arg)
	if err != nil {
		return Hook{}, err
	}
	return Hook{AfterMove: func(mc MoveContext) (Outcome, error) {
		p, ok := mc.Board.At(mc.Move.To.X, mc.Move.To.Y)
		if !ok || p == nil {
			return Outcome{}, nil
		}
		if def, ok := mc.Pieces[p.Symbol]; !ok || !def.Royal {
			return Outcome{}, nil
		}
		for _, sq := range squares {
			if sq == mc.Move.To {
				c := p.Color
				return Outcome{Winner: &c}, nil
			}
		}
		return Outcome{}, nil
	}}, nil
}

func parsePoints(arg string) ([]logic.Point, error) {
	if arg == "" {
		return nil, errors.New("expected at least one x,y square")
	}
	var out []logic.Point
	for _, part := range strings.Split(arg, ";") {
		xs, ys, ok := strings.Cut(strings.TrimSpace(part), ",")
		if !ok {
			return nil, fmt.Errorf("bad square %q", part)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if errX != nil || errY != nil || x < 0 || y < 0 {
			return nil, fmt.Errorf("bad square %q", part)
		}
		out = append(out, logic.Point{X: x, Y: y})
	}
	return out, nil
}

// retreatHook offers the furthest empty square straight backward that can
// be reached without passing another piece.
func retreatHook(arg string, pieces logic.PieceList) (Hook, error) {
	if arg != "" {
		return Hook{}, errors.New("retreat takes no argument")
	}
	return Hook{ExtraMoves: func(at logic.Point, b *logic.Board) ([]logic.Point, error) {
		p, ok := b.At(at.X, at.Y)
		if !ok || p == nil {
			return nil, fmt.Errorf("no piece at %v", at)
		}
		dy := 1
		if p.Color != logic.White {
			dy = -1
		}
		var last *logic.Point
		for y := at.Y + dy; ; y += dy {
			q, ok := b.At(at.X, y)
			if !ok || q != nil {
				break
			}
			last = &logic.Point{X: at.X, Y: y}
		}
		if last == nil {
			return nil, nil
		}
		return []logic.Point{*last}, nil
	}}, nil
}

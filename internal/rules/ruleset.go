// internal/rules/ruleset.go
//
// Ruleset documents: a YAML description of a variant compiled into a piece
// catalogue, a starting board and resolved hooks.
//
// Example:
//   name: Standard chess
//   colors: [white, black]
//   board: rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR
//   pieces:
//     p: {name: Pawn, value: 1, moves: "o1>,oi2>,c1X>", after_move: "promote:q"}
//     k: {name: King, value: 100, moves: "1*", royal: true}
//
// Notes:
//   - Any notation, board or hook error aborts loading; nothing is defaulted.
//   - A loaded Ruleset is read-only and may be shared between games.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Alfheimr-Chess/alfheimr-server/assets"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
)

// document is the on-disk shape of a ruleset.
type document struct {
	Name   string              `yaml:"name"`
	Colors []string            `yaml:"colors"`
	Board  string              `yaml:"board"`
	Pieces map[string]pieceDoc `yaml:"pieces"`
}

type pieceDoc struct {
	Name         string  `yaml:"name"`
	Value        float64 `yaml:"value"`
	Moves        string  `yaml:"moves"`
	Royal        bool    `yaml:"royal"`
	AfterMove    string  `yaml:"after_move"`
	AfterCapture string  `yaml:"after_capture"`
	ExtraMoves   string  `yaml:"extra_moves"`
}

// Ruleset is a compiled variant.
type Ruleset struct {
	Name   string
	Colors []logic.Color // turn order
	Pieces logic.PieceList

	board *logic.Board
	hooks map[string]Hook
}

// Load decodes and compiles a ruleset document.
func Load(r io.Reader) (*Ruleset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode ruleset: %w", err)
	}
	return compile(doc)
}

// LoadFile loads a ruleset from a YAML file.
func LoadFile(path string) (*Ruleset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rs, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Bundled loads one of the rulesets compiled into the binary.
func Bundled(name string) (*Ruleset, error) {
	raw, err := assets.Ruleset(name)
	if err != nil {
		return nil, fmt.Errorf("bundled ruleset %q: %w", name, err)
	}
	return Load(bytes.NewReader(raw))
}

// Default returns the bundled standard chess ruleset.
func Default() (*Ruleset, error) { return Bundled(assets.DefaultRuleset) }

func compile(doc document) (*Ruleset, error) {
	if doc.Name == "" {
		return nil, errors.New("ruleset: missing name")
	}
	if len(doc.Pieces) == 0 {
		return nil, errors.New("ruleset: no pieces")
	}

	rs := &Ruleset{Name: doc.Name, Pieces: logic.PieceList{}, hooks: map[string]Hook{}}

	if len(doc.Colors) == 0 {
		doc.Colors = []string{"white", "black"}
	}
	seen := map[logic.Color]bool{}
	for _, name := range doc.Colors {
		c, err := logic.ParseColor(name)
		if err != nil {
			return nil, fmt.Errorf("ruleset: %w", err)
		}
		if seen[c] {
			return nil, fmt.Errorf("ruleset: color %s listed twice", c)
		}
		seen[c] = true
		rs.Colors = append(rs.Colors, c)
	}
	if len(rs.Colors) < 2 {
		return nil, errors.New("ruleset: at least two colors are required")
	}

	// Compile every piece before resolving hooks; promote needs the whole catalogue.
	symbols := make([]string, 0, len(doc.Pieces))
	for sym := range doc.Pieces {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		if !validSymbol(sym) {
			return nil, fmt.Errorf("ruleset: piece symbol %q must be lower-case letters", sym)
		}
		pd := doc.Pieces[sym]
		p, err := logic.NewPiece(pd.Name, pd.Value, pd.Moves)
		if err != nil {
			return nil, fmt.Errorf("ruleset: piece %q: %w", sym, err)
		}
		p.Royal = pd.Royal
		p.AfterMove, p.AfterCapture, p.ExtraMoves = pd.AfterMove, pd.AfterCapture, pd.ExtraMoves
		rs.Pieces[sym] = p
	}
	for _, sym := range symbols {
		if err := rs.bindHooks(sym, rs.Pieces[sym]); err != nil {
			return nil, err
		}
	}

	board, err := logic.ParseBoard(doc.Board)
	if err != nil {
		return nil, fmt.Errorf("ruleset: %w", err)
	}
	if err := board.Validate(rs.Pieces); err != nil {
		return nil, fmt.Errorf("ruleset: %w", err)
	}
	for _, p := range board.PositionsOf(func(*logic.GamePiece) bool { return true }) {
		gp, _ := board.At(p.X, p.Y)
		if !seen[gp.Color] {
			return nil, fmt.Errorf("ruleset: piece at %v belongs to unlisted color %s", p, gp.Color)
		}
	}
	rs.board = board

	log.Debug().Str("ruleset", rs.Name).Int("pieces", len(rs.Pieces)).
		Int("width", board.Width).Int("height", board.Height).Msg("ruleset loaded")
	return rs, nil
}

func validSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// bindHooks resolves and type-checks the hook ids of one piece.
func (rs *Ruleset) bindHooks(sym string, p *logic.Piece) error {
	slots := []struct {
		id, slot string
		has      func(Hook) bool
	}{
		{p.AfterMove, "after_move", func(h Hook) bool { return h.AfterMove != nil }},
		{p.AfterCapture, "after_capture", func(h Hook) bool { return h.AfterCapture != nil }},
		{p.ExtraMoves, "extra_moves", func(h Hook) bool { return h.ExtraMoves != nil }},
	}
	for _, s := range slots {
		if s.id == "" {
			continue
		}
		h, ok := rs.hooks[s.id]
		if !ok {
			var err error
			if h, err = resolveHook(s.id, rs.Pieces); err != nil {
				return fmt.Errorf("ruleset: piece %q: %w", sym, err)
			}
			rs.hooks[s.id] = h
		}
		if !s.has(h) {
			return fmt.Errorf("ruleset: piece %q: %w: %q as %s", sym, ErrHookKind, s.id, s.slot)
		}
	}
	return nil
}

// NewBoard returns a fresh copy of the starting position.
func (rs *Ruleset) NewBoard() *logic.Board { return rs.board.Clone() }

// Extension returns the ruleset's extra-move hooks as a logic.ExtensionHook.
// It is nil when no piece declares extra moves.
func (rs *Ruleset) Extension() logic.ExtensionHook {
	for _, p := range rs.Pieces {
		if p.ExtraMoves != "" {
			return extension{rs}
		}
	}
	return nil
}

type extension struct{ rs *Ruleset }

func (e extension) ExtraMoves(id string, at logic.Point, board *logic.Board) ([]logic.Point, error) {
	h, ok := e.rs.hooks[id]
	if !ok || h.ExtraMoves == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownHook, id)
	}
	return h.ExtraMoves(at, board)
}

// AfterMove runs the after-move hook of the piece now standing on mc.Move.To
// and, when mc.Captured is set, the capturing piece's after-capture hook.
// Both hooks belong to the piece that moved. The outcomes are merged; a
// later winner overrides an earlier one.
func (rs *Ruleset) AfterMove(mc MoveContext) (Outcome, error) {
	p, ok := mc.Board.At(mc.Move.To.X, mc.Move.To.Y)
	if !ok || p == nil {
		return Outcome{}, nil
	}
	def, ok := rs.Pieces[p.Symbol]
	if !ok {
		return Outcome{}, nil
	}
	mc.Pieces = rs.Pieces
	var out Outcome
	if def.AfterMove != "" {
		o, err := rs.hooks[def.AfterMove].AfterMove(mc)
		if err != nil {
			return out, fmt.Errorf("after_move %q: %w", def.AfterMove, err)
		}
		out = merge(out, o)
	}
	if mc.Captured && def.AfterCapture != "" {
		o, err := rs.hooks[def.AfterCapture].AfterCapture(mc)
		if err != nil {
			return out, fmt.Errorf("after_capture %q: %w", def.AfterCapture, err)
		}
		out = merge(out, o)
	}
	return out, nil
}

func merge(a, b Outcome) Outcome {
	if b.Winner != nil {
		a.Winner = b.Winner
	}
	return a
}

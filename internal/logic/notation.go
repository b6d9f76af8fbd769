// internal/logic/notation.go
//
// Compiler from movement notation to Movement rules.
//
// Grammar:
//   piece     := rule ("," rule)*
//   rule      := prefix* body ("." rule)?
//   prefix    := "i" | "c" | "o" | "&" | "~" | "^"
//   body      := int "/" int group*            hippogonal leap
//              | distance direction+
//   distance  := "n" | int | int "-" int
//   direction := "X>" | "X<" | "X" | "*" | "+" | ">" | "<" | "=" | group
//   group     := "(" rule ("," rule)* ")"
//
// Notes:
//   - Direction tokens are matched longest first, so "X>" is diagonal-forward.
//   - Every malformed input is a *NotationError; nothing is defaulted.
package logic

import (
	"fmt"
	"strconv"
	"strings"
)

// CompileRule compiles the notation of a single rule.
func CompileRule(text string) (*Movement, error) {
	p := &notationParser{src: text}
	m, err := p.rule()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.fail("unexpected %q", p.peek())
	}
	return m, nil
}

// CompilePiece compiles a full piece definition: one or more rules joined
// by top-level commas.
func CompilePiece(text string) ([]Movement, error) {
	p := &notationParser{src: text}
	var rules []Movement
	for {
		m, err := p.rule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, *m)
		if p.eof() {
			return rules, nil
		}
		if p.peek() != ',' {
			return nil, p.fail("unexpected %q", p.peek())
		}
		p.pos++
	}
}

type notationParser struct {
	src string
	pos int
}

func (p *notationParser) eof() bool  { return p.pos >= len(p.src) }
func (p *notationParser) peek() byte { return p.src[p.pos] }

func (p *notationParser) fail(format string, args ...any) error {
	return &NotationError{Text: p.src, Pos: p.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *notationParser) rule() (*Movement, error) {
	m := &Movement{}
	if err := p.prefixes(m); err != nil {
		return nil, err
	}
	if err := p.body(m); err != nil {
		return nil, err
	}
	if !p.eof() && p.peek() == '.' {
		p.pos++
		then, err := p.rule()
		if err != nil {
			return nil, err
		}
		m.Then = then
	}
	return m, nil
}

func (p *notationParser) prefixes(m *Movement) error {
	for !p.eof() {
		switch p.peek() {
		case 'i':
			m.Initial = true
		case 'c':
			m.Capture = true
		case 'o':
			m.NoCapture = true
		case '&':
			d := AnyDistance()
			m.Repeat = &d
		case '~':
			m.Leaper = true
		case '^':
			m.Locust = true
		default:
			if m.Capture && m.NoCapture {
				return p.fail("rule cannot be both capture-only and no-capture")
			}
			return nil
		}
		p.pos++
	}
	return p.fail("missing distance")
}

func (p *notationParser) body(m *Movement) error {
	if p.eof() {
		return p.fail("missing distance")
	}
	if p.peek() == 'n' {
		p.pos++
		m.Distance = AnyDistance()
		return p.directions(m, false)
	}
	a, err := p.number()
	if err != nil {
		return err
	}
	if !p.eof() && p.peek() == '/' {
		p.pos++
		b, err := p.number()
		if err != nil {
			return err
		}
		if a == 0 && b == 0 {
			return p.fail("hippogonal leap needs a non-zero leg")
		}
		m.Distance = HippogonalDistance(a, b)
		m.Directions = append(m.Directions, Direction{Kind: DirHippogonal})
		return p.directions(m, true)
	}
	if a == 0 {
		return p.fail("distance must be positive")
	}
	if !p.eof() && p.peek() == '-' {
		p.pos++
		b, err := p.number()
		if err != nil {
			return err
		}
		if b < a {
			return p.fail("range %d-%d is empty", a, b)
		}
		m.Distance = RangeDistance(a, b)
	} else {
		m.Distance = ExactDistance(a)
	}
	return p.directions(m, false)
}

func (p *notationParser) number() (int, error) {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	if start == p.pos {
		if p.eof() {
			return 0, p.fail("expected a number")
		}
		return 0, p.fail("expected a number, got %q", p.peek())
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		p.pos = start
		return 0, p.fail("number out of range")
	}
	return n, nil
}

// directions reads direction tokens until none match. A hippogonal body
// already carries its direction and only accepts groups.
func (p *notationParser) directions(m *Movement, hippogonal bool) error {
	for !p.eof() {
		c := p.peek()
		if c == '(' {
			if err := p.group(m); err != nil {
				return err
			}
			continue
		}
		kind, width, ok := p.directionToken()
		if !ok {
			break
		}
		if hippogonal {
			return p.fail("hippogonal leap takes no direction")
		}
		m.Directions = append(m.Directions, Direction{Kind: kind})
		p.pos += width
	}
	if len(m.Directions) == 0 {
		if p.eof() {
			return p.fail("missing direction")
		}
		return p.fail("expected a direction, got %q", p.peek())
	}
	return nil
}

func (p *notationParser) directionToken() (DirectionKind, int, bool) {
	rest := p.src[p.pos:]
	switch {
	case strings.HasPrefix(rest, "X>"):
		return DirDiagonalForward, 2, true
	case strings.HasPrefix(rest, "X<"):
		return DirDiagonalBackward, 2, true
	}
	switch rest[0] {
	case 'X':
		return DirDiagonal, 1, true
	case '*':
		return DirAll, 1, true
	case '+':
		return DirOrthogonal, 1, true
	case '>':
		return DirOrthogonalForward, 1, true
	case '<':
		return DirOrthogonalBackward, 1, true
	case '=':
		return DirOrthogonalSideways, 1, true
	}
	return 0, 0, false
}

func (p *notationParser) group(m *Movement) error {
	p.pos++ // '('
	for {
		sub, err := p.rule()
		if err != nil {
			return err
		}
		m.Directions = append(m.Directions, Direction{Kind: DirGroup, Group: sub})
		if p.eof() {
			return p.fail("unterminated group")
		}
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return nil
		default:
			return p.fail("unexpected %q in group", p.peek())
		}
	}
}

// internal/logic/errors.go
//
// Error kinds surfaced by the engine.
//
// Notes:
//   - Each typed error unwraps to a sentinel so callers can use errors.Is
//     without caring about the details.
//   - Notation and board errors are authoring-time errors and abort ruleset
//     loading; MoveError is per call and recoverable.
package logic

import (
	"errors"
	"fmt"
)

var (
	ErrNotation     = errors.New("invalid movement notation")
	ErrBoardParse   = errors.New("invalid board notation")
	ErrInvalidMove  = errors.New("invalid move")
	ErrExtension    = errors.New("extension hook failed")
	ErrUnknownPiece = errors.New("unknown piece symbol")
)

// NotationError reports malformed movement notation.
type NotationError struct {
	Text   string // full text being compiled
	Pos    int    // byte offset of the offending token
	Reason string
}

func (e *NotationError) Error() string {
	return fmt.Sprintf("movement notation %q at offset %d: %s", e.Text, e.Pos, e.Reason)
}

func (e *NotationError) Unwrap() error { return ErrNotation }

// BoardParseError reports malformed board notation or a board that does not
// fit a piece catalogue. Row and Col are zero based.
type BoardParseError struct {
	Row, Col int
	Reason   string
	Err      error // optional cause, e.g. ErrUnknownPiece
}

func (e *BoardParseError) Error() string {
	return fmt.Sprintf("board notation row %d col %d: %s", e.Row, e.Col, e.Reason)
}

func (e *BoardParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrBoardParse, e.Err}
	}
	return []error{ErrBoardParse}
}

// MoveError is returned by ApplyMove for moves the board cannot perform.
type MoveError struct {
	Move   GameMove
	Reason string
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %v: %s", e.Move, e.Reason)
}

func (e *MoveError) Unwrap() error { return ErrInvalidMove }

// ExtensionError wraps a failure of an ExtensionHook for a single piece.
type ExtensionError struct {
	Hook string
	At   Point
	Err  error
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("extension %q at %v: %v", e.Hook, e.At, e.Err)
}

func (e *ExtensionError) Unwrap() []error { return []error{ErrExtension, e.Err} }

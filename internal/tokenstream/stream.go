// Package tokenstream implements spec.md §4.1's Token Provider: a pure,
// random-access cursor over a token vector. It buffers nothing and
// raises no diagnostics — out-of-range access returns the sentinel
// token.None rather than panicking.
package tokenstream

import "github.com/torlang/torc/internal/token"

// Stream is a random-access cursor over a fixed token vector.
type Stream struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Stream {
	return &Stream{tokens: tokens}
}

// Pos returns the current cursor position.
func (s *Stream) Pos() int { return s.pos }

// SetPos directly sets the cursor position (used by the parser to
// rewind to a saved checkpoint across backtracking attempts).
func (s *Stream) SetPos(p int) { s.pos = p }

// CanPop reports whether n more tokens can be popped without running
// past the end of the vector.
func (s *Stream) CanPop(n int) bool {
	return s.pos+n <= len(s.tokens)
}

// Seek returns the token at offset from the cursor without consuming
// it. Out-of-range returns token.None.
func (s *Stream) Seek(offset int) token.Token {
	idx := s.pos + offset
	if idx < 0 || idx >= len(s.tokens) {
		return token.None
	}
	return s.tokens[idx]
}

// Pop returns the current token and advances the cursor by one.
// Out-of-range returns token.None and leaves the cursor unchanged.
func (s *Stream) Pop() token.Token {
	if s.pos >= len(s.tokens) {
		return token.None
	}
	t := s.tokens[s.pos]
	s.pos++
	return t
}

// Rewind moves the cursor back by one token. It never moves before 0.
func (s *Stream) Rewind() {
	if s.pos > 0 {
		s.pos--
	}
}

// Match reports whether the next len(kinds) token kinds equal kinds
// exactly, without advancing the cursor.
func (s *Stream) Match(kinds []token.Kind) bool {
	if !s.CanPop(len(kinds)) {
		return false
	}
	for i, k := range kinds {
		if s.tokens[s.pos+i].Kind != k {
			return false
		}
	}
	return true
}

// Len returns the total number of tokens in the underlying vector.
func (s *Stream) Len() int { return len(s.tokens) }

package lexer

import "unicode/utf8"

// Cursor provides shared low-level navigation over the input buffer. All
// three scanners use it for the lookahead that disambiguates multi-character
// operators and numeric literal forms.
type Cursor struct {
	src  string
	pos  int
	line int
	col  int
}

// Checkpoint is an opaque cursor position for backtracking.
type Checkpoint struct {
	pos  int
	line int
	col  int
}

// NewCursor creates a cursor at the start of src (line 1, column 1).
func NewCursor(src string) *Cursor {
	return &Cursor{src: src, line: 1, col: 1}
}

// AtEnd reports whether the whole input has been consumed.
func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.src)
}

// Current returns the byte at the cursor, or 0 at end of input.
func (c *Cursor) Current() byte {
	if c.pos >= len(c.src) {
		return 0
	}
	return c.src[c.pos]
}

// Peek returns the byte at pos+offset without advancing, or 0 past the end.
func (c *Cursor) Peek(offset int) byte {
	idx := c.pos + offset
	if idx >= len(c.src) {
		return 0
	}
	return c.src[idx]
}

// Loc returns the current 1-based line and column.
func (c *Cursor) Loc() (line, col int) {
	return c.line, c.col
}

// Advance consumes the current byte and returns it. The line counter
// increments on each consumed newline; the column resets to 1 right after.
func (c *Cursor) Advance() byte {
	if c.pos >= len(c.src) {
		return 0
	}
	ch := c.src[c.pos]
	c.pos++
	if ch == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}
	return ch
}

// AdvanceRune consumes one full UTF-8 sequence and returns it. Used on the
// unknown-character path so multi-byte runes yield a single diagnostic.
func (c *Cursor) AdvanceRune() rune {
	r, size := utf8.DecodeRuneInString(c.src[c.pos:])
	for i := 0; i < size; i++ {
		c.Advance()
	}
	return r
}

// Match consumes the current byte only if it equals expected.
func (c *Cursor) Match(expected byte) bool {
	if c.Current() == expected {
		c.Advance()
		return true
	}
	return false
}

// HasPrefix reports whether the unconsumed input starts with lit.
func (c *Cursor) HasPrefix(lit string) bool {
	end := c.pos + len(lit)
	return end <= len(c.src) && c.src[c.pos:end] == lit
}

// MatchLiteral consumes lit if the unconsumed input starts with it.
func (c *Cursor) MatchLiteral(lit string) bool {
	if !c.HasPrefix(lit) {
		return false
	}
	for range lit {
		c.Advance()
	}
	return true
}

// SkipWhile consumes bytes as long as pred holds and returns the span.
func (c *Cursor) SkipWhile(pred func(byte) bool) string {
	start := c.pos
	for !c.AtEnd() && pred(c.Current()) {
		c.Advance()
	}
	return c.src[start:c.pos]
}

// Mark captures the cursor state for later Restore.
func (c *Cursor) Mark() Checkpoint {
	return Checkpoint{pos: c.pos, line: c.line, col: c.col}
}

// Restore rewinds the cursor to a previously captured checkpoint.
func (c *Cursor) Restore(cp Checkpoint) {
	c.pos = cp.pos
	c.line = cp.line
	c.col = cp.col
}

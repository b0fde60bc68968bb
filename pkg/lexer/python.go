package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const pyLabel = "[Python Error]"

// pyScanner tokenizes Python 3 source. Unlike the free-form C scanners it
// tracks logical-line structure: a NEWLINE token ends every logical line,
// and an indent-width stack turns leading whitespace into INDENT/DEDENT
// pairs. The stack belongs to a single scan invocation and dies with it.
type pyScanner struct {
	emitter
	indents        []int
	parenDepth     int
	atLineStart    bool
	lineHasContent bool
}

// pyStringPrefixes holds the lowercase forms; the scanner lowercases the
// candidate before lookup, so Rb/BR/fR etc. are covered.
var pyStringPrefixes = map[string]bool{
	"r": true, "b": true, "f": true, "u": true,
	"rb": true, "br": true, "fr": true, "rf": true,
}

func (s *pyScanner) scan() []Token {
	s.atLineStart = true
	for !s.cur.AtEnd() {
		if s.atLineStart && s.parenDepth == 0 {
			s.handleIndentation()
			if s.cur.AtEnd() {
				break
			}
		}
		s.scanToken()
	}

	// A trailing logical line without a newline still ends here.
	line, col := s.cur.Loc()
	if s.lineHasContent {
		s.emit(TokenNewline, "", line, col)
	}
	for len(s.indents) > 1 {
		s.indents = s.indents[:len(s.indents)-1]
		s.emit(TokenDedent, "", line, col)
	}
	return s.tokens
}

// handleIndentation measures the leading whitespace of a new logical line
// and reconciles it against the indent stack. Blank and comment-only lines
// never affect indentation.
func (s *pyScanner) handleIndentation() {
	width := 0
	for s.cur.Current() == ' ' || s.cur.Current() == '\t' {
		if s.cur.Current() == '\t' {
			width += 4 // tab counts as 4 columns
		} else {
			width++
		}
		s.cur.Advance()
	}

	ch := s.cur.Current()
	if s.cur.AtEnd() || ch == '\n' || ch == '\r' || ch == '#' {
		return
	}

	line, _ := s.cur.Loc()
	top := s.indents[len(s.indents)-1]
	switch {
	case width > top:
		s.indents = append(s.indents, width)
		s.emit(TokenIndent, "", line, 1)
	case width < top:
		for len(s.indents) > 1 && s.indents[len(s.indents)-1] > width {
			s.indents = s.indents[:len(s.indents)-1]
			s.emit(TokenDedent, "", line, 1)
		}
		if s.indents[len(s.indents)-1] != width {
			s.emitError(pyLabel+" Indentation error - unindent does not match any outer indentation level", "", line, 1)
		}
	}
	s.atLineStart = false
}

func (s *pyScanner) scanToken() {
	ch := s.cur.Current()
	line, col := s.cur.Loc()

	// Physical line end. Inside open brackets the lines join implicitly;
	// otherwise a non-blank logical line produces a structural NEWLINE.
	if ch == '\r' || ch == '\n' {
		if ch == '\r' && s.cur.Peek(1) == '\n' {
			s.cur.Advance()
		}
		s.cur.Advance()
		if s.parenDepth > 0 {
			return
		}
		if s.lineHasContent {
			s.emit(TokenNewline, "", line, col)
		}
		s.atLineStart = true
		s.lineHasContent = false
		return
	}

	if ch == ' ' || ch == '\t' {
		s.cur.Advance()
		return
	}

	// Explicit continuation joins the next physical line.
	if ch == '\\' && (s.cur.Peek(1) == '\n' || (s.cur.Peek(1) == '\r' && s.cur.Peek(2) == '\n')) {
		s.cur.Advance()
		if s.cur.Current() == '\r' {
			s.cur.Advance()
		}
		s.cur.Advance()
		return
	}

	if ch == '#' {
		for !s.cur.AtEnd() && s.cur.Current() != '\n' {
			s.cur.Advance()
		}
		return
	}

	if prefix, ok := s.tryStringPrefix(); ok {
		s.lineHasContent = true
		s.readString(line, col, prefix)
		return
	}

	if isDigit(ch) || (ch == '.' && isDigit(s.cur.Peek(1))) {
		s.lineHasContent = true
		s.readNumber(line, col)
		return
	}

	if isAlpha(ch) {
		s.lineHasContent = true
		s.readIdentifier(line, col)
		return
	}

	for _, op := range pyOperators {
		if s.cur.MatchLiteral(op) {
			s.lineHasContent = true
			s.emit(TokenOperator, op, line, col)
			return
		}
	}

	if isByteIn(pyDelimiters, ch) || ch == '\\' {
		switch ch {
		case '(', '[', '{':
			s.parenDepth++
		case ')', ']', '}':
			if s.parenDepth > 0 {
				s.parenDepth--
			} else {
				s.emitError(fmt.Sprintf("%s Unmatched closing bracket '%c'", pyLabel, ch), string(ch), line, col)
			}
		}
		s.cur.Advance()
		s.lineHasContent = true
		s.emit(TokenDelimiter, string(ch), line, col)
		return
	}

	r := s.cur.AdvanceRune()
	s.lineHasContent = true
	s.emitError(fmt.Sprintf("%s Invalid character '%c' (U+%04X) in source code", pyLabel, r, r), string(r), line, col)
}

// tryStringPrefix looks ahead for a string prefix (r, b, f, u and their
// two-letter combinations) directly followed by a quote. A bare quote
// yields the empty prefix.
func (s *pyScanner) tryStringPrefix() (string, bool) {
	for _, n := range []int{2, 1} {
		candidate := ""
		for i := 0; i < n; i++ {
			candidate += string(s.cur.Peek(i))
		}
		if pyStringPrefixes[strings.ToLower(candidate)] {
			quote := s.cur.Peek(n)
			if quote == '"' || quote == '\'' {
				return candidate, true
			}
		}
	}
	if s.cur.Current() == '"' || s.cur.Current() == '\'' {
		return "", true
	}
	return "", false
}

func (s *pyScanner) readString(line, col int, prefix string) {
	defer s.flushDeferred()
	for range prefix {
		s.cur.Advance()
	}
	quote := s.cur.Current()

	triple := s.cur.Peek(1) == quote && s.cur.Peek(2) == quote
	closing := string(quote)
	if triple {
		closing = strings.Repeat(string(quote), 3)
	}
	s.cur.MatchLiteral(closing)

	lower := strings.ToLower(prefix)
	isRaw := strings.Contains(lower, "r")
	isFString := strings.Contains(lower, "f")
	value := prefix + closing

	for !s.cur.AtEnd() {
		if s.cur.MatchLiteral(closing) {
			value += closing
			// f-strings stay opaque: interior expressions are not
			// tokenized.
			if isFString {
				s.emit(TokenFString, value, line, col)
			} else {
				s.emit(TokenString, value, line, col)
			}
			return
		}
		ch := s.cur.Current()
		if !triple && (ch == '\n' || ch == '\r') {
			s.emitError(pyLabel+" Unterminated string literal (single-line string cannot span multiple lines)", value, line, col)
			return
		}
		if ch == '\\' && !isRaw {
			s.cur.Advance()
			value += s.readEscape(pyLabel)
			continue
		}
		value += string(s.cur.Advance())
	}

	kind := ""
	if triple {
		kind = "triple-quoted "
	}
	s.emitError(fmt.Sprintf("%s Unterminated %sstring literal - reached end of file", pyLabel, kind), value, line, col)
}

func (s *pyScanner) readNumber(line, col int) {
	value := ""
	isFloat := false
	isComplex := false

	type radix struct {
		marker  byte
		isDigit func(byte) bool
		name    string
	}
	for _, r := range []radix{
		{'x', isHexDigit, "hexadecimal"},
		{'b', func(ch byte) bool { return ch == '0' || ch == '1' }, "binary"},
		{'o', isOctalDigit, "octal"},
	} {
		lowerMarker := r.marker
		upperMarker := r.marker - 'a' + 'A'
		if s.cur.Current() == '0' && (s.cur.Peek(1) == lowerMarker || s.cur.Peek(1) == upperMarker) {
			value += string(s.cur.Advance())
			value += string(s.cur.Advance())
			digitOrSep := func(ch byte) bool { return r.isDigit(ch) || ch == '_' }
			if !digitOrSep(s.cur.Current()) {
				s.emitError(fmt.Sprintf("%s Invalid %s literal - no digits after '%s'", pyLabel, r.name, value), value, line, col)
				return
			}
			value += s.cur.SkipWhile(digitOrSep)
			s.emit(TokenInteger, value, line, col)
			return
		}
	}

	digitOrSep := func(ch byte) bool { return isDigit(ch) || ch == '_' }
	value += s.cur.SkipWhile(digitOrSep)

	if s.cur.Current() == '.' && s.cur.Peek(1) != '.' {
		isFloat = true
		value += string(s.cur.Advance())
		value += s.cur.SkipWhile(digitOrSep)
	}

	if s.cur.Current() == 'e' || s.cur.Current() == 'E' {
		isFloat = true
		value += string(s.cur.Advance())
		if s.cur.Current() == '+' || s.cur.Current() == '-' {
			value += string(s.cur.Advance())
		}
		if !isDigit(s.cur.Current()) {
			s.emitError(pyLabel+" Malformed float literal - expected digits after exponent 'e'", value, line, col)
			return
		}
		value += s.cur.SkipWhile(digitOrSep)
	}

	if s.cur.Current() == 'j' || s.cur.Current() == 'J' {
		value += string(s.cur.Advance())
		isComplex = true
	}

	// Python 3 reserves a leading zero for the 0x/0o/0b forms.
	if !isFloat && !isComplex && len(value) > 1 && value[0] == '0' && isDigit(value[1]) {
		s.emitError(fmt.Sprintf("%s Invalid integer literal '%s' - leading zeros are not allowed in Python 3 (use 0o for octal, 0x for hex, 0b for binary)", pyLabel, value), value, line, col)
		return
	}

	if isFloat && !isComplex {
		if _, err := strconv.ParseFloat(strings.ReplaceAll(value, "_", ""), 64); err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
				s.emitError(pyLabel+" Numeric overflow - constant value too large for internal representation", value, line, col)
				return
			}
		}
	}

	if isFloat || isComplex {
		s.emit(TokenFloat, value, line, col)
	} else {
		s.emit(TokenInteger, value, line, col)
	}
}

func (s *pyScanner) readIdentifier(line, col int) {
	value := s.cur.SkipWhile(isAlphaNum)
	switch {
	case value == "True" || value == "False":
		s.emit(TokenBoolean, value, line, col)
	case value == "None":
		s.emit(TokenNone, value, line, col)
	case pyKeywords[value]:
		s.emit(TokenKeyword, value, line, col)
	default:
		s.emit(TokenIdentifier, value, line, col)
	}
}

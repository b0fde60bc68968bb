package lexer

import (
	"fmt"
	"strings"
)

// clikeScanner tokenizes C source; with cpp set it recognizes the C++
// keyword superset, scope resolution, raw strings and user-defined literal
// suffixes. One struct with a mode flag instead of two scanners, since C++
// lexing is C lexing plus extensions.
type clikeScanner struct {
	emitter
	cpp bool
}

func (s *clikeScanner) label() string {
	if s.cpp {
		return "[C++ Error]"
	}
	return "[C Error]"
}

func (s *clikeScanner) keywords() map[string]bool {
	if s.cpp {
		return cppAllKeywords
	}
	return cKeywords
}

func (s *clikeScanner) operators() []string {
	if s.cpp {
		return cppOperators
	}
	return cOperators
}

// cppAllKeywords merges the C keyword set with the C++ additions.
var cppAllKeywords = func() map[string]bool {
	merged := make(map[string]bool, len(cKeywords)+len(cppExtraKeywords))
	for kw := range cKeywords {
		merged[kw] = true
	}
	for kw := range cppExtraKeywords {
		merged[kw] = true
	}
	return merged
}()

func (s *clikeScanner) scan() []Token {
	for !s.cur.AtEnd() {
		s.scanToken()
	}
	return s.tokens
}

func (s *clikeScanner) scanToken() {
	// C is free-form: whitespace and newlines carry no structure.
	ch := s.cur.Current()
	if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
		s.cur.Advance()
		return
	}

	line, col := s.cur.Loc()

	switch {
	case ch == '#':
		s.readPreprocessor(line, col)
		return
	case ch == '/' && s.cur.Peek(1) == '/':
		s.readLineComment()
		return
	case ch == '/' && s.cur.Peek(1) == '*':
		s.readBlockComment(line, col)
		return
	}

	// Raw string literals (C++ only): R"tag(...)tag" with optional
	// encoding prefix.
	if s.cpp {
		for _, pfx := range []string{"u8R", "LR", "uR", "UR", "R"} {
			if s.cur.HasPrefix(pfx) && s.cur.Peek(len(pfx)) == '"' {
				s.cur.MatchLiteral(pfx)
				s.readRawString(line, col, pfx)
				return
			}
		}
	}

	// Encoding-prefixed string and char literals: L"..." u"..." U"..." u8"..."
	if (ch == 'L' || ch == 'u' || ch == 'U') && s.cur.Peek(1) == '"' {
		s.cur.Advance()
		s.readString(line, col, string(ch))
		return
	}
	if ch == 'u' && s.cur.Peek(1) == '8' && s.cur.Peek(2) == '"' {
		s.cur.Advance()
		s.cur.Advance()
		s.readString(line, col, "u8")
		return
	}
	if (ch == 'L' || ch == 'u' || ch == 'U') && s.cur.Peek(1) == '\'' {
		s.cur.Advance()
		s.readChar(line, col)
		return
	}

	switch {
	case ch == '"':
		s.readString(line, col, "")
		return
	case ch == '\'':
		s.readChar(line, col)
		return
	case isDigit(ch) || (ch == '.' && isDigit(s.cur.Peek(1))):
		s.readNumber(line, col)
		return
	case isAlpha(ch):
		s.readIdentifier(line, col)
		return
	}

	// Maximal munch: the operator table is sorted longest-first.
	for _, op := range s.operators() {
		if s.cur.MatchLiteral(op) {
			s.emit(TokenOperator, op, line, col)
			return
		}
	}

	if isByteIn(cDelimiters, ch) {
		s.cur.Advance()
		s.emit(TokenDelimiter, string(ch), line, col)
		return
	}

	r := s.cur.AdvanceRune()
	s.emitError(fmt.Sprintf("%s Unknown character '%c' (ASCII %d)", s.label(), r, r), string(r), line, col)
}

// readPreprocessor captures a directive as one token spanning the full
// logical line, joining lines continued with a trailing backslash.
func (s *clikeScanner) readPreprocessor(line, col int) {
	var text strings.Builder
	for !s.cur.AtEnd() && s.cur.Current() != '\n' {
		if s.cur.Current() == '\\' && s.cur.Peek(1) == '\n' {
			s.cur.Advance()
			s.cur.Advance()
			continue
		}
		text.WriteByte(s.cur.Advance())
	}
	s.emit(TokenPreprocessor, strings.TrimSpace(text.String()), line, col)
}

func (s *clikeScanner) readLineComment() {
	for !s.cur.AtEnd() && s.cur.Current() != '\n' {
		s.cur.Advance()
	}
}

// readBlockComment eliminates a /* ... */ span. An unterminated block
// comment consumes the rest of the input, so the single ERROR token it
// leaves behind is also the last token of the scan.
func (s *clikeScanner) readBlockComment(line, col int) {
	s.cur.Advance()
	s.cur.Advance()
	for !s.cur.AtEnd() {
		if s.cur.Current() == '*' && s.cur.Peek(1) == '/' {
			s.cur.Advance()
			s.cur.Advance()
			return
		}
		s.cur.Advance()
	}
	s.emitError(s.label()+" Unterminated block comment - missing closing '*/'", "/*", line, col)
}

func (s *clikeScanner) readString(line, col int, prefix string) {
	defer s.flushDeferred()
	s.cur.Advance() // opening quote
	value := prefix + "\""
	for !s.cur.AtEnd() {
		ch := s.cur.Current()
		if ch == '\n' {
			s.emitError(s.label()+" Unterminated string literal - newline inside string", value, line, col)
			return
		}
		if ch == '\\' {
			s.cur.Advance()
			value += s.readEscape(s.label())
			continue
		}
		if ch == '"' {
			value += string(s.cur.Advance())
			s.emit(TokenString, value, line, col)
			return
		}
		value += string(s.cur.Advance())
	}
	s.emitError(s.label()+" Unterminated string literal - reached end of file", value, line, col)
}

func (s *clikeScanner) readChar(line, col int) {
	defer s.flushDeferred()
	s.cur.Advance() // opening quote
	value := "'"
	charCount := 0
	for !s.cur.AtEnd() {
		ch := s.cur.Current()
		if ch == '\n' {
			s.emitError(s.label()+" Unterminated character literal - newline inside char", value, line, col)
			return
		}
		if ch == '\\' {
			s.cur.Advance()
			value += s.readEscape(s.label())
			charCount++
			continue
		}
		if ch == '\'' {
			value += string(s.cur.Advance())
			switch {
			case charCount == 0:
				s.emitError(s.label()+" Empty character literal ''", value, line, col)
			case charCount > 1:
				s.emitError(fmt.Sprintf("%s Multi-character character literal %s (implementation-defined behavior)", s.label(), value), value, line, col)
			default:
				s.emit(TokenChar, value, line, col)
			}
			return
		}
		value += string(s.cur.Advance())
		charCount++
	}
	s.emitError(s.label()+" Unterminated character literal - reached end of file", value, line, col)
}

// readRawString parses R"delimiter(content)delimiter".
func (s *clikeScanner) readRawString(line, col int, prefix string) {
	s.cur.Advance() // opening quote
	delimiter := ""
	for !s.cur.AtEnd() && s.cur.Current() != '(' && s.cur.Current() != '\n' {
		if len(delimiter) >= 16 {
			s.emitError(s.label()+" Raw string delimiter too long (max 16 characters)", prefix+"\""+delimiter, line, col)
			return
		}
		delimiter += string(s.cur.Advance())
	}
	if s.cur.Current() != '(' {
		s.emitError(s.label()+" Malformed raw string literal - expected '(' after delimiter", prefix+"\""+delimiter, line, col)
		return
	}
	s.cur.Advance()

	closing := ")" + delimiter + "\""
	content := prefix + "\"" + delimiter + "("
	for !s.cur.AtEnd() {
		if s.cur.MatchLiteral(closing) {
			content += closing
			s.emit(TokenString, content, line, col)
			return
		}
		content += string(s.cur.Advance())
	}
	s.emitError(fmt.Sprintf("%s Unterminated raw string literal - expected ')%s\"'", s.label(), delimiter), content, line, col)
}

func (s *clikeScanner) readNumber(line, col int) {
	value := ""
	isFloat := false

	// Hexadecimal, including C99 hex floats with a p-exponent.
	if s.cur.Current() == '0' && (s.cur.Peek(1) == 'x' || s.cur.Peek(1) == 'X') {
		value += string(s.cur.Advance())
		value += string(s.cur.Advance())
		if !isHexDigit(s.cur.Current()) {
			s.emitError(s.label()+" Invalid hex literal - no digits after '0x'", value, line, col)
			return
		}
		value += s.cur.SkipWhile(func(ch byte) bool { return isHexDigit(ch) || ch == '_' })
		if s.cur.Current() == '.' {
			isFloat = true
			value += string(s.cur.Advance())
			if s.cur.Current() == '.' {
				s.emitError(s.label()+" Malformed numeric literal - multiple decimal points", value, line, col)
				return
			}
			value += s.cur.SkipWhile(func(ch byte) bool { return isHexDigit(ch) || ch == '_' })
		}
		if s.cur.Current() == 'p' || s.cur.Current() == 'P' {
			isFloat = true
			value += string(s.cur.Advance())
			if s.cur.Current() == '+' || s.cur.Current() == '-' {
				value += string(s.cur.Advance())
			}
			value += s.cur.SkipWhile(isDigit)
		}
		value += s.cur.SkipWhile(func(ch byte) bool { return isByteIn("uUlLfF", ch) })
		s.emitNumber(value, isFloat, line, col)
		return
	}

	// Binary (C23).
	if s.cur.Current() == '0' && (s.cur.Peek(1) == 'b' || s.cur.Peek(1) == 'B') {
		value += string(s.cur.Advance())
		value += string(s.cur.Advance())
		if s.cur.Current() != '0' && s.cur.Current() != '1' {
			s.emitError(s.label()+" Invalid binary literal - no digits after '0b'", value, line, col)
			return
		}
		value += s.cur.SkipWhile(func(ch byte) bool { return ch == '0' || ch == '1' || ch == '_' })
		value += s.cur.SkipWhile(func(ch byte) bool { return isByteIn("uUlL", ch) })
		s.emitNumber(value, false, line, col)
		return
	}

	// Decimal, octal and floats.
	value += s.cur.SkipWhile(func(ch byte) bool { return isDigit(ch) || ch == '_' })

	if s.cur.Current() == '.' && s.cur.Peek(1) != '.' {
		isFloat = true
		value += string(s.cur.Advance())
		if s.cur.Current() == '.' && isDigit(s.cur.Peek(1)) {
			s.emitError(s.label()+" Malformed numeric literal - multiple decimal points", value, line, col)
			return
		}
		value += s.cur.SkipWhile(isDigit)
	}

	if s.cur.Current() == 'e' || s.cur.Current() == 'E' {
		isFloat = true
		value += string(s.cur.Advance())
		if s.cur.Current() == '+' || s.cur.Current() == '-' {
			value += string(s.cur.Advance())
		}
		if !isDigit(s.cur.Current()) {
			s.emitError(s.label()+" Malformed float literal - expected digits after exponent", value, line, col)
			return
		}
		value += s.cur.SkipWhile(isDigit)
	}

	// Suffixes are recognized syntactically, not type-checked.
	for isByteIn("uUlLfF", s.cur.Current()) {
		if s.cur.Current() == 'f' || s.cur.Current() == 'F' {
			isFloat = true
		}
		value += string(s.cur.Advance())
	}

	// A leading zero makes the literal octal; 8 and 9 are not octal digits.
	if !isFloat && len(value) > 1 && value[0] == '0' && strings.ContainsAny(value, "89") {
		s.emitError(fmt.Sprintf("%s Invalid octal literal '%s' - digits 8 or 9 are not valid in octal", s.label(), value), value, line, col)
		return
	}

	s.emitNumber(value, isFloat, line, col)
}

// emitNumber emits the literal and, in C++ mode, absorbs a trailing
// user-defined literal suffix (C++11) into the lexeme.
func (s *clikeScanner) emitNumber(value string, isFloat bool, line, col int) {
	if s.cpp && isAlpha(s.cur.Current()) {
		value += s.cur.SkipWhile(isAlphaNum)
	}
	if isFloat {
		s.emit(TokenFloat, value, line, col)
	} else {
		s.emit(TokenInteger, value, line, col)
	}
}

// readIdentifier scans an identifier and only afterwards checks it against
// the keyword table; keywords never come from the operator/delimiter paths.
func (s *clikeScanner) readIdentifier(line, col int) {
	value := s.cur.SkipWhile(isAlphaNum)
	switch {
	case s.cpp && (value == "true" || value == "false"):
		s.emit(TokenBoolean, value, line, col)
	case s.keywords()[value]:
		s.emit(TokenKeyword, value, line, col)
	default:
		s.emit(TokenIdentifier, value, line, col)
	}
}

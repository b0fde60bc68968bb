package lexer

// Scan tokenizes source in the given language and returns the ordered token
// stream with lexical violations embedded in-place as ERROR tokens. Scanning
// is pure and single-pass: every call gets fresh state, no input can make it
// fail, and the work is linear in the input length because every step
// consumes at least one character.
func Scan(lang Language, source string) []Token {
	switch lang {
	case LangC:
		s := &clikeScanner{emitter: newEmitter(source), cpp: false}
		return s.scan()
	case LangCPP:
		s := &clikeScanner{emitter: newEmitter(source), cpp: true}
		return s.scan()
	case LangPython:
		s := &pyScanner{emitter: newEmitter(source), indents: []int{0}}
		return s.scan()
	}
	// Unsupported tags are rejected at the boundary; an empty stream keeps
	// the core total even if one slips through.
	return []Token{}
}

// emitter collects tokens for one scan invocation. pending holds
// diagnostics found inside a literal still being scanned; they are flushed
// behind the literal's own token so the stream stays ordered by position.
type emitter struct {
	cur     *Cursor
	tokens  []Token
	pending []Token
}

func newEmitter(source string) emitter {
	return emitter{cur: NewCursor(source), tokens: []Token{}}
}

func (e *emitter) emit(ttype TokenType, value string, line, col int) {
	e.tokens = append(e.tokens, Token{Type: ttype, Value: value, Line: line, Column: col})
}

func (e *emitter) emitError(message, value string, line, col int) {
	e.tokens = append(e.tokens, Token{
		Type:    TokenError,
		Value:   value,
		Line:    line,
		Column:  col,
		Message: message,
	})
}

func (e *emitter) deferError(message, value string, line, col int) {
	e.pending = append(e.pending, Token{
		Type:    TokenError,
		Value:   value,
		Line:    line,
		Column:  col,
		Message: message,
	})
}

// flushDeferred moves pending diagnostics into the stream. Literal readers
// defer this so escape errors land after the literal token, whose position
// is earlier than theirs.
func (e *emitter) flushDeferred() {
	if len(e.pending) == 0 {
		return
	}
	e.tokens = append(e.tokens, e.pending...)
	e.pending = nil
}

// validEscapes are the escape characters shared by C, C++ and Python.
const validEscapes = "nrtabfv0\\'\"?xuUN01234567"

// readEscape is called after the backslash has been consumed. It returns the
// full escape sequence and records an ERROR for unrecognized escapes; the
// error surfaces once the enclosing literal is done. errLabel is the
// per-language message prefix ("[C Error]" etc.).
func (e *emitter) readEscape(errLabel string) string {
	line, col := e.cur.Loc()
	ch := e.cur.Current()
	if ch == 0 && e.cur.AtEnd() {
		e.deferError(errLabel+" Illegal escape sequence - unterminated escape at end of file", "\\", line, col)
		return "\\"
	}
	if !isByteIn(validEscapes, ch) {
		esc := "\\" + string(ch)
		e.deferError(errLabel+" Illegal escape sequence '"+esc+"' - unrecognized escape character", esc, line, col)
		e.cur.Advance()
		return esc
	}
	e.cur.Advance()
	return "\\" + string(ch)
}

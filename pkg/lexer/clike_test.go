package lexer

import (
	"strings"
	"testing"
)

// expectTypes checks the token type/value sequence against expectations.
func expectTokens(t *testing.T, tokens []Token, want []Token) {
	t.Helper()
	if len(tokens) != len(want) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		got := tokens[i]
		if got.Type != w.Type {
			t.Errorf("Token %d: expected type %s, got %s (%q)", i, w.Type, got.Type, got.Value)
		}
		if got.Value != w.Value {
			t.Errorf("Token %d: expected value %q, got %q", i, w.Value, got.Value)
		}
		if w.Line != 0 && got.Line != w.Line {
			t.Errorf("Token %d: expected line %d, got %d", i, w.Line, got.Line)
		}
		if w.Column != 0 && got.Column != w.Column {
			t.Errorf("Token %d: expected column %d, got %d", i, w.Column, got.Column)
		}
	}
}

// checkPositions verifies the shared position invariants: 1-based
// coordinates that never move backwards across the stream.
func checkPositions(t *testing.T, tokens []Token) {
	t.Helper()
	prevLine, prevCol := 1, 1
	for i, tok := range tokens {
		if tok.Line < 1 || tok.Column < 1 {
			t.Errorf("Token %d (%s %q): position %d:%d is not 1-based", i, tok.Type, tok.Value, tok.Line, tok.Column)
		}
		if tok.Line < prevLine || (tok.Line == prevLine && tok.Column < prevCol) {
			t.Errorf("Token %d (%s %q): position %d:%d moved backwards from %d:%d", i, tok.Type, tok.Value, tok.Line, tok.Column, prevLine, prevCol)
		}
		prevLine, prevCol = tok.Line, tok.Column
	}
}

func TestCDeclaration(t *testing.T) {
	tokens := Scan(LangC, "int x = 42;")
	expectTokens(t, tokens, []Token{
		{Type: TokenKeyword, Value: "int", Line: 1, Column: 1},
		{Type: TokenIdentifier, Value: "x", Line: 1, Column: 5},
		{Type: TokenOperator, Value: "=", Line: 1, Column: 7},
		{Type: TokenInteger, Value: "42", Line: 1, Column: 9},
		{Type: TokenDelimiter, Value: ";", Line: 1, Column: 11},
	})
}

func TestCInvalidOctalLiteral(t *testing.T) {
	tokens := Scan(LangC, "int x = 089;")
	expectTokens(t, tokens, []Token{
		{Type: TokenKeyword, Value: "int"},
		{Type: TokenIdentifier, Value: "x"},
		{Type: TokenOperator, Value: "="},
		{Type: TokenError, Value: "089"},
		{Type: TokenDelimiter, Value: ";"},
	})
	if !strings.Contains(tokens[3].Message, "octal") {
		t.Errorf("Expected octal error message, got %q", tokens[3].Message)
	}
}

func TestCMaximalMunch(t *testing.T) {
	tokens := Scan(LangC, "a<<=b<<c<d")
	expectTokens(t, tokens, []Token{
		{Type: TokenIdentifier, Value: "a"},
		{Type: TokenOperator, Value: "<<="},
		{Type: TokenIdentifier, Value: "b"},
		{Type: TokenOperator, Value: "<<"},
		{Type: TokenIdentifier, Value: "c"},
		{Type: TokenOperator, Value: "<"},
		{Type: TokenIdentifier, Value: "d"},
	})
}

func TestCNumericLiterals(t *testing.T) {
	cases := []struct {
		source string
		ttype  TokenType
	}{
		{"0x1F", TokenInteger},
		{"0xABCDEFuL", TokenInteger},
		{"0b1010", TokenInteger},
		{"0755", TokenInteger},
		{"123", TokenInteger},
		{"42u", TokenInteger},
		{"3.14", TokenFloat},
		{"1e10", TokenFloat},
		{"1.5e-3", TokenFloat},
		{"2.0f", TokenFloat},
		{"10L", TokenInteger},
		{"0x1.8p3", TokenFloat},
		{".5", TokenFloat},
	}
	for _, tc := range cases {
		tokens := Scan(LangC, tc.source)
		if len(tokens) != 1 {
			t.Errorf("%q: expected 1 token, got %d: %v", tc.source, len(tokens), tokens)
			continue
		}
		if tokens[0].Type != tc.ttype {
			t.Errorf("%q: expected %s, got %s", tc.source, tc.ttype, tokens[0].Type)
		}
		if tokens[0].Value != tc.source {
			t.Errorf("%q: lexeme mangled to %q", tc.source, tokens[0].Value)
		}
	}
}

func TestCMalformedNumbers(t *testing.T) {
	cases := []struct {
		source  string
		message string
	}{
		{"0x", "no digits after '0x'"},
		{"0b", "no digits after '0b'"},
		{"1e", "expected digits after exponent"},
		{"089", "not valid in octal"},
	}
	for _, tc := range cases {
		tokens := Scan(LangC, tc.source)
		if len(tokens) == 0 || tokens[0].Type != TokenError {
			t.Errorf("%q: expected leading ERROR token, got %v", tc.source, tokens)
			continue
		}
		if !strings.Contains(tokens[0].Message, tc.message) {
			t.Errorf("%q: expected message containing %q, got %q", tc.source, tc.message, tokens[0].Message)
		}
	}
}

func TestCStringLiterals(t *testing.T) {
	tokens := Scan(LangC, `printf("hello\n");`)
	expectTokens(t, tokens, []Token{
		{Type: TokenIdentifier, Value: "printf"},
		{Type: TokenDelimiter, Value: "("},
		{Type: TokenString, Value: `"hello\n"`},
		{Type: TokenDelimiter, Value: ")"},
		{Type: TokenDelimiter, Value: ";"},
	})
}

func TestCIllegalEscapeFollowsLiteral(t *testing.T) {
	tokens := Scan(LangC, `int s = "ab\q";`)
	checkPositions(t, tokens)

	stringIdx, errIdx := -1, -1
	for i, tok := range tokens {
		switch tok.Type {
		case TokenString:
			stringIdx = i
		case TokenError:
			errIdx = i
		}
	}
	if stringIdx == -1 || errIdx == -1 {
		t.Fatalf("Expected STRING and ERROR tokens, got %v", tokens)
	}
	// The diagnostic points inside the literal, so it must trail it.
	if errIdx != stringIdx+1 {
		t.Errorf("Expected escape error right after the literal, got STRING at %d, ERROR at %d", stringIdx, errIdx)
	}
	if tokens[errIdx].Value != `\q` {
		t.Errorf("Expected error lexeme `\\q`, got %q", tokens[errIdx].Value)
	}
	if !strings.Contains(tokens[errIdx].Message, "Illegal escape") {
		t.Errorf("Unexpected message: %q", tokens[errIdx].Message)
	}
	if tokens[stringIdx].Value != `"ab\q"` {
		t.Errorf("Literal must keep the raw escape text, got %q", tokens[stringIdx].Value)
	}
}

func TestCIllegalEscapeInCharLiteral(t *testing.T) {
	tokens := Scan(LangC, `char c = '\q';`)
	checkPositions(t, tokens)

	var charTok, errTok *Token
	for i := range tokens {
		switch tokens[i].Type {
		case TokenChar:
			charTok = &tokens[i]
		case TokenError:
			errTok = &tokens[i]
		}
	}
	if charTok == nil || errTok == nil {
		t.Fatalf("Expected CHAR and ERROR tokens, got %v", tokens)
	}
	if charTok.Value != `'\q'` {
		t.Errorf("Expected char lexeme `'\\q'`, got %q", charTok.Value)
	}
	if errTok.Value != `\q` {
		t.Errorf("Expected error lexeme `\\q`, got %q", errTok.Value)
	}
}

func TestCUnterminatedStringWithBadEscapeStaysOrdered(t *testing.T) {
	// Both diagnostics of this input point into the literal; the stream
	// still ascends: unterminated at the opening quote, escape behind it.
	tokens := Scan(LangC, `"abc\`)
	checkPositions(t, tokens)
	if len(tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %v", tokens)
	}
	if !strings.Contains(tokens[0].Message, "Unterminated string") {
		t.Errorf("Expected unterminated string first, got %q", tokens[0].Message)
	}
	if !strings.Contains(tokens[1].Message, "unterminated escape") {
		t.Errorf("Expected trailing escape error, got %q", tokens[1].Message)
	}
}

func TestCUnterminatedString(t *testing.T) {
	tokens := Scan(LangC, "\"abc\nint y;")
	if tokens[0].Type != TokenError {
		t.Fatalf("Expected ERROR first, got %s", tokens[0].Type)
	}
	if tokens[0].Value != "\"abc" {
		t.Errorf("Expected error lexeme to span to end of line, got %q", tokens[0].Value)
	}
	// Scanning resumes on the next line.
	if len(tokens) != 4 || tokens[1].Value != "int" {
		t.Errorf("Expected recovery after unterminated string, got %v", tokens)
	}
}

func TestCCharLiterals(t *testing.T) {
	tokens := Scan(LangC, `'a' '\n' '' 'ab'`)
	expectTokens(t, tokens, []Token{
		{Type: TokenChar, Value: "'a'"},
		{Type: TokenChar, Value: `'\n'`},
		{Type: TokenError, Value: "''"},
		{Type: TokenError, Value: "'ab'"},
	})
}

func TestCPreprocessorDirective(t *testing.T) {
	tokens := Scan(LangC, "#include <stdio.h>\nint main(){}")
	if tokens[0].Type != TokenPreprocessor {
		t.Fatalf("Expected PREPROCESSOR, got %s", tokens[0].Type)
	}
	if tokens[0].Value != "#include <stdio.h>" {
		t.Errorf("Expected full directive, got %q", tokens[0].Value)
	}
}

func TestCPreprocessorContinuation(t *testing.T) {
	tokens := Scan(LangC, "#define MAX(a, b) \\\n  ((a) > (b) ? (a) : (b))\nint x;")
	if tokens[0].Type != TokenPreprocessor {
		t.Fatalf("Expected PREPROCESSOR, got %s", tokens[0].Type)
	}
	if !strings.Contains(tokens[0].Value, "(a) > (b)") {
		t.Errorf("Continuation line not joined into directive: %q", tokens[0].Value)
	}
	if tokens[1].Value != "int" {
		t.Errorf("Expected scanning to resume after joined directive, got %v", tokens[1])
	}
}

func TestCComments(t *testing.T) {
	tokens := Scan(LangC, "int a; // trailing\n/* block\ncomment */ int b;")
	expectTokens(t, tokens, []Token{
		{Type: TokenKeyword, Value: "int"},
		{Type: TokenIdentifier, Value: "a"},
		{Type: TokenDelimiter, Value: ";"},
		{Type: TokenKeyword, Value: "int"},
		{Type: TokenIdentifier, Value: "b"},
	})
}

func TestCUnterminatedBlockCommentIsTerminal(t *testing.T) {
	tokens := Scan(LangC, "int a; /* never closed\nint b;")
	want := []Token{
		{Type: TokenKeyword, Value: "int"},
		{Type: TokenIdentifier, Value: "a"},
		{Type: TokenDelimiter, Value: ";"},
		{Type: TokenError, Value: "/*", Line: 1, Column: 8},
	}
	expectTokens(t, tokens, want)
	if !strings.Contains(tokens[3].Message, "Unterminated block comment") {
		t.Errorf("Unexpected message: %q", tokens[3].Message)
	}
}

func TestCUnknownCharacter(t *testing.T) {
	tokens := Scan(LangC, "int a = 1 @ 2;")
	var errTok *Token
	for i := range tokens {
		if tokens[i].Type == TokenError {
			errTok = &tokens[i]
		}
	}
	if errTok == nil {
		t.Fatal("Expected an ERROR token for '@'")
	}
	if errTok.Value != "@" {
		t.Errorf("Expected error lexeme '@', got %q", errTok.Value)
	}
	// Recovery: the trailing tokens are still present.
	if tokens[len(tokens)-1].Value != ";" {
		t.Errorf("Expected scan to recover past unknown character, got %v", tokens)
	}
}

func TestCppScopeAndKeywords(t *testing.T) {
	tokens := Scan(LangCPP, "std::cout << true;")
	expectTokens(t, tokens, []Token{
		{Type: TokenIdentifier, Value: "std"},
		{Type: TokenOperator, Value: "::"},
		{Type: TokenIdentifier, Value: "cout"},
		{Type: TokenOperator, Value: "<<"},
		{Type: TokenBoolean, Value: "true"},
		{Type: TokenDelimiter, Value: ";"},
	})
}

func TestCppKeywordSuperset(t *testing.T) {
	// "class" is a keyword in C++ but an identifier in C.
	cppTokens := Scan(LangCPP, "class Foo")
	if cppTokens[0].Type != TokenKeyword {
		t.Errorf("Expected 'class' to be a C++ keyword, got %s", cppTokens[0].Type)
	}
	cTokens := Scan(LangC, "class Foo")
	if cTokens[0].Type != TokenIdentifier {
		t.Errorf("Expected 'class' to be a C identifier, got %s", cTokens[0].Type)
	}
}

func TestCppRawString(t *testing.T) {
	tokens := Scan(LangCPP, `auto s = R"(no \escape here)";`)
	var raw *Token
	for i := range tokens {
		if tokens[i].Type == TokenString {
			raw = &tokens[i]
		}
	}
	if raw == nil {
		t.Fatal("Expected a STRING token for the raw string")
	}
	if raw.Value != `R"(no \escape here)"` {
		t.Errorf("Raw string lexeme mangled: %q", raw.Value)
	}
}

func TestCppRawStringWithDelimiter(t *testing.T) {
	tokens := Scan(LangCPP, `R"tag(contains )" inside)tag"`)
	expectTokens(t, tokens, []Token{
		{Type: TokenString, Value: `R"tag(contains )" inside)tag"`},
	})
}

func TestCppPointerToMemberMunch(t *testing.T) {
	tokens := Scan(LangCPP, "p->*q")
	expectTokens(t, tokens, []Token{
		{Type: TokenIdentifier, Value: "p"},
		{Type: TokenOperator, Value: "->*"},
		{Type: TokenIdentifier, Value: "q"},
	})
}

func TestCppUserDefinedLiteral(t *testing.T) {
	tokens := Scan(LangCPP, "auto d = 42_km;")
	var lit *Token
	for i := range tokens {
		if tokens[i].Type == TokenInteger {
			lit = &tokens[i]
		}
	}
	if lit == nil || lit.Value != "42_km" {
		t.Errorf("Expected UDL suffix absorbed into lexeme, got %v", tokens)
	}
}

func TestCPositionTracking(t *testing.T) {
	tokens := Scan(LangC, "int a;\n  float b;\n")
	expectTokens(t, tokens, []Token{
		{Type: TokenKeyword, Value: "int", Line: 1, Column: 1},
		{Type: TokenIdentifier, Value: "a", Line: 1, Column: 5},
		{Type: TokenDelimiter, Value: ";", Line: 1, Column: 6},
		{Type: TokenKeyword, Value: "float", Line: 2, Column: 3},
		{Type: TokenIdentifier, Value: "b", Line: 2, Column: 9},
		{Type: TokenDelimiter, Value: ";", Line: 2, Column: 10},
	})
	checkPositions(t, tokens)
}

func TestCAdversarialInputTerminates(t *testing.T) {
	inputs := []string{
		"",
		"\"",
		"'",
		"/*",
		strings.Repeat("(", 5000),
		strings.Repeat("\"a\n", 1000),
		strings.Repeat("0x 0b 1e ", 500),
	}
	for _, src := range inputs {
		for _, lang := range []Language{LangC, LangCPP} {
			tokens := Scan(lang, src)
			checkPositions(t, tokens)
		}
	}
}

// Lexemes must match the source text at their recorded positions, so that
// re-inserting the eliminated comment/whitespace spans reproduces the input.
func TestCLexemeSourceFidelity(t *testing.T) {
	src := "#include <stdio.h>\nint main(void) {\n    /* greet */\n    printf(\"hi %d\\n\", 0x1F);\n    return 0; // done\n}\n"
	verifyLexemeFidelity(t, src, Scan(LangC, src))
}

func verifyLexemeFidelity(t *testing.T, src string, tokens []Token) {
	t.Helper()
	// Map (line, column) to byte offsets.
	offsets := map[[2]int]int{}
	line, col := 1, 1
	for i := 0; i < len(src); i++ {
		offsets[[2]int{line, col}] = i
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	for _, tok := range tokens {
		switch tok.Type {
		case TokenNewline, TokenIndent, TokenDedent, TokenPreprocessor, TokenError:
			continue // zero-width or normalized lexemes
		}
		off, ok := offsets[[2]int{tok.Line, tok.Column}]
		if !ok {
			t.Errorf("Token %s %q: position %d:%d not in source", tok.Type, tok.Value, tok.Line, tok.Column)
			continue
		}
		if off+len(tok.Value) > len(src) || src[off:off+len(tok.Value)] != tok.Value {
			t.Errorf("Token %s at %d:%d: lexeme %q does not match source text", tok.Type, tok.Line, tok.Column, tok.Value)
		}
	}
}

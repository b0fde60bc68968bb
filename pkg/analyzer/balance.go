package analyzer

import (
	"fmt"
	"sort"

	"github.com/antibyte/lexana/pkg/lexer"
)

// CheckBalance runs a token-level bracket check over a finished scan:
// unclosed openers, stray closers and crossed pairs. It stays strictly
// lexical - no statement or expression structure is inferred. Findings at a
// position the scanner already flagged are dropped as duplicates.
func CheckBalance(lang lexer.Language, tokens []lexer.Token) []lexer.Token {
	label := balanceLabel(lang)
	pairs := map[string]string{")": "(", "]": "[", "}": "{"}
	closerOf := map[string]string{"(": ")", "[": "]", "{": "}"}

	type opener struct {
		value string
		line  int
		col   int
	}
	var stack []opener
	findings := []lexer.Token{}

	flagged := make(map[[2]int]bool)
	for _, tok := range tokens {
		if tok.IsError() {
			flagged[[2]int{tok.Line, tok.Column}] = true
		}
	}

	addFinding := func(message, value string, line, col int) {
		if flagged[[2]int{line, col}] {
			return
		}
		findings = append(findings, lexer.Token{
			Type:    lexer.TokenError,
			Value:   value,
			Line:    line,
			Column:  col,
			Message: message,
		})
	}

	for _, tok := range tokens {
		if tok.Type != lexer.TokenDelimiter {
			continue
		}
		switch tok.Value {
		case "(", "[", "{":
			stack = append(stack, opener{value: tok.Value, line: tok.Line, col: tok.Column})
		case ")", "]", "}":
			expected := pairs[tok.Value]
			if len(stack) == 0 {
				addFinding(
					fmt.Sprintf("%s Unexpected '%s' - no matching '%s'", label, tok.Value, expected),
					tok.Value, tok.Line, tok.Column)
				continue
			}
			top := stack[len(stack)-1]
			if top.value != expected {
				addFinding(
					fmt.Sprintf("%s Mismatched bracket: '%s' at line %d does not close '%s' opened at line %d",
						label, tok.Value, tok.Line, top.value, top.line),
					tok.Value, tok.Line, tok.Column)
			}
			stack = stack[:len(stack)-1]
		}
	}

	for _, open := range stack {
		addFinding(
			fmt.Sprintf("%s Unclosed '%s' - missing '%s'", label, open.value, closerOf[open.value]),
			open.value, open.line, open.col)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Column < findings[j].Column
	})
	return findings
}

func balanceLabel(lang lexer.Language) string {
	switch lang {
	case lexer.LangCPP:
		return "[C++ Error]"
	case lexer.LangPython:
		return "[Python Error]"
	default:
		return "[C Error]"
	}
}

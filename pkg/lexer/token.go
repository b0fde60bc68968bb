package lexer

// TokenType classifies a lexeme. The set is closed; the presentation layer
// relies on exact string matching against these names.
type TokenType string

const (
	TokenKeyword      TokenType = "KEYWORD"
	TokenIdentifier   TokenType = "IDENTIFIER"
	TokenInteger      TokenType = "INTEGER"
	TokenFloat        TokenType = "FLOAT"
	TokenString       TokenType = "STRING"
	TokenChar         TokenType = "CHAR"
	TokenFString      TokenType = "F_STRING"
	TokenOperator     TokenType = "OPERATOR"
	TokenDelimiter    TokenType = "DELIMITER"
	TokenPreprocessor TokenType = "PREPROCESSOR"
	TokenBoolean      TokenType = "BOOLEAN"
	TokenNone         TokenType = "NONE"
	TokenNewline      TokenType = "NEWLINE"
	TokenIndent       TokenType = "INDENT"
	TokenDedent       TokenType = "DEDENT"
	TokenError        TokenType = "ERROR"
)

// Language selects one of the scanner variants.
type Language string

const (
	LangC      Language = "c"
	LangCPP    Language = "cpp"
	LangPython Language = "python"
)

// Languages lists the supported languages in registry order.
func Languages() []Language {
	return []Language{LangC, LangCPP, LangPython}
}

// Valid reports whether l names a supported language.
func (l Language) Valid() bool {
	switch l {
	case LangC, LangCPP, LangPython:
		return true
	}
	return false
}

// Token is one lexical unit. Line and Column are 1-based and address the
// first character of the lexeme. ERROR tokens additionally carry a Message.
type Token struct {
	Type    TokenType `json:"type"`
	Value   string    `json:"value"`
	Line    int       `json:"line"`
	Column  int       `json:"column"`
	Message string    `json:"message,omitempty"`
}

// IsError reports whether the token records a lexical violation.
func (t Token) IsError() bool {
	return t.Type == TokenError
}

// Stats aggregates a token stream for the presentation layer, which consumes
// the numbers verbatim and never recomputes them.
type Stats struct {
	Total      int               `json:"total"`
	ByType     map[TokenType]int `json:"by_type"`
	ErrorCount int               `json:"error_count"`
}

// Aggregate builds Stats over a token stream. sum(ByType) always equals
// Total, and ErrorCount equals the number of ERROR tokens.
func Aggregate(tokens []Token) Stats {
	stats := Stats{
		Total:  len(tokens),
		ByType: make(map[TokenType]int),
	}
	for _, tok := range tokens {
		stats.ByType[tok.Type]++
		if tok.IsError() {
			stats.ErrorCount++
		}
	}
	return stats
}

// ErrorSubsequence extracts the ERROR tokens in stream order.
func ErrorSubsequence(tokens []Token) []Token {
	errs := []Token{}
	for _, tok := range tokens {
		if tok.IsError() {
			errs = append(errs, tok)
		}
	}
	return errs
}

// Package analyzer drives one analysis request end to end: it resolves the
// language (explicit tag or detector), runs the matching scanner, and
// assembles tokens, errors and statistics into a single response. All state
// lives in the request; nothing survives between calls.
package analyzer

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/antibyte/lexana/pkg/detector"
	"github.com/antibyte/lexana/pkg/lexer"
	"github.com/antibyte/lexana/pkg/logger"
)

// ErrUnsupportedLanguage is returned for a language tag outside the
// registry. It is a boundary fault: the core scanners are never invoked.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ConfidenceUserSpecified marks results where the caller fixed the language
// and the detector never ran.
const ConfidenceUserSpecified = "user-specified"

// Result is the full analysis response. Errors is the ERROR-token
// subsequence of Tokens; BalanceErrors come from the post-scan bracket
// check and are reported separately so the token invariants stay intact.
type Result struct {
	RequestID     string         `json:"request_id"`
	Language      lexer.Language `json:"language"`
	Confidence    string         `json:"confidence"`
	Tokens        []lexer.Token  `json:"tokens"`
	Errors        []lexer.Token  `json:"errors"`
	BalanceErrors []lexer.Token  `json:"balance_errors"`
	Stats         lexer.Stats    `json:"stats"`
}

// LanguageInfo describes one registry entry for the presentation layer.
type LanguageInfo struct {
	ID    lexer.Language `json:"id"`
	Label string         `json:"label"`
	Icon  string         `json:"icon"`
}

var languageRegistry = []LanguageInfo{
	{ID: lexer.LangC, Label: "C", Icon: "🔵"},
	{ID: lexer.LangCPP, Label: "C++", Icon: "🟣"},
	{ID: lexer.LangPython, Label: "Python", Icon: "🟡"},
}

// Languages returns the static registry of supported languages.
func Languages() []LanguageInfo {
	return languageRegistry
}

// NormalizeLanguage resolves a raw language tag: trims, lowercases and maps
// the "py" alias. An empty tag is returned as empty (detection requested).
func NormalizeLanguage(tag string) (lexer.Language, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "py" {
		tag = "python"
	}
	if tag == "" {
		return "", nil
	}
	lang := lexer.Language(tag)
	if !lang.Valid() {
		return "", ErrUnsupportedLanguage
	}
	return lang, nil
}

// Analyze tokenizes code. With an empty language tag the detector picks the
// language; otherwise the tag is used verbatim and the confidence is
// "user-specified". Analyze never fails on malformed source - lexical
// faults degrade to ERROR tokens inside the result.
func Analyze(code string, languageTag string) (*Result, error) {
	lang, err := NormalizeLanguage(languageTag)
	if err != nil {
		return nil, err
	}

	confidence := ConfidenceUserSpecified
	if lang == "" {
		detected, conf := detector.Detect(code)
		lang = detected
		confidence = string(conf)
		logger.Debug(logger.AreaDetector, "detected language %s (%s) for %d byte request", lang, confidence, len(code))
	}

	tokens := lexer.Scan(lang, code)
	result := &Result{
		RequestID:     uuid.NewString(),
		Language:      lang,
		Confidence:    confidence,
		Tokens:        tokens,
		Errors:        lexer.ErrorSubsequence(tokens),
		BalanceErrors: CheckBalance(lang, tokens),
		Stats:         lexer.Aggregate(tokens),
	}

	logger.Debug(logger.AreaLexer, "request %s: %s, %d tokens, %d lexical errors",
		result.RequestID, lang, result.Stats.Total, result.Stats.ErrorCount)
	return result, nil
}

// Detect exposes the detector verdict with its per-language scores.
func Detect(code string) detector.Result {
	return detector.Explain(code)
}

// Package detector guesses the source language of raw program text. It is a
// pure scoring fold over a declarative fingerprint table: every fingerprint
// that matches adds its weight to the language it belongs to, and the
// highest-scoring language wins.
package detector

import (
	"regexp"
	"sort"

	"github.com/antibyte/lexana/pkg/lexer"
)

// Confidence buckets the margin between the two best scores.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Fixed weights. Strong fingerprints are near-exclusive constructs, weak
// ones are shared syntax that merely leans toward a language.
const (
	strongWeight = 3
	weakWeight   = 1
	// cppExclusiveBonus settles the C-vs-C++ superset problem: any
	// C++-only construct pushes the verdict toward C++.
	cppExclusiveBonus = 5
)

// Confidence is derived from the margin between the two best scores: a
// clear winner is a confident one. Fixed thresholds, documented here.
const (
	highGapMin   = 4
	mediumGapMin = 2
)

// baselineLanguage is returned for empty or fingerprint-free input; the
// scan still proceeds and degrades to ERROR tokens where it must.
const baselineLanguage = lexer.LangC

// tieBreakOrder fixes the winner among equal scores.
var tieBreakOrder = []lexer.Language{lexer.LangC, lexer.LangCPP, lexer.LangPython}

type fingerprint struct {
	re     *regexp.Regexp
	weight int
}

type profile struct {
	lang   lexer.Language
	strong []string
	weak   []string
}

var profiles = []profile{
	{
		lang: lexer.LangCPP,
		strong: []string{
			`\bclass\b`,
			`\bnamespace\b`,
			`\btemplate\s*<`,
			`\bcout\b`,
			`\bcin\b`,
			`\bstd\s*::`,
			`\bnullptr\b`,
			`\bpublic\s*:`,
			`\bprivate\s*:`,
			`\bprotected\s*:`,
			`#include\s*<[^>]+>`,
			`\bnew\s+\w`,
			`\bdelete\s+\w`,
			`\boverride\b`,
			`\bvirtual\b`,
			`\bconstexpr\b`,
			`\bauto\s+\w+\s*=`,
			`->`,
			`::`,
			`\[\[`,
		},
		weak: []string{
			`\bbool\b`,
			`<<`,
			`>>`,
		},
	},
	{
		lang: lexer.LangC,
		strong: []string{
			`#include\s*<stdio\.h>`,
			`#include\s*<stdlib\.h>`,
			`#include\s*<string\.h>`,
			`#include\s*<math\.h>`,
			`\bprintf\s*\(`,
			`\bscanf\s*\(`,
			`\bmalloc\s*\(`,
			`\bfree\s*\(`,
			`\bstruct\s+\w+\s*\{`,
			`\btypedef\s+struct\b`,
			`\bvoid\s+\w+\s*\(`,
			`\bint\s+main\s*\(`,
		},
		weak: []string{
			`[{};]`,
			`#include`,
			`#define`,
			`\bint\b`,
			`\bfor\s*\(`,
			`\bwhile\s*\(`,
			`\bif\s*\(`,
		},
	},
	{
		lang: lexer.LangPython,
		strong: []string{
			`\bdef\s+\w+\s*\(`,
			`\bimport\s+\w`,
			`\bfrom\s+\w+\s+import\b`,
			`\bprint\s*\(`,
			`\bclass\s+\w+\s*[:(]`,
			`\bself\b`,
			`\bNone\b`,
			`\bTrue\b`,
			`\bFalse\b`,
			`\belif\b`,
			`\blambda\b`,
			`(?m)^\s*#.*$`,
			`"""`,
			`f['"]`,
			`\brange\s*\(`,
			`\blen\s*\(`,
			`\blist\s*\(`,
			`\bdict\s*\(`,
		},
		weak: []string{
			`(?m):\s*$`,
			`\bfor\s+\w+\s+in\b`,
			`\bwith\b`,
			`\byield\b`,
			`\basync\b`,
			`\bawait\b`,
		},
	},
}

// cppExclusive constructs do not exist in C at all.
var cppExclusive = compile([]string{
	`::`, `\bnamespace\b`, `\btemplate\b`, `\bcout\b`, `\bnullptr\b`, `\boverride\b`,
})

var fingerprints = func() map[lexer.Language][]fingerprint {
	table := make(map[lexer.Language][]fingerprint, len(profiles))
	for _, p := range profiles {
		var fps []fingerprint
		for _, re := range compile(p.strong) {
			fps = append(fps, fingerprint{re: re, weight: strongWeight})
		}
		for _, re := range compile(p.weak) {
			fps = append(fps, fingerprint{re: re, weight: weakWeight})
		}
		table[p.lang] = fps
	}
	return table
}()

func compile(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}

// Result carries the verdict plus the per-language scores that produced it.
type Result struct {
	Language   lexer.Language         `json:"detected_language"`
	Confidence Confidence             `json:"confidence"`
	Scores     map[lexer.Language]int `json:"scores"`
}

// Scores runs the scoring fold and returns the per-language totals.
func Scores(source string) map[lexer.Language]int {
	scores := make(map[lexer.Language]int, len(fingerprints))
	for lang, fps := range fingerprints {
		total := 0
		for _, fp := range fps {
			if fp.re.MatchString(source) {
				total += fp.weight
			}
		}
		scores[lang] = total
	}
	for _, re := range cppExclusive {
		if re.MatchString(source) {
			scores[lexer.LangCPP] += cppExclusiveBonus
			break
		}
	}
	return scores
}

// Detect returns the most likely language and a confidence bucket. Empty or
// fingerprint-free input yields the baseline language at low confidence;
// detection never fails outright.
func Detect(source string) (lexer.Language, Confidence) {
	result := Explain(source)
	return result.Language, result.Confidence
}

// Explain is Detect plus the raw scores, for callers that surface them.
func Explain(source string) Result {
	scores := Scores(source)

	// Arg-max with the documented tie-break priority: c, then cpp, then
	// python.
	best := baselineLanguage
	bestScore := -1
	for _, lang := range tieBreakOrder {
		if scores[lang] > bestScore {
			best = lang
			bestScore = scores[lang]
		}
	}

	if bestScore == 0 {
		return Result{Language: baselineLanguage, Confidence: ConfidenceLow, Scores: scores}
	}

	ranked := make([]int, 0, len(scores))
	for _, s := range scores {
		ranked = append(ranked, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranked)))
	gap := bestScore - ranked[1]

	confidence := ConfidenceLow
	switch {
	case gap >= highGapMin:
		confidence = ConfidenceHigh
	case gap >= mediumGapMin:
		confidence = ConfidenceMedium
	}

	return Result{Language: best, Confidence: confidence, Scores: scores}
}

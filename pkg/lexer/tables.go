package lexer

// Keyword and operator tables. These are read-only after package
// initialization and shared by all concurrent scans.

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true,
	"else": true, "enum": true, "extern": true, "float": true, "for": true,
	"goto": true, "if": true, "inline": true, "int": true, "long": true,
	"register": true, "restrict": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true,
	"void": true, "volatile": true, "while": true,
	// C99/C11 additions
	"_Alignas": true, "_Alignof": true, "_Atomic": true, "_Bool": true,
	"_Complex": true, "_Generic": true, "_Imaginary": true, "_Noreturn": true,
	"_Static_assert": true, "_Thread_local": true,
}

var cppExtraKeywords = map[string]bool{
	// OOP / type system
	"class": true, "namespace": true, "template": true, "typename": true,
	"virtual": true, "override": true, "final": true, "explicit": true,
	"friend": true, "operator": true, "this": true, "using": true,
	"public": true, "private": true, "protected": true, "new": true,
	"delete": true,
	// bool
	"bool": true, "true": true, "false": true,
	// exceptions
	"try": true, "catch": true, "throw": true, "noexcept": true,
	// casts
	"static_cast": true, "dynamic_cast": true, "reinterpret_cast": true,
	"const_cast": true,
	// C++11 and later
	"nullptr": true, "constexpr": true, "consteval": true, "constinit": true,
	"decltype": true, "auto": true, "static_assert": true,
	"thread_local": true, "alignas": true, "alignof": true, "typeid": true,
	// C++20
	"concept": true, "requires": true, "co_await": true, "co_return": true,
	"co_yield": true, "export": true, "import": true, "module": true,
	"inline": true, "mutable": true, "volatile": true,
	// character types
	"wchar_t": true, "char8_t": true, "char16_t": true, "char32_t": true,
}

var pyKeywords = map[string]bool{
	"False": true, "None": true, "True": true,
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true,
	"pass": true, "raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true,
}

// Operators are listed longest-first so the scanner always takes the
// maximal munch (e.g. <<= before << before <).
var cOperators = []string{
	"<<=", ">>=",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=",
	"&&", "||", "+=", "-=", "*=", "/=", "%=",
	"&=", "|=", "^=",
	"+", "-", "*", "/", "%", "=", "<", ">",
	"&", "|", "^", "~", "!", ".",
}

// C++ adds a few operators beyond C; they sort before the C set so the
// longest-first preference still holds (->* before ->, :: before :).
var cppOperators = append([]string{"->*", ".*", "::", "..."}, cOperators...)

var pyOperators = []string{
	"**=", "//=", "<<=", ">>=",
	"->", ":=", "**", "//", "<<", ">>",
	"<=", ">=", "==", "!=", "+=", "-=",
	"*=", "/=", "%=", "&=", "|=", "^=",
	"@=",
	"+", "-", "*", "/", "%", "=", "<", ">",
	"&", "|", "^", "~", "!", ".", "@",
}

const cDelimiters = "(){};,[]:#"
const pyDelimiters = "(){}[];,:"

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isOctalDigit(ch byte) bool {
	return ch >= '0' && ch <= '7'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isAlphaNum(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func isByteIn(set string, ch byte) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == ch {
			return true
		}
	}
	return false
}

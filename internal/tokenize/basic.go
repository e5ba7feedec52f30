package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// BasicTokenizer performs unicode cleanup, whitespace splitting, optional
// lower-casing with accent stripping, and punctuation splitting. It is the
// first stage of the FullTokenizer; its output words are fed to the
// wordpiece stage.
type BasicTokenizer struct {
	lowerCase bool
}

// NewBasicTokenizer creates a BasicTokenizer. lowerCase selects whether the
// tokenizer case-folds and strips accents, matching the model's
// do_lower_case flag.
func NewBasicTokenizer(lowerCase bool) *BasicTokenizer {
	return &BasicTokenizer{lowerCase: lowerCase}
}

// Tokenize splits text into basic tokens.
func (t *BasicTokenizer) Tokenize(text string) []string {
	text = cleanText(text)
	text = padCJK(text)

	var tokens []string
	for _, word := range strings.Fields(text) {
		if t.lowerCase {
			word = strings.ToLower(word)
			word = stripAccents(word)
		}
		tokens = append(tokens, splitPunctuation(word)...)
	}
	return tokens
}

// cleanText removes invalid characters and maps all whitespace to plain
// spaces.
func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// padCJK surrounds CJK ideographs with spaces so each is its own token.
func padCJK(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isCJK(r) {
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripAccents removes combining marks after NFD normalization.
func stripAccents(text string) string {
	decomposed := norm.NFD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitPunctuation breaks a word at punctuation characters, keeping each
// punctuation rune as its own token.
func splitPunctuation(word string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range word {
		if isPunctuation(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			tokens = append(tokens, string(r))
		} else {
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isControl(r rune) bool {
	// Tab, newline and carriage return count as whitespace, not control.
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}

// isPunctuation treats the ASCII symbol ranges as punctuation in addition to
// the unicode punctuation and symbol categories, matching the reference BERT
// tokenizer.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

// isCJK reports whether r falls in a CJK ideograph block.
func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF,
		r >= 0x3400 && r <= 0x4DBF,
		r >= 0x20000 && r <= 0x2A6DF,
		r >= 0x2A700 && r <= 0x2B73F,
		r >= 0x2B740 && r <= 0x2B81F,
		r >= 0x2B820 && r <= 0x2CEAF,
		r >= 0xF900 && r <= 0xFAFF,
		r >= 0x2F800 && r <= 0x2FA1F:
		return true
	}
	return false
}

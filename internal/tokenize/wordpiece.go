package tokenize

// Longest word the wordpiece stage will attempt to sub-tokenize; anything
// longer maps to [UNK].
const maxCharsPerWord = 200

// WordpieceTokenizer splits basic tokens into the sub-tokens that exist in
// the model vocabulary, using greedy longest-match-first with the "##"
// continuation prefix.
type WordpieceTokenizer struct {
	vocab *Vocab
}

// NewWordpieceTokenizer creates a WordpieceTokenizer over vocab.
func NewWordpieceTokenizer(vocab *Vocab) *WordpieceTokenizer {
	return &WordpieceTokenizer{vocab: vocab}
}

// Tokenize sub-tokenizes each word and returns the flattened result.
func (t *WordpieceTokenizer) Tokenize(words []string) []string {
	var tokens []string
	for _, word := range words {
		tokens = append(tokens, t.splitWord(word)...)
	}
	return tokens
}

func (t *WordpieceTokenizer) splitWord(word string) []string {
	runes := []rune(word)
	if len(runes) > maxCharsPerWord {
		return []string{UnknownToken}
	}

	var subtokens []string
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for start < end {
			candidate := string(runes[start:end])
			if start > 0 {
				candidate = "##" + candidate
			}
			if t.vocab.Has(candidate) {
				subtokens = append(subtokens, candidate)
				found = true
				break
			}
			end--
		}
		if !found {
			// No prefix of the remainder is in the vocabulary; the whole
			// word becomes [UNK].
			return []string{UnknownToken}
		}
		start = end
	}
	return subtokens
}

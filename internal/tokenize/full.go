package tokenize

// FullTokenizer chains the basic and wordpiece stages and converts the
// resulting sub-tokens into vocabulary ids.
type FullTokenizer struct {
	vocab     *Vocab
	basic     *BasicTokenizer
	wordpiece *WordpieceTokenizer
}

// NewFullTokenizer creates a FullTokenizer over vocab. lowerCase must match
// the model's case-folding flag.
func NewFullTokenizer(vocab *Vocab, lowerCase bool) *FullTokenizer {
	return &FullTokenizer{
		vocab:     vocab,
		basic:     NewBasicTokenizer(lowerCase),
		wordpiece: NewWordpieceTokenizer(vocab),
	}
}

// Tokenize returns the sub-tokens of text.
func (t *FullTokenizer) Tokenize(text string) []string {
	return t.wordpiece.Tokenize(t.basic.Tokenize(text))
}

// Convert maps sub-tokens to their input ids. Tokens outside the vocabulary
// map to the id of [UNK].
func (t *FullTokenizer) Convert(tokens []string) []int64 {
	unknown, _ := t.vocab.ID(UnknownToken)
	ids := make([]int64, len(tokens))
	for i, token := range tokens {
		id, ok := t.vocab.ID(token)
		if !ok {
			id = unknown
		}
		ids[i] = id
	}
	return ids
}

// Vocab returns the tokenizer's vocabulary.
func (t *FullTokenizer) Vocab() *Vocab {
	return t.vocab
}

// Package tokenize implements the BERT FullTokenizer: basic unicode-aware
// splitting followed by greedy wordpiece sub-tokenization against a fixed
// vocabulary, plus conversion of text into the fixed-length integer features
// the model consumes.
package tokenize

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Standard BERT special tokens.
const (
	PadToken     = "[PAD]"
	UnknownToken = "[UNK]"
	ClsToken     = "[CLS]"
	SepToken     = "[SEP]"
	MaskToken    = "[MASK]"
)

// Vocab maps vocabulary tokens to their input ids.
type Vocab struct {
	ids map[string]int64
}

// NewVocab builds a vocabulary from an ordered token list; the id of each
// token is its position in the list.
func NewVocab(tokens []string) *Vocab {
	ids := make(map[string]int64, len(tokens))
	for i, token := range tokens {
		ids[token] = int64(i)
	}
	return &Vocab{ids: ids}
}

// LoadVocab reads a BERT vocab.txt file: one token per line, line index is
// the token id.
func LoadVocab(path string) (*Vocab, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer file.Close()

	ids := make(map[string]int64)
	scanner := bufio.NewScanner(file)
	var index int64
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		ids[token] = index
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	if index == 0 {
		return nil, fmt.Errorf("vocabulary file %s is empty", path)
	}
	return &Vocab{ids: ids}, nil
}

// ID returns the input id for token, if present.
func (v *Vocab) ID(token string) (int64, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Has reports whether token is in the vocabulary.
func (v *Vocab) Has(token string) bool {
	_, ok := v.ids[token]
	return ok
}

// Size returns the number of tokens in the vocabulary.
func (v *Vocab) Size() int {
	return len(v.ids)
}

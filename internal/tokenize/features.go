package tokenize

// Features holds the three parallel fixed-length integer sequences a
// BERT-style model consumes for one input sequence. All three slices have
// length equal to the requested maximum sequence length.
type Features struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
	TokenCount    int // number of real (non-padding) positions, specials included
	Truncated     bool
}

// Featurize converts text into model input features: [CLS] sub-tokens [SEP],
// truncated to fit maxSeqLen, padded with [PAD] ids, attention mask 1 for
// real tokens and 0 for padding, token type ids all zero (single segment).
func (t *FullTokenizer) Featurize(text string, maxSeqLen int) Features {
	tokens := t.Tokenize(text)

	// Room left after the [CLS] and [SEP] markers. A limit below 2 leaves
	// no room at all; degrade to specials-only rather than slicing negative.
	keep := maxSeqLen - 2
	if keep < 0 {
		keep = 0
	}
	truncated := false
	if len(tokens) > keep {
		tokens = tokens[:keep]
		truncated = true
	}

	sequence := make([]string, 0, len(tokens)+2)
	sequence = append(sequence, ClsToken)
	sequence = append(sequence, tokens...)
	sequence = append(sequence, SepToken)

	ids := t.Convert(sequence)
	pad, _ := t.vocab.ID(PadToken)

	count := len(ids)
	if count > maxSeqLen {
		count = maxSeqLen
	}
	features := Features{
		InputIDs:      make([]int64, maxSeqLen),
		AttentionMask: make([]int64, maxSeqLen),
		TokenTypeIDs:  make([]int64, maxSeqLen),
		TokenCount:    count,
		Truncated:     truncated,
	}
	for i := 0; i < maxSeqLen; i++ {
		if i < len(ids) {
			features.InputIDs[i] = ids[i]
			features.AttentionMask[i] = 1
		} else {
			features.InputIDs[i] = pad
		}
	}
	return features
}

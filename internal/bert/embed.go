package bert

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// batchOutput holds one graph execution's raw results.
type batchOutput struct {
	batch  int
	seqLen int
	hidden int
	pooled []float32 // batch x hidden, flattened
	tokens []float32 // batch x seqLen x hidden, flattened
}

// EmbedPooled embeds a single sequence and returns its pooled embedding: one
// fixed-size vector summarizing the whole sequence.
func (b *Bert) EmbedPooled(ctx context.Context, text string) ([]float32, error) {
	out, err := b.run(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out.pooledRow(0), nil
}

// EmbedPooledBatch embeds each sequence and returns one pooled vector per
// input, in input order. An empty input yields an empty, non-nil result.
func (b *Bert) EmbedPooledBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out, err := b.run(ctx, texts)
	if err != nil {
		return nil, err
	}
	result := make([][]float32, out.batch)
	for i := range result {
		result[i] = out.pooledRow(i)
	}
	return result, nil
}

// EmbedTokens embeds a single sequence and returns one vector per token
// position up to the maximum sequence length, padding positions included.
func (b *Bert) EmbedTokens(ctx context.Context, text string) ([][]float32, error) {
	out, err := b.run(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out.tokenRows(0), nil
}

// EmbedTokensBatch embeds each sequence and returns per-token vectors per
// input, in input order. An empty input yields an empty, non-nil result.
func (b *Bert) EmbedTokensBatch(ctx context.Context, texts []string) ([][][]float32, error) {
	if len(texts) == 0 {
		return [][][]float32{}, nil
	}
	out, err := b.run(ctx, texts)
	if err != nil {
		return nil, err
	}
	result := make([][][]float32, out.batch)
	for i := range result {
		result[i] = out.tokenRows(i)
	}
	return result, nil
}

// run tokenizes the batch, executes the graph and captures both outputs.
// The live session is used when one is active; otherwise a one-off session
// is created and destroyed around the call. Results are identical either
// way.
func (b *Bert) run(ctx context.Context, texts []string) (*batchOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := len(texts)
	seqLen := b.maxSeqLen

	ids := make([]int64, 0, batch*seqLen)
	mask := make([]int64, 0, batch*seqLen)
	types := make([]int64, 0, batch*seqLen)
	for _, text := range texts {
		features := b.tokenizer.Featurize(text, seqLen)
		ids = append(ids, features.InputIDs...)
		mask = append(mask, features.AttentionMask...)
		types = append(types, features.TokenTypeIDs...)
	}

	shape := ort.NewShape(int64(batch), int64(seqLen))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()
	typesTensor, err := ort.NewTensor(shape, types)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer typesTensor.Destroy()

	session := b.session
	if session == nil {
		session, err = b.newSession()
		if err != nil {
			return nil, err
		}
		defer session.Destroy()
	}

	// Both outputs are requested every run; the flag-selected one is read
	// by the caller. Let the runtime allocate them.
	outputs := make([]ort.Value, 2)
	inputs := []ort.Value{idsTensor, maskTensor, typesTensor}
	if err := session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	pooled, hidden, err := readPooled(outputs[0], batch)
	if err != nil {
		return nil, err
	}
	tokens, err := readPerToken(outputs[1], batch, seqLen, hidden)
	if err != nil {
		return nil, err
	}

	return &batchOutput{
		batch:  batch,
		seqLen: seqLen,
		hidden: hidden,
		pooled: pooled,
		tokens: tokens,
	}, nil
}

func (b *Bert) newSession() (*ort.DynamicAdvancedSession, error) {
	if err := ensureRuntime(); err != nil {
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(b.modelPath, b.sig.inputNames(), b.sig.outputNames(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph session: %w", err)
	}
	return session, nil
}

// readPooled validates the pooled output tensor ([batch, hidden]) and
// returns its data plus the discovered hidden size.
func readPooled(value ort.Value, batch int) ([]float32, int, error) {
	tensor, ok := value.(*ort.Tensor[float32])
	if !ok {
		return nil, 0, fmt.Errorf("%w: pooled output is not a float32 tensor", ErrInferenceFailed)
	}
	shape := tensor.GetShape()
	if len(shape) != 2 || int(shape[0]) != batch {
		return nil, 0, fmt.Errorf("%w: unexpected pooled output shape %v", ErrInferenceFailed, shape)
	}
	hidden := int(shape[1])
	data := make([]float32, batch*hidden)
	copy(data, tensor.GetData())
	return data, hidden, nil
}

// readPerToken validates the per-token output tensor ([batch, seq, hidden])
// and returns its data.
func readPerToken(value ort.Value, batch, seqLen, hidden int) ([]float32, error) {
	tensor, ok := value.(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: per-token output is not a float32 tensor", ErrInferenceFailed)
	}
	shape := tensor.GetShape()
	if len(shape) != 3 || int(shape[0]) != batch || int(shape[1]) != seqLen || int(shape[2]) != hidden {
		return nil, fmt.Errorf("%w: unexpected per-token output shape %v", ErrInferenceFailed, shape)
	}
	data := make([]float32, batch*seqLen*hidden)
	copy(data, tensor.GetData())
	return data, nil
}

// pooledRow returns the pooled vector of batch row i.
func (o *batchOutput) pooledRow(i int) []float32 {
	return o.pooled[i*o.hidden : (i+1)*o.hidden]
}

// tokenRows returns the per-token vectors of batch row i.
func (o *batchOutput) tokenRows(i int) [][]float32 {
	rows := make([][]float32, o.seqLen)
	base := i * o.seqLen * o.hidden
	for s := 0; s < o.seqLen; s++ {
		start := base + s*o.hidden
		rows[s] = o.tokens[start : start+o.hidden]
	}
	return rows
}

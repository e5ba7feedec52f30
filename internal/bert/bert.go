// Package bert wraps a pretrained BERT model behind a small embedding API:
// construct a handle from a hub source or a saved bundle, optionally hold a
// long-lived execution session, and turn text into pooled or per-token
// embedding vectors. The transformer itself and its execution engine are
// external; this package only manages tokenization, input/output marshaling
// and bundle bookkeeping.
package bert

import (
	"context"
	"fmt"
	"os"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/easybert/easybert/internal/hub"
	"github.com/easybert/easybert/internal/tokenize"
)

// DefaultMaxSeqLen is the default maximum number of BERT tokens per input
// sequence, including the [CLS] and [SEP] markers.
const DefaultMaxSeqLen = 128

// Options configures handle construction.
type Options struct {
	MaxSeqLen int         // maximum sequence length; DefaultMaxSeqLen when zero
	CacheDir  string      // hub artifact cache; per-user default when empty
	Logger    *zap.Logger // nop logger when nil
}

func (o *Options) applyDefaults() {
	if o.MaxSeqLen <= 0 {
		o.MaxSeqLen = DefaultMaxSeqLen
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// signature names the graph tensors the wrapper binds to.
type signature struct {
	inputIDs      string
	attentionMask string
	tokenTypeIDs  string
	pooled        string // one vector per sequence
	perToken      string // one vector per token position
}

// inputNames returns the input binding order used for every run.
func (s signature) inputNames() []string {
	return []string{s.inputIDs, s.attentionMask, s.tokenTypeIDs}
}

// outputNames returns the output binding order used for every run: pooled
// first, per-token second.
func (s signature) outputNames() []string {
	return []string{s.pooled, s.perToken}
}

// Bert is a handle on a loaded model: its tokenizer, its graph on disk, the
// resolved tensor signature, and an optional live execution session.
type Bert struct {
	source    string
	modelPath string
	tokenizer *tokenize.FullTokenizer
	maxSeqLen int
	sig       signature
	session   *ort.DynamicAdvancedSession
	logger    *zap.Logger
}

// New fetches a pretrained model from its hub source, builds its tokenizer
// from the published vocabulary and case flag, and resolves the graph's
// input and output tensors. It fails if the source is unreachable or the
// graph lacks the expected signature.
func New(ctx context.Context, source string, opts Options) (*Bert, error) {
	opts.applyDefaults()

	client := hub.NewClient(opts.CacheDir, opts.Logger)
	model, err := client.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return newFromArtifacts(source, model.ModelPath, model.VocabPath, model.DoLowerCase, opts)
}

// Load opens a bundle previously written by Save: it verifies the serialized
// graph's signature, reads the side file recording the originating hub
// source, and re-fetches that source solely to reconstruct the tokenizer.
// It fails if the bundle or side file is missing or malformed, or if the
// recorded source can no longer be reached.
func Load(ctx context.Context, path string, opts Options) (*Bert, error) {
	opts.applyDefaults()

	modelPath := bundleModelPath(path)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: no model graph at %s", ErrBundleInvalid, modelPath)
	}
	source, err := readSourceFile(path)
	if err != nil {
		return nil, err
	}

	client := hub.NewClient(opts.CacheDir, opts.Logger)
	model, err := client.FetchTokenizer(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return newFromArtifacts(source, modelPath, model.VocabPath, model.DoLowerCase, opts)
}

func newFromArtifacts(source, modelPath, vocabPath string, lowerCase bool, opts Options) (*Bert, error) {
	vocab, err := tokenize.LoadVocab(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokenizer: %w", err)
	}

	sig, err := inspectGraph(modelPath)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("Model ready",
		zap.String("source", source),
		zap.String("model_path", modelPath),
		zap.Int("vocab_size", vocab.Size()),
		zap.Bool("do_lower_case", lowerCase),
		zap.Int("max_sequence_length", opts.MaxSeqLen))

	return &Bert{
		source:    source,
		modelPath: modelPath,
		tokenizer: tokenize.NewFullTokenizer(vocab, lowerCase),
		maxSeqLen: opts.MaxSeqLen,
		sig:       sig,
		logger:    opts.Logger,
	}, nil
}

// Source returns the hub identifier the model originated from.
func (b *Bert) Source() string {
	return b.source
}

// MaxSeqLen returns the handle's maximum sequence length.
func (b *Bert) MaxSeqLen() int {
	return b.maxSeqLen
}

// Tokenizer returns the handle's tokenizer.
func (b *Bert) Tokenizer() *tokenize.FullTokenizer {
	return b.tokenizer
}

// inspectGraph resolves the three input and two output tensor names the
// wrapper requires from the graph's declared IO.
func inspectGraph(modelPath string) (signature, error) {
	if err := ensureRuntime(); err != nil {
		return signature{}, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return signature{}, fmt.Errorf("%w: %v", ErrGraphInvalid, err)
	}
	return resolveSignature(inputs, outputs)
}

func resolveSignature(inputs, outputs []ort.InputOutputInfo) (signature, error) {
	var sig signature
	for _, info := range inputs {
		switch name := strings.ToLower(info.Name); {
		case name == "input_ids":
			sig.inputIDs = info.Name
		case name == "attention_mask" || name == "input_mask":
			sig.attentionMask = info.Name
		case name == "token_type_ids" || name == "segment_ids":
			sig.tokenTypeIDs = info.Name
		}
	}
	for _, info := range outputs {
		switch name := strings.ToLower(info.Name); {
		case name == "pooler_output" || name == "pooled_output":
			sig.pooled = info.Name
		case name == "last_hidden_state" || name == "sequence_output":
			sig.perToken = info.Name
		}
	}

	var missing []string
	if sig.inputIDs == "" {
		missing = append(missing, "input_ids")
	}
	if sig.attentionMask == "" {
		missing = append(missing, "attention_mask")
	}
	if sig.tokenTypeIDs == "" {
		missing = append(missing, "token_type_ids")
	}
	if sig.pooled == "" {
		missing = append(missing, "pooler_output")
	}
	if sig.perToken == "" {
		missing = append(missing, "last_hidden_state")
	}
	if len(missing) > 0 {
		return signature{}, fmt.Errorf("%w: missing %s", ErrGraphInvalid, strings.Join(missing, ", "))
	}
	return sig, nil
}

// ensureRuntime initializes the ONNX Runtime environment once per process.
// The shared library location may be supplied via environment variable.
func ensureRuntime() error {
	if ort.IsInitialized() {
		return nil
	}
	if shlib := os.Getenv("ONNXRUNTIME_SHARED_LIB"); shlib != "" {
		ort.SetSharedLibraryPath(shlib)
	} else if shlib := os.Getenv("ORT_SHLIB"); shlib != "" {
		ort.SetSharedLibraryPath(shlib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnx runtime: %w", err)
	}
	return nil
}

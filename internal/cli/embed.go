package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/easybert/easybert/internal/bert"
	"github.com/easybert/easybert/internal/config"
	"github.com/easybert/easybert/internal/envscope"
	"github.com/easybert/easybert/internal/input"
	"github.com/easybert/easybert/internal/logger"
	"github.com/easybert/easybert/internal/npy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type embedOptions struct {
	sequence  string
	inputPath string
	encoding  string
	output    string
	model     string
	hubModel  string
	maxSeqLen int
	tokens    bool
	pooled    bool
	gpu       bool
	cpu       bool
	verbose   bool
	quiet     bool
}

// validate checks flag combinations that cobra's mutual exclusion
// groups cannot express.
func (o *embedOptions) validate() error {
	if o.sequence == "" && o.inputPath == "" {
		return errors.New(`missing option "-s" / "--sequence" or "-i" / "--input": provide a sequence or an input file of sequences to embed`)
	}
	if o.sequence != "" && o.inputPath != "" {
		return errors.New(`redundant options "-s" / "--sequence" and "-i" / "--input": only one of these options should be provided`)
	}
	if o.maxSeqLen < 2 {
		return fmt.Errorf("max sequence length must be at least 2 to fit the [CLS] and [SEP] markers, got %d", o.maxSeqLen)
	}
	return nil
}

var embedOpts embedOptions

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Gets BERT embeddings of provided data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEmbed(cmd, &embedOpts)
	},
}

func init() {
	f := embedCmd.Flags()
	f.StringVarP(&embedOpts.sequence, "sequence", "s", "", "the sequence to embed")
	f.StringVarP(&embedOpts.inputPath, "input", "i", "", "the path to a file containing sequences to embed, one per line")
	f.StringVarP(&embedOpts.encoding, "encoding", "e", "utf-8", "the text encoding of the input file provided by (-i/--input)")
	f.StringVarP(&embedOpts.output, "output", "o", "", "the path to put the resulting .npy file (default: print the embeddings to console)")
	f.StringVarP(&embedOpts.model, "model", "m", "", "the path to a saved model bundle to use (default: use a model from the hub (-h/--hub-model))")
	f.StringVarP(&embedOpts.hubModel, "hub-model", "h", defaultHubModel, "the hub BERT model to use")
	f.IntVarP(&embedOpts.maxSeqLen, "max-sequence-length", "l", bert.DefaultMaxSeqLen, "the max sequence length the model should allow")
	f.BoolVarP(&embedOpts.tokens, "tokens", "t", false, "return per-token embeddings for the full sequences")
	f.BoolVarP(&embedOpts.pooled, "pooled", "p", false, "return pooled embeddings for the full sequences (default)")
	f.BoolVarP(&embedOpts.gpu, "gpu", "g", false, "use the gpu")
	f.BoolVarP(&embedOpts.cpu, "cpu", "c", false, "use the cpu (default)")
	f.BoolVarP(&embedOpts.verbose, "verbose", "v", false, "log verbose runtime output")
	f.BoolVarP(&embedOpts.quiet, "quiet", "q", false, "restrict runtime logging to errors (default)")

	embedCmd.MarkFlagsMutuallyExclusive("tokens", "pooled")
	embedCmd.MarkFlagsMutuallyExclusive("gpu", "cpu")
	embedCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	embedCmd.MarkFlagsMutuallyExclusive("model", "hub-model")
}

func runEmbed(cmd *cobra.Command, opts *embedOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	cfg, log, err := loadConfig(opts.verbose, opts.quiet)
	if err != nil {
		return err
	}
	defer log.Sync()

	if !cmd.Flags().Changed("hub-model") && cfg.Model.HubModel != "" {
		opts.hubModel = cfg.Model.HubModel
	}
	if !cmd.Flags().Changed("max-sequence-length") && cfg.Model.MaxSeqLen > 0 {
		opts.maxSeqLen = cfg.Model.MaxSeqLen
	}

	restore := envscope.Apply(runtimeEnv(opts.gpu, opts.verbose))
	defer restore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sequences := []string{opts.sequence}
	if opts.inputPath != "" {
		sequences, err = input.ReadSequences(opts.inputPath, opts.encoding)
		if err != nil {
			return err
		}
	}

	b, err := openModel(ctx, cfg, log, opts)
	if err != nil {
		return err
	}
	defer b.Close()

	log.Debug("Embedding sequences",
		zap.Int("count", len(sequences)),
		zap.Bool("per_token", opts.tokens),
	)

	if opts.tokens {
		return emitTokens(ctx, b, sequences, opts)
	}
	return emitPooled(ctx, b, sequences, opts)
}

// openModel loads a local bundle when -m is given, otherwise fetches
// the hub model.
func openModel(ctx context.Context, cfg *config.Config, log *logger.Logger, opts *embedOptions) (*bert.Bert, error) {
	bertOpts := bert.Options{
		MaxSeqLen: opts.maxSeqLen,
		CacheDir:  cfg.Model.CacheDir,
		Logger:    log.Logger,
	}
	if opts.model != "" {
		return bert.Load(ctx, opts.model, bertOpts)
	}
	return bert.New(ctx, opts.hubModel, bertOpts)
}

// runtimeEnv builds the scoped environment overrides for device
// selection and runtime verbosity.
func runtimeEnv(gpu, verbose bool) map[string]*string {
	vars := make(map[string]*string)
	if !gpu {
		cpuOnly := "-1"
		vars["CUDA_VISIBLE_DEVICES"] = &cpuOnly
	}
	if !verbose {
		errorsOnly := "3"
		vars["ORT_LOG_SEVERITY_LEVEL"] = &errorsOnly
	}
	return vars
}

// singleLiteral reports whether the sequences came from a literal -s
// argument. Only then does the output drop the batch dimension; a one-line
// input file still produces a batch of one.
func (o *embedOptions) singleLiteral() bool {
	return o.inputPath == ""
}

func emitPooled(ctx context.Context, b *bert.Bert, sequences []string, opts *embedOptions) error {
	if opts.singleLiteral() {
		vector, err := b.EmbedPooled(ctx, sequences[0])
		if err != nil {
			return err
		}
		if opts.output != "" {
			return npy.Save(opts.output, []int{len(vector)}, vector)
		}
		return printJSON(vector)
	}

	vectors, err := b.EmbedPooledBatch(ctx, sequences)
	if err != nil {
		return err
	}
	if opts.output != "" {
		shape, data := flatten2(vectors)
		return npy.Save(opts.output, shape, data)
	}
	return printJSON(vectors)
}

func emitTokens(ctx context.Context, b *bert.Bert, sequences []string, opts *embedOptions) error {
	if opts.singleLiteral() {
		matrix, err := b.EmbedTokens(ctx, sequences[0])
		if err != nil {
			return err
		}
		if opts.output != "" {
			shape, data := flatten2(matrix)
			return npy.Save(opts.output, shape, data)
		}
		return printJSON(matrix)
	}

	cubes, err := b.EmbedTokensBatch(ctx, sequences)
	if err != nil {
		return err
	}
	if opts.output != "" {
		shape, data := flatten3(cubes)
		return npy.Save(opts.output, shape, data)
	}
	return printJSON(cubes)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}

func flatten2(rows [][]float32) ([]int, []float32) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	data := make([]float32, 0, len(rows)*cols)
	for _, row := range rows {
		data = append(data, row...)
	}
	return []int{len(rows), cols}, data
}

func flatten3(cubes [][][]float32) ([]int, []float32) {
	rows, cols := 0, 0
	if len(cubes) > 0 {
		rows = len(cubes[0])
		if rows > 0 {
			cols = len(cubes[0][0])
		}
	}
	data := make([]float32, 0, len(cubes)*rows*cols)
	for _, matrix := range cubes {
		for _, row := range matrix {
			data = append(data, row...)
		}
	}
	return []int{len(cubes), rows, cols}, data
}

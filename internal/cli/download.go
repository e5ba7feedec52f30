package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/easybert/easybert/internal/bert"
	"github.com/easybert/easybert/internal/envscope"
	"github.com/spf13/cobra"
)

type downloadOptions struct {
	model     string
	hubModel  string
	maxSeqLen int
	overwrite bool
	safe      bool
	gpu       bool
	cpu       bool
	verbose   bool
	quiet     bool
}

var downloadOpts downloadOptions

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Downloads a hub BERT model and saves it as a local bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, &downloadOpts)
	},
}

func init() {
	f := downloadCmd.Flags()
	f.StringVarP(&downloadOpts.model, "model", "m", "", "the path to save the BERT model to")
	f.StringVarP(&downloadOpts.hubModel, "hub-model", "h", defaultHubModel, "the hub BERT model to use")
	f.IntVarP(&downloadOpts.maxSeqLen, "max-sequence-length", "l", bert.DefaultMaxSeqLen, "the max sequence length the model should allow")
	f.BoolVarP(&downloadOpts.overwrite, "overwrite", "o", false, "overwrite the model directory if something is already there")
	f.BoolVarP(&downloadOpts.safe, "safe", "s", false, "refuse to replace an existing model directory (default)")
	f.BoolVarP(&downloadOpts.gpu, "gpu", "g", false, "use the gpu")
	f.BoolVarP(&downloadOpts.cpu, "cpu", "c", false, "use the cpu (default)")
	f.BoolVarP(&downloadOpts.verbose, "verbose", "v", false, "log verbose runtime output")
	f.BoolVarP(&downloadOpts.quiet, "quiet", "q", false, "restrict runtime logging to errors (default)")

	_ = downloadCmd.MarkFlagRequired("model")
	downloadCmd.MarkFlagsMutuallyExclusive("overwrite", "safe")
	downloadCmd.MarkFlagsMutuallyExclusive("gpu", "cpu")
	downloadCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

func runDownload(cmd *cobra.Command, opts *downloadOptions) error {
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

	b, err := bert.New(ctx, opts.hubModel, bert.Options{
		MaxSeqLen: opts.maxSeqLen,
		CacheDir:  cfg.Model.CacheDir,
		Logger:    log.Logger,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	return b.Save(opts.model, opts.overwrite)
}

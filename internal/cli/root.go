// Package cli implements the bert command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/easybert/easybert/internal/config"
	"github.com/easybert/easybert/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

// defaultHubModel matches the config default so the flag help shows the
// model actually used.
const defaultHubModel = "google-bert/bert-base-multilingual-cased"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "bert",
	Short:   "Run a pretrained BERT model",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Long: `bert generates BERT embeddings for text sequences using a pretrained
model, either fetched from a model hub or loaded from a local bundle
saved with "bert download".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bert %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file")

	// Register the help flag without a shorthand on every command so -h
	// stays available for --hub-model.
	rootCmd.PersistentFlags().Bool("help", false, "show help")
	for _, cmd := range []*cobra.Command{embedCmd, downloadCmd, versionCmd} {
		cmd.Flags().Bool("help", false, "show help")
		rootCmd.AddCommand(cmd)
	}
}

// loadConfig reads the optional configuration file and builds a logger
// at the level implied by the verbosity flags.
func loadConfig(verbose, quiet bool) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	} else if quiet {
		level = "error"
	}

	log, err := logger.New(logger.Config{Level: level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

// Package hub fetches pretrained BERT model artifacts from a model hub and
// caches them locally. A source is either a full URL or a Hugging Face
// "owner/name" repository id; artifacts are resolved against the
// repository's main revision.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://huggingface.co"

	modelFileName           = "model.onnx"
	vocabFileName           = "vocab.txt"
	tokenizerConfigFileName = "tokenizer_config.json"
)

// Candidate repository paths for the ONNX graph, tried in order.
var modelPaths = []string{"onnx/model.onnx", "model.onnx"}

// Model describes the locally cached artifacts of a fetched hub model.
type Model struct {
	Source      string // the identifier the model was fetched from
	ModelPath   string // local path of the ONNX graph
	VocabPath   string // local path of vocab.txt
	DoLowerCase bool   // the model's case-folding flag
}

// Client downloads and caches hub model artifacts.
type Client struct {
	cacheDir string
	httpc    *http.Client
	logger   *zap.Logger
}

// NewClient creates a hub client caching under cacheDir. A zero cacheDir
// selects a per-user default.
func NewClient(cacheDir string, logger *zap.Logger) *Client {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cacheDir: cacheDir,
		httpc:    &http.Client{Timeout: 10 * time.Minute},
		logger:   logger,
	}
}

// DefaultCacheDir returns the per-user artifact cache directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "easybert")
}

// Fetch downloads (or reuses from cache) the full artifact set of source:
// the ONNX graph, the vocabulary and the tokenizer configuration. Network
// failures are returned immediately; there is no retry.
func (c *Client) Fetch(ctx context.Context, source string) (*Model, error) {
	model, err := c.FetchTokenizer(ctx, source)
	if err != nil {
		return nil, err
	}

	dir := c.sourceDir(source)
	modelPath := filepath.Join(dir, modelFileName)
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := c.downloadModelGraph(ctx, source, modelPath); err != nil {
			return nil, err
		}
	}
	model.ModelPath = modelPath
	return model, nil
}

// FetchTokenizer downloads (or reuses from cache) only the artifacts needed
// to rebuild the tokenizer: the vocabulary and the case-folding flag. Used
// when reloading a saved bundle, which records its source but not its
// tokenizer.
func (c *Client) FetchTokenizer(ctx context.Context, source string) (*Model, error) {
	dir := c.sourceDir(source)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	vocabPath := filepath.Join(dir, vocabFileName)
	if _, err := os.Stat(vocabPath); os.IsNotExist(err) {
		if err := c.download(ctx, ResolveURL(source, vocabFileName), vocabPath); err != nil {
			return nil, fmt.Errorf("failed to fetch vocabulary for %s: %w", source, err)
		}
	}

	configPath := filepath.Join(dir, tokenizerConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// The tokenizer config is optional; older repositories omit it.
		if err := c.download(ctx, ResolveURL(source, tokenizerConfigFileName), configPath); err != nil {
			c.logger.Debug("No tokenizer config available, inferring case flag from source",
				zap.String("source", source), zap.Error(err))
			configPath = ""
		}
	}

	return &Model{
		Source:      source,
		VocabPath:   vocabPath,
		DoLowerCase: readLowerCaseFlag(source, configPath),
	}, nil
}

func (c *Client) downloadModelGraph(ctx context.Context, source, dest string) error {
	var lastErr error
	for _, repoPath := range modelPaths {
		err := c.download(ctx, ResolveURL(source, repoPath), dest)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to fetch model graph for %s: %w", source, lastErr)
}

// download streams url to dest through a temp file so a failed transfer
// never leaves a partial artifact behind.
func (c *Client) download(ctx context.Context, url, dest string) error {
	c.logger.Info("Downloading hub artifact", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s for %s", resp.Status, url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("transfer failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	return os.Rename(tmp.Name(), dest)
}

// ResolveURL maps a source identifier and a repository-relative artifact
// path to a download URL. Sources carrying a scheme are used as the
// repository base directly.
func ResolveURL(source, artifact string) string {
	base := source
	if !strings.Contains(source, "://") {
		base = defaultBaseURL + "/" + strings.Trim(source, "/")
	}
	return strings.TrimRight(base, "/") + "/resolve/main/" + artifact
}

// sourceDir returns the cache directory for source, keyed by a
// filesystem-safe rendition of the identifier.
func (c *Client) sourceDir(source string) string {
	sanitized := strings.NewReplacer("://", "_", "/", "_", ":", "_").Replace(source)
	return filepath.Join(c.cacheDir, sanitized)
}

// readLowerCaseFlag determines the model's case-folding flag: explicit
// do_lower_case in tokenizer_config.json wins, otherwise "uncased" in the
// source identifier decides.
func readLowerCaseFlag(source, configPath string) bool {
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			var cfg struct {
				DoLowerCase *bool `json:"do_lower_case"`
			}
			if json.Unmarshal(data, &cfg) == nil && cfg.DoLowerCase != nil {
				return *cfg.DoLowerCase
			}
		}
	}
	return strings.Contains(strings.ToLower(source), "uncased")
}

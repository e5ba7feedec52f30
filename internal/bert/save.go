package bert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	bundleModelFile = "model.onnx"
	assetsDirName   = "assets"
	// Side file recording the hub identifier the bundle came from. The
	// bundle itself carries no tokenizer; reload re-derives it from this
	// source, so Load fails if the source disappears.
	sourceModelFile = "source-model.txt"
)

func bundleModelPath(path string) string {
	return filepath.Join(path, bundleModelFile)
}

func sourceFilePath(path string) string {
	return filepath.Join(path, assetsDirName, sourceModelFile)
}

// Save writes the model as a reusable bundle directory: the serialized
// graph plus an assets side file recording the originating hub source. If
// path already exists it is replaced entirely when overwrite is set;
// otherwise Save fails with ErrBundleExists and leaves it untouched.
func (b *Bert) Save(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrBundleExists, path)
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove existing path: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to inspect target path: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(path, assetsDirName), 0755); err != nil {
		return fmt.Errorf("failed to create bundle directory: %w", err)
	}
	if err := copyFile(b.modelPath, bundleModelPath(path)); err != nil {
		return fmt.Errorf("failed to write model graph: %w", err)
	}
	if err := os.WriteFile(sourceFilePath(path), []byte(b.source+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write source side file: %w", err)
	}

	b.logger.Info("Model bundle saved", zap.String("path", path), zap.String("source", b.source))
	return nil
}

// readSourceFile recovers the originating hub identifier from a bundle's
// side file.
func readSourceFile(path string) (string, error) {
	data, err := os.ReadFile(sourceFilePath(path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceMissing, err)
	}
	source, _, _ := strings.Cut(string(data), "\n")
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("%w: empty side file", ErrSourceMissing)
	}
	return source, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestResolveURL(t *testing.T) {
	t.Run("RepositoryID", func(t *testing.T) {
		got := ResolveURL("google-bert/bert-base-uncased", "vocab.txt")
		want := "https://huggingface.co/google-bert/bert-base-uncased/resolve/main/vocab.txt"
		if got != want {
			t.Errorf("ResolveURL = %q, want %q", got, want)
		}
	})

	t.Run("FullURL", func(t *testing.T) {
		got := ResolveURL("https://example.com/models/my-bert/", "onnx/model.onnx")
		want := "https://example.com/models/my-bert/resolve/main/onnx/model.onnx"
		if got != want {
			t.Errorf("ResolveURL = %q, want %q", got, want)
		}
	})
}

func TestSourceDir(t *testing.T) {
	c := NewClient("/tmp/cache", zap.NewNop())

	dir := c.sourceDir("google-bert/bert-base-uncased")
	if strings.ContainsAny(filepath.Base(dir), "/:") {
		t.Errorf("Cache key contains unsafe characters: %q", dir)
	}
	if !strings.HasPrefix(dir, "/tmp/cache") {
		t.Errorf("Cache dir %q not under cache root", dir)
	}

	other := c.sourceDir("https://example.com/models/my-bert")
	if dir == other {
		t.Error("Distinct sources mapped to the same cache dir")
	}
}

func TestReadLowerCaseFlag(t *testing.T) {
	t.Run("FromSourceName", func(t *testing.T) {
		if !readLowerCaseFlag("google-bert/bert-base-uncased", "") {
			t.Error("Uncased source should lower-case")
		}
		if readLowerCaseFlag("google-bert/bert-base-multilingual-cased", "") {
			t.Error("Cased source should not lower-case")
		}
	})

	t.Run("ConfigOverridesName", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokenizer_config.json")
		if err := os.WriteFile(path, []byte(`{"do_lower_case": true}`), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
		if !readLowerCaseFlag("some/cased-model", path) {
			t.Error("Explicit do_lower_case should win over the source name")
		}
	})

	t.Run("CorruptConfigFallsBack", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokenizer_config.json")
		if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
		if readLowerCaseFlag("some/cased-model", path) {
			t.Error("Corrupt config should fall back to the source name")
		}
	})
}

// newTestHub serves a fake model repository and counts requests.
func newTestHub(t *testing.T, requests *int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/my-bert/resolve/main/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(requests, 1)
		switch strings.TrimPrefix(r.URL.Path, "/my-bert/resolve/main/") {
		case "vocab.txt":
			_, _ = w.Write([]byte("[PAD]\n[UNK]\n[CLS]\n[SEP]\nhello\nworld\n"))
		case "tokenizer_config.json":
			_, _ = w.Write([]byte(`{"do_lower_case": true}`))
		case "onnx/model.onnx":
			_, _ = w.Write([]byte("onnx-bytes"))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetch(t *testing.T) {
	var requests int64
	server := newTestHub(t, &requests)
	source := server.URL + "/my-bert"
	client := NewClient(t.TempDir(), zap.NewNop())

	model, err := client.Fetch(context.Background(), source)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if model.Source != source {
		t.Errorf("Source = %q, want %q", model.Source, source)
	}
	if !model.DoLowerCase {
		t.Error("DoLowerCase not picked up from tokenizer config")
	}

	data, err := os.ReadFile(model.ModelPath)
	if err != nil || string(data) != "onnx-bytes" {
		t.Errorf("Model graph not downloaded correctly: %v %q", err, data)
	}
	if _, err := os.ReadFile(model.VocabPath); err != nil {
		t.Errorf("Vocabulary not downloaded: %v", err)
	}

	// A second fetch must be served from the cache.
	before := atomic.LoadInt64(&requests)
	if _, err := client.Fetch(context.Background(), source); err != nil {
		t.Fatalf("Cached fetch failed: %v", err)
	}
	if after := atomic.LoadInt64(&requests); after != before {
		t.Errorf("Cached fetch hit the network: %d extra requests", after-before)
	}
}

func TestFetchUnreachableSource(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(t.TempDir(), zap.NewNop())
	if _, err := client.Fetch(context.Background(), server.URL+"/missing"); err == nil {
		t.Error("Expected error for unreachable source")
	}
}

func TestFetchTokenizerOnly(t *testing.T) {
	var requests int64
	server := newTestHub(t, &requests)
	client := NewClient(t.TempDir(), zap.NewNop())

	model, err := client.FetchTokenizer(context.Background(), server.URL+"/my-bert")
	if err != nil {
		t.Fatalf("FetchTokenizer failed: %v", err)
	}
	if model.ModelPath != "" {
		t.Error("FetchTokenizer should not download the model graph")
	}
	if model.VocabPath == "" {
		t.Error("FetchTokenizer did not return a vocabulary path")
	}
}

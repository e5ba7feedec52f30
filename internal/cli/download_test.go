package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

// The device and verbosity toggles must be in force while download talks to
// the hub, and the prior environment must come back afterwards.
func TestDownloadScopesRuntimeEnv(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("CUDA_VISIBLE_DEVICES", "0,1")
	t.Setenv("ORT_LOG_SEVERITY_LEVEL", "0")

	var seenDevices, seenLogLevel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenDevices = os.Getenv("CUDA_VISIBLE_DEVICES")
		seenLogLevel = os.Getenv("ORT_LOG_SEVERITY_LEVEL")
		if strings.HasSuffix(r.URL.Path, "vocab.txt") {
			w.Write([]byte("[PAD]\n[UNK]\n[CLS]\n[SEP]\nhello\n"))
			return
		}
		w.Write([]byte("not a real model graph"))
	}))
	defer server.Close()

	if err := downloadCmd.Flags().Set("hub-model", server.URL); err != nil {
		t.Fatalf("failed to set hub-model flag: %v", err)
	}

	opts := downloadOptions{
		model:     t.TempDir() + "/bundle",
		hubModel:  server.URL,
		maxSeqLen: 16,
	}
	// The run fails later at graph inspection; only the hub exchange and
	// the environment scoping are under test here.
	_ = runDownload(downloadCmd, &opts)

	if seenDevices != "-1" {
		t.Errorf("CUDA_VISIBLE_DEVICES during download = %q, want %q", seenDevices, "-1")
	}
	if seenLogLevel != "3" {
		t.Errorf("ORT_LOG_SEVERITY_LEVEL during download = %q, want %q", seenLogLevel, "3")
	}
	if got := os.Getenv("CUDA_VISIBLE_DEVICES"); got != "0,1" {
		t.Errorf("CUDA_VISIBLE_DEVICES not restored, got %q", got)
	}
	if got := os.Getenv("ORT_LOG_SEVERITY_LEVEL"); got != "0" {
		t.Errorf("ORT_LOG_SEVERITY_LEVEL not restored, got %q", got)
	}
}

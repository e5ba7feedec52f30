package input

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/segmentio/parquet-go"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"data.txt":     FormatText,
		"data":         FormatText,
		"data.CSV":     FormatCSV,
		"data.json":    FormatJSON,
		"data.jsonl":   FormatJSON,
		"data.parquet": FormatParquet,
	}
	for path, want := range cases {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestReadText(t *testing.T) {
	t.Run("LinesKeptInOrder", func(t *testing.T) {
		path := writeFile(t, "in.txt", []byte("hello world\n  goodbye  \n\nlast\n"))
		got, err := ReadSequences(path, "")
		if err != nil {
			t.Fatalf("ReadSequences failed: %v", err)
		}
		// Blank lines are kept; embedding an empty sequence is legal.
		want := []string{"hello world", "goodbye", "", "last"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Sequences = %q, want %q", got, want)
		}
	})

	t.Run("Latin1Encoding", func(t *testing.T) {
		// "café" in ISO 8859-1: é is a single 0xE9 byte.
		path := writeFile(t, "in.txt", []byte{'c', 'a', 'f', 0xE9, '\n'})
		got, err := ReadSequences(path, "iso-8859-1")
		if err != nil {
			t.Fatalf("ReadSequences failed: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"café"}) {
			t.Errorf("Sequences = %q, want [café]", got)
		}
	})

	t.Run("UnknownEncoding", func(t *testing.T) {
		path := writeFile(t, "in.txt", []byte("x\n"))
		if _, err := ReadSequences(path, "not-a-charset"); err == nil {
			t.Error("Expected error for unknown encoding")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := ReadSequences(filepath.Join(t.TempDir(), "nope.txt"), ""); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}

func TestReadCSV(t *testing.T) {
	t.Run("TextColumnByHeader", func(t *testing.T) {
		path := writeFile(t, "in.csv", []byte("label,text\n0,hello world\n1,goodbye\n0,\n"))
		got, err := ReadSequences(path, "")
		if err != nil {
			t.Fatalf("ReadSequences failed: %v", err)
		}
		want := []string{"hello world", "goodbye"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Sequences = %q, want %q", got, want)
		}
	})

	t.Run("HeaderlessKeepsFirstRow", func(t *testing.T) {
		// Without a text header the first row is data, not a header.
		path := writeFile(t, "in.csv", []byte("hello\nworld\n"))
		got, err := ReadSequences(path, "")
		if err != nil {
			t.Fatalf("ReadSequences failed: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"hello", "world"}) {
			t.Errorf("Sequences = %q, want [hello world]", got)
		}
	})

	t.Run("HeaderlessMultiColumnUsesFirstColumn", func(t *testing.T) {
		path := writeFile(t, "in.csv", []byte("hello,0\nworld,1\n"))
		got, err := ReadSequences(path, "")
		if err != nil {
			t.Fatalf("ReadSequences failed: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"hello", "world"}) {
			t.Errorf("Sequences = %q, want [hello world]", got)
		}
	})

	t.Run("EmptyFile", func(t *testing.T) {
		path := writeFile(t, "in.csv", nil)
		got, err := ReadSequences(path, "")
		if err != nil {
			t.Fatalf("ReadSequences failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Sequences = %q, want none", got)
		}
	})
}

func TestReadJSON(t *testing.T) {
	path := writeFile(t, "in.jsonl", []byte(`{"text": "hello world"}`+"\n"+`{"text": "goodbye"}`+"\n"+`{"text": ""}`+"\n"))
	got, err := ReadSequences(path, "")
	if err != nil {
		t.Fatalf("ReadSequences failed: %v", err)
	}
	want := []string{"hello world", "goodbye"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sequences = %q, want %q", got, want)
	}
}

func TestReadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.parquet")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create parquet file: %v", err)
	}
	writer := parquet.NewWriter(file)
	for _, text := range []string{"hello world", "goodbye"} {
		if err := writer.Write(&record{Text: text}); err != nil {
			t.Fatalf("Failed to write parquet row: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close parquet writer: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Failed to close parquet file: %v", err)
	}

	got, err := ReadSequences(path, "")
	if err != nil {
		t.Fatalf("ReadSequences failed: %v", err)
	}
	want := []string{"hello world", "goodbye"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sequences = %q, want %q", got, want)
	}
}

// Package input reads text sequences to embed from files. Plain text files
// hold one sequence per line; CSV, JSON-lines and Parquet files carry the
// sequence in a "text" column.
package input

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/parquet-go"
	"golang.org/x/text/encoding/htmlindex"
)

// Format identifies a supported input file format.
type Format string

const (
	FormatText    Format = "text"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// record is the row shape shared by the structured formats.
type record struct {
	Text string `csv:"text" parquet:"text" json:"text"`
}

// DetectFormat determines the file format from the path extension. Unknown
// extensions are treated as plain text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".json", ".jsonl":
		return FormatJSON
	case ".parquet":
		return FormatParquet
	default:
		return FormatText
	}
}

// ReadSequences loads the sequences in path. For plain text files every
// line is kept (stripped of surrounding whitespace), matching the behavior
// of embedding a newline-separated sequence file; encoding names a text
// encoding for such files ("" means UTF-8). Structured formats ignore the
// encoding and skip rows with an empty text column.
func ReadSequences(path string, encoding string) ([]string, error) {
	switch DetectFormat(path) {
	case FormatCSV:
		return readCSV(path)
	case FormatJSON:
		return readJSON(path)
	case FormatParquet:
		return readParquet(path)
	default:
		return readText(path, encoding)
	}
}

func readText(path, encoding string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if encoding != "" && !strings.EqualFold(encoding, "utf-8") {
		enc, err := htmlindex.Get(encoding)
		if err != nil {
			return nil, fmt.Errorf("unknown input encoding %q: %w", encoding, err)
		}
		reader = enc.NewDecoder().Reader(file)
	}

	var sequences []string
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sequences = append(sequences, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return sequences, nil
}

func readCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV record: %w", err)
	}

	// The first row is a header only when it names a text column; a
	// header-less file keeps its first row as data from column 0.
	column := -1
	for i, name := range first {
		if strings.EqualFold(strings.TrimSpace(name), "text") {
			column = i
			break
		}
	}
	var sequences []string
	if column < 0 {
		column = 0
		if text := strings.TrimSpace(first[column]); text != "" {
			sequences = append(sequences, text)
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if column >= len(row) {
			continue
		}
		if text := strings.TrimSpace(row[column]); text != "" {
			sequences = append(sequences, text)
		}
	}
	return sequences, nil
}

func readJSON(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	var sequences []string
	for {
		var rec record
		err := decoder.Decode(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON record: %w", err)
		}
		if text := strings.TrimSpace(rec.Text); text != "" {
			sequences = append(sequences, text)
		}
	}
	return sequences, nil
}

func readParquet(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}
	defer file.Close()

	reader := parquet.NewReader(file)
	defer reader.Close()

	var sequences []string
	for {
		var rec record
		err := reader.Read(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read Parquet record: %w", err)
		}
		if text := strings.TrimSpace(rec.Text); text != "" {
			sequences = append(sequences, text)
		}
	}
	return sequences, nil
}

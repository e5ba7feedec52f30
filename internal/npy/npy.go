// Package npy reads and writes float32 arrays in the NumPy .npy format
// (version 1.0, little-endian, C order), so embeddings written by the CLI
// can be loaded directly with numpy.load.
package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var magic = []byte("\x93NUMPY")

// Write serializes data with the given shape. The number of elements implied
// by shape must equal len(data).
func Write(w io.Writer, shape []int, data []float32) error {
	count := 1
	for _, dim := range shape {
		if dim < 0 {
			return fmt.Errorf("invalid shape dimension %d", dim)
		}
		count *= dim
	}
	if count != len(data) {
		return fmt.Errorf("shape %v implies %d elements, have %d", shape, count, len(data))
	}

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': %s, }", shapeTuple(shape))
	// Total header size (magic + version + length field + dict + newline)
	// must be a multiple of 64.
	padded := len(magic) + 2 + 2 + len(header) + 1
	if rem := padded % 64; rem != 0 {
		header += strings.Repeat(" ", 64-rem)
	}
	header += "\n"

	if _, err := w.Write(magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	_, err := w.Write(buf)
	return err
}

// Save writes data to a .npy file at path, creating or truncating it.
func Save(path string, shape []int, data []float32) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, shape, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

var headerPattern = regexp.MustCompile(`'descr':\s*'([^']+)',\s*'fortran_order':\s*(\w+),\s*'shape':\s*\(([^)]*)\)`)

// Read parses a version 1.0 .npy stream of little-endian float32 data.
func Read(r io.Reader) (shape []int, data []float32, err error) {
	head := make([]byte, 10)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, nil, fmt.Errorf("failed to read npy preamble: %w", err)
	}
	if !bytes.Equal(head[:6], magic) {
		return nil, nil, fmt.Errorf("not an npy stream")
	}
	if head[6] != 1 {
		return nil, nil, fmt.Errorf("unsupported npy version %d.%d", head[6], head[7])
	}
	headerLen := binary.LittleEndian.Uint16(head[8:])

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, nil, fmt.Errorf("failed to read npy header: %w", err)
	}
	match := headerPattern.FindSubmatch(header)
	if match == nil {
		return nil, nil, fmt.Errorf("malformed npy header %q", header)
	}
	if string(match[1]) != "<f4" {
		return nil, nil, fmt.Errorf("unsupported dtype %s (want <f4)", match[1])
	}
	if string(match[2]) != "False" {
		return nil, nil, fmt.Errorf("fortran-order arrays are not supported")
	}

	count := 1
	for _, field := range strings.Split(string(match[3]), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dim, err := strconv.Atoi(field)
		if err != nil {
			return nil, nil, fmt.Errorf("malformed shape in npy header: %w", err)
		}
		shape = append(shape, dim)
		count *= dim
	}

	raw := make([]byte, 4*count)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, fmt.Errorf("truncated npy data: %w", err)
	}
	data = make([]float32, count)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return shape, data, nil
}

// Load reads a .npy file from path.
func Load(path string) (shape []int, data []float32, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open npy file: %w", err)
	}
	defer file.Close()
	return Read(file)
}

// shapeTuple renders shape as a python tuple literal, including the
// single-element trailing comma.
func shapeTuple(shape []int) string {
	parts := make([]string, len(shape))
	for i, dim := range shape {
		parts[i] = strconv.Itoa(dim)
	}
	if len(shape) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

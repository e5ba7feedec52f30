package npy

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteRead(t *testing.T) {
	cases := []struct {
		name  string
		shape []int
		data  []float32
	}{
		{"Vector", []int{4}, []float32{1, -2.5, 3.25, 0}},
		{"Matrix", []int{2, 3}, []float32{1, 2, 3, 4, 5, 6}},
		{"Cube", []int{2, 2, 2}, []float32{0, 1, 2, 3, 4, 5, 6, 7}},
		{"Scalar", []int{}, []float32{42}},
		{"EmptyBatch", []int{0, 3}, []float32{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tc.shape, tc.data); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			// numpy requires the full header block to be 64-byte aligned.
			header := buf.Len() - 4*len(tc.data)
			if header%64 != 0 {
				t.Errorf("Header block length %d not a multiple of 64", header)
			}

			shape, data, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if len(tc.shape) > 0 && !reflect.DeepEqual(shape, tc.shape) {
				t.Errorf("Shape = %v, want %v", shape, tc.shape)
			}
			if len(tc.data) > 0 && !reflect.DeepEqual(data, tc.data) {
				t.Errorf("Data = %v, want %v", data, tc.data)
			}
		})
	}
}

func TestWriteShapeMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []int{2, 2}, []float32{1, 2, 3}); err == nil {
		t.Error("Expected error for shape/data mismatch")
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	if _, _, err := Read(bytes.NewReader([]byte("definitely not npy data"))); err == nil {
		t.Error("Expected error for non-npy input")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.npy")
	want := []float32{0.5, 1.5, -2.5, 3.5}
	if err := Save(path, []int{2, 2}, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	shape, data, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(shape, []int{2, 2}) {
		t.Errorf("Shape = %v, want [2 2]", shape)
	}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("Data = %v, want %v", data, want)
	}
}

package writer

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

type testData struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestJSONWriter_Write(t *testing.T) {
	data := testData{Name: "java/util/List<T>", Value: 42}

	t.Run("compact output", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewJSONWriter[testData]().Write(data, &buf); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		expected := `{"name":"java/util/List<T>","value":42}` + "\n"
		if buf.String() != expected {
			t.Errorf("got %q, want %q", buf.String(), expected)
		}
	})

	t.Run("pretty output", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewPrettyJSONWriter[testData]().Write(data, &buf); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !bytes.Contains(buf.Bytes(), []byte("\n  \"name\"")) {
			t.Errorf("expected indented output, got %q", buf.String())
		}
	})

	t.Run("unsupported value", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewJSONWriter[chan int]().Write(make(chan int), &buf); err == nil {
			t.Error("expected encode error")
		}
	})
}

func TestJSONWriter_WriteToFile(t *testing.T) {
	data := testData{Name: "report", Value: 7}
	dir := t.TempDir()

	t.Run("plain", func(t *testing.T) {
		path := filepath.Join(dir, "out", "report.json")
		if err := NewJSONWriter[testData]().WriteToFile(data, path); err != nil {
			t.Fatalf("WriteToFile failed: %v", err)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		var decoded testData
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if decoded != data {
			t.Errorf("got %+v, want %+v", decoded, data)
		}
	})

	t.Run("gzip by extension", func(t *testing.T) {
		path := filepath.Join(dir, "report.json.gz")
		if err := NewJSONWriter[testData]().WriteToFile(data, path); err != nil {
			t.Fatalf("WriteToFile failed: %v", err)
		}

		file, err := os.Open(path)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer file.Close()

		gz, err := gzip.NewReader(file)
		if err != nil {
			t.Fatalf("not gzip: %v", err)
		}
		var decoded testData
		if err := json.NewDecoder(gz).Decode(&decoded); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if decoded != data {
			t.Errorf("got %+v, want %+v", decoded, data)
		}
	})
}

func TestGzipWriter_NilJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewGzipWriter[int](nil).Write(1, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected compressed output")
	}
}

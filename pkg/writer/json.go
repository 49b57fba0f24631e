// Package writer writes command reports as JSON, optionally gzipped.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// JSONWriter writes values as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write encodes data to w followed by a newline.
func (w *JSONWriter[T]) Write(data T, out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetEscapeHTML(false)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// WriteToFile writes data to path, creating parent directories. Paths
// ending in ".gz" are gzip-compressed.
func (w *JSONWriter[T]) WriteToFile(data T, path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return w.Write(data, file)
	}
	return NewGzipWriter[T](w).Write(data, file)
}

// GzipWriter writes gzip-compressed JSON.
type GzipWriter[T any] struct {
	json  *JSONWriter[T]
	level int
}

// NewGzipWriter wraps a JSON writer with default compression.
func NewGzipWriter[T any](jw *JSONWriter[T]) *GzipWriter[T] {
	if jw == nil {
		jw = NewJSONWriter[T]()
	}
	return &GzipWriter[T]{json: jw, level: gzip.DefaultCompression}
}

// Write writes data as gzipped JSON to out.
func (w *GzipWriter[T]) Write(data T, out io.Writer) error {
	gz, err := gzip.NewWriterLevel(out, w.level)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if err := w.json.Write(data, gz); err != nil {
		_ = gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}

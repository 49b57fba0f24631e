package formatter

import (
	"io"

	"github.com/classmeta/pkg/writer"
)

// JSONFormatter writes results as indented JSON.
type JSONFormatter struct {
	json *writer.JSONWriter[any]
}

// NewJSONFormatter creates a JSON formatter with pretty printing.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{json: writer.NewPrettyJSONWriter[any]()}
}

// Name returns "json".
func (f *JSONFormatter) Name() string { return "json" }

// Format writes v as JSON.
func (f *JSONFormatter) Format(w io.Writer, v any) error {
	return f.json.Write(v, w)
}

package flow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedDocument is returned when a direct edit cannot be parsed into
// a flow document.
var ErrMalformedDocument = errors.New("malformed flow document")

// Format names the text encoding of a direct edit.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseError describes why a document could not be parsed.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s document: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrMalformedDocument, e.Err} }

// ParseFormat parses data in the named format. An empty format means JSON.
func ParseFormat(format string, data []byte) (*Document, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case "", FormatJSON:
		return Parse(data)
	case FormatYAML, "yml":
		return ParseYAML(data)
	default:
		return nil, &ParseError{Format: Format(format), Err: fmt.Errorf("unsupported format")}
	}
}

// Parse decodes a JSON object into a document.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Format: FormatJSON, Err: fmt.Errorf("top level must be an object")}
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, &ParseError{Format: FormatJSON, Err: err}
	}
	return &doc, nil
}

// ParseYAML decodes a YAML mapping into a document.
func ParseYAML(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Format: FormatYAML, Err: err}
	}
	m, ok := normalizeYAML(raw).(map[string]any)
	if !ok {
		return nil, &ParseError{Format: FormatYAML, Err: fmt.Errorf("top level must be a mapping")}
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, &ParseError{Format: FormatYAML, Err: err}
	}
	var doc Document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, &ParseError{Format: FormatYAML, Err: err}
	}
	return &doc, nil
}

// EncodeYAML renders a document as YAML.
func EncodeYAML(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(buf, &generic); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

package sequence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"lockbox/internal/fileutil"
)

// Format selects the on-disk encoding of a sequence.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml" (case-insensitive). Empty means JSON.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported sequence format %q", value)
	}
}

// FormatForPath infers the format from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Marshal encodes events with two-space indentation.
func Marshal(events []Event, format Format) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(events); err != nil {
			return nil, fmt.Errorf("encode sequence yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode sequence yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode sequence json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported sequence format %q", format)
	}
}

// Write replaces the sequence file at path.
func Write(path string, format Format, events []Event) error {
	data, err := Marshal(events, format)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write sequence: %w", err)
	}
	return nil
}

// Load reads a sequence file, choosing the decoder from the extension.
func Load(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence: %w", err)
	}
	var events []Event
	switch FormatForPath(path) {
	case FormatYAML:
		err = yaml.Unmarshal(data, &events)
	default:
		err = json.Unmarshal(data, &events)
	}
	if err != nil {
		return nil, fmt.Errorf("parse sequence %s: %w", path, err)
	}
	return events, nil
}

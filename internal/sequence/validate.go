package sequence

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var (
	printer        = message.NewPrinter(language.English)
	sequenceSchema = mustCompileSchema(schemaJSON, "sequence.schema.json")
)

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse embedded %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return sch
}

// Problem is a single validation finding.
type Problem struct {
	// Location is a JSON pointer into the document, "/" for the root.
	Location string
	Message  string
}

func (p Problem) String() string {
	return p.Location + ": " + p.Message
}

// ValidateFile checks the sequence at path against the schema and the
// ordering rule. A non-nil error means the file could not be read or parsed.
func ValidateFile(path string) ([]Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence: %w", err)
	}
	return ValidateBytes(data, FormatForPath(path))
}

// ValidateBytes checks an encoded sequence.
func ValidateBytes(data []byte, format Format) ([]Problem, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse sequence yaml: %w", err)
		}
	default:
		parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse sequence json: %w", err)
		}
		doc = parsed
	}

	problems := schemaProblems(doc)
	if len(problems) > 0 {
		return problems, nil
	}
	return orderProblems(doc), nil
}

func schemaProblems(doc any) []Problem {
	err := sequenceSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Problem{{Location: "/", Message: err.Error()}}
	}
	var problems []Problem
	collectProblems(ve, &problems)
	return problems
}

func collectProblems(ve *jsonschema.ValidationError, problems *[]Problem) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*problems = append(*problems, Problem{Location: loc, Message: ve.ErrorKind.LocalizedString(printer)})
		return
	}
	for _, cause := range ve.Causes {
		collectProblems(cause, problems)
	}
}

// orderProblems runs on a schema-valid document, so every item is an object
// with an integer time.
func orderProblems(doc any) []Problem {
	items, _ := doc.([]any)
	var problems []Problem
	prev := int64(-1)
	for i, item := range items {
		obj, _ := item.(map[string]any)
		current, ok := toInt64(obj["time"])
		if !ok {
			continue
		}
		if current < prev {
			problems = append(problems, Problem{
				Location: fmt.Sprintf("/%d/time", i),
				Message:  printer.Sprintf("time %d precedes previous cue at %d", current, prev),
			})
		}
		prev = max(prev, current)
	}
	return problems
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), n == float64(int64(n))
	default:
		return 0, false
	}
}

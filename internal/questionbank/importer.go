package questionbank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// SupportedMajor is the import envelope major version this build reads.
const SupportedMajor = "v1"

// Envelope is the bulk import payload.
type Envelope struct {
	Version   string            `json:"version"`
	Questions []json.RawMessage `json:"questions"`
}

// RecordError reports why one record of an import was skipped.
type RecordError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// ImportReport summarizes a bulk import. A bad record never aborts the batch.
type ImportReport struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Errors    []RecordError `json:"errors,omitempty"`
}

// recordSchema is the structural contract for one imported question.
var recordSchema = map[string]any{
	"type":     "object",
	"required": []any{"section", "type", "difficulty", "prompt", "correct_answer"},
	"properties": map[string]any{
		"id":             map[string]any{"type": "string"},
		"section":        map[string]any{"type": "string", "enum": []any{"listening", "vocabulary", "grammar", "reading"}},
		"type":           map[string]any{"type": "string", "enum": []any{"multiple_choice", "fill_in_blank", "true_false"}},
		"difficulty":     map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
		"topic":          map[string]any{"type": "string"},
		"tags":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"prompt":         map[string]any{"type": "string", "minLength": 1},
		"passage":        map[string]any{"type": "string"},
		"audio_url":      map[string]any{"type": "string"},
		"image_url":      map[string]any{"type": "string"},
		"correct_answer": map[string]any{"type": "string", "minLength": 1},
		"explanation":    map[string]any{"type": "string"},
		"official":       map[string]any{"type": "boolean"},
		"review_status":  map[string]any{"type": "string"},
		"options": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "text"},
				"properties": map[string]any{
					"id":   map[string]any{"type": "string"},
					"text": map[string]any{"type": "string"},
				},
			},
		},
		"irt": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
				"c": map[string]any{"type": "number"},
			},
		},
	},
}

var (
	compiledOnce   sync.Once
	compiledRecord *jsonschema.Schema
	compileErr     error
)

func recordValidator() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		// The compiler wants a decoded JSON value, not Go literals.
		b, err := json.Marshal(recordSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal record schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(b, &doc); err != nil {
			compileErr = fmt.Errorf("parse record schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const url = "schema://question-record.json"
		if err := c.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledRecord, compileErr = c.Compile(url)
	})
	return compiledRecord, compileErr
}

// CheckVersion verifies that an envelope version is valid semver with a
// supported major version. A missing "v" prefix is tolerated.
func CheckVersion(v string) error {
	if v == "" {
		return fmt.Errorf("missing envelope version")
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid envelope version %q", v)
	}
	if semver.Major(v) != SupportedMajor {
		return fmt.Errorf("unsupported envelope version %s (want %s.x)", v, SupportedMajor)
	}
	return nil
}

// Import validates every record independently and saves the valid ones.
// Only an unreadable envelope returns an error; record failures are counted.
func Import(ctx context.Context, repo Repository, env Envelope, now time.Time) (*ImportReport, error) {
	if err := CheckVersion(env.Version); err != nil {
		return nil, err
	}
	validator, err := recordValidator()
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}

	report := &ImportReport{Total: len(env.Questions)}
	for i, raw := range env.Questions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		q, err := decodeRecord(validator, raw)
		if err == nil {
			Normalize(q, now)
			err = Validate(q)
		}
		if err == nil {
			err = repo.Save(ctx, q)
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, RecordError{Index: i, Message: err.Error()})
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

func decodeRecord(validator *jsonschema.Schema, raw json.RawMessage) (*Question, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ValidationError{Field: "record", Message: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if err := validator.Validate(doc); err != nil {
		return nil, &ValidationError{Field: "record", Message: err.Error()}
	}
	var q Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, &ValidationError{Field: "record", Message: err.Error()}
	}
	// Usage statistics and provenance are never taken from import files.
	q.Stats = Stats{}
	q.AI = nil
	return &q, nil
}

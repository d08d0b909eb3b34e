// Package schemas checks the shape of raw source payloads against embedded
// JSON Schemas before they are decoded into typed records.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Names of the embedded schemas.
const (
	GitHubListing     = "github_listing"
	NutritionFragment = "nutrition_fragment"
	FoodwakeTable     = "foodwake_table"
	MealDBSearch      = "mealdb_search"
)

//go:embed *.schema.json
var files embed.FS

var (
	compiledMu sync.Mutex
	compiled   = map[string]*gojsonschema.Schema{}
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s validation failed:", ve.Schema))
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %d. %s: %s;", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Name    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Name, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// DocumentError means the payload is not JSON at all.
type DocumentError struct {
	Schema string
	Cause  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: document is not valid JSON: %v", e.Schema, e.Cause)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// Validate checks doc against the embedded schema called name.
// It returns *ValidationError on a shape mismatch and *DocumentError when doc
// cannot be parsed.
func Validate(name string, doc []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &DocumentError{Schema: name, Cause: err}
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}


func load(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}

	data, err := files.ReadFile(name + ".schema.json")
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Message: "schema not embedded", Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Message: "invalid schema", Cause: err}
	}
	compiled[name] = s
	return s, nil
}

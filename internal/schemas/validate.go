// Package schemas provides JSON Schema validation of exported contact datasets.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ContactsSchema is the repository path of the dataset schema.
const ContactsSchema = "schemas/contacts.schema.json"

// maxParentLevels bounds how far ResolveSchemaPath climbs from the working directory.
const maxParentLevels = 2

// ResolveSchemaPath returns the absolute path of a repository-relative schema
// file, looking in the working directory and then in its parents so commands
// and tests run from package directories find it too. It returns "" when no
// candidate exists.
func ResolveSchemaPath(relativePath string) string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for level := 0; level <= maxParentLevels; level++ {
		candidate := filepath.Join(dir, relativePath)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one violation at a field path.
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents a schema or document that could not be loaded.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema load error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("schema load error for %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Schema is a compiled JSON Schema that can validate many documents.
type Schema struct {
	path   string
	schema *gojsonschema.Schema
}

// Load compiles the schema file at path.
func Load(path string) (*Schema, error) {
	absPath, err := existingFile(path, "schema")
	if err != nil {
		return nil, err
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + absPath))
	if err != nil {
		return nil, &SchemaLoadError{Path: absPath, Message: "failed to compile schema", Cause: err}
	}
	return &Schema{path: absPath, schema: compiled}, nil
}

// Compile builds a schema from its JSON text.
func Compile(content string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, &SchemaLoadError{Path: "(inline schema)", Message: "failed to compile schema", Cause: err}
	}
	return &Schema{path: "(inline schema)", schema: compiled}, nil
}

// ValidateFile validates the JSON document at path.
func (s *Schema) ValidateFile(path string) error {
	absPath, err := existingFile(path, "JSON")
	if err != nil {
		return err
	}
	return s.validate(gojsonschema.NewReferenceLoader("file://"+absPath), absPath)
}

// ValidateString validates a JSON document held in memory.
func (s *Schema) ValidateString(document string) error {
	return s.validate(gojsonschema.NewStringLoader(document), "(inline document)")
}

// ValidateValue validates the JSON encoding of v.
func (s *Schema) ValidateValue(v any) error {
	return s.validate(gojsonschema.NewGoLoader(v), fmt.Sprintf("(%T value)", v))
}

func (s *Schema) validate(document gojsonschema.JSONLoader, name string) error {
	result, err := s.schema.Validate(document)
	if err != nil {
		return &SchemaLoadError{Path: name, Message: "failed to load document", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
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

// ValidateJSON validates the JSON file at jsonPath against the schema file at schemaPath.
func ValidateJSON(schemaPath, jsonPath string) error {
	schema, err := Load(schemaPath)
	if err != nil {
		return err
	}
	return schema.ValidateFile(jsonPath)
}

// ValidateValue validates the JSON encoding of v against the schema file at schemaPath.
func ValidateValue(schemaPath string, v any) error {
	schema, err := Load(schemaPath)
	if err != nil {
		return err
	}
	return schema.ValidateValue(v)
}

// existingFile resolves path and checks that it exists.
func existingFile(path, kind string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s path: %w", kind, err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s file not found: %s", kind, absPath)
	}
	return absPath, nil
}

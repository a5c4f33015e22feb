package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "page_number"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"page_number": {"type": "integer", "minimum": 1}
	}
}`

// writeFiles writes name/content pairs into a temp dir and returns the dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestValidateJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"schema.json":        personSchema,
		"valid.json":         `{"name": "Jane Doe", "page_number": 1}`,
		"missing_field.json": `{"name": "Jane Doe"}`,
		"type_mismatch.json": `{"name": "Jane Doe", "page_number": "one"}`,
	})
	schemaPath := filepath.Join(dir, "schema.json")

	tests := []struct {
		name      string
		jsonFile  string
		wantError bool
	}{
		{"valid document", "valid.json", false},
		{"missing required field", "missing_field.json", true},
		{"wrong type", "type_mismatch.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(schemaPath, filepath.Join(dir, tt.jsonFile))
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateJSON_NonExistentSchema(t *testing.T) {
	dir := writeFiles(t, map[string]string{"valid.json": `{}`})

	err := ValidateJSON(filepath.Join(dir, "nonexistent_schema.json"), filepath.Join(dir, "valid.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSON_NonExistentJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{"schema.json": personSchema})

	err := ValidateJSON(filepath.Join(dir, "schema.json"), filepath.Join(dir, "nonexistent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSON_MalformedJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"schema.json":    personSchema,
		"malformed.json": "{ invalid json }",
	})

	err := ValidateJSON(filepath.Join(dir, "schema.json"), filepath.Join(dir, "malformed.json"))
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestValidateValue(t *testing.T) {
	dir := writeFiles(t, map[string]string{"schema.json": personSchema})
	schemaPath := filepath.Join(dir, "schema.json")

	type person struct {
		Name       string `json:"name"`
		PageNumber int    `json:"page_number"`
	}

	assert.NoError(t, ValidateValue(schemaPath, person{Name: "Jane Doe", PageNumber: 2}))

	err := ValidateValue(schemaPath, person{Name: "", PageNumber: 0})
	require.Error(t, err)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, 2)
}

func TestResolveSchemaPath(t *testing.T) {
	path := ResolveSchemaPath(ContactsSchema)
	require.NotEmpty(t, path)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "contacts.schema.json", filepath.Base(path))

	assert.Empty(t, ResolveSchemaPath("schemas/does_not_exist.json"))
	assert.Empty(t, ResolveSchemaPath("schemas"), "directories are not schemas")
}

func TestSchema_ReusedAcrossDocuments(t *testing.T) {
	schema, err := Compile(personSchema)
	require.NoError(t, err)

	assert.NoError(t, schema.ValidateString(`{"name": "Jane Doe", "page_number": 3}`))
	assert.NoError(t, schema.ValidateValue(map[string]any{"name": "John Roe", "page_number": 1}))

	err = schema.ValidateString(`{"page_number": 0}`)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, 2)
}

func TestSchema_NestedFieldPath(t *testing.T) {
	schema, err := Compile(`{
		"type": "object",
		"properties": {
			"contacts": {"type": "array", "items": {"type": "string"}}
		}
	}`)
	require.NoError(t, err)

	err = schema.ValidateString(`{"contacts": ["Jane Doe", 2]}`)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "contacts.1", validationErr.Errors[0].Field)
}

func TestSchema_RootFieldName(t *testing.T) {
	schema, err := Compile(`{"type": "object"}`)
	require.NoError(t, err)

	err = schema.ValidateString(`[]`)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Error(), "failed to compile schema")
}

func TestLoad_ContactsSchema(t *testing.T) {
	schema, err := Load(ResolveSchemaPath(ContactsSchema))
	require.NoError(t, err)

	err = schema.ValidateString(`{"run_id": "r1"}`)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Errors)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "page_number", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "1. name: is required")
	assert.Contains(t, errorMsg, "2. page_number: must be a number")
}

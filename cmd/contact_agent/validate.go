package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/contact-extractor/internal/observability"
	"github.com/jonathan/contact-extractor/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an exported contacts file against the dataset schema",
	Long:  "Validates a contacts JSON file written by extract or replay against schemas/contacts.schema.json.",
	RunE:  runValidate,
}

var (
	validateJSON   string
	validateSchema string
)

func init() {
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "Path to contacts JSON file (required)")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Path to JSON schema file (defaults to "+schemas.ContactsSchema+")")

	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

// validateDataset checks the file at jsonPath against schemaPath, falling
// back to the contacts schema, and prints the outcome to w.
func validateDataset(w io.Writer, jsonPath, schemaPath string) error {
	if schemaPath == "" {
		schemaPath = schemas.ResolveSchemaPath(schemas.ContactsSchema)
		if schemaPath == "" {
			return fmt.Errorf("schema file not found: %s", schemas.ContactsSchema)
		}
	}

	printer := observability.NewPrinter(w)
	err := schemas.ValidateJSON(schemaPath, jsonPath)
	if err == nil {
		printer.PrintValidationErrors(nil)
		return nil
	}

	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		printer.PrintValidationErrors(validationErr.Errors)
		return fmt.Errorf("validation failed: %d violations", len(validationErr.Errors))
	}
	return fmt.Errorf("failed to validate %s: %w", jsonPath, err)
}

func runValidate(_ *cobra.Command, _ []string) error {
	return validateDataset(os.Stdout, validateJSON, validateSchema)
}

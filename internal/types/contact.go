// Package types provides type definitions for structured data used throughout the contact extractor.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// AdditionalInfoSlots is the number of overflow fields kept per contact.
const AdditionalInfoSlots = 2

// ContactRecord is one profile entry extracted from a results page.
// Optional fields use the empty string when absent.
type ContactRecord struct {
	Name              string                      `json:"name" validate:"required"`
	JobTitle          string                      `json:"job_title"`
	Location          string                      `json:"location"`
	PastExperience    string                      `json:"past_experience"`
	MutualConnections string                      `json:"mutual_connections"`
	AdditionalInfo    [AdditionalInfoSlots]string `json:"additional_info"`
	IdentityURL       string                      `json:"identity_url" validate:"required"`
	PageNumber        int                         `json:"page_number" validate:"gte=0"`
}

// Validate checks that the record carries a name and an identity URL.
func (c *ContactRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Valid reports whether the record may be emitted.
func (c *ContactRecord) Valid() bool {
	return c.Validate() == nil
}

// RunResult is the response of one extraction run as seen by a caller of the run control surface.
type RunResult struct {
	Success  bool            `json:"success"`
	Contacts []ContactRecord `json:"contacts"`
	Error    string          `json:"error,omitempty"`
}

// RunSummary describes a completed run.
type RunSummary struct {
	RunID         string `json:"run_id"`
	TotalPages    int    `json:"total_pages"`
	TotalContacts int    `json:"total_contacts"`
}

// Dataset is the exported form of a finished run.
type Dataset struct {
	RunID         string          `json:"run_id"`
	SourceURL     string          `json:"source_url,omitempty"`
	PageLimit     int             `json:"page_limit"`
	TotalPages    int             `json:"total_pages"`
	TotalContacts int             `json:"total_contacts"`
	ExtractedAt   time.Time       `json:"extracted_at"`
	Contacts      []ContactRecord `json:"contacts"`
}

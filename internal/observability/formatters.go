// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/contact-extractor/internal/extraction"
	"github.com/jonathan/contact-extractor/internal/schemas"
	"github.com/jonathan/contact-extractor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProgress outputs one progress line of a running extraction.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(percent float64, message string) {
	fmt.Fprintf(p.out, "[%3.0f%%] %s\n", percent, message)
}

// PrintPageSummary outputs what happened to the containers of one page.
func (p *Printer) PrintPageSummary(page int, stats extraction.PageStats, totalContacts int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Containers:     %d\n", stats.Containers))
	sb.WriteString(fmt.Sprintf("New contacts:   %d\n", stats.Extracted))
	sb.WriteString(fmt.Sprintf("Duplicates:     %d\n", stats.Duplicates))
	sb.WriteString(fmt.Sprintf("Unextractable:  %d\n", stats.Unextractable))
	if stats.Overflow > 0 {
		sb.WriteString(fmt.Sprintf("Overflow lost:  %d\n", stats.Overflow))
	}
	sb.WriteString(fmt.Sprintf("Total so far:   %d", totalContacts))

	p.printBox(fmt.Sprintf("PAGE %d", page), sb.String())
}

// PrintContacts outputs the first contacts of a dataset.
func (p *Printer) PrintContacts(contacts []types.ContactRecord) {
	if len(contacts) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(contacts), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := contacts[i]
		sb.WriteString(fmt.Sprintf("• %s (page %d)\n", c.Name, c.PageNumber))
		if c.JobTitle != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", c.JobTitle))
		}
		if c.Location != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", c.Location))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(contacts) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more contacts", len(contacts)-maxItemsToShow))
	}

	p.printBox("EXTRACTED CONTACTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the totals of a finished run.
func (p *Printer) PrintRunSummary(summary types.RunSummary) {
	var sb strings.Builder
	if summary.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run:       %s\n", summary.RunID))
	}
	sb.WriteString(fmt.Sprintf("Pages:     %d\n", summary.TotalPages))
	sb.WriteString(fmt.Sprintf("Contacts:  %d", summary.TotalContacts))

	p.printBox("EXTRACTION COMPLETE", sb.String())
}

// PrintValidationErrors outputs schema violations of an exported dataset.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidationErrors(errs []schemas.FieldError) {
	if len(errs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ DATASET IS VALID")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d violations:\n\n", len(errs)))

	for i, e := range errs {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", e.Field))
		sb.WriteString(fmt.Sprintf("  %s\n", e.Message))
		if i < len(errs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SCHEMA VIOLATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jonathan/contact-extractor/internal/types"
)

// SaveRun stores a finished run and its contacts in one transaction.
func (db *DB) SaveRun(ctx context.Context, run *Run, contacts []types.ContactRecord) error {
	if run.ID == uuid.Nil {
		return fmt.Errorf("run ID is required")
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO extraction_runs
		     (id, source_url, page_limit, total_pages, total_contacts, status, error, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.SourceURL, run.PageLimit, run.TotalPages, len(contacts),
		run.Status, run.Error, run.CreatedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(contacts) > 0 {
		rows := make([][]any, len(contacts))
		for i, c := range contacts {
			rows[i] = []any{
				run.ID, c.IdentityURL, c.Name, c.JobTitle, c.Location,
				c.PastExperience, c.MutualConnections, c.AdditionalInfo[0], c.AdditionalInfo[1],
				c.PageNumber,
			}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"contacts"}, contactColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("failed to insert contacts: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.TotalContacts = len(contacts)
	db.logger.Info("saved run",
		zap.String("run_id", run.ID.String()),
		zap.String("status", run.Status),
		zap.Int("contacts", len(contacts)))
	return nil
}

// GetRun retrieves a run by ID. It returns nil when the run does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, source_url, page_limit, total_pages, total_contacts, status, error, created_at, completed_at
		 FROM extraction_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.SourceURL, &run.PageLimit, &run.TotalPages, &run.TotalContacts,
		&run.Status, &run.Error, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves the most recent runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, source_url, page_limit, total_pages, total_contacts, status, error, created_at, completed_at
		 FROM extraction_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.SourceURL, &run.PageLimit, &run.TotalPages, &run.TotalContacts,
			&run.Status, &run.Error, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListContacts returns the contacts of a run in extraction order.
func (db *DB) ListContacts(ctx context.Context, runID uuid.UUID) ([]types.ContactRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT identity_url, name, job_title, location, past_experience, mutual_connections,
		        additional_info_1, additional_info_2, page_number
		 FROM contacts WHERE run_id = $1 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []types.ContactRecord{}
	for rows.Next() {
		var c types.ContactRecord
		if err := rows.Scan(&c.IdentityURL, &c.Name, &c.JobTitle, &c.Location, &c.PastExperience,
			&c.MutualConnections, &c.AdditionalInfo[0], &c.AdditionalInfo[1], &c.PageNumber); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// DeleteRun deletes a run and its contacts (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM extraction_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/studio-funnel/internal/entity"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS lead_journal (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    operation   TEXT NOT NULL,
    form_type   TEXT,
    email       TEXT NOT NULL,
    external_id TEXT,
    action      TEXT,
    score       INTEGER NOT NULL DEFAULT 0,
    temperature TEXT,
    channels    TEXT NOT NULL,
    failed      BOOLEAN NOT NULL DEFAULT FALSE,
    payload     TEXT,
    created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lead_journal_created ON lead_journal(created_at);
`

// LeadJournal is the local trace of every submission, kept so an operator
// can replay what did not reach the record store or the inbox.
type LeadJournal struct {
	DB     *sql.DB
	Driver string
}

func NewLeadJournal(db *sql.DB, driver string) *LeadJournal {
	return &LeadJournal{DB: db, Driver: driver}
}

func (j *LeadJournal) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(journalSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := j.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("journal schema: %w", err)
		}
	}
	return nil
}

// bind rewrites $n placeholders for drivers that only take "?".
func (j *LeadJournal) bind(query string) string {
	if j.Driver == DriverPostgres {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (j *LeadJournal) Record(ctx context.Context, e *entity.JournalEntry) error {
	channels, err := json.Marshal(e.Channels)
	if err != nil {
		return err
	}
	failed := false
	for _, status := range e.Channels {
		if status != "ok" {
			failed = true
		}
	}

	query := j.bind(`
		INSERT INTO lead_journal
			(id, kind, operation, form_type, email, external_id, action, score, temperature, channels, failed, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`)
	_, err = j.DB.ExecContext(ctx, query,
		e.ID,
		string(e.Kind),
		e.Operation,
		nullString(e.FormType),
		e.Email,
		nullString(e.ExternalID),
		nullString(string(e.Action)),
		e.Score,
		nullString(string(e.Temperature)),
		string(channels),
		failed,
		string(e.Payload),
		e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. With onlyFailed set it keeps
// the entries where at least one channel did not succeed.
func (j *LeadJournal) Recent(ctx context.Context, limit int, onlyFailed bool) ([]entity.JournalEntry, error) {
	query := `
		SELECT id, kind, operation, COALESCE(form_type, ''), email, COALESCE(external_id, ''),
			COALESCE(action, ''), score, COALESCE(temperature, ''), channels, COALESCE(payload, ''), created_at
		FROM lead_journal`
	var args []any
	if onlyFailed {
		query += ` WHERE failed = $1`
		args = append(args, true)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := j.DB.QueryContext(ctx, j.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var entries []entity.JournalEntry
	for rows.Next() {
		var (
			e                            entity.JournalEntry
			kind, action, temp, channels string
			payload                      string
			created                      time.Time
		)
		if err := rows.Scan(&e.ID, &kind, &e.Operation, &e.FormType, &e.Email, &e.ExternalID,
			&action, &e.Score, &temp, &channels, &payload, &created); err != nil {
			return nil, err
		}
		e.Kind = entity.JournalKind(kind)
		e.Action = entity.Action(action)
		e.Temperature = entity.Temperature(temp)
		e.Payload = []byte(payload)
		e.CreatedAt = created
		if err := json.Unmarshal([]byte(channels), &e.Channels); err != nil {
			return nil, fmt.Errorf("journal %s channels: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of *pgxpool.Pool the repository needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const leadColumns = `id, created_at, name, phone, email, channel, service_requested, job_details, ` +
	`location, preferred_time_window, chosen_slot, estimated_revenue, status, version`

// PostgresRepository stores leads in the relational database. Lead fields
// live in the leads table and turns in lead_messages ordered by seq.
type PostgresRepository struct {
	pool PgxPool
	now  func() time.Time
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool, now: time.Now}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Postgres timestamptz keeps microseconds; match what later reads return.
	lead := newLead(req, r.now().Truncate(time.Microsecond))

	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if _, err := r.pool.Exec(ctx, query,
		lead.ID,
		lead.CreatedAt,
		lead.Name,
		lead.Phone,
		lead.Email,
		string(lead.Channel),
		lead.ServiceRequested,
		lead.JobDetails,
		lead.Location,
		lead.PreferredTimeWindow,
		lead.ChosenSlot,
		lead.EstimatedRevenue,
		string(lead.Status),
		lead.Version,
	); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return lead, nil
}

// GetByID fetches a lead and its conversation.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	lead, err := r.getRow(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs, err := r.messagesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	lead.Messages = msgs
	return lead, nil
}

// List returns all leads oldest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	byID := map[string]*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
		byID[lead.ID] = lead
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	rows.Close()

	msgRows, err := r.pool.Query(ctx, `SELECT lead_id, id, sender, body, created_at FROM lead_messages ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("leads: list messages failed: %w", err)
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var (
			leadID string
			msg    Message
			from   string
		)
		if err := msgRows.Scan(&leadID, &msg.ID, &from, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("leads: scan message failed: %w", err)
		}
		msg.From = Sender(from)
		if lead, ok := byID[leadID]; ok {
			lead.Messages = append(lead.Messages, msg)
		}
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list messages failed: %w", err)
	}
	return out, nil
}

// Update applies patch with an optimistic version check, retrying when
// another writer committed first.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (*Lead, error) {
	query := `
		UPDATE leads SET
			name = $3, phone = $4, email = $5, channel = $6, service_requested = $7,
			job_details = $8, location = $9, preferred_time_window = $10, chosen_slot = $11,
			estimated_revenue = $12, status = $13, version = version + 1
		WHERE id = $1 AND version = $2
	`
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		lead, err := r.getRow(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := lead.Version
		patch.Apply(lead)

		tag, err := r.pool.Exec(ctx, query,
			id,
			expected,
			lead.Name,
			lead.Phone,
			lead.Email,
			string(lead.Channel),
			lead.ServiceRequested,
			lead.JobDetails,
			lead.Location,
			lead.PreferredTimeWindow,
			lead.ChosenSlot,
			lead.EstimatedRevenue,
			string(lead.Status),
		)
		if err != nil {
			return nil, fmt.Errorf("leads: update failed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		lead.Version = expected + 1
		msgs, err := r.messagesFor(ctx, id)
		if err != nil {
			return nil, err
		}
		lead.Messages = msgs
		return lead, nil
	}
	return nil, ErrConflict
}

// AppendMessage bumps the lead version and inserts the turn in one
// transaction. The version bump row-locks the lead so concurrent appends
// keep a total order.
func (r *PostgresRepository) AppendMessage(ctx context.Context, id string, from Sender, body string) (*Lead, error) {
	msg := newMessage(from, body, r.now().Truncate(time.Microsecond))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("leads: begin failed: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var version int64
	if err := tx.QueryRow(ctx, `UPDATE leads SET version = version + 1 WHERE id = $1 RETURNING version`, id).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: lock lead failed: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_messages (id, lead_id, sender, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, id, string(msg.From), msg.Body, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert message failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("leads: commit failed: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) getRow(ctx context.Context, id string) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

func (r *PostgresRepository) messagesFor(ctx context.Context, id string) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender, body, created_at
		FROM lead_messages
		WHERE lead_id = $1
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("leads: select messages failed: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var (
			msg  Message
			from string
		)
		if err := rows.Scan(&msg.ID, &from, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("leads: scan message failed: %w", err)
		}
		msg.From = Sender(from)
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: select messages failed: %w", err)
	}
	return msgs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var (
		lead    Lead
		channel string
		status  string
	)
	if err := row.Scan(
		&lead.ID,
		&lead.CreatedAt,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&channel,
		&lead.ServiceRequested,
		&lead.JobDetails,
		&lead.Location,
		&lead.PreferredTimeWindow,
		&lead.ChosenSlot,
		&lead.EstimatedRevenue,
		&status,
		&lead.Version,
	); err != nil {
		return nil, err
	}
	lead.Channel = Channel(channel)
	lead.Status = Status(status)
	lead.CreatedAt = lead.CreatedAt.UTC()
	lead.Messages = []Message{}
	return &lead, nil
}

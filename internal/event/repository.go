package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository handles event data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new event repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const eventColumns = `id, title, description, date, start_time, end_time, location, category, max_participants, status, created_by, created_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*Event, error) {
	e := &Event{}
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.StartTime,
		&e.EndTime,
		&e.Location,
		&e.Category,
		&e.MaxParticipants,
		&e.Status,
		&e.CreatedBy,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new event into the database
func (r *Repository) Create(ctx context.Context, e *Event) (*Event, error) {
	query := `
		INSERT INTO events (title, description, date, start_time, end_time, location, category, max_participants, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + eventColumns

	created, err := scanEvent(r.db.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date, e.StartTime, e.EndTime,
		e.Location, e.Category, e.MaxParticipants, e.Status, e.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return created, nil
}

// GetByID retrieves an event by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return e, nil
}

// ListFilter narrows the event listing
type ListFilter struct {
	Status       *Status
	Category     *string
	ExcludeDraft bool
}

// List retrieves events matching the filter, newest date first
func (r *Repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Event, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.ExcludeDraft {
		where += ` AND status <> 'DRAFT'`
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM events` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	args = append(args, limit, offset)
	query := `SELECT ` + eventColumns + ` FROM events` + where +
		fmt.Sprintf(` ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, total, rows.Err()
}

// UpdateFields carries the typed optional fields for an event update
type UpdateFields struct {
	Title           *string
	Description     *string
	Date            *time.Time
	StartTime       *string
	EndTime         *string
	Location        *string
	Category        *string
	MaxParticipants *int
}

// Update modifies an existing event
func (r *Repository) Update(ctx context.Context, id int64, f *UpdateFields) (*Event, error) {
	query := `
		UPDATE events
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    date = COALESCE($4, date),
		    start_time = COALESCE($5, start_time),
		    end_time = COALESCE($6, end_time),
		    location = COALESCE($7, location),
		    category = COALESCE($8, category),
		    max_participants = COALESCE($9, max_participants)
		WHERE id = $1
		RETURNING ` + eventColumns

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id,
		f.Title, f.Description, f.Date, f.StartTime, f.EndTime,
		f.Location, f.Category, f.MaxParticipants,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return e, nil
}

// UpdateStatus performs a conditional status transition. Returns nil when the
// event does not exist or is not in the expected source status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (*Event, error) {
	query := `
		UPDATE events
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING ` + eventColumns

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id, from, to))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}

	return e, nil
}

// Cancel marks the event CANCELLED and voids its active registrations in one
// transaction so the capacity count never sees a cancelled event's holds.
func (r *Repository) Cancel(ctx context.Context, id int64) (*Event, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE events
		SET status = 'CANCELLED'
		WHERE id = $1 AND status IN ('DRAFT', 'PUBLISHED')
		RETURNING ` + eventColumns

	e, err := scanEvent(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to cancel event: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = 'CANCELLED'
		WHERE event_id = $1 AND status IN ('PENDING', 'APPROVED')
	`, id)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to cancel registrations: %w", err)
	}

	cancelled, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return e, cancelled, nil
}

// Delete removes an event that is still in DRAFT. Returns false when no draft
// row matched.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND status = 'DRAFT'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// CountActiveRegistrations counts PENDING and APPROVED registrations for an event
func (r *Repository) CountActiveRegistrations(ctx context.Context, eventID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status IN ('PENDING', 'APPROVED')`
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

package registration

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles registration data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new registration repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const registrationColumns = `id, event_id, user_id, contact_number, notes, status, registered_at`

func scanRegistration(row interface{ Scan(...interface{}) error }) (*Registration, error) {
	reg := &Registration{}
	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.ContactNumber,
		&reg.Notes,
		&reg.Status,
		&reg.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Create inserts a PENDING registration after re-validating the event and the
// uniqueness and capacity invariants inside a single transaction.
//
// The event row is locked with SELECT ... FOR UPDATE so two concurrent
// attempts near the capacity boundary serialize: the second transaction blocks
// until the first commits, then sees its inserted row in the active count.
func (r *Repository) Create(ctx context.Context, eventID, userID int64, contact string, notes *string) (*Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	var maxParticipants *int
	var datePassed bool
	err = tx.QueryRowContext(ctx, `
		SELECT status, max_participants, (date < CURRENT_DATE)
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, eventID).Scan(&status, &maxParticipants, &datePassed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	if status != "PUBLISHED" || datePassed {
		return nil, ErrEventNotOpen
	}

	var activeForUser int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND status IN ('PENDING', 'APPROVED')
	`, eventID, userID).Scan(&activeForUser)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate registration: %w", err)
	}
	if activeForUser > 0 {
		return nil, ErrAlreadyRegistered
	}

	if maxParticipants != nil {
		var active int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM registrations
			WHERE event_id = $1 AND status IN ('PENDING', 'APPROVED')
		`, eventID).Scan(&active)
		if err != nil {
			return nil, fmt.Errorf("failed to count active registrations: %w", err)
		}
		if active >= *maxParticipants {
			return nil, ErrEventFull
		}
	}

	reg, err := scanRegistration(tx.QueryRowContext(ctx, `
		INSERT INTO registrations (event_id, user_id, contact_number, notes, status)
		VALUES ($1, $2, $3, $4, 'PENDING')
		RETURNING `+registrationColumns,
		eventID, userID, contact, notes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reg, nil
}

// GetByID retrieves a registration by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	return reg, nil
}

// ListByEvent retrieves registrations for an event, oldest first
func (r *Repository) ListByEvent(ctx context.Context, eventID int64, status *Status, limit, offset int) ([]*Registration, int, error) {
	where := ` WHERE event_id = $1`
	args := []interface{}{eventID}

	if status != nil {
		args = append(args, *status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM registrations` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	args = append(args, limit, offset)
	query := `SELECT ` + registrationColumns + ` FROM registrations` + where +
		fmt.Sprintf(` ORDER BY registered_at ASC, id ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []*Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}

	return regs, total, rows.Err()
}

// ListByUser retrieves all registrations made by a resident, newest first
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Registration, error) {
	query := `
		SELECT r.id, r.event_id, r.user_id, r.contact_number, r.notes, r.status, r.registered_at, e.title
		FROM registrations r
		JOIN events e ON r.event_id = e.id
		WHERE r.user_id = $1
		ORDER BY r.registered_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []*Registration
	for rows.Next() {
		reg := &Registration{}
		if err := rows.Scan(
			&reg.ID,
			&reg.EventID,
			&reg.UserID,
			&reg.ContactNumber,
			&reg.Notes,
			&reg.Status,
			&reg.RegisteredAt,
			&reg.EventTitle,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

// UpdateStatus performs a conditional status transition. Returns nil when the
// registration does not exist or is not in the expected source status, so a
// concurrent transition can never be overwritten.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (*Registration, error) {
	query := `
		UPDATE registrations
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING ` + registrationColumns

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, id, from, to))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update registration status: %w", err)
	}

	return reg, nil
}

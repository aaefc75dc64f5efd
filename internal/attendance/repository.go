package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Repository handles attendance data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new attendance repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const attendanceColumns = `id, event_id, user_id, check_in_time, check_out_time, status, notes, recorded_by, created_at`

func scanRecord(row interface{ Scan(...interface{}) error }) (*AttendanceRecord, error) {
	a := &AttendanceRecord{}
	err := row.Scan(
		&a.ID,
		&a.EventID,
		&a.UserID,
		&a.CheckInTime,
		&a.CheckOutTime,
		&a.Status,
		&a.Notes,
		&a.RecordedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// HasApprovedRegistration reports whether the user holds an APPROVED
// registration for the event
func (r *Repository) HasApprovedRegistration(ctx context.Context, eventID, userID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND user_id = $2 AND status = 'APPROVED'`
	if err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return count > 0, nil
}

// GetByEventAndUser retrieves the attendance record for a registrant, if any
func (r *Repository) GetByEventAndUser(ctx context.Context, eventID, userID int64) (*AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE event_id = $1 AND user_id = $2`

	a, err := scanRecord(r.db.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return a, nil
}

// Create inserts a new attendance record. The unique index on
// (event_id, user_id) backstops the duplicate check under concurrency.
func (r *Repository) Create(ctx context.Context, a *AttendanceRecord) (*AttendanceRecord, error) {
	query := `
		INSERT INTO attendance_records (event_id, user_id, check_in_time, status, notes, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + attendanceColumns

	created, err := scanRecord(r.db.QueryRowContext(ctx, query,
		a.EventID, a.UserID, a.CheckInTime, a.Status, a.Notes, a.RecordedBy,
	))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrAlreadyMarked
		}
		return nil, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return created, nil
}

// GetByID retrieves an attendance record by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`

	a, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return a, nil
}

// ListByEvent retrieves all attendance records for an event
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]*AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE event_id = $1 ORDER BY check_in_time ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []*AttendanceRecord
	for rows.Next() {
		a, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, a)
	}

	return records, rows.Err()
}

// SetCheckOut records the check-out time on an existing record
func (r *Repository) SetCheckOut(ctx context.Context, id int64, t time.Time) (*AttendanceRecord, error) {
	query := `
		UPDATE attendance_records
		SET check_out_time = $2
		WHERE id = $1
		RETURNING ` + attendanceColumns

	a, err := scanRecord(r.db.QueryRowContext(ctx, query, id, t))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to set check-out time: %w", err)
	}

	return a, nil
}

// Update corrects the status or notes of an existing record
func (r *Repository) Update(ctx context.Context, id int64, status *Status, notes *string, recordedBy int64) (*AttendanceRecord, error) {
	query := `
		UPDATE attendance_records
		SET status = COALESCE($2, status),
		    notes = COALESCE($3, notes),
		    recorded_by = $4
		WHERE id = $1
		RETURNING ` + attendanceColumns

	a, err := scanRecord(r.db.QueryRowContext(ctx, query, id, status, notes, recordedBy))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update attendance record: %w", err)
	}

	return a, nil
}

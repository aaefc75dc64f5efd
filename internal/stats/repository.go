package stats

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// EventCounts are the raw per-event tallies the service derives rates from
type EventCounts struct {
	EventID  int64
	Title    string
	Approved int
	Present  int
	Absent   int
	Late     int
}

// Repository runs the read-only aggregate queries across the event,
// registration and attendance tables
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new stats repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CountsForEvents returns raw tallies for the given events. Events that do not
// exist are simply absent from the result; missing counts are zero.
func (r *Repository) CountsForEvents(ctx context.Context, eventIDs []int64) ([]*EventCounts, error) {
	query := `
		SELECT e.id, e.title,
		       COUNT(DISTINCT r.id) FILTER (WHERE r.status = 'APPROVED') AS approved,
		       COUNT(DISTINCT a.id) FILTER (WHERE a.status = 'PRESENT') AS present,
		       COUNT(DISTINCT a.id) FILTER (WHERE a.status = 'ABSENT') AS absent,
		       COUNT(DISTINCT a.id) FILTER (WHERE a.status = 'LATE') AS late
		FROM events e
		LEFT JOIN registrations r ON r.event_id = e.id
		LEFT JOIN attendance_records a ON a.event_id = e.id
		WHERE e.id = ANY($1)
		GROUP BY e.id, e.title
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate event counts: %w", err)
	}
	defer rows.Close()

	var counts []*EventCounts
	for rows.Next() {
		c := &EventCounts{}
		if err := rows.Scan(&c.EventID, &c.Title, &c.Approved, &c.Present, &c.Absent, &c.Late); err != nil {
			return nil, fmt.Errorf("failed to scan event counts: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

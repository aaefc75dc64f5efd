package stats

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/mbfrancisco/skportal/pkg/middleware"
)

// Common errors
var (
	ErrEventNotFound = errors.New("event not found")
	ErrStaffOnly     = errors.New("only SK officials can view cross-event statistics")
	ErrNoEvents      = errors.New("at least one event id is required")
)

// Store is the read-only aggregate surface the stats service depends on
type Store interface {
	CountsForEvents(ctx context.Context, eventIDs []int64) ([]*EventCounts, error)
}

// Service derives statistics from the registration and attendance stores. It
// holds no mutating authority; every operation is a pure read.
type Service struct {
	store Store
}

// NewService creates a new stats service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// EventStats computes the rollup for a single event
func (s *Service) EventStats(ctx context.Context, eventID int64) (*EventStats, error) {
	counts, err := s.store.CountsForEvents(ctx, []int64{eventID})
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, ErrEventNotFound
	}
	return toStats(counts[0]), nil
}

// CrossEventStats computes the rollup across a set of events, ranking them by
// attendance rate. Unknown event ids contribute nothing rather than failing,
// so the report stays safe on stale input.
func (s *Service) CrossEventStats(ctx context.Context, actor middleware.Identity, eventIDs []int64) (*CrossEventStats, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}
	if len(eventIDs) == 0 {
		return nil, ErrNoEvents
	}

	counts, err := s.store.CountsForEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	result := &CrossEventStats{TopEvents: make([]*EventStats, 0, len(counts))}
	var rateSum float64
	for _, c := range counts {
		es := toStats(c)
		result.TotalRegistrations += es.TotalRegistrations
		result.TotalAttendees += es.Present
		rateSum += es.AttendanceRate
		result.TopEvents = append(result.TopEvents, es)
	}
	if len(counts) > 0 {
		result.AverageAttendanceRate = round1(rateSum / float64(len(counts)))
	}

	// Deterministic ranking: rate desc, then attendance desc, then id asc.
	sort.Slice(result.TopEvents, func(i, j int) bool {
		a, b := result.TopEvents[i], result.TopEvents[j]
		if a.AttendanceRate != b.AttendanceRate {
			return a.AttendanceRate > b.AttendanceRate
		}
		if a.Present != b.Present {
			return a.Present > b.Present
		}
		return a.EventID < b.EventID
	})

	return result, nil
}

func toStats(c *EventCounts) *EventStats {
	es := &EventStats{
		EventID:            c.EventID,
		Title:              c.Title,
		TotalRegistrations: c.Approved,
		Present:            c.Present,
		Absent:             c.Absent,
		Late:               c.Late,
	}
	if c.Approved > 0 {
		es.AttendanceRate = round1(float64(c.Present) / float64(c.Approved) * 100)
	}
	return es
}

// round1 rounds to one decimal place
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

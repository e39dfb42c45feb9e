package services

import (
	"fmt"
	"time"
)

// Period tags accepted by the resolver. They match the values the
// surrounding system persists.
const (
	PeriodToday    = "hoy"
	PeriodWeek     = "semana"
	PeriodLastWeek = "semana_pasada"
	PeriodMonth    = "mes"
	PeriodYear     = "año"
)

// DateRange is an inclusive [start, end] interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// PeriodService maps named periods to concrete date intervals. Pure function
// of (tag, reference instant); it never consults a global clock.
type PeriodService struct{}

// NewPeriodService creates a new period service
func NewPeriodService() *PeriodService {
	return &PeriodService{}
}

// Resolve maps a period tag and a reference instant to a date range.
// Weeks start on Monday (ISO), not on the locale's first weekday.
func (s *PeriodService) Resolve(period string, ref time.Time) (DateRange, error) {
	switch period {
	case PeriodToday:
		start := startOfDay(ref)
		return DateRange{Start: start, End: endOfDay(ref)}, nil

	case PeriodWeek:
		monday := startOfWeek(ref)
		sunday := endOfDay(monday.AddDate(0, 0, 6))
		return DateRange{Start: monday, End: sunday}, nil

	case PeriodLastWeek:
		monday := startOfWeek(ref).AddDate(0, 0, -7)
		sunday := endOfDay(monday.AddDate(0, 0, 6))
		return DateRange{Start: monday, End: sunday}, nil

	case PeriodMonth:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return DateRange{Start: start, End: ref}, nil

	case PeriodYear:
		start := time.Date(ref.Year(), 1, 1, 0, 0, 0, 0, ref.Location())
		return DateRange{Start: start, End: ref}, nil
	}

	return DateRange{}, fmt.Errorf("unknown period %q", period)
}

// startOfWeek returns the most recent Monday at 00:00:00 at or before ref.
func startOfWeek(ref time.Time) time.Time {
	// time.Weekday has Sunday = 0; shift so Monday = 0.
	offset := (int(ref.Weekday()) + 6) % 7
	return startOfDay(ref.AddDate(0, 0, -offset))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

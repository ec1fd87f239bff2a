// Package models holds the cart domain types shared by the engine, the
// stores and the conflict watcher. Dates are day-precision and travel as
// ISO "2006-01-02" strings on every wire format.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date is a day-precision calendar date.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is an inclusive (start, end) pair. The cart keeps one active
// range shared by the whole cart; each item also carries its own copy.
type DateRange struct {
	Start Date `json:"start_date"`
	End   Date `json:"end_date"`
}

// Complete reports whether both endpoints are set.
func (r DateRange) Complete() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

func (r DateRange) Equal(other DateRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

// Overlaps reports whether the two inclusive ranges intersect: either
// endpoint of r falls inside other, or r fully contains other.
func (r DateRange) Overlaps(other DateRange) bool {
	startInside := !r.Start.Before(other.Start.Time) && !r.Start.After(other.End.Time)
	endInside := !r.End.Before(other.Start.Time) && !r.End.After(other.End.Time)
	contains := r.Start.Before(other.Start.Time) && r.End.After(other.End.Time)
	return startInside || endInside || contains
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}

// Package crawler holds the unified slot schema, the provider strategy
// interfaces, the shared outbound HTTP client and the concurrent fan-out
// engine that drives every provider adapter.
package crawler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
)

// DateFormat is the wire format for calendar days throughout the system.
const DateFormat = "2006-01-02"

// --------------------------------------------------------------------------
// Clock times
// --------------------------------------------------------------------------

// TimeOfDay is a wall-clock time on some calendar day, minute resolution.
// Slots are half-open [Start, End) intervals of these on a single day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseClock parses "17:30" style strings.
func ParseClock(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("clock time %q out of range", s)
	}
	return t, nil
}

// ClockFromTime extracts the wall-clock component of a time.Time, rounding
// seconds to the nearest minute the way providers with second-resolution
// timestamps expect.
func ClockFromTime(tm time.Time) TimeOfDay {
	rounded := tm.Round(time.Minute)
	return TimeOfDay{Hour: rounded.Hour(), Minute: rounded.Minute()}
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// Microseconds returns microseconds since midnight, the encoding Postgres
// TIME columns use.
func (t TimeOfDay) Microseconds() int64 { return int64(t.Minutes()) * 60 * 1_000_000 }

// ClockFromMicroseconds is the inverse of Microseconds.
func ClockFromMicroseconds(us int64) TimeOfDay {
	minutes := int(us / (60 * 1_000_000))
	return TimeOfDay{Hour: minutes / 60, Minute: minutes % 60}
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool { return t.Minutes() < other.Minutes() }

// After reports whether t is later in the day than other.
func (t TimeOfDay) After(other TimeOfDay) bool { return t.Minutes() > other.Minutes() }

// AddMinutes returns the clock time d minutes later, wrapping at midnight.
func (t TimeOfDay) AddMinutes(d int) TimeOfDay {
	total := (t.Minutes() + d) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// --------------------------------------------------------------------------
// Unified slot record
// --------------------------------------------------------------------------

// Slot is the canonical representation of one bookable time interval at one
// venue for one sport. Every provider parser maps into this shape.
type Slot struct {
	CompositeKey  string
	Category      string
	Date          time.Time // calendar day, midnight UTC
	StartingTime  TimeOfDay
	EndingTime    TimeOfDay
	Price         string // free-form, includes currency
	Spaces        int
	LastRefreshed time.Time
	BookingURL    string // optional deep-link
}

// Validate enforces the universal slot invariants.
func (s Slot) Validate() error {
	if s.CompositeKey == "" {
		return fmt.Errorf("slot missing composite key")
	}
	if !s.StartingTime.Before(s.EndingTime) {
		return fmt.Errorf("slot %s %s: ending time %s not after starting time %s",
			s.CompositeKey, s.Date.Format(DateFormat), s.EndingTime, s.StartingTime)
	}
	if s.Spaces < 0 {
		return fmt.Errorf("slot %s: negative spaces %d", s.CompositeKey, s.Spaces)
	}
	return nil
}

// --------------------------------------------------------------------------
// Request and response records (transient, in-memory)
// --------------------------------------------------------------------------

// RequestMetadata enriches a request with the context the parser needs to
// emit unified slots: the owning venue, the target date, the sport category,
// an optional pre-known price and an optional booking-URL template.
type RequestMetadata struct {
	Venue              catalogue.Venue
	Date               time.Time
	Category           string
	Price              string
	BookingURLTemplate string
}

// RequestDetail fully describes one outbound provider request.
type RequestDetail struct {
	URL      string
	Headers  map[string]string
	Payload  []byte
	Token    string
	Metadata RequestMetadata
}

// RawResponse carries a provider response body back to the parser together
// with the request that produced it.
type RawResponse struct {
	Body       []byte
	StatusCode int
	Headers    http.Header
	Request    RequestDetail
}

// IsJSON reports whether the response declared a JSON content type.
func (r *RawResponse) IsJSON() bool {
	return strings.Contains(r.Headers.Get("Content-Type"), "application/json")
}

// Package citysports crawls the CitySport (City, University of London)
// timetable API. One request returns the whole site's activity bookings for
// a date; the parser filters down to the relevant sport.
package citysports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

const (
	// OrganisationWebsite scopes the adapter to its catalogue venues.
	OrganisationWebsite = "https://citysport.org.uk"

	timetableURL = "https://bookings.citysport.org.uk/LhWeb/en/api/Sites/1/Timetables/ActivityBookings"
	bookingURL   = "https://bookings.citysport.org.uk/LhWeb/en/Public/Bookings/"
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	// Timestamps arrive as local wall-clock without zone suffix.
	timestampLayout = "2006-01-02T15:04:05"

	lookaheadDays = 7
)

// APIBooking is one timetable entry in a CitySport response.
type APIBooking struct {
	ActivityGroupDescription string  `json:"ActivityGroupDescription"`
	StartTime                string  `json:"StartTime"`
	EndTime                  string  `json:"EndTime"`
	Price                    float64 `json:"Price"`
	AvailablePlaces          int     `json:"AvailablePlaces"`
}

// Requests generates the single site-wide timetable request for a date.
type Requests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (Requests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	return []crawler.RequestDetail{{
		URL: fmt.Sprintf("%s?date=%s&pid=0", timetableURL, fetchDate.Format("2006/01/02")),
		Headers: map[string]string{
			"Referer":    "https://bookings.citysport.org.uk/LhWeb/en/Public/Bookings",
			"User-Agent": userAgent,
		},
		Metadata: crawler.RequestMetadata{
			Venue:              venue,
			Date:               fetchDate,
			Category:           "Badminton",
			BookingURLTemplate: bookingURL,
		},
	}}
}

// Parser filters the site-wide timetable to the requested sport and maps the
// surviving entries to unified slots.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse implements crawler.ResponseParser.
func (p *Parser) Parse(raw *crawler.RawResponse) ([]crawler.Slot, error) {
	var bookings []APIBooking
	if err := json.Unmarshal(raw.Body, &bookings); err != nil {
		return nil, fmt.Errorf("decode timetable response: %w", err)
	}

	metadata := raw.Request.Metadata
	var slots []crawler.Slot
	for _, booking := range bookings {
		if booking.ActivityGroupDescription != metadata.Category {
			continue
		}
		start, err := time.Parse(timestampLayout, booking.StartTime)
		if err != nil {
			p.logger.Warn("Dropping entry with bad start time",
				"url", raw.Request.URL, "value", booking.StartTime)
			continue
		}
		end, err := time.Parse(timestampLayout, booking.EndTime)
		if err != nil {
			p.logger.Warn("Dropping entry with bad end time",
				"url", raw.Request.URL, "value", booking.EndTime)
			continue
		}
		slots = append(slots, crawler.Slot{
			CompositeKey: metadata.Venue.CompositeKey,
			Category:     metadata.Category,
			Date:         crawler.DateOf(start),
			StartingTime: crawler.ClockFromTime(start),
			EndingTime:   crawler.ClockFromTime(end),
			Price:        fmt.Sprintf("£%.2f", booking.Price),
			Spaces:       booking.AvailablePlaces,
			BookingURL:   metadata.BookingURLTemplate,
		})
	}
	return slots, nil
}

// NewBadmintonAdapter assembles the CitySport badminton adapter.
func NewBadmintonAdapter(logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "citysports/badminton",
		OrganisationWebsite: OrganisationWebsite,
		Sport:               config.Badminton,
		LookaheadDays:       lookaheadDays,
		Requests:            Requests{},
		Parser:              NewParser(logger),
		Tasks:               crawler.StandardTasks{},
	}
}

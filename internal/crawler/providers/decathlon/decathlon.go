// Package decathlon crawls the Decathlon activities API for pickleball
// sessions. Activities carry zoned ISO timestamps, so parsing is a
// conversion to Europe/London wall-clock plus a price read from the first
// offer.
package decathlon

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
	OrganisationWebsite = "https://decathlon.co.uk/"

	apiBase   = "https://api-eu.decathlon.net/activities/v2/activities"
	siteBase  = "https://activities.decathlon.co.uk"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	// Decathlon publishes sessions well ahead of the leisure centres.
	lookaheadDays = 15
)

// pickleballActivityIDs maps venue slugs to the provider's activity group
// identifiers.
var pickleballActivityIDs = map[string]string{
	"decathlon-surrey-quays": "e6a12f9b-2657-4ba4-a67f-3e8b2c911fd1",
	"decathlon-canada-water": "91c3d8e4-70aa-45f2-bd19-57b6f0a4c8e2",
}

// APIActivity is one published timeslot.
type APIActivity struct {
	Identifier                 string     `json:"identifier"`
	StartDate                  time.Time  `json:"startDate"`
	EndDate                    time.Time  `json:"endDate"`
	Offers                     []APIOffer `json:"offers"`
	RemainingAttendeeCapacity  int        `json:"remainingAttendeeCapacity"`
}

// APIOffer carries the session price.
type APIOffer struct {
	Price float64 `json:"price"`
}

// Requests generates the published-timeslot listing request for a
// venue/date.
type Requests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (Requests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	activityID, ok := pickleballActivityIDs[venue.Slug]
	if !ok {
		return nil
	}
	startOfDay := time.Date(fetchDate.Year(), fetchDate.Month(), fetchDate.Day(), 0, 0, 0, 0, time.UTC)
	return []crawler.RequestDetail{{
		URL: fmt.Sprintf(
			"%s/%s/timeslots?timeslotStatus=PUBLISHED&excludeFull=false&startDate=%s&sort%%5Bby%%5D=startDate&sort%%5Border%%5D=asc&pagination%%5Bfrom%%5D=0&pagination%%5Blimit%%5D=100",
			apiBase, activityID, startOfDay.Format(time.RFC3339)),
		Headers: map[string]string{
			"accept":     "application/json",
			"referer":    siteBase + "/",
			"user-agent": userAgent,
		},
		Metadata: crawler.RequestMetadata{
			Venue:              venue,
			Date:               fetchDate,
			Category:           "Pickleball",
			BookingURLTemplate: fmt.Sprintf("%s/en-GB/sport-activities/details/%s", siteBase, activityID),
		},
	}}
}

// Parser maps published activities to unified slots. Sessions for other
// days can appear in the page; they are kept, since each carries its own
// date after conversion.
type Parser struct {
	logger *slog.Logger
	london *time.Location
}

// NewParser creates a Parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic(fmt.Sprintf("load Europe/London timezone: %v", err))
	}
	return &Parser{logger: logger, london: london}
}

// Parse implements crawler.ResponseParser.
func (p *Parser) Parse(raw *crawler.RawResponse) ([]crawler.Slot, error) {
	var activities []APIActivity
	if err := json.Unmarshal(raw.Body, &activities); err != nil {
		return nil, fmt.Errorf("decode activities response: %w", err)
	}

	metadata := raw.Request.Metadata
	slots := make([]crawler.Slot, 0, len(activities))
	for _, activity := range activities {
		if activity.StartDate.IsZero() || activity.EndDate.IsZero() {
			p.logger.Warn("Dropping activity with missing times",
				"url", raw.Request.URL, "identifier", activity.Identifier)
			continue
		}
		start := activity.StartDate.In(p.london)
		end := activity.EndDate.In(p.london)

		price := "0.0"
		if len(activity.Offers) > 0 {
			price = fmt.Sprintf("£%.2f", activity.Offers[0].Price)
		}
		slots = append(slots, crawler.Slot{
			CompositeKey: metadata.Venue.CompositeKey,
			Category:     metadata.Category,
			Date:         crawler.DateOf(start),
			StartingTime: crawler.ClockFromTime(start),
			EndingTime:   crawler.ClockFromTime(end),
			Price:        price,
			Spaces:       activity.RemainingAttendeeCapacity,
			BookingURL:   fmt.Sprintf("%s/en-GB/participants?sku=%s", siteBase, activity.Identifier),
		})
	}
	return slots, nil
}

// NewPickleballAdapter assembles the Decathlon pickleball adapter.
func NewPickleballAdapter(logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "decathlon/pickleball",
		OrganisationWebsite: OrganisationWebsite,
		Sport:               config.Pickleball,
		LookaheadDays:       lookaheadDays,
		Requests:            Requests{},
		Parser:              NewParser(logger),
		Tasks:               crawler.StandardTasks{},
	}
}

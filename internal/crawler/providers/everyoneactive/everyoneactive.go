// Package everyoneactive crawls the Everyone Active availability API. The
// provider reports each court separately as a bookable item with epoch
// timestamps; the parser converts UTC epochs to Europe/London wall-clock and
// rolls per-court availability up into one slot per interval.
package everyoneactive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

const (
	// OrganisationWebsite scopes the adapter to its catalogue venues.
	OrganisationWebsite = "https://www.everyoneactive.com/"

	availabilityURL = "https://caching.everyoneactive.com/aws/api/activity/availability"

	// Everyone Active does not return prices on this endpoint; the court fee
	// is fixed per policy and emitted explicitly here.
	fixedPrice = "£18.00"

	lookaheadDays = 8
)

// badmintonActivityIDs maps venue slugs to the provider's internal activity
// identifiers.
var badmintonActivityIDs = map[string]string{
	"queen-mother-sports-centre":               "155BADMINTON1",
	"st-augustines-sports-centre":              "156BADMINTON1",
	"reynolds-sports-centre":                   "119BADM050SH001",
	"moberly-sports-centre":                    "160BADM055SH001",
	"little-venice-sports-centre":              "158BADMINTON1",
	"jubilee-community-leisure-centre":         "282BADM060SH001",
	"church-street-community-leisure-centre":   "270BADM060SH001",
	"academy-sport":                            "262BADM060SH001",
	"vale-farm-sports-centre":                  "101BADMINTON1",
	"greenford-sports-centre":                  "118BADM050SH001",
	"harrow-leisure-centre":                    "091BADMINT001",
}

// APIResponse is the availability payload for one activity at one site.
type APIResponse struct {
	APIVer        string        `json:"apiVer"`
	SiteTimezone  string        `json:"siteTimezone"`
	Frequency     int           `json:"frequency"`
	Duration      int           `json:"duration"`
	BookableItems []APICourtDay `json:"bookableItems"`
}

// APICourtDay is one court's slot list.
type APICourtDay struct {
	CourtName string    `json:"n"`
	CourtID   string    `json:"id"`
	Slots     []APISlot `json:"slots"`
}

// APISlot is a single per-court interval. sUTC is the start instant as a
// unix epoch; s is the court count bookable at that instant (0 or 1).
type APISlot struct {
	StartUTC       int64  `json:"sUTC"`
	Price          string `json:"p"`
	Priceband      string `json:"pd"`
	RestrictedPlan bool   `json:"rp"`
	AvailableSlots int    `json:"s"`
}

// Requests generates the epoch-bounded availability request for a
// venue/date.
type Requests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (Requests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	activityID, ok := badmintonActivityIDs[venue.Slug]
	if !ok {
		return nil
	}
	fromUTC, toUTC := dayEpochBounds(fetchDate)
	return []crawler.RequestDetail{{
		URL: fmt.Sprintf("%s?toUTC=%d&activityId=%s&fromUTC=%d&locale=en_GB",
			availabilityURL, toUTC, activityID, fromUTC),
		Headers: map[string]string{
			"Host":              "caching.everyoneactive.com",
			"AuthenticationKey": "M0bi1eProB00king$",
			"Accept":            "application/json,application/json",
			"User-Agent":        "iPhone",
			"Accept-Language":   "en-GB;q=1.0",
			"Connection":        "keep-alive",
			"Content-Type":      "application/json",
		},
		Metadata: crawler.RequestMetadata{
			Venue:              venue,
			Date:               fetchDate,
			Category:           "Badminton",
			Price:              fixedPrice,
			BookingURLTemplate: fmt.Sprintf("https://www.everyoneactive.com/centre/%s/", venue.Slug),
		},
	}}
}

// dayEpochBounds returns the first and last UTC instant of a calendar day as
// unix epochs.
func dayEpochBounds(day time.Time) (int64, int64) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1).Add(-time.Second)
	return start.Unix(), end.Unix()
}

// Parser rolls per-court availability up into unified slots.
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
		// Zone database is bundled with the runtime; treat absence as fatal
		// misconfiguration.
		panic(fmt.Sprintf("load Europe/London timezone: %v", err))
	}
	return &Parser{logger: logger, london: london}
}

type intervalKey struct {
	date  string
	start crawler.TimeOfDay
	end   crawler.TimeOfDay
}

// Parse implements crawler.ResponseParser.
func (p *Parser) Parse(raw *crawler.RawResponse) ([]crawler.Slot, error) {
	var decoded APIResponse
	if err := json.Unmarshal(raw.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decode availability response: %w", err)
	}
	if decoded.Duration <= 0 {
		return nil, fmt.Errorf("availability response missing slot duration")
	}

	// Roll-up: sum court availability per (date, start, end) interval.
	aggregated := make(map[intervalKey]int)
	for _, court := range decoded.BookableItems {
		for _, slot := range court.Slots {
			start := time.Unix(slot.StartUTC, 0).In(p.london)
			end := start.Add(time.Duration(decoded.Duration) * time.Minute)
			key := intervalKey{
				date:  start.Format(crawler.DateFormat),
				start: crawler.ClockFromTime(start),
				end:   crawler.ClockFromTime(end),
			}
			aggregated[key] += slot.AvailableSlots
		}
	}

	keys := make([]intervalKey, 0, len(aggregated))
	for key := range aggregated {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].start.Before(keys[j].start)
	})

	metadata := raw.Request.Metadata
	slots := make([]crawler.Slot, 0, len(keys))
	for _, key := range keys {
		date, err := time.Parse(crawler.DateFormat, key.date)
		if err != nil {
			continue
		}
		slots = append(slots, crawler.Slot{
			CompositeKey: metadata.Venue.CompositeKey,
			Category:     metadata.Category,
			Date:         date,
			StartingTime: key.start,
			EndingTime:   key.end,
			Price:        metadata.Price,
			Spaces:       aggregated[key],
			BookingURL:   metadata.BookingURLTemplate,
		})
	}
	return slots, nil
}

// NewBadmintonAdapter assembles the Everyone Active badminton adapter.
func NewBadmintonAdapter(logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "everyoneactive/badminton",
		OrganisationWebsite: OrganisationWebsite,
		Sport:               config.Badminton,
		LookaheadDays:       lookaheadDays,
		Requests:            Requests{},
		Parser:              NewParser(logger),
		Tasks:               crawler.StandardTasks{},
	}
}

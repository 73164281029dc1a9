// Package gladstone crawls council leisure sites on the Gladstone booking
// platform (Tower Hamlets, Southwark). Both gate availability behind a
// browser-issued token; Tower Hamlets serves a per-court sessions API that
// needs roll-up aggregation.
package gladstone

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
	towerHamletsWebsite = "https://www.towerhamlets.gov.uk/"
	towerHamletsBase    = "https://towerhamletscouncil.gladstonego.cloud"

	// Session slot instants arrive as UTC with a Z suffix and second
	// resolution.
	sessionTimeLayout = "2006-01-02T15:04:05Z"

	towerHamletsLookaheadDays = 7
)

// towerHamletsActivityIDs maps venue slugs (site codes) to the badminton
// activity identifiers bookable at that site.
var towerHamletsActivityIDs = map[string][]string{
	"JOSC":  {"JACT000010", "JACT000011"},
	"WSC":   {"WACT000010", "WACT000011"},
	"PBLC":  {"PACT000010", "PACT000011"},
	"MEPLS": {"MACT000009", "MACT000010", "MACT000011"},
}

// --------------------------------------------------------------------------
// Sessions response schema
// --------------------------------------------------------------------------

// APISession is one activity's availability for one day, spread across the
// site's courts.
type APISession struct {
	ActivityGroupID          string        `json:"activityGroupId"`
	ActivityGroupDescription string        `json:"activityGroupDescription"`
	ID                       string        `json:"id"`
	Name                     string        `json:"name"`
	Date                     string        `json:"date"`
	SlotCount                int           `json:"slotCount"`
	Locations                []APILocation `json:"locations"`
}

// APILocation is one court's slot list.
type APILocation struct {
	LocationNameToDisplay string        `json:"locationNameToDisplay"`
	Slots                 []APICourtSlot `json:"slots"`
}

// APICourtSlot is a single per-court interval; status "Available" means the
// court can be booked.
type APICourtSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    string `json:"status"`
}

// --------------------------------------------------------------------------
// Request strategy
// --------------------------------------------------------------------------

// TowerHamletsRequests generates one sessions request per activity bookable
// at the venue.
type TowerHamletsRequests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (TowerHamletsRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, token string) []crawler.RequestDetail {
	activityIDs, ok := towerHamletsActivityIDs[venue.Slug]
	if !ok {
		return nil
	}
	formattedDate := fetchDate.Format(crawler.DateFormat)
	details := make([]crawler.RequestDetail, 0, len(activityIDs))
	for _, activityID := range activityIDs {
		details = append(details, crawler.RequestDetail{
			URL: fmt.Sprintf(
				"%s/api/availability/V2/sessions?siteIds=%s&activityIDs=%s&webBookableOnly=true&dateFrom=%s&locationId=",
				towerHamletsBase, venue.Slug, activityID, formattedDate),
			Headers: map[string]string{
				"Accept":     "application/json",
				"Referer":    towerHamletsBase + "/book",
				"User-Agent": userAgent,
			},
			Token: token,
			Metadata: crawler.RequestMetadata{
				Venue:    venue,
				Date:     fetchDate,
				Category: "Badminton",
				Price:    "£9.70",
				// Two verbs: activity date and the previous day, both as
				// ISO instants.
				BookingURLTemplate: fmt.Sprintf(
					"%s/book/calendar/%s?activityDate=%%s&previousActivityDate=%%s",
					towerHamletsBase, activityID),
			},
		})
	}
	return details
}

// --------------------------------------------------------------------------
// Response parser
// --------------------------------------------------------------------------

// TowerHamletsParser flattens the per-court session slots, counts available
// courts per interval and emits one unified slot per interval.
type TowerHamletsParser struct {
	logger *slog.Logger
	london *time.Location
}

// NewTowerHamletsParser creates a TowerHamletsParser.
func NewTowerHamletsParser(logger *slog.Logger) *TowerHamletsParser {
	if logger == nil {
		logger = slog.Default()
	}
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic(fmt.Sprintf("load Europe/London timezone: %v", err))
	}
	return &TowerHamletsParser{logger: logger, london: london}
}

type sessionInterval struct {
	start crawler.TimeOfDay
	end   crawler.TimeOfDay
}

// Parse implements crawler.ResponseParser.
func (p *TowerHamletsParser) Parse(raw *crawler.RawResponse) ([]crawler.Slot, error) {
	var sessions []APISession
	if err := json.Unmarshal(raw.Body, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions response: %w", err)
	}

	metadata := raw.Request.Metadata
	var slots []crawler.Slot
	for _, session := range sessions {
		sessionDate, err := time.Parse(crawler.DateFormat, session.Date)
		if err != nil {
			p.logger.Warn("Dropping session with bad date",
				"url", raw.Request.URL, "value", session.Date)
			continue
		}

		// Roll-up: count courts with an Available slot per interval.
		available := make(map[sessionInterval]int)
		for _, location := range session.Locations {
			for _, slot := range location.Slots {
				interval, err := p.localInterval(slot)
				if err != nil {
					p.logger.Warn("Dropping court slot with bad times",
						"url", raw.Request.URL, "error", err)
					continue
				}
				if slot.Status == "Available" {
					available[interval]++
				} else if _, seen := available[interval]; !seen {
					available[interval] = 0
				}
			}
		}

		intervals := make([]sessionInterval, 0, len(available))
		for interval := range available {
			intervals = append(intervals, interval)
		}
		sort.Slice(intervals, func(i, j int) bool {
			return intervals[i].start.Before(intervals[j].start)
		})

		for _, interval := range intervals {
			slots = append(slots, crawler.Slot{
				CompositeKey: metadata.Venue.CompositeKey,
				Category:     metadata.Category,
				Date:         crawler.DateOf(sessionDate),
				StartingTime: interval.start,
				EndingTime:   interval.end,
				Price:        metadata.Price,
				Spaces:       available[interval],
				BookingURL:   bookingURLFor(metadata.BookingURLTemplate, sessionDate),
			})
		}
	}
	return slots, nil
}

// localInterval converts a court slot's UTC instants to Europe/London
// wall-clock, rounding seconds to the nearest minute.
func (p *TowerHamletsParser) localInterval(slot APICourtSlot) (sessionInterval, error) {
	start, err := time.Parse(sessionTimeLayout, slot.StartTime)
	if err != nil {
		return sessionInterval{}, fmt.Errorf("parse start %q: %w", slot.StartTime, err)
	}
	end, err := time.Parse(sessionTimeLayout, slot.EndTime)
	if err != nil {
		return sessionInterval{}, fmt.Errorf("parse end %q: %w", slot.EndTime, err)
	}
	return sessionInterval{
		start: crawler.ClockFromTime(start.In(p.london)),
		end:   crawler.ClockFromTime(end.In(p.london)),
	}, nil
}

// bookingURLFor fills the calendar deep-link template with the activity date
// and its previous day.
func bookingURLFor(template string, date time.Time) string {
	const instantLayout = "2006-01-02T15:04:05.000Z"
	return fmt.Sprintf(template,
		date.Format(instantLayout),
		date.AddDate(0, 0, -1).Format(instantLayout))
}

// NewTowerHamletsAdapter assembles the Tower Hamlets badminton adapter.
func NewTowerHamletsAdapter(logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "towerhamlets/badminton",
		OrganisationWebsite: towerHamletsWebsite,
		Sport:               config.Badminton,
		LookaheadDays:       towerHamletsLookaheadDays,
		Requests:            TowerHamletsRequests{},
		Parser:              NewTowerHamletsParser(logger),
		Tasks: NewTasks(
			CookieTokenSource(towerHamletsBase+"/book", "jwt"), logger),
	}
}

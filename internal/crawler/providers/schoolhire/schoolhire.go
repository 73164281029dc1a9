// Package schoolhire crawls schoolhire.co.uk facility calendars. The
// calendar endpoint serves the Better response shape, so the Better parser
// is reused; the facility id rides in the venue slug and dates are sent in
// RFC 1123 date style ("Thu, 23 Jan 2025").
package schoolhire

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/better"
)

const (
	// OrganisationWebsite scopes the adapter to its catalogue venues.
	OrganisationWebsite = "https://schoolhire.co.uk/"

	userAgent = "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36"

	lookaheadDays = 6
)

// Requests generates the calendar request for a facility/date.
type Requests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (Requests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	// "Thu, 23 Jan 2025", query-escaped
	formattedDate := url.QueryEscape(fetchDate.Format("Mon, 02 Jan 2006"))
	return []crawler.RequestDetail{{
		URL: fmt.Sprintf("https://schoolhire.co.uk/calendar.json?facility_id=%s&date=%s",
			venue.Slug, formattedDate),
		Headers: map[string]string{
			"accept":          "application/json, text/plain, */*",
			"accept-language": "en-US,en;q=0.9",
			"cache-control":   "no-cache",
			"referer":         fmt.Sprintf("https://schoolhire.co.uk/facility/%s?date=", venue.Slug),
			"user-agent":      userAgent,
		},
		Metadata: crawler.RequestMetadata{
			Venue:    venue,
			Date:     fetchDate,
			Category: "Badminton",
			BookingURLTemplate: fmt.Sprintf("https://schoolhire.co.uk/facility/%s?date=%s",
				venue.Slug, fetchDate.Format(crawler.DateFormat)),
		},
	}}
}

// NewBadmintonAdapter assembles the schoolhire badminton adapter.
func NewBadmintonAdapter(logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "schoolhire/badminton",
		OrganisationWebsite: OrganisationWebsite,
		Sport:               config.Badminton,
		LookaheadDays:       lookaheadDays,
		Requests:            Requests{},
		Parser:              better.NewParser(logger),
		Tasks:               crawler.StandardTasks{},
	}
}

// Package flowonl crawls council leisure sites hosted on the flow.onl
// booking platform (Active Lambeth, Haringey Active Wellbeing). The platform
// serves the same response shape as Better, so the Better parser is reused;
// only the request surface differs per council.
package flowonl

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/better"
)

const (
	apiBase   = "https://flow.onl/api"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	lambethWebsite  = "https://active.lambeth.gov.uk/"
	lambethBooking  = "https://lambethcouncil.bookings.flow.onl"
	haringeyWebsite = "https://www.haringey.gov.uk/"
	haringeyBooking = "https://haringeyactivewellbeing.bookings.flow.onl"

	lookaheadDays = 6
)

// requestFor builds one flow.onl activity request. v2 selects the newer
// times endpoint some councils are migrated to.
func requestFor(venue catalogue.Venue, fetchDate time.Time, bookingSite, category, activity string, v2 bool) crawler.RequestDetail {
	formattedDate := fetchDate.Format(crawler.DateFormat)
	endpoint := fmt.Sprintf("%s/activities/venue/%s/activity/%s/times?date=%s",
		apiBase, venue.Slug, activity, formattedDate)
	if v2 {
		endpoint = fmt.Sprintf("%s/activities/venue/%s/activity/%s/v2/times?date=%s",
			apiBase, venue.Slug, activity, formattedDate)
	}
	return crawler.RequestDetail{
		URL: endpoint,
		Headers: map[string]string{
			"origin":     bookingSite,
			"referer":    fmt.Sprintf("%s/location/%s/%s/%s/by-time", bookingSite, venue.Slug, activity, formattedDate),
			"user-agent": userAgent,
		},
		Metadata: crawler.RequestMetadata{
			Venue:    venue,
			Date:     fetchDate,
			Category: category,
			BookingURLTemplate: fmt.Sprintf("%s/location/%s/%s/%s/by-time/",
				bookingSite, venue.Slug, activity, formattedDate),
		},
	}
}

// LambethSquashRequests generates Active Lambeth squash court requests.
type LambethSquashRequests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (LambethSquashRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	return []crawler.RequestDetail{
		requestFor(venue, fetchDate, lambethBooking, "Squash", "squash-court-40min", false),
	}
}

// HaringeyBadmintonRequests generates Haringey badminton requests on the v2
// endpoint.
type HaringeyBadmintonRequests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (HaringeyBadmintonRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	return []crawler.RequestDetail{
		requestFor(venue, fetchDate, haringeyBooking, "Badminton", "badminton", true),
	}
}

// NewLambethSquashAdapter assembles the Active Lambeth squash adapter.
// Lambeth shares Better's empty-data semantics, so it also gets the
// placeholder behaviour.
func NewLambethSquashAdapter(placeholders better.PlaceholderSource, logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "activelambeth/squash",
		OrganisationWebsite: lambethWebsite,
		Sport:               config.Squash,
		LookaheadDays:       lookaheadDays,
		Requests:            LambethSquashRequests{},
		Parser:              better.NewParser(logger),
		Tasks:               better.NewTasks(config.Squash, placeholders, logger),
	}
}

// NewHaringeyBadmintonAdapter assembles the Haringey badminton adapter.
func NewHaringeyBadmintonAdapter(logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "haringey/badminton",
		OrganisationWebsite: haringeyWebsite,
		Sport:               config.Badminton,
		LookaheadDays:       lookaheadDays,
		Requests:            HaringeyBadmintonRequests{},
		Parser:              better.NewParser(logger),
		Tasks:               crawler.StandardTasks{},
	}
}

package gladstone

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/everyoneactive"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	southwarkWebsite = "https://www.southwark.gov.uk/"
	southwarkBase    = "https://southwarkcouncil.gladstonego.cloud"
	southwarkAPIBase = "https://southwarkcouncil.gs-signature.cloud/AWS/api"

	// Southwark omits prices on the availability endpoint; the pickleball
	// court fee is fixed per policy and emitted explicitly here.
	southwarkPickleballPrice = "£11.85"

	// Southwark's badminton fee, also absent from the availability payload.
	southwarkBadmintonPrice = "£12.90"

	southwarkLookaheadDays = 7
)

// southwarkPickleballActivityIDs maps venue slugs to the provider's internal
// activity identifiers.
var southwarkPickleballActivityIDs = map[string]string{
	"castle-leisure-centre":        "065PICK060SH001",
	"peckham-pulse":                "067PICK060SH001",
	"dulwich-leisure-centre":       "062PICK060SH001",
	"seven-islands-leisure-centre": "068PICK060SH001",
}

// southwarkBadmintonActivityIDs maps venue slugs to badminton activity
// identifiers.
var southwarkBadmintonActivityIDs = map[string]string{
	"castle-leisure-centre":        "065BADM060SH001",
	"peckham-pulse":                "067BADM060SH001",
	"dulwich-leisure-centre":       "062BADM060SH001",
	"camberwell-leisure-centre":    "061BADM060SH001",
	"seven-islands-leisure-centre": "068BADM060SH001",
}

// southwarkAvailabilityRequest builds the epoch-bounded availability request
// shared by the Southwark sport strategies. The response reuses the Everyone
// Active payload shape, so its parser handles the roll-up.
func southwarkAvailabilityRequest(venue catalogue.Venue, fetchDate time.Time, token, activityID, category, price string) crawler.RequestDetail {
	start := time.Date(fetchDate.Year(), fetchDate.Month(), fetchDate.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1).Add(-time.Second)
	return crawler.RequestDetail{
		URL: fmt.Sprintf("%s/activity/availability?toUTC=%d&activityId=%s&fromUTC=%d&locale=en_GB",
			southwarkAPIBase, end.Unix(), activityID, start.Unix()),
		Headers: map[string]string{
			"Accept":     "application/json",
			"Referer":    southwarkBase + "/book",
			"User-Agent": userAgent,
		},
		Token: token,
		Metadata: crawler.RequestMetadata{
			Venue:    venue,
			Date:     fetchDate,
			Category: category,
			Price:    price,
			BookingURLTemplate: fmt.Sprintf("%s/book/calendar/%s?activityDate=%s",
				southwarkBase, activityID, fetchDate.Format(crawler.DateFormat)),
		},
	}
}

// SouthwarkPickleballRequests generates pickleball availability requests.
type SouthwarkPickleballRequests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (SouthwarkPickleballRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, token string) []crawler.RequestDetail {
	activityID, ok := southwarkPickleballActivityIDs[venue.Slug]
	if !ok {
		return nil
	}
	return []crawler.RequestDetail{
		southwarkAvailabilityRequest(venue, fetchDate, token, activityID, "Pickleball", southwarkPickleballPrice),
	}
}

// SouthwarkBadmintonRequests generates badminton availability requests.
type SouthwarkBadmintonRequests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (SouthwarkBadmintonRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, token string) []crawler.RequestDetail {
	activityID, ok := southwarkBadmintonActivityIDs[venue.Slug]
	if !ok {
		return nil
	}
	return []crawler.RequestDetail{
		southwarkAvailabilityRequest(venue, fetchDate, token, activityID, "Badminton", southwarkBadmintonPrice),
	}
}

func newSouthwarkTasks(logger *slog.Logger) *Tasks {
	return NewTasks(LocalStorageTokenSource(southwarkBase+"/book", "token"), logger)
}

// NewSouthwarkPickleballAdapter assembles the Southwark pickleball adapter.
func NewSouthwarkPickleballAdapter(logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "southwark/pickleball",
		OrganisationWebsite: southwarkWebsite,
		Sport:               config.Pickleball,
		LookaheadDays:       southwarkLookaheadDays,
		Requests:            SouthwarkPickleballRequests{},
		Parser:              everyoneactive.NewParser(logger),
		Tasks:               newSouthwarkTasks(logger),
	}
}

// NewSouthwarkBadmintonAdapter assembles the Southwark badminton adapter.
func NewSouthwarkBadmintonAdapter(logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "southwark/badminton",
		OrganisationWebsite: southwarkWebsite,
		Sport:               config.Badminton,
		LookaheadDays:       southwarkLookaheadDays,
		Requests:            SouthwarkBadmintonRequests{},
		Parser:              everyoneactive.NewParser(logger),
		Tasks:               newSouthwarkTasks(logger),
	}
}

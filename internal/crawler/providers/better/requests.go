package better

import (
	"fmt"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

const (
	apiBase     = "https://better-admin.org.uk/api"
	bookingSite = "https://bookings.better.org.uk"
	userAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// requestsForActivities builds one request per activity variant for a
// venue/date. Headers mimic the public booking site; Better rejects
// requests without a matching origin and referer.
func requestsForActivities(venue catalogue.Venue, fetchDate time.Time, category string, activities []string) []crawler.RequestDetail {
	formattedDate := fetchDate.Format(crawler.DateFormat)
	details := make([]crawler.RequestDetail, 0, len(activities))
	for _, activity := range activities {
		details = append(details, crawler.RequestDetail{
			URL: fmt.Sprintf("%s/activities/venue/%s/activity/%s/times?date=%s",
				apiBase, venue.Slug, activity, formattedDate),
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
		})
	}
	return details
}

// BadmintonRequests generates the 40-minute and 60-minute badminton
// variants for each venue/date.
type BadmintonRequests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (BadmintonRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	return requestsForActivities(venue, fetchDate, "Badminton",
		[]string{"badminton-40min", "badminton-60min"})
}

// SquashRequests generates the squash court variant. One venue
// (woolwich-waves-leisure-centre) is on the v2 activity endpoint.
type SquashRequests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (SquashRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	activity := "squash-court-40min"
	if venue.Slug == "woolwich-waves-leisure-centre" {
		activity += "/v2"
	}
	return requestsForActivities(venue, fetchDate, "Squash", []string{activity})
}

package decathlon

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

func rawResponse(body string) *crawler.RawResponse {
	return &crawler.RawResponse{
		Body:       []byte(body),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Request: crawler.RequestDetail{
			URL: apiBase,
			Metadata: crawler.RequestMetadata{
				Venue:    catalogue.Venue{CompositeKey: "fff66666", Slug: "decathlon-surrey-quays"},
				Date:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
				Category: "Pickleball",
			},
		},
	}
}

const activitiesBody = `[
	{"identifier": "SKU123",
	 "startDate": "2025-07-01T18:00:00+01:00",
	 "endDate": "2025-07-01T19:00:00+01:00",
	 "offers": [{"price": 12.5}],
	 "remainingAttendeeCapacity": 4},
	{"identifier": "SKU124",
	 "startDate": "2025-07-01T19:00:00+01:00",
	 "endDate": "2025-07-01T20:00:00+01:00",
	 "offers": [],
	 "remainingAttendeeCapacity": 0}
]`

func TestParseActivities(t *testing.T) {
	slots, err := NewParser(nil).Parse(rawResponse(activitiesBody))
	require.NoError(t, err)
	require.Len(t, slots, 2)

	first := slots[0]
	assert.Equal(t, "fff66666", first.CompositeKey)
	assert.Equal(t, "Pickleball", first.Category)
	assert.Equal(t, "2025-07-01", first.Date.Format(crawler.DateFormat))
	assert.Equal(t, "18:00", first.StartingTime.String())
	assert.Equal(t, "19:00", first.EndingTime.String())
	assert.Equal(t, "£12.50", first.Price)
	assert.Equal(t, 4, first.Spaces)
	assert.Contains(t, first.BookingURL, "sku=SKU123")

	assert.Equal(t, "0.0", slots[1].Price, "no offers means no price")
	assert.Equal(t, 0, slots[1].Spaces)
}

func TestParseConvertsZonedInstantsToLondon(t *testing.T) {
	// A UTC-zoned instant in summer must shift to BST wall-clock.
	body := `[
		{"identifier": "SKU125",
		 "startDate": "2025-07-01T17:00:00Z",
		 "endDate": "2025-07-01T18:00:00Z",
		 "offers": [{"price": 10}],
		 "remainingAttendeeCapacity": 2}
	]`
	slots, err := NewParser(nil).Parse(rawResponse(body))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "18:00", slots[0].StartingTime.String())
}

func TestParseDropsActivitiesWithoutTimes(t *testing.T) {
	body := `[
		{"identifier": "SKU126", "offers": [], "remainingAttendeeCapacity": 2},
		{"identifier": "SKU127",
		 "startDate": "2025-07-01T17:00:00Z", "endDate": "2025-07-01T18:00:00Z",
		 "offers": [], "remainingAttendeeCapacity": 2}
	]`
	slots, err := NewParser(nil).Parse(rawResponse(body))
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestGenerateRequestDetails(t *testing.T) {
	venue := catalogue.Venue{CompositeKey: "fff66666", Slug: "decathlon-surrey-quays"}
	details := Requests{}.GenerateRequestDetails(venue, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "")
	require.Len(t, details, 1)
	assert.Contains(t, details[0].URL, "timeslotStatus=PUBLISHED")
	assert.Contains(t, details[0].URL, "startDate=2025-07-01T00:00:00Z")

	unknown := catalogue.Venue{CompositeKey: "x", Slug: "not-a-decathlon"}
	assert.Empty(t, Requests{}.GenerateRequestDetails(unknown, time.Now(), ""))
}

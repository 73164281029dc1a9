package gladstone

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

func sessionsResponse(body string) *crawler.RawResponse {
	return &crawler.RawResponse{
		Body:       []byte(body),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Request: crawler.RequestDetail{
			URL: towerHamletsBase + "/api/availability/V2/sessions",
			Metadata: crawler.RequestMetadata{
				Venue:              catalogue.Venue{CompositeKey: "ddd44444", Slug: "JOSC"},
				Date:               time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
				Category:           "Badminton",
				Price:              "£9.70",
				BookingURLTemplate: towerHamletsBase + "/book/calendar/JACT000010?activityDate=%s&previousActivityDate=%s",
			},
		},
	}
}

// Three courts share the 18:00–19:00 UTC interval (19:00–20:00 BST); two are
// available, one is booked.
const sessionsBody = `[
	{"activityGroupId": "AG1", "activityGroupDescription": "Badminton",
	 "id": "S1", "name": "Badminton 60min", "date": "2025-05-20", "slotCount": 1,
	 "locations": [
		{"locationNameToDisplay": "Court 1", "slots": [
			{"startTime": "2025-05-20T18:00:00Z", "endTime": "2025-05-20T19:00:00Z", "status": "Available"}]},
		{"locationNameToDisplay": "Court 2", "slots": [
			{"startTime": "2025-05-20T18:00:00Z", "endTime": "2025-05-20T19:00:00Z", "status": "Available"}]},
		{"locationNameToDisplay": "Court 3", "slots": [
			{"startTime": "2025-05-20T18:00:00Z", "endTime": "2025-05-20T19:00:00Z", "status": "Booked"}]}
	]}
]`

func TestTowerHamletsParseRollsUpCourts(t *testing.T) {
	slots, err := NewTowerHamletsParser(nil).Parse(sessionsResponse(sessionsBody))
	require.NoError(t, err)
	require.Len(t, slots, 1)

	slot := slots[0]
	assert.Equal(t, 2, slot.Spaces, "two of three courts are available")
	assert.Equal(t, "19:00", slot.StartingTime.String(), "UTC instant must convert to BST")
	assert.Equal(t, "20:00", slot.EndingTime.String())
	assert.Equal(t, "2025-05-20", slot.Date.Format(crawler.DateFormat))
	assert.Equal(t, "£9.70", slot.Price)
	assert.Contains(t, slot.BookingURL, "activityDate=2025-05-20T00:00:00.000Z")
	assert.Contains(t, slot.BookingURL, "previousActivityDate=2025-05-19T00:00:00.000Z")
}

func TestTowerHamletsParseAllBooked(t *testing.T) {
	body := `[
		{"activityGroupId": "AG1", "activityGroupDescription": "Badminton",
		 "id": "S1", "name": "Badminton 60min", "date": "2025-05-20", "slotCount": 1,
		 "locations": [
			{"locationNameToDisplay": "Court 1", "slots": [
				{"startTime": "2025-05-20T18:00:00Z", "endTime": "2025-05-20T19:00:00Z", "status": "Booked"}]}
		]}
	]`
	slots, err := NewTowerHamletsParser(nil).Parse(sessionsResponse(body))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 0, slots[0].Spaces, "fully booked interval still appears, with zero spaces")
}

func TestTowerHamletsRequestsCarryToken(t *testing.T) {
	venue := catalogue.Venue{CompositeKey: "ddd44444", Slug: "JOSC"}
	details := TowerHamletsRequests{}.GenerateRequestDetails(
		venue, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), "jwt-token-value")
	require.Len(t, details, 2, "one request per activity at the site")
	for _, detail := range details {
		assert.Equal(t, "jwt-token-value", detail.Token)
		assert.Contains(t, detail.URL, "siteIds=JOSC")
		assert.Contains(t, detail.URL, "dateFrom=2025-05-20")
	}
}

func TestTowerHamletsRequestsUnknownSite(t *testing.T) {
	venue := catalogue.Venue{CompositeKey: "ddd44444", Slug: "UNKNOWN"}
	assert.Empty(t, TowerHamletsRequests{}.GenerateRequestDetails(venue, time.Now(), "tok"))
}

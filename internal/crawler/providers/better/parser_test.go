package better

import (
	"encoding/json"
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
			URL: "https://better-admin.org.uk/api/activities/venue/x/activity/badminton-60min/times?date=2025-05-20",
			Metadata: crawler.RequestMetadata{
				Venue:              catalogue.Venue{CompositeKey: "aaa11111", Slug: "x"},
				Date:               time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
				Category:           "Badminton",
				BookingURLTemplate: "https://bookings.better.org.uk/location/x/badminton-60min/2025-05-20/by-time/",
			},
		},
	}
}

const arrayBody = `{"data": [
	{"name": "Badminton 60min", "date": "2025-05-20",
	 "starts_at": {"format_24_hour": "17:30"}, "ends_at": {"format_24_hour": "18:30"},
	 "price": {"formatted_amount": "£10.00"}, "spaces": 2,
	 "venue_slug": "x", "category_slug": "badminton-60min"},
	{"name": "Badminton 60min", "date": "2025-05-20",
	 "starts_at": {"format_24_hour": "18:30"}, "ends_at": {"format_24_hour": "19:30"},
	 "price": {"formatted_amount": "£10.00"}, "spaces": 0,
	 "venue_slug": "x", "category_slug": "badminton-60min"}
]}`

const keyedBody = `{"data": {
	"17:30": {"name": "Badminton 60min", "date": "2025-05-20",
	 "starts_at": {"format_24_hour": "17:30"}, "ends_at": {"format_24_hour": "18:30"},
	 "price": {"formatted_amount": "£10.00"}, "spaces": 2,
	 "venue_slug": "x", "category_slug": "badminton-60min"}
}}`

func TestParseArrayShape(t *testing.T) {
	slots, err := NewParser(nil).Parse(rawResponse(arrayBody))
	require.NoError(t, err)
	require.Len(t, slots, 2)

	first := slots[0]
	assert.Equal(t, "aaa11111", first.CompositeKey)
	assert.Equal(t, "Badminton", first.Category)
	assert.Equal(t, "17:30", first.StartingTime.String())
	assert.Equal(t, "18:30", first.EndingTime.String())
	assert.Equal(t, "£10.00", first.Price)
	assert.Equal(t, 2, first.Spaces)
	assert.Equal(t, "https://bookings.better.org.uk/location/x/badminton-60min/2025-05-20/by-time/", first.BookingURL)

	assert.Equal(t, 0, slots[1].Spaces)
}

func TestParseKeyedObjectShape(t *testing.T) {
	slots, err := NewParser(nil).Parse(rawResponse(keyedBody))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "17:30", slots[0].StartingTime.String())
}

func TestParseDropsBlocksWithBadTimes(t *testing.T) {
	body := `{"data": [
		{"name": "A", "date": "2025-05-20",
		 "starts_at": {"format_24_hour": "oops"}, "ends_at": {"format_24_hour": "18:30"},
		 "price": {"formatted_amount": "£10.00"}, "spaces": 1},
		{"name": "B", "date": "2025-05-20",
		 "starts_at": {"format_24_hour": "18:30"}, "ends_at": {"format_24_hour": "19:30"},
		 "price": {"formatted_amount": "£10.00"}, "spaces": 1}
	]}`
	slots, err := NewParser(nil).Parse(rawResponse(body))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "18:30", slots[0].StartingTime.String())
}

func TestEnvelopeIsEmpty(t *testing.T) {
	for _, body := range []string{`{}`, `{"data": null}`, `{"data": []}`, `{"data": {}}`} {
		var envelope Envelope
		require.NoError(t, json.Unmarshal([]byte(body), &envelope))
		assert.True(t, envelope.IsEmpty(), body)
	}

	var envelope Envelope
	require.NoError(t, json.Unmarshal([]byte(arrayBody), &envelope))
	assert.False(t, envelope.IsEmpty())
}

func TestParserDeterministic(t *testing.T) {
	first, err := NewParser(nil).Parse(rawResponse(arrayBody))
	require.NoError(t, err)
	second, err := NewParser(nil).Parse(rawResponse(arrayBody))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

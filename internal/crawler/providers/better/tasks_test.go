package better

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

// stubPlaceholders returns a fixed recurring-slot template.
type stubPlaceholders struct {
	slots []crawler.Slot
}

func (s stubPlaceholders) RecurringSlots(_ context.Context, _ config.Sport, _ string, _ time.Time) ([]crawler.Slot, error) {
	return s.slots, nil
}

// serverRequests targets a test server instead of the live API.
type serverRequests struct {
	url string
}

func (s serverRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	return []crawler.RequestDetail{{
		URL: s.url,
		Metadata: crawler.RequestMetadata{
			Venue:    venue,
			Date:     fetchDate,
			Category: "Badminton",
		},
	}}
}

func TestEmptyDataBlockSynthesisesZeroSpacePlaceholders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	recurring := []crawler.Slot{{
		CompositeKey: "aaa11111",
		Category:     "Badminton",
		Date:         time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		StartingTime: crawler.TimeOfDay{Hour: 17, Minute: 30},
		EndingTime:   crawler.TimeOfDay{Hour: 18, Minute: 30},
		Price:        "£10.00",
		Spaces:       2,
		BookingURL:   "https://bookings.better.org.uk/...",
	}}

	tasksCreator := NewTasks(config.Badminton, stubPlaceholders{slots: recurring}, nil)
	venue := catalogue.Venue{CompositeKey: "aaa11111", Slug: "x"}
	date := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

	tasks := tasksCreator.CreateTasks(
		crawler.NewTestClient(server.Client(), nil), venue, date,
		serverRequests{url: server.URL}, NewParser(nil))
	require.Len(t, tasks, 1)

	slots, err := tasks[0](context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 0, slots[0].Spaces, "placeholder must be zero-spaces")
	assert.Empty(t, slots[0].BookingURL)
	assert.Equal(t, "17:30", slots[0].StartingTime.String())
}

func TestPopulatedDataBlockParsesNormally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(arrayBody))
	}))
	defer server.Close()

	tasksCreator := NewTasks(config.Badminton, stubPlaceholders{}, nil)
	venue := catalogue.Venue{CompositeKey: "aaa11111", Slug: "x"}
	date := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

	tasks := tasksCreator.CreateTasks(
		crawler.NewTestClient(server.Client(), nil), venue, date,
		serverRequests{url: server.URL}, NewParser(nil))
	require.Len(t, tasks, 1)

	slots, err := tasks[0](context.Background())
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

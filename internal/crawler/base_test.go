package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
)

type stubRequests struct {
	baseURL string
	path    string
}

func (s stubRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []RequestDetail {
	return []RequestDetail{{
		URL: s.baseURL + s.path,
		Metadata: RequestMetadata{
			Venue:    venue,
			Date:     fetchDate,
			Category: "Badminton",
		},
	}}
}

// stubParser emits one slot per JSON body element.
type stubParser struct{}

func (stubParser) Parse(raw *RawResponse) ([]Slot, error) {
	var spaces []int
	if err := json.Unmarshal(raw.Body, &spaces); err != nil {
		return nil, err
	}
	metadata := raw.Request.Metadata
	var slots []Slot
	for _, s := range spaces {
		slots = append(slots, Slot{
			CompositeKey: metadata.Venue.CompositeKey,
			Category:     metadata.Category,
			Date:         metadata.Date,
			StartingTime: TimeOfDay{Hour: 17, Minute: 0},
			EndingTime:   TimeOfDay{Hour: 18, Minute: 0},
			Spaces:       s,
		})
	}
	return slots, nil
}

func testVenue(key string) catalogue.Venue {
	return catalogue.Venue{
		CompositeKey:        key,
		OrganisationWebsite: "https://acme.example",
		Slug:                "court-house",
		Sports:              []string{"badminton"},
	}
}

func testAdapter(baseURL, path string) Adapter {
	return Adapter{
		Name:                "stub/badminton",
		OrganisationWebsite: "https://acme.example",
		Sport:               config.Badminton,
		LookaheadDays:       6,
		Requests:            stubRequests{baseURL: baseURL, path: path},
		Parser:              stubParser{},
		Tasks:               StandardTasks{},
	}
}

func TestCrawlFlattensAcrossVenuesAndDates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[2, 1]`))
	}))
	defer server.Close()

	engine := NewCrawler(NewTestClient(server.Client(), nil), nil)
	venues := []catalogue.Venue{testVenue("aaa11111"), testVenue("bbb22222")}
	dates := DateRange(Today(), 2)

	slots := engine.Crawl(context.Background(), testAdapter(server.URL, "/"), venues, dates)
	// 2 venues x 2 dates x 2 slots per response
	assert.Len(t, slots, 8)
}

// multiRequests issues one request per path, so one batch can mix healthy
// and failing endpoints.
type multiRequests struct {
	baseURL string
	paths   []string
}

func (m multiRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []RequestDetail {
	var details []RequestDetail
	for _, path := range m.paths {
		details = append(details, RequestDetail{
			URL:      m.baseURL + path,
			Metadata: RequestMetadata{Venue: venue, Date: fetchDate, Category: "Badminton"},
		})
	}
	return details
}

func TestCrawlDropsFailingTaskNotBatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[3]`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	adapter := testAdapter(server.URL, "/ok")
	adapter.Requests = multiRequests{baseURL: server.URL, paths: []string{"/ok", "/broken"}}

	engine := NewCrawler(NewTestClient(server.Client(), nil), nil)
	slots := engine.Crawl(context.Background(), adapter,
		[]catalogue.Venue{testVenue("aaa11111")}, DateRange(Today(), 1))

	require.Len(t, slots, 1)
	assert.Equal(t, 3, slots[0].Spaces)
}

func TestCrawlRejectsNonJSONContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	engine := NewCrawler(NewTestClient(server.Client(), nil), nil)
	slots := engine.Crawl(context.Background(),
		testAdapter(server.URL, "/"), []catalogue.Venue{testVenue("aaa11111")}, DateRange(Today(), 1))
	assert.Empty(t, slots)
}

func TestCrawlDropsInvalidSlots(t *testing.T) {
	// spaces = -1 fails slot validation
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[-1, 4]`))
	}))
	defer server.Close()

	engine := NewCrawler(NewTestClient(server.Client(), nil), nil)
	slots := engine.Crawl(context.Background(),
		testAdapter(server.URL, "/"), []catalogue.Venue{testVenue("aaa11111")}, DateRange(Today(), 1))
	require.Len(t, slots, 1)
	assert.Equal(t, 4, slots[0].Spaces)
}

func TestCrawlFiltersDatesOutsideLookahead(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[1]`))
	}))
	defer server.Close()

	engine := NewCrawler(NewTestClient(server.Client(), nil), nil)
	adapter := testAdapter(server.URL, "/")
	adapter.LookaheadDays = 2

	dates := DateRange(Today(), 10)
	slots := engine.Crawl(context.Background(), adapter, []catalogue.Venue{testVenue("aaa11111")}, dates)
	assert.Len(t, slots, 2)
	assert.Equal(t, 2, requests)
}

type failingPreparerTasks struct{ StandardTasks }

func (failingPreparerTasks) Prepare(context.Context) error {
	return errors.New("login page unreachable")
}

func TestCrawlSkipsAdapterWhenPreparationFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued when preparation fails")
	}))
	defer server.Close()

	adapter := testAdapter(server.URL, "/")
	adapter.Tasks = failingPreparerTasks{}

	engine := NewCrawler(NewTestClient(server.Client(), nil), nil)
	slots := engine.Crawl(context.Background(), adapter, []catalogue.Venue{testVenue("aaa11111")}, DateRange(Today(), 1))
	assert.Empty(t, slots)
}

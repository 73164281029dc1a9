package gladstone

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

// passthroughParser returns one slot regardless of body, so task behaviour
// can be observed without provider payloads.
type passthroughParser struct{}

func (passthroughParser) Parse(raw *crawler.RawResponse) ([]crawler.Slot, error) {
	metadata := raw.Request.Metadata
	return []crawler.Slot{{
		CompositeKey: metadata.Venue.CompositeKey,
		Category:     metadata.Category,
		Date:         metadata.Date,
		StartingTime: crawler.TimeOfDay{Hour: 19},
		EndingTime:   crawler.TimeOfDay{Hour: 20},
		Spaces:       1,
	}}, nil
}

type serverRequests struct{ url string }

func (s serverRequests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, token string) []crawler.RequestDetail {
	return []crawler.RequestDetail{{
		URL:   s.url,
		Token: token,
		Metadata: crawler.RequestMetadata{
			Venue: venue, Date: fetchDate, Category: "Badminton",
		},
	}}
}

func fixedDate() time.Time { return time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC) }

func TestStaleTokenIsRefreshedOnceAndRetried(t *testing.T) {
	var issued atomic.Int32
	source := TokenSource(func(ctx context.Context) (string, error) {
		return "token-" + string(rune('a'+issued.Add(1)-1)), nil
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "token-a" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	tasksCreator := NewTasks(source, nil)
	require.NoError(t, tasksCreator.Prepare(context.Background()))

	tasks := tasksCreator.CreateTasks(
		crawler.NewTestClient(server.Client(), nil),
		catalogue.Venue{CompositeKey: "ddd44444", Slug: "JOSC"}, fixedDate(),
		serverRequests{url: server.URL}, passthroughParser{})
	require.Len(t, tasks, 1)

	slots, err := tasks[0](context.Background())
	require.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.Equal(t, int32(2), issued.Load(), "exactly one refresh after the 401")
}

func TestRefreshBudgetExhaustedDropsTask(t *testing.T) {
	source := TokenSource(func(ctx context.Context) (string, error) {
		return "always-stale", nil
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tasksCreator := NewTasks(source, nil)
	require.NoError(t, tasksCreator.Prepare(context.Background()))

	tasks := tasksCreator.CreateTasks(
		crawler.NewTestClient(server.Client(), nil),
		catalogue.Venue{CompositeKey: "ddd44444", Slug: "JOSC"}, fixedDate(),
		serverRequests{url: server.URL}, passthroughParser{})

	_, err := tasks[0](context.Background())
	require.Error(t, err)

	var statusErr *crawler.StatusError
	assert.True(t, errors.As(err, &statusErr))
}

func TestPrepareFailureSurfaces(t *testing.T) {
	source := TokenSource(func(ctx context.Context) (string, error) {
		return "", errors.New("login page unreachable")
	})
	err := NewTasks(source, nil).Prepare(context.Background())
	assert.Error(t, err)
}

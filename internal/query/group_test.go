package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportscanner/app-crawlers/internal/crawler"
)

func slot(key string, day int, start, end string, spaces int, price string) crawler.Slot {
	startClock, _ := crawler.ParseClock(start)
	endClock, _ := crawler.ParseClock(end)
	return crawler.Slot{
		CompositeKey: key,
		Category:     "Badminton",
		Date:         time.Date(2025, 5, day, 0, 0, 0, 0, time.UTC),
		StartingTime: startClock,
		EndingTime:   endClock,
		Price:        price,
		Spaces:       spaces,
	}
}

func TestBuildGroupsAnchorsOnEarliestBookableSlot(t *testing.T) {
	groups := buildGroups([]crawler.Slot{
		slot("aaa11111", 20, "19:00", "20:00", 1, "£10.00"),
		slot("aaa11111", 20, "17:30", "18:30", 0, "£10.00"),
		slot("aaa11111", 20, "18:30", "19:30", 2, "£10.00"),
	})
	require.Len(t, groups, 1)

	group := groups[0]
	assert.Equal(t, "18:30", group.anchor.StartingTime.String(),
		"anchor is the earliest slot with spaces, not the earliest slot")
	require.Len(t, group.availability, 2, "availability runs from the anchor onward")
	assert.Equal(t, "18:30", group.availability[0].StartingTime)
	assert.True(t, group.availability[0].Available)
	assert.Equal(t, "19:00", group.availability[1].StartingTime)
}

func TestBuildGroupsSkipsFullyBookedGroups(t *testing.T) {
	groups := buildGroups([]crawler.Slot{
		slot("aaa11111", 20, "17:30", "18:30", 0, "£10.00"),
		slot("aaa11111", 20, "18:30", "19:30", 0, "£10.00"),
	})
	assert.Empty(t, groups)
}

func TestBuildGroupsSeparatesVenuesAndDates(t *testing.T) {
	groups := buildGroups([]crawler.Slot{
		slot("aaa11111", 20, "17:30", "18:30", 1, "£10.00"),
		slot("aaa11111", 21, "17:30", "18:30", 1, "£10.00"),
		slot("bbb22222", 20, "17:30", "18:30", 1, "£8.00"),
	})
	require.Len(t, groups, 3)
	// Sorted by date first.
	assert.Equal(t, "2025-05-20", groups[0].date)
	assert.Equal(t, "2025-05-20", groups[1].date)
	assert.Equal(t, "2025-05-21", groups[2].date)
}

func TestPriceValue(t *testing.T) {
	assert.InDelta(t, 8.0, priceValue("£8.00"), 1e-9)
	assert.InDelta(t, 12.5, priceValue("£12.50"), 1e-9)
	assert.InDelta(t, 18.0, priceValue(" £18.00 "), 1e-9)
	assert.Greater(t, priceValue("call us"), 1e8, "unparseable prices sort last")
}

func TestSortGroupsByPrice(t *testing.T) {
	groups := []VenueGroup{
		{CompositeKey: "a", Price: "£12.50", sortDate: "2025-05-20"},
		{CompositeKey: "b", Price: "£8.00", sortDate: "2025-05-20"},
	}
	sortGroups(groups, SortByPrice)
	assert.Equal(t, "b", groups[0].CompositeKey, "£8.00 sorts before £12.50")
}

func TestSortGroupsDateBeforeSecondaryKey(t *testing.T) {
	groups := []VenueGroup{
		{CompositeKey: "late-cheap", Price: "£1.00", sortDate: "2025-05-21"},
		{CompositeKey: "early-dear", Price: "£20.00", sortDate: "2025-05-20"},
	}
	sortGroups(groups, SortByPrice)
	assert.Equal(t, "early-dear", groups[0].CompositeKey)
}

func TestSortGroupsByDistance(t *testing.T) {
	groups := []VenueGroup{
		{CompositeKey: "far", DistanceMiles: 4.2, sortDate: "2025-05-20"},
		{CompositeKey: "near", DistanceMiles: 0.3, sortDate: "2025-05-20"},
	}
	sortGroups(groups, SortByDistance)
	assert.Equal(t, "near", groups[0].CompositeKey)
}

func TestParseSortBy(t *testing.T) {
	sortBy, err := ParseSortBy("")
	require.NoError(t, err)
	assert.Equal(t, SortByDistance, sortBy)

	sortBy, err = ParseSortBy("price")
	require.NoError(t, err)
	assert.Equal(t, SortByPrice, sortBy)

	_, err = ParseSortBy("vibes")
	assert.Error(t, err)
}

package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sportscanner/app-crawlers/internal/crawler"
)

// Users pick a court by deciding on a venue and date, then scanning times.
// Results are therefore one group per (venue, date), anchored on the
// earliest bookable slot, with the rest of the day's slots attached as
// availability entries rather than duplicated venue rows.

// Availability is one time entry inside a group.
type Availability struct {
	StartingTime string `json:"startingTime"`
	EndingTime   string `json:"endingTime"`
	Available    bool   `json:"available"`
	BookingURL   string `json:"bookingUrl,omitempty"`
	Price        string `json:"price"`
}

// slotGroup is the grouping/ranking intermediate before venue metadata is
// attached.
type slotGroup struct {
	compositeKey string
	date         string // wire format, also the in-group sort key prefix
	anchor       crawler.Slot
	availability []Availability
}

// buildGroups groups slots by (composite_key, date), sorts each group by
// starting time and anchors it on the earliest slot with spaces remaining.
// Groups with nothing bookable are skipped entirely.
func buildGroups(slots []crawler.Slot) []slotGroup {
	type key struct {
		compositeKey string
		date         string
	}
	grouped := make(map[key][]crawler.Slot)
	for _, s := range slots {
		k := key{s.CompositeKey, s.Date.Format(crawler.DateFormat)}
		grouped[k] = append(grouped[k], s)
	}

	keys := make([]key, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].compositeKey < keys[j].compositeKey
	})

	var groups []slotGroup
	for _, k := range keys {
		members := grouped[k]
		sort.Slice(members, func(i, j int) bool {
			return members[i].StartingTime.Before(members[j].StartingTime)
		})

		anchorIdx := -1
		for i, s := range members {
			if s.Spaces > 0 {
				anchorIdx = i
				break
			}
		}
		if anchorIdx < 0 {
			continue
		}

		group := slotGroup{
			compositeKey: k.compositeKey,
			date:         k.date,
			anchor:       members[anchorIdx],
		}
		for _, s := range members[anchorIdx:] {
			group.availability = append(group.availability, Availability{
				StartingTime: s.StartingTime.String(),
				EndingTime:   s.EndingTime.String(),
				Available:    s.Spaces > 0,
				BookingURL:   s.BookingURL,
				Price:        s.Price,
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// priceValue extracts the numeric value from a display price for sorting.
// "£8.00" sorts before "£12.50"; unparseable prices sort last.
func priceValue(price string) float64 {
	trimmed := strings.TrimSpace(price)
	trimmed = strings.TrimPrefix(trimmed, "£")
	// Keep the leading number only; some providers append qualifiers.
	end := 0
	for end < len(trimmed) && (trimmed[end] == '.' || (trimmed[end] >= '0' && trimmed[end] <= '9')) {
		end++
	}
	value, err := strconv.ParseFloat(trimmed[:end], 64)
	if err != nil {
		return 1e9
	}
	return value
}

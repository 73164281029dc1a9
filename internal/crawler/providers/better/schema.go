// Package better crawls the Better Leisure booking API. The same response
// shape is served for every activity variant; the data block arrives either
// as an array or as an object keyed by start time, and both must be
// accepted.
package better

import (
	"encoding/json"
	"fmt"
)

// APISlot is one bookable interval in a Better "times" response.
type APISlot struct {
	Name         string   `json:"name"`
	Date         string   `json:"date"`
	StartsAt     APITime  `json:"starts_at"`
	EndsAt       APITime  `json:"ends_at"`
	Price        APIPrice `json:"price"`
	Spaces       int      `json:"spaces"`
	VenueSlug    string   `json:"venue_slug"`
	CategorySlug string   `json:"category_slug"`
}

// APITime carries the 24-hour clock rendering of a slot boundary.
type APITime struct {
	Format24Hour string `json:"format_24_hour"`
}

// APIPrice carries the display price, currency included.
type APIPrice struct {
	FormattedAmount string `json:"formatted_amount"`
}

// Envelope is the outer response wrapper. An empty or missing data block is
// the provider's "venue fully booked" signal.
type Envelope struct {
	Data json.RawMessage `json:"data"`
}

// DecodeBlocks extracts the slot blocks from a data payload, accepting both
// the array and the keyed-object shape.
func DecodeBlocks(data json.RawMessage) ([]APISlot, error) {
	if len(data) == 0 {
		return nil, nil
	}
	switch data[0] {
	case '[':
		var blocks []APISlot
		if err := json.Unmarshal(data, &blocks); err != nil {
			return nil, fmt.Errorf("decode data array: %w", err)
		}
		return blocks, nil
	case '{':
		var keyed map[string]APISlot
		if err := json.Unmarshal(data, &keyed); err != nil {
			return nil, fmt.Errorf("decode keyed data object: %w", err)
		}
		blocks := make([]APISlot, 0, len(keyed))
		for _, block := range keyed {
			blocks = append(blocks, block)
		}
		return blocks, nil
	default:
		return nil, fmt.Errorf("unexpected data payload shape: %s", truncate(data, 40))
	}
}

// IsEmpty reports whether the data block carries no slots.
func (e Envelope) IsEmpty() bool {
	trimmed := string(e.Data)
	return trimmed == "" || trimmed == "null" || trimmed == "[]" || trimmed == "{}"
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

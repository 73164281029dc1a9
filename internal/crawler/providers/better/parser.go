package better

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sportscanner/app-crawlers/internal/crawler"
)

// Parser maps Better "times" responses to unified slots. Category, date and
// booking URL come from the request metadata; times, price and spaces come
// from the response blocks. Blocks that fail shape checks are dropped with a
// warning; their siblings survive.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse implements crawler.ResponseParser.
func (p *Parser) Parse(raw *crawler.RawResponse) ([]crawler.Slot, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	blocks, err := DecodeBlocks(envelope.Data)
	if err != nil {
		return nil, err
	}

	metadata := raw.Request.Metadata
	slots := make([]crawler.Slot, 0, len(blocks))
	for _, block := range blocks {
		startingTime, err := crawler.ParseClock(block.StartsAt.Format24Hour)
		if err != nil {
			p.logger.Warn("Dropping slot with bad start time",
				"url", raw.Request.URL, "value", block.StartsAt.Format24Hour)
			continue
		}
		endingTime, err := crawler.ParseClock(block.EndsAt.Format24Hour)
		if err != nil {
			p.logger.Warn("Dropping slot with bad end time",
				"url", raw.Request.URL, "value", block.EndsAt.Format24Hour)
			continue
		}
		slots = append(slots, crawler.Slot{
			CompositeKey:  metadata.Venue.CompositeKey,
			Category:      metadata.Category,
			Date:          metadata.Date,
			StartingTime:  startingTime,
			EndingTime:    endingTime,
			Price:      block.Price.FormattedAmount,
			Spaces:     block.Spaces,
			BookingURL: metadata.BookingURLTemplate,
		})
	}
	return slots, nil
}

package better

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

// PlaceholderSource supplies the recurring slots already known for a
// venue/date, read from the current master table. Implemented by the
// storage layer.
type PlaceholderSource interface {
	RecurringSlots(ctx context.Context, sport config.Sport, compositeKey string, date time.Time) ([]crawler.Slot, error)
}

// Tasks is the Better task creator. It differs from the standard one in a
// single behaviour: an empty data block is a valid "venue fully booked"
// signal, answered with zero-space placeholders for the venue's known
// recurring slots so downstream consumers see the venue was scanned.
type Tasks struct {
	sport        config.Sport
	placeholders PlaceholderSource
	logger       *slog.Logger
}

// NewTasks creates a Tasks. placeholders may be nil, in which case empty
// responses simply produce no slots.
func NewTasks(sport config.Sport, placeholders PlaceholderSource, logger *slog.Logger) *Tasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tasks{sport: sport, placeholders: placeholders, logger: logger}
}

// CreateTasks implements crawler.TaskCreator.
func (t *Tasks) CreateTasks(client *crawler.Client, venue catalogue.Venue, fetchDate time.Time, requests crawler.RequestStrategy, parser crawler.ResponseParser) []crawler.Task {
	details := requests.GenerateRequestDetails(venue, fetchDate, "")
	tasks := make([]crawler.Task, 0, len(details))
	for _, detail := range details {
		detail := detail
		tasks = append(tasks, func(ctx context.Context) ([]crawler.Slot, error) {
			raw, err := client.Do(ctx, detail)
			if err != nil {
				return nil, err
			}
			if !raw.IsJSON() {
				return nil, fmt.Errorf("%s: response content-type %q is not JSON",
					detail.URL, raw.Headers.Get("Content-Type"))
			}

			var envelope Envelope
			if err := json.Unmarshal(raw.Body, &envelope); err != nil {
				return nil, fmt.Errorf("decode response envelope: %w", err)
			}
			if envelope.IsEmpty() {
				return t.placeholderSlots(ctx, detail)
			}
			return parser.Parse(raw)
		})
	}
	return tasks
}

// placeholderSlots re-emits the venue's recurring slots for the date with
// spaces zeroed.
func (t *Tasks) placeholderSlots(ctx context.Context, detail crawler.RequestDetail) ([]crawler.Slot, error) {
	if t.placeholders == nil {
		return nil, nil
	}
	metadata := detail.Metadata
	t.logger.Info("No data block in response, populating blanks",
		"url", detail.URL, "venue", metadata.Venue.CompositeKey)

	known, err := t.placeholders.RecurringSlots(ctx, t.sport, metadata.Venue.CompositeKey, metadata.Date)
	if err != nil {
		return nil, fmt.Errorf("load recurring slots for placeholders: %w", err)
	}
	placeholders := make([]crawler.Slot, 0, len(known))
	for _, s := range known {
		s.Spaces = 0
		s.BookingURL = ""
		placeholders = append(placeholders, s)
	}
	return placeholders, nil
}

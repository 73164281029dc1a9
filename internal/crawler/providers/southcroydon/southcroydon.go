// Package southcroydon crawls the South Croydon Sports Club booking page.
// The club has no API; availability is scraped from the booking grid HTML,
// one column per court, and rolled up into one slot per interval.
package southcroydon

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

const (
	// OrganisationWebsite scopes the adapter to its catalogue venues.
	OrganisationWebsite = "https://www.southcroydonsportsclub.com/"

	bookingPage = "https://www.southcroydonsportsclub.com/booking/badminton-court/"

	// The club does not publish prices on the grid; the court fee is fixed
	// per policy and emitted explicitly here.
	fixedPrice = "£8.00"

	lookaheadDays = 6
)

// Requests generates the booking-grid page request for a date.
type Requests struct{}

// GenerateRequestDetails implements crawler.RequestStrategy.
func (Requests) GenerateRequestDetails(venue catalogue.Venue, fetchDate time.Time, _ string) []crawler.RequestDetail {
	pageURL := fmt.Sprintf("%s?date=%s", bookingPage, fetchDate.Format(crawler.DateFormat))
	return []crawler.RequestDetail{{
		URL: pageURL,
		Headers: map[string]string{
			"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"accept-language": "en-US,en;q=0.9",
			"referer":         pageURL,
		},
		Metadata: crawler.RequestMetadata{
			Venue:              venue,
			Date:               fetchDate,
			Category:           "Badminton",
			Price:              fixedPrice,
			BookingURLTemplate: pageURL,
		},
	}}
}

// Parser walks the booking grid: the time column gives the intervals, each
// booking column is one court, and a bookable checkbox marks an available
// cell. Courts available per interval are summed into one unified slot.
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
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
	if err != nil {
		return nil, fmt.Errorf("parse booking page HTML: %w", err)
	}

	var timeSlots []string
	doc.Find("div.time-column div.row").Each(func(_ int, row *goquery.Selection) {
		timeSlots = append(timeSlots, strings.TrimSpace(row.Text()))
	})
	if len(timeSlots) == 0 {
		return nil, fmt.Errorf("booking page has no time column")
	}

	// Roll-up: count courts with a bookable cell per interval.
	available := make(map[string]int)
	doc.Find("div.booking-column").Each(func(_ int, column *goquery.Selection) {
		if column.Find("div.header").Length() == 0 {
			return
		}
		column.Find("div.row").Each(func(rowIdx int, cell *goquery.Selection) {
			if rowIdx >= len(timeSlots) {
				return
			}
			interval := timeSlots[rowIdx]
			if cell.Find("input.bookable-checkbox").Length() > 0 {
				available[interval]++
			} else if _, seen := available[interval]; !seen {
				available[interval] = 0
			}
		})
	})

	intervals := make([]string, 0, len(available))
	for interval := range available {
		intervals = append(intervals, interval)
	}
	sort.Strings(intervals)

	metadata := raw.Request.Metadata
	var slots []crawler.Slot
	for _, interval := range intervals {
		start, end, err := parseInterval(interval)
		if err != nil {
			p.logger.Warn("Dropping grid row with bad time string",
				"url", raw.Request.URL, "value", interval)
			continue
		}
		slots = append(slots, crawler.Slot{
			CompositeKey: metadata.Venue.CompositeKey,
			Category:     metadata.Category,
			Date:         metadata.Date,
			StartingTime: start,
			EndingTime:   end,
			Price:        metadata.Price,
			Spaces:       available[interval],
			BookingURL:   raw.Request.URL,
		})
	}
	return slots, nil
}

// parseInterval splits "18:00 - 19:00" style grid labels.
func parseInterval(s string) (crawler.TimeOfDay, crawler.TimeOfDay, error) {
	parts := strings.Split(s, " - ")
	if len(parts) != 2 {
		return crawler.TimeOfDay{}, crawler.TimeOfDay{}, fmt.Errorf("time string format invalid: %q", s)
	}
	start, err := crawler.ParseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return crawler.TimeOfDay{}, crawler.TimeOfDay{}, err
	}
	end, err := crawler.ParseClock(strings.TrimSpace(parts[1]))
	if err != nil {
		return crawler.TimeOfDay{}, crawler.TimeOfDay{}, err
	}
	return start, end, nil
}

// Tasks fetches the booking page without requiring a JSON content type —
// the grid is HTML.
type Tasks struct{}

// CreateTasks implements crawler.TaskCreator.
func (Tasks) CreateTasks(client *crawler.Client, venue catalogue.Venue, fetchDate time.Time, requests crawler.RequestStrategy, parser crawler.ResponseParser) []crawler.Task {
	details := requests.GenerateRequestDetails(venue, fetchDate, "")
	tasks := make([]crawler.Task, 0, len(details))
	for _, detail := range details {
		detail := detail
		tasks = append(tasks, func(ctx context.Context) ([]crawler.Slot, error) {
			raw, err := client.Do(ctx, detail)
			if err != nil {
				return nil, err
			}
			return parser.Parse(raw)
		})
	}
	return tasks
}

// NewBadmintonAdapter assembles the South Croydon badminton adapter.
func NewBadmintonAdapter(logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "southcroydon/badminton",
		OrganisationWebsite: OrganisationWebsite,
		Sport:               config.Badminton,
		LookaheadDays:       lookaheadDays,
		Requests:            Requests{},
		Parser:              NewParser(logger),
		Tasks:               Tasks{},
	}
}

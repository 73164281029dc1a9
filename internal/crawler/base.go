package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
)

// Crawler drives one adapter over the Cartesian product of its venues and
// the requested dates. Tasks run as parallel goroutines against the shared
// client and are joined by a single WaitGroup gather; a failing task is
// logged at warning level and dropped, never the whole batch.
type Crawler struct {
	client *Client
	logger *slog.Logger
}

// NewCrawler creates a Crawler around the shared HTTP client.
func NewCrawler(client *Client, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{client: client, logger: logger}
}

// Crawl fans out every (venue, date) pair through the adapter's strategies
// and returns the flattened slot list. Dates outside the adapter's
// look-ahead window are discarded before any task is created.
func (c *Crawler) Crawl(ctx context.Context, adapter Adapter, venues []catalogue.Venue, dates []time.Time) []Slot {
	allowable := FilterAllowable(dates, Today(), adapter.LookaheadDays)
	if len(venues) == 0 || len(allowable) == 0 {
		c.logger.Warn("Nothing to crawl", "adapter", adapter.Name,
			"venues", len(venues), "dates", len(allowable))
		return nil
	}

	// One-shot setup (e.g. headless token acquisition) runs synchronously
	// before any fan-out.
	if preparer, ok := adapter.Tasks.(Preparer); ok {
		if err := preparer.Prepare(ctx); err != nil {
			c.logger.Warn("Adapter preparation failed, skipping",
				"adapter", adapter.Name, "error", err)
			return nil
		}
	}

	var tasks []Task
	for _, venue := range venues {
		for _, fetchDate := range allowable {
			tasks = append(tasks,
				adapter.Tasks.CreateTasks(c.client, venue, fetchDate, adapter.Requests, adapter.Parser)...)
		}
	}
	c.logger.Info("Crawling", "adapter", adapter.Name,
		"venues", len(venues), "dates", len(allowable), "tasks", len(tasks))

	results := make([][]Slot, len(tasks))
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, run Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[idx] = fmt.Errorf("task panic: %v", r)
				}
			}()
			results[idx], errs[idx] = run(ctx)
		}(i, task)
	}
	wg.Wait()

	var slots []Slot
	for i, taskSlots := range results {
		if errs[i] != nil {
			c.logger.Warn("Task failed", "adapter", adapter.Name, "task", i, "error", errs[i])
			continue
		}
		for _, s := range taskSlots {
			if err := s.Validate(); err != nil {
				c.logger.Warn("Dropping invalid slot", "adapter", adapter.Name, "error", err)
				continue
			}
			slots = append(slots, s)
		}
	}
	c.logger.Info("Crawl complete", "adapter", adapter.Name, "slots", len(slots))
	return slots
}

// --------------------------------------------------------------------------
// Standard task creation
// --------------------------------------------------------------------------

// StandardTasks is the task creator shared by providers without
// authentication or empty-response special cases: fetch, require a JSON
// content type, parse.
type StandardTasks struct{}

// CreateTasks implements TaskCreator.
func (StandardTasks) CreateTasks(client *Client, venue catalogue.Venue, fetchDate time.Time, requests RequestStrategy, parser ResponseParser) []Task {
	details := requests.GenerateRequestDetails(venue, fetchDate, "")
	tasks := make([]Task, 0, len(details))
	for _, detail := range details {
		tasks = append(tasks, FetchAndParse(client, detail, parser))
	}
	return tasks
}

// FetchAndParse builds the canonical task body: issue the request, validate
// status and content type, feed the body to the parser.
func FetchAndParse(client *Client, detail RequestDetail, parser ResponseParser) Task {
	return func(ctx context.Context) ([]Slot, error) {
		raw, err := client.Do(ctx, detail)
		if err != nil {
			return nil, err
		}
		if !raw.IsJSON() {
			return nil, fmt.Errorf("%s: response content-type %q is not JSON",
				detail.URL, raw.Headers.Get("Content-Type"))
		}
		return parser.Parse(raw)
	}
}

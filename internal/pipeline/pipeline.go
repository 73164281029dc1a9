// Package pipeline orchestrates per-sport refreshes: fan the sport's
// adapters out over their venues and dates, flatten the results and drive
// the staging/swap write protocol.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
	"github.com/sportscanner/app-crawlers/internal/storage"
)

// defaultSearchDays is the refresh window per sport: today plus the
// following days. Individual adapters narrow it further via their own
// look-ahead windows.
var defaultSearchDays = map[config.Sport]int{
	config.Badminton:  7,
	config.Squash:     7,
	config.Pickleball: 15,
}

// Result tracks counts and errors from one per-sport refresh.
type Result struct {
	Sport         config.Sport
	SlotsCrawled  int
	SlotsInserted int
	Swapped       bool
	Duration      time.Duration
	Errors        []string
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the refresh.
func (r *Result) Summary() string {
	return fmt.Sprintf("sport=%s crawled=%d inserted=%d swapped=%t errors=%d duration=%s",
		r.Sport, r.SlotsCrawled, r.SlotsInserted, r.Swapped, len(r.Errors),
		r.Duration.Round(time.Second))
}

// Pipeline drives refreshes. A per-sport mutex serialises invocations for
// the same sport — the staging table tolerates exactly one writer — while
// different sports refresh concurrently against disjoint tables.
type Pipeline struct {
	catalogue *catalogue.Catalogue
	repo      *storage.Repository
	registry  *Registry
	client    *crawler.Client
	logger    *slog.Logger

	locks map[config.Sport]*sync.Mutex
}

// New creates a Pipeline.
func New(cat *catalogue.Catalogue, repo *storage.Repository, registry *Registry, client *crawler.Client, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	locks := make(map[config.Sport]*sync.Mutex, len(config.AllSports()))
	for _, sport := range config.AllSports() {
		locks[sport] = &sync.Mutex{}
	}
	return &Pipeline{
		catalogue: cat,
		repo:      repo,
		registry:  registry,
		client:    client,
		logger:    logger,
		locks:     locks,
	}
}

// RefreshSport runs the full crawl-normalise-stage-swap cycle for one
// sport. A refresh that yields zero slots leaves the previous master
// untouched.
func (p *Pipeline) RefreshSport(ctx context.Context, sport config.Sport) Result {
	lock := p.locks[sport]
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	result := Result{Sport: sport}
	dates := crawler.DateRange(crawler.Today(), defaultSearchDays[sport])
	p.logger.Info("Refreshing sport", "sport", string(sport),
		"dates", crawler.FormatDates(dates))

	engine := crawler.NewCrawler(p.client, p.logger)
	var slots []crawler.Slot
	for _, adapter := range p.registry.ForSport(sport) {
		venues, err := p.catalogue.ListForOrganisation(ctx, adapter.OrganisationWebsite, sport)
		if err != nil {
			result.AddErrorf("list venues for %s: %v", adapter.Name, err)
			continue
		}
		slots = append(slots, engine.Crawl(ctx, adapter, venues, dates)...)
	}
	result.SlotsCrawled = len(slots)

	if len(slots) == 0 {
		p.logger.Warn("Refresh produced zero slots, keeping previous master",
			"sport", string(sport))
		result.AddErrorf("zero slots crawled for %s, swap skipped", sport)
		result.Duration = time.Since(started)
		return result
	}

	if err := p.repo.RecreateStaging(ctx, sport); err != nil {
		result.AddErrorf("recreate staging: %v", err)
		result.Duration = time.Since(started)
		return result
	}
	inserted, err := p.repo.InsertStaging(ctx, sport, slots, time.Now().UTC())
	if err != nil {
		result.AddErrorf("insert staging: %v", err)
		result.Duration = time.Since(started)
		return result
	}
	result.SlotsInserted = inserted

	if err := p.repo.Swap(ctx, sport); err != nil {
		result.AddErrorf("swap: %v", err)
		result.Duration = time.Since(started)
		return result
	}
	result.Swapped = true
	result.Duration = time.Since(started)

	p.logger.Info("Refresh complete", "summary", result.Summary())
	return result
}

// RefreshSports refreshes several sports concurrently. Each sport writes to
// its own tables, so the only serialisation needed is the per-sport lock
// RefreshSport already takes.
func (p *Pipeline) RefreshSports(ctx context.Context, sports []config.Sport) []Result {
	results := make([]Result, len(sports))
	var wg sync.WaitGroup
	for i, sport := range sports {
		wg.Add(1)
		go func(idx int, s config.Sport) {
			defer wg.Done()
			results[idx] = p.RefreshSport(ctx, s)
		}(i, sport)
	}
	wg.Wait()
	return results
}

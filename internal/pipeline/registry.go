package pipeline

import (
	"log/slog"

	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/better"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/citysports"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/decathlon"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/everyoneactive"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/flowonl"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/gladstone"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/schoolhire"
	"github.com/sportscanner/app-crawlers/internal/crawler/providers/southcroydon"
)

// Registry holds every wired provider adapter. Adding a provider means
// adding its constructor here; the pipeline discovers adapters by sport.
type Registry struct {
	adapters []crawler.Adapter
}

// NewRegistry assembles all adapters. placeholders feeds the Better-family
// empty-response behaviour and is implemented by the storage repository.
func NewRegistry(placeholders better.PlaceholderSource, logger *slog.Logger) *Registry {
	return &Registry{adapters: []crawler.Adapter{
		// Badminton
		better.NewBadmintonAdapter(placeholders, logger),
		citysports.NewBadmintonAdapter(logger),
		everyoneactive.NewBadmintonAdapter(logger),
		flowonl.NewHaringeyBadmintonAdapter(logger),
		gladstone.NewTowerHamletsAdapter(logger),
		gladstone.NewSouthwarkBadmintonAdapter(logger),
		schoolhire.NewBadmintonAdapter(logger),
		southcroydon.NewBadmintonAdapter(logger),
		// Squash
		better.NewSquashAdapter(placeholders, logger),
		flowonl.NewLambethSquashAdapter(placeholders, logger),
		// Pickleball
		decathlon.NewPickleballAdapter(logger),
		gladstone.NewSouthwarkPickleballAdapter(logger),
	}}
}

// ForSport returns the adapters that produce slots for one sport.
func (r *Registry) ForSport(sport config.Sport) []crawler.Adapter {
	var matched []crawler.Adapter
	for _, adapter := range r.adapters {
		if adapter.Sport == sport {
			matched = append(matched, adapter)
		}
	}
	return matched
}

// All returns every registered adapter.
func (r *Registry) All() []crawler.Adapter {
	return r.adapters
}

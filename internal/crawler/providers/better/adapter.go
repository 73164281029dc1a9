package better

import (
	"log/slog"

	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
)

// OrganisationWebsite scopes Better adapters to their catalogue venues.
const OrganisationWebsite = "https://www.better.org.uk"

// Better publishes at most six days of availability.
const lookaheadDays = 6

// NewBadmintonAdapter assembles the Better badminton adapter.
func NewBadmintonAdapter(placeholders PlaceholderSource, logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "better/badminton",
		OrganisationWebsite: OrganisationWebsite,
		Sport:               config.Badminton,
		LookaheadDays:       lookaheadDays,
		Requests:            BadmintonRequests{},
		Parser:              NewParser(logger),
		Tasks:               NewTasks(config.Badminton, placeholders, logger),
	}
}

// NewSquashAdapter assembles the Better squash adapter.
func NewSquashAdapter(placeholders PlaceholderSource, logger *slog.Logger) crawler.Adapter {
	return crawler.Adapter{
		Name:                "better/squash",
		OrganisationWebsite: OrganisationWebsite,
		Sport:               config.Squash,
		LookaheadDays:       lookaheadDays,
		Requests:            SquashRequests{},
		Parser:              NewParser(logger),
		Tasks:               NewTasks(config.Squash, placeholders, logger),
	}
}

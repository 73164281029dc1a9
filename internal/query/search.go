// Package query implements the public search contract: geospatial venue
// selection, time-window slot filtering against the per-sport master tables
// and the group-then-rank presentation shape.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
	"github.com/sportscanner/app-crawlers/internal/geo"
	"github.com/sportscanner/app-crawlers/internal/storage"
)

// SortBy selects the secondary ordering of result groups within a date.
type SortBy string

const (
	SortByDistance SortBy = "distance"
	SortByPrice    SortBy = "price"
)

// ParseSortBy validates a raw sortBy value, defaulting to distance.
func ParseSortBy(raw string) (SortBy, error) {
	switch SortBy(raw) {
	case "", SortByDistance:
		return SortByDistance, nil
	case SortByPrice:
		return SortByPrice, nil
	}
	return "", fmt.Errorf("unsupported sortBy value: %q", raw)
}

// VenueGroup is one result row: a venue/date with its anchor slot and the
// rest of the day's availability.
type VenueGroup struct {
	CompositeKey  string         `json:"composite_key"`
	Venue         string         `json:"venue"`
	Address       string         `json:"address,omitempty"`
	Organisation  string         `json:"organization"`
	DistanceMiles float64        `json:"distance"`
	Date          string         `json:"date"` // e.g. "Tue, May 20"
	StartTime     string         `json:"startTime"`
	EndTime       string         `json:"endTime"`
	Price         string         `json:"price"`
	BookingURL    string         `json:"bookingUrl,omitempty"`
	Availability  []Availability `json:"availability"`

	sortDate string
}

// Params are the search inputs. Now is injectable for tests; zero means the
// current London wall-clock.
type Params struct {
	Sport           config.Sport
	Date            time.Time
	Postcode        string
	RadiusMiles     float64
	StartTime       crawler.TimeOfDay
	EndTime         crawler.TimeOfDay
	SpecifiedVenues []string
	SortBy          SortBy
	Now             time.Time
}

// Service answers searches against the master tables and the venue
// catalogue.
type Service struct {
	catalogue *catalogue.Catalogue
	repo      *storage.Repository
	geocoder  *geo.Geocoder
	logger    *slog.Logger
	london    *time.Location
}

// New creates a Service.
func New(cat *catalogue.Catalogue, repo *storage.Repository, geocoder *geo.Geocoder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic(fmt.Sprintf("load Europe/London timezone: %v", err))
	}
	return &Service{catalogue: cat, repo: repo, geocoder: geocoder, logger: logger, london: london}
}

// Search implements the radius search contract. Failures to geocode the
// postcode surface as geo.ErrInvalidPostcode for the API layer to map to a
// 400.
func (s *Service) Search(ctx context.Context, params Params) ([]VenueGroup, error) {
	// No explicit venues and no postcode: zero groups, never "all venues".
	if len(params.SpecifiedVenues) == 0 && strings.TrimSpace(params.Postcode) == "" {
		return nil, nil
	}

	coords, err := s.geocoder.Geocode(ctx, params.Postcode)
	if err != nil {
		return nil, err
	}

	// Venue selection: the caller's explicit venues, or everything offering
	// the sport within the radius. An empty explicit selection means zero
	// results, never "all venues".
	distances := make(map[string]float64)
	venuesByKey := make(map[string]catalogue.Venue)
	if len(params.SpecifiedVenues) > 0 {
		for _, compositeKey := range params.SpecifiedVenues {
			venue, err := s.catalogue.Lookup(ctx, compositeKey)
			if err != nil {
				return nil, err
			}
			if venue == nil {
				s.logger.Warn("Ignoring unknown venue in search", "composite_key", compositeKey)
				continue
			}
			venuesByKey[compositeKey] = *venue
			distances[compositeKey] = geo.DistanceMiles(
				coords.Latitude, coords.Longitude, venue.Latitude, venue.Longitude)
		}
	} else {
		nearby, err := s.catalogue.WithinRadius(ctx,
			coords.Latitude, coords.Longitude, params.RadiusMiles, params.Sport)
		if err != nil {
			return nil, err
		}
		for _, vd := range nearby {
			venuesByKey[vd.Venue.CompositeKey] = vd.Venue
			distances[vd.Venue.CompositeKey] = vd.DistanceMiles
		}
	}
	if len(venuesByKey) == 0 {
		return nil, nil
	}

	compositeKeys := make([]string, 0, len(venuesByKey))
	for key := range venuesByKey {
		compositeKeys = append(compositeKeys, key)
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().In(s.london)
	}
	startTime, endTime := params.StartTime, params.EndTime
	slots, err := s.repo.SearchSlots(ctx, params.Sport, storage.SlotFilter{
		CompositeKeys: compositeKeys,
		Date:          crawler.DateOf(params.Date),
		StartingAfter: &startTime,
		EndingBefore:  &endTime,
		OnlyAvailable: true,
		After:         now,
	})
	if err != nil {
		return nil, err
	}

	groups := buildGroups(slots)
	results := make([]VenueGroup, 0, len(groups))
	for _, group := range groups {
		venue := venuesByKey[group.compositeKey]
		results = append(results, VenueGroup{
			CompositeKey:  group.compositeKey,
			Venue:         venue.VenueName,
			Address:       strValue(venue.Address),
			Organisation:  venue.Organisation,
			DistanceMiles: distances[group.compositeKey],
			Date:          group.anchor.Date.Format("Mon, Jan 02"),
			StartTime:     group.anchor.StartingTime.String(),
			EndTime:       group.anchor.EndingTime.String(),
			Price:         group.anchor.Price,
			BookingURL:    group.anchor.BookingURL,
			Availability:  group.availability,
			sortDate:      group.date,
		})
	}
	sortGroups(results, params.SortBy)
	return results, nil
}

// SearchVenue restricts the search to one venue and drops the geospatial
// inputs. Results are raw slots for the date, future-only and bookable.
func (s *Service) SearchVenue(ctx context.Context, sport config.Sport, date time.Time, compositeKey string, now time.Time) ([]crawler.Slot, error) {
	if now.IsZero() {
		now = time.Now().In(s.london)
	}
	return s.repo.SearchSlots(ctx, sport, storage.SlotFilter{
		CompositeKeys: []string{compositeKey},
		Date:          crawler.DateOf(date),
		OnlyAvailable: true,
		After:         now,
	})
}

// sortGroups orders by date first, then the requested secondary key.
func sortGroups(groups []VenueGroup, sortBy SortBy) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].sortDate != groups[j].sortDate {
			return groups[i].sortDate < groups[j].sortDate
		}
		if sortBy == SortByPrice {
			return priceValue(groups[i].Price) < priceValue(groups[j].Price)
		}
		return groups[i].DistanceMiles < groups[j].DistanceMiles
	})
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

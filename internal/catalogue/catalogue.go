// Package catalogue loads the static venue mapping file into the sportsvenue
// table and serves venue lookups, including the haversine radius search used
// by the query layer.
package catalogue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/db"
)

// Venue is one row of the sportsvenue table.
type Venue struct {
	CompositeKey        string
	Organisation        string
	OrganisationWebsite string
	VenueName           string
	Slug                string
	Postcode            *string
	Address             *string
	Latitude            float64
	Longitude           float64
	Sports              []string
}

// OffersSport reports whether the venue's sports set contains sport.
func (v Venue) OffersSport(sport config.Sport) bool {
	for _, s := range v.Sports {
		if s == string(sport) {
			return true
		}
	}
	return false
}

// VenueDistance pairs a venue with its great-circle distance from a search
// origin, in miles.
type VenueDistance struct {
	Venue         Venue
	DistanceMiles float64
}

// Catalogue serves venue reads and owns the truncate-and-reload of the
// sportsvenue table. The table is only ever mutated by Reload.
type Catalogue struct {
	pool   *db.Pool
	logger *slog.Logger
}

// New creates a Catalogue backed by pool.
func New(pool *db.Pool, logger *slog.Logger) *Catalogue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalogue{pool: pool, logger: logger}
}

// Reload truncates the sportsvenue table and reinserts every venue from the
// mapping file under one transaction. Readers never observe a partial
// catalogue.
func (c *Catalogue) Reload(ctx context.Context, organisations []MappingOrganisation) error {
	var count int
	err := c.pool.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+config.VenuesTable); err != nil {
			return fmt.Errorf("truncate sportsvenue: %w", err)
		}
		for _, org := range organisations {
			for _, v := range org.Venues {
				_, err := tx.Exec(ctx, `
					INSERT INTO `+config.VenuesTable+`
						(composite_key, organisation, organisation_website, venue_name,
						 slug, postcode, address, latitude, longitude, sports)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
					CompositeKey(org.OrganisationWebsite, v.Slug),
					org.Organisation,
					org.OrganisationWebsite,
					v.VenueName,
					v.Slug,
					v.Location.Postcode,
					v.Location.Address,
					v.Location.Latitude,
					v.Location.Longitude,
					v.Sports,
				)
				if err != nil {
					return fmt.Errorf("insert venue %q: %w", v.Slug, err)
				}
				count++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Info("Venue catalogue reloaded", "venues", count)
	return nil
}

const venueColumns = `composite_key, organisation, organisation_website, venue_name,
	slug, postcode, address, latitude, longitude, sports`

// ListAll returns every venue in the catalogue.
func (c *Catalogue) ListAll(ctx context.Context) ([]Venue, error) {
	rows, err := c.pool.Query(ctx, `SELECT `+venueColumns+` FROM `+config.VenuesTable)
	if err != nil {
		return nil, fmt.Errorf("query venues: %w", err)
	}
	return scanVenues(rows)
}

// ListOfferingSport returns venues whose sports set contains sport.
func (c *Catalogue) ListOfferingSport(ctx context.Context, sport config.Sport) ([]Venue, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT `+venueColumns+` FROM `+config.VenuesTable+` WHERE $1 = ANY(sports)`,
		string(sport))
	if err != nil {
		return nil, fmt.Errorf("query venues for sport %s: %w", sport, err)
	}
	return scanVenues(rows)
}

// ListForOrganisation returns venues belonging to one provider that offer the
// given sport. Adapters use this to scope a crawl to their own venues.
func (c *Catalogue) ListForOrganisation(ctx context.Context, organisationWebsite string, sport config.Sport) ([]Venue, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT `+venueColumns+` FROM `+config.VenuesTable+`
		 WHERE organisation_website = $1 AND $2 = ANY(sports)`,
		organisationWebsite, string(sport))
	if err != nil {
		return nil, fmt.Errorf("query venues for %s: %w", organisationWebsite, err)
	}
	return scanVenues(rows)
}

// Lookup fetches a single venue by composite key. Returns nil when absent.
func (c *Catalogue) Lookup(ctx context.Context, compositeKey string) (*Venue, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT `+venueColumns+` FROM `+config.VenuesTable+` WHERE composite_key = $1`,
		compositeKey)
	if err != nil {
		return nil, fmt.Errorf("lookup venue %s: %w", compositeKey, err)
	}
	venues, err := scanVenues(rows)
	if err != nil {
		return nil, err
	}
	if len(venues) == 0 {
		return nil, nil
	}
	return &venues[0], nil
}

// WithinRadius returns the venues within radiusMiles of (lat, lon) that offer
// sport, sorted ascending by great-circle distance. The haversine runs in SQL
// so the distance arrives pre-computed with each row.
func (c *Catalogue) WithinRadius(ctx context.Context, lat, lon, radiusMiles float64, sport config.Sport) ([]VenueDistance, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT `+venueColumns+`, distance_miles FROM (
			SELECT `+venueColumns+`,
				3959 * acos(least(1.0,
					cos(radians($1)) * cos(radians(latitude)) *
					cos(radians(longitude) - radians($2)) +
					sin(radians($1)) * sin(radians(latitude))
				)) AS distance_miles
			FROM `+config.VenuesTable+`
			WHERE $4 = ANY(sports)
		) nearby
		WHERE distance_miles <= $3
		ORDER BY distance_miles ASC`,
		lat, lon, radiusMiles, string(sport))
	if err != nil {
		return nil, fmt.Errorf("radius query: %w", err)
	}
	defer rows.Close()

	var results []VenueDistance
	for rows.Next() {
		var vd VenueDistance
		v := &vd.Venue
		if err := rows.Scan(
			&v.CompositeKey, &v.Organisation, &v.OrganisationWebsite, &v.VenueName,
			&v.Slug, &v.Postcode, &v.Address, &v.Latitude, &v.Longitude, &v.Sports,
			&vd.DistanceMiles,
		); err != nil {
			return nil, fmt.Errorf("scan venue distance: %w", err)
		}
		results = append(results, vd)
	}
	return results, rows.Err()
}

func scanVenues(rows pgx.Rows) ([]Venue, error) {
	defer rows.Close()
	var venues []Venue
	for rows.Next() {
		var v Venue
		if err := rows.Scan(
			&v.CompositeKey, &v.Organisation, &v.OrganisationWebsite, &v.VenueName,
			&v.Slug, &v.Postcode, &v.Address, &v.Latitude, &v.Longitude, &v.Sports,
		); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

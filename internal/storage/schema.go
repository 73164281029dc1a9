// Package storage owns the relational model: schema and table bootstrap,
// the staging/swap write protocol for per-sport slot datasets, and the slot
// reads the query layer and crawlers depend on.
package storage

import (
	"context"
	"fmt"

	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/db"
)

// The three-schema model: public holds the live datasets, staging the one
// being written, archive exists only for the instant of a swap.
var requiredSchemas = []string{"public", "staging", "archive"}

const venuesDDL = `
CREATE TABLE IF NOT EXISTS public.sportsvenue (
	composite_key        TEXT PRIMARY KEY,
	organisation         TEXT NOT NULL,
	organisation_website TEXT NOT NULL,
	venue_name           TEXT NOT NULL,
	slug                 TEXT NOT NULL,
	postcode             TEXT,
	address              TEXT,
	latitude             DOUBLE PRECISION NOT NULL,
	longitude            DOUBLE PRECISION NOT NULL,
	sports               TEXT[] NOT NULL
)`

// slotTableDDL is shared by master and staging tables; their schemas must
// stay identical or the swap would change the reader-visible shape.
const slotTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
	uid            TEXT PRIMARY KEY,
	composite_key  TEXT NOT NULL REFERENCES public.sportsvenue (composite_key),
	category       TEXT NOT NULL,
	date           DATE NOT NULL,
	starting_time  TIME NOT NULL,
	ending_time    TIME NOT NULL,
	price          TEXT NOT NULL,
	spaces         INTEGER NOT NULL,
	last_refreshed TIMESTAMPTZ NOT NULL,
	booking_url    TEXT
)`

// InitSchema creates the schemas and tables the system needs. Safe to run
// repeatedly; `crawler init` and the pipeline entry points call it at
// startup.
func InitSchema(ctx context.Context, pool *db.Pool) error {
	for _, schema := range requiredSchemas {
		if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
			return fmt.Errorf("create schema %s: %w", schema, err)
		}
	}
	if _, err := pool.Exec(ctx, venuesDDL); err != nil {
		return fmt.Errorf("create sportsvenue table: %w", err)
	}
	for _, sport := range config.AllSports() {
		for _, table := range []string{sport.MasterTable(), sport.StagingTable()} {
			if _, err := pool.Exec(ctx, fmt.Sprintf(slotTableDDL, table)); err != nil {
				return fmt.Errorf("create table %s: %w", table, err)
			}
		}
	}
	return nil
}

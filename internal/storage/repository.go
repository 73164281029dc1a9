package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
	"github.com/sportscanner/app-crawlers/internal/db"
)

// Repository is the slot store. Writers follow the staging/swap protocol:
// load a fresh dataset into the sport's staging table, then atomically
// rename it into the master position, so readers always see either the old
// or the new dataset, never a mixture.
type Repository struct {
	pool   *db.Pool
	logger *slog.Logger
}

// New creates a Repository.
func New(pool *db.Pool, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{pool: pool, logger: logger}
}

// --------------------------------------------------------------------------
// Staging/swap write protocol
// --------------------------------------------------------------------------

// RecreateStaging drops and recreates the sport's staging table so no stale
// rows from an aborted prior run can survive into this refresh.
func (r *Repository) RecreateStaging(ctx context.Context, sport config.Sport) error {
	if _, err := r.pool.Exec(ctx, "DROP TABLE IF EXISTS "+sport.StagingTable()); err != nil {
		return fmt.Errorf("drop staging table: %w", err)
	}
	if _, err := r.pool.Exec(ctx, fmt.Sprintf(slotTableDDL, sport.StagingTable())); err != nil {
		return fmt.Errorf("recreate staging table: %w", err)
	}
	return nil
}

// InsertStaging bulk-loads slots into the sport's staging table. Every row
// gets a fresh uid and the shared last_refreshed ingest timestamp.
func (r *Repository) InsertStaging(ctx context.Context, sport config.Sport, slots []crawler.Slot, refreshedAt time.Time) (int, error) {
	rows := make([][]any, 0, len(slots))
	for _, s := range slots {
		var bookingURL *string
		if s.BookingURL != "" {
			bookingURL = &s.BookingURL
		}
		rows = append(rows, []any{
			uuid.NewString(),
			s.CompositeKey,
			s.Category,
			s.Date,
			timeValue(s.StartingTime),
			timeValue(s.EndingTime),
			s.Price,
			s.Spaces,
			refreshedAt,
			bookingURL,
		})
	}

	schema, table := splitTable(sport.StagingTable())
	inserted, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{schema, table},
		[]string{"uid", "composite_key", "category", "date", "starting_time",
			"ending_time", "price", "spaces", "last_refreshed", "booking_url"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk insert into %s: %w", sport.StagingTable(), err)
	}
	return int(inserted), nil
}

// Swap promotes the staging table to master in a single transaction:
// drop any leftover archive, move master aside, move staging in, discard
// the archive. This is the only instant at which readers observe a change;
// a crash anywhere before the commit leaves the master untouched.
func (r *Repository) Swap(ctx context.Context, sport config.Sport) error {
	master := sport.MasterTable()
	staging := sport.StagingTable()
	archive := sport.ArchiveTable()

	err := r.pool.WithTransaction(ctx, func(tx pgx.Tx) error {
		statements := []string{
			"DROP TABLE IF EXISTS " + archive + " CASCADE",
			"ALTER TABLE " + master + " SET SCHEMA archive",
			"ALTER TABLE " + staging + " SET SCHEMA public",
			"DROP TABLE IF EXISTS " + archive + " CASCADE",
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("swap %s: %w", string(sport), err)
	}
	r.logger.Info("Dataset swapped into master", "sport", string(sport))
	return nil
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

const slotColumns = `uid, composite_key, category, date, starting_time,
	ending_time, price, spaces, last_refreshed, booking_url`

// SlotFilter narrows a master-table read for the query layer. Zero values
// disable the corresponding clause, except Date which is always required.
type SlotFilter struct {
	CompositeKeys []string
	Date          time.Time
	StartingAfter *crawler.TimeOfDay // starting_time >= this
	EndingBefore  *crawler.TimeOfDay // ending_time <= this
	OnlyAvailable bool               // spaces > 0
	After         time.Time          // date + starting_time strictly later than this wall-clock instant
}

// SearchSlots reads the sport's master table with the filter applied.
func (r *Repository) SearchSlots(ctx context.Context, sport config.Sport, filter SlotFilter) ([]crawler.Slot, error) {
	clauses := []string{"date = $1"}
	args := []any{filter.Date}

	if len(filter.CompositeKeys) > 0 {
		args = append(args, filter.CompositeKeys)
		clauses = append(clauses, fmt.Sprintf("composite_key = ANY($%d)", len(args)))
	}
	if filter.OnlyAvailable {
		clauses = append(clauses, "spaces > 0")
	}
	if filter.StartingAfter != nil {
		args = append(args, timeValue(*filter.StartingAfter))
		clauses = append(clauses, fmt.Sprintf("starting_time >= $%d", len(args)))
	}
	if filter.EndingBefore != nil {
		args = append(args, timeValue(*filter.EndingBefore))
		clauses = append(clauses, fmt.Sprintf("ending_time <= $%d", len(args)))
	}
	if !filter.After.IsZero() {
		args = append(args, filter.After.Format("2006-01-02 15:04:05"))
		clauses = append(clauses, fmt.Sprintf("(date + starting_time) > $%d::timestamp", len(args)))
	}

	query := "SELECT " + slotColumns + " FROM " + sport.MasterTable() +
		" WHERE " + strings.Join(clauses, " AND ")
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search %s slots: %w", string(sport), err)
	}
	return scanSlots(rows)
}

// RecurringSlots returns the master rows for one venue/date. The Better
// family uses these as the template for zero-space placeholders when a
// provider answers with an empty data block.
func (r *Repository) RecurringSlots(ctx context.Context, sport config.Sport, compositeKey string, date time.Time) ([]crawler.Slot, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+slotColumns+" FROM "+sport.MasterTable()+
			" WHERE composite_key = $1 AND date = $2",
		compositeKey, date)
	if err != nil {
		return nil, fmt.Errorf("recurring slots for %s: %w", compositeKey, err)
	}
	return scanSlots(rows)
}

// MasterCount returns the number of live rows for a sport.
func (r *Repository) MasterCount(ctx context.Context, sport config.Sport) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM "+sport.MasterTable()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s rows: %w", string(sport), err)
	}
	return count, nil
}

// --------------------------------------------------------------------------
// Row mapping
// --------------------------------------------------------------------------

func timeValue(t crawler.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Microseconds(), Valid: true}
}

func scanSlots(rows pgx.Rows) ([]crawler.Slot, error) {
	defer rows.Close()
	var slots []crawler.Slot
	for rows.Next() {
		var (
			uid        string
			s          crawler.Slot
			start, end pgtype.Time
			bookingURL *string
		)
		if err := rows.Scan(&uid, &s.CompositeKey, &s.Category, &s.Date,
			&start, &end, &s.Price, &s.Spaces, &s.LastRefreshed, &bookingURL); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		s.StartingTime = crawler.ClockFromMicroseconds(start.Microseconds)
		s.EndingTime = crawler.ClockFromMicroseconds(end.Microseconds)
		if bookingURL != nil {
			s.BookingURL = *bookingURL
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func splitTable(qualified string) (schema, table string) {
	parts := strings.SplitN(qualified, ".", 2)
	return parts[0], parts[1]
}

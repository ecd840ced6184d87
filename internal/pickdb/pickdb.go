// Package pickdb stores the history of tap picks in SQLite.
package pickdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/tapfocus/internal/focus"
	"github.com/banshee-data/tapfocus/internal/pick"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the pick history database.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the pick database at path and applies
// pending migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// MigrateUp runs all pending migrations up to the latest version.
// Returns nil if no migrations were needed (already at latest version).
func (db *DB) MigrateUp() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	// Note: m is not closed here because that would close the underlying DB connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil if no migrations have been applied yet.
func (db *DB) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (db *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// PickRecord is a stored tap outcome.
type PickRecord struct {
	TapID          uuid.UUID
	Seq            uint64
	TappedAtNanos  int64
	Pointer        pick.Pixel
	Viewport       pick.Viewport
	Stride         int
	Sampled        int
	Matched        bool
	SourceIndex    int
	Target         r3.Vec
	DistSq         float64
	RayDistance    float64
	MarkerOffsetPx float64
	MarkerOnTarget bool
}

// RecordPick stores a snapshot. It implements focus.Recorder.
func (db *DB) RecordPick(ctx context.Context, s focus.Snapshot) error {
	query := `
		INSERT INTO picks (
			tap_id, seq, tapped_at_ns, pointer_x, pointer_y, viewport_w, viewport_h,
			stride, sampled, matched, source_index, target_x, target_y, target_z,
			dist_sq, ray_distance, marker_offset_px, marker_on_target
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var (
		sourceIndex                 sql.NullInt64
		tx, ty, tz, distSq, rayDist sql.NullFloat64
		markerOffset                sql.NullFloat64
	)
	if s.Matched {
		sourceIndex = sql.NullInt64{Int64: int64(s.SourceIndex), Valid: true}
		tx = sql.NullFloat64{Float64: s.Target.X, Valid: true}
		ty = sql.NullFloat64{Float64: s.Target.Y, Valid: true}
		tz = sql.NullFloat64{Float64: s.Target.Z, Valid: true}
		distSq = sql.NullFloat64{Float64: s.DistSq, Valid: true}
		rayDist = sql.NullFloat64{Float64: s.RayDistance, Valid: true}
		if s.MarkerVisible {
			markerOffset = sql.NullFloat64{Float64: s.MarkerOffsetPx, Valid: true}
		}
	}

	_, err := db.ExecContext(ctx, query,
		s.TapID.String(), int64(s.Seq), s.Time.UnixNano(),
		s.Pointer.X, s.Pointer.Y, s.Viewport.Width, s.Viewport.Height,
		s.Stride, s.Sampled, boolInt(s.Matched), sourceIndex, tx, ty, tz,
		distSq, rayDist, markerOffset, boolInt(s.MarkerOnTarget),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pick: %w", err)
	}
	return nil
}

// RecentPicks returns up to limit picks, most recent first.
func (db *DB) RecentPicks(ctx context.Context, limit int) ([]PickRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `
		SELECT tap_id, seq, tapped_at_ns, pointer_x, pointer_y, viewport_w, viewport_h,
			stride, sampled, matched, source_index, target_x, target_y, target_z,
			dist_sq, ray_distance, marker_offset_px, marker_on_target
		FROM picks
		ORDER BY tapped_at_ns DESC, seq DESC
		LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	defer rows.Close()

	var out []PickRecord
	for rows.Next() {
		var (
			r                           PickRecord
			tapID                       string
			seq                         int64
			matched, onTarget           int
			sourceIndex                 sql.NullInt64
			tx, ty, tz, distSq, rayDist sql.NullFloat64
			markerOffset                sql.NullFloat64
		)
		if err := rows.Scan(&tapID, &seq, &r.TappedAtNanos, &r.Pointer.X, &r.Pointer.Y,
			&r.Viewport.Width, &r.Viewport.Height, &r.Stride, &r.Sampled, &matched,
			&sourceIndex, &tx, &ty, &tz, &distSq, &rayDist, &markerOffset, &onTarget); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		if r.TapID, err = uuid.Parse(tapID); err != nil {
			return nil, fmt.Errorf("invalid tap id %q: %w", tapID, err)
		}
		r.Seq = uint64(seq)
		r.Matched = matched != 0
		r.MarkerOnTarget = onTarget != 0
		r.SourceIndex = int(sourceIndex.Int64)
		r.Target = r3.Vec{X: tx.Float64, Y: ty.Float64, Z: tz.Float64}
		r.DistSq = distSq.Float64
		r.RayDistance = rayDist.Float64
		r.MarkerOffsetPx = markerOffset.Float64
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate picks: %w", err)
	}
	return out, nil
}

// CountPicks returns the number of stored picks and how many of them matched.
func (db *DB) CountPicks(ctx context.Context) (total, matched int, err error) {
	row := db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(matched), 0) FROM picks`)
	if err := row.Scan(&total, &matched); err != nil {
		return 0, 0, fmt.Errorf("failed to count picks: %w", err)
	}
	return total, matched, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

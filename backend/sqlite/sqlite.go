package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/flowcov/go-flowcov/internal/metrickeys"
	"github.com/flowcov/go-flowcov/internal/tracing"
	"github.com/flowcov/go-flowcov/log"
	"github.com/flowcov/go-flowcov/metrics"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed db/migrations/*.sql
var migrationsFS embed.FS

var _ backend.Backend = (*sqliteBackend)(nil)

func NewInMemoryBackend(opts ...option) *sqliteBackend {
	b, err := newSqliteBackend("file::memory:", true, opts...)
	if err != nil {
		panic(err)
	}

	return b
}

// NewSqliteBackend opens the database at path and panics if that fails. Use New to handle the error.
func NewSqliteBackend(path string, opts ...option) *sqliteBackend {
	b, err := New(path, opts...)
	if err != nil {
		panic(err)
	}

	return b
}

// New opens the database at path, creating the file and its directory if necessary.
func New(path string, opts ...option) (*sqliteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	return newSqliteBackend(
		fmt.Sprintf("file:%v?_pragma=journal_mode(WAL)&_pragma=busy_timeout(1000)", path), false, opts...)
}

func newSqliteBackend(dsn string, inMemory bool, opts ...option) (*sqliteBackend, error) {
	options := &options{
		Options:         backend.ApplyOptions(),
		ApplyMigrations: true,
		BusyTimeout:     10 * time.Second,
	}

	for _, opt := range opts {
		opt(options)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if inMemory {
		// Every connection would get its own in-memory database
		db.SetMaxOpenConns(1)
	}

	b := &sqliteBackend{
		db:      db,
		options: options,
		tracer:  options.TracerProvider.Tracer(backend.TracerName),
		metrics: options.Metrics.WithTags(metrics.Tags{metrickeys.Backend: "sqlite"}),
	}

	if options.ApplyMigrations {
		if err := b.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
	}

	return b, nil
}

type sqliteBackend struct {
	db      *sql.DB
	options *options
	tracer  trace.Tracer
	metrics metrics.Client
}

// Migrate applies any pending database migrations.
func (sb *sqliteBackend) Migrate() error {
	dbi, err := migratesqlite.WithInstance(sb.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	migrations, err := iofs.New(migrationsFS, "db/migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", migrations, "sqlite", dbi)
	if err != nil {
		return fmt.Errorf("creating migration: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	return nil
}

func (sb *sqliteBackend) Close() error {
	return sb.db.Close()
}

func (sb *sqliteBackend) SaveClassRun(ctx context.Context, run *backend.ClassRun) (err error) {
	if err := backend.ValidateRun(run); err != nil {
		return err
	}

	ctx, span := sb.tracer.Start(ctx, "SaveClassRun", trace.WithAttributes(
		attribute.String(log.RunIDKey, run.ID),
		attribute.String(log.ClassNameKey, run.ClassName),
	))
	defer func() {
		_ = tracing.WithSpanError(span, err)
		span.End()
	}()

	timer := metrics.NewTimer(sb.metrics, sb.options.Clock, metrickeys.RunSaveTime, metrics.Tags{})
	defer timer.Stop()

	data, err := json.Marshal(run.Coverage)
	if err != nil {
		return fmt.Errorf("marshaling coverage: %w", err)
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = sb.options.Clock.Now()
	}

	attempt := 0
	err = sb.retryBusy(ctx, func() error {
		attempt++

		_, err := sb.db.ExecContext(
			ctx,
			"INSERT INTO `class_runs` (id, class_name, created_at, methods, coverage) VALUES (?, ?, ?, ?, ?)",
			run.ID,
			run.ClassName,
			createdAt.UnixNano(),
			len(run.Coverage.Methods),
			data,
		)

		return err
	})
	if err != nil {
		if isErrorCode(err, sqlite3.SQLITE_CONSTRAINT) {
			return backend.ErrRunAlreadyExists
		}

		return fmt.Errorf("inserting class run: %w", err)
	}

	sb.metrics.Counter(metrickeys.RunSaved, metrics.Tags{}, 1)
	sb.options.Logger.Debug("saved class run",
		log.RunIDKey, run.ID,
		log.ClassNameKey, run.ClassName,
		log.AttemptKey, attempt,
	)

	return nil
}

func (sb *sqliteBackend) GetClassRun(ctx context.Context, id string) (*backend.ClassRun, error) {
	row := sb.db.QueryRowContext(
		ctx,
		"SELECT id, class_name, created_at, methods, coverage FROM `class_runs` WHERE id = ?",
		id,
	)

	var createdAt int64
	var data []byte
	run := &backend.ClassRun{}
	if err := row.Scan(&run.ID, &run.ClassName, &createdAt, &run.MethodCount, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.ErrRunNotFound
		}

		return nil, fmt.Errorf("getting class run: %w", err)
	}

	run.CreatedAt = time.Unix(0, createdAt).UTC()

	var s coverage.ClassSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling coverage: %w", err)
	}
	run.Coverage = &s

	return run, nil
}

func (sb *sqliteBackend) ListClassRuns(ctx context.Context, className string) ([]*backend.ClassRun, error) {
	return listClassRuns(ctx, sb.db, className)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listClassRuns(ctx context.Context, q queryer, className string) ([]*backend.ClassRun, error) {
	rows, err := q.QueryContext(
		ctx,
		"SELECT id, class_name, created_at, methods FROM `class_runs` WHERE (? = '' OR class_name = ?) ORDER BY created_at DESC, id DESC",
		className,
		className,
	)
	if err != nil {
		return nil, fmt.Errorf("listing class runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*backend.ClassRun, 0)
	for rows.Next() {
		var createdAt int64
		run := &backend.ClassRun{}
		if err := rows.Scan(&run.ID, &run.ClassName, &createdAt, &run.MethodCount); err != nil {
			return nil, fmt.Errorf("scanning class run: %w", err)
		}

		run.CreatedAt = time.Unix(0, createdAt).UTC()
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing class runs: %w", err)
	}

	return runs, nil
}

func (sb *sqliteBackend) RemoveClassRuns(ctx context.Context, opts ...backend.RemovalOption) (int, error) {
	options := backend.ApplyRemovalOptions(opts...)

	removed := 0
	err := sb.retryBusy(ctx, func() error {
		removed = 0

		tx, err := sb.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		runs, err := listClassRuns(ctx, tx, options.ClassName)
		if err != nil {
			return err
		}

		index := map[string]int{}
		for _, run := range runs {
			i := index[run.ClassName]
			index[run.ClassName]++

			if !options.Removable(run, i) {
				continue
			}

			if _, err := tx.ExecContext(ctx, "DELETE FROM `class_runs` WHERE id = ?", run.ID); err != nil {
				return err
			}

			removed++
		}

		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("removing class runs: %w", err)
	}

	return removed, nil
}

func (sb *sqliteBackend) GetStats(ctx context.Context) (*backend.Stats, error) {
	row := sb.db.QueryRowContext(
		ctx,
		"SELECT COUNT(*), COUNT(DISTINCT class_name), COALESCE(MAX(created_at), 0) FROM `class_runs`",
	)

	s := &backend.Stats{}
	var latest int64
	if err := row.Scan(&s.ClassRuns, &s.Classes, &latest); err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}

	if latest != 0 {
		s.LatestRun = time.Unix(0, latest).UTC()
	}

	return s, nil
}

// retryBusy retries op while another connection or process holds the database lock.
func (sb *sqliteBackend) retryBusy(ctx context.Context, op func() error) error {
	if sb.options.BusyTimeout <= 0 {
		return op()
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     time.Millisecond * 5,
		MaxInterval:         time.Millisecond * 500,
		Multiplier:          1.5,
		RandomizationFactor: 0.5,
		MaxElapsedTime:      sb.options.BusyTimeout,
		Stop:                backoff.Stop,
		Clock:               sb.options.Clock,
	}
	b.Reset()

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !isErrorCode(err, sqlite3.SQLITE_BUSY) {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithContext(b, ctx))
}

func isErrorCode(err error, code int) bool {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		// Extended result codes carry the primary code in the lower byte
		return serr.Code()&0xff == code
	}

	return false
}

package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"galleria/internal/gallery"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users will need to remove the database file after a bump.
const schemaVersion = 1

var (
	// ErrSchemaMismatch indicates the database was created by an
	// incompatible version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
	// ErrRegistrationExists indicates an insert for an id that is already
	// registered.
	ErrRegistrationExists = errors.New("gallery registration already exists")
	// ErrRegistrationNotFound indicates an update for an id that was never
	// registered.
	ErrRegistrationNotFound = errors.New("gallery registration not found")
)

// Store manages gallery registration persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the registration database.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Insert persists a new registration. CreatedAt and UpdatedAt are set
// here.
func (s *Store) Insert(ctx context.Context, reg *Registration) error {
	if reg == nil {
		return errors.New("registration is nil")
	}
	now := time.Now().UTC()
	reg.CreatedAt = now
	reg.UpdatedAt = now

	history, reasons, err := marshalHistory(reg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO galleries (
            id, cron, search_criteria, evaluation_criteria,
            scrape_history, failure_reasons, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.ID.String(),
		reg.Cron,
		nullableRaw(reg.SearchCriteria.Spec),
		nullableRaw(reg.EvaluationCriteria.Spec),
		history,
		reasons,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrRegistrationExists, reg.ID)
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// Update persists changes to an existing registration.
func (s *Store) Update(ctx context.Context, reg *Registration) error {
	if reg == nil {
		return errors.New("registration is nil")
	}
	reg.UpdatedAt = time.Now().UTC()

	history, reasons, err := marshalHistory(reg)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE galleries
         SET cron = ?, search_criteria = ?, evaluation_criteria = ?,
             scrape_history = ?, failure_reasons = ?, updated_at = ?
         WHERE id = ?`,
		reg.Cron,
		nullableRaw(reg.SearchCriteria.Spec),
		nullableRaw(reg.EvaluationCriteria.Spec),
		history,
		reasons,
		reg.UpdatedAt.Format(time.RFC3339Nano),
		reg.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRegistrationNotFound, reg.ID)
	}
	return nil
}

// Delete removes a registration. The bool reports whether a row existed.
func (s *Store) Delete(ctx context.Context, id gallery.ID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM galleries WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("delete registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetByID fetches a registration by gallery id. A missing row returns
// (nil, nil).
func (s *Store) GetByID(ctx context.Context, id gallery.ID) (*Registration, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM galleries WHERE id = ?`, id.String())
	reg, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// List returns all registrations ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Registration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+registrationColumns+` FROM galleries ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []*Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// Count returns the number of registered galleries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM galleries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// Health pings the database and runs an integrity check.
func (s *Store) Health(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("registration database connection unavailable")
	}
	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		return fmt.Errorf("ping registration database: %w", err)
	}
	var result string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if !strings.EqualFold(result, "ok") {
		return fmt.Errorf("integrity check reported %q", result)
	}
	return nil
}

const registrationColumns = "id, cron, search_criteria, evaluation_criteria, scrape_history, failure_reasons, created_at, updated_at"

func scanRegistration(scanner interface{ Scan(dest ...any) error }) (*Registration, error) {
	var (
		id         string
		cronExpr   string
		search     sql.NullString
		eval       sql.NullString
		history    sql.NullString
		reasons    sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &cronExpr, &search, &eval, &history, &reasons, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	reg := &Registration{
		ID:   gallery.ID(id),
		Cron: cronExpr,
	}
	if search.Valid && search.String != "" {
		reg.SearchCriteria.Spec = json.RawMessage(search.String)
	}
	if eval.Valid && eval.String != "" {
		reg.EvaluationCriteria.Spec = json.RawMessage(eval.String)
	}
	if history.Valid && history.String != "" {
		if err := json.Unmarshal([]byte(history.String), &reg.ScrapeHistory); err != nil {
			return nil, fmt.Errorf("decode scrape history: %w", err)
		}
	}
	if reasons.Valid && reasons.String != "" {
		if err := json.Unmarshal([]byte(reasons.String), &reg.FailureReasons); err != nil {
			return nil, fmt.Errorf("decode failure reasons: %w", err)
		}
	}

	var err error
	if reg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if reg.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedRaw); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return reg, nil
}

func marshalHistory(reg *Registration) (any, any, error) {
	var history any
	if len(reg.ScrapeHistory) > 0 {
		data, err := json.Marshal(reg.ScrapeHistory)
		if err != nil {
			return nil, nil, fmt.Errorf("encode scrape history: %w", err)
		}
		history = string(data)
	}
	var reasons any
	if len(reg.FailureReasons) > 0 {
		data, err := json.Marshal(reg.FailureReasons)
		if err != nil {
			return nil, nil, fmt.Errorf("encode failure reasons: %w", err)
		}
		reasons = string(data)
	}
	return history, reasons, nil
}

func nullableRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

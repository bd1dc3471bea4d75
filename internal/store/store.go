// Package store wraps a SQLite-backed key-value table holding the
// Loop Ledger collections as JSON documents, one row per collection.
// It keeps the SPA's localStorage contract: reads fall back to a
// caller-supplied default on a missing key, malformed JSON, or a
// store error, and plain writes swallow failures instead of
// propagating them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"loopledger/internal/core"

	_ "modernc.org/sqlite"
)

// Collection keys. "tips" is the pre-rename income collection and is
// only ever read by the legacy migration.
const (
	KeyLoops      = "loops"
	KeyExpenses   = "expenses"
	KeyIncome     = "income"
	KeySettings   = "settings"
	KeyLegacyTips = "tips"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at dbPath, runs schema
// migrations, and applies the one-time tips-to-income data migration.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db}

	if err := s.MigrateLegacyTips(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate legacy tips: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetRaw returns the stored JSON document for key, or false when the
// key is absent or the store errors.
func (s *Store) GetRaw(ctx context.Context, key string) (json.RawMessage, bool) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM collections WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "Collection read failed", "key", key, "error", err)
		return nil, false
	}
	return json.RawMessage(value), true
}

// SetRaw persists a JSON document under key, replacing any previous
// value. Unlike the typed setters it propagates errors; the backup
// engine needs to know whether an import write landed.
func (s *Store) SetRaw(ctx context.Context, key string, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("write collection %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys unconditionally.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete collection %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Get reads and decodes the collection at key. An absent key, a
// malformed document, or a store error all yield fallback.
func Get[T any](ctx context.Context, s *Store, key string, fallback T) T {
	raw, ok := s.GetRaw(ctx, key)
	if !ok {
		return fallback
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.WarnContext(ctx, "Collection decode failed, using fallback", "key", key, "error", err)
		return fallback
	}
	return out
}

// Set encodes and persists value under key. Failures are logged and
// swallowed; callers cannot distinguish a dropped write from a
// successful one.
func Set[T any](ctx context.Context, s *Store, key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "Collection encode failed, write dropped", "key", key, "error", err)
		return
	}
	if err := s.SetRaw(ctx, key, raw); err != nil {
		slog.WarnContext(ctx, "Collection write dropped", "key", key, "error", err)
	}
}

// SetMulti writes several collections in a single transaction. Used
// where two records are conceptually one action (a loop and its
// derived mileage expense) so a partial write cannot occur.
func (s *Store) SetMulti(ctx context.Context, values map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin multi write: %w", err)
	}
	defer tx.Rollback()

	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode collection %s: %w", key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO collections (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			key, string(raw))
		if err != nil {
			return fmt.Errorf("write collection %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Typed collection accessors.

func (s *Store) Loops(ctx context.Context) []core.Loop {
	return Get(ctx, s, KeyLoops, []core.Loop{})
}

func (s *Store) SetLoops(ctx context.Context, loops []core.Loop) {
	Set(ctx, s, KeyLoops, loops)
}

func (s *Store) Expenses(ctx context.Context) []core.Expense {
	return Get(ctx, s, KeyExpenses, []core.Expense{})
}

func (s *Store) SetExpenses(ctx context.Context, expenses []core.Expense) {
	Set(ctx, s, KeyExpenses, expenses)
}

func (s *Store) Income(ctx context.Context) []core.Income {
	return Get(ctx, s, KeyIncome, []core.Income{})
}

func (s *Store) SetIncome(ctx context.Context, income []core.Income) {
	Set(ctx, s, KeyIncome, income)
}

// Settings always returns a usable record; defaults are substituted
// when the collection is absent or unreadable.
func (s *Store) Settings(ctx context.Context) core.Settings {
	return Get(ctx, s, KeySettings, core.DefaultSettings()).Normalize()
}

func (s *Store) SetSettings(ctx context.Context, settings core.Settings) {
	Set(ctx, s, KeySettings, settings)
}

// MigrateLegacyTips copies the legacy "tips" collection into "income"
// once: only when income is currently empty or absent. Running it
// again is a no-op, since income is then no longer empty.
func (s *Store) MigrateLegacyTips(ctx context.Context) error {
	income := Get(ctx, s, KeyIncome, []core.Income{})
	if len(income) > 0 {
		return nil
	}

	raw, ok := s.GetRaw(ctx, KeyLegacyTips)
	if !ok {
		return nil
	}
	var tips []core.Income
	if err := json.Unmarshal(raw, &tips); err != nil {
		slog.WarnContext(ctx, "Legacy tips collection unreadable, skipping migration", "error", err)
		return nil
	}
	if len(tips) == 0 {
		return nil
	}

	if err := s.SetRaw(ctx, KeyIncome, raw); err != nil {
		return fmt.Errorf("copy tips into income: %w", err)
	}
	slog.InfoContext(ctx, "Migrated legacy tips collection into income", "records", len(tips))
	return nil
}

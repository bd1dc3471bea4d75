// Package backup serializes the full ledger to a portable JSON document
// and restores it wholesale.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"loopledger/internal/core"
	"loopledger/internal/store"
)

// Engine reads and writes whole collections through the store.
type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// document is the backup file layout. Collection values pass through as
// raw JSON so an export/import round trip reproduces them exactly.
type document struct {
	Loops    json.RawMessage `json:"loops"`
	Expenses json.RawMessage `json:"expenses"`
	Income   json.RawMessage `json:"income"`
	Settings json.RawMessage `json:"settings"`
}

// Filename returns the dated download name for an export.
func Filename(now time.Time) string {
	return fmt.Sprintf("loop-ledger-backup-%s.json", now.Format("2006-01-02"))
}

// Export gathers all four collections into a single pretty-printed JSON
// document. Absent collections export as their empty defaults.
func (e *Engine) Export(ctx context.Context) ([]byte, error) {
	doc := document{
		Loops:    e.rawOr(ctx, store.KeyLoops, emptyList),
		Expenses: e.rawOr(ctx, store.KeyExpenses, emptyList),
		Income:   e.rawOr(ctx, store.KeyIncome, emptyList),
		Settings: e.rawOr(ctx, store.KeySettings, defaultSettings()),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return data, nil
}

var emptyList = json.RawMessage(`[]`)

func defaultSettings() json.RawMessage {
	raw, _ := json.Marshal(core.DefaultSettings())
	return raw
}

// rawOr reads a collection for export. A corrupted stored value falls
// back to the default like any other unreadable collection, so an
// export always produces a valid document.
func (e *Engine) rawOr(ctx context.Context, key string, fallback json.RawMessage) json.RawMessage {
	if raw, ok := e.store.GetRaw(ctx, key); ok && json.Valid(raw) {
		return raw
	}
	return fallback
}

// Import restores collections from a backup payload. The payload must
// be a JSON object; anything else is a parse error and nothing is
// written. Keys present in the payload overwrite the store wholesale,
// keys absent are left untouched, and record shapes are not inspected.
// A legacy "tips" key restores into the income collection unless the
// payload also carries "income".
func (e *Engine) Import(ctx context.Context, payload []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("parsing backup: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("parsing backup: payload is not an object")
	}

	if tips, ok := doc["tips"]; ok {
		if _, hasIncome := doc["income"]; !hasIncome {
			doc["income"] = tips
		}
	}

	for _, key := range []string{store.KeyLoops, store.KeyExpenses, store.KeyIncome, store.KeySettings} {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		if err := e.store.SetRaw(ctx, key, raw); err != nil {
			return fmt.Errorf("restoring %s: %w", key, err)
		}
	}
	return nil
}

// Reset clears every collection, including the legacy tips key.
func (e *Engine) Reset(ctx context.Context) error {
	return e.store.Delete(ctx,
		store.KeyLoops,
		store.KeyExpenses,
		store.KeyIncome,
		store.KeySettings,
		store.KeyLegacyTips,
	)
}

// Package services orchestrates writes that span collections: loops
// with their derived mileage expenses, settings with best-effort
// geocoding, and the toast notifications each mutation raises.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"loopledger/internal/core"
	"loopledger/internal/notify"
	"loopledger/internal/store"
)

// ErrNotFound reports an id that matches no record.
var ErrNotFound = errors.New("record not found")

// LoopService coordinates loop writes with the mileage expenses they
// derive.
type LoopService struct {
	store *store.Store
	hub   *notify.Hub
}

func NewLoopService(s *store.Store, hub *notify.Hub) *LoopService {
	return &LoopService{store: s, hub: hub}
}

func (s *LoopService) List(ctx context.Context) []core.Loop {
	return s.store.Loops(ctx)
}

// Create validates and persists a new loop. Miles are derived from the
// home/course coordinates when the caller left them blank, and when
// auto-mileage applies the derived expense is written in the same
// transaction as the loop so neither lands without the other.
func (s *LoopService) Create(ctx context.Context, loop core.Loop) (core.Loop, error) {
	loop.ID = uuid.New().String()
	settings := s.store.Settings(ctx)

	if loop.Miles == 0 {
		loop.Miles = deriveMiles(loop, settings)
	}
	if err := loop.Validate(); err != nil {
		return core.Loop{}, fmt.Errorf("validate loop: %w", err)
	}

	loops := append([]core.Loop{loop}, s.store.Loops(ctx)...)

	expense, derived := core.MileageExpense(loop, settings, uuid.New().String())
	if !derived {
		s.store.SetLoops(ctx, loops)
		s.publish(ctx, notify.KindSuccess, "Loop added!")
		return loop, nil
	}

	expenses := append([]core.Expense{expense}, s.store.Expenses(ctx)...)
	err := s.store.SetMulti(ctx, map[string]any{
		store.KeyLoops:    loops,
		store.KeyExpenses: expenses,
	})
	if err != nil {
		return core.Loop{}, fmt.Errorf("save loop with mileage expense: %w", err)
	}
	s.publish(ctx, notify.KindSuccess,
		fmt.Sprintf("Loop added! Mileage expense $%.2f recorded.", expense.Amount))
	return loop, nil
}

// Update replaces the loop with the same id, keeping its position.
func (s *LoopService) Update(ctx context.Context, loop core.Loop) error {
	if err := loop.Validate(); err != nil {
		return fmt.Errorf("validate loop: %w", err)
	}
	loops := s.store.Loops(ctx)
	for i := range loops {
		if loops[i].ID == loop.ID {
			loops[i] = loop
			s.store.SetLoops(ctx, loops)
			s.publish(ctx, notify.KindSuccess, "Loop updated!")
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes exactly the loop with the given id; the others keep
// their relative order.
func (s *LoopService) Delete(ctx context.Context, id string) error {
	loops := s.store.Loops(ctx)
	for i := range loops {
		if loops[i].ID == id {
			s.store.SetLoops(ctx, append(loops[:i:i], loops[i+1:]...))
			s.publish(ctx, notify.KindInfo, "Loop deleted.")
			return nil
		}
	}
	return ErrNotFound
}

// deriveMiles computes the distance from home to the course. Zero when
// either endpoint has no coordinates.
func deriveMiles(loop core.Loop, settings core.Settings) float64 {
	if settings.HomeLat == nil || settings.HomeLng == nil ||
		loop.CourseLat == nil || loop.CourseLng == nil {
		return 0
	}
	return core.Round1(core.HaversineMiles(
		*settings.HomeLat, *settings.HomeLng,
		*loop.CourseLat, *loop.CourseLng))
}

func (s *LoopService) publish(ctx context.Context, kind, message string) {
	if s.hub == nil {
		slog.DebugContext(ctx, "No notification hub, skipping toast", "message", message)
		return
	}
	s.hub.Publish(ctx, kind, message)
}

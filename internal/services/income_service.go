package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"loopledger/internal/core"
	"loopledger/internal/notify"
	"loopledger/internal/store"
)

// IncomeService handles side income entries (lessons, outings, tips
// recorded outside a loop).
type IncomeService struct {
	store *store.Store
	hub   *notify.Hub
}

func NewIncomeService(s *store.Store, hub *notify.Hub) *IncomeService {
	return &IncomeService{store: s, hub: hub}
}

func (s *IncomeService) List(ctx context.Context) []core.Income {
	return s.store.Income(ctx)
}

func (s *IncomeService) Create(ctx context.Context, income core.Income) (core.Income, error) {
	income.ID = uuid.New().String()
	if err := income.Validate(); err != nil {
		return core.Income{}, fmt.Errorf("validate income: %w", err)
	}
	s.store.SetIncome(ctx, append([]core.Income{income}, s.store.Income(ctx)...))
	if s.hub != nil {
		s.hub.Publish(ctx, notify.KindSuccess, "Income added!")
	}
	return income, nil
}

func (s *IncomeService) Update(ctx context.Context, income core.Income) error {
	if err := income.Validate(); err != nil {
		return fmt.Errorf("validate income: %w", err)
	}
	records := s.store.Income(ctx)
	for i := range records {
		if records[i].ID == income.ID {
			records[i] = income
			s.store.SetIncome(ctx, records)
			if s.hub != nil {
				s.hub.Publish(ctx, notify.KindSuccess, "Income updated!")
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *IncomeService) Delete(ctx context.Context, id string) error {
	records := s.store.Income(ctx)
	for i := range records {
		if records[i].ID == id {
			s.store.SetIncome(ctx, append(records[:i:i], records[i+1:]...))
			if s.hub != nil {
				s.hub.Publish(ctx, notify.KindInfo, "Income deleted.")
			}
			return nil
		}
	}
	return ErrNotFound
}

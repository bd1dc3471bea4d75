package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"loopledger/internal/core"
	"loopledger/internal/notify"
	"loopledger/internal/store"
)

// ExpenseService handles manual expense entries. Derived mileage
// expenses are written by LoopService but deleted and edited here like
// any other expense.
type ExpenseService struct {
	store *store.Store
	hub   *notify.Hub
}

func NewExpenseService(s *store.Store, hub *notify.Hub) *ExpenseService {
	return &ExpenseService{store: s, hub: hub}
}

func (s *ExpenseService) List(ctx context.Context) []core.Expense {
	return s.store.Expenses(ctx)
}

func (s *ExpenseService) Create(ctx context.Context, expense core.Expense) (core.Expense, error) {
	expense.ID = uuid.New().String()
	if err := expense.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}
	s.store.SetExpenses(ctx, append([]core.Expense{expense}, s.store.Expenses(ctx)...))
	if s.hub != nil {
		s.hub.Publish(ctx, notify.KindSuccess, "Expense added!")
	}
	return expense, nil
}

func (s *ExpenseService) Update(ctx context.Context, expense core.Expense) error {
	if err := expense.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}
	expenses := s.store.Expenses(ctx)
	for i := range expenses {
		if expenses[i].ID == expense.ID {
			expenses[i] = expense
			s.store.SetExpenses(ctx, expenses)
			if s.hub != nil {
				s.hub.Publish(ctx, notify.KindSuccess, "Expense updated!")
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	expenses := s.store.Expenses(ctx)
	for i := range expenses {
		if expenses[i].ID == id {
			s.store.SetExpenses(ctx, append(expenses[:i:i], expenses[i+1:]...))
			if s.hub != nil {
				s.hub.Publish(ctx, notify.KindInfo, "Expense deleted.")
			}
			return nil
		}
	}
	return ErrNotFound
}

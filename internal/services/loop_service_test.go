package services

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"loopledger/internal/core"
	"loopledger/internal/notify"
	"loopledger/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(v float64) *float64 { return &v }

func TestLoopCreateDerivesMilesAndExpense(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	st.SetSettings(ctx, core.Settings{
		HomeAddress: "equator",
		HomeLat:     ptr(0), HomeLng: ptr(0),
		MileageRate: 0.67,
		AutoMileage: true,
	})

	hub := notify.NewHub(time.Minute)
	svc := NewLoopService(st, hub)

	created, err := svc.Create(ctx, core.Loop{
		Date:      "2025-06-15",
		Course:    "Equator GC",
		BagFee:    80,
		Tip:       40,
		CourseLat: ptr(0), CourseLng: ptr(1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("no id assigned")
	}
	// One degree of longitude at the equator, rounded to a tenth.
	if created.Miles != 69.1 {
		t.Fatalf("derived miles = %v", created.Miles)
	}

	expenses := st.Expenses(ctx)
	if len(expenses) != 1 {
		t.Fatalf("expected derived expense, got %d", len(expenses))
	}
	e := expenses[0]
	if want := core.Round2(69.1 * 0.67); math.Abs(e.Amount-want) > 1e-9 {
		t.Fatalf("expense amount = %v, want %v", e.Amount, want)
	}
	if !strings.Contains(e.Category, "69.1 mi") || !strings.Contains(e.Category, "$0.67/mi") {
		t.Fatalf("category = %q", e.Category)
	}
	if e.Date != created.Date || e.Notes != "Equator GC" {
		t.Fatalf("expense = %+v", e)
	}
	if e.ID == created.ID {
		t.Fatalf("expense shares the loop's id")
	}

	events := hub.Recent()
	if len(events) != 1 || events[0].Kind != notify.KindSuccess {
		t.Fatalf("events = %+v", events)
	}
}

func TestLoopCreateExplicitMilesWin(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	st.SetSettings(ctx, core.Settings{
		HomeLat: ptr(0), HomeLng: ptr(0),
		MileageRate: 0.67, AutoMileage: true,
	})
	svc := NewLoopService(st, nil)

	created, err := svc.Create(ctx, core.Loop{
		Date: "2025-06-15", Course: "c",
		Miles:     10,
		CourseLat: ptr(0), CourseLng: ptr(1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Miles != 10 {
		t.Fatalf("explicit miles overridden: %v", created.Miles)
	}
	if got := st.Expenses(ctx); len(got) != 1 || got[0].Amount != 6.7 {
		t.Fatalf("expenses = %+v", got)
	}
}

func TestLoopCreateNoAutoMileage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	st.SetSettings(ctx, core.Settings{MileageRate: 0.67, AutoMileage: false})
	svc := NewLoopService(st, nil)

	if _, err := svc.Create(ctx, core.Loop{Date: "2025-06-15", Course: "c", Miles: 10}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := st.Expenses(ctx); len(got) != 0 {
		t.Fatalf("expense derived with autoMileage off: %+v", got)
	}
	if got := st.Loops(ctx); len(got) != 1 {
		t.Fatalf("loops = %+v", got)
	}
}

func TestLoopCreateMissingCoordinates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	st.SetSettings(ctx, core.Settings{MileageRate: 0.67, AutoMileage: true})
	svc := NewLoopService(st, nil)

	created, err := svc.Create(ctx, core.Loop{Date: "2025-06-15", Course: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Miles != 0 {
		t.Fatalf("miles conjured without coordinates: %v", created.Miles)
	}
	if got := st.Expenses(ctx); len(got) != 0 {
		t.Fatalf("expense derived without miles: %+v", got)
	}
}

func TestLoopCreateValidates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	svc := NewLoopService(st, nil)

	if _, err := svc.Create(ctx, core.Loop{Date: "2025-06-15", Course: "   "}); !errors.Is(err, core.ErrEmptyCourse) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Create(ctx, core.Loop{Date: "June 15", Course: "c"}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("err = %v", err)
	}
	if got := st.Loops(ctx); len(got) != 0 {
		t.Fatalf("invalid loop persisted: %+v", got)
	}
}

func TestLoopCreatePrepends(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	svc := NewLoopService(st, nil)

	first, _ := svc.Create(ctx, core.Loop{Date: "2025-06-01", Course: "a"})
	second, _ := svc.Create(ctx, core.Loop{Date: "2025-06-02", Course: "b"})

	got := st.Loops(ctx)
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("newest not first: %+v", got)
	}
}

func TestLoopDeletePreservesOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	svc := NewLoopService(st, nil)

	var ids []string
	for _, course := range []string{"a", "b", "c"} {
		l, err := svc.Create(ctx, core.Loop{Date: "2025-06-01", Course: course})
		if err != nil {
			t.Fatalf("create %s: %v", course, err)
		}
		ids = append(ids, l.ID)
	}
	// Stored newest first: c, b, a. Remove the middle one.
	if err := svc.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := st.Loops(ctx)
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[0] {
		t.Fatalf("order disturbed: %+v", got)
	}

	if err := svc.Delete(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoopUpdateInPlace(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	svc := NewLoopService(st, nil)

	a, _ := svc.Create(ctx, core.Loop{Date: "2025-06-01", Course: "a"})
	b, _ := svc.Create(ctx, core.Loop{Date: "2025-06-02", Course: "b"})

	a.Tip = 50
	if err := svc.Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := st.Loops(ctx)
	if got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatalf("update moved the record: %+v", got)
	}
	if got[1].Tip != 50 {
		t.Fatalf("update lost fields: %+v", got[1])
	}

	missing := a
	missing.ID = "no-such-id"
	if err := svc.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

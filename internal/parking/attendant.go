package parking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/base-14/examples/go/parking-rules/internal/logging"
)

type CategoryStatus struct {
	Category  Category
	Occupied  int
	Limit     int
	Available int
}

type Status struct {
	Categories []CategoryStatus
	Active     []*SlotRecord
}

// Attendant runs the entry and exit workflows against a Store. Reading the
// snapshot, evaluating the rules and writing the record happen under one
// lock so concurrent entries cannot exceed a category limit.
type Attendant struct {
	engine *Engine
	store  Store
	now    func() time.Time

	mu sync.Mutex
}

func NewAttendant(engine *Engine, store Store, clock func() time.Time) *Attendant {
	if clock == nil {
		clock = time.Now
	}
	return &Attendant{
		engine: engine,
		store:  store,
		now:    clock,
	}
}

func (a *Attendant) Enter(ctx context.Context, v *Vehicle) (*SlotRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.engine.Admit(ctx, v, a.now())
	if err != nil {
		if IsRejection(err) {
			logging.Info(ctx).Err(err).Str("plate", plateOf(v)).Msg("entry rejected")
		}
		return nil, err
	}

	if err := a.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	logging.Info(ctx).
		Str("plate", rec.Vehicle.Plate()).
		Str("category", rec.Vehicle.Category().String()).
		Str("record_id", rec.ID.String()).
		Msg("vehicle entered")

	return rec.Clone(), nil
}

// Exit settles the active stay of plate, closes it in the store and returns
// the closed record.
func (a *Attendant) Exit(ctx context.Context, plate string) (*SlotRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.store.FindActive(ctx, plate)
	if err != nil {
		return nil, err
	}

	now := a.now()
	amount, err := a.engine.Settle(rec, now)
	if err != nil {
		return nil, fmt.Errorf("settle %s: %w", plate, err)
	}

	if err := a.store.Complete(ctx, rec.ID, now, amount); err != nil {
		return nil, err
	}

	closed := rec.Clone()
	if err := closed.Close(now, amount); err != nil {
		return nil, err
	}

	logging.Info(ctx).
		Str("plate", plate).
		Int64("amount", amount).
		Dur("elapsed", now.Sub(rec.EntryTime)).
		Msg("vehicle exited")

	return closed, nil
}

// Quote prices the active stay of plate as if it ended now.
func (a *Attendant) Quote(ctx context.Context, plate string) (*SlotRecord, int64, error) {
	rec, err := a.store.FindActive(ctx, plate)
	if err != nil {
		return nil, 0, err
	}

	amount, err := a.engine.Settle(rec, a.now())
	if err != nil {
		return nil, 0, err
	}
	return rec, amount, nil
}

func (a *Attendant) Find(ctx context.Context, plate string) (*SlotRecord, error) {
	return a.store.FindActive(ctx, plate)
}

func (a *Attendant) Status(ctx context.Context) (*Status, error) {
	active, err := a.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{Active: active}
	for _, category := range Categories {
		occupied := CountActive(active, category)
		limit := a.engine.Limit(category)
		status.Categories = append(status.Categories, CategoryStatus{
			Category:  category,
			Occupied:  occupied,
			Limit:     limit,
			Available: max(limit-occupied, 0),
		})
	}
	return status, nil
}

func (a *Attendant) History(ctx context.Context, limit int) ([]*SlotRecord, error) {
	return a.store.History(ctx, limit)
}

func (a *Attendant) Engine() *Engine {
	return a.engine
}

func plateOf(v *Vehicle) string {
	if v == nil {
		return ""
	}
	return v.Plate()
}

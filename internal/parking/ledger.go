package parking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ledger exposes the active stays. The engine treats the result as a
// read-only snapshot.
type Ledger interface {
	ListActive(ctx context.Context) ([]*SlotRecord, error)
}

// Store is the persistence side of the occupancy ledger used by the
// attendant workflow.
type Store interface {
	Ledger

	// Insert fails with ErrAlreadyParked if the plate already has an active
	// record.
	Insert(ctx context.Context, rec *SlotRecord) error
	// FindActive fails with ErrNotFound if the plate is not parked.
	FindActive(ctx context.Context, plate string) (*SlotRecord, error)
	Complete(ctx context.Context, id uuid.UUID, exit time.Time, amount int64) error
	// History returns closed records, most recent exit first.
	History(ctx context.Context, limit int) ([]*SlotRecord, error)
}

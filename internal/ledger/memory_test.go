package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/base-14/examples/go/parking-rules/internal/parking"
)

var start = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)

func newRecord(t *testing.T, plate string, category parking.Category, entry time.Time) *parking.SlotRecord {
	t.Helper()
	v, err := parking.NewVehicle(plate, category, 150)
	require.NoError(t, err)
	return parking.NewSlotRecord(*v, entry)
}

func TestMemoryInsertAndList(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Insert(ctx, newRecord(t, "BCD2", parking.Car, start.Add(time.Hour))))
	require.NoError(t, m.Insert(ctx, newRecord(t, "BCD1", parking.Motorcycle, start)))

	active, err := m.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "BCD1", active[0].Vehicle.Plate())
	assert.Equal(t, "BCD2", active[1].Vehicle.Plate())
}

func TestMemoryRejectsSecondActiveRecordForPlate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Insert(ctx, newRecord(t, "BCD1", parking.Car, start)))
	require.ErrorIs(t, m.Insert(ctx, newRecord(t, "bcd1", parking.Car, start)), parking.ErrAlreadyParked)
}

func TestMemoryCompleteMovesRecordToHistory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first := newRecord(t, "BCD1", parking.Car, start)
	second := newRecord(t, "BCD2", parking.Car, start)
	require.NoError(t, m.Insert(ctx, first))
	require.NoError(t, m.Insert(ctx, second))

	require.NoError(t, m.Complete(ctx, first.ID, start.Add(2*time.Hour), 2000))
	require.NoError(t, m.Complete(ctx, second.ID, start.Add(3*time.Hour), 3000))

	_, err := m.FindActive(ctx, "BCD1")
	require.ErrorIs(t, err, parking.ErrNotFound)

	history, err := m.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "BCD2", history[0].Vehicle.Plate())
	assert.Equal(t, int64(3000), *history[0].AmountCharged)

	limited, err := m.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// The plate may park again once its stay is closed.
	require.NoError(t, m.Insert(ctx, newRecord(t, "BCD1", parking.Car, start.Add(4*time.Hour))))
}

func TestMemoryCompleteUnknownRecord(t *testing.T) {
	m := NewMemory()
	require.ErrorIs(t, m.Complete(context.Background(), uuid.New(), start, 0), parking.ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec := newRecord(t, "BCD1", parking.Car, start)
	require.NoError(t, m.Insert(ctx, rec))

	found, err := m.FindActive(ctx, "BCD1")
	require.NoError(t, err)
	require.NoError(t, found.Close(start.Add(time.Hour), 1000))

	active, err := m.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].IsActive())
}

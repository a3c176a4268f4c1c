package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlotRecord(t *testing.T) {
	v := mustCar(t, "BCD123")
	rec := NewSlotRecord(*v, entryTime)

	assert.True(t, rec.IsActive())
	assert.Nil(t, rec.AmountCharged)
	assert.Equal(t, entryTime, rec.EntryTime)
	assert.Equal(t, "BCD123", rec.Vehicle.Plate())
}

func TestSlotRecordClose(t *testing.T) {
	rec := NewSlotRecord(*mustCar(t, "BCD123"), entryTime)
	exit := entryTime.Add(3 * time.Hour)

	require.NoError(t, rec.Close(exit, 3000))
	assert.False(t, rec.IsActive())
	assert.Equal(t, exit, *rec.ExitTime)
	assert.Equal(t, int64(3000), *rec.AmountCharged)

	require.ErrorIs(t, rec.Close(exit.Add(time.Hour), 4000), ErrRecordClosed)
	assert.Equal(t, int64(3000), *rec.AmountCharged)
}

func TestSlotRecordCloseBeforeEntry(t *testing.T) {
	rec := NewSlotRecord(*mustCar(t, "BCD123"), entryTime)

	var interval *InvalidIntervalError
	require.ErrorAs(t, rec.Close(entryTime.Add(-time.Minute), 0), &interval)
	assert.True(t, rec.IsActive())
}

func TestSlotRecordClone(t *testing.T) {
	rec := NewSlotRecord(*mustCar(t, "BCD123"), entryTime)
	require.NoError(t, rec.Close(entryTime.Add(time.Hour), 1000))

	clone := rec.Clone()
	*clone.AmountCharged = 0

	assert.Equal(t, int64(1000), *rec.AmountCharged)
	assert.Equal(t, rec.ID, clone.ID)
}

package parking

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeRecords(t *testing.T, category Category, n int) []*SlotRecord {
	t.Helper()
	records := make([]*SlotRecord, 0, n)
	for i := 0; i < n; i++ {
		v, err := NewVehicle(fmt.Sprintf("BBC-%d", 100+i), category, 500)
		require.NoError(t, err)
		records = append(records, NewSlotRecord(*v, entryTime))
	}
	return records
}

func TestHasAvailableSlotScenarios(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		parked   int
		wantErr  bool
	}{
		{"9 motorcycles", Motorcycle, 9, false},
		{"10 motorcycles", Motorcycle, 10, true},
		{"19 motorcycles", Motorcycle, 19, true},
		{"15 cars", Car, 15, false},
		{"19 cars", Car, 19, false},
		{"20 cars", Car, 20, true},
		{"22 cars", Car, 22, true},
	}

	rule := NewCapacityRule(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVehicle("BCD-999", tt.category, 150)
			require.NoError(t, err)

			ok, err := rule.HasAvailableSlot(v, activeRecords(t, tt.category, tt.parked))
			if !tt.wantErr {
				require.NoError(t, err)
				assert.True(t, ok)
				return
			}

			assert.False(t, ok)
			var capacity *CapacityError
			require.True(t, errors.As(err, &capacity))
			assert.Equal(t, CapacityMessage, capacity.Message)
			assert.Equal(t, tt.category, capacity.Category)
		})
	}
}

func TestHasAvailableSlotCountsOnlyMatchingActiveRecords(t *testing.T) {
	rule := NewCapacityRule(nil)

	records := activeRecords(t, Motorcycle, MotorcycleSlotLimit)
	for _, rec := range records[:3] {
		require.NoError(t, rec.Close(entryTime.Add(time.Hour), 500))
	}
	records = append(records, activeRecords(t, Car, 5)...)

	ok, err := rule.HasAvailableSlot(mustMotorcycle(t, "BCD-999", 125), records)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, CountActive(records, Motorcycle))
	assert.Equal(t, 5, CountActive(records, Car))
}

func TestHasAvailableSlotCustomLimits(t *testing.T) {
	rule := NewCapacityRule(SlotLimits{Car: 2})

	assert.Equal(t, 2, rule.Limit(Car))
	assert.Equal(t, MotorcycleSlotLimit, rule.Limit(Motorcycle))

	_, err := rule.HasAvailableSlot(mustCar(t, "BCD-999"), activeRecords(t, Car, 2))
	require.Error(t, err)
}

func TestHasAvailableSlotNilVehicle(t *testing.T) {
	_, err := NewCapacityRule(nil).HasAvailableSlot(nil, nil)
	require.ErrorIs(t, err, ErrMissingVehicle)
}

package parking

import (
	"time"

	"github.com/google/uuid"
)

// SlotRecord is one stay in the lot. It is active until Close sets the exit
// time and the amount charged.
type SlotRecord struct {
	ID            uuid.UUID
	Vehicle       Vehicle
	EntryTime     time.Time
	ExitTime      *time.Time
	AmountCharged *int64
}

func NewSlotRecord(v Vehicle, entry time.Time) *SlotRecord {
	return &SlotRecord{
		ID:        uuid.New(),
		Vehicle:   v,
		EntryTime: entry,
	}
}

func (s *SlotRecord) IsActive() bool {
	return s.ExitTime == nil
}

func (s *SlotRecord) Close(exit time.Time, amount int64) error {
	if !s.IsActive() {
		return ErrRecordClosed
	}
	if exit.Before(s.EntryTime) {
		return &InvalidIntervalError{Entry: s.EntryTime, Exit: exit}
	}
	s.ExitTime = &exit
	s.AmountCharged = &amount
	return nil
}

// Clone returns a deep copy so callers never share the pointers of a stored
// record.
func (s *SlotRecord) Clone() *SlotRecord {
	c := *s
	if s.ExitTime != nil {
		exit := *s.ExitTime
		c.ExitTime = &exit
	}
	if s.AmountCharged != nil {
		amount := *s.AmountCharged
		c.AmountCharged = &amount
	}
	return &c
}

package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/base-14/examples/go/parking-rules/internal/parking"
)

// Memory keeps every stay in process. Active records are indexed by plate.
type Memory struct {
	mu      sync.RWMutex
	records []*parking.SlotRecord
	active  map[string]*parking.SlotRecord
}

func NewMemory() *Memory {
	return &Memory{
		active: make(map[string]*parking.SlotRecord),
	}
}

func plateKey(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func (m *Memory) Insert(_ context.Context, rec *parking.SlotRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := plateKey(rec.Vehicle.Plate())
	if _, ok := m.active[key]; ok {
		return parking.ErrAlreadyParked
	}

	stored := rec.Clone()
	m.records = append(m.records, stored)
	if stored.IsActive() {
		m.active[key] = stored
	}
	return nil
}

func (m *Memory) ListActive(_ context.Context) ([]*parking.SlotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]*parking.SlotRecord, 0, len(m.active))
	for _, rec := range m.active {
		active = append(active, rec.Clone())
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].EntryTime.Before(active[j].EntryTime)
	})

	return active, nil
}

func (m *Memory) FindActive(_ context.Context, plate string) (*parking.SlotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.active[plateKey(plate)]
	if !ok {
		return nil, parking.ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) Complete(_ context.Context, id uuid.UUID, exit time.Time, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, rec := range m.active {
		if rec.ID != id {
			continue
		}
		if err := rec.Close(exit, amount); err != nil {
			return err
		}
		delete(m.active, key)
		return nil
	}
	return parking.ErrNotFound
}

func (m *Memory) History(_ context.Context, limit int) ([]*parking.SlotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var closed []*parking.SlotRecord
	for _, rec := range m.records {
		if !rec.IsActive() {
			closed = append(closed, rec.Clone())
		}
	}

	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].ExitTime.After(*closed[j].ExitTime)
	})

	if limit > 0 && len(closed) > limit {
		closed = closed[:limit]
	}
	return closed, nil
}

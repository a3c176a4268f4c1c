package parking

const (
	CarSlotLimit        = 20
	MotorcycleSlotLimit = 10
)

type SlotLimits map[Category]int

func DefaultSlotLimits() SlotLimits {
	return SlotLimits{
		Car:        CarSlotLimit,
		Motorcycle: MotorcycleSlotLimit,
	}
}

type CapacityRule struct {
	limits SlotLimits
}

func NewCapacityRule(limits SlotLimits) *CapacityRule {
	merged := DefaultSlotLimits()
	for category, limit := range limits {
		merged[category] = limit
	}
	return &CapacityRule{limits: merged}
}

func (r *CapacityRule) Limit(category Category) int {
	return r.limits[category]
}

// HasAvailableSlot counts the active records of the vehicle's category and
// fails once that count reaches the category limit.
func (r *CapacityRule) HasAvailableSlot(v *Vehicle, active []*SlotRecord) (bool, error) {
	if v == nil {
		return false, ErrMissingVehicle
	}

	limit := r.Limit(v.Category())
	if CountActive(active, v.Category()) >= limit {
		return false, &CapacityError{
			Message:  CapacityMessage,
			Category: v.Category(),
			Limit:    limit,
		}
	}
	return true, nil
}

func CountActive(records []*SlotRecord, category Category) int {
	count := 0
	for _, rec := range records {
		if rec != nil && rec.IsActive() && rec.Vehicle.Category() == category {
			count++
		}
	}
	return count
}

package parking

import (
	"context"
	"fmt"
	"time"
)

// Rules is the configuration of the rules engine.
type Rules struct {
	Tariffs     TariffTable
	GracePeriod time.Duration
	Limits      SlotLimits
	// Restricted decides weekday restrictions. Nil means
	// DefaultWeekdayPolicy.
	Restricted RestrictionPredicate
	// Location is used to derive the calendar day of an entry. Nil means
	// time.Local.
	Location *time.Location
}

func DefaultRules() Rules {
	return Rules{
		Tariffs:     DefaultTariffTable(),
		GracePeriod: DefaultGracePeriod,
		Limits:      DefaultSlotLimits(),
		Restricted:  DefaultWeekdayPolicy().Restricted,
		Location:    time.Local,
	}
}

// Engine composes the restriction, capacity and tariff rules. It holds no
// mutable state; callers serialize Admit with the ledger write.
type Engine struct {
	ledger      Ledger
	restriction *RestrictionRule
	capacity    *CapacityRule
	tariff      *TariffCalculator
	location    *time.Location
}

func NewEngine(ledger Ledger, rules Rules) (*Engine, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if err := rules.Tariffs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tariffs: %w", err)
	}
	for category, limit := range rules.Limits {
		if limit < 0 {
			return nil, fmt.Errorf("invalid %s slot limit: %d", category, limit)
		}
	}

	location := rules.Location
	if location == nil {
		location = time.Local
	}

	return &Engine{
		ledger:      ledger,
		restriction: NewRestrictionRule(rules.Restricted),
		capacity:    NewCapacityRule(rules.Limits),
		tariff:      NewTariffCalculator(rules.Tariffs, rules.GracePeriod),
		location:    location,
	}, nil
}

// Admit checks the entry restriction for today's weekday and then the
// capacity of the vehicle's category. On success it returns a new active
// record that the caller must persist.
func (e *Engine) Admit(ctx context.Context, v *Vehicle, today time.Time) (*SlotRecord, error) {
	if _, err := e.restriction.IsEntryAllowed(v, today.In(e.location).Weekday()); err != nil {
		return nil, err
	}

	active, err := e.ledger.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active records: %w", err)
	}

	if _, err := e.capacity.HasAvailableSlot(v, active); err != nil {
		return nil, err
	}

	return NewSlotRecord(*v, today), nil
}

// Settle prices a stay from its entry time to now. The record is not
// modified.
func (e *Engine) Settle(rec *SlotRecord, now time.Time) (int64, error) {
	if rec == nil {
		return 0, ErrNotFound
	}
	vehicle := rec.Vehicle
	return e.tariff.CalculateFee(rec.EntryTime, now, &vehicle)
}

func (e *Engine) Limit(category Category) int {
	return e.capacity.Limit(category)
}

func (e *Engine) Tariffs() TariffTable {
	return e.tariff.Table()
}

package parking

import (
	"fmt"
	"strings"
	"time"
)

// RestrictionPredicate reports whether a plate class is barred on a weekday.
type RestrictionPredicate func(plateClass string, day time.Weekday) bool

// WeekdayPolicy maps a plate class to the weekdays it may not enter.
// Classes that are not listed are never restricted.
type WeekdayPolicy map[string][]time.Weekday

// DefaultWeekdayPolicy only holds the confirmed case: class A plates are
// barred on Wednesdays.
func DefaultWeekdayPolicy() WeekdayPolicy {
	return WeekdayPolicy{
		"A": {time.Wednesday},
	}
}

func (p WeekdayPolicy) Restricted(plateClass string, day time.Weekday) bool {
	for _, d := range p[strings.ToUpper(plateClass)] {
		if d == day {
			return true
		}
	}
	return false
}

// ParseWeekday accepts English or Spanish day names, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun", "domingo":
		return time.Sunday, nil
	case "monday", "mon", "lunes":
		return time.Monday, nil
	case "tuesday", "tue", "martes":
		return time.Tuesday, nil
	case "wednesday", "wed", "miercoles", "miércoles":
		return time.Wednesday, nil
	case "thursday", "thu", "jueves":
		return time.Thursday, nil
	case "friday", "fri", "viernes":
		return time.Friday, nil
	case "saturday", "sat", "sabado", "sábado":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
}

type RestrictionRule struct {
	restricted RestrictionPredicate
}

func NewRestrictionRule(predicate RestrictionPredicate) *RestrictionRule {
	if predicate == nil {
		predicate = DefaultWeekdayPolicy().Restricted
	}
	return &RestrictionRule{restricted: predicate}
}

// IsEntryAllowed never returns false without a *RestrictionError. A nil
// vehicle is rejected the same way a restricted one is.
func (r *RestrictionRule) IsEntryAllowed(v *Vehicle, day time.Weekday) (bool, error) {
	if v == nil {
		return false, newRestrictionError(nil, day)
	}
	if r.restricted(v.PlateClass(), day) {
		return false, newRestrictionError(v, day)
	}
	return true, nil
}

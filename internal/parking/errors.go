package parking

import (
	"errors"
	"fmt"
	"time"
)

const (
	RestrictionMessage = "Tiene restricciones: No es un dia habil para su vehiculo"
	CapacityMessage    = "Cupo no disponible"
)

var (
	ErrMissingVehicle  = errors.New("vehicle is required")
	ErrEmptyPlate      = errors.New("plate is required")
	ErrUnknownCategory = errors.New("unknown vehicle category")
	ErrRecordClosed    = errors.New("slot record is already closed")

	// Returned by Store implementations.
	ErrAlreadyParked = errors.New("vehicle is already parked")
	ErrNotFound      = errors.New("vehicle not found")
)

// RestrictionError rejects an entry because the plate class may not enter on
// the given day, or because no vehicle was supplied.
type RestrictionError struct {
	Message string
	Plate   string
	Day     time.Weekday
}

func (e *RestrictionError) Error() string {
	return e.Message
}

func newRestrictionError(v *Vehicle, day time.Weekday) *RestrictionError {
	err := &RestrictionError{Message: RestrictionMessage, Day: day}
	if v != nil {
		err.Plate = v.Plate()
	}
	return err
}

// CapacityError rejects an entry because the vehicle's category is full.
type CapacityError struct {
	Message  string
	Category Category
	Limit    int
}

func (e *CapacityError) Error() string {
	return e.Message
}

type InvalidIntervalError struct {
	Entry time.Time
	Exit  time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("exit time %s is before entry time %s",
		e.Exit.Format(time.RFC3339), e.Entry.Format(time.RFC3339))
}

// IsRejection reports whether err is one of the expected entry rejections.
func IsRejection(err error) bool {
	var restriction *RestrictionError
	var capacity *CapacityError
	return errors.As(err, &restriction) || errors.As(err, &capacity)
}

package parking

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Category int

const (
	Car Category = iota + 1
	Motorcycle
)

// Categories lists every category the lot accepts, in display order.
var Categories = []Category{Car, Motorcycle}

func (c Category) String() string {
	switch c {
	case Car:
		return "car"
	case Motorcycle:
		return "motorcycle"
	default:
		return "unknown"
	}
}

func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car", "carro":
		return Car, nil
	case "motorcycle", "moto":
		return Motorcycle, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// Vehicle is immutable once built; copy it by value to hand out an owned copy.
type Vehicle struct {
	plate              string
	category           Category
	engineDisplacement int
}

func NewCar(plate string) (*Vehicle, error) {
	return NewVehicle(plate, Car, 0)
}

func NewMotorcycle(plate string, engineDisplacement int) (*Vehicle, error) {
	return NewVehicle(plate, Motorcycle, engineDisplacement)
}

// NewVehicle validates the plate and category. Engine displacement is only
// kept for motorcycles.
func NewVehicle(plate string, category Category, engineDisplacement int) (*Vehicle, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, ErrEmptyPlate
	}

	switch category {
	case Car:
		engineDisplacement = 0
	case Motorcycle:
		if engineDisplacement < 0 {
			return nil, fmt.Errorf("invalid engine displacement: %d", engineDisplacement)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(category))
	}

	return &Vehicle{
		plate:              plate,
		category:           category,
		engineDisplacement: engineDisplacement,
	}, nil
}

func (v Vehicle) Plate() string {
	return v.plate
}

func (v Vehicle) Category() Category {
	return v.category
}

func (v Vehicle) EngineDisplacement() int {
	return v.engineDisplacement
}

// PlateClass is the upper-cased first character of the plate. Restriction
// policies are keyed by it.
func (v Vehicle) PlateClass() string {
	return PlateClass(v.plate)
}

func PlateClass(plate string) string {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(plate)
	return strings.ToUpper(string(r))
}

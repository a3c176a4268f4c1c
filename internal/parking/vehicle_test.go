package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVehicle(t *testing.T) {
	v, err := NewMotorcycle("  BCD12A ", 650)
	require.NoError(t, err)

	assert.Equal(t, "BCD12A", v.Plate())
	assert.Equal(t, Motorcycle, v.Category())
	assert.Equal(t, 650, v.EngineDisplacement())
	assert.Equal(t, "B", v.PlateClass())
}

func TestNewCarIgnoresDisplacement(t *testing.T) {
	v, err := NewVehicle("BCD123", Car, 1600)
	require.NoError(t, err)
	assert.Zero(t, v.EngineDisplacement())
}

func TestNewVehicleValidation(t *testing.T) {
	_, err := NewCar("   ")
	require.ErrorIs(t, err, ErrEmptyPlate)

	_, err = NewVehicle("BCD123", Category(42), 0)
	require.ErrorIs(t, err, ErrUnknownCategory)

	_, err = NewMotorcycle("BCD123", -1)
	require.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Car")
	require.NoError(t, err)
	assert.Equal(t, Car, c)

	c, err = ParseCategory("moto")
	require.NoError(t, err)
	assert.Equal(t, Motorcycle, c)

	_, err = ParseCategory("truck")
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestPlateClassMultiByteLetters(t *testing.T) {
	assert.Equal(t, "Ñ", PlateClass("ñab-123"))
	assert.Equal(t, "Á", PlateClass("ÁBC-123"))
	assert.NotEqual(t, PlateClass("ÑAB-123"), PlateClass("ÁBC-123"))
	assert.Equal(t, "", PlateClass("  "))
}

func TestRestrictionPolicyMultiByteClass(t *testing.T) {
	rule := NewRestrictionRule(WeekdayPolicy{"Ñ": {time.Friday}}.Restricted)

	allowed, err := rule.IsEntryAllowed(mustCar(t, "ñab-123"), time.Friday)
	assert.False(t, allowed)
	require.Error(t, err)

	allowed, err = rule.IsEntryAllowed(mustCar(t, "ÁBC-123"), time.Friday)
	require.NoError(t, err)
	assert.True(t, allowed)
}

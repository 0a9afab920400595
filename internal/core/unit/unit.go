// Package unit converts customer-facing quantities (grams, kilograms,
// liters) to and from the canonical storage unit (kilograms; liters are
// stored identically).
package unit

import (
	"errors"
	"math"
	"strconv"
)

type Unit string

const (
	Gram     Unit = "gms"
	Kilogram Unit = "kg"
	Litre    Unit = "ltr"
)

var ErrInvalidUnit = errors.New("unrecognized unit")

// Parse validates a customer-supplied unit string.
func Parse(s string) (Unit, error) {
	switch Unit(s) {
	case Gram, Kilogram, Litre:
		return Unit(s), nil
	}
	return "", ErrInvalidUnit
}

// ToCanonical converts a quantity in the given unit to kilograms,
// truncated to 3 decimals. Quantities are never rounded up so fractional
// grams can't overcharge.
func ToCanonical(q float64, u Unit) (float64, error) {
	switch u {
	case Gram:
		return Truncate(q/1000, 3), nil
	case Kilogram, Litre:
		return Truncate(q, 3), nil
	}
	return 0, ErrInvalidUnit
}

// FromCanonical converts a canonical (kg) quantity back to the given unit.
func FromCanonical(q float64, u Unit) (float64, error) {
	switch u {
	case Gram:
		return q * 1000, nil
	case Kilogram, Litre:
		return q, nil
	}
	return 0, ErrInvalidUnit
}

// Truncate drops everything past the given number of decimals. The value
// is first settled at one extra decimal so float representation error
// (0.3 stored as 0.29999...) doesn't leak into the floor.
func Truncate(n float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	settled := math.Round(n*pow*10) / 10
	return math.Floor(settled) / pow
}

// RoundUp rounds toward positive infinity at the given number of
// decimals, with the same representation-error settling as Truncate.
// Used for money only: fractional paise round in the merchant's favor.
func RoundUp(n float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	settled := math.Round(n*pow*10) / 10
	return math.Ceil(settled) / pow
}

// Format renders a quantity without trailing zeros, for user-facing
// messages ("0.5", not "0.500000").
func Format(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

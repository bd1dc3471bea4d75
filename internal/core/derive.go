package core

import (
	"fmt"
	"math"
	"time"
)

// Dated is any record carrying a YYYY-MM-DD date string.
type Dated interface {
	When() string
}

// Monetary is any record with a single derived dollar value.
type Monetary interface {
	Value() float64
}

// Sum returns the arithmetic sum of the records' values.
// An empty (or nil) slice sums to exactly 0.
func Sum[T Monetary](items []T) float64 {
	var total float64
	for _, it := range items {
		total += it.Value()
	}
	return total
}

// MonthToDate returns the records whose date falls in the same
// calendar year and month as now, in their original order. Records
// with unparseable dates are excluded.
func MonthToDate[T Dated](items []T, now time.Time) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		d, err := ParseDate(it.When())
		if err != nil {
			continue
		}
		if d.Year == now.Year() && d.Month == int(now.Month()) {
			out = append(out, it)
		}
	}
	return out
}

// MileageExpense derives the reimbursable mileage expense implied by a
// loop. Returns false when nothing should be derived: auto-mileage is
// off, no distance was logged, or the rate is zero.
func MileageExpense(l Loop, s Settings, id string) (Expense, bool) {
	if !s.AutoMileage || l.Miles <= 0 || s.MileageRate <= 0 {
		return Expense{}, false
	}
	return Expense{
		ID:       id,
		Date:     l.Date,
		Category: fmt.Sprintf("Mileage: %.1f mi @ $%.2f/mi", l.Miles, s.MileageRate),
		Amount:   Round2(l.Miles * s.MileageRate),
		Notes:    l.Course,
	}, true
}

// earthRadiusMiles is the mean Earth radius used by the SPA.
const earthRadiusMiles = 3958.8

// HaversineMiles computes the great-circle distance in miles between
// two points given in degrees.
func HaversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(a))
}

// Round1 rounds to one decimal place, the precision loops store miles at.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

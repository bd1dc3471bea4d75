// Package core holds the Loop Ledger domain records and the pure
// derivation rules over them: month-to-date filtering, aggregate
// sums, mileage-to-expense conversion, and coordinate distance.
package core

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Record shapes mirror the JSON layout persisted by the SPA. Optional
// monetary fields marshal away when zero; readers treat absence as 0.
type (
	// Loop is one work session (a caddie looping a round).
	Loop struct {
		ID         string   `json:"id"`
		Date       string   `json:"date"` // YYYY-MM-DD
		Course     string   `json:"course"`
		ReportTime string   `json:"reportTime,omitempty"`
		TeeTime    string   `json:"teeTime,omitempty"`
		LoopType   string   `json:"loopType,omitempty"`
		BagFee     float64  `json:"bagFee,omitempty"`
		PreGrat    float64  `json:"preGrat,omitempty"`
		Tip        float64  `json:"tip,omitempty"`
		TipType    string   `json:"tipType,omitempty"`
		Miles      float64  `json:"miles,omitempty"`
		CourseLat  *float64 `json:"courseLat,omitempty"`
		CourseLng  *float64 `json:"courseLng,omitempty"`
		Notes      string   `json:"notes,omitempty"`
	}

	Expense struct {
		ID         string  `json:"id"`
		Date       string  `json:"date"`
		Category   string  `json:"category"`
		Amount     float64 `json:"amount"`
		Merchant   string  `json:"merchant,omitempty"`
		Notes      string  `json:"notes,omitempty"`
		ReceiptURL string  `json:"receiptUrl,omitempty"`
	}

	// Income was called "Tip" in early data; the store migrates the
	// legacy collection on open.
	Income struct {
		ID     string  `json:"id"`
		Date   string  `json:"date"`
		Source string  `json:"source"`
		Amount float64 `json:"amount"`
		Notes  string  `json:"notes,omitempty"`
	}

	// Settings is a singleton; readers never observe it missing.
	Settings struct {
		HomeAddress string   `json:"homeAddress"`
		HomeLat     *float64 `json:"homeLat,omitempty"`
		HomeLng     *float64 `json:"homeLng,omitempty"`
		MileageRate float64  `json:"mileageRate"`
		AutoMileage bool     `json:"autoMileage"`
	}
)

// DefaultMileageRate matches the IRS standard rate the SPA ships with.
const DefaultMileageRate = 0.67

// DefaultSettings is what a reader sees before the user ever saves.
func DefaultSettings() Settings {
	return Settings{HomeAddress: "", MileageRate: DefaultMileageRate, AutoMileage: false}
}

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCourse   = errors.New("empty course")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptySource   = errors.New("empty source")
)

// Date is a plain calendar date with no time zone attached.
type Date struct {
	Year  int
	Month int // 1-12
	Day   int
}

// ParseDate parses a strict YYYY-MM-DD string by extracting the
// components directly. Never build a time.Time from the raw string
// here: an implicit UTC offset would shift records across month
// boundaries in western time zones.
func ParseDate(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, ErrInvalidDate
	}
	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	month, err := strconv.Atoi(s[5:7])
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	day, err := strconv.Atoi(s[8:10])
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, month) {
		return Date{}, ErrInvalidDate
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

func daysIn(year, month int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

func validateAmount(v float64, allowZero bool) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidAmount
	}
	if v < 0 {
		return ErrInvalidAmount
	}
	if v == 0 && !allowZero {
		return ErrInvalidAmount
	}
	return nil
}

func (l Loop) Validate() error {
	if _, err := ParseDate(l.Date); err != nil {
		return err
	}
	if strings.TrimSpace(l.Course) == "" {
		return ErrEmptyCourse
	}
	for _, v := range []float64{l.BagFee, l.PreGrat, l.Tip, l.Miles} {
		if err := validateAmount(v, true); err != nil {
			return err
		}
	}
	return nil
}

func (e Expense) Validate() error {
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return validateAmount(e.Amount, false)
}

func (i Income) Validate() error {
	if _, err := ParseDate(i.Date); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	return validateAmount(i.Amount, false)
}

func (s Settings) Validate() error {
	if math.IsNaN(s.MileageRate) || math.IsInf(s.MileageRate, 0) || s.MileageRate < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// UnmarshalJSON defaults mileageRate by field presence: a document
// missing the field (older persisted settings predate it) reads back
// with the default rate, while an explicit 0 stays 0.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type settings Settings
	doc := struct {
		*settings
		MileageRate *float64 `json:"mileageRate"`
	}{settings: (*settings)(s)}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.MileageRate == nil {
		s.MileageRate = DefaultMileageRate
	} else {
		s.MileageRate = *doc.MileageRate
	}
	return nil
}

// Normalize repairs out-of-range values so readers always get a
// usable record.
func (s Settings) Normalize() Settings {
	out := s
	out.HomeAddress = strings.TrimSpace(out.HomeAddress)
	if math.IsNaN(out.MileageRate) || math.IsInf(out.MileageRate, 0) || out.MileageRate < 0 {
		out.MileageRate = DefaultMileageRate
	}
	return out
}

// Earnings is the cash total of a loop: bag fee + pre-grat + tip.
// Absent fields unmarshal to 0 and simply contribute nothing.
func (l Loop) Earnings() float64 {
	return l.BagFee + l.PreGrat + l.Tip
}

func (l Loop) When() string    { return l.Date }
func (e Expense) When() string { return e.Date }
func (i Income) When() string  { return i.Date }

func (l Loop) Value() float64    { return l.Earnings() }
func (e Expense) Value() float64 { return e.Amount }
func (i Income) Value() float64  { return i.Amount }

// Package core provides the expense tracker's domain types, the derived-key
// indexing scheme and input validation.
//
// This file contains helpers for presenting amounts stored in minor units.
package core

import (
	"strconv"
	"strings"
)

// minorDigits lists currencies whose minor unit is not 1/100.
var minorDigits = map[string]int{
	"JPY": 0,
	"KRW": 0,
	"ISK": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
	"TND": 3,
}

// MinorDigits returns the number of decimal digits of the currency's minor unit.
func MinorDigits(currency string) int {
	if d, ok := minorDigits[strings.ToUpper(currency)]; ok {
		return d
	}
	return 2
}

// FormatMinor renders an amount in minor units as a decimal string.
//
// Examples:
//
//	FormatMinor(1999, "GBP") -> "19.99"
//	FormatMinor(5, "EUR")    -> "0.05"
//	FormatMinor(1200, "JPY") -> "1200"
func FormatMinor(amount int64, currency string) string {
	digits := MinorDigits(currency)
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

// MajorUnits returns the amount as a float for spreadsheet cells.
// Use minor units for arithmetic.
func MajorUnits(amount int64, currency string) float64 {
	f, _ := strconv.ParseFloat(FormatMinor(amount, currency), 64)
	return f
}

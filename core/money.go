package core

import (
	"fmt"
	"strings"
)

// MinorUnit is the canonical amount representation: an integer count of
// the currency's smallest unit (cents, yen, fils).
type MinorUnit int64

// Currency is an ISO 4217 alphabetic code, upper case.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
	CurrencyKWD Currency = "KWD"
)

var zeroDecimalCurrencies = map[Currency]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {},
	"KMF": {}, "KRW": {}, "MGA": {}, "PYG": {}, "RWF": {},
	"UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

var threeDecimalCurrencies = map[Currency]struct{}{
	"BHD": {}, "IQD": {}, "JOD": {}, "KWD": {}, "LYD": {}, "OMR": {}, "TND": {},
}

// Exponent returns the ISO 4217 minor-unit exponent for the currency.
// Unknown currencies default to two decimals.
func (c Currency) Exponent() int {
	normalized := Currency(strings.ToUpper(strings.TrimSpace(string(c))))
	if _, ok := zeroDecimalCurrencies[normalized]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[normalized]; ok {
		return 3
	}
	return 2
}

func (c Currency) Validate() error {
	code := strings.TrimSpace(string(c))
	if len(code) != 3 {
		return fmt.Errorf("core: currency code must be three letters, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("core: currency code must be upper-case letters, got %q", code)
		}
	}
	return nil
}

// AmountRepresentation names the wire shape a processor expects for
// monetary amounts. The amount package performs the conversions.
type AmountRepresentation string

const (
	AmountMinorUnitInt    AmountRepresentation = "minor_unit_int"
	AmountMinorUnitString AmountRepresentation = "minor_unit_string"
	AmountMajorUnitString AmountRepresentation = "major_unit_string"
	AmountMajorUnitFloat  AmountRepresentation = "major_unit_float"
)

func (r AmountRepresentation) Validate() error {
	switch r {
	case AmountMinorUnitInt, AmountMinorUnitString, AmountMajorUnitString, AmountMajorUnitFloat:
		return nil
	default:
		return fmt.Errorf("core: unknown amount representation %q", string(r))
	}
}

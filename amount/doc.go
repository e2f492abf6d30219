// Package amount converts the canonical minor-unit integer amount into
// the representation each processor's wire format requires, and back.
// Conversions are integer-based and round-trip exact for every ISO 4217
// minor-unit exponent, including zero-decimal currencies.
package amount

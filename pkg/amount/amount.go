// Package amount converts between human decimal strings ("15.4") and the
// unsigned base-unit integers the ledgers operate on.
package amount

import (
	"errors"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalid     = errors.New("amount: not a decimal number")
	ErrNegative    = errors.New("amount: must not be negative")
	ErrTooPrecise  = errors.New("amount: more fractional digits than the asset supports")
	ErrOutOfRange  = errors.New("amount: exceeds 256 bits")
	ErrMaxDecimals = errors.New("amount: decimals must be <= 77")
)

// Parse converts s, expressed in whole units, into base units of an asset
// with the given number of decimals.
func Parse(s string, decimals uint8) (*uint256.Int, error) {
	if decimals > 77 {
		return nil, ErrMaxDecimals
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrInvalid
	}
	if d.Sign() < 0 {
		return nil, ErrNegative
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, ErrTooPrecise
	}
	v, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, ErrOutOfRange
	}
	return v, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string, decimals uint8) *uint256.Int {
	v, err := Parse(s, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders base units as a whole-unit decimal string without trailing
// zeros. A nil amount formats as "0".
func Format(v *uint256.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -int32(decimals)).String()
}

// WellFormed reports whether s is a non-negative decimal number. Range and
// precision depend on the asset and are left to Parse.
func WellFormed(s string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	return err == nil && d.Sign() >= 0
}

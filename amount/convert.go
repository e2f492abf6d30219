package amount

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payments/core"
)

// Converted is a minor-unit amount rendered in one processor wire shape.
// Exactly the field for its representation carries the value.
type Converted struct {
	Representation core.AmountRepresentation
	Currency       core.Currency

	MinorInt    int64
	MinorString string
	MajorString string
	MajorFloat  float64
}

// Convert renders a canonical minor-unit amount in the representation
// the processor expects.
func Convert(amount core.MinorUnit, currency core.Currency, representation core.AmountRepresentation) (Converted, error) {
	if err := currency.Validate(); err != nil {
		return Converted{}, conversionError(err.Error(), currency, representation)
	}
	if err := representation.Validate(); err != nil {
		return Converted{}, conversionError(err.Error(), currency, representation)
	}

	out := Converted{Representation: representation, Currency: currency}
	switch representation {
	case core.AmountMinorUnitInt:
		out.MinorInt = int64(amount)
	case core.AmountMinorUnitString:
		out.MinorString = strconv.FormatInt(int64(amount), 10)
	case core.AmountMajorUnitString:
		out.MajorString = majorUnitString(int64(amount), currency.Exponent())
	case core.AmountMajorUnitFloat:
		out.MajorFloat = float64(amount) / math.Pow10(currency.Exponent())
	}
	return out, nil
}

// ConvertBack restores the exact canonical minor-unit integer from a
// converted amount. For every supported exponent rule,
// Convert → ConvertBack reproduces the original integer.
func ConvertBack(converted Converted) (core.MinorUnit, error) {
	currency := converted.Currency
	if err := currency.Validate(); err != nil {
		return 0, conversionError(err.Error(), currency, converted.Representation)
	}

	switch converted.Representation {
	case core.AmountMinorUnitInt:
		return core.MinorUnit(converted.MinorInt), nil
	case core.AmountMinorUnitString:
		value, err := strconv.ParseInt(strings.TrimSpace(converted.MinorString), 10, 64)
		if err != nil {
			return 0, conversionError("invalid minor unit string: "+converted.MinorString, currency, converted.Representation)
		}
		return core.MinorUnit(value), nil
	case core.AmountMajorUnitString:
		value, err := minorUnitsFromMajorString(converted.MajorString, currency.Exponent())
		if err != nil {
			return 0, conversionError(err.Error(), currency, converted.Representation)
		}
		return core.MinorUnit(value), nil
	case core.AmountMajorUnitFloat:
		scaled := converted.MajorFloat * math.Pow10(currency.Exponent())
		return core.MinorUnit(math.Round(scaled)), nil
	default:
		return 0, conversionError("unknown amount representation", currency, converted.Representation)
	}
}

// majorUnitString renders minor units as a fixed-point decimal string
// using integer math only; "1050" with exponent 2 becomes "10.50", and
// exponent 0 currencies stay undotted.
func majorUnitString(amount int64, exponent int) string {
	if exponent == 0 {
		return strconv.FormatInt(amount, 10)
	}
	negative := amount < 0
	if negative {
		amount = -amount
	}
	scale := int64(math.Pow10(exponent))
	whole := amount / scale
	fraction := amount % scale
	out := fmt.Sprintf("%d.%0*d", whole, exponent, fraction)
	if negative {
		return "-" + out
	}
	return out
}

func minorUnitsFromMajorString(value string, exponent int) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("amount: major unit string is empty")
	}
	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	wholePart := value
	fractionPart := ""
	if dot := strings.IndexByte(value, '.'); dot >= 0 {
		wholePart = value[:dot]
		fractionPart = value[dot+1:]
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if len(fractionPart) > exponent {
		return 0, fmt.Errorf("amount: %q has more than %d decimal places", value, exponent)
	}
	for len(fractionPart) < exponent {
		fractionPart += "0"
	}

	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount: invalid whole part %q", wholePart)
	}
	fraction := int64(0)
	if fractionPart != "" {
		fraction, err = strconv.ParseInt(fractionPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("amount: invalid fraction part %q", fractionPart)
		}
	}
	total := whole*int64(math.Pow10(exponent)) + fraction
	if negative {
		total = -total
	}
	return total, nil
}

func conversionError(message string, currency core.Currency, representation core.AmountRepresentation) error {
	return goerrors.New("amount: "+message, goerrors.CategoryBadInput).
		WithTextCode(core.PaymentErrorAmountConversion).
		WithMetadata(map[string]any{
			"currency":       string(currency),
			"representation": string(representation),
		})
}

// Package validation holds the per-tag structural and semantic rules
// applied to decoded payload fields. The decoder applies them on every
// decode; the encoder reuses the same rules defensively on the values it
// is about to emit.
package validation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/krish567366/PesaQR/pkg/psp"
)

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrOutOfRange    = errors.New("value out of range")
)

// Fixed constants of the merchant-presented format.
const (
	PayloadFormatIndicator = "01"
	InitiationStatic       = "11"
	InitiationDynamic      = "12"
)

// RuleSet maps tags to their validation rule. Tags without a rule are
// accepted as-is; length conformance is already guaranteed by the TLV
// primitive.
type RuleSet struct {
	rules map[string]func(value string) error
}

// NewRuleSet builds the rule table for the merchant-presented format.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: map[string]func(string) error{
		"00": validatePayloadFormat,
		"01": validateInitiationMethod,
		"52": validateMerchantCategoryCode,
		"53": validateCurrencyCode,
		"54": validateAmount,
		"58": validateCountryCode,
		"63": validateChecksumFormat,
	}}
}

// ValidateField applies the rule for the field's tag, if any. The
// returned error names the violation; the caller attaches the tag.
func (r *RuleSet) ValidateField(tag, value string) error {
	rule, ok := r.rules[tag]
	if !ok {
		return nil
	}
	return rule(value)
}

func validatePayloadFormat(value string) error {
	if value != PayloadFormatIndicator {
		return fmt.Errorf("%w: payload format indicator must be %q, got %q", ErrInvalidFormat, PayloadFormatIndicator, value)
	}
	return nil
}

func validateInitiationMethod(value string) error {
	if value != InitiationStatic && value != InitiationDynamic {
		return fmt.Errorf("%w: initiation method must be %q or %q, got %q", ErrInvalidFormat, InitiationStatic, InitiationDynamic, value)
	}
	return nil
}

func validateMerchantCategoryCode(value string) error {
	if len(value) != 4 || !isDigits(value) {
		return fmt.Errorf("%w: merchant category code must be exactly 4 digits, got %q", ErrInvalidFormat, value)
	}
	return nil
}

func validateCurrencyCode(value string) error {
	if len(value) != 3 || !isDigits(value) {
		return fmt.Errorf("%w: currency code must be exactly 3 digits, got %q", ErrInvalidFormat, value)
	}
	return nil
}

// ValidateAmount checks that an amount string parses as a positive
// decimal. Exposed for the encoder's defensive checks.
func ValidateAmount(value string) error {
	return validateAmount(value)
}

func validateAmount(value string) error {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("%w: amount %q is not a decimal", ErrInvalidFormat, value)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrOutOfRange, amount.String())
	}
	return nil
}

func validateCountryCode(value string) error {
	if !psp.Country(value).Valid() {
		return fmt.Errorf("%w: unsupported country code %q", ErrInvalidFormat, value)
	}
	return nil
}

func validateChecksumFormat(value string) error {
	if len(value) != 4 || !isHex(value) {
		return fmt.Errorf("%w: checksum must be exactly 4 hex digits, got %q", ErrInvalidFormat, value)
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}

package emvqr

import "errors"

// Error taxonomy for decode/encode. Structural TLV failures
// (tlv.ErrCorruptedData, tlv.ErrInvalidTag, tlv.ErrInvalidLength)
// propagate from the primitive codec unchanged; the sentinels below
// cover everything above the primitive layer. All errors are synchronous
// and non-retryable: a malformed payload stays malformed.
var (
	// ErrInvalidValue marks a field that fails its per-tag semantic rule.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrInvalidChecksum marks a checksum mismatch; the wrapped message
	// carries the expected and actual values.
	ErrInvalidChecksum = errors.New("invalid checksum")

	// ErrMissingRequiredField marks an absent mandatory tag; the wrapped
	// message names it.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrUnsupportedCountry marks a country or profile outside the
	// supported set.
	ErrUnsupportedCountry = errors.New("unsupported country or profile")

	// ErrInvalidConfiguration marks an encoder request whose template or
	// profile combination the target profile disallows.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

package emvqr

import (
	"github.com/shopspring/decimal"

	"github.com/krish567366/PesaQR/pkg/psp"
)

// TemplateRequest describes one account template to embed. Tag may be
// left empty to let the country profile pick its conventional tag for
// the provider kind; GUID may be left empty to use the country's
// domestic scheme GUID. Identifiers are opaque strings throughout:
// leading zeros and non-numeric legacy identifiers pass through
// untouched.
type TemplateRequest struct {
	Tag           string
	GUID          string
	Kind          psp.Kind
	ParticipantID string
	AccountID     string
}

// Request is the encoder input. It mirrors the decoded payload's
// semantic fields but is pre-validation: the encoder enforces the same
// invariants the decoder checks on the way back in, so a request that
// encodes cleanly always round-trips.
type Request struct {
	Country          psp.Country
	InitiationMethod InitiationMethod

	Templates []TemplateRequest

	MerchantCategoryCode string

	// Amount is emitted only for dynamic initiation.
	Amount *decimal.Decimal

	// CurrencyCode defaults to the profile's national currency when
	// empty.
	CurrencyCode string

	RecipientName string

	// RecipientIdentifier carries tag 60: the merchant city for
	// person-to-merchant payloads, or the recipient's identifier for
	// person-to-person ones.
	RecipientIdentifier string

	PostalCode string

	AdditionalData *AdditionalData

	FormatVersion string
}

// Profile is one country's encode/decode capability: which tags are
// mandatory, how account templates nest, and how legacy formats degrade
// to the canonical form. Adding a country means adding one
// implementation, not editing shared branching logic.
type Profile interface {
	Country() psp.Country

	// CurrencyCode is the numeric ISO 4217 code of the national
	// currency, used when a request leaves the currency empty.
	CurrencyCode() string

	// RequiredTags lists tags the profile mandates beyond the universal
	// set checked by the decoder.
	RequiredTags() []string

	// ValidateRequest rejects template/profile combinations the profile
	// disallows before any field is assembled.
	ValidateRequest(r *Request) error

	// EncodeAccountTemplate renders one template request as its
	// top-level tag and nested TLV value.
	EncodeAccountTemplate(t *TemplateRequest) (tag, value string, err error)

	// DecodeAccountTemplate extracts and resolves one account template,
	// applying the profile's legacy fallback chain. A nil template with
	// a non-nil error means the template is unresolvable and should be
	// dropped, not that the decode must fail.
	DecodeAccountTemplate(tag, value string) (*AccountTemplate, error)
}

package emvqr

import (
	"github.com/shopspring/decimal"

	"github.com/krish567366/PesaQR/pkg/psp"
	"github.com/krish567366/PesaQR/pkg/tlv"
)

// InitiationMethod distinguishes static QR codes (payer enters the
// amount) from dynamic ones (amount embedded).
type InitiationMethod string

const (
	InitiationStatic  InitiationMethod = "11"
	InitiationDynamic InitiationMethod = "12"
)

// Classification distinguishes person-to-person transfers from merchant
// payments, derived from the merchant category code.
type Classification string

const (
	PersonToPerson   Classification = "person_to_person"
	PersonToMerchant Classification = "person_to_merchant"
)

// AccountTemplate is one routable payment destination extracted from the
// template tag range. A payload may carry several (multi-PSP QR).
type AccountTemplate struct {
	// Tag is the top-level tag the template occupied, e.g. "28".
	Tag string

	// GUID identifies the template scheme; empty when the template was
	// recovered through a legacy string heuristic rather than nested TLV.
	GUID string

	ParticipantID string
	AccountID     string

	// PSP is the resolved provider record.
	PSP *psp.Record

	// ResolvedBy names the resolution strategy that produced this
	// template ("nested" for the canonical form).
	ResolvedBy string
}

// AdditionalData is the optional bag of named sub-fields nested inside
// tag 62. Custom holds the reserved numeric range 50-99 as an opaque
// tag-to-value map.
type AdditionalData struct {
	BillNumber          string
	MobileNumber        string
	StoreLabel          string
	LoyaltyNumber       string
	ReferenceLabel      string
	CustomerLabel       string
	TerminalLabel       string
	Purpose             string
	MerchantSubCategory string
	Custom              map[string]string
}

// Payload is the decoder output: a value object constructed fresh per
// call, carrying no ownership over the PSP directory.
type Payload struct {
	// Fields is the raw decoded field list in payload order.
	Fields []tlv.Field

	FormatIndicator  string
	InitiationMethod InitiationMethod

	AccountTemplates []AccountTemplate

	MerchantCategoryCode string
	Amount               *decimal.Decimal
	RecipientName        string
	RecipientIdentifier  string
	PostalCode           string
	CurrencyCode         string

	// CountryCode is the raw tag 58 value; empty when the tag was absent
	// and the decoder fell back to the default country.
	CountryCode string
	Country     psp.Country

	AdditionalData *AdditionalData

	// RawAdditionalData preserves the tag 62 value verbatim when its
	// nested structure did not parse.
	RawAdditionalData string

	FormatVersion string

	Classification Classification
}

// IsDynamic reports whether the payload embeds a fixed amount.
func (p *Payload) IsDynamic() bool {
	return p.InitiationMethod == InitiationDynamic
}

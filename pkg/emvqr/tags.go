// Package emvqr encodes and decodes merchant-presented QR payment
// payloads as profiled by the Kenyan central-bank domestic standard and
// the Tanzanian instant-payment standard. The package owns the data
// model, the decoder/encoder orchestration and the error taxonomy;
// country-specific template handling lives behind the Profile interface.
package emvqr

import "strconv"

// Top-level payload tags.
const (
	TagPayloadFormat       = "00"
	TagInitiationMethod    = "01"
	TagMerchantCategory    = "52"
	TagCurrencyCode        = "53"
	TagAmount              = "54"
	TagCountryCode         = "58"
	TagRecipientName       = "59"
	TagRecipientIdentifier = "60"
	TagPostalCode          = "61"
	TagAdditionalData      = "62"
	TagChecksum            = "63"
	TagFormatVersion       = "64"
)

// Account templates occupy a reserved tag range; tag meaning within the
// range is country-specific.
const (
	TemplateTagMin = 26
	TemplateTagMax = 51
)

// IsTemplateTag reports whether a two-digit tag falls in the account
// template range.
func IsTemplateTag(tag string) bool {
	n, err := strconv.Atoi(tag)
	if err != nil {
		return false
	}
	return n >= TemplateTagMin && n <= TemplateTagMax
}

// Account template sub-tags. Which participant/account sub-tags are used
// depends on the country profile.
const (
	TemplateSubGUID        = "00"
	TemplateSubParticipant = "01"
	TemplateSubAccount     = "02"
	TemplateSubAccountAlt  = "07"
	TemplateSubLegacy      = "68"
)

// Additional data (tag 62) sub-tags. Sub-tags 50-99 are reserved for
// custom fields and preserved as an opaque map.
const (
	AdditionalSubBillNumber     = "01"
	AdditionalSubMobileNumber   = "02"
	AdditionalSubStoreLabel     = "03"
	AdditionalSubLoyaltyNumber  = "04"
	AdditionalSubReferenceLabel = "05"
	AdditionalSubCustomerLabel  = "06"
	AdditionalSubTerminalLabel  = "07"
	AdditionalSubPurpose        = "08"
	AdditionalSubMerchantSubCat = "09"

	additionalCustomMin = 50
	additionalCustomMax = 99
)

func isCustomAdditionalTag(tag string) bool {
	n, err := strconv.Atoi(tag)
	if err != nil {
		return false
	}
	return n >= additionalCustomMin && n <= additionalCustomMax
}

// Reserved merchant category codes that mark a payload as
// person-to-person rather than merchant payment.
var personToPersonMCCs = map[string]bool{
	"0601": true,
	"0602": true,
}

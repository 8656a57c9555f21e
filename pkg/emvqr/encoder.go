package emvqr

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/krish567366/PesaQR/pkg/crc16"
	"github.com/krish567366/PesaQR/pkg/psp"
	"github.com/krish567366/PesaQR/pkg/tlv"
	"github.com/krish567366/PesaQR/pkg/validation"
)

// Encoder assembles payload strings from generation requests. Like the
// decoder it is stateless per call and safe for concurrent use.
type Encoder struct {
	profiles map[psp.Country]Profile
	rules    *validation.RuleSet
	logger   *zap.Logger
}

// NewEncoder builds an encoder over the given country profiles.
func NewEncoder(profiles map[psp.Country]Profile, logger *zap.Logger) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{
		profiles: profiles,
		rules:    validation.NewRuleSet(),
		logger:   logger,
	}
}

// Encode renders a request as a canonical payload string: ordered tag
// assembly per the country profile, then the checksum appended over the
// checksum domain. The encoder applies the decoder's field rules to its
// own output before sealing it, so a request that encodes cleanly always
// decodes cleanly.
func (e *Encoder) Encode(r *Request) (string, error) {
	profile, ok := e.profiles[r.Country]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCountry, r.Country)
	}

	if len(r.Templates) == 0 {
		return "", fmt.Errorf("%w: at least one account template is required", ErrInvalidConfiguration)
	}
	if r.MerchantCategoryCode == "" {
		return "", fmt.Errorf("%w: merchant category code is required", ErrInvalidConfiguration)
	}
	if err := profile.ValidateRequest(r); err != nil {
		return "", err
	}

	initiation := r.InitiationMethod
	if initiation == "" {
		initiation = InitiationStatic
	}

	currency := r.CurrencyCode
	if currency == "" {
		currency = profile.CurrencyCode()
	}

	templates, err := encodeTemplates(profile, r.Templates)
	if err != nil {
		return "", err
	}

	pairs := []tlv.Field{
		{Tag: TagPayloadFormat, Value: validation.PayloadFormatIndicator},
		{Tag: TagInitiationMethod, Value: string(initiation)},
	}
	pairs = append(pairs, templates...)
	pairs = append(pairs,
		tlv.Field{Tag: TagMerchantCategory, Value: r.MerchantCategoryCode},
		tlv.Field{Tag: TagCurrencyCode, Value: currency},
	)

	if r.Amount != nil {
		if initiation == InitiationDynamic {
			pairs = append(pairs, tlv.Field{Tag: TagAmount, Value: r.Amount.String()})
		} else {
			// Static QR never embeds an amount; the payer enters it.
			e.logger.Warn("dropping amount from static QR request",
				zap.String("amount", r.Amount.String()))
		}
	}

	pairs = append(pairs, tlv.Field{Tag: TagCountryCode, Value: string(r.Country)})
	if r.RecipientName != "" {
		pairs = append(pairs, tlv.Field{Tag: TagRecipientName, Value: r.RecipientName})
	}
	if r.RecipientIdentifier != "" {
		pairs = append(pairs, tlv.Field{Tag: TagRecipientIdentifier, Value: r.RecipientIdentifier})
	}
	if r.PostalCode != "" {
		pairs = append(pairs, tlv.Field{Tag: TagPostalCode, Value: r.PostalCode})
	}
	if r.AdditionalData != nil {
		additional, addErr := encodeAdditionalData(r.AdditionalData)
		if addErr != nil {
			return "", addErr
		}
		pairs = append(pairs, tlv.Field{Tag: TagAdditionalData, Value: additional})
	}
	// The format version tag precedes the checksum tag even though both
	// sit at the numeric end of the range; this ordering is an EMVCo rule
	// independent of numeric tag order.
	if r.FormatVersion != "" {
		pairs = append(pairs, tlv.Field{Tag: TagFormatVersion, Value: r.FormatVersion})
	}

	payload := ""
	for _, pair := range pairs {
		if ruleErr := e.rules.ValidateField(pair.Tag, pair.Value); ruleErr != nil {
			return "", fmt.Errorf("tag %s: %w: %v", pair.Tag, ErrInvalidValue, ruleErr)
		}
		encoded, encErr := tlv.EncodeField(pair.Tag, pair.Value)
		if encErr != nil {
			return "", encErr
		}
		payload += encoded
	}

	// Checksum domain covers the payload plus the checksum field's own
	// tag and length characters.
	payload += TagChecksum + "04"
	payload += crc16.ComputeChecksum(payload)

	return payload, nil
}

// encodeTemplates renders every template through the profile and orders
// the resulting fields by ascending tag. Two templates may not share a
// tag: each top-level tag carries exactly one field.
func encodeTemplates(profile Profile, requests []TemplateRequest) ([]tlv.Field, error) {
	fields := make([]tlv.Field, 0, len(requests))
	seen := make(map[string]bool, len(requests))

	for i := range requests {
		tag, value, err := profile.EncodeAccountTemplate(&requests[i])
		if err != nil {
			return nil, err
		}
		if !IsTemplateTag(tag) {
			return nil, fmt.Errorf("%w: template tag %q outside range %d-%d",
				ErrInvalidConfiguration, tag, TemplateTagMin, TemplateTagMax)
		}
		if seen[tag] {
			return nil, fmt.Errorf("%w: duplicate account template tag %s", ErrInvalidConfiguration, tag)
		}
		seen[tag] = true
		fields = append(fields, tlv.Field{Tag: tag, Value: value})
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].Tag < fields[j].Tag })
	return fields, nil
}

func encodeAdditionalData(data *AdditionalData) (string, error) {
	subs := []tlv.Field{
		{Tag: AdditionalSubBillNumber, Value: data.BillNumber},
		{Tag: AdditionalSubMobileNumber, Value: data.MobileNumber},
		{Tag: AdditionalSubStoreLabel, Value: data.StoreLabel},
		{Tag: AdditionalSubLoyaltyNumber, Value: data.LoyaltyNumber},
		{Tag: AdditionalSubReferenceLabel, Value: data.ReferenceLabel},
		{Tag: AdditionalSubCustomerLabel, Value: data.CustomerLabel},
		{Tag: AdditionalSubTerminalLabel, Value: data.TerminalLabel},
		{Tag: AdditionalSubPurpose, Value: data.Purpose},
		{Tag: AdditionalSubMerchantSubCat, Value: data.MerchantSubCategory},
	}

	customTags := make([]string, 0, len(data.Custom))
	for tag := range data.Custom {
		if !isCustomAdditionalTag(tag) {
			return "", fmt.Errorf("%w: custom additional data tag %q outside range %d-%d",
				ErrInvalidConfiguration, tag, additionalCustomMin, additionalCustomMax)
		}
		customTags = append(customTags, tag)
	}
	sort.Strings(customTags)
	for _, tag := range customTags {
		subs = append(subs, tlv.Field{Tag: tag, Value: data.Custom[tag]})
	}

	out := ""
	for _, sub := range subs {
		if sub.Value == "" {
			continue
		}
		encoded, err := tlv.EncodeField(sub.Tag, sub.Value)
		if err != nil {
			return "", err
		}
		out += encoded
	}
	return out, nil
}

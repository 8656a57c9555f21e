package emvqr

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/krish567366/PesaQR/pkg/crc16"
	"github.com/krish567366/PesaQR/pkg/psp"
	"github.com/krish567366/PesaQR/pkg/tlv"
	"github.com/krish567366/PesaQR/pkg/validation"
)

// Tags every payload must carry regardless of country, plus at least one
// account template in the reserved range.
var universalRequiredTags = []string{
	TagPayloadFormat,
	TagInitiationMethod,
	TagMerchantCategory,
	TagChecksum,
}

// defaultCountry is applied when tag 58 is absent. Historical payloads
// in the wild omit the tag; the fallback is logged so strict callers can
// spot it (Payload.CountryCode stays empty).
const defaultCountry = psp.CountryKenya

// Decoder parses payload strings into structured payloads. It is
// stateless per call and safe for concurrent use; the PSP directory
// referenced by the profiles is the only shared state.
type Decoder struct {
	profiles map[psp.Country]Profile
	rules    *validation.RuleSet
	logger   *zap.Logger
}

// NewDecoder builds a decoder over the given country profiles.
func NewDecoder(profiles map[psp.Country]Profile, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{
		profiles: profiles,
		rules:    validation.NewRuleSet(),
		logger:   logger,
	}
}

// Decode runs the single-pass pipeline: structural decode, per-tag
// validation, mandatory-tag checks, checksum verification, country
// resolution, template resolution and field extraction. Any failure
// before template resolution aborts with a typed error; an unresolvable
// account template is dropped, never fatal, because a payload may carry
// multiple alternative payment routes.
func (d *Decoder) Decode(payload string) (*Payload, error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return nil, err
	}

	for _, f := range fields {
		if ruleErr := d.rules.ValidateField(f.Tag, f.Value); ruleErr != nil {
			return nil, fmt.Errorf("tag %s: %w: %v", f.Tag, ErrInvalidValue, ruleErr)
		}
	}

	byTag := indexFields(fields)

	if err := checkRequired(byTag, universalRequiredTags); err != nil {
		return nil, err
	}
	if !hasTemplateTag(fields) {
		return nil, fmt.Errorf("%w: account template (tags %d-%d)", ErrMissingRequiredField, TemplateTagMin, TemplateTagMax)
	}

	if err := verifyChecksum(payload, fields); err != nil {
		return nil, err
	}

	result := &Payload{
		Fields:               fields,
		FormatIndicator:      byTag[TagPayloadFormat],
		InitiationMethod:     InitiationMethod(byTag[TagInitiationMethod]),
		MerchantCategoryCode: byTag[TagMerchantCategory],
		RecipientName:        byTag[TagRecipientName],
		RecipientIdentifier:  byTag[TagRecipientIdentifier],
		PostalCode:           byTag[TagPostalCode],
		CurrencyCode:         byTag[TagCurrencyCode],
		CountryCode:          byTag[TagCountryCode],
		FormatVersion:        byTag[TagFormatVersion],
	}

	result.Country = psp.Country(result.CountryCode)
	if result.CountryCode == "" {
		result.Country = defaultCountry
		d.logger.Warn("country code absent, defaulting",
			zap.String("country", string(defaultCountry)))
	}

	profile, ok := d.profiles[result.Country]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCountry, result.Country)
	}
	if err := checkRequired(byTag, profile.RequiredTags()); err != nil {
		return nil, err
	}

	for _, f := range fields {
		if !IsTemplateTag(f.Tag) {
			continue
		}
		template, tplErr := profile.DecodeAccountTemplate(f.Tag, f.Value)
		if tplErr != nil {
			d.logger.Warn("dropping unresolvable account template",
				zap.String("tag", f.Tag),
				zap.String("country", string(result.Country)),
				zap.Error(tplErr))
			continue
		}
		result.AccountTemplates = append(result.AccountTemplates, *template)
	}

	if raw, ok := byTag[TagAmount]; ok && raw != "" {
		amount, parseErr := decimal.NewFromString(raw)
		if parseErr != nil {
			// Unreachable after rule validation, kept as a guard.
			return nil, fmt.Errorf("tag %s: %w: %v", TagAmount, ErrInvalidValue, parseErr)
		}
		result.Amount = &amount
	}

	if raw, ok := byTag[TagAdditionalData]; ok {
		additional, addErr := parseAdditionalData(raw)
		if addErr != nil {
			// Seen in circulating payloads: a tag 62 whose value is not
			// valid nested TLV. Keep the raw value and move on.
			d.logger.Debug("additional data is not nested TLV, keeping raw value",
				zap.Error(addErr))
			result.RawAdditionalData = raw
		} else {
			result.AdditionalData = additional
		}
	}

	result.Classification = classify(result.MerchantCategoryCode)

	return result, nil
}

// verifyChecksum recomputes the CRC over everything preceding the
// checksum field's value, including the field's own tag and length
// characters, and compares case-insensitively.
func verifyChecksum(payload string, fields []tlv.Field) error {
	last := fields[len(fields)-1]
	if last.Tag != TagChecksum {
		return fmt.Errorf("tag %s: %w: checksum field must be the final field", TagChecksum, ErrInvalidValue)
	}

	domain := payload[:len(payload)-last.Length]
	if !crc16.Matches(domain, last.Value) {
		return fmt.Errorf("%w: expected %s, payload carries %s",
			ErrInvalidChecksum, crc16.ComputeChecksum(domain), last.Value)
	}
	return nil
}

func checkRequired(byTag map[string]string, tags []string) error {
	for _, tag := range tags {
		if _, ok := byTag[tag]; !ok {
			return fmt.Errorf("%w: tag %s", ErrMissingRequiredField, tag)
		}
	}
	return nil
}

func hasTemplateTag(fields []tlv.Field) bool {
	for _, f := range fields {
		if IsTemplateTag(f.Tag) {
			return true
		}
	}
	return false
}

// indexFields maps tags to values for the non-repeating tags. Template
// tags may legitimately repeat and are walked in order instead.
func indexFields(fields []tlv.Field) map[string]string {
	byTag := make(map[string]string, len(fields))
	for _, f := range fields {
		if _, exists := byTag[f.Tag]; !exists {
			byTag[f.Tag] = f.Value
		}
	}
	return byTag
}

func parseAdditionalData(value string) (*AdditionalData, error) {
	subs, err := tlv.DecodeFields(value)
	if err != nil {
		return nil, err
	}

	data := &AdditionalData{}
	for _, sub := range subs {
		switch sub.Tag {
		case AdditionalSubBillNumber:
			data.BillNumber = sub.Value
		case AdditionalSubMobileNumber:
			data.MobileNumber = sub.Value
		case AdditionalSubStoreLabel:
			data.StoreLabel = sub.Value
		case AdditionalSubLoyaltyNumber:
			data.LoyaltyNumber = sub.Value
		case AdditionalSubReferenceLabel:
			data.ReferenceLabel = sub.Value
		case AdditionalSubCustomerLabel:
			data.CustomerLabel = sub.Value
		case AdditionalSubTerminalLabel:
			data.TerminalLabel = sub.Value
		case AdditionalSubPurpose:
			data.Purpose = sub.Value
		case AdditionalSubMerchantSubCat:
			data.MerchantSubCategory = sub.Value
		default:
			if isCustomAdditionalTag(sub.Tag) {
				if data.Custom == nil {
					data.Custom = make(map[string]string)
				}
				data.Custom[sub.Tag] = sub.Value
			}
		}
	}
	return data, nil
}

func classify(mcc string) Classification {
	if personToPersonMCCs[mcc] {
		return PersonToPerson
	}
	return PersonToMerchant
}

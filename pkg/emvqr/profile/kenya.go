package profile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/krish567366/PesaQR/pkg/emvqr"
	"github.com/krish567366/PesaQR/pkg/psp"
	"github.com/krish567366/PesaQR/pkg/tlv"
)

// Conventional template tags under the Kenyan domestic profile.
const (
	kenyaTelecomTag = "28"
	kenyaBankTag    = "29"
	kenyaGatewayTag = "30"

	kenyaCurrencyKES = "404"
)

// Markers used by pre-standard Kenyan payloads that embed a provider
// name instead of a ke.go.qr template.
var kenyaLegacyTokens = []legacyToken{
	{token: "MPESA", kind: psp.KindMobileMoney, identifier: "01"},
	{token: "M-PESA", kind: psp.KindMobileMoney, identifier: "01"},
	{token: "AIRTEL", kind: psp.KindMobileMoney, identifier: "02"},
	{token: "TKASH", kind: psp.KindMobileMoney, identifier: "03"},
	{token: "EQUITY", kind: psp.KindBank, identifier: "68"},
	{token: "KCB", kind: psp.KindBank, identifier: "01"},
}

// Kenya implements the central-bank domestic QR profile: ke.go.qr
// templates with telecom destinations in tag 28 and bank destinations in
// tag 29, and a legacy fallback chain for payloads minted before the
// domestic scheme existed.
type Kenya struct {
	dir    *psp.Directory
	chain  []strategy
	logger *zap.Logger
}

// NewKenya builds the Kenyan profile over the given directory.
func NewKenya(dir *psp.Directory, logger *zap.Logger) *Kenya {
	k := &Kenya{dir: dir, logger: logger}
	k.chain = []strategy{
		{name: "nested", resolve: k.resolveNested},
		{name: "legacy_prefix", resolve: func(tag, value string) (*emvqr.AccountTemplate, bool) {
			return matchTokenPrefix(dir, psp.CountryKenya, kenyaLegacyTokens, tag, value)
		}},
		{name: "legacy_substring", resolve: func(tag, value string) (*emvqr.AccountTemplate, bool) {
			return matchTokenSubstring(dir, psp.CountryKenya, kenyaLegacyTokens, tag, value)
		}},
	}
	return k
}

func (k *Kenya) Country() psp.Country { return psp.CountryKenya }

func (k *Kenya) CurrencyCode() string { return kenyaCurrencyKES }

func (k *Kenya) RequiredTags() []string { return nil }

// ValidateRequest accepts any mix of bank, mobile-money and gateway
// templates; multi-PSP payloads are the norm under this profile.
func (k *Kenya) ValidateRequest(r *emvqr.Request) error {
	for i := range r.Templates {
		t := &r.Templates[i]
		if t.ParticipantID == "" {
			return fmt.Errorf("%w: template %d has no participant identifier", emvqr.ErrInvalidConfiguration, i)
		}
		if t.Tag == "" && t.Kind == psp.KindUnified {
			return fmt.Errorf("%w: unified templates are not part of the Kenyan profile", emvqr.ErrInvalidConfiguration)
		}
	}
	return nil
}

// EncodeAccountTemplate nests the scheme GUID, participant identifier
// and optional account identifier under the kind's conventional tag.
func (k *Kenya) EncodeAccountTemplate(t *emvqr.TemplateRequest) (string, string, error) {
	tag := t.Tag
	if tag == "" {
		switch t.Kind {
		case psp.KindMobileMoney:
			tag = kenyaTelecomTag
		case psp.KindBank:
			tag = kenyaBankTag
		case psp.KindPaymentGateway:
			tag = kenyaGatewayTag
		default:
			return "", "", fmt.Errorf("%w: no conventional tag for provider kind %s", emvqr.ErrInvalidConfiguration, t.Kind)
		}
	}

	guid := t.GUID
	if guid == "" {
		guid = psp.KenyaDomesticGUID
	}

	value, err := encodeTemplateValue(guid, t.ParticipantID, t.AccountID)
	if err != nil {
		return "", "", err
	}
	return tag, value, nil
}

// DecodeAccountTemplate runs the fallback chain: canonical nested TLV
// first, then the two legacy heuristics.
func (k *Kenya) DecodeAccountTemplate(tag, value string) (*emvqr.AccountTemplate, error) {
	return resolveWith(k.chain, tag, value)
}

// resolveNested handles the canonical ke.go.qr form. The participant
// identifier is an MSISDN for telecom destinations or a settlement-code-
// prefixed account for banks; either way the directory's progressive
// prefix index owns the mapping.
func (k *Kenya) resolveNested(tag, value string) (*emvqr.AccountTemplate, bool) {
	subs, err := tlv.DecodeFields(value)
	if err != nil {
		return nil, false
	}

	template := &emvqr.AccountTemplate{Tag: tag}
	for _, sub := range subs {
		switch sub.Tag {
		case emvqr.TemplateSubGUID:
			template.GUID = sub.Value
		case emvqr.TemplateSubParticipant:
			template.ParticipantID = sub.Value
		case emvqr.TemplateSubAccount, emvqr.TemplateSubAccountAlt, emvqr.TemplateSubLegacy:
			if template.AccountID == "" {
				template.AccountID = sub.Value
			}
		}
	}

	if template.ParticipantID == "" {
		return nil, false
	}

	rec, ok := k.dir.LookupByPrefix(psp.CountryKenya, template.ParticipantID)
	if !ok {
		return nil, false
	}
	template.PSP = rec
	return template, true
}

// encodeTemplateValue is shared by both profiles: sub-tag 00 carries the
// scheme GUID, 01 the participant, 02 the optional account.
func encodeTemplateValue(guid, participant, account string) (string, error) {
	value := ""
	for _, sub := range []tlv.Field{
		{Tag: emvqr.TemplateSubGUID, Value: guid},
		{Tag: emvqr.TemplateSubParticipant, Value: participant},
		{Tag: emvqr.TemplateSubAccount, Value: account},
	} {
		if sub.Value == "" {
			continue
		}
		encoded, err := tlv.EncodeField(sub.Tag, sub.Value)
		if err != nil {
			return "", err
		}
		value += encoded
	}
	if len(value) > tlv.MaxValueLength {
		return "", fmt.Errorf("%w: encoded template is %d bytes, maximum %d",
			emvqr.ErrInvalidConfiguration, len(value), tlv.MaxValueLength)
	}
	return value, nil
}

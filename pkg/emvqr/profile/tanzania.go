package profile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/krish567366/PesaQR/pkg/emvqr"
	"github.com/krish567366/PesaQR/pkg/psp"
	"github.com/krish567366/PesaQR/pkg/tlv"
)

const (
	tanzaniaTemplateTag = "26"

	tanzaniaCurrencyTZS = "834"
)

// Pre-TIPS Tanzanian payloads carried operator wallet markers directly.
var tanzaniaLegacyTokens = []legacyToken{
	{token: "MPESA", kind: psp.KindMobileMoney, identifier: "50301"},
	{token: "M-PESA", kind: psp.KindMobileMoney, identifier: "50301"},
	{token: "TIGOPESA", kind: psp.KindMobileMoney, identifier: "50201"},
	{token: "AIRTELMONEY", kind: psp.KindMobileMoney, identifier: "50401"},
	{token: "HALOPESA", kind: psp.KindMobileMoney, identifier: "50501"},
}

// Tanzania implements the instant-payment profile: a single unified
// template under the tz.go.bot.tips scheme whose participant identifier
// is the receiving financial service provider's FSP id.
type Tanzania struct {
	dir    *psp.Directory
	chain  []strategy
	logger *zap.Logger
}

// NewTanzania builds the Tanzanian profile over the given directory.
func NewTanzania(dir *psp.Directory, logger *zap.Logger) *Tanzania {
	t := &Tanzania{dir: dir, logger: logger}
	t.chain = []strategy{
		{name: "nested", resolve: t.resolveNested},
		{name: "legacy_prefix", resolve: func(tag, value string) (*emvqr.AccountTemplate, bool) {
			return matchTokenPrefix(dir, psp.CountryTanzania, tanzaniaLegacyTokens, tag, value)
		}},
		{name: "legacy_substring", resolve: func(tag, value string) (*emvqr.AccountTemplate, bool) {
			return matchTokenSubstring(dir, psp.CountryTanzania, tanzaniaLegacyTokens, tag, value)
		}},
	}
	return t
}

func (t *Tanzania) Country() psp.Country { return psp.CountryTanzania }

func (t *Tanzania) CurrencyCode() string { return tanzaniaCurrencyTZS }

func (t *Tanzania) RequiredTags() []string {
	return []string{emvqr.TagCurrencyCode, emvqr.TagCountryCode}
}

// ValidateRequest enforces the profile's single-route rule: exactly one
// unified template carrying the fixed scheme GUID. Mixing templates
// under this profile is a configuration error, never silently merged.
func (t *Tanzania) ValidateRequest(r *emvqr.Request) error {
	if len(r.Templates) != 1 {
		return fmt.Errorf("%w: the Tanzanian profile requires exactly one account template, got %d",
			emvqr.ErrInvalidConfiguration, len(r.Templates))
	}

	tpl := &r.Templates[0]
	if tpl.Kind != psp.KindUnified {
		return fmt.Errorf("%w: the Tanzanian profile requires a unified template, got %s",
			emvqr.ErrInvalidConfiguration, tpl.Kind)
	}
	if tpl.GUID != "" && tpl.GUID != psp.TanzaniaDomesticGUID {
		return fmt.Errorf("%w: template GUID must be %q, got %q",
			emvqr.ErrInvalidConfiguration, psp.TanzaniaDomesticGUID, tpl.GUID)
	}
	if tpl.ParticipantID == "" {
		return fmt.Errorf("%w: template has no participant identifier", emvqr.ErrInvalidConfiguration)
	}
	return nil
}

func (t *Tanzania) EncodeAccountTemplate(tpl *emvqr.TemplateRequest) (string, string, error) {
	tag := tpl.Tag
	if tag == "" {
		tag = tanzaniaTemplateTag
	}

	value, err := encodeTemplateValue(psp.TanzaniaDomesticGUID, tpl.ParticipantID, tpl.AccountID)
	if err != nil {
		return "", "", err
	}
	return tag, value, nil
}

func (t *Tanzania) DecodeAccountTemplate(tag, value string) (*emvqr.AccountTemplate, error) {
	return resolveWith(t.chain, tag, value)
}

func (t *Tanzania) resolveNested(tag, value string) (*emvqr.AccountTemplate, bool) {
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
		case emvqr.TemplateSubAccount, emvqr.TemplateSubAccountAlt:
			if template.AccountID == "" {
				template.AccountID = sub.Value
			}
		}
	}

	if template.ParticipantID == "" {
		return nil, false
	}

	rec, ok := t.dir.LookupByPrefix(psp.CountryTanzania, template.ParticipantID)
	if !ok {
		return nil, false
	}
	template.PSP = rec
	return template, true
}

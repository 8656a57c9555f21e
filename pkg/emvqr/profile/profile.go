// Package profile implements the country-specific encode/decode rules
// behind the emvqr.Profile capability: one implementation per national
// standard, selected by country, so shared codec code never branches on
// a country value.
package profile

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/krish567366/PesaQR/pkg/emvqr"
	"github.com/krish567366/PesaQR/pkg/psp"
)

// Registry returns one profile per supported country, all sharing the
// given directory handle.
func Registry(dir *psp.Directory, logger *zap.Logger) map[psp.Country]emvqr.Profile {
	if logger == nil {
		logger = zap.NewNop()
	}
	return map[psp.Country]emvqr.Profile{
		psp.CountryKenya:    NewKenya(dir, logger),
		psp.CountryTanzania: NewTanzania(dir, logger),
	}
}

// strategy is one step of a template resolution chain. Strategies are
// tried in order; the first one to produce a template wins. Keeping the
// chain as an ordered list makes the fallback order visible and
// testable instead of buried in nested error handling.
type strategy struct {
	name    string
	resolve func(tag, value string) (*emvqr.AccountTemplate, bool)
}

func resolveWith(strategies []strategy, tag, value string) (*emvqr.AccountTemplate, error) {
	tried := make([]string, 0, len(strategies))
	for _, s := range strategies {
		if template, ok := s.resolve(tag, value); ok {
			template.ResolvedBy = s.name
			return template, nil
		}
		tried = append(tried, s.name)
	}
	return nil, fmt.Errorf("no resolver matched template (tried %s)", strings.Join(tried, ", "))
}

// legacyToken maps a provider marker found in pre-standard payloads to
// the directory entry it belongs to.
type legacyToken struct {
	token      string
	kind       psp.Kind
	identifier string
}

// matchTokenPrefix resolves a raw template value that starts with a
// known legacy provider token; the remainder is taken as the account
// identifier.
func matchTokenPrefix(dir *psp.Directory, country psp.Country, tokens []legacyToken, tag, value string) (*emvqr.AccountTemplate, bool) {
	upper := strings.ToUpper(value)
	for _, t := range tokens {
		if !strings.HasPrefix(upper, t.token) {
			continue
		}
		rec, ok := dir.Lookup(country, t.kind, t.identifier)
		if !ok {
			continue
		}
		return &emvqr.AccountTemplate{
			Tag:       tag,
			AccountID: strings.Trim(value[len(t.token):], "-/: "),
			PSP:       rec,
		}, true
	}
	return nil, false
}

// matchTokenSubstring is the loosest heuristic: the token may appear
// anywhere in the value.
func matchTokenSubstring(dir *psp.Directory, country psp.Country, tokens []legacyToken, tag, value string) (*emvqr.AccountTemplate, bool) {
	upper := strings.ToUpper(value)
	for _, t := range tokens {
		if !strings.Contains(upper, t.token) {
			continue
		}
		rec, ok := dir.Lookup(country, t.kind, t.identifier)
		if !ok {
			continue
		}
		return &emvqr.AccountTemplate{Tag: tag, PSP: rec}, true
	}
	return nil, false
}

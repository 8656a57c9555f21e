package psp

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// MinPrefixLength is the shortest identifier prefix the progressive
// lookup will try.
const MinPrefixLength = 2

type recordKey struct {
	country    Country
	kind       Kind
	identifier string
}

// Directory maps (country, kind, identifier) to provider records and
// supports progressive-prefix resolution of raw identifiers. It is a
// read-mostly registry: lookups take a snapshot of the current tables,
// and administrative updates install fresh copies so readers in flight
// never observe a partial write.
type Directory struct {
	mu       sync.RWMutex
	records  map[recordKey]*Record
	prefixes map[Country]map[string]*Record
	logger   *zap.Logger
}

// NewDirectory returns a directory seeded with the officially published
// provider codes for each supported country.
func NewDirectory(logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory{
		records:  make(map[recordKey]*Record),
		prefixes: make(map[Country]map[string]*Record),
		logger:   logger,
	}
	seed(d)
	return d
}

// Lookup returns the record registered under the exact canonical
// identifier for the given country and kind.
func (d *Directory) Lookup(country Country, kind Kind, identifier string) (*Record, bool) {
	d.mu.RLock()
	records := d.records
	d.mu.RUnlock()

	rec, ok := records[recordKey{country, kind, identifier}]
	return rec, ok
}

// LookupByPrefix resolves a raw identifier by trying its longest
// registered prefix first, then progressively shorter prefixes down to
// MinPrefixLength. Raw identifiers in the wild prepend routing digits
// (bank settlement codes, mobile-network prefixes) to account numbers,
// so the longest match is the most specific provider.
func (d *Directory) LookupByPrefix(country Country, rawIdentifier string) (*Record, bool) {
	d.mu.RLock()
	prefixes := d.prefixes[country]
	d.mu.RUnlock()

	if prefixes == nil {
		return nil, false
	}

	limit := len(rawIdentifier)
	for n := limit; n >= MinPrefixLength; n-- {
		if rec, ok := prefixes[rawIdentifier[:n]]; ok {
			return rec, true
		}
	}
	return nil, false
}

// Register inserts or replaces a provider record, optionally binding it
// to identifier prefixes for progressive lookup. This is an
// administrative operation, not a parsing side effect: the tables are
// copied and swapped so concurrent lookups never tear.
func (d *Directory) Register(rec Record, prefixes ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	records := make(map[recordKey]*Record, len(d.records)+1)
	for k, v := range d.records {
		records[k] = v
	}
	records[recordKey{rec.Country, rec.Kind, rec.Identifier}] = &rec

	countryPrefixes := make(map[string]*Record, len(d.prefixes[rec.Country])+len(prefixes))
	for k, v := range d.prefixes[rec.Country] {
		countryPrefixes[k] = v
	}
	for _, p := range prefixes {
		if len(p) < MinPrefixLength {
			d.logger.Warn("ignoring short directory prefix",
				zap.String("prefix", p),
				zap.String("identifier", rec.Identifier))
			continue
		}
		countryPrefixes[p] = &rec
	}

	allPrefixes := make(map[Country]map[string]*Record, len(d.prefixes))
	for c, m := range d.prefixes {
		allPrefixes[c] = m
	}
	allPrefixes[rec.Country] = countryPrefixes

	d.records = records
	d.prefixes = allPrefixes

	d.logger.Debug("provider registered",
		zap.String("country", string(rec.Country)),
		zap.String("kind", rec.Kind.String()),
		zap.String("identifier", rec.Identifier),
		zap.String("name", rec.DisplayName))
}

// Providers returns all records for a country, sorted by kind then
// identifier. Intended for listings, not the decode hot path.
func (d *Directory) Providers(country Country) []Record {
	d.mu.RLock()
	records := d.records
	d.mu.RUnlock()

	out := make([]Record, 0, len(records))
	for key, rec := range records {
		if key.country == country {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out
}

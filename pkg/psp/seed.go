package psp

// seedEntry couples a record with the identifier prefixes it claims in
// the progressive-prefix index.
type seedEntry struct {
	rec      Record
	prefixes []string
}

// Kenyan telecom PSP codes follow the central-bank QR standard; the
// phone-number prefixes let MSISDN-based participant identifiers resolve
// to the issuing mobile-network operator.
var kenyaTelecoms = []seedEntry{
	{
		rec:      Record{Kind: KindMobileMoney, Identifier: "01", DisplayName: "Safaricom M-PESA", Country: CountryKenya},
		prefixes: []string{"01", "25470", "25471", "25472", "25474", "25476", "25479", "25411"},
	},
	{
		rec:      Record{Kind: KindMobileMoney, Identifier: "02", DisplayName: "Airtel Money", Country: CountryKenya},
		prefixes: []string{"02", "25473", "25475", "25478", "25410"},
	},
	{
		rec:      Record{Kind: KindMobileMoney, Identifier: "03", DisplayName: "Telkom T-Kash", Country: CountryKenya},
		prefixes: []string{"03", "25477"},
	},
}

// Kenyan bank settlement codes. Codes 01-03 collide with the telecom PSP
// codes above; those banks stay reachable through exact Lookup only and
// claim no prefix, since the prefix index is consulted for template
// identifiers where the telecom reading wins.
var kenyaBanks = []seedEntry{
	{rec: Record{Kind: KindBank, Identifier: "01", DisplayName: "KCB Bank Kenya", Country: CountryKenya}},
	{rec: Record{Kind: KindBank, Identifier: "02", DisplayName: "Standard Chartered Kenya", Country: CountryKenya}},
	{rec: Record{Kind: KindBank, Identifier: "03", DisplayName: "Absa Bank Kenya", Country: CountryKenya}},
	{rec: Record{Kind: KindBank, Identifier: "07", DisplayName: "NCBA Bank", Country: CountryKenya}, prefixes: []string{"07"}},
	{rec: Record{Kind: KindBank, Identifier: "10", DisplayName: "Prime Bank", Country: CountryKenya}, prefixes: []string{"10"}},
	{rec: Record{Kind: KindBank, Identifier: "11", DisplayName: "Co-operative Bank of Kenya", Country: CountryKenya}, prefixes: []string{"11"}},
	{rec: Record{Kind: KindBank, Identifier: "12", DisplayName: "National Bank of Kenya", Country: CountryKenya}, prefixes: []string{"12"}},
	{rec: Record{Kind: KindBank, Identifier: "16", DisplayName: "Citibank Kenya", Country: CountryKenya}, prefixes: []string{"16"}},
	{rec: Record{Kind: KindBank, Identifier: "19", DisplayName: "Bank of Africa Kenya", Country: CountryKenya}, prefixes: []string{"19"}},
	{rec: Record{Kind: KindBank, Identifier: "31", DisplayName: "Stanbic Bank Kenya", Country: CountryKenya}, prefixes: []string{"31"}},
	{rec: Record{Kind: KindBank, Identifier: "57", DisplayName: "I&M Bank", Country: CountryKenya}, prefixes: []string{"57"}},
	{rec: Record{Kind: KindBank, Identifier: "63", DisplayName: "Diamond Trust Bank", Country: CountryKenya}, prefixes: []string{"63"}},
	{rec: Record{Kind: KindBank, Identifier: "68", DisplayName: "Equity Bank Kenya", Country: CountryKenya}, prefixes: []string{"68"}},
	{rec: Record{Kind: KindBank, Identifier: "70", DisplayName: "Family Bank", Country: CountryKenya}, prefixes: []string{"70"}},
	{rec: Record{Kind: KindBank, Identifier: "72", DisplayName: "Gulf African Bank", Country: CountryKenya}, prefixes: []string{"72"}},
}

// Tanzanian financial-service-provider identifiers under the instant
// payment system. Each FSP id doubles as its own prefix; the 3-digit
// family prefixes cover shortened identifiers seen in older payloads.
var tanzaniaProviders = []seedEntry{
	{rec: Record{Kind: KindUnified, Identifier: "tips", DisplayName: "Tanzania Instant Payment System", Country: CountryTanzania}},
	{rec: Record{Kind: KindBank, Identifier: "01002", DisplayName: "CRDB Bank", Country: CountryTanzania}, prefixes: []string{"01002"}},
	{rec: Record{Kind: KindBank, Identifier: "01003", DisplayName: "NMB Bank", Country: CountryTanzania}, prefixes: []string{"01003"}},
	{rec: Record{Kind: KindBank, Identifier: "01006", DisplayName: "NBC Bank", Country: CountryTanzania}, prefixes: []string{"01006"}},
	{rec: Record{Kind: KindBank, Identifier: "01009", DisplayName: "Stanbic Bank Tanzania", Country: CountryTanzania}, prefixes: []string{"01009"}},
	{rec: Record{Kind: KindBank, Identifier: "01015", DisplayName: "Exim Bank Tanzania", Country: CountryTanzania}, prefixes: []string{"01015"}},
	{rec: Record{Kind: KindMobileMoney, Identifier: "50301", DisplayName: "Vodacom M-Pesa", Country: CountryTanzania}, prefixes: []string{"50301", "503"}},
	{rec: Record{Kind: KindMobileMoney, Identifier: "50201", DisplayName: "Yas (Tigo Pesa)", Country: CountryTanzania}, prefixes: []string{"50201", "502"}},
	{rec: Record{Kind: KindMobileMoney, Identifier: "50401", DisplayName: "Airtel Money Tanzania", Country: CountryTanzania}, prefixes: []string{"50401", "504"}},
	{rec: Record{Kind: KindMobileMoney, Identifier: "50501", DisplayName: "Halopesa", Country: CountryTanzania}, prefixes: []string{"50501", "505"}},
}

func seed(d *Directory) {
	for _, groups := range [][]seedEntry{kenyaTelecoms, kenyaBanks, tanzaniaProviders} {
		for _, e := range groups {
			d.Register(e.rec, e.prefixes...)
		}
	}
}

// Package psp holds the payment-service-provider directory: the static,
// updatable reference data that turns opaque identifiers embedded in QR
// account templates into typed provider records.
package psp

// Country identifies a supported national QR profile.
type Country string

const (
	CountryKenya    Country = "KE"
	CountryTanzania Country = "TZ"
)

// Valid reports whether the country is one of the supported profiles.
func (c Country) Valid() bool {
	return c == CountryKenya || c == CountryTanzania
}

// Kind classifies a payment service provider.
type Kind int

const (
	KindBank Kind = iota
	KindMobileMoney
	KindPaymentGateway
	KindUnified
)

func (k Kind) String() string {
	switch k {
	case KindBank:
		return "bank"
	case KindMobileMoney:
		return "mobile_money"
	case KindPaymentGateway:
		return "payment_gateway"
	case KindUnified:
		return "unified"
	default:
		return "unknown"
	}
}

// ParseKind converts the wire/config spelling of a provider kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "bank":
		return KindBank, true
	case "mobile_money":
		return KindMobileMoney, true
	case "payment_gateway":
		return KindPaymentGateway, true
	case "unified":
		return KindUnified, true
	default:
		return 0, false
	}
}

// Record is one provider entry. Records are immutable once constructed;
// the codec looks them up and never mutates them.
type Record struct {
	Kind        Kind
	Identifier  string
	DisplayName string
	Country     Country
}

// Domestic scheme GUIDs. These identify each country's canonical
// account-template scheme, as opposed to provider-specific legacy GUIDs.
const (
	KenyaDomesticGUID    = "ke.go.qr"
	TanzaniaDomesticGUID = "tz.go.bot.tips"
)

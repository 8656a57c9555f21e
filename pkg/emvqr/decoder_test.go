package emvqr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krish567366/PesaQR/pkg/emvqr"
	"github.com/krish567366/PesaQR/pkg/emvqr/profile"
	"github.com/krish567366/PesaQR/pkg/psp"
	"github.com/krish567366/PesaQR/pkg/tlv"
)

// kenyaStaticP2P is a static person-to-person payload carrying one
// Safaricom M-PESA template under the ke.go.qr scheme.
const kenyaStaticP2P = "00020101021128280008ke.go.qr0112254769300743520406015802KE5918JANE WANJIRU KAMAU6007NAIROBI62050000163049C73"

func newCodecPair(t testing.TB) (*emvqr.Decoder, *emvqr.Encoder) {
	t.Helper()
	dir := psp.NewDirectory(nil)
	profiles := profile.Registry(dir, nil)
	return emvqr.NewDecoder(profiles, nil), emvqr.NewEncoder(profiles, nil)
}

func TestDecode(t *testing.T) {
	decoder, _ := newCodecPair(t)

	t.Run("Kenya Static Person To Person", func(t *testing.T) {
		p, err := decoder.Decode(kenyaStaticP2P)
		require.NoError(t, err)

		assert.Equal(t, "01", p.FormatIndicator)
		assert.Equal(t, emvqr.InitiationStatic, p.InitiationMethod)
		assert.False(t, p.IsDynamic())
		assert.Equal(t, psp.CountryKenya, p.Country)
		assert.Equal(t, "KE", p.CountryCode)
		assert.Equal(t, "0601", p.MerchantCategoryCode)
		assert.Equal(t, emvqr.PersonToPerson, p.Classification)
		assert.Equal(t, "JANE WANJIRU KAMAU", p.RecipientName)
		assert.Equal(t, "NAIROBI", p.RecipientIdentifier)
		assert.Nil(t, p.Amount)

		require.Len(t, p.AccountTemplates, 1)
		tpl := p.AccountTemplates[0]
		assert.Equal(t, "28", tpl.Tag)
		assert.Equal(t, "ke.go.qr", tpl.GUID)
		assert.Equal(t, "254769300743", tpl.ParticipantID)
		require.NotNil(t, tpl.PSP)
		assert.Equal(t, "Safaricom M-PESA", tpl.PSP.DisplayName)
		assert.Equal(t, psp.KindMobileMoney, tpl.PSP.Kind)
	})

	t.Run("Kenya Dynamic With Amount And Additional Data", func(t *testing.T) {
		payload := "00020101021228280008ke.go.qr0112254769300743520454115303404540510.505802KE5913KAMAU GROCERS6007NAIROBI62160105INV010803PAY630462D0"
		p, err := decoder.Decode(payload)
		require.NoError(t, err)

		assert.True(t, p.IsDynamic())
		assert.Equal(t, emvqr.PersonToMerchant, p.Classification)
		require.NotNil(t, p.Amount)
		assert.Equal(t, "10.5", p.Amount.String())
		assert.Equal(t, "404", p.CurrencyCode)

		require.NotNil(t, p.AdditionalData)
		assert.Equal(t, "INV01", p.AdditionalData.BillNumber)
		assert.Equal(t, "PAY", p.AdditionalData.Purpose)
		assert.Empty(t, p.RawAdditionalData)
	})

	t.Run("Tanzania Unified Template", func(t *testing.T) {
		payload := "00020101021126430014tz.go.bot.tips01055030102122557123456785204581253038345802TZ6304B44E"
		p, err := decoder.Decode(payload)
		require.NoError(t, err)

		assert.Equal(t, psp.CountryTanzania, p.Country)
		assert.Equal(t, "834", p.CurrencyCode)

		require.Len(t, p.AccountTemplates, 1)
		tpl := p.AccountTemplates[0]
		assert.Equal(t, "26", tpl.Tag)
		assert.Equal(t, psp.TanzaniaDomesticGUID, tpl.GUID)
		assert.Equal(t, "50301", tpl.ParticipantID)
		assert.Equal(t, "255712345678", tpl.AccountID)
		require.NotNil(t, tpl.PSP)
		assert.Equal(t, "Vodacom M-Pesa", tpl.PSP.DisplayName)
	})

	t.Run("Equity Settlement Code Via Prefix", func(t *testing.T) {
		payload := "00020101021129260008ke.go.qr01106822000123520406015802KE63041B49"
		p, err := decoder.Decode(payload)
		require.NoError(t, err)

		require.Len(t, p.AccountTemplates, 1)
		require.NotNil(t, p.AccountTemplates[0].PSP)
		assert.Equal(t, "Equity Bank Kenya", p.AccountTemplates[0].PSP.DisplayName)
	})

	t.Run("Legacy Prefix Token", func(t *testing.T) {
		payload := "0002010102112818MPESA-254722000000520406015802KE63048F6A"
		p, err := decoder.Decode(payload)
		require.NoError(t, err)

		require.Len(t, p.AccountTemplates, 1)
		tpl := p.AccountTemplates[0]
		assert.Empty(t, tpl.GUID)
		assert.Equal(t, "254722000000", tpl.AccountID)
		require.NotNil(t, tpl.PSP)
		assert.Equal(t, "Safaricom M-PESA", tpl.PSP.DisplayName)
	})

	t.Run("Legacy Substring Token", func(t *testing.T) {
		payload := "0002010102112819PAY VIA M-PESA TILL520406015802KE63046195"
		p, err := decoder.Decode(payload)
		require.NoError(t, err)

		require.Len(t, p.AccountTemplates, 1)
		require.NotNil(t, p.AccountTemplates[0].PSP)
		assert.Equal(t, "Safaricom M-PESA", p.AccountTemplates[0].PSP.DisplayName)
	})

	t.Run("Unresolvable Template Dropped", func(t *testing.T) {
		// Tag 29 carries neither nested TLV nor a known provider token; the
		// decode still succeeds on the surviving template.
		payload := "00020101021128280008ke.go.qr01122547693007432904ZZZZ520406015802KE6304F574"
		p, err := decoder.Decode(payload)
		require.NoError(t, err)

		require.Len(t, p.AccountTemplates, 1)
		assert.Equal(t, "28", p.AccountTemplates[0].Tag)
	})

	t.Run("Malformed Additional Data Kept Raw", func(t *testing.T) {
		p, err := decoder.Decode(kenyaStaticP2P)
		require.NoError(t, err)

		assert.Nil(t, p.AdditionalData)
		assert.Equal(t, "00001", p.RawAdditionalData)
	})
}

func TestDecodeErrors(t *testing.T) {
	decoder, _ := newCodecPair(t)

	t.Run("Checksum Mismatch", func(t *testing.T) {
		tampered := kenyaStaticP2P[:len(kenyaStaticP2P)-4] + "0000"
		_, err := decoder.Decode(tampered)
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidChecksum)
	})

	t.Run("Tampered Value Fails Checksum", func(t *testing.T) {
		tampered := []byte(kenyaStaticP2P)
		tampered[40]++
		_, err := decoder.Decode(string(tampered))
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidChecksum)
	})

	t.Run("Missing Account Template", func(t *testing.T) {
		_, err := decoder.Decode("000201010211520406015802KE63040000")
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrMissingRequiredField)
	})

	t.Run("Missing Merchant Category", func(t *testing.T) {
		_, err := decoder.Decode("00020101021128280008ke.go.qr01122547693007435802KE63040000")
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrMissingRequiredField)
	})

	t.Run("Invalid Field Value", func(t *testing.T) {
		// Initiation method 13 is not defined.
		_, err := decoder.Decode("00020101021352040601")
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidValue)
	})

	t.Run("Structural Corruption", func(t *testing.T) {
		_, err := decoder.Decode("000201010")
		require.Error(t, err)
		assert.ErrorIs(t, err, tlv.ErrCorruptedData)
	})

	t.Run("Checksum Field Not Last", func(t *testing.T) {
		// 6304 then 58: the checksum must seal the payload.
		_, err := decoder.Decode("00020101021128280008ke.go.qr01122547693007435204060163040000" + "5802KE")
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidValue)
	})
}

func BenchmarkDecode(b *testing.B) {
	decoder, _ := newCodecPair(b)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := decoder.Decode(kenyaStaticP2P); err != nil {
			b.Fatal(err)
		}
	}
}

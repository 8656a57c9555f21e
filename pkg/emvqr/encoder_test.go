package emvqr_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krish567366/PesaQR/pkg/crc16"
	"github.com/krish567366/PesaQR/pkg/emvqr"
	"github.com/krish567366/PesaQR/pkg/psp"
)

func kenyaRequest() *emvqr.Request {
	return &emvqr.Request{
		Country:              psp.CountryKenya,
		MerchantCategoryCode: "0601",
		RecipientName:        "JANE WANJIRU KAMAU",
		RecipientIdentifier:  "NAIROBI",
		Templates: []emvqr.TemplateRequest{
			{Kind: psp.KindMobileMoney, ParticipantID: "254769300743"},
		},
	}
}

func TestEncode(t *testing.T) {
	decoder, encoder := newCodecPair(t)

	t.Run("Kenya Static Round Trip", func(t *testing.T) {
		payload, err := encoder.Encode(kenyaRequest())
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(payload, "000201"))
		assert.True(t, crc16.Matches(payload[:len(payload)-4], payload[len(payload)-4:]))

		p, err := decoder.Decode(payload)
		require.NoError(t, err)
		assert.Equal(t, psp.CountryKenya, p.Country)
		assert.Equal(t, emvqr.InitiationStatic, p.InitiationMethod)
		assert.Equal(t, "JANE WANJIRU KAMAU", p.RecipientName)
		assert.Equal(t, "404", p.CurrencyCode)
		assert.Equal(t, emvqr.PersonToPerson, p.Classification)

		require.Len(t, p.AccountTemplates, 1)
		tpl := p.AccountTemplates[0]
		assert.Equal(t, "28", tpl.Tag)
		assert.Equal(t, psp.KenyaDomesticGUID, tpl.GUID)
		assert.Equal(t, "254769300743", tpl.ParticipantID)
		require.NotNil(t, tpl.PSP)
		assert.Equal(t, "Safaricom M-PESA", tpl.PSP.DisplayName)
	})

	t.Run("Dynamic Embeds Amount", func(t *testing.T) {
		req := kenyaRequest()
		req.InitiationMethod = emvqr.InitiationDynamic
		req.MerchantCategoryCode = "5411"
		amount := decimal.RequireFromString("150.00")
		req.Amount = &amount

		payload, err := encoder.Encode(req)
		require.NoError(t, err)

		p, err := decoder.Decode(payload)
		require.NoError(t, err)
		assert.True(t, p.IsDynamic())
		require.NotNil(t, p.Amount)
		assert.True(t, p.Amount.Equal(amount))
	})

	t.Run("Static Drops Amount", func(t *testing.T) {
		req := kenyaRequest()
		amount := decimal.RequireFromString("150.00")
		req.Amount = &amount

		payload, err := encoder.Encode(req)
		require.NoError(t, err)
		assert.NotContains(t, payload, "5406150.00")

		p, err := decoder.Decode(payload)
		require.NoError(t, err)
		assert.Nil(t, p.Amount)
	})

	t.Run("Multiple Templates Sorted By Tag", func(t *testing.T) {
		req := kenyaRequest()
		req.Templates = []emvqr.TemplateRequest{
			{Kind: psp.KindBank, ParticipantID: "6822000123"},
			{Kind: psp.KindMobileMoney, ParticipantID: "254769300743"},
		}

		payload, err := encoder.Encode(req)
		require.NoError(t, err)

		// Telecom tag 28 precedes bank tag 29 regardless of request order.
		assert.Less(t, strings.Index(payload, "28"), strings.Index(payload, "29"))

		p, err := decoder.Decode(payload)
		require.NoError(t, err)
		require.Len(t, p.AccountTemplates, 2)
		assert.Equal(t, "28", p.AccountTemplates[0].Tag)
		assert.Equal(t, "29", p.AccountTemplates[1].Tag)
	})

	t.Run("Tanzania Round Trip", func(t *testing.T) {
		req := &emvqr.Request{
			Country:              psp.CountryTanzania,
			MerchantCategoryCode: "5812",
			RecipientName:        "KILIMANJARO TRADERS",
			RecipientIdentifier:  "DAR ES SALAAM",
			Templates: []emvqr.TemplateRequest{
				{Kind: psp.KindUnified, ParticipantID: "50301", AccountID: "255712345678"},
			},
		}

		payload, err := encoder.Encode(req)
		require.NoError(t, err)

		p, err := decoder.Decode(payload)
		require.NoError(t, err)
		assert.Equal(t, psp.CountryTanzania, p.Country)
		assert.Equal(t, "834", p.CurrencyCode)
		require.Len(t, p.AccountTemplates, 1)
		assert.Equal(t, "26", p.AccountTemplates[0].Tag)
		assert.Equal(t, psp.TanzaniaDomesticGUID, p.AccountTemplates[0].GUID)
	})

	t.Run("Additional Data Round Trip", func(t *testing.T) {
		req := kenyaRequest()
		req.AdditionalData = &emvqr.AdditionalData{
			BillNumber:     "INV-2024-001",
			ReferenceLabel: "ORDER77",
			Custom:         map[string]string{"50": "LOYALTY-GOLD"},
		}

		payload, err := encoder.Encode(req)
		require.NoError(t, err)

		p, err := decoder.Decode(payload)
		require.NoError(t, err)
		require.NotNil(t, p.AdditionalData)
		assert.Equal(t, "INV-2024-001", p.AdditionalData.BillNumber)
		assert.Equal(t, "ORDER77", p.AdditionalData.ReferenceLabel)
		assert.Equal(t, "LOYALTY-GOLD", p.AdditionalData.Custom["50"])
	})

	t.Run("Format Version Precedes Checksum", func(t *testing.T) {
		req := kenyaRequest()
		req.FormatVersion = "01"

		payload, err := encoder.Encode(req)
		require.NoError(t, err)
		assert.Equal(t, "640201", payload[len(payload)-14:len(payload)-8])
		assert.Equal(t, "6304", payload[len(payload)-8:len(payload)-4])
	})
}

func TestEncodeErrors(t *testing.T) {
	_, encoder := newCodecPair(t)

	t.Run("No Templates", func(t *testing.T) {
		req := kenyaRequest()
		req.Templates = nil
		_, err := encoder.Encode(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidConfiguration)
	})

	t.Run("No Merchant Category", func(t *testing.T) {
		req := kenyaRequest()
		req.MerchantCategoryCode = ""
		_, err := encoder.Encode(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidConfiguration)
	})

	t.Run("Unsupported Country", func(t *testing.T) {
		req := kenyaRequest()
		req.Country = "UG"
		_, err := encoder.Encode(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrUnsupportedCountry)
	})

	t.Run("Duplicate Template Tags", func(t *testing.T) {
		req := kenyaRequest()
		req.Templates = []emvqr.TemplateRequest{
			{Kind: psp.KindMobileMoney, ParticipantID: "254769300743"},
			{Kind: psp.KindMobileMoney, ParticipantID: "254733000000"},
		}
		_, err := encoder.Encode(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidConfiguration)
	})

	t.Run("Tanzania Rejects Multiple Templates", func(t *testing.T) {
		req := &emvqr.Request{
			Country:              psp.CountryTanzania,
			MerchantCategoryCode: "5812",
			Templates: []emvqr.TemplateRequest{
				{Kind: psp.KindUnified, ParticipantID: "50301"},
				{Kind: psp.KindUnified, ParticipantID: "50201"},
			},
		}
		_, err := encoder.Encode(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidConfiguration)
	})

	t.Run("Tanzania Rejects Non Unified Kind", func(t *testing.T) {
		req := &emvqr.Request{
			Country:              psp.CountryTanzania,
			MerchantCategoryCode: "5812",
			Templates: []emvqr.TemplateRequest{
				{Kind: psp.KindMobileMoney, ParticipantID: "50301"},
			},
		}
		_, err := encoder.Encode(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidConfiguration)
	})

	t.Run("Tanzania Rejects Foreign GUID", func(t *testing.T) {
		req := &emvqr.Request{
			Country:              psp.CountryTanzania,
			MerchantCategoryCode: "5812",
			Templates: []emvqr.TemplateRequest{
				{Kind: psp.KindUnified, GUID: "ke.go.qr", ParticipantID: "50301"},
			},
		}
		_, err := encoder.Encode(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidConfiguration)
	})

	t.Run("Invalid Merchant Category Format", func(t *testing.T) {
		req := kenyaRequest()
		req.MerchantCategoryCode = "54"
		_, err := encoder.Encode(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, emvqr.ErrInvalidValue)
	})

	t.Run("Oversized Recipient Name", func(t *testing.T) {
		req := kenyaRequest()
		req.RecipientName = strings.Repeat("A", 100)
		_, err := encoder.Encode(req)
		require.Error(t, err)
	})
}

func BenchmarkEncode(b *testing.B) {
	_, encoder := newCodecPair(b)
	req := kenyaRequest()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := encoder.Encode(req); err != nil {
			b.Fatal(err)
		}
	}
}

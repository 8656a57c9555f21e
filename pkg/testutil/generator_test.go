package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krish567366/PesaQR/pkg/emvqr"
	"github.com/krish567366/PesaQR/pkg/emvqr/profile"
	"github.com/krish567366/PesaQR/pkg/psp"
)

func TestGeneratorDeterminism(t *testing.T) {
	a := NewGenerator(99).GenerateKenyaRequest()
	b := NewGenerator(99).GenerateKenyaRequest()
	assert.Equal(t, a, b)
}

func TestGeneratedRequestsRoundTrip(t *testing.T) {
	dir := psp.NewDirectory(nil)
	profiles := profile.Registry(dir, nil)
	encoder := emvqr.NewEncoder(profiles, nil)
	decoder := emvqr.NewDecoder(profiles, nil)

	generator := NewGenerator(7)

	for _, country := range []psp.Country{psp.CountryKenya, psp.CountryTanzania} {
		t.Run(string(country), func(t *testing.T) {
			for i := 0; i < 20; i++ {
				req, err := generator.GenerateRequest(country)
				require.NoError(t, err)

				payload, err := encoder.Encode(req)
				require.NoError(t, err)

				decoded, err := decoder.Decode(payload)
				require.NoError(t, err)
				assert.Equal(t, country, decoded.Country)
				require.Len(t, decoded.AccountTemplates, 1)
				require.NotNil(t, decoded.AccountTemplates[0].PSP)
			}
		})
	}
}

func TestDynamicRequestCarriesAmount(t *testing.T) {
	req := NewGenerator(3).GenerateKenyaDynamicRequest()
	assert.Equal(t, emvqr.InitiationDynamic, req.InitiationMethod)
	require.NotNil(t, req.Amount)
	assert.True(t, req.Amount.IsPositive())
}

func TestKenyaSamplePayloadDecodes(t *testing.T) {
	dir := psp.NewDirectory(nil)
	decoder := emvqr.NewDecoder(profile.Registry(dir, nil), nil)

	p, err := decoder.Decode(KenyaSamplePayload)
	require.NoError(t, err)
	assert.Equal(t, "JANE WANJIRU KAMAU", p.RecipientName)
	assert.Equal(t, emvqr.PersonToPerson, p.Classification)
}

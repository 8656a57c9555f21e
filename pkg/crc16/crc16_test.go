package crc16

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChecksum(t *testing.T) {
	t.Run("Known Payload Vector", func(t *testing.T) {
		// Full domestic payload; the domain includes the trailing "6304".
		prefix := "00020101021128280008ke.go.qr0112254769300743520406015802KE5918JANE WANJIRU KAMAU6007NAIROBI620500001" + "6304"
		assert.Equal(t, "9C73", ComputeChecksum(prefix))
	})

	t.Run("Empty Input Returns Initial Register", func(t *testing.T) {
		assert.Equal(t, "FFFF", ComputeChecksum(""))
	})

	t.Run("Always Four Uppercase Hex Digits", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 200; i++ {
			checksum := ComputeChecksum(randomASCII(rng, rng.Intn(120)))
			require.Len(t, checksum, 4)
			assert.Equal(t, strings.ToUpper(checksum), checksum)
		}
	})

	t.Run("Single Character Change Alters Checksum", func(t *testing.T) {
		base := "00020101021152040601" + "6304"
		mutated := "00020101021152040602" + "6304"
		assert.NotEqual(t, ComputeChecksum(base), ComputeChecksum(mutated))
	})
}

func TestImplementationsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		data := []byte(randomASCII(rng, rng.Intn(200)))
		require.Equal(t, Checksum(data), ChecksumTable(data), "payload %q", string(data))
	}
}

func TestMatches(t *testing.T) {
	prefix := "000201010211520406016304"
	expected := ComputeChecksum(prefix)

	t.Run("Exact Match", func(t *testing.T) {
		assert.True(t, Matches(prefix, expected))
	})

	t.Run("Case Insensitive", func(t *testing.T) {
		assert.True(t, Matches(prefix, strings.ToLower(expected)))
	})

	t.Run("Mismatch", func(t *testing.T) {
		assert.False(t, Matches(prefix, "0000"))
	})
}

func randomASCII(rng *rand.Rand, n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ ./:-"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

func BenchmarkChecksum(b *testing.B) {
	data := []byte("00020101021128280008ke.go.qr0112254769300743520406015802KE5918JANE WANJIRU KAMAU6007NAIROBI620500001" + "6304")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		Checksum(data)
	}
}

func BenchmarkChecksumTable(b *testing.B) {
	data := []byte("00020101021128280008ke.go.qr0112254769300743520406015802KE5918JANE WANJIRU KAMAU6007NAIROBI620500001" + "6304")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ChecksumTable(data)
	}
}

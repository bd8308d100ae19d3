package checkout

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNumberGeneratorFormat(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 10, 16, 23, 30, 0, 0, time.FixedZone("x", -3*3600)) }
	gen := NewNumberGenerator(now, bytes.NewReader([]byte{0, 0, 0, 0}))

	number, err := gen.Next()
	require.NoError(t, err)
	// the clock is read in UTC, which has already rolled over to the 17th
	require.Equal(t, "ORD-20261017-AAAAAA", number)
}

func TestNumberGeneratorDefaultsProduceDistinctNumbers(t *testing.T) {
	gen := NewNumberGenerator(nil, nil)
	pattern := regexp.MustCompile(`^ORD-\d{8}-[A-Z2-7]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		number, err := gen.Next()
		require.NoError(t, err)
		require.Regexp(t, pattern, number)
		seen[number] = true
	}
	require.Greater(t, len(seen), 45)
}

func TestNumberGeneratorShortRead(t *testing.T) {
	gen := NewNumberGenerator(time.Now, bytes.NewReader([]byte{1, 2}))
	_, err := gen.Next()
	require.Error(t, err)
}

package checkout

import (
	"crypto/rand"
	"encoding/base32"
	"io"
	"strings"
	"time"
)

const (
	orderNumberPrefix = "ORD"
	orderSuffixLen    = 6
)

var suffixEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NumberGenerator produces ORD-YYYYMMDD-XXXXXX order numbers. The date part
// is taken in UTC.
type NumberGenerator struct {
	now  func() time.Time
	rand io.Reader
}

// NewNumberGenerator returns a generator; nil arguments select the wall clock
// and crypto/rand.
func NewNumberGenerator(now func() time.Time, source io.Reader) *NumberGenerator {
	if now == nil {
		now = time.Now
	}
	if source == nil {
		source = rand.Reader
	}
	return &NumberGenerator{now: now, rand: source}
}

func (g *NumberGenerator) Next() (string, error) {
	// 4 bytes encode to 7 base32 symbols; the first 6 carry 30 random bits
	buf := make([]byte, 4)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", err
	}
	suffix := suffixEncoding.EncodeToString(buf)[:orderSuffixLen]
	var b strings.Builder
	b.WriteString(orderNumberPrefix)
	b.WriteByte('-')
	b.WriteString(g.now().UTC().Format("20060102"))
	b.WriteByte('-')
	b.WriteString(suffix)
	return b.String(), nil
}

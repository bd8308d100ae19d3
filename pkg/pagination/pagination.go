package pagination

import "fmt"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any offset query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// Meta describes the page that was served.
type Meta struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Page    int   `json:"page"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize validates and defaults p. Negative values are rejected rather than
// clamped so a client bug surfaces as a 400.
func Normalize(p Params) (Params, error) {
	if p.Limit < 0 {
		return Params{}, fmt.Errorf("limit must be >= 0")
	}
	if p.Offset < 0 {
		return Params{}, fmt.Errorf("offset must be >= 0")
	}
	return Params{Limit: NormalizeLimit(p.Limit), Offset: p.Offset}, nil
}

// PageNumber is the 1-based page index floor(offset/limit)+1.
func PageNumber(offset, limit int) int {
	limit = NormalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}
	return offset/limit + 1
}

// NewMeta builds page metadata for a normalized Params and a match count.
func NewMeta(p Params, total int64) Meta {
	return Meta{
		Limit:   p.Limit,
		Offset:  p.Offset,
		Page:    PageNumber(p.Offset, p.Limit),
		Total:   total,
		HasMore: int64(p.Offset+p.Limit) < total,
	}
}

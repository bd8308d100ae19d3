package enums

import (
	"fmt"
	"strings"
)

// ProductSortKey selects the catalog ordering column.
type ProductSortKey string

const (
	ProductSortCreatedAt ProductSortKey = "created_at"
	ProductSortPrice     ProductSortKey = "price"
	ProductSortName      ProductSortKey = "name"
)

var validProductSortKeys = []ProductSortKey{
	ProductSortCreatedAt,
	ProductSortPrice,
	ProductSortName,
}

func (k ProductSortKey) String() string {
	return string(k)
}

func (k ProductSortKey) IsValid() bool {
	for _, candidate := range validProductSortKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseProductSortKey defaults to created_at on empty input.
func ParseProductSortKey(value string) (ProductSortKey, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ProductSortCreatedAt, nil
	}
	for _, candidate := range validProductSortKeys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q", value)
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) String() string {
	return string(d)
}

func (d SortDirection) IsValid() bool {
	return d == SortAsc || d == SortDesc
}

// ParseSortDirection defaults to desc on empty input.
func ParseSortDirection(value string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return SortDesc, nil
	case "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", value)
}

package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address stored as jsonb on orders.
type Address struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Email      string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string  `json:"phone,omitempty" validate:"omitempty,max=40"`
	Line1      string  `json:"address" validate:"required,max=300"`
	Line2      *string `json:"apartment,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=120"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=80"`
}

// Missing returns the json names of required fields that are blank.
func (a Address) Missing() []string {
	var missing []string
	for _, field := range [...]struct{ name, value string }{
		{"name", a.Name},
		{"address", a.Line1},
		{"city", a.City},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(value any) error {
	return scanJSON(value, a)
}

func scanJSON(value any, dest any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported scan type %T", value)
	}
}

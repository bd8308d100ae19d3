package dbtypes

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringArray persists as text[] on Postgres and as the array literal text on
// other dialects, so the same model migrates under the sqlite test driver.
type StringArray []string

func (StringArray) GormDataType() string {
	return "text[]"
}

func (StringArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src any) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}
	var raw pq.StringArray
	if err := raw.Scan(src); err != nil {
		return err
	}
	if raw == nil {
		raw = pq.StringArray{}
	}
	*a = StringArray(raw)
	return nil
}

// First returns the first element or "".
func (a StringArray) First() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

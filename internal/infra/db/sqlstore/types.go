package sqlstore

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringList stores a []string as a JSON array column.
type StringList []string

func (sl StringList) Value() (driver.Value, error) {
	if len(sl) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(sl))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (sl *StringList) Scan(value interface{}) error {
	if value == nil {
		*sl = StringList{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if len(raw) == 0 {
		*sl = StringList{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(sl))
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect holds what differs between the supported SQL engines. Queries in
// this package are written with "?" placeholders and rebound per dialect.
type Dialect struct {
	Name string
	// Numbered switches placeholders to $1..$n.
	Numbered          bool
	UpsertAccountSQL  string
	UpsertPostSQL     string
	IsUniqueViolation func(error) bool
}

// Rebind rewrites "?" placeholders for the dialect.
func (d Dialect) Rebind(q string) string {
	if !d.Numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) uniqueViolation(err error) bool {
	return err != nil && d.IsUniqueViolation != nil && d.IsUniqueViolation(err)
}

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

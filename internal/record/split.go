// Package record parses raw snapshot rows into normalized region counts.
package record

import "strings"

// SplitFields splits a comma-separated row into exactly n fields.
//
// Quoted spans are recognized anywhere in the row: the quotes are removed and
// separators inside them are dropped, so a compound such as "Cook County, IL"
// stays a single field ("Cook County IL"). A doubled quote inside a quoted span
// yields a literal quote. Missing fields are returned empty; fields beyond n are
// ignored.
func SplitFields(row string, n int) []string {
	if n <= 0 {
		return nil
	}
	fields := make([]string, 0, n)
	var b strings.Builder
	inQuotes := false
	for i := 0; i < len(row); i++ {
		c := row[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(row) && row[i+1] == '"':
			b.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && inQuotes:
		case c == ',':
			fields = append(fields, b.String())
			b.Reset()
			if len(fields) == n {
				return fields
			}
		default:
			b.WriteByte(c)
		}
	}
	fields = append(fields, b.String())
	for len(fields) < n {
		fields = append(fields, "")
	}
	return fields[:n]
}

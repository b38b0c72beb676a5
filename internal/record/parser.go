package record

import (
	"strconv"
	"strings"

	"github.com/verte-zerg/epitrack/internal/model"
)

// Column positions of a snapshot row.
const (
	colSubRegion = iota
	colRegion
	colLastUpdate
	colConfirmed
	colDeaths
	colRecovered
	columnCount
)

// defaultAliases maps historical region names used by the source dataset to
// their canonical names.
var defaultAliases = map[string]string{
	"Mainland China":    "China",
	"Republic of Korea": "South Korea",
}

// Parser converts raw snapshot rows into normalized rows.
type Parser struct {
	aliases map[string]string
}

// NewParser returns a Parser using the built-in alias table extended by extra.
// Entries in extra override built-in entries with the same key.
func NewParser(extra map[string]string) *Parser {
	aliases := make(map[string]string, len(defaultAliases)+len(extra))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	for k, v := range extra {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		aliases[k] = v
	}
	return &Parser{aliases: aliases}
}

// Parse converts one raw row. It reports false for rows that carry no region
// (blank lines, rows with an empty region column). Malformed counts degrade to zero.
func (p *Parser) Parse(row string) (model.Row, bool) {
	if strings.TrimSpace(row) == "" {
		return model.Row{}, false
	}
	fields := SplitFields(row, columnCount)
	region := p.Canonical(fields[colRegion])
	if region == "" {
		return model.Row{}, false
	}
	return model.Row{
		Region: region,
		Counts: model.DailyRecord{
			Confirmed: ParseCount(fields[colConfirmed]),
			Deaths:    ParseCount(fields[colDeaths]),
			Recovered: ParseCount(fields[colRecovered]),
		},
	}, true
}

// Canonical trims a region name and applies the alias table.
func (p *Parser) Canonical(name string) string {
	name = strings.TrimSpace(name)
	if alias, ok := p.aliases[name]; ok {
		return alias
	}
	return name
}

// ParseCount parses a non-negative integer count. Empty, malformed and
// negative values yield 0.
func ParseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

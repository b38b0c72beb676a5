package aggregate

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/epitrack/internal/record"
)

// FactKind identifies a static fact table.
type FactKind int

// Fact tables.
const (
	Population FactKind = iota
	LifeExpectancy
)

// String returns the table name.
func (k FactKind) String() string {
	if k == LifeExpectancy {
		return "life expectancy"
	}
	return "population"
}

// FactRow is one row of a fact table: position, region, value.
type FactRow struct {
	Index  string
	Region string
	Value  string
}

// ReadFacts reads a fact table, discarding its header row.
func ReadFacts(r io.Reader) ([]FactRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var rows []FactRow
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := record.SplitFields(line, 3)
		rows = append(rows, FactRow{
			Index:  strings.TrimSpace(fields[0]),
			Region: strings.TrimSpace(fields[1]),
			Value:  strings.TrimSpace(fields[2]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}
	return rows, nil
}

// Enrich sets one fact on every region matched by exact name and returns the
// number of matched rows. Rows naming unknown regions are skipped. Values are
// assigned, not accumulated, so enriching twice with the same table is a no-op.
func (s *Store) Enrich(kind FactKind, rows []FactRow) int {
	matched := 0
	for _, row := range rows {
		r, ok := s.regions[row.Region]
		if !ok {
			continue
		}
		switch kind {
		case Population:
			n, err := strconv.ParseInt(row.Value, 10, 64)
			if err != nil || n < 0 {
				n = 0
			}
			r.Facts.Population = n
		case LifeExpectancy:
			v, err := strconv.ParseFloat(row.Value, 64)
			if err != nil || v < 0 {
				v = 0
			}
			r.Facts.LifeExpectancy = v
		}
		matched++
	}
	return matched
}

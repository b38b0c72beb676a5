package aggregate

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/verte-zerg/epitrack/internal/calendar"
	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/record"
)

const maxLineSize = 1 << 20

// Snapshot is one day's payload. Open is called once, in order.
type Snapshot struct {
	Date string
	Open func() (io.ReadCloser, error)
}

// Builder ingests daily snapshots in chronological order.
type Builder struct {
	parser  *record.Parser
	logger  *slog.Logger
	store   *Store
	samples []model.Sample
}

// NewBuilder returns an empty Builder. A nil logger discards output.
func NewBuilder(parser *record.Parser, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{
		parser: parser,
		logger: logger,
		store:  newStore(),
	}
}

// AddDay ingests one day's payload. The header row is discarded. The payload is
// read completely before anything is committed, so a read failure leaves the
// builder unchanged.
func (b *Builder) AddDay(date string, r io.Reader) error {
	rows, err := readRows(r, b.parser)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", date, err)
	}
	var total int64
	for _, row := range rows {
		total += row.Counts.Confirmed
		b.store.accumulate(date, row)
	}
	b.store.dates = append(b.store.dates, date)
	b.samples = append(b.samples, model.Sample{
		Day:       calendar.DayIndex(date),
		Date:      date,
		Confirmed: total,
	})
	b.logger.Debug("ingested snapshot", "date", date, "rows", len(rows), "confirmed", total)
	return nil
}

// Finalize returns the built store and the per-day world samples.
func (b *Builder) Finalize() (*Store, []model.Sample) {
	return b.store, append([]model.Sample(nil), b.samples...)
}

// Ingest builds a store from snapshots given in chronological order. Any
// snapshot that cannot be opened or read aborts the whole run.
func Ingest(parser *record.Parser, logger *slog.Logger, snapshots []Snapshot) (*Store, []model.Sample, error) {
	b := NewBuilder(parser, logger)
	for _, snap := range snapshots {
		if err := ingestOne(b, snap); err != nil {
			return nil, nil, err
		}
	}
	st, samples := b.Finalize()
	b.logger.Info("ingestion complete", "reports", len(snapshots), "regions", st.Len())
	return st, samples, nil
}

func ingestOne(b *Builder, snap Snapshot) error {
	rc, err := snap.Open()
	if err != nil {
		return fmt.Errorf("open snapshot %s: %w", snap.Date, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			// Best-effort close for read-only snapshot.
			_ = cerr
		}
	}()
	return b.AddDay(snap.Date, rc)
}

func readRows(r io.Reader, parser *record.Parser) ([]model.Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var rows []model.Row
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		row, ok := parser.Parse(scanner.Text())
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Package source discovers snapshot and fact files on disk and loads them into
// an aggregate store.
package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/epitrack/internal/aggregate"
	"github.com/verte-zerg/epitrack/internal/calendar"
	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/query"
	"github.com/verte-zerg/epitrack/internal/record"
)

// ErrNoReports is returned when the reports directory holds no snapshot files.
var ErrNoReports = errors.New("no daily reports found")

// Config locates the input files.
type Config struct {
	ReportsDir         string
	FactsDir           string
	PopulationFile     string
	LifeExpectancyFile string
}

// Dataset is the result of a full load.
type Dataset struct {
	Store   *aggregate.Store
	Samples []model.Sample
	Engine  *query.Engine

	// Reports is the number of daily snapshots ingested.
	Reports int
	// FactFiles is the number of fact tables that were found and applied.
	FactFiles int
}

// DiscoverReports lists snapshot files in dir sorted by name. Directories,
// hidden files and names without a date are skipped.
func DiscoverReports(dir string) ([]aggregate.Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read reports dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	snapshots := make([]aggregate.Snapshot, 0, len(names))
	for _, name := range names {
		date, ok := calendar.DateFromFilename(name)
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		snapshots = append(snapshots, aggregate.Snapshot{
			Date: date,
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoReports)
	}
	return snapshots, nil
}

// LoadFacts reads one fact table from path.
func LoadFacts(path string) ([]aggregate.FactRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only fact table.
			_ = cerr
		}
	}()
	return aggregate.ReadFacts(file)
}

// Load ingests every snapshot in cfg.ReportsDir and enriches the result with
// the fact tables. A missing population table is tolerated; a missing life
// expectancy table is fatal.
func Load(cfg Config, parser *record.Parser, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	snapshots, err := DiscoverReports(cfg.ReportsDir)
	if err != nil {
		return nil, err
	}
	st, samples, err := aggregate.Ingest(parser, logger, snapshots)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Store:   st,
		Samples: samples,
		Engine:  query.New(st),
		Reports: len(snapshots),
	}

	tables := []struct {
		kind     aggregate.FactKind
		file     string
		required bool
	}{
		{aggregate.Population, cfg.PopulationFile, false},
		{aggregate.LifeExpectancy, cfg.LifeExpectancyFile, true},
	}
	for _, table := range tables {
		path := filepath.Join(cfg.FactsDir, table.file)
		rows, err := LoadFacts(path)
		if err != nil {
			if !table.required && errors.Is(err, os.ErrNotExist) {
				logger.Warn("fact table missing, continuing", "kind", table.kind.String(), "path", path)
				continue
			}
			return nil, fmt.Errorf("load %s table: %w", table.kind, err)
		}
		matched := st.Enrich(table.kind, rows)
		logger.Debug("applied fact table", "kind", table.kind.String(), "rows", len(rows), "matched", matched)
		ds.FactFiles++
	}
	return ds, nil
}

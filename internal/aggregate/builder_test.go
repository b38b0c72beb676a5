package aggregate

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/record"
)

const header = "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered\n"

func snapshot(date, body string) Snapshot {
	return Snapshot{
		Date: date,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(header + body)), nil
		},
	}
}

func TestAddDayAccumulatesRows(t *testing.T) {
	b := NewBuilder(record.NewParser(nil), nil)
	require.NoError(t, b.AddDay("03-01-2020", strings.NewReader(header+
		"North,Testland,t,5,1,0\n"+
		"South,Testland,t,7,0,2\n")))

	st, samples := b.Finalize()
	r, ok := st.Region("Testland")
	require.True(t, ok)
	rec, ok := r.Series.Get("03-01-2020")
	require.True(t, ok)
	assert.Equal(t, model.DailyRecord{Confirmed: 12, Deaths: 1, Recovered: 2}, rec)
	require.Len(t, samples, 1)
	assert.Equal(t, model.Sample{Day: 40, Date: "03-01-2020", Confirmed: 12}, samples[0])
}

func TestAliasAccumulatesIntoCanonicalEntry(t *testing.T) {
	b := NewBuilder(record.NewParser(nil), nil)
	require.NoError(t, b.AddDay("02-01-2020", strings.NewReader(header+
		"Hubei,Mainland China,t,100,2,1\n"+
		",China,t,3,0,0\n")))
	st, _ := b.Finalize()

	_, ok := st.Region("Mainland China")
	assert.False(t, ok)
	r, ok := st.Region("China")
	require.True(t, ok)
	rec, _ := r.Series.Get("02-01-2020")
	assert.Equal(t, int64(103), rec.Confirmed)
	assert.Equal(t, []string{"China"}, st.Names())
}

func TestFirstOccurrenceIsSetOnce(t *testing.T) {
	st, _, err := Ingest(record.NewParser(nil), nil, []Snapshot{
		snapshot("01-22-2020", ",Italy,t,0,0,0\n"),
		snapshot("01-23-2020", ",Italy,t,2,0,0\n"),
		snapshot("01-24-2020", ",Italy,t,5,1,0\n"),
		snapshot("01-25-2020", ",Italy,t,9,1,3\n"),
	})
	require.NoError(t, err)

	r, ok := st.Region("Italy")
	require.True(t, ok)
	assert.Equal(t, "01-23-2020", r.FirstConfirmed)
	assert.Equal(t, "01-24-2020", r.FirstDeath)
	assert.Equal(t, "01-25-2020", r.FirstRecovery)
	assert.Equal(t, "01-23-2020", r.FirstDate(model.Confirmed))
	assert.Equal(t, 4, r.Series.Len())
}

func TestAbsentDayIsDistinctFromZero(t *testing.T) {
	st, samples, err := Ingest(record.NewParser(nil), nil, []Snapshot{
		snapshot("01-22-2020", ",Italy,t,0,0,0\n,France,t,1,0,0\n"),
		snapshot("01-23-2020", ",France,t,2,0,0\n"),
	})
	require.NoError(t, err)

	italy, _ := st.Region("Italy")
	_, ok := italy.Series.Get("01-22-2020")
	assert.True(t, ok, "ingested zero must be stored")
	_, ok = italy.Series.Get("01-23-2020")
	assert.False(t, ok, "absent day must not be stored")

	assert.Equal(t, []string{"France", "Italy"}, st.Names())
	assert.Equal(t, "01-23-2020", st.CurrentDate())
	assert.Equal(t, []string{"01-22-2020", "01-23-2020"}, st.Dates())
	require.Len(t, samples, 2)
	assert.Equal(t, int64(1), samples[0].Confirmed)
	assert.Equal(t, 2, samples[1].Day)
}

func TestAddDayReadErrorCommitsNothing(t *testing.T) {
	b := NewBuilder(record.NewParser(nil), nil)
	payload := io.MultiReader(
		strings.NewReader(header+",Italy,t,5,0,0\n"),
		iotest.ErrReader(errors.New("disk gone")),
	)
	err := b.AddDay("03-01-2020", payload)
	require.Error(t, err)

	st, samples := b.Finalize()
	assert.Equal(t, 0, st.Len())
	assert.Empty(t, samples)
	assert.Empty(t, st.Dates())
}

func TestIngestAbortsWhenSnapshotCannotOpen(t *testing.T) {
	_, _, err := Ingest(record.NewParser(nil), nil, []Snapshot{
		snapshot("01-22-2020", ",Italy,t,1,0,0\n"),
		{Date: "01-23-2020", Open: func() (io.ReadCloser, error) {
			return nil, errors.New("permission denied")
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "01-23-2020")
}

func TestSeriesKeepsDateOrder(t *testing.T) {
	var s Series
	s.add("03-02-2020", model.DailyRecord{Confirmed: 2})
	s.add("02-28-2020", model.DailyRecord{Confirmed: 1})
	s.add("03-01-2020", model.DailyRecord{Confirmed: 3})

	assert.Equal(t, []string{"02-28-2020", "03-01-2020", "03-02-2020"}, s.Dates())
	date, rec, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "03-02-2020", date)
	assert.Equal(t, int64(2), rec.Confirmed)
}

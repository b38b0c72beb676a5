package query

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/epitrack/internal/aggregate"
	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/record"
	"github.com/verte-zerg/epitrack/internal/timeline"
)

const header = "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered\n"

func day(date string, rows ...string) aggregate.Snapshot {
	body := header + strings.Join(rows, "\n") + "\n"
	return aggregate.Snapshot{
		Date: date,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func newEngine(t *testing.T, snaps ...aggregate.Snapshot) *Engine {
	t.Helper()
	st, _, err := aggregate.Ingest(record.NewParser(nil), nil, snaps)
	require.NoError(t, err)
	return New(st)
}

func TestTopN(t *testing.T) {
	e := newEngine(t, day("03-01-2020", ",A,t,50,0,0", ",B,t,200,0,0", ",C,t,10,0,0"))

	top := e.TopN("03-01-2020", 2)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Name)
	assert.Equal(t, "A", top[1].Name)

	assert.Len(t, e.TopN("03-01-2020", 10), 3)
	assert.Empty(t, e.TopN("03-01-2020", 0))
}

func TestTopNTiesOrderedByName(t *testing.T) {
	e := newEngine(t, day("03-01-2020", ",Zed,t,5,0,0", ",Alpha,t,5,0,0", ",Mid,t,9,0,0"))
	top := e.TopN("03-01-2020", 3)
	assert.Equal(t, []string{"Mid", "Alpha", "Zed"}, []string{top[0].Name, top[1].Name, top[2].Name})
}

func TestTotals(t *testing.T) {
	e := newEngine(t,
		day("03-01-2020", ",A,t,100,4,10", ",B,t,100,6,30"),
		day("03-02-2020", ",A,t,150,5,20"),
	)
	tot := e.Totals("03-01-2020")
	assert.Equal(t, int64(200), tot.Confirmed)
	assert.Equal(t, int64(10), tot.Deaths)
	assert.Equal(t, int64(40), tot.Recovered)
	assert.True(t, tot.RatesDefined)
	assert.InDelta(t, 5.0, tot.DeathPct, 1e-9)
	assert.InDelta(t, 20.0, tot.RecoveredPct, 1e-9)

	// B has no record on the second day and contributes zero.
	tot = e.Totals("03-02-2020")
	assert.Equal(t, int64(150), tot.Confirmed)
}

func TestTotalsWithoutConfirmed(t *testing.T) {
	e := newEngine(t, day("03-01-2020", ",A,t,0,0,0"))
	tot := e.Totals("03-01-2020")
	assert.False(t, tot.RatesDefined)
	assert.Zero(t, tot.DeathPct)
	assert.Zero(t, tot.RecoveredPct)
}

func TestListRegionsDoesNotMutateStore(t *testing.T) {
	e := newEngine(t,
		day("03-01-2020", ",A,t,1,0,0", ",B,t,2,0,0"),
		day("03-02-2020", ",A,t,3,0,0"),
	)
	list := e.ListRegions("03-02-2020")
	require.Len(t, list, 2)
	assert.Equal(t, model.RegionCounts{Name: "B"}, list[1])

	_, recs, ok := e.Series("B")
	require.True(t, ok)
	assert.Len(t, recs, 1)
}

func TestRegionLatestUsesRegionsOwnLastDate(t *testing.T) {
	e := newEngine(t,
		day("03-01-2020", ",A,t,1,0,0", ",B,t,7,1,2"),
		day("03-02-2020", ",A,t,3,0,0"),
	)
	v, ok := e.Region("B", e.CurrentDate())
	require.True(t, ok)
	assert.False(t, v.HasCurrent)
	assert.Equal(t, "03-01-2020", v.LatestDate)
	assert.Equal(t, model.DailyRecord{Confirmed: 7, Deaths: 1, Recovered: 2}, v.Latest)
	assert.Equal(t, "03-01-2020", v.FirstConfirmed)
	assert.Equal(t, "03-01-2020", v.FirstDeath)

	_, ok = e.Region("Nowhere", e.CurrentDate())
	assert.False(t, ok)
	assert.True(t, e.HasRegion("A"))
	assert.False(t, e.HasRegion("a"))
}

func TestTimelineDayNumbersCountFromFirstConfirmed(t *testing.T) {
	e := newEngine(t,
		day("03-01-2020", ",A,t,1,0,0"),
		day("03-02-2020", ",A,t,2,0,0"),
		day("03-03-2020", ",A,t,4,1,0"),
		day("03-04-2020", ",A,t,8,2,0"),
	)
	v, ok := e.Timeline("A", model.Deaths, e.CurrentDate(), timeline.DefaultWindow)
	require.True(t, ok)
	require.False(t, v.Truncated)
	assert.Equal(t, []timeline.Entry{
		{Date: "03-03-2020", Day: 3, Value: 1},
		{Date: "03-04-2020", Day: 4, Value: 2},
	}, v.Head)

	v, ok = e.Timeline("A", model.Recovered, e.CurrentDate(), timeline.DefaultWindow)
	require.True(t, ok)
	assert.Equal(t, 0, v.Len())
}

func TestTimelineStopsAtCurrentDate(t *testing.T) {
	e := newEngine(t,
		day("03-01-2020", ",A,t,1,0,0"),
		day("03-02-2020", ",A,t,2,0,0"),
		day("03-03-2020", ",A,t,4,0,0"),
	)
	v, _ := e.Timeline("A", model.Confirmed, "03-02-2020", timeline.DefaultWindow)
	assert.Equal(t, 2, v.Len())
}

func TestTimelineTruncation(t *testing.T) {
	build := func(days int) *Engine {
		snaps := make([]aggregate.Snapshot, 0, days)
		for d := 1; d <= days; d++ {
			snaps = append(snaps, day(fmt.Sprintf("03-%02d-2020", d), fmt.Sprintf(",A,t,%d,0,0", d)))
		}
		return newEngine(t, snaps...)
	}

	// 15 observed dates span 14 days: full listing.
	e := build(15)
	v, _ := e.Timeline("A", model.Confirmed, e.CurrentDate(), timeline.DefaultWindow)
	assert.False(t, v.Truncated)
	assert.Equal(t, 15, v.Len())

	// 16 observed dates span 15 days: first 7 and last 7.
	e = build(16)
	v, _ = e.Timeline("A", model.Confirmed, e.CurrentDate(), timeline.DefaultWindow)
	require.True(t, v.Truncated)
	assert.Equal(t, "03-07-2020", v.Head[6].Date)
	assert.Equal(t, 7, v.Head[6].Day)
	assert.Equal(t, "03-10-2020", v.Tail[0].Date)
	assert.Equal(t, 16, v.Tail[6].Day)
	assert.Equal(t, int64(16), v.Tail[6].Value)
}

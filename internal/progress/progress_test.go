package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type portion struct {
	name      string
	completed bool
	planned   *time.Time
}

func (p portion) Completed() bool { return p.completed }

func (p portion) PlannedOn() (time.Time, bool) {
	if p.planned == nil {
		return time.Time{}, false
	}
	return *p.planned, true
}

func day(value string) *time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &parsed
}

var today = time.Date(2024, time.January, 15, 14, 30, 0, 0, time.UTC)

func TestClassifyCompletedAlwaysWins(t *testing.T) {
	for _, planned := range []*time.Time{day("2023-12-01"), day("2024-01-15"), day("2024-03-01"), nil} {
		require.Equal(t, StatusCompleted, Classify(portion{completed: true, planned: planned}, today))
	}
}

func TestClassifyByPlannedDay(t *testing.T) {
	require.Equal(t, StatusOverdue, Classify(portion{planned: day("2024-01-14")}, today))
	require.Equal(t, StatusDueToday, Classify(portion{planned: day("2024-01-15")}, today))
	require.Equal(t, StatusPending, Classify(portion{planned: day("2024-01-16")}, today))
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	lateToday := time.Date(2024, time.January, 15, 23, 59, 0, 0, time.UTC)
	earlyToday := time.Date(2024, time.January, 15, 0, 1, 0, 0, time.UTC)

	require.Equal(t, StatusDueToday, Classify(portion{planned: &lateToday}, earlyToday))
	require.Equal(t, StatusDueToday, Classify(portion{planned: &earlyToday}, lateToday))
}

func TestClassifyKeepsCalendarDayAcrossZones(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	localToday := time.Date(2024, time.January, 15, 8, 0, 0, 0, zone)

	require.Equal(t, StatusDueToday, Classify(portion{planned: day("2024-01-15")}, localToday))
}

func TestClassifyUndatedIsPending(t *testing.T) {
	require.Equal(t, StatusPending, Classify(portion{}, today))
	require.Len(t, Undated([]portion{{}, {planned: day("2024-01-01")}, {completed: true}}), 1)
}

func TestAggregateEmpty(t *testing.T) {
	require.Equal(t, Summary{}, Aggregate([]portion{}, today))
	require.Equal(t, Summary{}, Aggregate[portion](nil, today))
}

func TestAggregateScenario(t *testing.T) {
	portions := []portion{
		{completed: true, planned: day("2024-01-10")},
		{planned: day("2024-01-14")},
		{planned: day("2024-01-16")},
	}

	summary := Aggregate(portions, today)
	require.Equal(t, Summary{Total: 3, Completed: 1, Overdue: 1, Percentage: 33}, summary)
	require.Equal(t, 2, summary.Pending())
}

func TestAggregateCompletedPortionIsNeverOverdue(t *testing.T) {
	summary := Aggregate([]portion{{completed: true, planned: day("2023-01-01")}}, today)
	require.Equal(t, 0, summary.Overdue)
	require.Equal(t, 100, summary.Percentage)
}

func TestPercentageRoundsToNearest(t *testing.T) {
	require.Equal(t, 0, Percentage(0, 0))
	require.Equal(t, 67, Percentage(2, 3))
	require.Equal(t, 50, Percentage(1, 2))
	require.Equal(t, 13, Percentage(1, 8))
	require.Equal(t, 100, Percentage(7, 7))

	for whole := 1; whole <= 40; whole++ {
		for part := 0; part <= whole; part++ {
			pct := Percentage(part, whole)
			require.GreaterOrEqual(t, pct, 0)
			require.LessOrEqual(t, pct, 100)
		}
	}
}

func TestUpcomingWindow(t *testing.T) {
	portions := []portion{
		{name: "yesterday", planned: day("2024-01-14")},
		{name: "in-three", planned: day("2024-01-18")},
		{name: "today", planned: day("2024-01-15")},
		{name: "edge", planned: day("2024-01-22")},
		{name: "beyond", planned: day("2024-01-23")},
		{name: "done", completed: true, planned: day("2024-01-16")},
		{name: "undated"},
	}

	upcoming := Upcoming(portions, today, DefaultUpcomingWindowDays)
	require.Len(t, upcoming, 3)
	require.Equal(t, "today", upcoming[0].Item.name)
	require.Equal(t, 0, upcoming[0].DaysUntil)
	require.Equal(t, "in-three", upcoming[1].Item.name)
	require.Equal(t, 3, upcoming[1].DaysUntil)
	require.Equal(t, "edge", upcoming[2].Item.name)
	require.Equal(t, 7, upcoming[2].DaysUntil)

	for _, item := range upcoming {
		require.False(t, item.Item.completed)
	}
}

func TestDeadlineLabel(t *testing.T) {
	require.Equal(t, "today", DeadlineLabel(0))
	require.Equal(t, "tomorrow", DeadlineLabel(1))
	require.Equal(t, "5 days", DeadlineLabel(5))
}

func TestOverdueOrdersBySlip(t *testing.T) {
	portions := []portion{
		{name: "one", planned: day("2024-01-14")},
		{name: "ten", planned: day("2024-01-05")},
		{name: "done", completed: true, planned: day("2024-01-01")},
		{name: "future", planned: day("2024-02-01")},
	}

	lapses := Overdue(portions, today)
	require.Len(t, lapses, 2)
	require.Equal(t, "ten", lapses[0].Item.name)
	require.Equal(t, 10, lapses[0].DaysOverdue)
	require.Equal(t, "one", lapses[1].Item.name)
	require.Equal(t, 1, lapses[1].DaysOverdue)
}

func TestGroupByKeepsEncounterOrder(t *testing.T) {
	groups := GroupBy([]string{"b1", "a1", "b2", "c1", "a2"}, func(s string) byte { return s[0] })
	require.Len(t, groups, 3)
	require.Equal(t, byte('b'), groups[0].Key)
	require.Equal(t, []string{"b1", "b2"}, groups[0].Items)
	require.Equal(t, byte('a'), groups[1].Key)
	require.Equal(t, byte('c'), groups[2].Key)

	counts := Index(MapValues(groups, func(_ byte, items []string) int { return len(items) }))
	require.Equal(t, map[byte]int{'a': 2, 'b': 2, 'c': 1}, counts)
}

func TestSortByPercentageIsStable(t *testing.T) {
	type row struct {
		name string
		pct  int
	}
	rows := []row{{"x", 50}, {"y", 80}, {"z", 50}, {"w", 80}}
	SortByPercentage(rows, func(r row) float64 { return float64(r.pct) })
	require.Equal(t, []row{{"y", 80}, {"w", 80}, {"x", 50}, {"z", 50}}, rows)
}

type mark struct {
	student  uint
	amount   *float64
	max      float64
	verified bool
}

func (m mark) StudentKey() uint   { return m.student }
func (m mark) Amount() *float64   { return m.amount }
func (m mark) MaxAmount() float64 { return m.max }
func (m mark) IsVerified() bool   { return m.verified }

func score(v float64) *float64 { return &v }

func TestRankScenarioVerifiedOnly(t *testing.T) {
	standings := Rank([]mark{
		{student: 1, amount: score(18), max: 20, verified: true},
		{student: 1, amount: score(16), max: 20, verified: true},
		{student: 2, amount: score(20), max: 20, verified: false},
	})

	require.Len(t, standings, 1)
	require.Equal(t, uint(1), standings[0].StudentID)
	require.InDelta(t, 34, standings[0].Total, 1e-9)
	require.InDelta(t, 40, standings[0].MaxPossible, 1e-9)
	require.InDelta(t, 85.0, standings[0].Percentage, 1e-9)
	require.Equal(t, 2, standings[0].Count)
	require.Equal(t, 1, standings[0].Rank)
}

func TestRankMixedVerificationUsesVerifiedOnly(t *testing.T) {
	standings := Rank([]mark{
		{student: 7, amount: score(10), max: 20, verified: true},
		{student: 7, amount: score(20), max: 20, verified: false},
		{student: 7, amount: nil, max: 20, verified: true},
	})

	require.Len(t, standings, 1)
	require.Equal(t, 1, standings[0].Count)
	require.InDelta(t, 50.0, standings[0].Percentage, 1e-9)
}

func TestRankTiesReceiveConsecutiveRanks(t *testing.T) {
	standings := Rank([]mark{
		{student: 3, amount: score(18), max: 20, verified: true},
		{student: 4, amount: score(9), max: 10, verified: true},
		{student: 5, amount: score(19), max: 20, verified: true},
	})

	require.Len(t, standings, 3)
	require.Equal(t, uint(5), standings[0].StudentID)
	require.Equal(t, uint(3), standings[1].StudentID)
	require.Equal(t, uint(4), standings[2].StudentID)
	require.InDelta(t, 90.0, standings[1].Percentage, 1e-9)
	require.InDelta(t, 90.0, standings[2].Percentage, 1e-9)

	for i, standing := range standings {
		require.Equal(t, i+1, standing.Rank)
	}
}

func TestRankZeroDenominator(t *testing.T) {
	standings := Rank([]mark{{student: 9, amount: score(0), max: 0, verified: true}})
	require.Len(t, standings, 1)
	require.Zero(t, standings[0].Percentage)
}

func TestRankEmpty(t *testing.T) {
	require.Empty(t, Rank([]mark{}))
}

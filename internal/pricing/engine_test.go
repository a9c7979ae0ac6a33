package pricing

import (
	"testing"
	"time"

	"rental/internal/calendar"
	"rental/internal/domain/pricingrules"

	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestTotalPrice_BasePriceOnly(t *testing.T) {
	total := TotalPrice(day(t, "2026-05-01"), day(t, "2026-05-07"), nil, 85, 140)
	require.Equal(t, 650.0, total)
}

func TestTotalPrice_SeasonalRule(t *testing.T) {
	rules := []pricingrules.Rule{{
		ID:           1,
		StartDate:    day(t, "2026-02-01"),
		EndDate:      day(t, "2026-02-28"),
		NightlyPrice: 120,
		Active:       true,
	}}

	total := TotalPrice(day(t, "2026-02-10"), day(t, "2026-02-16"), rules, 85, 140)
	require.Equal(t, 860.0, total)
}

func TestTotalPrice_ZeroNightsIsFeeOnly(t *testing.T) {
	require.Equal(t, 140.0, TotalPrice(day(t, "2026-02-10"), day(t, "2026-02-10"), nil, 85, 140))
}

func TestTotalPrice_RuleBoundaryIsInclusive(t *testing.T) {
	rules := []pricingrules.Rule{{StartDate: day(t, "2026-03-03"), EndDate: day(t, "2026-03-04"), NightlyPrice: 100, Active: true}}

	// nights: 03-02 base, 03-03 rule, 03-04 rule, 03-05 base
	total := TotalPrice(day(t, "2026-03-02"), day(t, "2026-03-06"), rules, 85, 0)
	require.Equal(t, 370.0, total)
}

func TestPriceForNight_FirstActiveMatchWins(t *testing.T) {
	rules := []pricingrules.Rule{
		{ID: 1, StartDate: day(t, "2026-07-01"), EndDate: day(t, "2026-07-31"), NightlyPrice: 150, Active: false},
		{ID: 2, StartDate: day(t, "2026-07-01"), EndDate: day(t, "2026-07-31"), NightlyPrice: 130, Active: true},
		{ID: 3, StartDate: day(t, "2026-07-10"), EndDate: day(t, "2026-07-20"), NightlyPrice: 200, Active: true},
	}

	require.Equal(t, 130.0, PriceForNight(day(t, "2026-07-15"), rules, 85))
	require.Equal(t, 85.0, PriceForNight(day(t, "2026-08-01"), rules, 85))
}

func TestDepositAndRemaining(t *testing.T) {
	deposit := DepositAmount(860, 0.30)
	require.Equal(t, 258.0, deposit)
	require.Equal(t, 602.0, RemainingAmount(860, deposit))
	require.Equal(t, 0.0, RemainingAmount(100, 150))
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	require.Equal(t, 0.13, Round2(0.125))
	require.Equal(t, 196.5, Round2(196.499999999))
	require.Equal(t, -0.13, Round2(-0.125))
}

func TestBalanceDueDate(t *testing.T) {
	require.Equal(t, day(t, "2026-06-15"), BalanceDueDate(day(t, "2026-07-15")))
}

func TestEngine_MinStayForRange(t *testing.T) {
	e := NewEngine(nil, 85, DefaultPolicy())

	require.Equal(t, 6, e.MinStayForRange(day(t, "2026-02-10"), day(t, "2026-02-13")))
	// Degenerate ranges still evaluate the start night.
	require.Equal(t, 6, e.MinStayForRange(day(t, "2026-02-10"), day(t, "2026-02-10")))

	e.MinStayFor = func(d time.Time) int {
		if d.Equal(day(t, "2026-12-24")) {
			return 7
		}
		return 3
	}
	require.Equal(t, 3, e.MinStayForRange(day(t, "2026-12-20"), day(t, "2026-12-24")))
	require.Equal(t, 7, e.MinStayForRange(day(t, "2026-12-20"), day(t, "2026-12-25")))
}

func TestEngine_Quote(t *testing.T) {
	rules := []pricingrules.Rule{{StartDate: day(t, "2026-02-01"), EndDate: day(t, "2026-02-28"), NightlyPrice: 120, Active: true}}
	q := NewEngine(rules, 85, DefaultPolicy()).Quote(day(t, "2026-02-10"), day(t, "2026-02-16"))

	require.Equal(t, 6, q.Nights)
	require.Len(t, q.Nightly, 6)
	require.Equal(t, 720.0, q.Subtotal)
	require.Equal(t, 860.0, q.Total)
	require.Equal(t, 258.0, q.Deposit)
	require.Equal(t, 602.0, q.Remaining)
	require.Equal(t, 6, q.MinStay)
	require.Equal(t, "2026-01-10", q.BalanceDueDate)
}

func TestOverlapping(t *testing.T) {
	rule := pricingrules.Rule{ID: 9, StartDate: day(t, "2026-07-10"), EndDate: day(t, "2026-07-20")}
	rules := []pricingrules.Rule{
		rule,
		{ID: 1, StartDate: day(t, "2026-07-01"), EndDate: day(t, "2026-07-10")},
		{ID: 2, StartDate: day(t, "2026-07-21"), EndDate: day(t, "2026-07-31")},
		{ID: 3, StartDate: day(t, "2026-07-20"), EndDate: day(t, "2026-07-25")},
	}

	out := Overlapping(rule, rules)
	require.Len(t, out, 2)
	require.Equal(t, int64(1), out[0].ID)
	require.Equal(t, int64(3), out[1].ID)
}

package pricing

import (
	"math"
	"time"

	"rental/internal/calendar"
	"rental/internal/domain/pricingrules"
)

const (
	DefaultCleaningFee   = 140.0
	DefaultMinStayNights = 6
	DefaultDepositRatio  = 0.30
)

// Policy holds the fixed commercial terms of the unit.
type Policy struct {
	CleaningFee   float64 `json:"cleaning_fee"`
	MinStayNights int     `json:"min_stay_nights"`
	DepositRatio  float64 `json:"deposit_ratio"`
}

func DefaultPolicy() Policy {
	return Policy{
		CleaningFee:   DefaultCleaningFee,
		MinStayNights: DefaultMinStayNights,
		DepositRatio:  DefaultDepositRatio,
	}
}

// Round2 rounds to cents, halves away from zero (math.Round).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PriceForNight returns the price of the first active rule, in slice order,
// whose inclusive range contains date, or basePrice when none matches.
func PriceForNight(date time.Time, rules []pricingrules.Rule, basePrice float64) float64 {
	d := calendar.Day(date)
	for _, r := range rules {
		if !r.Active {
			continue
		}
		if !d.Before(calendar.Day(r.StartDate)) && !d.After(calendar.Day(r.EndDate)) {
			return r.NightlyPrice
		}
	}
	return basePrice
}

// TotalPrice sums the nightly price over [start, end) and adds the cleaning
// fee. A zero-night range costs the fee alone; callers reject such ranges
// before charging.
func TotalPrice(start, end time.Time, rules []pricingrules.Rule, basePrice, cleaningFee float64) float64 {
	total := cleaningFee
	for d := calendar.Day(start); d.Before(calendar.Day(end)); d = d.AddDate(0, 0, 1) {
		total += PriceForNight(d, rules, basePrice)
	}
	return Round2(total)
}

func DepositAmount(total, ratio float64) float64 {
	return Round2(total * ratio)
}

func RemainingAmount(total, deposit float64) float64 {
	return math.Max(0, Round2(total-deposit))
}

// BalanceDueDate is one calendar month before check-in. It is shown to the
// guest and never enforced.
func BalanceDueDate(checkIn time.Time) time.Time {
	return calendar.Day(checkIn).AddDate(0, -1, 0)
}

// Engine binds a rules snapshot and base price to the policy.
type Engine struct {
	Rules     []pricingrules.Rule
	BasePrice float64
	Policy    Policy

	// MinStayFor is the per-date minimum-stay hook. Nil means the policy
	// constant, which is the only behaviour in use today.
	MinStayFor func(day time.Time) int
}

func NewEngine(rules []pricingrules.Rule, basePrice float64, policy Policy) Engine {
	return Engine{Rules: rules, BasePrice: basePrice, Policy: policy}
}

func (e Engine) PriceForNight(date time.Time) float64 {
	return PriceForNight(date, e.Rules, e.BasePrice)
}

func (e Engine) MinStayForDate(date time.Time) int {
	if e.MinStayFor != nil {
		return e.MinStayFor(calendar.Day(date))
	}
	return e.Policy.MinStayNights
}

// MinStayForRange is the largest per-night minimum over [start, end). At
// least the start night is evaluated, even for an empty range.
func (e Engine) MinStayForRange(start, end time.Time) int {
	nights := calendar.Nights(start, end)
	if nights < 1 {
		nights = 1
	}
	required := 0
	for i := 0; i < nights; i++ {
		if m := e.MinStayForDate(calendar.AddDays(start, i)); m > required {
			required = m
		}
	}
	return required
}

func (e Engine) TotalPrice(start, end time.Time) float64 {
	return TotalPrice(start, end, e.Rules, e.BasePrice, e.Policy.CleaningFee)
}

// NightPrice is one line of a quote.
type NightPrice struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Quote is the priced breakdown of a stay.
type Quote struct {
	CheckIn        string       `json:"check_in"`
	CheckOut       string       `json:"check_out"`
	Nights         int          `json:"nights"`
	Nightly        []NightPrice `json:"nightly"`
	Subtotal       float64      `json:"subtotal"`
	CleaningFee    float64      `json:"cleaning_fee"`
	Total          float64      `json:"total"`
	Deposit        float64      `json:"deposit"`
	Remaining      float64      `json:"remaining"`
	MinStay        int          `json:"min_stay"`
	BalanceDueDate string       `json:"balance_due_date"`
}

func (e Engine) Quote(start, end time.Time) Quote {
	q := Quote{
		CheckIn:        calendar.Format(start),
		CheckOut:       calendar.Format(end),
		Nights:         calendar.Nights(start, end),
		CleaningFee:    e.Policy.CleaningFee,
		MinStay:        e.MinStayForRange(start, end),
		BalanceDueDate: calendar.Format(BalanceDueDate(start)),
	}
	for d := calendar.Day(start); d.Before(calendar.Day(end)); d = d.AddDate(0, 0, 1) {
		p := e.PriceForNight(d)
		q.Nightly = append(q.Nightly, NightPrice{Date: d.Format(calendar.Layout), Price: p})
		q.Subtotal += p
	}
	q.Subtotal = Round2(q.Subtotal)
	q.Total = e.TotalPrice(start, end)
	q.Deposit = DepositAmount(q.Total, e.Policy.DepositRatio)
	q.Remaining = RemainingAmount(q.Total, q.Deposit)
	return q
}

// Overlapping returns the rules, other than rule itself, whose date range
// intersects rule's. Overlaps are allowed; the admin is warned because the
// first match in (start_date, id) order wins at lookup.
func Overlapping(rule pricingrules.Rule, rules []pricingrules.Rule) []pricingrules.Rule {
	var out []pricingrules.Rule
	for _, r := range rules {
		if r.ID == rule.ID {
			continue
		}
		if !calendar.Day(r.StartDate).After(calendar.Day(rule.EndDate)) &&
			!calendar.Day(rule.StartDate).After(calendar.Day(r.EndDate)) {
			out = append(out, r)
		}
	}
	return out
}

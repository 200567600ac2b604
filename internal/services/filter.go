package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/repo"
)

// DateRange restricts donations to those created since a cutoff.
type DateRange string

const (
	DateAll   DateRange = "all"
	DateToday DateRange = "today"
	DateWeek  DateRange = "week"
	DateMonth DateRange = "month"
)

// AmountRange is one of the fixed amount bands. Bounds are inclusive.
type AmountRange string

const (
	AmountAll      AmountRange = "all"
	AmountUpTo1K   AmountRange = "0-1000"
	Amount1Kto5K   AmountRange = "1001-5000"
	Amount5Kto10K  AmountRange = "5001-10000"
	AmountAbove10K AmountRange = "10000+"
)

type amountBand struct {
	min decimal.Decimal
	max *decimal.Decimal // nil = unbounded
}

func bounded(lo, hi int64) amountBand {
	m := decimal.NewFromInt(hi)
	return amountBand{min: decimal.NewFromInt(lo), max: &m}
}

var amountBands = map[AmountRange]amountBand{
	AmountUpTo1K:   bounded(0, 1000),
	Amount1Kto5K:   bounded(1001, 5000),
	Amount5Kto10K:  bounded(5001, 10000),
	AmountAbove10K: {min: decimal.NewFromInt(10000)},
}

// DonationFilter is a conjunction of optional constraints over donations.
// Zero-value Community and PaymentMode mean "no constraint".
type DonationFilter struct {
	DateRange   DateRange
	Community   domain.Community
	PaymentMode domain.PaymentMode
	AmountRange AmountRange
}

// AllFilters matches every donation.
var AllFilters = DonationFilter{DateRange: DateAll, AmountRange: AmountAll}

// ParseFilter builds a filter from raw query values. Empty, "all"/"any", and
// unrecognized values all disable the corresponding constraint.
func ParseFilter(dateRange, community, paymentMode, amountRange string) DonationFilter {
	f := AllFilters

	switch dr := DateRange(strings.ToLower(strings.TrimSpace(dateRange))); dr {
	case DateToday, DateWeek, DateMonth:
		f.DateRange = dr
	}

	if c := domain.Community(strings.ToLower(strings.TrimSpace(community))); c != domain.CommunityAny && c.Valid() {
		f.Community = c
	}

	pm := strings.TrimSpace(paymentMode)
	for _, m := range domain.PaymentModes {
		if strings.EqualFold(pm, string(m)) {
			f.PaymentMode = m
			break
		}
	}

	if ar := AmountRange(strings.TrimSpace(amountRange)); ar != "" {
		if _, ok := amountBands[ar]; ok {
			f.AmountRange = ar
		}
	}
	return f
}

// Cutoff returns the lower created_at bound for the date range, evaluated at
// now in loc. The second result is false for DateAll.
func (f DonationFilter) Cutoff(now time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	switch f.DateRange {
	case DateToday:
		y, m, d := local.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	case DateWeek:
		return local.Add(-7 * 24 * time.Hour), true
	case DateMonth:
		return local.AddDate(0, -1, 0), true
	}
	return time.Time{}, false
}

// Key is a stable textual form of the filter, used in cache validators.
func (f DonationFilter) Key() string {
	return strings.Join([]string{
		string(f.DateRange), string(f.Community), string(f.PaymentMode), string(f.AmountRange),
	}, "|")
}

// Match is the in-memory form of the filter.
func (f DonationFilter) Match(d domain.Donation, now time.Time, loc *time.Location) bool {
	if cut, ok := f.Cutoff(now, loc); ok && d.CreatedAt.Before(cut) {
		return false
	}
	if f.Community != "" && d.Community != f.Community {
		return false
	}
	if f.PaymentMode != "" && d.PaymentMode != f.PaymentMode {
		return false
	}
	if band, ok := amountBands[f.AmountRange]; ok {
		if d.Amount.LessThan(band.min) {
			return false
		}
		if band.max != nil && d.Amount.GreaterThan(*band.max) {
			return false
		}
	}
	return true
}

// Scope is the SQL form of Match, pushed down to the repository.
func (f DonationFilter) Scope(now time.Time, loc *time.Location) repo.Scope {
	return func(q *gorm.DB) *gorm.DB {
		if cut, ok := f.Cutoff(now, loc); ok {
			q = q.Where("created_at >= ?", cut.UTC())
		}
		if f.Community != "" {
			q = q.Where("community = ?", string(f.Community))
		}
		if f.PaymentMode != "" {
			q = q.Where("payment_mode = ?", string(f.PaymentMode))
		}
		if band, ok := amountBands[f.AmountRange]; ok {
			q = q.Where("amount >= ?", band.min)
			if band.max != nil {
				q = q.Where("amount <= ?", *band.max)
			}
		}
		return q
	}
}

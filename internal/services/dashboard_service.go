// Package services – DashboardService
//
// DashboardService computes global collection statistics by reading the full
// donation set. Rounding is uniform: the average donation and every
// payment-mode percentage are rounded half away from zero to whole rupees /
// whole percent.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/observability"
)

// DefaultRecentDonations is how many recent donations the dashboard shows.
const DefaultRecentDonations = 5

// DashboardService builds DashboardStats.
type DashboardService struct {
	DB       *gorm.DB
	Repo     DonationRepository
	Retry    RetryPolicy
	Location *time.Location // "this month" is evaluated in this zone
	Recent   int
	Now      func() time.Time
}

// NewDashboardService constructs a DashboardService with UTC months and five
// recent donations.
func NewDashboardService(db *gorm.DB, r DonationRepository) *DashboardService {
	return &DashboardService{
		DB:       db,
		Repo:     r,
		Retry:    DefaultRetryPolicy(),
		Location: time.UTC,
		Recent:   DefaultRecentDonations,
		Now:      time.Now,
	}
}

// Stats computes the dashboard over every stored donation. With no donations
// every figure is zero and the distribution still lists all five modes.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	ctx, span := observability.Tracer("services/DashboardService").Start(ctx, "Stats")
	defer span.End()

	ds, err := withRetry(ctx, s.Retry, "list", func() ([]domain.Donation, error) {
		return s.Repo.ListDonations(ctx, s.DB)
	})
	if err != nil {
		return nil, err
	}
	return ComputeStats(ds, s.now(), s.Location, s.Recent), nil
}

func (s *DashboardService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ComputeStats aggregates ds, which must be ordered newest first.
func ComputeStats(ds []domain.Donation, now time.Time, loc *time.Location, recent int) *domain.DashboardStats {
	if loc == nil {
		loc = time.UTC
	}
	if recent <= 0 {
		recent = DefaultRecentDonations
	}
	y, m, _ := now.In(loc).Date()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)

	total := decimal.Zero
	thisMonth := decimal.Zero
	byMode := make(map[domain.PaymentMode]decimal.Decimal, len(domain.PaymentModes))
	phones := make(map[string]struct{})
	for _, d := range ds {
		total = total.Add(d.Amount)
		phones[d.Phone] = struct{}{}
		byMode[d.PaymentMode] = byMode[d.PaymentMode].Add(d.Amount)
		if !d.CreatedAt.Before(monthStart) {
			thisMonth = thisMonth.Add(d.Amount)
		}
	}

	avg := decimal.Zero
	if len(ds) > 0 {
		avg = total.Div(decimal.NewFromInt(int64(len(ds)))).Round(0)
	}

	hundred := decimal.NewFromInt(100)
	dist := make([]domain.PaymentModeShare, 0, len(domain.PaymentModes))
	for _, mode := range domain.PaymentModes {
		amt := byMode[mode]
		var pct int64
		if total.IsPositive() {
			pct = amt.Mul(hundred).Div(total).Round(0).IntPart()
		}
		dist = append(dist, domain.PaymentModeShare{Mode: mode, Amount: amt, Percentage: pct})
	}

	n := recent
	if len(ds) < n {
		n = len(ds)
	}
	rec := make([]domain.RecentDonation, 0, n)
	for _, d := range ds[:n] {
		rec = append(rec, domain.RecentDonation{
			Name:        d.Name,
			Amount:      d.Amount,
			PaymentMode: d.PaymentMode,
			CreatedAt:   d.CreatedAt,
		})
	}

	return &domain.DashboardStats{
		TotalCollection:         total,
		TotalDonors:             len(phones),
		ThisMonth:               thisMonth,
		AvgDonation:             avg,
		PaymentModeDistribution: dist,
		RecentDonations:         rec,
	}
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templeledger/donations-backend/internal/domain"
)

func TestDashboardService_Stats_Empty(t *testing.T) {
	db := newTestDB(t)
	s := NewDashboardService(db, sqlRepo{})
	s.Retry = fastRetry()

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, st.TotalCollection.IsZero())
	assert.Zero(t, st.TotalDonors)
	assert.True(t, st.ThisMonth.IsZero())
	assert.True(t, st.AvgDonation.IsZero())
	require.Len(t, st.PaymentModeDistribution, len(domain.PaymentModes))
	for i, share := range st.PaymentModeDistribution {
		assert.Equal(t, domain.PaymentModes[i], share.Mode)
		assert.Zero(t, share.Percentage)
		assert.True(t, share.Amount.IsZero())
	}
	assert.Empty(t, st.RecentDonations)
}

func TestComputeStats_TotalsRoundingAndRecent(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 7, 10, 9, 0, 0, 0, ist)

	// Newest first, as the repository returns them.
	ds := []domain.Donation{
		donationAt("7", "9000000003", 1, domain.PaymentUPI, now.Add(-time.Hour)),
		donationAt("6", "9000000003", 1, domain.PaymentUPI, now.Add(-2*time.Hour)),
		donationAt("5", "9000000002", 1, domain.PaymentCash, now.Add(-3*time.Hour)),
		// 00:30 IST on July 1st is still this month in the temple's zone even
		// though it is June 30th in UTC.
		donationAt("4", "9000000001", 1, domain.PaymentCheque, time.Date(2025, 6, 30, 19, 0, 0, 0, time.UTC)),
		donationAt("3", "9000000001", 0, domain.PaymentCard, time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC)),
		donationAt("2", "9000000001", 2, domain.PaymentCard, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
	}
	ds[4].Amount = decimal.RequireFromString("1.50")

	st := ComputeStats(ds, now, ist, 5)

	// total 7.5 over 6 donations: 1.25 rounds to 1.
	assert.True(t, st.TotalCollection.Equal(decimal.RequireFromString("7.5")), "total %s", st.TotalCollection)
	assert.Equal(t, 3, st.TotalDonors)
	assert.True(t, st.AvgDonation.Equal(decimal.NewFromInt(1)), "avg %s", st.AvgDonation)
	// this month: 7, 6, 5 and 4 (July 1st 00:30 IST).
	assert.True(t, st.ThisMonth.Equal(decimal.NewFromInt(4)), "this month %s", st.ThisMonth)

	pct := map[domain.PaymentMode]int64{}
	for _, sh := range st.PaymentModeDistribution {
		pct[sh.Mode] = sh.Percentage
	}
	// cash 1/7.5 = 13.33, card 3.5/7.5 = 46.67, upi 2/7.5 = 26.67, cheque 13.33
	assert.Equal(t, int64(13), pct[domain.PaymentCash])
	assert.Equal(t, int64(47), pct[domain.PaymentCard])
	assert.Equal(t, int64(27), pct[domain.PaymentUPI])
	assert.Equal(t, int64(13), pct[domain.PaymentCheque])
	assert.Equal(t, int64(0), pct[domain.PaymentBankTransfer])

	require.Len(t, st.RecentDonations, 5)
	assert.Equal(t, "Donor 7", st.RecentDonations[0].Name)
	assert.Equal(t, domain.PaymentUPI, st.RecentDonations[0].PaymentMode)
	assert.Equal(t, "Donor 3", st.RecentDonations[4].Name)
}

func TestComputeStats_AverageRoundsHalfAwayFromZero(t *testing.T) {
	now := time.Now().UTC()
	ds := []domain.Donation{
		donationAt("b", "9000000001", 2, domain.PaymentCash, now),
		donationAt("a", "9000000002", 1, domain.PaymentCash, now.Add(-time.Minute)),
	}
	st := ComputeStats(ds, now, time.UTC, 0)
	assert.True(t, st.AvgDonation.Equal(decimal.NewFromInt(2)), "1.5 rounds to 2, got %s", st.AvgDonation)
	assert.Equal(t, int64(100), st.PaymentModeDistribution[0].Percentage)
	assert.Len(t, st.RecentDonations, 2)
}

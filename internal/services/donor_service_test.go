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

func newDonorSvc(t *testing.T) (*DonorService, *DonationService) {
	t.Helper()
	ds := newDonationSvc(t, sqlRepo{})
	s := NewDonorService(ds.DB, sqlRepo{})
	s.Retry = fastRetry()
	return s, ds
}

func TestDonorService_GetByPhone_Totals(t *testing.T) {
	s, ds := newDonorSvc(t)
	ctx := context.Background()

	_, err := ds.Create(ctx, domain.SourceForm, validInput("1", "9876543210", 100))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond) // distinct created_at
	later := validInput("2", "9876543210", 250)
	later.Name = "Murugan K"
	later.Location = "Sivaganga"
	_, err = ds.Create(ctx, domain.SourceForm, later)
	require.NoError(t, err)

	sum, err := s.GetByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.True(t, sum.TotalAmount.Equal(decimal.NewFromInt(350)), "total %s", sum.TotalAmount)
	assert.Equal(t, 2, sum.DonationCount)
	assert.Equal(t, "Murugan K", sum.Name, "newest donation supplies the name")
	assert.Equal(t, "Sivaganga", sum.Location)
	require.Len(t, sum.Donations, 2)
	assert.Equal(t, "2", sum.Donations[0].ReceiptNo)
	assert.True(t, sum.LastDonation.Equal(sum.Donations[0].CreatedAt))
}

func TestDonorService_GetByPhone_NotFound(t *testing.T) {
	s, _ := newDonorSvc(t)
	_, err := s.GetByPhone(context.Background(), "0000000000")
	assert.ErrorIs(t, err, ErrDonorNotFound)
	_, err = s.GetByPhone(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrDonorNotFound)
}

func TestDonorService_Search_NumericQueryRanksPhoneMatchesFirst(t *testing.T) {
	s, _ := newDonorSvc(t)
	now := time.Now().UTC()

	// The second donor's name contains the digits, and gave more, but the
	// first donor's phone is the literal-substring match.
	a := donationAt("a", "9876543210", 100, domain.PaymentCash, now)
	b := donationAt("b", "1119876543", 5000, domain.PaymentCash, now)
	c := donationAt("c", "5550000000", 9000, domain.PaymentCash, now)
	c.Name = "Ravi 987"
	for _, d := range []*domain.Donation{&a, &b, &c} {
		require.NoError(t, s.DB.Create(d).Error)
	}

	got, err := s.Search(context.Background(), "987", "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Phone matches first (b outranks a on total), name-only match last.
	assert.Equal(t, []string{"1119876543", "9876543210", "5550000000"}, phones(got))
}

func TestDonorService_Search_PhoneSubstringExample(t *testing.T) {
	s, _ := newDonorSvc(t)
	now := time.Now().UTC()
	a := donationAt("a", "9876543210", 100, domain.PaymentCash, now)
	b := donationAt("b", "1119876543", 100, domain.PaymentCash, now.Add(-time.Hour))
	for _, d := range []*domain.Donation{&a, &b} {
		require.NoError(t, s.DB.Create(d).Error)
	}

	got, err := s.Search(context.Background(), "987", "all")
	require.NoError(t, err)
	assert.Equal(t, []string{"9876543210", "1119876543"}, phones(got))
}

func TestDonorService_Search_NameCaseInsensitiveAndCommunity(t *testing.T) {
	s, _ := newDonorSvc(t)
	now := time.Now().UTC()

	a := donationAt("a", "9000000001", 100, domain.PaymentCash, now)
	a.Name = "SELVI Raman"
	a.Community = domain.CommunityChozhan
	b := donationAt("b", "9000000002", 900, domain.PaymentCash, now)
	b.Name = "selvam"
	b.Community = domain.CommunityAadai
	c := donationAt("c", "9000000003", 50, domain.PaymentCash, now)
	c.Name = "Kannan"
	for _, d := range []*domain.Donation{&a, &b, &c} {
		require.NoError(t, s.DB.Create(d).Error)
	}

	got, err := s.Search(context.Background(), "Selv", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"9000000002", "9000000001"}, phones(got), "non-numeric query sorts by total desc")

	got, err = s.Search(context.Background(), "selv", "chozhan")
	require.NoError(t, err)
	assert.Equal(t, []string{"9000000001"}, phones(got))

	all, err := s.Search(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDonorService_Search_SummarizesMatchingDonationsOnly(t *testing.T) {
	s, _ := newDonorSvc(t)
	now := time.Now().UTC()
	a := donationAt("a", "9000000001", 100, domain.PaymentCash, now)
	a.Name = "Meena"
	b := donationAt("b", "9000000001", 400, domain.PaymentCash, now.Add(-time.Hour))
	b.Name = "Meenakshi"
	c := donationAt("c", "9000000001", 1000, domain.PaymentCash, now.Add(-2*time.Hour))
	c.Name = "M. Sundaram"
	for _, d := range []*domain.Donation{&a, &b, &c} {
		require.NoError(t, s.DB.Create(d).Error)
	}

	got, err := s.Search(context.Background(), "meena", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].DonationCount)
	assert.True(t, got[0].TotalAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "Meena", got[0].Name)
}

func phones(ss []domain.DonorSummary) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Phone
	}
	return out
}

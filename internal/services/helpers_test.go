package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/repo"
)

// ----- SQLite-backed repository -----

// sqlRepo forwards to the repo package, the same way the router shim does.
type sqlRepo struct{}

func (sqlRepo) CreateDonation(ctx context.Context, db *gorm.DB, in domain.DonationInput) (*domain.Donation, error) {
	return repo.CreateDonation(ctx, db, in)
}
func (sqlRepo) GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	return repo.GetDonation(ctx, db, id)
}
func (sqlRepo) ListDonations(ctx context.Context, db *gorm.DB, scopes ...repo.Scope) ([]domain.Donation, error) {
	return repo.ListDonations(ctx, db, scopes...)
}
func (sqlRepo) CountDonations(ctx context.Context, db *gorm.DB, scopes ...repo.Scope) (int64, error) {
	return repo.CountDonations(ctx, db, scopes...)
}
func (sqlRepo) ListDonationsPage(ctx context.Context, db *gorm.DB, offset, limit int, scopes ...repo.Scope) ([]domain.Donation, error) {
	return repo.ListDonationsPage(ctx, db, offset, limit, scopes...)
}
func (sqlRepo) ListDonationsByPhone(ctx context.Context, db *gorm.DB, phone string) ([]domain.Donation, error) {
	return repo.ListDonationsByPhone(ctx, db, phone)
}
func (sqlRepo) ListDonationsForSearch(ctx context.Context, db *gorm.DB, community string) ([]domain.Donation, error) {
	return repo.ListDonationsForSearch(ctx, db, community)
}
func (sqlRepo) UpdateDonation(ctx context.Context, db *gorm.DB, id string, in domain.DonationInput) (*domain.Donation, error) {
	return repo.UpdateDonation(ctx, db, id, in)
}
func (sqlRepo) DeleteDonation(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.DeleteDonation(ctx, db, id)
}
func (sqlRepo) ReceiptExists(ctx context.Context, db *gorm.DB, receiptNo, excludeID string) (bool, error) {
	return repo.ReceiptExists(ctx, db, receiptNo, excludeID)
}
func (sqlRepo) ListReceiptNumbers(ctx context.Context, db *gorm.DB) ([]string, error) {
	return repo.ListReceiptNumbers(ctx, db)
}
func (sqlRepo) DonationsStats(ctx context.Context, db *gorm.DB, scopes ...repo.Scope) (int64, *time.Time, error) {
	return repo.DonationsStats(ctx, db, scopes...)
}
func (sqlRepo) GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, scope, key, now)
}
func (sqlRepo) CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key, donationID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, scope, key, donationID, status, ttl)
}

// blindPrecheck hides existing receipts from the pre-check, as if every
// concurrent create had checked before any of them inserted.
type blindPrecheck struct{ sqlRepo }

func (blindPrecheck) ReceiptExists(context.Context, *gorm.DB, string, string) (bool, error) {
	return false, nil
}

// flakyRepo fails CreateDonation with err for the first `failures` calls.
type flakyRepo struct {
	sqlRepo
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (f *flakyRepo) CreateDonation(ctx context.Context, db *gorm.DB, in domain.DonationInput) (*domain.Donation, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return nil, f.err
	}
	return f.sqlRepo.CreateDonation(ctx, db, in)
}

// ----- fixtures -----

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the shared in-memory database alive and serializes
	// statements so concurrent tests interleave without table locks.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxTries: 3, Initial: time.Millisecond, Max: 5 * time.Millisecond}
}

func newDonationSvc(t *testing.T, r DonationRepository) *DonationService {
	t.Helper()
	s := NewDonationService(newTestDB(t), r)
	s.Retry = fastRetry()
	s.Idem = sqlRepo{}
	return s
}

func validInput(receipt, phone string, amount int64) domain.DonationInput {
	return domain.DonationInput{
		ReceiptNo:   receipt,
		Name:        "Murugan",
		Community:   domain.CommunityPayiran,
		Location:    "Karaikudi",
		Address:     "12 North Car Street",
		Phone:       phone,
		Amount:      decimal.NewFromInt(amount),
		PaymentMode: domain.PaymentCash,
	}
}

func donationAt(id, phone string, amount int64, mode domain.PaymentMode, created time.Time) domain.Donation {
	return domain.Donation{
		ID:          id,
		ReceiptNo:   id,
		Name:        "Donor " + id,
		Community:   domain.CommunityAny,
		Location:    "Madurai",
		Phone:       phone,
		Amount:      decimal.NewFromInt(amount),
		PaymentMode: mode,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/templeledger/donations-backend/internal/domain"
)

func TestDonationsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := DonationsStats(context.Background(), db)
	if err == nil {
		t.Fatalf("expected error due to missing donations table")
	}
}

func TestDonationsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Donation{})
	count, maxAt, err := DonationsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("DonationsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestDonationsStats_Success_ScopeAndMax(t *testing.T) {
	db := newTestDB(t, &domain.Donation{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	t3 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	seed(t, db, "d1", "1", "9000000001", 100, t1)
	seed(t, db, "d2", "2", "9000000001", 100, t2)
	seed(t, db, "d3", "3", "9000000002", 100, t3)

	count, maxAt, err := DonationsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("DonationsStats error: %v", err)
	}
	if count != 3 || maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("unexpected stats: count=%d max=%v", count, maxAt)
	}

	phone := func(q *gorm.DB) *gorm.DB { return q.Where("phone = ?", "9000000002") }
	count, maxAt, err = DonationsStats(context.Background(), db, phone)
	if err != nil || count != 1 || maxAt == nil || !maxAt.Equal(t3) {
		t.Fatalf("unexpected scoped stats: count=%d max=%v err=%v", count, maxAt, err)
	}
}

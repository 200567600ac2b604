// Package services – DonationService
//
// This file implements DonationService, which owns the donation record
// lifecycle: normalization and validation of input, the receipt-number
// uniqueness guarantee, filtered listing, and idempotent create.
//
// Receipt uniqueness is checked twice: an advisory pre-check gives a clean
// error in the common case, and the store's unique index is the authoritative
// backstop when two creates race. Both surface as ErrDuplicateReceipt.
//
// Every repository call runs under the service's RetryPolicy; only transient
// store failures are retried.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/observability"
	"github.com/templeledger/donations-backend/internal/repo"
)

// DonationRepository defines the persistence contract for donations.
type DonationRepository interface {
	CreateDonation(ctx context.Context, db *gorm.DB, in domain.DonationInput) (*domain.Donation, error)
	GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error)
	ListDonations(ctx context.Context, db *gorm.DB, scopes ...repo.Scope) ([]domain.Donation, error)
	CountDonations(ctx context.Context, db *gorm.DB, scopes ...repo.Scope) (int64, error)
	ListDonationsPage(ctx context.Context, db *gorm.DB, offset, limit int, scopes ...repo.Scope) ([]domain.Donation, error)
	ListDonationsByPhone(ctx context.Context, db *gorm.DB, phone string) ([]domain.Donation, error)
	ListDonationsForSearch(ctx context.Context, db *gorm.DB, community string) ([]domain.Donation, error)
	UpdateDonation(ctx context.Context, db *gorm.DB, id string, in domain.DonationInput) (*domain.Donation, error)
	DeleteDonation(ctx context.Context, db *gorm.DB, id string) (bool, error)
	ReceiptExists(ctx context.Context, db *gorm.DB, receiptNo, excludeID string) (bool, error)
	ListReceiptNumbers(ctx context.Context, db *gorm.DB) ([]string, error)
	DonationsStats(ctx context.Context, db *gorm.DB, scopes ...repo.Scope) (int64, *time.Time, error)
}

// IdempotencyRepository records which donation an Idempotency-Key produced.
type IdempotencyRepository interface {
	GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key, donationID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// DonationService provides donation CRUD, filtering and receipt helpers.
type DonationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the donation repository used by this service.
	Repo DonationRepository
	// Idem, when set, enables CreateIdempotent replays.
	Idem IdempotencyRepository

	Retry          RetryPolicy
	Location       *time.Location // temple-local zone for date filters
	IdempotencyTTL time.Duration

	// Now is the clock; tests may replace it.
	Now func() time.Time
}

// NewDonationService constructs a DonationService with default retry policy,
// UTC date filters and a 24h idempotency window.
func NewDonationService(db *gorm.DB, r DonationRepository) *DonationService {
	return &DonationService{
		DB:             db,
		Repo:           r,
		Retry:          DefaultRetryPolicy(),
		Location:       time.UTC,
		IdempotencyTTL: 24 * time.Hour,
		Now:            time.Now,
	}
}

func (s *DonationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func tracer() trace.Tracer { return observability.Tracer("services/DonationService") }

// Create validates in and records it as a new donation. It returns a
// *ValidationError for malformed input and ErrDuplicateReceipt when the
// receipt number is taken.
func (s *DonationService) Create(ctx context.Context, source domain.Source, in domain.DonationInput) (*domain.Donation, error) {
	ctx, span := tracer().Start(ctx, "Create",
		trace.WithAttributes(attribute.String("donation.source", string(source))),
	)
	defer span.End()

	in = NormalizeInput(in)
	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	exists, err := withRetry(ctx, s.Retry, "receipt_exists", func() (bool, error) {
		return s.Repo.ReceiptExists(ctx, s.DB, in.ReceiptNo, "")
	})
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReceipt
	}

	d, err := withRetry(ctx, s.Retry, "create", func() (*domain.Donation, error) {
		return s.Repo.CreateDonation(ctx, s.DB, in)
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateReceipt
		}
		return nil, err
	}

	observability.DonationsCreated.WithLabelValues(string(source)).Inc()
	span.SetAttributes(attribute.String("donation.id", d.ID))
	return d, nil
}

// CreateIdempotent is Create guarded by an Idempotency-Key. A key already
// bound to a donation returns that donation with replayed=true instead of
// failing on the duplicate receipt. An empty key behaves like Create.
func (s *DonationService) CreateIdempotent(ctx context.Context, source domain.Source, key string, in domain.DonationInput) (d *domain.Donation, replayed bool, err error) {
	key = strings.TrimSpace(key)
	if prev, ok, err := s.Replay(ctx, key); err != nil {
		return nil, false, err
	} else if ok {
		return prev, true, nil
	}

	d, err = s.Create(ctx, source, in)
	if err != nil {
		return nil, false, err
	}
	if err := s.Remember(ctx, key, d.ID); err != nil {
		// The donation is stored; a lost key only costs a future replay.
		zlog(ctx).Warn().Err(err).Str("donation_id", d.ID).Msg("idempotency record not saved")
	}
	return d, false, nil
}

// Replay returns the donation previously created under key, if the key is
// known, unexpired and its donation still exists.
func (s *DonationService) Replay(ctx context.Context, key string) (*domain.Donation, bool, error) {
	if s.Idem == nil || key == "" {
		return nil, false, nil
	}
	rec, err := withRetry(ctx, s.Retry, "idempotency_get", func() (*domain.Idempotency, error) {
		return s.Idem.GetIdempotency(ctx, s.DB, domain.IdempotencyScopeCreateDonation, key, s.now())
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	d, err := s.Get(ctx, rec.DonationID)
	if errors.Is(err, ErrDonationNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// Remember binds key to donationID for IdempotencyTTL. A concurrent request
// that already bound the key is not an error.
func (s *DonationService) Remember(ctx context.Context, key, donationID string) error {
	if s.Idem == nil || key == "" {
		return nil
	}
	_, err := withRetry(ctx, s.Retry, "idempotency_create", func() (*domain.Idempotency, error) {
		return s.Idem.CreateIdempotency(ctx, s.DB, domain.IdempotencyScopeCreateDonation, key, donationID, http.StatusCreated, s.IdempotencyTTL)
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Get returns donation id or ErrDonationNotFound.
func (s *DonationService) Get(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := withRetry(ctx, s.Retry, "get", func() (*domain.Donation, error) {
		return s.Repo.GetDonation(ctx, s.DB, id)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns every donation, newest first.
func (s *DonationService) List(ctx context.Context) ([]domain.Donation, error) {
	return s.Filter(ctx, AllFilters)
}

// Filter returns the donations matching f, newest first.
func (s *DonationService) Filter(ctx context.Context, f DonationFilter) ([]domain.Donation, error) {
	ctx, span := tracer().Start(ctx, "Filter", trace.WithAttributes(attribute.String("filter", f.Key())))
	defer span.End()

	scope := f.Scope(s.now(), s.Location)
	out, err := withRetry(ctx, s.Retry, "list", func() ([]domain.Donation, error) {
		return s.Repo.ListDonations(ctx, s.DB, scope)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Donation{}
	}
	return out, nil
}

// FilterPage returns one page of the donations matching f plus the total
// match count. It applies defaults for invalid page/pageSize.
func (s *DonationService) FilterPage(ctx context.Context, f DonationFilter, page, pageSize int) ([]domain.Donation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	scope := f.Scope(s.now(), s.Location)

	total, err := withRetry(ctx, s.Retry, "count", func() (int64, error) {
		return s.Repo.CountDonations(ctx, s.DB, scope)
	})
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Donation{}, 0, nil
	}
	items, err := withRetry(ctx, s.Retry, "list_page", func() ([]domain.Donation, error) {
		return s.Repo.ListDonationsPage(ctx, s.DB, offset, pageSize, scope)
	})
	return items, total, err
}

// Stats returns the match count and latest UpdatedAt for f, for ETags.
func (s *DonationService) Stats(ctx context.Context, f DonationFilter) (int64, *time.Time, error) {
	scope := f.Scope(s.now(), s.Location)
	var maxAt *time.Time
	count, err := withRetry(ctx, s.Retry, "stats", func() (int64, error) {
		n, at, err := s.Repo.DonationsStats(ctx, s.DB, scope)
		maxAt = at
		return n, err
	})
	return count, maxAt, err
}

// Update replaces every editable field of donation id. The receipt number is
// re-checked against all other donations, so an edit can never collide.
func (s *DonationService) Update(ctx context.Context, id string, in domain.DonationInput) (*domain.Donation, error) {
	ctx, span := tracer().Start(ctx, "Update", trace.WithAttributes(attribute.String("donation.id", id)))
	defer span.End()

	in = NormalizeInput(in)
	if err := ValidateInput(in); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	taken, err := withRetry(ctx, s.Retry, "receipt_exists", func() (bool, error) {
		return s.Repo.ReceiptExists(ctx, s.DB, in.ReceiptNo, id)
	})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateReceipt
	}

	d, err := withRetry(ctx, s.Retry, "update", func() (*domain.Donation, error) {
		return s.Repo.UpdateDonation(ctx, s.DB, id, in)
	})
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		return nil, ErrDuplicateReceipt
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrDonationNotFound
	case err != nil:
		return nil, err
	}
	return d, nil
}

// Delete permanently removes donation id and reports whether it existed.
func (s *DonationService) Delete(ctx context.Context, id string) (bool, error) {
	return withRetry(ctx, s.Retry, "delete", func() (bool, error) {
		return s.Repo.DeleteDonation(ctx, s.DB, id)
	})
}

// ReceiptExists reports whether receiptNo is already used. The answer is
// advisory; Create performs the authoritative check.
func (s *DonationService) ReceiptExists(ctx context.Context, receiptNo string) (bool, error) {
	receiptNo = strings.TrimSpace(receiptNo)
	if receiptNo == "" {
		return false, nil
	}
	return withRetry(ctx, s.Retry, "receipt_exists", func() (bool, error) {
		return s.Repo.ReceiptExists(ctx, s.DB, receiptNo, "")
	})
}

// NextReceipt suggests the receipt number following the highest one issued
// in the 1..999, A0001..Z9999 series.
func (s *DonationService) NextReceipt(ctx context.Context) (string, error) {
	nums, err := withRetry(ctx, s.Retry, "receipt_numbers", func() ([]string, error) {
		return s.Repo.ListReceiptNumbers(ctx, s.DB)
	})
	if err != nil {
		return "", err
	}
	return domain.NextReceipt(nums)
}

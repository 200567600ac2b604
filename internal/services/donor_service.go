// Package services – DonorService
//
// Donors are not stored. DonorService derives them on every call by grouping
// donations on phone number: the newest donation supplies name, location and
// community; totals, counts and the last-donation time cover the group.
package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/observability"
)

// DonorService answers donor lookups and searches.
type DonorService struct {
	DB    *gorm.DB
	Repo  DonationRepository
	Retry RetryPolicy
}

// NewDonorService constructs a DonorService with the default retry policy.
func NewDonorService(db *gorm.DB, r DonationRepository) *DonorService {
	return &DonorService{DB: db, Repo: r, Retry: DefaultRetryPolicy()}
}

// GetByPhone summarizes every donation made with phone, or returns
// ErrDonorNotFound.
func (s *DonorService) GetByPhone(ctx context.Context, phone string) (*domain.DonorSummary, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrDonorNotFound
	}
	ds, err := withRetry(ctx, s.Retry, "donations_by_phone", func() ([]domain.Donation, error) {
		return s.Repo.ListDonationsByPhone(ctx, s.DB, phone)
	})
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return nil, ErrDonorNotFound
	}
	sum := summarize(ds)
	return &sum, nil
}

// Search returns donors whose name contains query (Unicode case-insensitive)
// or whose phone contains query. community restricts the candidates unless it
// is empty or "all". An empty query matches every donor.
//
// Ordering: for an all-digit query, donors whose phone contains the query come
// first. Within that, and for other queries, donors sort by total amount
// descending, then most recent donation, then phone.
func (s *DonorService) Search(ctx context.Context, query, community string) ([]domain.DonorSummary, error) {
	ctx, span := observability.Tracer("services/DonorService").Start(ctx, "Search",
		trace.WithAttributes(attribute.String("community", community)),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	community = strings.ToLower(strings.TrimSpace(community))
	if community == "all" {
		community = ""
	}

	ds, err := withRetry(ctx, s.Retry, "donations_for_search", func() ([]domain.Donation, error) {
		return s.Repo.ListDonationsForSearch(ctx, s.DB, community)
	})
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(query)

	// Group matching donations by phone, keeping the store's newest-first order.
	groups := make(map[string][]domain.Donation)
	var phones []string
	for _, d := range ds {
		if query != "" && !strings.Contains(d.Phone, query) && !strings.Contains(fold.String(d.Name), needle) {
			continue
		}
		if _, ok := groups[d.Phone]; !ok {
			phones = append(phones, d.Phone)
		}
		groups[d.Phone] = append(groups[d.Phone], d)
	}

	out := make([]domain.DonorSummary, 0, len(phones))
	for _, p := range phones {
		out = append(out, summarize(groups[p]))
	}

	numeric := isDigits(query)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if numeric {
			ai, bi := strings.Contains(a.Phone, query), strings.Contains(b.Phone, query)
			if ai != bi {
				return ai
			}
		}
		if c := a.TotalAmount.Cmp(b.TotalAmount); c != 0 {
			return c > 0
		}
		if !a.LastDonation.Equal(b.LastDonation) {
			return a.LastDonation.After(b.LastDonation)
		}
		return a.Phone < b.Phone
	})
	return out, nil
}

// summarize folds a non-empty, newest-first donation list for one phone.
func summarize(ds []domain.Donation) domain.DonorSummary {
	newest := ds[0]
	total := decimal.Zero
	var last time.Time
	for _, d := range ds {
		total = total.Add(d.Amount)
		if d.CreatedAt.After(last) {
			last = d.CreatedAt
		}
		if d.CreatedAt.After(newest.CreatedAt) {
			newest = d
		}
	}
	return domain.DonorSummary{
		Name:          newest.Name,
		Phone:         newest.Phone,
		Location:      newest.Location,
		Community:     newest.Community,
		TotalAmount:   total,
		DonationCount: len(ds),
		LastDonation:  last,
		Donations:     ds,
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}


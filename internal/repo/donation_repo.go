// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Donation
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Filtering is supplied by callers as GORM
// scopes so the query is pushed down to the database.
//
// Error semantics:
//   - When a donation is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - A receipt_no unique-index violation is returned as ErrDuplicate,
//     regardless of driver.
//   - Other DB errors (connectivity, locking, etc.) are propagated raw so the
//     service layer can decide whether they are transient.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/templeledger/donations-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that a unique index rejected the write: a donation
// receipt number or an idempotency (scope, key) pair already exists.
var ErrDuplicate = errors.New("duplicate")

// Scope is a GORM query refinement applied to donation listings.
type Scope = func(*gorm.DB) *gorm.DB

// CreateDonation inserts a new donation built from in. The ID is a random UUID
// and CreatedAt is set to the current UTC time.
func CreateDonation(ctx context.Context, db *gorm.DB, in domain.DonationInput) (*domain.Donation, error) {
	now := time.Now().UTC()
	d := &domain.Donation{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.Apply(d)
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return d, nil
}

// GetDonation fetches a single donation by ID, or ErrNotFound.
func GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	var d domain.Donation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDonations returns every donation matching scopes, newest first. Ties on
// created_at are broken by id so the order is stable.
func ListDonations(ctx context.Context, db *gorm.DB, scopes ...Scope) ([]domain.Donation, error) {
	var out []domain.Donation
	err := db.WithContext(ctx).
		Scopes(scopes...).
		Order("created_at desc").
		Order("id").
		Find(&out).Error
	return out, err
}

// CountDonations returns the number of donations matching scopes.
func CountDonations(ctx context.Context, db *gorm.DB, scopes ...Scope) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Donation{}).
		Scopes(scopes...).
		Count(&total).Error
	return total, err
}

// ListDonationsPage returns a page of donations matching scopes in the same
// order as ListDonations. Use CountDonations to obtain the pagination total.
func ListDonationsPage(ctx context.Context, db *gorm.DB, offset, limit int, scopes ...Scope) ([]domain.Donation, error) {
	var out []domain.Donation
	err := db.WithContext(ctx).
		Scopes(scopes...).
		Order("created_at desc").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListDonationsByPhone returns all donations for phone, newest first.
func ListDonationsByPhone(ctx context.Context, db *gorm.DB, phone string) ([]domain.Donation, error) {
	return ListDonations(ctx, db, func(q *gorm.DB) *gorm.DB {
		return q.Where("phone = ?", phone)
	})
}

// ListDonationsForSearch returns the donations a donor search runs over,
// restricted to community when it is non-empty.
func ListDonationsForSearch(ctx context.Context, db *gorm.DB, community string) ([]domain.Donation, error) {
	if community == "" {
		return ListDonations(ctx, db)
	}
	return ListDonations(ctx, db, func(q *gorm.DB) *gorm.DB {
		return q.Where("community = ?", community)
	})
}

// UpdateDonation replaces the editable fields of donation id with in inside a
// transaction. ID and CreatedAt are preserved. It returns ErrNotFound when the
// donation does not exist and ErrDuplicate when the new receipt number is
// taken.
func UpdateDonation(ctx context.Context, db *gorm.DB, id string, in domain.DonationInput) (*domain.Donation, error) {
	var out domain.Donation
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&out).Error; err != nil {
			return err
		}
		in.Apply(&out)
		out.UpdatedAt = time.Now().UTC()
		return tx.Save(&out).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &out, nil
}

// DeleteDonation permanently removes donation id. It reports whether a row
// was deleted.
func DeleteDonation(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Donation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReceiptExists reports whether any donation other than excludeID carries
// receiptNo. Pass an empty excludeID to check against every donation.
func ReceiptExists(ctx context.Context, db *gorm.DB, receiptNo, excludeID string) (bool, error) {
	q := db.WithContext(ctx).Model(&domain.Donation{}).Where("receipt_no = ?", receiptNo)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListReceiptNumbers returns every stored receipt number, in no particular
// order.
func ListReceiptNumbers(ctx context.Context, db *gorm.DB) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).Model(&domain.Donation{}).Pluck("receipt_no", &out).Error
	return out, err
}

// isUniqueViolation recognizes unique-index failures from every supported
// driver. glebarez/sqlite often returns plain-text errors for UNIQUE
// violations even with TranslateError enabled.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value violates unique constraint") ||
		strings.Contains(low, "sqlstate 23505")
}

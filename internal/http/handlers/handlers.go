// Handler wiring.
//
// This file declares the service contracts the HTTP layer consumes, the
// Handlers type that groups every endpoint, and the request/response DTOs
// shared between donation, donor, dashboard and import endpoints.
//
// Handlers are transport-thin: they decode input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/importer"
	"github.com/templeledger/donations-backend/internal/services"
	"github.com/templeledger/donations-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// DonationService defines the donation lifecycle consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DonationService interface {
	// Create validates and stores a new donation.
	Create(ctx context.Context, source domain.Source, in domain.DonationInput) (*domain.Donation, error)
	// CreateIdempotent is Create guarded by an Idempotency-Key.
	CreateIdempotent(ctx context.Context, source domain.Source, key string, in domain.DonationInput) (*domain.Donation, bool, error)
	// Get returns one donation or services.ErrDonationNotFound.
	Get(ctx context.Context, id string) (*domain.Donation, error)
	// Filter returns every donation matching f, newest first.
	Filter(ctx context.Context, f services.DonationFilter) ([]domain.Donation, error)
	// FilterPage returns a page of matches and the total match count.
	FilterPage(ctx context.Context, f services.DonationFilter, page, pageSize int) ([]domain.Donation, int64, error)
	// Stats returns the match count and latest update time, for ETags.
	Stats(ctx context.Context, f services.DonationFilter) (int64, *time.Time, error)
	// Update replaces the editable fields of a donation.
	Update(ctx context.Context, id string, in domain.DonationInput) (*domain.Donation, error)
	// Delete removes a donation and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	// ReceiptExists is the advisory receipt check used by intake forms.
	ReceiptExists(ctx context.Context, receiptNo string) (bool, error)
	// NextReceipt suggests the next receipt in the manual series.
	NextReceipt(ctx context.Context) (string, error)
}

// DonorService answers donor lookups.
type DonorService interface {
	GetByPhone(ctx context.Context, phone string) (*domain.DonorSummary, error)
	Search(ctx context.Context, query, community string) ([]domain.DonorSummary, error)
}

// DashboardService computes global collection statistics.
type DashboardService interface {
	Stats(ctx context.Context) (*domain.DashboardStats, error)
}

// Importer turns parsed rows into donations and reports per-row outcomes.
type Importer interface {
	Import(ctx context.Context, rows []importer.RawRow) (importer.Report, error)
}

//
// Handler wiring
//

// Options carries the transport settings handlers need.
type Options struct {
	// ImportMaxBytes caps uploaded import files. Values <= 0 default to 5 MiB.
	ImportMaxBytes int64
	// Location renders export dates in the temple's zone. Nil means UTC.
	Location *time.Location
}

// Handlers groups HTTP endpoints for donations, donors, the dashboard and
// bulk intake. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	donations DonationService
	donors    DonorService
	dashboard DashboardService
	importer  Importer
	opts      Options
}

// New constructs and returns a Handlers instance bound to the given services.
func New(donations DonationService, donors DonorService, dashboard DashboardService, imp Importer, opts Options) *Handlers {
	if opts.ImportMaxBytes <= 0 {
		opts.ImportMaxBytes = 5 << 20
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Handlers{
		donations: donations,
		donors:    donors,
		dashboard: dashboard,
		importer:  imp,
		opts:      opts,
	}
}

//
// DTOs
//

// DonationRequest is the JSON payload for creating or replacing a donation.
//
// DonationDate accepts RFC 3339 timestamps as well as YYYY-MM-DD and
// DD/MM/YYYY dates; leave it empty when the donor gave none.
type DonationRequest struct {
	ReceiptNo    string          `json:"receipt_no" example:"A0042"`
	Name         string          `json:"name" example:"Lakshmi"`
	Community    string          `json:"community" example:"semban"`
	Location     string          `json:"location" example:"Madurai"`
	Address      string          `json:"address" example:"12 East Car Street"`
	Phone        string          `json:"phone" example:"9876543210"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"number" example:"501"`
	PaymentMode  string          `json:"payment_mode" example:"upi"`
	Inscription  bool            `json:"inscription"`
	DonationDate string          `json:"donation_date" example:"2025-06-30"`
}

// input converts the request into a DonationInput. An unparsable date is
// reported as a field error like any other validation failure.
func (r DonationRequest) input() (domain.DonationInput, error) {
	in := domain.DonationInput{
		ReceiptNo:   r.ReceiptNo,
		Name:        r.Name,
		Community:   domain.Community(r.Community),
		Location:    r.Location,
		Address:     r.Address,
		Phone:       r.Phone,
		Amount:      r.Amount,
		PaymentMode: domain.PaymentMode(r.PaymentMode),
		Inscription: r.Inscription,
	}
	raw := strings.TrimSpace(r.DonationDate)
	if raw == "" {
		return in, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		in.DonationDate = &t
		return in, nil
	}
	t, err := importer.ParseDate(raw)
	if err != nil {
		return in, &services.ValidationError{Fields: map[string]string{
			"donation_date": "Donation date must be YYYY-MM-DD or DD/MM/YYYY",
		}}
	}
	in.DonationDate = t
	return in, nil
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListDonationsResponse wraps a page of donations and pagination information.
type ListDonationsResponse struct {
	Donations  []domain.Donation `json:"donations"`
	Pagination Pagination        `json:"pagination"`
}

// ReceiptExistsResponse answers a receipt check.
type ReceiptExistsResponse struct {
	Exists bool `json:"exists"`
}

// NextReceiptResponse carries a suggested receipt number.
type NextReceiptResponse struct {
	ReceiptNo string `json:"receipt_no" example:"A0043"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"donation deleted"`
}

// ImportResponse is the bulk import report.
type ImportResponse struct {
	Success bool `json:"success"`
	importer.Report
}

// WebhookResponse acknowledges a form submission.
type WebhookResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message" example:"donation submitted"`
	ReceiptNo  string `json:"receipt_no" example:"A0042"`
	DonationID string `json:"donation_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize). paged is false when the
// caller asked for neither, meaning the full result set.
func clampPagination(c *gin.Context) (page, pageSize int, paged bool) {
	paged = c.Query("page") != "" || c.Query("page_size") != ""
	page, pageSize = utils.ClampPage(c.Query("page"), c.Query("page_size"), listBounds)
	return
}

var listBounds = utils.PageBounds{DefaultSize: 20, MaxSize: 100}

func pagination(page, pageSize int, total int64) Pagination {
	pages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

// filterFromQuery reads the four list filters.
func filterFromQuery(c *gin.Context) services.DonationFilter {
	return services.ParseFilter(
		c.Query("date_range"),
		c.Query("community"),
		c.Query("payment_mode"),
		c.Query("amount_range"),
	)
}

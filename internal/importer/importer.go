package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/observability"
	"github.com/templeledger/donations-backend/internal/services"
)

// DefaultMaxErrors caps the per-row messages kept in a Report.
const DefaultMaxErrors = 20

// Creator records one donation. *services.DonationService satisfies it.
type Creator interface {
	Create(ctx context.Context, source domain.Source, in domain.DonationInput) (*domain.Donation, error)
}

// Report summarizes a bulk import.
type Report struct {
	TotalRecords int      `json:"total_records"`
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	Errors       []string `json:"errors"`
}

// Importer records batches of rows through a Creator.
type Importer struct {
	Donations Creator
	MaxErrors int
	Now       func() time.Time
}

// New returns an Importer that keeps at most maxErrors row messages; values
// below 1 select DefaultMaxErrors.
func New(c Creator, maxErrors int) *Importer {
	if maxErrors < 1 {
		maxErrors = DefaultMaxErrors
	}
	return &Importer{Donations: c, MaxErrors: maxErrors, Now: time.Now}
}

// GeneratedReceipt is the receipt number given to row n when the input has
// none.
func GeneratedReceipt(now time.Time, n int) string {
	return fmt.Sprintf("R%d-%d", now.UnixMilli(), n)
}

// ParseRow maps row onto a DonationInput. n is the row's 1-based position and
// is only used to generate a receipt number when the row has none. Every
// unparsable field is reported in the returned ParseErrors. Community,
// payment mode and inscription never fail: unknown values take their
// defaults. Required text fields (name, location) are left for service
// validation.
func ParseRow(row RawRow, n int, now time.Time) (domain.DonationInput, error) {
	var errs ParseErrors
	collect := func(err error) {
		var pe *ParseError
		if errors.As(err, &pe) {
			errs = append(errs, pe)
		}
	}

	in := domain.DonationInput{
		ReceiptNo: row.Value(FieldReceiptNo),
		Name:      row.Value(FieldName),
		Location:  row.Value(FieldLocation),
		Address:   row.Value(FieldAddress),
	}
	if in.ReceiptNo == "" {
		in.ReceiptNo = GeneratedReceipt(now, n)
	}

	var err error
	if in.Phone, err = ParsePhone(row.Value(FieldPhone)); err != nil {
		collect(err)
	}
	if in.Amount, err = ParseAmount(row.Value(FieldAmount)); err != nil {
		collect(err)
	}
	in.Community = NormalizeCommunity(row.Value(FieldCommunity))
	in.PaymentMode = NormalizePaymentMode(row.Value(FieldPaymentMode))
	in.Inscription = ParseInscription(row.Value(FieldInscription))
	if in.DonationDate, err = ParseDate(row.Value(FieldDonationDate)); err != nil {
		collect(err)
	}

	if len(errs) > 0 {
		return in, errs
	}
	return in, nil
}

// Import records every row independently and reports the outcome. A failed
// row never stops the batch. The returned error is non-nil only when ctx ends
// before all rows were attempted; the report then covers the attempted rows.
func (im *Importer) Import(ctx context.Context, rows []RawRow) (Report, error) {
	rep := Report{TotalRecords: len(rows), Errors: []string{}}
	now := im.now()
	maxErrs := im.MaxErrors
	if maxErrs < 1 {
		maxErrs = DefaultMaxErrors
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			im.logSummary(ctx, rep)
			return rep, err
		}
		n := i + 1
		err := im.importRow(ctx, row, n, now)
		if err == nil {
			rep.SuccessCount++
			observability.ImportRows.WithLabelValues("success").Inc()
			continue
		}
		rep.FailureCount++
		observability.ImportRows.WithLabelValues("failure").Inc()
		if len(rep.Errors) < maxErrs {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Row %d: %s", n, reason(err)))
		}
	}

	im.logSummary(ctx, rep)
	return rep, nil
}

func (im *Importer) importRow(ctx context.Context, row RawRow, n int, now time.Time) error {
	in, err := ParseRow(row, n, now)
	if err != nil {
		return err
	}
	_, err = im.Donations.Create(ctx, domain.SourceImport, in)
	return err
}

func (im *Importer) now() time.Time {
	if im.Now != nil {
		return im.Now()
	}
	return time.Now()
}

func (im *Importer) logSummary(ctx context.Context, rep Report) {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = &log.Logger
	}
	l.Info().
		Int("total", rep.TotalRecords).
		Int("success", rep.SuccessCount).
		Int("failure", rep.FailureCount).
		Msg("donation import finished")
}

// reason renders err for a row report without leaking store internals.
func reason(err error) string {
	var (
		pes  ParseErrors
		verr *services.ValidationError
		tse  *services.TransientStoreError
	)
	switch {
	case errors.As(err, &pes):
		return pes.Error()
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, services.ErrDuplicateReceipt):
		return "receipt number already exists"
	case errors.As(err, &tse):
		return "store unavailable, row not saved"
	}
	return "could not save row"
}

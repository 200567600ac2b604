// Bulk intake and export HTTP handlers.
//
// This file exposes the endpoints that move donations in and out in bulk:
//   - POST /donations/import       (multipart CSV/XLSX upload, admin)
//   - GET  /donations/export       (CSV download, admin)
//   - POST /webhooks/google-form   (loosely typed form submission)
//
// Import never aborts on a bad row: every row is attempted and the response
// reports per-row failures as "Row N: reason".
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/http/middleware"
	"github.com/templeledger/donations-backend/internal/importer"
	"github.com/templeledger/donations-backend/internal/services"
	"github.com/templeledger/donations-backend/internal/sysutil"
	"github.com/templeledger/donations-backend/internal/tabular"
)

// webhookRequired are the fields a form submission must carry before it is
// parsed at all.
var webhookRequired = []string{
	importer.FieldReceiptNo,
	importer.FieldName,
	importer.FieldPhone,
	importer.FieldAmount,
}

// ImportDonations godoc
// @ID          importDonations
// @Summary     Bulk import donations
// @Description Accepts a .csv or .xlsx file in the multipart field "file". Column headers are matched loosely (e.g. "Receipt No", "receipt_no", "receiptNumber").
// @Description Each row is validated and stored independently; at most 20 row errors are returned by default.
// @Tags        Donations
// @Accept      multipart/form-data
// @Produce     json
// @Security    AdminToken
//
// @Param       file      formData  file    true  "CSV or XLSX file"
// @Param       filename  formData  string  false "Overrides the uploaded file name when detecting the format"  example(donations.csv)
//
// @Success     200  {object} handlers.ImportResponse
// @Failure     400  {object} handlers.ErrorResponse "No file, unsupported format or no data rows"
// @Failure     401  {object} handlers.ErrorResponse "Admin token required"
// @Failure     413  {object} handlers.ErrorResponse "File too large"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donations/import [post]
func (h *Handlers) ImportDonations(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, h.tooLargeMessage())
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "no file uploaded")
		return
	}
	if fh.Size > h.opts.ImportMaxBytes {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, h.tooLargeMessage())
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read uploaded file")
		return
	}
	defer f.Close()

	name := sysutil.FirstNonEmpty(c.PostForm("filename"), fh.Filename)
	rows, err := tabular.Read(name, io.LimitReader(f, h.opts.ImportMaxBytes))
	switch {
	case errors.Is(err, tabular.ErrUnsupportedFormat):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "only .csv and .xlsx files are supported")
		return
	case errors.Is(err, tabular.ErrNoHeader):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "file must contain a header row and at least one data row")
		return
	case err != nil:
		middleware.LoggerFrom(c).Warn().Err(err).Str("file", name).Msg("import file unreadable")
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not parse file")
		return
	}
	if len(rows) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "file must contain a header row and at least one data row")
		return
	}

	rep, err := h.importer.Import(c.Request.Context(), rows)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeImportFailed,
			fmt.Sprintf("import interrupted after %d of %d rows", rep.SuccessCount+rep.FailureCount, rep.TotalRecords))
		return
	}
	ok(c, http.StatusOK, ImportResponse{Success: rep.SuccessCount > 0, Report: rep})
}

// ExportDonations godoc
// @ID          exportDonations
// @Summary     Export donations as CSV
// @Description Streams every donation matching the optional filters as CSV, newest first. The header row re-imports cleanly.
// @Tags        Donations
// @Produce     text/csv
// @Security    AdminToken
//
// @Param       date_range    query  string  false "Created-at window"  Enums(all, today, week, month)
// @Param       community     query  string  false "Community (kulam)"
// @Param       payment_mode  query  string  false "Payment mode"
// @Param       amount_range  query  string  false "Inclusive amount band"
//
// @Success     200  {string} string "CSV file"
// @Header      200  {string} Content-Disposition "attachment; filename=donations.csv"
// @Failure     401  {object} handlers.ErrorResponse "Admin token required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donations/export [get]
func (h *Handlers) ExportDonations(c *gin.Context) {
	ds, err := h.donations.Filter(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// Render fully before writing so a failure can still return JSON.
	var buf bytes.Buffer
	if err := tabular.WriteDonationsCSV(&buf, ds, h.opts.Location); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("csv export")
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, "could not export donations")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=donations.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GoogleFormWebhook godoc
// @ID          googleFormWebhook
// @Summary     Google Form submission
// @Description Accepts a flat JSON object from a form integration. Keys are matched like import headers (receiptNo, receipt_no, Receipt No, ...) and values may be strings, numbers or booleans.
// @Description receipt number, name, phone and amount are required; community defaults to any and payment mode to cash.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       body  body  object  true  "Form fields"
//
// @Success     201  {object} handlers.WebhookResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing fields, invalid values or duplicate receipt"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /webhooks/google-form [post]
func (h *Handlers) GoogleFormWebhook(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	row := importer.RowFromMap(body)
	if missing := row.Missing(webhookRequired...); len(missing) > 0 {
		failWith(c, http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeMissingFields,
			Message: "missing required fields: " + strings.Join(missing, ", "),
			Missing: missing,
		})
		return
	}

	in, err := importer.ParseRow(row, 1, time.Now())
	if err != nil {
		writeServiceError(c, fieldErrors(err))
		return
	}

	d, err := h.donations.Create(c.Request.Context(), domain.SourceWebhook, in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, WebhookResponse{
		Success:    true,
		Message:    "donation submitted",
		ReceiptNo:  d.ReceiptNo,
		DonationID: d.ID,
	})
}

// fieldErrors converts importer parse failures into a ValidationError keyed by
// field, so they reach clients in the same shape as other validation errors.
func fieldErrors(err error) error {
	var pes importer.ParseErrors
	if !errors.As(err, &pes) {
		return err
	}
	fields := make(map[string]string, len(pes))
	for _, pe := range pes {
		if _, seen := fields[pe.Field]; !seen {
			fields[pe.Field] = pe.Error()
		}
	}
	return &services.ValidationError{Fields: fields}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func (h *Handlers) tooLargeMessage() string {
	return fmt.Sprintf("file exceeds %d bytes", h.opts.ImportMaxBytes)
}

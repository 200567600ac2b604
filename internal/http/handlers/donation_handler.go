// Donation HTTP handlers.
//
// This file exposes REST endpoints for donation resources:
//   - POST   /donations                          (create, Idempotency-Key aware)
//   - GET    /donations                          (filter, optional pagination, ETag support)
//   - GET    /donations/{id}                     (read)
//   - PUT    /donations/{id}                     (full replace, admin)
//   - DELETE /donations/{id}                     (hard delete, admin)
//   - GET    /donations/check-receipt/{receiptNo} (advisory uniqueness check)
//   - GET    /donations/next-receipt             (suggest the next receipt number)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and the key already
// produced a donation, the handler returns that donation with 200 and sets
// `Idempotency-Replayed: true` instead of failing on the duplicate receipt.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/templeledger/donations-backend/internal/domain"
	"github.com/templeledger/donations-backend/internal/http/middleware"
)

// CreateDonation godoc
// @ID          createDonation
// @Summary     Record a donation
// @Description Validates the donation and stores it. A receipt number that is already in use is rejected with code duplicate_receipt.
// @Description Supports idempotency via the Idempotency-Key header (same key → same donation).
// @Tags        Donations
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.DonationRequest  true  "Donation payload"
//
// @Success     201  {object}  domain.Donation
// @Success     200  {object}  domain.Donation         "Replayed result for a known Idempotency-Key"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed or duplicate receipt"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations [post]
func (h *Handlers) CreateDonation(c *gin.Context) {
	var req DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in, err := req.input()
	if err != nil {
		writeServiceError(c, err)
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	d, replayed, err := h.donations.CreateIdempotent(c.Request.Context(), domain.SourceForm, key, in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if replayed {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, d)
		return
	}
	ok(c, http.StatusCreated, d)
}

// ListDonations godoc
// @ID          listDonations
// @Summary     List donations
// @Description Returns donations matching the filters, newest first. Unknown filter values mean "no constraint".
// @Description Without page/page_size the full result set is returned in a single page. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Donations
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       date_range     query   string  false "Created-at window"   Enums(all, today, week, month)
// @Param       community      query   string  false "Community (kulam)"   example(semban)
// @Param       payment_mode   query   string  false "Payment mode"        Enums(all, cash, card, upi, bankTransfer, cheque)
// @Param       amount_range   query   string  false "Inclusive amount band" Enums(all, 0-1000, 1001-5000, 5001-10000, 10000+)
// @Param       page           query   int     false "Page number"         minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"      minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListDonationsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donations [get]
func (h *Handlers) ListDonations(c *gin.Context) {
	ctx := c.Request.Context()
	f := filterFromQuery(c)
	page, pageSize, paged := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.donations.Stats(ctx, f); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixMilli()
		}
		window := "all"
		if paged {
			window = fmt.Sprintf("%d-%d", page, pageSize)
		}
		etag := fmt.Sprintf(`W/"donations:%s:%s:%d:%d"`, f.Key(), window, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	if !paged {
		items, err := h.donations.Filter(ctx, f)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		total := int64(len(items))
		p := pagination(1, len(items), total)
		if total == 0 {
			p.PageSize = 0
		}
		ok(c, http.StatusOK, ListDonationsResponse{Donations: items, Pagination: p})
		return
	}

	items, total, err := h.donations.FilterPage(ctx, f, page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListDonationsResponse{
		Donations:  items,
		Pagination: pagination(page, pageSize, total),
	})
}

// GetDonation godoc
// @ID          getDonation
// @Summary     Get a donation
// @Tags        Donations
// @Produce     json
//
// @Param       id  path  string  true  "Donation ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Donation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Donation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donations/{id} [get]
func (h *Handlers) GetDonation(c *gin.Context) {
	id, okID := donationID(c)
	if !okID {
		return
	}
	d, err := h.donations.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// UpdateDonation godoc
// @ID          updateDonation
// @Summary     Replace a donation
// @Description Replaces every editable field. The receipt number must stay unique across all other donations.
// @Tags        Donations
// @Accept      json
// @Produce     json
// @Security    AdminToken
//
// @Param       id    path  string  true  "Donation ID (UUID)"  format(uuid)
// @Param       body  body  handlers.DonationRequest  true  "Donation payload"
//
// @Success     200  {object} domain.Donation
// @Failure     400  {object} handlers.ErrorResponse "Validation failed or duplicate receipt"
// @Failure     401  {object} handlers.ErrorResponse "Admin token required"
// @Failure     404  {object} handlers.ErrorResponse "Donation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donations/{id} [put]
func (h *Handlers) UpdateDonation(c *gin.Context) {
	id, okID := donationID(c)
	if !okID {
		return
	}
	var req DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in, err := req.input()
	if err != nil {
		writeServiceError(c, err)
		return
	}

	d, err := h.donations.Update(c.Request.Context(), id, in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// DeleteDonation godoc
// @ID          deleteDonation
// @Summary     Delete a donation
// @Description Permanently removes the donation. There is no undo.
// @Tags        Donations
// @Produce     json
// @Security    AdminToken
//
// @Param       id  path  string  true  "Donation ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.MessageResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Admin token required"
// @Failure     404  {object} handlers.ErrorResponse "Donation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donations/{id} [delete]
func (h *Handlers) DeleteDonation(c *gin.Context) {
	id, okID := donationID(c)
	if !okID {
		return
	}
	deleted, err := h.donations.Delete(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !deleted {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "donation not found")
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "donation deleted"})
}

// CheckReceipt godoc
// @ID          checkReceipt
// @Summary     Check whether a receipt number is taken
// @Description Advisory only: the authoritative check happens when the donation is created.
// @Tags        Donations
// @Produce     json
//
// @Param       receiptNo  path  string  true  "Receipt number"  example(A0042)
//
// @Success     200  {object} handlers.ReceiptExistsResponse
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donations/check-receipt/{receiptNo} [get]
func (h *Handlers) CheckReceipt(c *gin.Context) {
	exists, err := h.donations.ReceiptExists(c.Request.Context(), c.Param("receiptNo"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, ReceiptExistsResponse{Exists: exists})
}

// NextReceipt godoc
// @ID          nextReceipt
// @Summary     Suggest the next receipt number
// @Description Follows the manual series 1..999, A0001..A9999, ..., Z0001..Z9999.
// @Tags        Donations
// @Produce     json
//
// @Success     200  {object} handlers.NextReceiptResponse
// @Failure     409  {object} handlers.ErrorResponse "Receipt series exhausted"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donations/next-receipt [get]
func (h *Handlers) NextReceipt(c *gin.Context) {
	next, err := h.donations.NextReceipt(c.Request.Context())
	if errors.Is(err, domain.ErrReceiptSequenceExhausted) {
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		return
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, NextReceiptResponse{ReceiptNo: next})
}

// donationID reads and validates the :id path parameter, failing the request
// when it is not a UUID.
func donationID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "donation id must be a UUID")
		return "", false
	}
	return id, true
}

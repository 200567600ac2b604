// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and
// helpers for common HTTP patterns. The goal is to guarantee uniform responses
// for both success and failure cases, making the API predictable and
// machine-friendly.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `writeServiceError()` is the single place where service errors become
//     HTTP statuses; store details never reach the client.
//   - `ok()` writes success responses in a consistent shape across handlers.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_failed",
//	  "message": "Phone number must be exactly 10 digits",
//	  "fields": { "phone": "Phone number must be exactly 10 digits" }
//	}
//
// Example success response:
//
//	HTTP/1.1 201 Created
//	{ "id": "abc123", "receipt_no": "A0042", "amount": 501 }
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/templeledger/donations-backend/internal/http/middleware"
	"github.com/templeledger/donations-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
//   - Field: The single offending input field, when there is exactly one
//     (duplicate_receipt always names receipt_no).
//   - Fields: Per-field messages for validation_failed.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
	// Offending field for single-field errors
	Field string `json:"field,omitempty" example:"receipt_no"`
	// Per-field validation messages
	Fields map[string]string `json:"fields,omitempty"`
	// Missing lists absent required webhook fields
	Missing []string `json:"missing,omitempty"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// It constructs an ErrorResponse, writes it as JSON with the given HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg})
}

// failWith is fail for envelopes that carry field details.
func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// writeServiceError maps a service-layer error onto the error envelope.
//
//	*ValidationError        400 validation_failed (fields)
//	ErrDuplicateReceipt     400 duplicate_receipt (field receipt_no)
//	ErrDonation/DonorNotFound 404 not_found
//	*TransientStoreError    503 store_unavailable
//	anything else           500 internal_error
//
// The underlying error is logged, never echoed.
func writeServiceError(c *gin.Context, err error) {
	var (
		verr *services.ValidationError
		terr *services.TransientStoreError
	)
	switch {
	case errors.As(err, &verr):
		failWith(c, http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeValidation,
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, services.ErrDuplicateReceipt):
		failWith(c, http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeDuplicateReceipt,
			Message: services.ErrDuplicateReceipt.Error(),
			Field:   "receipt_no",
		})
	case errors.Is(err, services.ErrDonationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "donation not found")
	case errors.Is(err, services.ErrDonorNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "donor not found")
	case errors.As(err, &terr):
		middleware.LoggerFrom(c).Warn().Err(terr.Err).Str("op", terr.Op).Int("attempts", terr.Attempts).Msg("store unavailable")
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "donation store temporarily unavailable, please retry")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unexpected service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}


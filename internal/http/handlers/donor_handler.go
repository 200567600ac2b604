// Donor and dashboard HTTP handlers.
//
// Donors are not stored; they are derived from the donations sharing a phone
// number. This file exposes:
//   - GET /donors/{phone}    (summary of one donor)
//   - GET /donors/search     (name/phone substring search, optional community)
//   - GET /dashboard/stats   (global collection statistics, admin)
package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

var phoneRE = regexp.MustCompile(`^\d{10}$`)

// GetDonor godoc
// @ID          getDonor
// @Summary     Get a donor by phone
// @Description Aggregates every donation made with the phone number. Name, location and community come from the newest donation.
// @Tags        Donors
// @Produce     json
//
// @Param       phone  path  string  true  "Ten-digit phone number"  example(9876543210)
//
// @Success     200  {object} domain.DonorSummary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Donor not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donors/{phone} [get]
func (h *Handlers) GetDonor(c *gin.Context) {
	phone := c.Param("phone")
	if !phoneRE.MatchString(phone) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "phone must be exactly 10 digits")
		return
	}
	s, err := h.donors.GetByPhone(c.Request.Context(), phone)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// SearchDonors godoc
// @ID          searchDonors
// @Summary     Search donors
// @Description Matches donations whose name contains q (case-insensitive) or whose phone contains q, then groups them by phone.
// @Description Numeric queries rank phone matches first; otherwise donors are ordered by total amount.
// @Tags        Donors
// @Produce     json
//
// @Param       q          query  string  false "Name or phone fragment"  example(987)
// @Param       community  query  string  false "Restrict to a community; all or empty for none"  example(semban)
//
// @Success     200  {array}  domain.DonorSummary
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donors/search [get]
func (h *Handlers) SearchDonors(c *gin.Context) {
	out, err := h.donors.Search(c.Request.Context(), c.Query("q"), c.Query("community"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// DashboardStats godoc
// @ID          dashboardStats
// @Summary     Dashboard statistics
// @Description Totals, distinct donors, this month's collection, the rounded average, the payment-mode distribution and the most recent donations.
// @Tags        Dashboard
// @Produce     json
// @Security    AdminToken
//
// @Success     200  {object} domain.DashboardStats
// @Failure     401  {object} handlers.ErrorResponse "Admin token required"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard/stats [get]
func (h *Handlers) DashboardStats(c *gin.Context) {
	st, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

package controllers

import (
	"encoding/json"
	"net/http"

	"banquito/middleware"
	"banquito/services"
)

// LoanController handles loan lifecycle requests
type LoanController struct {
	loans *services.LoanService
}

// NewLoanController creates a new LoanController instance
func NewLoanController(loans *services.LoanService) *LoanController {
	return &LoanController{loans: loans}
}

// CreateLoan handles POST /api/loans. Direct origination, used by admins for
// loans that bypass the request workflow.
func (c *LoanController) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	if dto.ApprovedBy == "" {
		if _, username, err := middleware.UserFromContext(r); err == nil {
			dto.ApprovedBy = username
		}
	}

	loan, err := c.loans.CreateLoan(dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// GetLoans handles GET /api/loans
func (c *LoanController) GetLoans(w http.ResponseWriter, r *http.Request) {
	filters := services.LoanFilters{
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
		MemberID:  queryUint(r, "memberId"),
		Status:    r.URL.Query().Get("status"),
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}

	page, err := c.loans.GetLoans(filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetLoan handles GET /api/loans/{id}
func (c *LoanController) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid loan ID")
		return
	}

	loan, err := c.loans.GetLoanByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// UpdateLoan handles PUT /api/loans/{id}
func (c *LoanController) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid loan ID")
		return
	}

	var dto services.UpdateLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	loan, err := c.loans.UpdateLoan(id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// CancelLoan handles POST /api/loans/{id}/cancel
func (c *LoanController) CancelLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid loan ID")
		return
	}

	loan, err := c.loans.CancelLoan(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// RecordPayment handles POST /api/loans/{id}/payments
func (c *LoanController) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid loan ID")
		return
	}

	var dto services.RecordPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	if dto.CreatedBy == "" {
		if _, username, err := middleware.UserFromContext(r); err == nil {
			dto.CreatedBy = username
		}
	}

	payment, err := c.loans.RecordPayment(id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// GetPayments handles GET /api/loans/{id}/payments
func (c *LoanController) GetPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid loan ID")
		return
	}

	payments, err := c.loans.GetLoanPayments(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// GetSchedule handles GET /api/loans/{id}/schedule
func (c *LoanController) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid loan ID")
		return
	}

	includePayments := r.URL.Query().Get("includePayments") == "true"
	schedule, err := c.loans.GetSchedule(id, includePayments)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// GetOverdueLoans handles GET /api/loans/overdue
func (c *LoanController) GetOverdueLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := c.loans.GetOverdueLoans()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

// GetLoanStatistics handles GET /api/loans/statistics
func (c *LoanController) GetLoanStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := c.loans.GetLoanStatistics()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

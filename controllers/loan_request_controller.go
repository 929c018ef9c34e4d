package controllers

import (
	"encoding/json"
	"net/http"

	"banquito/middleware"
	"banquito/services"
)

// LoanRequestController handles the application and review workflow
type LoanRequestController struct {
	requests *services.LoanRequestService
}

// NewLoanRequestController creates a new LoanRequestController instance
func NewLoanRequestController(requests *services.LoanRequestService) *LoanRequestController {
	return &LoanRequestController{requests: requests}
}

// CreateLoanRequest handles POST /api/loan-requests
func (c *LoanRequestController) CreateLoanRequest(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateLoanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	request, err := c.requests.CreateLoanRequest(dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// GetLoanRequests handles GET /api/loan-requests
func (c *LoanRequestController) GetLoanRequests(w http.ResponseWriter, r *http.Request) {
	filters := services.LoanRequestFilters{
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
		MemberID:  queryUint(r, "memberId"),
		Status:    r.URL.Query().Get("status"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}

	page, err := c.requests.GetLoanRequests(filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetPendingLoanRequests handles GET /api/loan-requests/pending
func (c *LoanRequestController) GetPendingLoanRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := c.requests.GetPendingLoanRequests()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// GetLoanRequest handles GET /api/loan-requests/{id}
func (c *LoanRequestController) GetLoanRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid loan request ID")
		return
	}

	request, err := c.requests.GetLoanRequestByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// ApproveLoanRequest handles POST /api/loan-requests/{id}/approve
func (c *LoanRequestController) ApproveLoanRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid loan request ID")
		return
	}

	var dto services.ApproveLoanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	if dto.ReviewedBy == "" {
		if _, username, err := middleware.UserFromContext(r); err == nil {
			dto.ReviewedBy = username
		}
	}

	request, err := c.requests.ApproveLoanRequest(id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// RejectLoanRequest handles POST /api/loan-requests/{id}/reject
func (c *LoanRequestController) RejectLoanRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid loan request ID")
		return
	}

	var dto services.RejectLoanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	if dto.ReviewedBy == "" {
		if _, username, err := middleware.UserFromContext(r); err == nil {
			dto.ReviewedBy = username
		}
	}

	request, err := c.requests.RejectLoanRequest(id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// GetLoanRequestStatistics handles GET /api/loan-requests/statistics
func (c *LoanRequestController) GetLoanRequestStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := c.requests.GetLoanRequestStatistics()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

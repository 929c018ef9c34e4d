package controllers

import (
	"encoding/json"
	"net/http"

	"banquito/services"
)

// FixedSavingController handles fixed-term deposit requests
type FixedSavingController struct {
	savings *services.FixedSavingService
}

// NewFixedSavingController creates a new FixedSavingController instance
func NewFixedSavingController(savings *services.FixedSavingService) *FixedSavingController {
	return &FixedSavingController{savings: savings}
}

// CreateFixedSaving handles POST /api/fixed-savings
func (c *FixedSavingController) CreateFixedSaving(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateFixedSavingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	saving, err := c.savings.CreateFixedSaving(dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saving)
}

// GetFixedSavings handles GET /api/fixed-savings
func (c *FixedSavingController) GetFixedSavings(w http.ResponseWriter, r *http.Request) {
	filters := services.FixedSavingFilters{
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
		MemberID:  queryUint(r, "memberId"),
		Status:    r.URL.Query().Get("status"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}

	page, err := c.savings.GetFixedSavings(filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetFixedSaving handles GET /api/fixed-savings/{id}
func (c *FixedSavingController) GetFixedSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid fixed saving ID")
		return
	}

	saving, err := c.savings.GetFixedSavingByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saving)
}

// UpdateFixedSaving handles PUT /api/fixed-savings/{id}
func (c *FixedSavingController) UpdateFixedSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid fixed saving ID")
		return
	}

	var dto services.UpdateFixedSavingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	saving, err := c.savings.UpdateFixedSaving(id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saving)
}

// MatureFixedSaving handles POST /api/fixed-savings/{id}/mature
func (c *FixedSavingController) MatureFixedSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid fixed saving ID")
		return
	}

	saving, err := c.savings.MatureFixedSaving(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saving)
}

// CancelFixedSaving handles POST /api/fixed-savings/{id}/cancel
func (c *FixedSavingController) CancelFixedSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid fixed saving ID")
		return
	}

	saving, err := c.savings.CancelFixedSaving(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saving)
}

// GetFixedSavingStatistics handles GET /api/fixed-savings/statistics
func (c *FixedSavingController) GetFixedSavingStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := c.savings.GetFixedSavingStatistics()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

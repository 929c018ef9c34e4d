package controllers

import (
	"encoding/json"
	"net/http"

	"banquito/services"
)

// MemberController handles member registry requests
type MemberController struct {
	members *services.MemberService
}

// NewMemberController creates a new MemberController instance
func NewMemberController(members *services.MemberService) *MemberController {
	return &MemberController{members: members}
}

// CreateMember handles POST /api/members
func (c *MemberController) CreateMember(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	member, err := c.members.CreateMember(dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// GetMembers handles GET /api/members
func (c *MemberController) GetMembers(w http.ResponseWriter, r *http.Request) {
	filters := services.MemberFilters{
		Page:         queryInt(r, "page"),
		Limit:        queryInt(r, "limit"),
		Search:       r.URL.Query().Get("search"),
		CreditRating: r.URL.Query().Get("creditRating"),
		SortBy:       r.URL.Query().Get("sortBy"),
		SortOrder:    r.URL.Query().Get("sortOrder"),
	}
	if raw := r.URL.Query().Get("isActive"); raw != "" {
		isActive := raw == "true"
		filters.IsActive = &isActive
	}

	page, err := c.members.GetMembers(filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetMember handles GET /api/members/{id}
func (c *MemberController) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid member ID")
		return
	}

	member, err := c.members.GetMemberByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// UpdateMember handles PUT /api/members/{id}
func (c *MemberController) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid member ID")
		return
	}

	var dto services.UpdateMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	member, err := c.members.UpdateMember(id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// DeactivateMember handles DELETE /api/members/{id}
func (c *MemberController) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid member ID")
		return
	}

	if err := c.members.DeactivateMember(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Member deactivated"})
}

// GetMemberStatistics handles GET /api/members/statistics
func (c *MemberController) GetMemberStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := c.members.GetMemberStatistics()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

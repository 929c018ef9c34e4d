package controllers

import (
	"encoding/json"
	"net/http"

	"banquito/services"
	"github.com/gorilla/mux"
)

// SettingsController handles system configuration requests
type SettingsController struct {
	settings *services.SettingsService
}

// NewSettingsController creates a new SettingsController instance
func NewSettingsController(settings *services.SettingsService) *SettingsController {
	return &SettingsController{settings: settings}
}

// GetSettings handles GET /api/settings
func (c *SettingsController) GetSettings(w http.ResponseWriter, r *http.Request) {
	grouped, err := c.settings.GetAllSettings()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

// GetSetting handles GET /api/settings/{key}
func (c *SettingsController) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	setting, err := c.settings.GetSettingByKey(key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// CreateSetting handles POST /api/settings
func (c *SettingsController) CreateSetting(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateSettingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	setting, err := c.settings.CreateSetting(dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, setting)
}

// UpdateSetting handles PUT /api/settings/{key}
func (c *SettingsController) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var dto services.UpdateSettingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	setting, err := c.settings.UpdateSetting(key, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// DeleteSetting handles DELETE /api/settings/{key}
func (c *SettingsController) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := c.settings.DeleteSetting(key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Setting deleted"})
}

// RefreshReferenceRate handles POST /api/settings/refresh-rate
func (c *SettingsController) RefreshReferenceRate(w http.ResponseWriter, r *http.Request) {
	if err := c.settings.RefreshReferenceRate(); err != nil {
		writeError(w, err)
		return
	}
	setting, err := c.settings.GetSettingByKey(services.SettingDefaultInterestRate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

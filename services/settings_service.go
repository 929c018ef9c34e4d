package services

import (
	"errors"
	"fmt"

	"banquito/models"
	"banquito/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Setting keys consulted by the financial services.
const (
	SettingShareValue          = "system.share_value"
	SettingDefaultInterestRate = "loan.default_interest_rate"
	SettingMaxLoanWeeks        = "loan.max_weeks"
	SettingLateFeePercentage   = "loan.late_fee_percentage"
	SettingDefaultSavingRate   = "saving.default_annual_rate"
)

// CreateSettingDTO carries a new configuration entry
type CreateSettingDTO struct {
	Key         string `json:"key" validate:"required,max=100"`
	Value       string `json:"value" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"omitempty,max=50"`
}

// UpdateSettingDTO carries changes to an existing entry
type UpdateSettingDTO struct {
	Value       string `json:"value" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"omitempty,max=50"`
}

// SettingsService manages the key-value configuration table and exposes
// typed accessors for the constants the financial core consults.
type SettingsService struct {
	db        *gorm.DB
	validator *validator.Validate
	log       *logrus.Logger
	rates     *ReferenceRateClient
}

// NewSettingsService creates a new SettingsService instance
func NewSettingsService(db *gorm.DB, log *logrus.Logger, rates *ReferenceRateClient) *SettingsService {
	return &SettingsService{
		db:        db,
		validator: validator.New(),
		log:       log,
		rates:     rates,
	}
}

// GetAllSettings returns every setting grouped by category.
func (s *SettingsService) GetAllSettings() (map[string][]models.Setting, error) {
	var settings []models.Setting
	if err := s.db.Order("category ASC, key ASC").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	grouped := make(map[string][]models.Setting)
	for _, setting := range settings {
		grouped[setting.Category] = append(grouped[setting.Category], setting)
	}
	return grouped, nil
}

// GetSettingByKey returns one setting by its key
func (s *SettingsService) GetSettingByKey(key string) (*models.Setting, error) {
	var setting models.Setting
	if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("loading setting %q: %w", key, err)
	}
	return &setting, nil
}

// CreateSetting adds a new configuration entry
func (s *SettingsService) CreateSetting(dto CreateSettingDTO) (*models.Setting, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	var existing models.Setting
	if err := s.db.Where("key = ?", dto.Key).First(&existing).Error; err == nil {
		return nil, ErrDuplicateSetting
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking setting key: %w", err)
	}

	category := dto.Category
	if category == "" {
		category = "general"
	}

	setting := &models.Setting{
		Key:         dto.Key,
		Value:       dto.Value,
		Description: dto.Description,
		Category:    category,
	}
	if err := s.db.Create(setting).Error; err != nil {
		return nil, fmt.Errorf("creating setting: %w", err)
	}
	return setting, nil
}

// UpdateSetting changes value/description/category of an existing entry
func (s *SettingsService) UpdateSetting(key string, dto UpdateSettingDTO) (*models.Setting, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	setting, err := s.GetSettingByKey(key)
	if err != nil {
		return nil, err
	}

	setting.Value = dto.Value
	if dto.Description != "" {
		setting.Description = dto.Description
	}
	if dto.Category != "" {
		setting.Category = dto.Category
	}
	if err := s.db.Save(setting).Error; err != nil {
		return nil, fmt.Errorf("updating setting: %w", err)
	}
	return setting, nil
}

// DeleteSetting removes an entry by key
func (s *SettingsService) DeleteSetting(key string) error {
	setting, err := s.GetSettingByKey(key)
	if err != nil {
		return err
	}
	if err := s.db.Delete(setting).Error; err != nil {
		return fmt.Errorf("deleting setting: %w", err)
	}
	return nil
}

// ShareValue returns the monetary value of one cooperative share. Falls back
// to the default when the setting is missing or malformed. Callers read it
// once per operation and pass it into the capacity calculator.
func (s *SettingsService) ShareValue() decimal.Decimal {
	return s.decimalSetting(SettingShareValue, utils.DefaultShareValue)
}

// DefaultInterestRate returns the monthly interest rate applied when an
// approval does not specify one.
func (s *SettingsService) DefaultInterestRate() decimal.Decimal {
	return s.decimalSetting(SettingDefaultInterestRate, decimal.RequireFromString("2.5"))
}

func (s *SettingsService) decimalSetting(key string, fallback decimal.Decimal) decimal.Decimal {
	setting, err := s.GetSettingByKey(key)
	if err != nil {
		return fallback
	}
	value, err := decimal.NewFromString(setting.Value)
	if err != nil {
		s.log.Warnf("setting %s holds a non-numeric value %q, using default", key, setting.Value)
		return fallback
	}
	return value
}

// InitializeDefaults seeds the settings the system depends on, leaving any
// existing values untouched.
func (s *SettingsService) InitializeDefaults() error {
	defaults := []models.Setting{
		{Key: SettingShareValue, Value: "100", Category: "system", Description: "Monetary value of one cooperative share"},
		{Key: SettingDefaultInterestRate, Value: "2.5", Category: "loans", Description: "Default monthly interest rate (%)"},
		{Key: SettingMaxLoanWeeks, Value: "52", Category: "loans", Description: "Maximum loan term in weeks"},
		{Key: SettingLateFeePercentage, Value: "5", Category: "payments", Description: "Late fee surcharge (%)"},
		{Key: SettingDefaultSavingRate, Value: "2.0", Category: "general", Description: "Default annual rate for fixed savings (%)"},
	}

	for _, def := range defaults {
		var existing models.Setting
		err := s.db.Where("key = ?", def.Key).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.db.Create(&def).Error; err != nil {
				return fmt.Errorf("seeding setting %s: %w", def.Key, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("checking setting %s: %w", def.Key, err)
		}
	}
	return nil
}

// RefreshReferenceRate pulls the central-bank reference rate and stores it as
// the default loan rate. No-op when the integration is not configured.
func (s *SettingsService) RefreshReferenceRate() error {
	if s.rates == nil || !s.rates.Enabled() {
		return nil
	}

	rate, err := s.rates.FetchMonthlyRate()
	if err != nil {
		return fmt.Errorf("fetching reference rate: %w", err)
	}

	_, err = s.UpdateSetting(SettingDefaultInterestRate, UpdateSettingDTO{Value: rate.String()})
	if errors.Is(err, ErrSettingNotFound) {
		_, err = s.CreateSetting(CreateSettingDTO{
			Key:      SettingDefaultInterestRate,
			Value:    rate.String(),
			Category: "loans",
		})
	}
	if err != nil {
		return err
	}

	s.log.Infof("default interest rate refreshed from reference feed: %s%%", rate)
	return nil
}

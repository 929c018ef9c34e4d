package services

import (
	"errors"
	"fmt"
	"time"

	"banquito/models"
	"banquito/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateFixedSavingDTO carries the data for opening a fixed-term deposit
type CreateFixedSavingDTO struct {
	MemberID   uint            `json:"memberId" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	TermDays   int             `json:"termDays" validate:"required,gte=30,lte=1825"`
	AnnualRate decimal.Decimal `json:"annualRate"`
	StartDate  time.Time       `json:"startDate"`
	Notes      string          `json:"notes"`
}

// UpdateFixedSavingDTO carries the only field editable after opening
type UpdateFixedSavingDTO struct {
	Notes *string `json:"notes"`
}

// FixedSavingFilters narrows and orders the deposit listing
type FixedSavingFilters struct {
	Page      int
	Limit     int
	MemberID  uint
	Status    string
	SortOrder string
}

// FixedSavingStatistics aggregates the deposit book
type FixedSavingStatistics struct {
	TotalSavings    int64           `json:"totalSavings"`
	ActiveSavings   int64           `json:"activeSavings"`
	ActiveAmount    decimal.Decimal `json:"activeAmount"`
	ProjectedPayout decimal.Decimal `json:"projectedPayout"`
	MaturingSoon    int64           `json:"maturingSoon"`
}

// FixedSavingService manages fixed-term deposits. Amount, term and rate are
// frozen at opening; the maturity amount is computed once and never revised.
type FixedSavingService struct {
	db        *gorm.DB
	validator *validator.Validate
	settings  *SettingsService
	email     *EmailService
	log       *logrus.Logger
}

// NewFixedSavingService creates a new FixedSavingService instance
func NewFixedSavingService(db *gorm.DB, settings *SettingsService, email *EmailService, log *logrus.Logger) *FixedSavingService {
	return &FixedSavingService{
		db:        db,
		validator: validator.New(),
		settings:  settings,
		email:     email,
		log:       log,
	}
}

// CreateFixedSaving opens a deposit for an active member. A zero rate falls
// back to the configured default annual rate.
func (s *FixedSavingService) CreateFixedSaving(dto CreateFixedSavingDTO) (*models.FixedSaving, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}
	if !dto.Amount.IsPositive() {
		return nil, errors.New("amount must be greater than 0")
	}
	if dto.AnnualRate.IsNegative() {
		return nil, errors.New("annual rate cannot be negative")
	}

	var member models.Member
	if err := s.db.First(&member, dto.MemberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("loading member: %w", err)
	}
	if !member.IsActive {
		return nil, ErrMemberInactive
	}

	rate := dto.AnnualRate
	if rate.IsZero() {
		rate = s.settings.decimalSetting(SettingDefaultSavingRate, decimal.RequireFromString("2.0"))
	}

	startDate := dto.StartDate
	if startDate.IsZero() {
		startDate = time.Now()
	}

	saving := &models.FixedSaving{
		MemberID:       dto.MemberID,
		Amount:         dto.Amount,
		TermDays:       dto.TermDays,
		AnnualRate:     rate,
		StartDate:      startDate,
		EndDate:        startDate.AddDate(0, 0, dto.TermDays),
		MaturityAmount: utils.MaturityAmount(dto.Amount, rate, dto.TermDays),
		Status:         models.FixedSavingStatusActive,
		Notes:          dto.Notes,
	}

	if err := s.db.Create(saving).Error; err != nil {
		return nil, fmt.Errorf("creating fixed saving: %w", err)
	}

	s.log.Infof("fixed saving %d opened for member %d: %s over %d days", saving.ID, member.ID, saving.Amount, saving.TermDays)
	return saving, nil
}

// GetFixedSavingByID returns a deposit with its member
func (s *FixedSavingService) GetFixedSavingByID(id uint) (*models.FixedSaving, error) {
	var saving models.FixedSaving
	if err := s.db.Preload("Member").First(&saving, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFixedSavingNotFound
		}
		return nil, fmt.Errorf("loading fixed saving: %w", err)
	}
	return &saving, nil
}

// GetFixedSavings lists deposits with filtering and pagination
func (s *FixedSavingService) GetFixedSavings(filters FixedSavingFilters) (*PaginatedResponse, error) {
	offset, limit, page := paginationParams(filters.Page, filters.Limit)

	query := s.db.Model(&models.FixedSaving{})
	if filters.MemberID != 0 {
		query = query.Where("member_id = ?", filters.MemberID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("counting fixed savings: %w", err)
	}

	sortOrder := "DESC"
	if filters.SortOrder == "ASC" {
		sortOrder = "ASC"
	}

	var savings []models.FixedSaving
	if err := query.Preload("Member").
		Order("end_date " + sortOrder).
		Limit(limit).Offset(offset).
		Find(&savings).Error; err != nil {
		return nil, fmt.Errorf("listing fixed savings: %w", err)
	}

	return paginatedResponse(savings, totalCount, page, limit), nil
}

// UpdateFixedSaving edits the notes of an active deposit. The financial
// terms are immutable after opening.
func (s *FixedSavingService) UpdateFixedSaving(id uint, dto UpdateFixedSavingDTO) (*models.FixedSaving, error) {
	saving, err := s.GetFixedSavingByID(id)
	if err != nil {
		return nil, err
	}
	if saving.Status != models.FixedSavingStatusActive {
		return nil, ErrNotCancellable
	}

	if dto.Notes != nil {
		saving.Notes = *dto.Notes
		if err := s.db.Model(saving).Update("notes", *dto.Notes).Error; err != nil {
			return nil, fmt.Errorf("updating fixed saving: %w", err)
		}
	}
	return saving, nil
}

// MatureFixedSaving settles an active deposit that reached its end date. The
// payout is the maturity amount frozen at opening.
func (s *FixedSavingService) MatureFixedSaving(id uint) (*models.FixedSaving, error) {
	saving, err := s.GetFixedSavingByID(id)
	if err != nil {
		return nil, err
	}
	if saving.Status != models.FixedSavingStatusActive {
		return nil, ErrNotCancellable
	}
	if time.Now().Before(saving.EndDate) {
		return nil, ErrNotYetMatured
	}

	if err := s.db.Model(saving).Update("status", models.FixedSavingStatusMatured).Error; err != nil {
		return nil, fmt.Errorf("maturing fixed saving: %w", err)
	}
	saving.Status = models.FixedSavingStatusMatured

	if saving.Member != nil && saving.Member.Email != "" {
		if err := s.email.SendSavingMaturedNotification(saving.Member.Email, saving.ID, saving.MaturityAmount); err != nil {
			s.log.Warnf("sending maturity notification: %v", err)
		}
	}

	s.log.Infof("fixed saving %d matured, payout %s", id, saving.MaturityAmount)
	return saving, nil
}

// CancelFixedSaving cancels an active deposit before maturity. Early
// cancellation forfeits the accrued interest; the member gets the principal
// back.
func (s *FixedSavingService) CancelFixedSaving(id uint) (*models.FixedSaving, error) {
	saving, err := s.GetFixedSavingByID(id)
	if err != nil {
		return nil, err
	}
	if saving.Status != models.FixedSavingStatusActive {
		return nil, ErrNotCancellable
	}

	if err := s.db.Model(saving).Update("status", models.FixedSavingStatusCancelled).Error; err != nil {
		return nil, fmt.Errorf("cancelling fixed saving: %w", err)
	}
	saving.Status = models.FixedSavingStatusCancelled

	s.log.Infof("fixed saving %d cancelled before maturity", id)
	return saving, nil
}

// GetFixedSavingStatistics aggregates the deposit book. MaturingSoon counts
// active deposits ending within the next 30 days.
func (s *FixedSavingService) GetFixedSavingStatistics() (*FixedSavingStatistics, error) {
	stats := &FixedSavingStatistics{
		ActiveAmount:    decimal.Zero,
		ProjectedPayout: decimal.Zero,
	}

	if err := s.db.Model(&models.FixedSaving{}).Count(&stats.TotalSavings).Error; err != nil {
		return nil, fmt.Errorf("counting fixed savings: %w", err)
	}

	var active []models.FixedSaving
	if err := s.db.Select("amount", "maturity_amount", "end_date").
		Where("status = ?", models.FixedSavingStatusActive).
		Find(&active).Error; err != nil {
		return nil, fmt.Errorf("loading active savings: %w", err)
	}

	soonCutoff := time.Now().AddDate(0, 0, 30)
	for _, saving := range active {
		stats.ActiveSavings++
		stats.ActiveAmount = stats.ActiveAmount.Add(saving.Amount)
		stats.ProjectedPayout = stats.ProjectedPayout.Add(saving.MaturityAmount)
		if saving.EndDate.Before(soonCutoff) {
			stats.MaturingSoon++
		}
	}

	return stats, nil
}

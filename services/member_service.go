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

// CreateMemberDTO carries the data for registering a new member
type CreateMemberDTO struct {
	Name        string          `json:"name" validate:"required,min=2,max=100"`
	DNI         string          `json:"dni" validate:"required,numeric,min=8,max=12"`
	Shares      int             `json:"shares" validate:"gte=0"`
	Guarantee   decimal.Decimal `json:"guarantee"`
	CreditScore int             `json:"creditScore" validate:"omitempty,gte=1,lte=90"`
	Phone       string          `json:"phone" validate:"omitempty,max=20"`
	Email       string          `json:"email" validate:"omitempty,email"`
	Address     string          `json:"address"`
}

// UpdateMemberDTO carries partial updates; nil fields are left unchanged
type UpdateMemberDTO struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=100"`
	DNI         *string          `json:"dni" validate:"omitempty,numeric,min=8,max=12"`
	Shares      *int             `json:"shares" validate:"omitempty,gte=0"`
	Guarantee   *decimal.Decimal `json:"guarantee"`
	CreditScore *int             `json:"creditScore" validate:"omitempty,gte=1,lte=90"`
	Phone       *string          `json:"phone" validate:"omitempty,max=20"`
	Email       *string          `json:"email" validate:"omitempty,email"`
	Address     *string          `json:"address"`
}

// MemberFilters narrows and orders the member listing
type MemberFilters struct {
	Page         int
	Limit        int
	Search       string
	CreditRating string
	IsActive     *bool
	SortBy       string
	SortOrder    string
}

// MemberDetail is a member together with the derived capacity block
type MemberDetail struct {
	models.Member
	PaymentCapacity utils.PaymentCapacity `json:"paymentCapacity"`
}

// MemberStatistics aggregates the active membership
type MemberStatistics struct {
	TotalMembers    int64                        `json:"totalMembers"`
	MembersByRating map[models.CreditRating]int64 `json:"membersByRating"`
	TotalShares     int64                        `json:"totalShares"`
	TotalGuarantee  decimal.Decimal              `json:"totalGuarantee"`
}

// MemberService manages the member registry
type MemberService struct {
	db        *gorm.DB
	validator *validator.Validate
	settings  *SettingsService
	log       *logrus.Logger
}

// NewMemberService creates a new MemberService instance
func NewMemberService(db *gorm.DB, settings *SettingsService, log *logrus.Logger) *MemberService {
	return &MemberService{
		db:        db,
		validator: validator.New(),
		settings:  settings,
		log:       log,
	}
}

// CreateMember registers a member. The credit rating is denormalized from
// the score at write time so the two never diverge.
func (s *MemberService) CreateMember(dto CreateMemberDTO) (*models.Member, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	// DNI must be unique across the registry
	var existing models.Member
	if err := s.db.Where("dni = ?", dto.DNI).First(&existing).Error; err == nil {
		return nil, ErrDuplicateDNI
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking DNI uniqueness: %w", err)
	}

	score := dto.CreditScore
	if score == 0 {
		score = 50
	}

	member := &models.Member{
		Name:         dto.Name,
		DNI:          dto.DNI,
		Shares:       dto.Shares,
		Guarantee:    dto.Guarantee,
		CreditScore:  score,
		CreditRating: utils.CreditRatingFor(score),
		Phone:        dto.Phone,
		Email:        dto.Email,
		Address:      dto.Address,
		IsActive:     true,
	}

	if err := s.db.Create(member).Error; err != nil {
		return nil, fmt.Errorf("creating member: %w", err)
	}

	s.log.Infof("member created: %s (DNI %s)", member.Name, member.DNI)
	return member, nil
}

// GetMemberByID returns a member with loans, recent requests and the derived
// payment-capacity block.
func (s *MemberService) GetMemberByID(id uint) (*MemberDetail, error) {
	var member models.Member
	err := s.db.
		Preload("Loans", func(db *gorm.DB) *gorm.DB {
			return db.Where("status <> ?", models.LoanStatusCancelled).Order("created_at DESC")
		}).
		Preload("LoanRequests", func(db *gorm.DB) *gorm.DB {
			return db.Order("request_date DESC").Limit(5)
		}).
		Preload("FixedSavings", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&member, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("loading member: %w", err)
	}

	existingDebt := decimal.Zero
	for _, loan := range member.Loans {
		if loan.Status.Payable() {
			existingDebt = existingDebt.Add(loan.RemainingAmount)
		}
	}

	capacity := utils.CalculatePaymentCapacity(member.Shares, member.Guarantee, existingDebt, s.settings.ShareValue())

	return &MemberDetail{Member: member, PaymentCapacity: capacity}, nil
}

// GetMembers lists members with filtering and pagination
func (s *MemberService) GetMembers(filters MemberFilters) (*PaginatedResponse, error) {
	offset, limit, page := paginationParams(filters.Page, filters.Limit)

	query := s.db.Model(&models.Member{})

	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("name LIKE ? OR dni LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	}
	if filters.CreditRating != "" {
		query = query.Where("credit_rating = ?", filters.CreditRating)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("counting members: %w", err)
	}

	sortBy := filters.SortBy
	switch sortBy {
	case "name", "dni", "shares", "credit_score", "created_at":
	default:
		sortBy = "name"
	}
	sortOrder := "ASC"
	if filters.SortOrder == "DESC" {
		sortOrder = "DESC"
	}

	var members []models.Member
	if err := query.Order(sortBy + " " + sortOrder).Limit(limit).Offset(offset).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	return paginatedResponse(members, totalCount, page, limit), nil
}

// UpdateMember applies a partial update. A changed score recomputes the
// stored rating; a changed DNI is re-checked for uniqueness.
func (s *MemberService) UpdateMember(id uint, dto UpdateMemberDTO) (*MemberDetail, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	var member models.Member
	if err := s.db.First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("loading member: %w", err)
	}

	if dto.DNI != nil && *dto.DNI != member.DNI {
		var existing models.Member
		if err := s.db.Where("dni = ? AND id <> ?", *dto.DNI, id).First(&existing).Error; err == nil {
			return nil, ErrDuplicateDNI
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("checking DNI uniqueness: %w", err)
		}
		member.DNI = *dto.DNI
	}

	if dto.Name != nil {
		member.Name = *dto.Name
	}
	if dto.Shares != nil {
		member.Shares = *dto.Shares
	}
	if dto.Guarantee != nil {
		member.Guarantee = *dto.Guarantee
	}
	if dto.CreditScore != nil {
		member.CreditScore = *dto.CreditScore
		member.CreditRating = utils.CreditRatingFor(*dto.CreditScore)
	}
	if dto.Phone != nil {
		member.Phone = *dto.Phone
	}
	if dto.Email != nil {
		member.Email = *dto.Email
	}
	if dto.Address != nil {
		member.Address = *dto.Address
	}

	if err := s.db.Save(&member).Error; err != nil {
		return nil, fmt.Errorf("updating member: %w", err)
	}

	return s.GetMemberByID(id)
}

// DeactivateMember soft-deletes a member. Blocked while the member still has
// current or overdue loans; a linked login account is disabled as well.
func (s *MemberService) DeactivateMember(id uint) error {
	var member models.Member
	if err := s.db.Preload("Loans").First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("loading member: %w", err)
	}

	for _, loan := range member.Loans {
		if loan.Status.Payable() {
			return ErrMemberHasLoans
		}
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("starting transaction: %w", tx.Error)
	}

	if err := tx.Model(&models.Member{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("deactivating member: %w", err)
	}

	// Disable the linked login account, if any
	if err := tx.Model(&models.User{}).Where("member_id = ?", id).Update("is_active", false).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("deactivating linked user: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("committing deactivation: %w", err)
	}

	s.log.Infof("member %d deactivated", id)
	return nil
}

// GetMemberStatistics aggregates the active membership
func (s *MemberService) GetMemberStatistics() (*MemberStatistics, error) {
	stats := &MemberStatistics{
		MembersByRating: make(map[models.CreditRating]int64),
		TotalGuarantee:  decimal.Zero,
	}

	if err := s.db.Model(&models.Member{}).Where("is_active = ?", true).Count(&stats.TotalMembers).Error; err != nil {
		return nil, fmt.Errorf("counting members: %w", err)
	}

	var byRating []struct {
		CreditRating models.CreditRating
		Count        int64
	}
	if err := s.db.Model(&models.Member{}).
		Select("credit_rating, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("credit_rating").
		Scan(&byRating).Error; err != nil {
		return nil, fmt.Errorf("grouping members by rating: %w", err)
	}
	for _, row := range byRating {
		stats.MembersByRating[row.CreditRating] = row.Count
	}

	var members []models.Member
	if err := s.db.Select("shares", "guarantee").Where("is_active = ?", true).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("loading member totals: %w", err)
	}
	for _, m := range members {
		stats.TotalShares += int64(m.Shares)
		stats.TotalGuarantee = stats.TotalGuarantee.Add(m.Guarantee)
	}

	return stats, nil
}

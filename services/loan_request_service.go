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

// CreateLoanRequestDTO carries a member's loan application
type CreateLoanRequestDTO struct {
	MemberID        uint            `json:"memberId" validate:"required"`
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	Purpose         string          `json:"purpose" validate:"required,min=5,max=500"`
	Notes           string          `json:"notes"`
}

// ApproveLoanRequestDTO carries the reviewer's approval terms. A zero rate
// falls back to the configured default; zero weeks fall back to the default
// term.
type ApproveLoanRequestDTO struct {
	ReviewedBy          string          `json:"reviewedBy" validate:"required,max=100"`
	MonthlyInterestRate decimal.Decimal `json:"monthlyInterestRate"`
	TotalWeeks          int             `json:"totalWeeks" validate:"omitempty,gte=1,lte=260"`
	Notes               string          `json:"notes"`
}

// RejectLoanRequestDTO carries the reviewer's rejection
type RejectLoanRequestDTO struct {
	ReviewedBy string `json:"reviewedBy" validate:"required,max=100"`
	Notes      string `json:"notes" validate:"required,min=5"`
}

// LoanRequestFilters narrows and orders the request listing
type LoanRequestFilters struct {
	Page      int
	Limit     int
	MemberID  uint
	Status    string
	SortOrder string
}

// LoanRequestDetail is a request together with the capacity decision block
// computed against the member's current balance sheet.
type LoanRequestDetail struct {
	models.LoanRequest
	PaymentCapacity utils.PaymentCapacity `json:"paymentCapacity"`
	WithinCapacity  bool                  `json:"withinCapacity"`
}

// LoanRequestStatistics aggregates the request pipeline
type LoanRequestStatistics struct {
	TotalRequests    int64                                   `json:"totalRequests"`
	RequestsByStatus map[models.LoanRequestStatus]int64      `json:"requestsByStatus"`
	PendingAmount    decimal.Decimal                         `json:"pendingAmount"`
	ApprovalRate     decimal.Decimal                         `json:"approvalRate"`
}

const defaultLoanTermWeeks = 24

// LoanRequestService manages the application and review workflow. Approval
// creates the loan and flips the request in a single transaction.
type LoanRequestService struct {
	db        *gorm.DB
	validator *validator.Validate
	loans     *LoanService
	settings  *SettingsService
	email     *EmailService
	log       *logrus.Logger
}

// NewLoanRequestService creates a new LoanRequestService instance
func NewLoanRequestService(db *gorm.DB, loans *LoanService, settings *SettingsService, email *EmailService, log *logrus.Logger) *LoanRequestService {
	return &LoanRequestService{
		db:        db,
		validator: validator.New(),
		loans:     loans,
		settings:  settings,
		email:     email,
		log:       log,
	}
}

// CreateLoanRequest files a new application. Inactive members cannot apply
// and a member may hold at most one pending request at a time.
func (s *LoanRequestService) CreateLoanRequest(dto CreateLoanRequestDTO) (*LoanRequestDetail, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}
	if !dto.RequestedAmount.IsPositive() {
		return nil, errors.New("requested amount must be greater than 0")
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

	var pending int64
	err := s.db.Model(&models.LoanRequest{}).
		Where("member_id = ? AND status = ?", dto.MemberID, models.LoanRequestStatusPending).
		Count(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("checking pending requests: %w", err)
	}
	if pending > 0 {
		return nil, ErrDuplicatePendingRequest
	}

	request := &models.LoanRequest{
		MemberID:        dto.MemberID,
		RequestedAmount: dto.RequestedAmount,
		Purpose:         dto.Purpose,
		Status:          models.LoanRequestStatusPending,
		RequestDate:     time.Now(),
		Notes:           dto.Notes,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("creating loan request: %w", err)
	}

	s.log.Infof("loan request %d filed by member %d for %s", request.ID, member.ID, request.RequestedAmount)
	return s.GetLoanRequestByID(request.ID)
}

// GetLoanRequestByID returns a request with its member, any resulting loan
// and the capacity decision computed against the member's current state. The
// decision block is advisory here; the binding check runs at approval time.
func (s *LoanRequestService) GetLoanRequestByID(id uint) (*LoanRequestDetail, error) {
	var request models.LoanRequest
	err := s.db.Preload("Member").Preload("Loan").First(&request, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanRequestNotFound
		}
		return nil, fmt.Errorf("loading loan request: %w", err)
	}

	existingDebt, err := s.loans.outstandingDebt(s.db, request.MemberID)
	if err != nil {
		return nil, err
	}

	capacity := utils.CalculatePaymentCapacity(
		request.Member.Shares, request.Member.Guarantee, existingDebt, s.settings.ShareValue())

	return &LoanRequestDetail{
		LoanRequest:     request,
		PaymentCapacity: capacity,
		WithinCapacity:  capacity.Allows(request.RequestedAmount),
	}, nil
}

// GetLoanRequests lists requests with filtering and pagination
func (s *LoanRequestService) GetLoanRequests(filters LoanRequestFilters) (*PaginatedResponse, error) {
	offset, limit, page := paginationParams(filters.Page, filters.Limit)

	query := s.db.Model(&models.LoanRequest{})
	if filters.MemberID != 0 {
		query = query.Where("member_id = ?", filters.MemberID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("counting loan requests: %w", err)
	}

	sortOrder := "DESC"
	if filters.SortOrder == "ASC" {
		sortOrder = "ASC"
	}

	var requests []models.LoanRequest
	if err := query.Preload("Member").
		Order("request_date " + sortOrder).
		Limit(limit).Offset(offset).
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("listing loan requests: %w", err)
	}

	return paginatedResponse(requests, totalCount, page, limit), nil
}

// GetPendingLoanRequests returns the review queue, oldest application first
func (s *LoanRequestService) GetPendingLoanRequests() ([]models.LoanRequest, error) {
	var requests []models.LoanRequest
	err := s.db.Where("status = ?", models.LoanRequestStatusPending).
		Preload("Member").
		Order("request_date ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("loading pending requests: %w", err)
	}
	return requests, nil
}

// ApproveLoanRequest approves a pending request and originates the loan. The
// pending check, the capacity re-check and both writes run in one
// transaction, so a request can never be approved twice and an approval can
// never leave a request flipped without its loan.
func (s *LoanRequestService) ApproveLoanRequest(id uint, dto ApproveLoanRequestDTO) (*LoanRequestDetail, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	rate := dto.MonthlyInterestRate
	if rate.IsZero() {
		rate = s.settings.DefaultInterestRate()
	}
	if rate.IsNegative() {
		return nil, errors.New("monthly interest rate cannot be negative")
	}
	totalWeeks := dto.TotalWeeks
	if totalWeeks == 0 {
		totalWeeks = defaultLoanTermWeeks
	}
	shareValue := s.settings.ShareValue()

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("starting transaction: %w", tx.Error)
	}

	var request models.LoanRequest
	if err := tx.First(&request, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanRequestNotFound
		}
		return nil, fmt.Errorf("loading loan request: %w", err)
	}

	if request.Status != models.LoanRequestStatusPending {
		tx.Rollback()
		return nil, ErrRequestNotPending
	}

	loan, err := s.loans.CreateLoanTx(tx, CreateLoanDTO{
		MemberID:            request.MemberID,
		LoanRequestID:       &request.ID,
		OriginalAmount:      request.RequestedAmount,
		MonthlyInterestRate: rate,
		TotalWeeks:          totalWeeks,
		ApprovedBy:          dto.ReviewedBy,
		Notes:               dto.Notes,
	}, shareValue)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.LoanRequestStatusApproved,
		"reviewed_by": dto.ReviewedBy,
		"review_date": now,
	}
	if dto.Notes != "" {
		updates["notes"] = dto.Notes
	}
	if err := tx.Model(&request).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("updating loan request: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("committing approval: %w", err)
	}

	s.log.Infof("loan request %d approved by %s, loan %d created", id, dto.ReviewedBy, loan.ID)
	s.notifyDecision(request.MemberID, id, true)
	return s.GetLoanRequestByID(id)
}

// RejectLoanRequest rejects a pending request with a mandatory reason
func (s *LoanRequestService) RejectLoanRequest(id uint, dto RejectLoanRequestDTO) (*LoanRequestDetail, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	var request models.LoanRequest
	if err := s.db.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanRequestNotFound
		}
		return nil, fmt.Errorf("loading loan request: %w", err)
	}

	if request.Status != models.LoanRequestStatusPending {
		return nil, ErrRequestNotPending
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.LoanRequestStatusRejected,
		"reviewed_by": dto.ReviewedBy,
		"review_date": now,
		"notes":       dto.Notes,
	}
	if err := s.db.Model(&request).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("rejecting loan request: %w", err)
	}

	s.log.Infof("loan request %d rejected by %s", id, dto.ReviewedBy)
	s.notifyDecision(request.MemberID, id, false)
	return s.GetLoanRequestByID(id)
}

// notifyDecision emails the member about the review outcome. Failures are
// logged and swallowed.
func (s *LoanRequestService) notifyDecision(memberID, requestID uint, approved bool) {
	var member models.Member
	if err := s.db.First(&member, memberID).Error; err != nil || member.Email == "" {
		return
	}
	if err := s.email.SendLoanRequestDecision(member.Email, requestID, approved); err != nil {
		s.log.Warnf("sending request decision notification: %v", err)
	}
}

// GetLoanRequestStatistics aggregates the request pipeline
func (s *LoanRequestService) GetLoanRequestStatistics() (*LoanRequestStatistics, error) {
	stats := &LoanRequestStatistics{
		RequestsByStatus: make(map[models.LoanRequestStatus]int64),
		PendingAmount:    decimal.Zero,
		ApprovalRate:     decimal.Zero,
	}

	if err := s.db.Model(&models.LoanRequest{}).Count(&stats.TotalRequests).Error; err != nil {
		return nil, fmt.Errorf("counting loan requests: %w", err)
	}

	var byStatus []struct {
		Status models.LoanRequestStatus
		Count  int64
	}
	if err := s.db.Model(&models.LoanRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("grouping requests by status: %w", err)
	}
	for _, row := range byStatus {
		stats.RequestsByStatus[row.Status] = row.Count
	}

	var pendingRequests []models.LoanRequest
	if err := s.db.Select("requested_amount").
		Where("status = ?", models.LoanRequestStatusPending).
		Find(&pendingRequests).Error; err != nil {
		return nil, fmt.Errorf("loading pending amounts: %w", err)
	}
	for _, req := range pendingRequests {
		stats.PendingAmount = stats.PendingAmount.Add(req.RequestedAmount)
	}

	decided := stats.RequestsByStatus[models.LoanRequestStatusApproved] +
		stats.RequestsByStatus[models.LoanRequestStatusRejected]
	if decided > 0 {
		stats.ApprovalRate = decimal.NewFromInt(stats.RequestsByStatus[models.LoanRequestStatusApproved]).
			Div(decimal.NewFromInt(decided)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return stats, nil
}

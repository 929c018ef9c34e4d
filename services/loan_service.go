package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"banquito/models"
	"banquito/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateLoanDTO carries the data for originating a loan
type CreateLoanDTO struct {
	MemberID            uint            `json:"memberId" validate:"required"`
	LoanRequestID       *uint           `json:"loanRequestId"`
	OriginalAmount      decimal.Decimal `json:"originalAmount"`
	MonthlyInterestRate decimal.Decimal `json:"monthlyInterestRate"`
	TotalWeeks          int             `json:"totalWeeks" validate:"required,gte=1,lte=260"`
	StartDate           time.Time       `json:"startDate"`
	ApprovedBy          string          `json:"approvedBy" validate:"omitempty,max=100"`
	Notes               string          `json:"notes"`
}

// RecordPaymentDTO carries the data for one weekly installment
type RecordPaymentDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	WeekNumber  int             `json:"weekNumber" validate:"required,gte=1"`
	LateFee     decimal.Decimal `json:"lateFee"`
	PaymentDate *time.Time      `json:"paymentDate"`
	Notes       string          `json:"notes"`
	CreatedBy   string          `json:"createdBy" validate:"omitempty,max=100"`
}

// UpdateLoanDTO carries the mutable fields of a non-terminal loan
type UpdateLoanDTO struct {
	ApprovedBy *string `json:"approvedBy" validate:"omitempty,max=100"`
	Notes      *string `json:"notes"`
}

// LoanFilters narrows and orders the loan listing
type LoanFilters struct {
	Page      int
	Limit     int
	MemberID  uint
	Status    string
	SortBy    string
	SortOrder string
}

// LoanDetail is a loan with the lazily derived overdue information
type LoanDetail struct {
	models.Loan
	WeeksElapsed  int  `json:"weeksElapsed"`
	IsOverdue     bool `json:"isOverdue"`
	PaymentsCount int  `json:"paymentsCount"`
}

// ScheduleEntry is one row of the derived payment schedule. The schedule is
// never persisted; it is recomputed from loan state plus payment records.
type ScheduleEntry struct {
	WeekNumber     int              `json:"weekNumber"`
	DueDate        time.Time        `json:"dueDate"`
	ExpectedAmount decimal.Decimal  `json:"expectedAmount"`
	Payment        *models.Payment  `json:"payment,omitempty"`
	Status         string           `json:"status"`
}

// ScheduleResponse pairs a loan summary with its schedule
type ScheduleResponse struct {
	Loan     LoanSummary     `json:"loan"`
	Schedule []ScheduleEntry `json:"schedule"`
}

// LoanSummary is the condensed loan header returned with schedules
type LoanSummary struct {
	ID              uint              `json:"id"`
	OriginalAmount  decimal.Decimal   `json:"originalAmount"`
	RemainingAmount decimal.Decimal   `json:"remainingAmount"`
	WeeklyPayment   decimal.Decimal   `json:"weeklyPayment"`
	TotalWeeks      int               `json:"totalWeeks"`
	CurrentWeek     int               `json:"currentWeek"`
	Status          models.LoanStatus `json:"status"`
}

// OverdueLoan is a loan in arrears with how far behind it is
type OverdueLoan struct {
	models.Loan
	WeeksOverdue int `json:"weeksOverdue"`
}

// LoanStatistics aggregates the loan book
type LoanStatistics struct {
	TotalLoans        int64                                 `json:"totalLoans"`
	LoansByStatus     map[models.LoanStatus]LoanStatusSlice `json:"loansByStatus"`
	ActiveLoansAmount decimal.Decimal                       `json:"activeLoansAmount"`
	OverdueLoans      int64                                 `json:"overdueLoans"`
}

// LoanStatusSlice is one status bucket of the loan statistics
type LoanStatusSlice struct {
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// LoanService manages the loan lifecycle: origination, payments, schedules
// and the lazy overdue derivation.
type LoanService struct {
	db        *gorm.DB
	validator *validator.Validate
	settings  *SettingsService
	email     *EmailService
	log       *logrus.Logger
}

// NewLoanService creates a new LoanService instance
func NewLoanService(db *gorm.DB, settings *SettingsService, email *EmailService, log *logrus.Logger) *LoanService {
	return &LoanService{
		db:        db,
		validator: validator.New(),
		settings:  settings,
		email:     email,
		log:       log,
	}
}

// CreateLoan originates a loan for a member after re-running the capacity
// gate. The whole operation runs in one transaction.
func (s *LoanService) CreateLoan(dto CreateLoanDTO) (*LoanDetail, error) {
	shareValue := s.settings.ShareValue()

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("starting transaction: %w", tx.Error)
	}

	loan, err := s.CreateLoanTx(tx, dto, shareValue)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("committing loan creation: %w", err)
	}

	return s.GetLoanByID(loan.ID)
}

// CreateLoanTx originates a loan inside the caller's transaction. The loan
// request workflow uses this to keep the request flip and the loan insert
// atomic. The capacity check runs against a fresh re-query of the member's
// outstanding debt inside the same transaction.
func (s *LoanService) CreateLoanTx(tx *gorm.DB, dto CreateLoanDTO, shareValue decimal.Decimal) (*models.Loan, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}
	if !dto.OriginalAmount.IsPositive() {
		return nil, errors.New("original amount must be greater than 0")
	}
	if dto.MonthlyInterestRate.IsNegative() {
		return nil, errors.New("monthly interest rate cannot be negative")
	}

	var member models.Member
	if err := tx.First(&member, dto.MemberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("loading member: %w", err)
	}
	if !member.IsActive {
		return nil, ErrMemberInactive
	}

	existingDebt, err := s.outstandingDebt(tx, member.ID)
	if err != nil {
		return nil, err
	}

	capacity := utils.CalculatePaymentCapacity(member.Shares, member.Guarantee, existingDebt, shareValue)
	if !capacity.Allows(dto.OriginalAmount) {
		return nil, ErrCapacityExceeded
	}

	startDate := dto.StartDate
	if startDate.IsZero() {
		startDate = time.Now()
	}

	loan := &models.Loan{
		MemberID:            member.ID,
		LoanRequestID:       dto.LoanRequestID,
		OriginalAmount:      dto.OriginalAmount,
		RemainingAmount:     dto.OriginalAmount,
		MonthlyInterestRate: dto.MonthlyInterestRate,
		WeeklyPayment:       utils.WeeklyPayment(dto.OriginalAmount, dto.MonthlyInterestRate, dto.TotalWeeks),
		TotalWeeks:          dto.TotalWeeks,
		CurrentWeek:         0,
		Status:              models.LoanStatusCurrent,
		StartDate:           startDate,
		DueDate:             utils.DueDate(startDate, dto.TotalWeeks),
		ApprovedBy:          dto.ApprovedBy,
		Notes:               dto.Notes,
	}

	if err := tx.Create(loan).Error; err != nil {
		return nil, fmt.Errorf("creating loan: %w", err)
	}

	s.log.Infof("loan %d created for member %d: %s over %d weeks", loan.ID, member.ID, loan.OriginalAmount, loan.TotalWeeks)
	return loan, nil
}

// outstandingDebt sums remainingAmount over the member's current and
// overdue loans.
func (s *LoanService) outstandingDebt(tx *gorm.DB, memberID uint) (decimal.Decimal, error) {
	var loans []models.Loan
	err := tx.Where("member_id = ? AND status IN ?", memberID,
		[]models.LoanStatus{models.LoanStatusCurrent, models.LoanStatusOverdue}).
		Find(&loans).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading outstanding loans: %w", err)
	}

	debt := decimal.Zero
	for _, loan := range loans {
		debt = debt.Add(loan.RemainingAmount)
	}
	return debt, nil
}

// GetLoanByID returns a loan with its member, originating request and
// payments. Overdue information is derived lazily from the wall clock: a
// loan that fell behind without receiving payments still reads as "current"
// in storage, so IsOverdue is computed here on every read.
func (s *LoanService) GetLoanByID(id uint) (*LoanDetail, error) {
	var loan models.Loan
	err := s.db.
		Preload("Member").
		Preload("LoanRequest").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date DESC")
		}).
		First(&loan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("loading loan: %w", err)
	}

	weeksElapsed := utils.WeeksElapsed(loan.StartDate, time.Now())
	return &LoanDetail{
		Loan:          loan,
		WeeksElapsed:  weeksElapsed,
		IsOverdue:     weeksElapsed > loan.CurrentWeek && loan.Status == models.LoanStatusCurrent,
		PaymentsCount: len(loan.Payments),
	}, nil
}

// GetLoans lists loans with filtering and pagination
func (s *LoanService) GetLoans(filters LoanFilters) (*PaginatedResponse, error) {
	offset, limit, page := paginationParams(filters.Page, filters.Limit)

	query := s.db.Model(&models.Loan{})
	if filters.MemberID != 0 {
		query = query.Where("member_id = ?", filters.MemberID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("counting loans: %w", err)
	}

	sortBy := filters.SortBy
	switch sortBy {
	case "start_date", "due_date", "original_amount", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if filters.SortOrder == "ASC" {
		sortOrder = "ASC"
	}

	var loans []models.Loan
	if err := query.Preload("Member").
		Order(sortBy + " " + sortOrder).
		Limit(limit).Offset(offset).
		Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}

	return paginatedResponse(loans, totalCount, page, limit), nil
}

// UpdateLoan edits the annotation fields of a loan. Paid and cancelled loans
// are immutable.
func (s *LoanService) UpdateLoan(id uint, dto UpdateLoanDTO) (*LoanDetail, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	var loan models.Loan
	if err := s.db.First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("loading loan: %w", err)
	}

	if loan.Status.Terminal() {
		return nil, ErrLoanImmutable
	}

	if dto.ApprovedBy != nil {
		loan.ApprovedBy = *dto.ApprovedBy
	}
	if dto.Notes != nil {
		loan.Notes = *dto.Notes
	}

	if err := s.db.Save(&loan).Error; err != nil {
		return nil, fmt.Errorf("updating loan: %w", err)
	}
	return s.GetLoanByID(id)
}

// CancelLoan marks a current or overdue loan as cancelled. Terminal.
func (s *LoanService) CancelLoan(id uint) (*LoanDetail, error) {
	var loan models.Loan
	if err := s.db.First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("loading loan: %w", err)
	}

	if !loan.Status.Payable() {
		return nil, ErrLoanImmutable
	}

	if err := s.db.Model(&loan).Update("status", models.LoanStatusCancelled).Error; err != nil {
		return nil, fmt.Errorf("cancelling loan: %w", err)
	}

	s.log.Infof("loan %d cancelled", id)
	return s.GetLoanByID(id)
}

// RecordPayment registers one weekly installment and updates the loan
// balance and status atomically. The duplicate-week constraint is checked
// inside the transaction and additionally enforced by the composite unique
// index on (loan_id, week_number).
func (s *LoanService) RecordPayment(loanID uint, dto RecordPaymentDTO) (*models.Payment, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}
	if !dto.Amount.IsPositive() {
		return nil, errors.New("payment amount must be greater than 0")
	}
	if dto.LateFee.IsNegative() {
		return nil, errors.New("late fee cannot be negative")
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("starting transaction: %w", tx.Error)
	}

	var loan models.Loan
	if err := tx.Preload("Member").First(&loan, loanID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("loading loan: %w", err)
	}

	if !loan.Status.Payable() {
		tx.Rollback()
		return nil, ErrLoanNotPayable
	}

	// Re-check the duplicate-week constraint inside the transaction
	var existing int64
	if err := tx.Model(&models.Payment{}).
		Where("loan_id = ? AND week_number = ?", loanID, dto.WeekNumber).
		Count(&existing).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("checking existing payments: %w", err)
	}
	if existing > 0 {
		tx.Rollback()
		return nil, ErrDuplicatePayment
	}

	paymentDate := time.Now()
	if dto.PaymentDate != nil {
		paymentDate = *dto.PaymentDate
	}
	createdBy := dto.CreatedBy
	if createdBy == "" {
		createdBy = "system"
	}

	payment := &models.Payment{
		LoanID:      loanID,
		Amount:      dto.Amount,
		WeekNumber:  dto.WeekNumber,
		LateFee:     dto.LateFee,
		PaymentDate: paymentDate,
		Reference:   utils.PaymentReference(),
		Notes:       dto.Notes,
		CreatedBy:   createdBy,
	}
	if err := tx.Create(payment).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePayment
		}
		return nil, fmt.Errorf("creating payment: %w", err)
	}

	// Late fees are a surcharge; only the installment amount reduces the
	// principal balance.
	newRemaining := loan.RemainingAmount.Sub(dto.Amount)
	newCurrentWeek := loan.CurrentWeek
	if dto.WeekNumber > newCurrentWeek {
		newCurrentWeek = dto.WeekNumber
	}
	newStatus := utils.LoanStatusFor(newRemaining, newCurrentWeek, loan.StartDate, time.Now())
	if newRemaining.IsNegative() {
		newRemaining = decimal.Zero
	}

	updates := map[string]interface{}{
		"remaining_amount": newRemaining,
		"current_week":     newCurrentWeek,
		"status":           newStatus,
	}
	if err := tx.Model(&loan).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("updating loan balance: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("committing payment: %w", err)
	}

	if newStatus == models.LoanStatusPaid && loan.Member != nil && loan.Member.Email != "" {
		// Notification failures never fail the payment
		if err := s.email.SendLoanPaidNotification(loan.Member.Email, loan.ID); err != nil {
			s.log.Warnf("sending loan paid notification: %v", err)
		}
	}

	s.log.Infof("payment %s recorded for loan %d week %d", payment.Reference, loanID, dto.WeekNumber)
	return payment, nil
}

// GetLoanPayments returns all payments of a loan, newest first
func (s *LoanService) GetLoanPayments(loanID uint) ([]models.Payment, error) {
	var loan models.Loan
	if err := s.db.First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("loading loan: %w", err)
	}

	var payments []models.Payment
	if err := s.db.Where("loan_id = ?", loanID).Order("payment_date DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("loading payments: %w", err)
	}
	return payments, nil
}

// GetSchedule derives the full weekly payment schedule of a loan. Entry i is
// due (i-1)*7 days after the start date; entries are marked paid when a
// matching payment exists (only looked up with includePayments), pending up
// to the current week, upcoming beyond it.
func (s *LoanService) GetSchedule(loanID uint, includePayments bool) (*ScheduleResponse, error) {
	query := s.db
	if includePayments {
		query = query.Preload("Payments")
	}

	var loan models.Loan
	if err := query.First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("loading loan: %w", err)
	}

	paymentsByWeek := make(map[int]*models.Payment, len(loan.Payments))
	for i := range loan.Payments {
		paymentsByWeek[loan.Payments[i].WeekNumber] = &loan.Payments[i]
	}

	schedule := make([]ScheduleEntry, 0, loan.TotalWeeks)
	for week := 1; week <= loan.TotalWeeks; week++ {
		entry := ScheduleEntry{
			WeekNumber:     week,
			DueDate:        loan.StartDate.AddDate(0, 0, (week-1)*7),
			ExpectedAmount: loan.WeeklyPayment,
		}

		if payment, ok := paymentsByWeek[week]; ok && includePayments {
			entry.Payment = payment
			entry.Status = "paid"
		} else if week <= loan.CurrentWeek {
			entry.Status = "pending"
		} else {
			entry.Status = "upcoming"
		}

		schedule = append(schedule, entry)
	}

	return &ScheduleResponse{
		Loan: LoanSummary{
			ID:              loan.ID,
			OriginalAmount:  loan.OriginalAmount,
			RemainingAmount: loan.RemainingAmount,
			WeeklyPayment:   loan.WeeklyPayment,
			TotalWeeks:      loan.TotalWeeks,
			CurrentWeek:     loan.CurrentWeek,
			Status:          loan.Status,
		},
		Schedule: schedule,
	}, nil
}

// GetOverdueLoans lists loans stored as overdue, oldest due date first
func (s *LoanService) GetOverdueLoans() ([]OverdueLoan, error) {
	var loans []models.Loan
	err := s.db.Where("status = ?", models.LoanStatusOverdue).
		Preload("Member").
		Order("due_date ASC").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("loading overdue loans: %w", err)
	}

	now := time.Now()
	result := make([]OverdueLoan, 0, len(loans))
	for _, loan := range loans {
		result = append(result, OverdueLoan{
			Loan:         loan,
			WeeksOverdue: utils.WeeksElapsed(loan.DueDate, now),
		})
	}
	return result, nil
}

// GetLoanStatistics aggregates the loan book by status
func (s *LoanService) GetLoanStatistics() (*LoanStatistics, error) {
	stats := &LoanStatistics{
		LoansByStatus:     make(map[models.LoanStatus]LoanStatusSlice),
		ActiveLoansAmount: decimal.Zero,
	}

	if err := s.db.Model(&models.Loan{}).Count(&stats.TotalLoans).Error; err != nil {
		return nil, fmt.Errorf("counting loans: %w", err)
	}

	var loans []models.Loan
	if err := s.db.Select("status", "original_amount", "remaining_amount").Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("loading loan totals: %w", err)
	}

	for _, loan := range loans {
		bucket := stats.LoansByStatus[loan.Status]
		bucket.Count++
		bucket.TotalAmount = bucket.TotalAmount.Add(loan.OriginalAmount)
		stats.LoansByStatus[loan.Status] = bucket

		if loan.Status.Payable() {
			stats.ActiveLoansAmount = stats.ActiveLoansAmount.Add(loan.RemainingAmount)
		}
		if loan.Status == models.LoanStatusOverdue {
			stats.OverdueLoans++
		}
	}

	return stats, nil
}

// isUniqueViolation detects a unique-index violation across the drivers the
// service runs on (postgres in production, sqlite in tests).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusCurrent   LoanStatus = "current"
	LoanStatusOverdue   LoanStatus = "overdue"
	LoanStatusPaid      LoanStatus = "paid"
	LoanStatusCancelled LoanStatus = "cancelled"
)

// Terminal reports whether no further mutation of the loan is allowed.
func (s LoanStatus) Terminal() bool {
	return s == LoanStatusPaid || s == LoanStatusCancelled
}

// Payable reports whether payments may still be recorded.
func (s LoanStatus) Payable() bool {
	return s == LoanStatusCurrent || s == LoanStatusOverdue
}

// Loan represents a weekly-installment loan held by a member. WeeklyPayment
// is computed once at creation and fixed for the life of the loan.
type Loan struct {
	ID                  uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID            uint            `gorm:"column:member_id;not null;index" json:"memberId"`
	Member              *Member         `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	LoanRequestID       *uint           `gorm:"column:loan_request_id" json:"loanRequestId,omitempty"`
	LoanRequest         *LoanRequest    `gorm:"foreignKey:LoanRequestID" json:"loanRequest,omitempty"`
	OriginalAmount      decimal.Decimal `gorm:"column:original_amount;type:decimal(12,2);not null" json:"originalAmount"`
	RemainingAmount     decimal.Decimal `gorm:"column:remaining_amount;type:decimal(12,2);not null" json:"remainingAmount"`
	MonthlyInterestRate decimal.Decimal `gorm:"column:monthly_interest_rate;type:decimal(5,2);not null" json:"monthlyInterestRate"`
	WeeklyPayment       decimal.Decimal `gorm:"column:weekly_payment;type:decimal(10,2);not null" json:"weeklyPayment"`
	TotalWeeks          int             `gorm:"column:total_weeks;not null" json:"totalWeeks"`
	CurrentWeek         int             `gorm:"column:current_week;not null;default:0" json:"currentWeek"`
	Status              LoanStatus      `gorm:"column:status;type:varchar(20);not null;default:'current';index" json:"status"`
	StartDate           time.Time       `gorm:"column:start_date;not null;index" json:"startDate"`
	DueDate             time.Time       `gorm:"column:due_date;not null;index" json:"dueDate"`
	ApprovedBy          string          `gorm:"column:approved_by;size:100" json:"approvedBy,omitempty"`
	Notes               string          `gorm:"column:notes;type:text" json:"notes,omitempty"`
	Payments            []Payment       `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
	CreatedAt           time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Loan) TableName() string {
	return "loans"
}

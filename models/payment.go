package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment represents a single weekly installment received for a loan.
// Payments are append-only: at most one per (loan, week), never mutated.
type Payment struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID      uint            `gorm:"column:loan_id;not null;uniqueIndex:idx_payments_loan_week" json:"loanId"`
	Loan        *Loan           `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null" json:"amount"`
	WeekNumber  int             `gorm:"column:week_number;not null;uniqueIndex:idx_payments_loan_week" json:"weekNumber"`
	LateFee     decimal.Decimal `gorm:"column:late_fee;type:decimal(10,2);not null;default:0" json:"lateFee"`
	PaymentDate time.Time       `gorm:"column:payment_date;not null;index" json:"paymentDate"`
	Reference   string          `gorm:"column:reference;size:40;not null" json:"reference"`
	Notes       string          `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedBy   string          `gorm:"column:created_by;size:100;not null" json:"createdBy"`
	CreatedAt   time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Payment) TableName() string {
	return "payments"
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanRequestStatus represents the review state of a loan request
type LoanRequestStatus string

const (
	LoanRequestStatusPending  LoanRequestStatus = "pending"
	LoanRequestStatusApproved LoanRequestStatus = "approved"
	LoanRequestStatusRejected LoanRequestStatus = "rejected"
)

// LoanRequest represents a member's application for a loan. Only pending
// requests are mutable; a member may hold at most one pending request.
type LoanRequest struct {
	ID              uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID        uint              `gorm:"column:member_id;not null;index" json:"memberId"`
	Member          *Member           `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	RequestedAmount decimal.Decimal   `gorm:"column:requested_amount;type:decimal(12,2);not null" json:"requestedAmount"`
	Purpose         string            `gorm:"column:purpose;type:text;not null" json:"purpose"`
	Status          LoanRequestStatus `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	RequestDate     time.Time         `gorm:"column:request_date;not null" json:"requestDate"`
	ReviewedBy      string            `gorm:"column:reviewed_by;size:100" json:"reviewedBy,omitempty"`
	ReviewDate      *time.Time        `gorm:"column:review_date" json:"reviewDate,omitempty"`
	Notes           string            `gorm:"column:notes;type:text" json:"notes,omitempty"`
	Loan            *Loan             `gorm:"foreignKey:LoanRequestID" json:"loan,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (LoanRequest) TableName() string {
	return "loan_requests"
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FixedSavingStatus represents the lifecycle state of a fixed-term saving
type FixedSavingStatus string

const (
	FixedSavingStatusActive    FixedSavingStatus = "active"
	FixedSavingStatusMatured   FixedSavingStatus = "matured"
	FixedSavingStatusCancelled FixedSavingStatus = "cancelled"
)

// FixedSaving represents a fixed-term savings account. MaturityAmount is
// computed once at creation and never revised.
type FixedSaving struct {
	ID             uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID       uint              `gorm:"column:member_id;not null;index" json:"memberId"`
	Member         *Member           `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Amount         decimal.Decimal   `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	TermDays       int               `gorm:"column:term_days;not null" json:"termDays"`
	AnnualRate     decimal.Decimal   `gorm:"column:annual_rate;type:decimal(5,2);not null;default:2" json:"annualRate"`
	StartDate      time.Time         `gorm:"column:start_date;not null;index" json:"startDate"`
	EndDate        time.Time         `gorm:"column:end_date;not null;index" json:"endDate"`
	MaturityAmount decimal.Decimal   `gorm:"column:maturity_amount;type:decimal(12,2);not null" json:"maturityAmount"`
	Status         FixedSavingStatus `gorm:"column:status;type:varchar(20);not null;default:'active';index" json:"status"`
	Notes          string            `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt      time.Time         `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (FixedSaving) TableName() string {
	return "fixed_savings"
}

package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreditRating is the tier derived from a member's credit score.
type CreditRating string

const (
	CreditRatingGreen  CreditRating = "green"
	CreditRatingYellow CreditRating = "yellow"
	CreditRatingRed    CreditRating = "red"
)

// Member represents a cooperative member. The stored creditRating is
// denormalized at write time and must always match the creditScore.
type Member struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"column:name;not null;size:100" json:"name"`
	DNI         string          `gorm:"column:dni;unique;not null;size:20;index" json:"dni"`
	Shares      int             `gorm:"column:shares;not null;default:0" json:"shares"`
	Guarantee   decimal.Decimal `gorm:"column:guarantee;type:decimal(12,2);not null;default:0" json:"guarantee"`
	CreditScore int             `gorm:"column:credit_score;not null;default:50" json:"creditScore"`
	CreditRating CreditRating   `gorm:"column:credit_rating;type:varchar(10);not null;default:'yellow';index" json:"creditRating"`
	Phone       string          `gorm:"column:phone;size:20" json:"phone,omitempty"`
	Email       string          `gorm:"column:email;size:100" json:"email,omitempty"`
	Address     string          `gorm:"column:address;type:text" json:"address,omitempty"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true;index" json:"isActive"`
	Loans       []Loan          `gorm:"foreignKey:MemberID" json:"loans,omitempty"`
	LoanRequests []LoanRequest  `gorm:"foreignKey:MemberID" json:"loanRequests,omitempty"`
	FixedSavings []FixedSaving  `gorm:"foreignKey:MemberID" json:"fixedSavings,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Member) TableName() string {
	return "members"
}

// BeforeSave validates score bounds before any write
func (m *Member) BeforeSave(tx *gorm.DB) error {
	if m.CreditScore < 1 || m.CreditScore > 90 {
		return errors.New("credit score must be between 1 and 90")
	}
	if m.Shares < 0 {
		return errors.New("shares cannot be negative")
	}
	return nil
}

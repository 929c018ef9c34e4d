package services

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"banquito/database"
	"banquito/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dniCounter int64

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A fresh connection would see an empty in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// newTestLogger returns a logger that swallows output.
func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestServices wires the full service graph against one database. Email
// stays nil so no notifications leave the test process.
func newTestServices(t *testing.T) (*gorm.DB, *SettingsService, *MemberService, *LoanService, *LoanRequestService, *FixedSavingService) {
	t.Helper()

	db := newTestDB(t)
	log := newTestLogger()

	settings := NewSettingsService(db, log, nil)
	members := NewMemberService(db, settings, log)
	loans := NewLoanService(db, settings, nil, log)
	requests := NewLoanRequestService(db, loans, settings, nil, log)
	savings := NewFixedSavingService(db, settings, nil, log)

	return db, settings, members, loans, requests, savings
}

// createTestMember inserts a member directly, bypassing the service layer.
func createTestMember(t *testing.T, db *gorm.DB, shares int, guarantee decimal.Decimal) *models.Member {
	t.Helper()

	member := &models.Member{
		Name:         "Test Member",
		DNI:          fmt.Sprintf("%08d", 10000000+atomic.AddInt64(&dniCounter, 1)),
		Shares:       shares,
		Guarantee:    guarantee,
		CreditScore:  50,
		CreditRating: models.CreditRatingYellow,
		IsActive:     true,
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

// createTestLoan originates a loan through the service with a given start.
func createTestLoan(t *testing.T, loans *LoanService, memberID uint, amount string, weeks int, start time.Time) *LoanDetail {
	t.Helper()

	loan, err := loans.CreateLoan(CreateLoanDTO{
		MemberID:            memberID,
		OriginalAmount:      decimal.RequireFromString(amount),
		MonthlyInterestRate: decimal.RequireFromString("2.5"),
		TotalWeeks:          weeks,
		StartDate:           start,
	})
	require.NoError(t, err)
	return loan
}

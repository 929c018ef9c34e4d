package services

import (
	"testing"
	"time"

	"banquito/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileRequest(t *testing.T, requests *LoanRequestService, memberID uint, amount string) *LoanRequestDetail {
	t.Helper()
	request, err := requests.CreateLoanRequest(CreateLoanRequestDTO{
		MemberID:        memberID,
		RequestedAmount: decimal.RequireFromString(amount),
		Purpose:         "working capital for the family store",
	})
	require.NoError(t, err)
	return request
}

func TestCreateLoanRequest(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	member := createTestMember(t, db, 10, decimal.Zero)

	request := fileRequest(t, requests, member.ID, "300")

	assert.Equal(t, models.LoanRequestStatusPending, request.Status)
	assert.True(t, request.WithinCapacity)
	assert.False(t, request.RequestDate.IsZero())
}

func TestCreateLoanRequestOverCapacityStillFiles(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	// ceiling 500; filing is allowed, the gate binds at approval
	member := createTestMember(t, db, 10, decimal.Zero)

	request := fileRequest(t, requests, member.ID, "900")
	assert.Equal(t, models.LoanRequestStatusPending, request.Status)
	assert.False(t, request.WithinCapacity)
}

func TestCreateLoanRequestDuplicatePending(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	member := createTestMember(t, db, 10, decimal.Zero)

	fileRequest(t, requests, member.ID, "100")

	_, err := requests.CreateLoanRequest(CreateLoanRequestDTO{
		MemberID:        member.ID,
		RequestedAmount: decimal.NewFromInt(50),
		Purpose:         "a second application",
	})
	assert.ErrorIs(t, err, ErrDuplicatePendingRequest)
}

func TestCreateLoanRequestInactiveMember(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	member := createTestMember(t, db, 10, decimal.Zero)
	require.NoError(t, db.Model(member).Update("is_active", false).Error)

	_, err := requests.CreateLoanRequest(CreateLoanRequestDTO{
		MemberID:        member.ID,
		RequestedAmount: decimal.NewFromInt(100),
		Purpose:         "should be refused",
	})
	assert.ErrorIs(t, err, ErrMemberInactive)
}

func TestApproveLoanRequestCreatesLoan(t *testing.T) {
	db, _, _, loans, requests, _ := newTestServices(t)
	member := createTestMember(t, db, 10, decimal.Zero)
	request := fileRequest(t, requests, member.ID, "400")

	approved, err := requests.ApproveLoanRequest(request.ID, ApproveLoanRequestDTO{
		ReviewedBy: "treasurer",
		TotalWeeks: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, models.LoanRequestStatusApproved, approved.Status)
	assert.Equal(t, "treasurer", approved.ReviewedBy)
	require.NotNil(t, approved.ReviewDate)
	require.NotNil(t, approved.Loan)

	loan, err := loans.GetLoanByID(approved.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "400.00", loan.OriginalAmount.StringFixed(2))
	assert.Equal(t, 20, loan.TotalWeeks)
	require.NotNil(t, loan.LoanRequestID)
	assert.Equal(t, request.ID, *loan.LoanRequestID)
	// Omitted rate falls back to the configured default
	assert.Equal(t, "2.50", loan.MonthlyInterestRate.StringFixed(2))
}

func TestApproveLoanRequestNotPending(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	member := createTestMember(t, db, 10, decimal.Zero)
	request := fileRequest(t, requests, member.ID, "100")

	_, err := requests.ApproveLoanRequest(request.ID, ApproveLoanRequestDTO{ReviewedBy: "treasurer"})
	require.NoError(t, err)

	// A second approval must fail and must not create a second loan
	_, err = requests.ApproveLoanRequest(request.ID, ApproveLoanRequestDTO{ReviewedBy: "treasurer"})
	assert.ErrorIs(t, err, ErrRequestNotPending)

	var loanCount int64
	require.NoError(t, db.Model(&models.Loan{}).Count(&loanCount).Error)
	assert.Equal(t, int64(1), loanCount)
}

func TestApproveLoanRequestCapacityRecheck(t *testing.T) {
	db, _, _, loans, requests, _ := newTestServices(t)
	// ceiling 500
	member := createTestMember(t, db, 10, decimal.Zero)
	request := fileRequest(t, requests, member.ID, "400")

	// Debt taken on after filing shrinks what approval can grant
	createTestLoan(t, loans, member.ID, "300", 20, time.Now())

	_, err := requests.ApproveLoanRequest(request.ID, ApproveLoanRequestDTO{ReviewedBy: "treasurer"})
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// The failed approval leaves the request pending and the book unchanged
	reloaded, err := requests.GetLoanRequestByID(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanRequestStatusPending, reloaded.Status)

	var loanCount int64
	require.NoError(t, db.Model(&models.Loan{}).Count(&loanCount).Error)
	assert.Equal(t, int64(1), loanCount)
}

func TestRejectLoanRequest(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	member := createTestMember(t, db, 10, decimal.Zero)
	request := fileRequest(t, requests, member.ID, "100")

	rejected, err := requests.RejectLoanRequest(request.ID, RejectLoanRequestDTO{
		ReviewedBy: "treasurer",
		Notes:      "insufficient guarantee on file",
	})
	require.NoError(t, err)

	assert.Equal(t, models.LoanRequestStatusRejected, rejected.Status)
	assert.Nil(t, rejected.Loan)

	// Rejection frees the one-pending-request slot
	_, err = requests.CreateLoanRequest(CreateLoanRequestDTO{
		MemberID:        member.ID,
		RequestedAmount: decimal.NewFromInt(50),
		Purpose:         "a fresh application",
	})
	assert.NoError(t, err)
}

func TestRejectLoanRequestRequiresReason(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	member := createTestMember(t, db, 10, decimal.Zero)
	request := fileRequest(t, requests, member.ID, "100")

	_, err := requests.RejectLoanRequest(request.ID, RejectLoanRequestDTO{ReviewedBy: "treasurer"})
	assert.Error(t, err)
}

func TestRejectLoanRequestNotPending(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	member := createTestMember(t, db, 10, decimal.Zero)
	request := fileRequest(t, requests, member.ID, "100")

	_, err := requests.RejectLoanRequest(request.ID, RejectLoanRequestDTO{
		ReviewedBy: "treasurer",
		Notes:      "first decision",
	})
	require.NoError(t, err)

	_, err = requests.RejectLoanRequest(request.ID, RejectLoanRequestDTO{
		ReviewedBy: "treasurer",
		Notes:      "second decision",
	})
	assert.ErrorIs(t, err, ErrRequestNotPending)
}

func TestGetPendingLoanRequestsOrdering(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	first := createTestMember(t, db, 10, decimal.Zero)
	second := createTestMember(t, db, 10, decimal.Zero)

	older := fileRequest(t, requests, first.ID, "100")
	require.NoError(t, db.Model(&models.LoanRequest{}).
		Where("id = ?", older.ID).
		Update("request_date", time.Now().AddDate(0, 0, -5)).Error)
	fileRequest(t, requests, second.ID, "200")

	pending, err := requests.GetPendingLoanRequests()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID)
}

func TestGetLoanRequestStatistics(t *testing.T) {
	db, _, _, _, requests, _ := newTestServices(t)
	a := createTestMember(t, db, 10, decimal.Zero)
	b := createTestMember(t, db, 10, decimal.Zero)
	c := createTestMember(t, db, 10, decimal.Zero)

	approved := fileRequest(t, requests, a.ID, "100")
	_, err := requests.ApproveLoanRequest(approved.ID, ApproveLoanRequestDTO{ReviewedBy: "treasurer"})
	require.NoError(t, err)

	rejected := fileRequest(t, requests, b.ID, "200")
	_, err = requests.RejectLoanRequest(rejected.ID, RejectLoanRequestDTO{
		ReviewedBy: "treasurer",
		Notes:      "not this time",
	})
	require.NoError(t, err)

	fileRequest(t, requests, c.ID, "300")

	stats, err := requests.GetLoanRequestStatistics()
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.RequestsByStatus[models.LoanRequestStatusPending])
	assert.Equal(t, "300.00", stats.PendingAmount.StringFixed(2))
	assert.Equal(t, "50.00", stats.ApprovalRate.StringFixed(2))
}

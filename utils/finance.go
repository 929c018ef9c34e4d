package utils

import (
	"time"

	"banquito/models"
	"github.com/shopspring/decimal"
)

// DefaultShareValue is the fallback monetary value of one cooperative share.
// The effective value is read from settings per operation and passed in
// explicitly; this constant only backs the default setting.
var DefaultShareValue = decimal.NewFromInt(100)

var (
	two        = decimal.NewFromInt(2)
	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromInt(365)
)

// CreditRatingFor maps a credit score to its rating tier.
// 70 and above is green, 40-69 yellow, below 40 red.
func CreditRatingFor(score int) models.CreditRating {
	switch {
	case score >= 70:
		return models.CreditRatingGreen
	case score >= 40:
		return models.CreditRatingYellow
	default:
		return models.CreditRatingRed
	}
}

// TotalRepayable returns principal plus the flat monthly-rate interest,
// rounded to 2 decimal places: principal * (1 + rate/100).
func TotalRepayable(principal, monthlyRate decimal.Decimal) decimal.Decimal {
	return principal.Mul(monthlyRate.Div(hundred).Add(decimal.NewFromInt(1))).Round(2)
}

// WeeklyPayment returns the fixed installment for a loan:
// principal * (1 + rate/100) / totalWeeks, rounded to 2 decimal places.
func WeeklyPayment(principal, monthlyRate decimal.Decimal, totalWeeks int) decimal.Decimal {
	total := principal.Mul(monthlyRate.Div(hundred).Add(decimal.NewFromInt(1)))
	return total.Div(decimal.NewFromInt(int64(totalWeeks))).Round(2)
}

// DueDate returns startDate plus totalWeeks calendar weeks.
func DueDate(startDate time.Time, totalWeeks int) time.Time {
	return startDate.AddDate(0, 0, totalWeeks*7)
}

// WeeksElapsed returns the number of whole calendar weeks between startDate
// and now. Negative spans clamp to zero.
func WeeksElapsed(startDate, now time.Time) int {
	if now.Before(startDate) {
		return 0
	}
	return int(now.Sub(startDate).Hours() / (24 * 7))
}

// MaturityAmount returns the payout of a fixed-term saving using simple
// daily-rate interest: amount * (1 + (annualRate/100/365) * termDays),
// rounded to 2 decimal places.
func MaturityAmount(amount, annualRate decimal.Decimal, termDays int) decimal.Decimal {
	dailyRate := annualRate.Div(hundred).Div(daysInYear)
	factor := dailyRate.Mul(decimal.NewFromInt(int64(termDays))).Add(decimal.NewFromInt(1))
	return amount.Mul(factor).Round(2)
}

// PaymentCapacity describes how much additional debt a member may take on.
// AvailableCapacity may be negative; MaxLoanAmount is floored at zero.
type PaymentCapacity struct {
	TotalAssets       decimal.Decimal `json:"totalAssets"`
	ExistingDebt      decimal.Decimal `json:"existingDebt"`
	MaxLoanCapacity   decimal.Decimal `json:"maxLoanCapacity"`
	AvailableCapacity decimal.Decimal `json:"availableCapacity"`
	MaxLoanAmount     decimal.Decimal `json:"maxLoanAmount"`
}

// CalculatePaymentCapacity derives borrowing capacity from shares, guarantee
// and outstanding debt. Half of total assets is the hard ceiling on debt.
func CalculatePaymentCapacity(shares int, guarantee, existingDebt, shareValue decimal.Decimal) PaymentCapacity {
	totalAssets := decimal.NewFromInt(int64(shares)).Mul(shareValue).Add(guarantee)
	maxCapacity := totalAssets.Div(two)
	available := maxCapacity.Sub(existingDebt)

	maxLoan := available
	if maxLoan.IsNegative() {
		maxLoan = decimal.Zero
	}

	return PaymentCapacity{
		TotalAssets:       totalAssets,
		ExistingDebt:      existingDebt,
		MaxLoanCapacity:   maxCapacity,
		AvailableCapacity: available,
		MaxLoanAmount:     maxLoan,
	}
}

// Allows reports whether the requested amount fits within the capacity
// ceiling given the debt already outstanding.
func (c PaymentCapacity) Allows(requested decimal.Decimal) bool {
	return c.ExistingDebt.Add(requested).LessThanOrEqual(c.MaxLoanCapacity)
}

// LoanStatusFor derives the status of a payable loan from its stored state
// and the wall clock. There is no background sweep: this runs on each
// payment write and on reads.
func LoanStatusFor(remaining decimal.Decimal, currentWeek int, startDate, now time.Time) models.LoanStatus {
	if remaining.LessThanOrEqual(decimal.Zero) {
		return models.LoanStatusPaid
	}
	if WeeksElapsed(startDate, now) > currentWeek {
		return models.LoanStatusOverdue
	}
	return models.LoanStatusCurrent
}

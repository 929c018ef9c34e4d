package services

import (
	"testing"
	"time"

	"banquito/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFixedSaving(t *testing.T) {
	db, _, _, _, _, savings := newTestServices(t)
	member := createTestMember(t, db, 5, decimal.Zero)

	start := time.Now()
	saving, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID:   member.ID,
		Amount:     decimal.NewFromInt(1000),
		TermDays:   365,
		AnnualRate: decimal.RequireFromString("2.0"),
		StartDate:  start,
	})
	require.NoError(t, err)

	assert.Equal(t, models.FixedSavingStatusActive, saving.Status)
	assert.Equal(t, "1020.00", saving.MaturityAmount.StringFixed(2))
	assert.WithinDuration(t, start.AddDate(0, 0, 365), saving.EndDate, time.Second)
}

func TestCreateFixedSavingDefaultRate(t *testing.T) {
	db, _, _, _, _, savings := newTestServices(t)
	member := createTestMember(t, db, 5, decimal.Zero)

	saving, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(500),
		TermDays: 180,
	})
	require.NoError(t, err)
	assert.Equal(t, "2.00", saving.AnnualRate.StringFixed(2))
}

func TestCreateFixedSavingValidation(t *testing.T) {
	db, _, _, _, _, savings := newTestServices(t)
	member := createTestMember(t, db, 5, decimal.Zero)

	// Term below the 30-day floor
	_, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(500),
		TermDays: 10,
	})
	assert.Error(t, err)

	// Non-positive amount
	_, err = savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID: member.ID,
		Amount:   decimal.Zero,
		TermDays: 90,
	})
	assert.Error(t, err)
}

func TestCreateFixedSavingInactiveMember(t *testing.T) {
	db, _, _, _, _, savings := newTestServices(t)
	member := createTestMember(t, db, 5, decimal.Zero)
	require.NoError(t, db.Model(member).Update("is_active", false).Error)

	_, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(500),
		TermDays: 90,
	})
	assert.ErrorIs(t, err, ErrMemberInactive)
}

func TestMatureFixedSaving(t *testing.T) {
	db, _, _, _, _, savings := newTestServices(t)
	member := createTestMember(t, db, 5, decimal.Zero)

	// Started 100 days ago with a 90-day term, already past maturity
	saving, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID:  member.ID,
		Amount:    decimal.NewFromInt(1000),
		TermDays:  90,
		StartDate: time.Now().AddDate(0, 0, -100),
	})
	require.NoError(t, err)

	frozenPayout := saving.MaturityAmount

	matured, err := savings.MatureFixedSaving(saving.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FixedSavingStatusMatured, matured.Status)
	// The payout is the amount frozen at opening
	assert.True(t, matured.MaturityAmount.Equal(frozenPayout))

	// Maturing twice is refused
	_, err = savings.MatureFixedSaving(saving.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestMatureFixedSavingBeforeEndDate(t *testing.T) {
	db, _, _, _, _, savings := newTestServices(t)
	member := createTestMember(t, db, 5, decimal.Zero)

	saving, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(1000),
		TermDays: 90,
	})
	require.NoError(t, err)

	_, err = savings.MatureFixedSaving(saving.ID)
	assert.ErrorIs(t, err, ErrNotYetMatured)
}

func TestCancelFixedSaving(t *testing.T) {
	db, _, _, _, _, savings := newTestServices(t)
	member := createTestMember(t, db, 5, decimal.Zero)

	saving, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(1000),
		TermDays: 90,
	})
	require.NoError(t, err)

	cancelled, err := savings.CancelFixedSaving(saving.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FixedSavingStatusCancelled, cancelled.Status)

	// Cancelled deposits cannot be matured or cancelled again
	_, err = savings.MatureFixedSaving(saving.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)
	_, err = savings.CancelFixedSaving(saving.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestUpdateFixedSavingNotesOnly(t *testing.T) {
	db, _, _, _, _, savings := newTestServices(t)
	member := createTestMember(t, db, 5, decimal.Zero)

	saving, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(1000),
		TermDays: 90,
	})
	require.NoError(t, err)

	notes := "renewal discussed with the member"
	updated, err := savings.UpdateFixedSaving(saving.ID, UpdateFixedSavingDTO{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)

	// Terminal deposits are read-only
	_, err = savings.CancelFixedSaving(saving.ID)
	require.NoError(t, err)
	_, err = savings.UpdateFixedSaving(saving.ID, UpdateFixedSavingDTO{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestGetFixedSavingStatistics(t *testing.T) {
	db, _, _, _, _, savings := newTestServices(t)
	member := createTestMember(t, db, 5, decimal.Zero)

	_, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(1000),
		TermDays: 365,
	})
	require.NoError(t, err)

	// Ends within 30 days, counts as maturing soon
	_, err = savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID:  member.ID,
		Amount:    decimal.NewFromInt(500),
		TermDays:  90,
		StartDate: time.Now().AddDate(0, 0, -80),
	})
	require.NoError(t, err)

	cancelled, err := savings.CreateFixedSaving(CreateFixedSavingDTO{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(200),
		TermDays: 90,
	})
	require.NoError(t, err)
	_, err = savings.CancelFixedSaving(cancelled.ID)
	require.NoError(t, err)

	stats, err := savings.GetFixedSavingStatistics()
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalSavings)
	assert.Equal(t, int64(2), stats.ActiveSavings)
	assert.Equal(t, "1500.00", stats.ActiveAmount.StringFixed(2))
	assert.Equal(t, int64(1), stats.MaturingSoon)
}

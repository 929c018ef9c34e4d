package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDefaults(t *testing.T) {
	_, settings, _, _, _, _ := newTestServices(t)

	require.NoError(t, settings.InitializeDefaults())

	setting, err := settings.GetSettingByKey(SettingShareValue)
	require.NoError(t, err)
	assert.Equal(t, "100", setting.Value)

	// Re-seeding leaves customized values untouched
	_, err = settings.UpdateSetting(SettingShareValue, UpdateSettingDTO{Value: "150"})
	require.NoError(t, err)
	require.NoError(t, settings.InitializeDefaults())

	setting, err = settings.GetSettingByKey(SettingShareValue)
	require.NoError(t, err)
	assert.Equal(t, "150", setting.Value)
}

func TestShareValueFallback(t *testing.T) {
	_, settings, _, _, _, _ := newTestServices(t)

	// No setting stored yet
	assert.Equal(t, "100.00", settings.ShareValue().StringFixed(2))

	_, err := settings.CreateSetting(CreateSettingDTO{
		Key:      SettingShareValue,
		Value:    "250",
		Category: "system",
	})
	require.NoError(t, err)
	assert.Equal(t, "250.00", settings.ShareValue().StringFixed(2))

	// Malformed values fall back to the default
	_, err = settings.UpdateSetting(SettingShareValue, UpdateSettingDTO{Value: "not-a-number"})
	require.NoError(t, err)
	assert.Equal(t, "100.00", settings.ShareValue().StringFixed(2))
}

func TestShareValueAffectsCapacity(t *testing.T) {
	db, settings, members, _, _, _ := newTestServices(t)
	member := createTestMember(t, db, 10, decimal.Zero)

	detail, err := members.GetMemberByID(member.ID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", detail.PaymentCapacity.MaxLoanCapacity.StringFixed(2))

	_, err = settings.CreateSetting(CreateSettingDTO{
		Key:      SettingShareValue,
		Value:    "200",
		Category: "system",
	})
	require.NoError(t, err)

	// Capacity reads the setting on each operation, no restart needed
	detail, err = members.GetMemberByID(member.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", detail.PaymentCapacity.MaxLoanCapacity.StringFixed(2))
}

func TestCreateSettingDuplicateKey(t *testing.T) {
	_, settings, _, _, _, _ := newTestServices(t)

	_, err := settings.CreateSetting(CreateSettingDTO{Key: "custom.key", Value: "1"})
	require.NoError(t, err)

	_, err = settings.CreateSetting(CreateSettingDTO{Key: "custom.key", Value: "2"})
	assert.ErrorIs(t, err, ErrDuplicateSetting)
}

func TestSettingNotFound(t *testing.T) {
	_, settings, _, _, _, _ := newTestServices(t)

	_, err := settings.GetSettingByKey("missing.key")
	assert.ErrorIs(t, err, ErrSettingNotFound)

	err = settings.DeleteSetting("missing.key")
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestGetAllSettingsGroupsByCategory(t *testing.T) {
	_, settings, _, _, _, _ := newTestServices(t)
	require.NoError(t, settings.InitializeDefaults())

	grouped, err := settings.GetAllSettings()
	require.NoError(t, err)

	assert.NotEmpty(t, grouped["system"])
	assert.NotEmpty(t, grouped["loans"])
}

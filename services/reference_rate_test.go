package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rateFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<Rates>
    <Rate date="2026-06-01">2.30</Rate>
    <Rate date="2026-08-01">2.75</Rate>
    <Rate date="2026-07-01">2.50</Rate>
</Rates>`

func TestFetchMonthlyRatePicksLatest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(rateFeedXML))
	}))
	defer server.Close()

	client := NewReferenceRateClient(server.URL, newTestLogger())
	require.True(t, client.Enabled())

	rate, err := client.FetchMonthlyRate()
	require.NoError(t, err)
	assert.Equal(t, "2.75", rate.StringFixed(2))
}

func TestFetchMonthlyRateSkipsMalformedEntries(t *testing.T) {
	feed := `<Rates>
        <Rate date="bad-date">9.99</Rate>
        <Rate date="2026-05-01">not-a-number</Rate>
        <Rate date="2026-04-01">1.80</Rate>
    </Rates>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer server.Close()

	client := NewReferenceRateClient(server.URL, newTestLogger())
	rate, err := client.FetchMonthlyRate()
	require.NoError(t, err)
	assert.Equal(t, "1.80", rate.StringFixed(2))
}

func TestFetchMonthlyRateErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewReferenceRateClient(server.URL, newTestLogger())
	_, err := client.FetchMonthlyRate()
	assert.Error(t, err)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<Rates></Rates>`))
	}))
	defer empty.Close()

	client = NewReferenceRateClient(empty.URL, newTestLogger())
	_, err = client.FetchMonthlyRate()
	assert.Error(t, err)
}

func TestRefreshReferenceRateUpdatesSetting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rateFeedXML))
	}))
	defer server.Close()

	db := newTestDB(t)
	log := newTestLogger()
	settings := NewSettingsService(db, log, NewReferenceRateClient(server.URL, log))

	require.NoError(t, settings.RefreshReferenceRate())

	setting, err := settings.GetSettingByKey(SettingDefaultInterestRate)
	require.NoError(t, err)
	assert.Equal(t, "2.75", setting.Value)
}

func TestRefreshReferenceRateDisabled(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger()
	settings := NewSettingsService(db, log, NewReferenceRateClient("", log))

	// No URL configured: silently a no-op
	require.NoError(t, settings.RefreshReferenceRate())
	_, err := settings.GetSettingByKey(SettingDefaultInterestRate)
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

package services

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReferenceRateClient fetches the central-bank reference rate feed used to
// keep the cooperative's default loan rate in line with the market. The feed
// is a small XML document whose Rate elements carry a date and a value; the
// most recent entry wins.
type ReferenceRateClient struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewReferenceRateClient creates a client for the given feed URL. An empty
// URL disables the integration.
func NewReferenceRateClient(url string, log *logrus.Logger) *ReferenceRateClient {
	return &ReferenceRateClient{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Enabled reports whether a feed URL is configured.
func (c *ReferenceRateClient) Enabled() bool {
	return c != nil && c.url != ""
}

// FetchMonthlyRate downloads the feed and returns the latest reference rate
// as a monthly percentage.
func (c *ReferenceRateClient) FetchMonthlyRate() (decimal.Decimal, error) {
	body, err := c.fetch()
	if err != nil {
		return decimal.Zero, err
	}
	return c.parseRate(body)
}

func (c *ReferenceRateClient) fetch() ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rate request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting reference rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reference rate feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rate response: %w", err)
	}

	c.log.Debugf("reference rate XML response: %s", string(body))
	return body, nil
}

// parseRate extracts the most recent Rate element from the XML feed.
func (c *ReferenceRateClient) parseRate(raw []byte) (decimal.Decimal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return decimal.Zero, fmt.Errorf("parsing rate XML: %w", err)
	}

	elements := doc.FindElements("//Rate")
	if len(elements) == 0 {
		return decimal.Zero, fmt.Errorf("no Rate elements in feed")
	}

	var (
		latest     decimal.Decimal
		latestDate time.Time
		found      bool
	)
	for _, el := range elements {
		dateAttr := el.SelectAttrValue("date", "")
		date, err := time.Parse("2006-01-02", dateAttr)
		if err != nil {
			continue
		}
		value, err := decimal.NewFromString(el.Text())
		if err != nil {
			continue
		}
		if !found || date.After(latestDate) {
			latest = value
			latestDate = date
			found = true
		}
	}

	if !found {
		return decimal.Zero, fmt.Errorf("no parsable Rate entries in feed")
	}
	return latest, nil
}

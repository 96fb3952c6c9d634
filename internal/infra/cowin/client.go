// Package cowin talks to the public CoWIN appointment API.
package cowin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const calendarByPinPath = "/api/v2/appointment/sessions/public/calendarByPin"

// ErrUnexpectedStatus is returned for any non-2xx upstream response.
var ErrUnexpectedStatus = errors.New("unexpected upstream status")

// Client fetches raw calendar data for a pincode and date. It never retries.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch issues one GET calendarByPin request. date must be DD-MM-YYYY.
func (c *Client) Fetch(ctx context.Context, postalCode, date string) ([]byte, error) {
	if postalCode == "" {
		return nil, fmt.Errorf("empty postal code")
	}

	q := url.Values{}
	q.Set("pincode", postalCode)
	q.Set("date", date)
	endpoint := c.baseURL + calendarByPinPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendarByPin %s %s: %w", postalCode, date, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read calendarByPin body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d for pincode %s date %s", ErrUnexpectedStatus, res.StatusCode, postalCode, date)
	}
	return body, nil
}

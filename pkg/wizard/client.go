package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
	"github.com/hollandpark-shiatsu/bookings/internal/http/response"
)

// Mirror of the server's double-submit CSRF contract.
const (
	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRF-Token"
)

// Client talks to the booking API. The cookie jar holds the CSRF token the
// server sets; state-changing requests echo it back in the header.
type Client struct {
	base  *url.URL
	httpc *http.Client
	token string
}

func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:  u,
		httpc: &http.Client{Timeout: 10 * time.Second, Jar: jar},
	}, nil
}

// SetToken installs the bearer token obtained from login. An empty token
// returns the client to the unauthenticated state.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Authenticated() bool { return c.token != "" }

// WeekAvailability runs the slot query for one week and one session length.
func (c *Client) WeekAvailability(ctx context.Context, durationMinutes int, weekStart time.Time) (*domain.WeekAvailability, error) {
	u := c.endpoint("/v1/slots")
	q := url.Values{}
	q.Set("duration", strconv.Itoa(durationMinutes))
	q.Set("week_start", domain.FormatDate(weekStart))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slot query: unexpected status %d", resp.StatusCode)
	}
	var out domain.WeekAvailability
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode slot query response: %w", err)
	}
	return &out, nil
}

// CommitError is a structured rejection of a booking commit.
type CommitError struct {
	Status  int
	Code    string
	Message string
	Fields  domain.FieldErrors
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("booking rejected (%d %s): %s", e.Status, e.Code, e.Message)
}

// SlotTaken reports whether the commit lost the race for its slot.
func (e *CommitError) SlotTaken() bool { return e.Code == response.CodeSlotTaken }

// CreateBooking commits one reservation. A non-201 response with a JSON
// body comes back as a *CommitError carrying any field-level messages.
func (c *Client) CreateBooking(ctx context.Context, req *domain.BookingReq) (*domain.Booking, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/bookings").String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	if tok := c.csrfToken(); tok != "" {
		httpReq.Header.Set(csrfHeader, tok)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated {
		var booking domain.Booking
		if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
			return nil, fmt.Errorf("decode booking response: %w", err)
		}
		return &booking, nil
	}

	ce := &CommitError{Status: resp.StatusCode, Message: bookingFailedMsg}
	var er response.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
		ce.Code = er.Code
		ce.Message = er.Error
		ce.Fields = er.Errors
	}
	return nil, ce
}

// EnsureCSRF primes the cookie jar with a cheap read so the first commit
// already carries a token to echo.
func (c *Client) EnsureCSRF(ctx context.Context) error {
	if c.csrfToken() != "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/products").String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if c.csrfToken() == "" {
		return errors.New("server did not issue a CSRF token")
	}
	return nil
}

func (c *Client) csrfToken() string {
	for _, ck := range c.httpc.Jar.Cookies(c.base) {
		if ck.Name == csrfCookie {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) endpoint(p string) *url.URL {
	u := *c.base
	u.Path = path.Join(u.Path, p)
	return &u
}

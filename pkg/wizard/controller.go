package wizard

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
)

// Controller drives the wizard state against the booking API. It is meant
// for a single UI goroutine; transitions stay pure, the controller only
// sequences them around network calls.
type Controller struct {
	State State

	api         *Client
	loginURL    string
	currentPath string
}

// NewController starts a wizard for the page at currentPath. loginURL is
// where unauthenticated submits redirect, with currentPath appended as the
// next parameter so login returns the user here.
func NewController(api *Client, loginURL, currentPath string) *Controller {
	return &Controller{
		State:       New(time.Now()),
		api:         api,
		loginURL:    loginURL,
		currentPath: currentPath,
	}
}

// SelectLength handles step 1: pick a session length and load that
// length's availability for the visible week.
func (c *Controller) SelectLength(ctx context.Context, minutes int) error {
	next, fetch := c.State.SelectLength(minutes)
	c.State = next
	if !fetch {
		return nil
	}
	return c.refresh(ctx)
}

// NavigateWeek moves the visible week backward or forward.
func (c *Controller) NavigateWeek(ctx context.Context, weeks int) error {
	next, fetch := c.State.NavigateWeek(weeks)
	c.State = next
	if !fetch {
		return nil
	}
	return c.refresh(ctx)
}

// Refresh re-runs the slot query for the current week, e.g. after a commit
// lost the race for its slot.
func (c *Controller) Refresh(ctx context.Context) error {
	c.State.Generation++
	c.State.Loading = true
	c.State.LoadError = ""
	return c.refresh(ctx)
}

func (c *Controller) refresh(ctx context.Context) error {
	gen := c.State.Generation
	res, err := c.api.WeekAvailability(ctx, c.State.Duration, c.State.WeekStart)
	if err != nil {
		c.State = c.State.FailFetch(gen)
		return err
	}
	c.State = c.State.ApplyAvailability(gen, res)
	return nil
}

func (c *Controller) SelectSlot(key domain.SlotKey) {
	c.State = c.State.SelectSlot(key)
}

func (c *Controller) SetNotes(text string) {
	c.State = c.State.SetNotes(text)
}

// Submit commits the draft. When the session is unauthenticated it returns
// the login redirect URL without touching the booking endpoint; the draft
// stays intact so the user can resume after logging in.
func (c *Controller) Submit(ctx context.Context) (redirect string, err error) {
	if !c.State.CanSubmit() {
		return "", errors.New("booking draft is incomplete")
	}
	if !c.api.Authenticated() {
		return c.loginURL + "?next=" + url.QueryEscape(c.currentPath), nil
	}

	sel := *c.State.Selected
	req := &domain.BookingReq{
		ProductID:   c.State.ProductID,
		SessionDate: sel.Date,
		SessionTime: sel.Time,
		Notes:       c.State.Notes,
	}

	c.State = c.State.BeginSubmit()
	if err := c.api.EnsureCSRF(ctx); err != nil {
		c.State = c.State.FailSubmit(nil)
		return "", err
	}

	if _, err := c.api.CreateBooking(ctx, req); err != nil {
		var ce *CommitError
		if errors.As(err, &ce) {
			c.State = c.State.FailSubmit(ce.Fields)
		} else {
			c.State = c.State.FailSubmit(nil)
		}
		return "", err
	}

	c.State = c.State.CompleteSubmit()
	return "", nil
}

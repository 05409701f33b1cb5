package service

import (
	"fmt"

	"github.com/hollandpark-shiatsu/bookings/internal/platform/mailer"
	"github.com/hollandpark-shiatsu/bookings/pkg/events"
)

// NotifyService composes and sends booking emails for worker consumption.
type NotifyService struct {
	mail mailer.Service
}

func NewNotifyService(mail mailer.Service) *NotifyService {
	return &NotifyService{mail: mail}
}

func (n *NotifyService) BookingConfirmed(ev *events.BookingCreatedEvent) error {
	subject := "Your Shiatsu session is booked"
	text := fmt.Sprintf(
		"Hi %s,\n\nYour %s is confirmed for %s at %s.\n\nSee you then!",
		ev.UserName, ev.ProductName, ev.SessionDate, ev.SessionTime,
	)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your <b>%s</b> is confirmed for <b>%s</b> at <b>%s</b>.</p><p>See you then!</p>`,
		ev.UserName, ev.ProductName, ev.SessionDate, ev.SessionTime,
	)
	_, err := n.mail.Send(ev.UserEmail, ev.UserName, subject, text, html)
	return err
}

func (n *NotifyService) BookingCanceled(ev *events.BookingCanceledEvent) error {
	subject := "Your Shiatsu session was canceled"
	text := fmt.Sprintf(
		"Hi %s,\n\nYour %s on %s at %s has been canceled.\n\nYou can book a new slot any time.",
		ev.UserName, ev.ProductName, ev.SessionDate, ev.SessionTime,
	)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your <b>%s</b> on <b>%s</b> at <b>%s</b> has been canceled.</p><p>You can book a new slot any time.</p>`,
		ev.UserName, ev.ProductName, ev.SessionDate, ev.SessionTime,
	)
	_, err := n.mail.Send(ev.UserEmail, ev.UserName, subject, text, html)
	return err
}

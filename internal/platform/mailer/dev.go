package mailer

import (
	"github.com/hollandpark-shiatsu/bookings/pkg/logger"
)

// DevMailer prints outgoing mail to the logs instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"body", text,
	)
	return "dev", nil
}

// Package mailer is the pluggable notifier for outbound mail. The core treats
// delivery as best-effort: a send error is logged by the caller, never raised
// as fatal.
package mailer

import "log"

// Mailer sends one message to one recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes the message to the process log instead of sending it. Used
// in development; this is the one place a confirmation link (and so the token)
// may appear, standing in for delivery to the recipient.
type LogMailer struct{}

// Send logs the message and always succeeds.
func (LogMailer) Send(to, subject, body string) error {
	log.Printf("mailer: would send to=%s subject=%q\n%s", to, subject, body)
	return nil
}

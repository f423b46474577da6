// Package notify is the pluggable notification sink named in §1 and
// called out as a testability requirement in §9: "Reimplementations
// should make the notification sink pluggable so tests can observe
// emissions." The default implementation is a thin net/smtp client —
// deliberately minimal, since the mail transport is an external
// collaborator (§1) and not core supervision logic.
package notify

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Sink is the "emit notification(subject, body, html?)" interface
// named in §1.
type Sink interface {
	Notify(subject, body string, html bool) error
}

// NopSink disables notifications entirely — used when the recipient
// set is empty, per §8's boundary behavior: "Empty recipient set
// disables notifications but the loop proceeds normally."
type NopSink struct{}

func (NopSink) Notify(string, string, bool) error { return nil }

// Recorder is a test-only sink that stores every emission it sees,
// satisfying the §9 testability requirement directly.
type Recorder struct {
	Sent []Notification
}

type Notification struct {
	Subject string
	Body    string
	HTML    bool
}

func (r *Recorder) Notify(subject, body string, html bool) error {
	r.Sent = append(r.Sent, Notification{subject, body, html})
	return nil
}

// SMTPSink delivers notifications to a fixed recipient set through a
// single MTA host, with no authentication — matching the scope of the
// "MTA <host>" directive in §4.6, which names only a relay, not
// credentials.
type SMTPSink struct {
	Host       string
	From       string
	Recipients []string
	Timeout    time.Duration
}

func NewSMTPSink(host, from string, recipients []string) *SMTPSink {
	return &SMTPSink{Host: host, From: from, Recipients: recipients, Timeout: 10 * time.Second}
}

// Notify delivers subject/body to every configured recipient. Failure
// to connect to the mail transport is the caller's to log; per §7,
// delivery failure is never reported further than that.
func (s *SMTPSink) Notify(subject, body string, html bool) error {
	if len(s.Recipients) == 0 {
		return nil
	}

	addr := s.Host
	if !strings.Contains(addr, ":") {
		addr = net.JoinHostPort(addr, "25")
	}

	contentType := "text/plain; charset=utf-8"
	if html {
		contentType = "text/html; charset=utf-8"
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: %s\r\n\r\n%s",
		s.From, strings.Join(s.Recipients, ", "), subject, contentType, body)

	return smtp.SendMail(addr, nil, s.From, s.Recipients, []byte(msg))
}

package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailChannel sends alert mails over SMTP.
type EmailChannel struct {
	Addr     string
	From     string
	To       []string
	Username string
	Password string
	Host     string
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, m Message) error {
	if c == nil || c.Addr == "" || len(c.To) == 0 {
		return nil
	}
	subject := fmt.Sprintf("[%s] %s", m.Severity, m.AlertName)
	body := m.Summary
	if m.Detail != "" {
		body += "\r\n\r\n" + m.Detail
	}
	msg := strings.Join([]string{
		"From: " + c.From,
		"To: " + strings.Join(c.To, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")
	var auth smtp.Auth
	if c.Username != "" {
		auth = smtp.PlainAuth("", c.Username, c.Password, c.Host)
	}
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(c.Addr, auth, c.From, c.To, []byte(msg))
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

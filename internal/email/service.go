package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

// SMTPNotifier delivers mail over plain SMTP. smtp.SendMail blocks with no
// context support, so Send runs it in a goroutine and returns on ctx expiry;
// an abandoned delivery may still land, which is acceptable for reminder
// mail.
type SMTPNotifier struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
}

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

func NewSMTPNotifier(cfg Config) *SMTPNotifier {
	return &SMTPNotifier{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (s *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", to)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += "\r\n" + body

	var auth smtp.Auth
	if s.username != "" && s.password != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	done := make(chan error, 1)
	go func() {
		addr := s.host + ":" + s.port
		done <- smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogNotifier writes mail to the process log instead of sending it. Used
// when SMTP is not configured, so local runs still show what would go out.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("[Email] (dry run) to=%s subject=%q", to, subject)
	return nil
}

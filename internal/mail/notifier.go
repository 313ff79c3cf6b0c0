package mail

import (
	"gopkg.in/gomail.v2"
)

// Notifier delivers outbound e-mail. A nil Notifier is a valid deployment
// state: callers log the content instead of sending.
type Notifier interface {
	Send(to, subject, htmlBody, textBody string) error
}

type smtpNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPNotifier(host string, port int, username, password, from string) Notifier {
	return &smtpNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *smtpNotifier) Send(to, subject, htmlBody, textBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	return d.DialAndSend(m)
}

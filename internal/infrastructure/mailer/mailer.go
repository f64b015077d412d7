package mailer

import (
	"github.com/alimikegami/quicart/config"
	"gopkg.in/gomail.v2"
)

type Mailer struct {
	dialer *gomail.Dialer
	sender string
}

func CreateMailer(config *config.Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(config.SMTPConfig.Host, config.SMTPConfig.Port, config.SMTPConfig.Username, config.SMTPConfig.Password),
		sender: config.SMTPConfig.Sender,
	}
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	message := gomail.NewMessage()
	message.SetHeader("From", m.sender)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(message)
}

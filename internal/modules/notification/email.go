package notification

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

type EmailSender interface {
	Send(to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

type smtpSender struct {
	cfg SMTPConfig
}

// NewEmailSender returns an SMTP sender using implicit TLS, or a sender that
// drops mail when no host is configured.
func NewEmailSender(cfg SMTPConfig) EmailSender {
	if cfg.Host == "" {
		return noopEmail{}
	}
	return &smtpSender{cfg: cfg}
}

func (e *smtpSender) Send(to, subject, body string) error {
	from := e.cfg.Username
	msg := buildMessage(from, to, subject, body)

	conn, err := tls.Dial("tcp", e.cfg.Host+":"+e.cfg.Port, &tls.Config{ServerName: e.cfg.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// buildMessage renders an HTML message. Header values lose any CR/LF and the
// subject is RFC 2047 encoded.
func buildMessage(from, to, subject, body string) []byte {
	subject = mime.QEncoding.Encode("utf-8", headerBreaks.Replace(subject))
	return []byte(
		fmt.Sprintf("From: %s\r\n", headerBreaks.Replace(from)) +
			fmt.Sprintf("To: %s\r\n", headerBreaks.Replace(to)) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)
}

type noopEmail struct{}

func (noopEmail) Send(string, string, string) error { return nil }

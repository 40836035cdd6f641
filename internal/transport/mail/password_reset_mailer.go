package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// PasswordResetMailer delivers reset OTPs over SMTP. The code itself never
// appears in logs; it only travels in the message body.
type PasswordResetMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	useTLS   bool
}

func NewPasswordResetMailer(host, port, username, password, from string, useTLS bool) *PasswordResetMailer {
	return &PasswordResetMailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
		useTLS:   useTLS,
	}
}

func (m *PasswordResetMailer) SendPasswordReset(ctx context.Context, email, otp string) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	subject := "Your Bookshelf password reset code"
	body := fmt.Sprintf("Use the following code to reset your password: %s\n\nThe code expires shortly. If you did not request this, ignore this email.", otp)

	message := strings.Builder{}
	message.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", email))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	message.WriteString(body)
	message.WriteString("\r\n")

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if m.useTLS {
		return m.sendImplicitTLS(addr, auth, email, []byte(message.String()))
	}
	return smtp.SendMail(addr, auth, m.from, []string{email}, []byte(message.String()))
}

// sendImplicitTLS speaks SMTPS (TLS from the first byte, typically port 465)
// instead of the plaintext-then-STARTTLS path smtp.SendMail takes.
func (m *PasswordResetMailer) sendImplicitTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.host})
	if err != nil {
		return fmt.Errorf("dial smtps: %w", err)
	}
	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(message); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

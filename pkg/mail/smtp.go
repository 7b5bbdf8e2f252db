package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPTransport delivers mail over a direct SMTP connection. Secure
// connections use implicit TLS; insecure ones upgrade via STARTTLS when the
// server offers it. Certificate validation is relaxed to tolerate
// self-signed and corporate certificates.
type SMTPTransport struct {
	host   string
	port   int
	secure bool
	user   string
	pass   string
	name   string
}

// NewSMTPTransport constructs a direct SMTP transport.
func NewSMTPTransport(host string, port int, secure bool, user, pass string) *SMTPTransport {
	return &SMTPTransport{
		host:   host,
		port:   port,
		secure: secure,
		user:   user,
		pass:   pass,
		name:   "smtp",
	}
}

// NewGmailTransport returns the managed Gmail preset: implicit TLS against
// smtp.gmail.com:465 with the account credentials.
func NewGmailTransport(user, pass string) *SMTPTransport {
	t := NewSMTPTransport("smtp.gmail.com", 465, true, user, pass)
	t.name = "gmail"
	return t
}

// Name identifies the transport in dispatch results and logs.
func (t *SMTPTransport) Name() string {
	return t.name
}

// Host returns the configured SMTP host.
func (t *SMTPTransport) Host() string { return t.host }

// Port returns the configured SMTP port.
func (t *SMTPTransport) Port() int { return t.port }

// Secure reports whether the transport uses implicit TLS.
func (t *SMTPTransport) Secure() bool { return t.secure }

// Send delivers the message and returns the generated message id.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (SendResult, error) {
	addr := net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))
	tlsCfg := &tls.Config{ServerName: t.host, InsecureSkipVerify: true} //nolint:gosec

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return SendResult{}, fmt.Errorf("dial %s: %w", addr, err)
	}
	if t.secure {
		conn = tls.Client(conn, tlsCfg)
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return SendResult{}, fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close() //nolint:errcheck

	if !t.secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsCfg); err != nil {
				return SendResult{}, fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if t.user != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", t.user, t.pass, t.host)
			if err := client.Auth(auth); err != nil {
				return SendResult{}, fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return SendResult{}, fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return SendResult{}, fmt.Errorf("rcpt to: %w", err)
	}

	messageID := generateMessageID(t.host)
	writer, err := client.Data()
	if err != nil {
		return SendResult{}, fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(encodeMessage(msg, messageID)); err != nil {
		_ = writer.Close()
		return SendResult{}, fmt.Errorf("write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return SendResult{}, fmt.Errorf("finish message: %w", err)
	}
	if err := client.Quit(); err != nil {
		return SendResult{}, fmt.Errorf("smtp quit: %w", err)
	}

	return SendResult{MessageID: messageID}, nil
}

// encodeMessage renders the RFC 5322 wire form of an HTML mail.
func encodeMessage(msg Message, messageID string) []byte {
	var b strings.Builder
	b.WriteString("From: " + msg.From + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Message-ID: " + messageID + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// Package mail provides the transports used to deliver generated OD
// request emails: direct SMTP, the Gmail-managed preset and a disposable
// preview transport for installations without real credentials.
package mail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Message represents an email to be sent.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// SendResult contains the response from the transport.
type SendResult struct {
	MessageID  string
	PreviewURL string
}

// Transport abstracts a mail delivery backend so the dispatch policy can be
// tested without network access.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// generateMessageID returns an RFC 5322 style message id scoped to the
// given host.
func generateMessageID(host string) string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("<%d@%s>", time.Now().UnixNano(), host)
	}
	return fmt.Sprintf("<%s@%s>", hex.EncodeToString(buf), host)
}

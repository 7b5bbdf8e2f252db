package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acconduty/od-form-api/pkg/storage"
)

// PreviewDir is the relative directory under the storage base where preview
// mail files are written.
const PreviewDir = "preview-mail"

// PreviewTransport is the disposable last-resort backend. Each send
// fabricates a throwaway test account, writes the message as an .eml file
// into local storage and returns a signed preview URL instead of delivering
// to a real inbox.
type PreviewTransport struct {
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	baseURL string
	logger  *zap.Logger
}

// NewPreviewTransport constructs a preview transport. baseURL is the public
// prefix of the file download endpoint; tokens are appended to it.
func NewPreviewTransport(store *storage.LocalStorage, signer *storage.SignedURLSigner, baseURL string, logger *zap.Logger) *PreviewTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewTransport{
		storage: store,
		signer:  signer,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Name identifies the transport in dispatch results and logs.
func (t *PreviewTransport) Name() string {
	return "preview"
}

// Send stores the message and returns its preview URL.
func (t *PreviewTransport) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	account := newTestAccount()
	messageID := generateMessageID("preview.local")

	fileID := uuid.NewString()
	relPath := fmt.Sprintf("%s/%s.eml", PreviewDir, fileID)
	if _, err := t.storage.Save(relPath, encodeMessage(msg, messageID)); err != nil {
		return SendResult{}, fmt.Errorf("store preview mail: %w", err)
	}

	token, _, err := t.signer.Generate(fileID, relPath)
	if err != nil {
		return SendResult{}, fmt.Errorf("sign preview url: %w", err)
	}

	t.logger.Sugar().Infow("mail captured by preview transport",
		"to", msg.To, "test_account", account, "file", relPath)

	return SendResult{
		MessageID:  messageID,
		PreviewURL: t.baseURL + "/" + token,
	}, nil
}

// newTestAccount fabricates throwaway credentials per call, mirroring
// disposable test-mail services.
func newTestAccount() string {
	return fmt.Sprintf("od-%d@preview.local", time.Now().UnixNano())
}

package service

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/acconduty/od-form-api/internal/models"
	"github.com/acconduty/od-form-api/pkg/config"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
	"github.com/acconduty/od-form-api/pkg/mail"
)

// mailSubject is the fixed subject line on every dispatched email.
const mailSubject = "OD Form Submission"

// fallbackNote explains to the caller that the message did not reach a
// real inbox.
const fallbackNote = "Primary SMTP failed; sent with preview transport (not delivered to a real inbox). Configure SMTP_* or a Gmail app password."

const submissionCacheTTL = 10 * time.Minute

type submissionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type mailMetrics interface {
	RecordMailSend(transport string, delivered bool)
	RecordCacheOperation(hit bool)
}

// DispatchResult reports the outcome of one send.
type DispatchResult struct {
	Delivered     bool
	TransportUsed string
	MessageID     string
	Preview       string
	HTML          string
	From          string
	Fallback      bool
	Note          string
}

// MailService dispatches submission emails over the configured transport
// chain.
type MailService struct {
	cfg      config.SMTPConfig
	forms    submissionStore
	cache    submissionCache
	composer *Composer
	preview  mail.Transport
	metrics  mailMetrics
	logger   *zap.Logger

	candidates func(cfg config.SMTPConfig, preview mail.Transport, logger *zap.Logger) []mail.Transport
}

// NewMailService constructs a MailService.
func NewMailService(cfg config.SMTPConfig, forms submissionStore, cache submissionCache, composer *Composer, preview mail.Transport, metrics mailMetrics, logger *zap.Logger) *MailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if composer == nil {
		composer = NewComposer()
	}
	return &MailService{cfg: cfg, forms: forms, cache: cache, composer: composer, preview: preview, metrics: metrics, logger: logger, candidates: mail.Candidates}
}

// Dispatch sends the email for one submission. The from address is always
// server-enforced; a missing sender fails before any transport is built.
// On primary failure exactly one retry goes to the preview transport, and
// that path still counts as success with the fallback flag set.
func (s *MailService) Dispatch(ctx context.Context, id, to, customContent string) (*DispatchResult, error) {
	from, err := mail.ResolveFrom(s.cfg)
	if err != nil {
		return nil, err
	}

	sub, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	html := customContent
	if html == "" {
		html = s.composer.ComposeHTML(sub)
	}

	msg := mail.Message{From: from, To: to, Subject: mailSubject, HTML: html}
	candidates := s.candidates(s.cfg, s.preview, s.logger)

	primary := candidates[0]
	res, sendErr := primary.Send(ctx, msg)
	if s.metrics != nil {
		s.metrics.RecordMailSend(primary.Name(), sendErr == nil)
	}
	if sendErr == nil {
		s.logger.Info("email sent",
			zap.String("submission_id", id),
			zap.String("transport", primary.Name()),
			zap.String("message_id", res.MessageID))
		return &DispatchResult{
			Delivered:     true,
			TransportUsed: primary.Name(),
			MessageID:     res.MessageID,
			Preview:       res.PreviewURL,
			HTML:          html,
			From:          from,
		}, nil
	}

	if len(candidates) < 2 {
		return nil, appErrors.Wrap(sendErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send email")
	}

	s.logger.Warn("primary transport failed, retrying with preview",
		zap.String("submission_id", id),
		zap.String("transport", primary.Name()),
		zap.Error(sendErr))

	fallback := candidates[1]
	res, fbErr := fallback.Send(ctx, msg)
	if s.metrics != nil {
		s.metrics.RecordMailSend(fallback.Name(), fbErr == nil)
	}
	if fbErr != nil {
		return nil, appErrors.Wrap(fbErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send email")
	}

	return &DispatchResult{
		Delivered:     true,
		TransportUsed: fallback.Name(),
		MessageID:     res.MessageID,
		Preview:       res.PreviewURL,
		HTML:          html,
		From:          from,
		Fallback:      true,
		Note:          fallbackNote,
	}, nil
}

// lookup reads the submission through the cache. Submissions never change
// after creation, so cached copies cannot go stale.
func (s *MailService) lookup(ctx context.Context, id string) (*models.Submission, error) {
	cacheKey := "odform:" + id

	if s.cache != nil {
		var cached models.Submission
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		} else if !stderrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache lookup failed", zap.String("key", cacheKey), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	sub, err := s.forms.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Record not found")
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, sub, submissionCacheTTL); err != nil {
			s.logger.Warn("cache store failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return sub, nil
}

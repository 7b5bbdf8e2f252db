package mail

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/acconduty/od-form-api/pkg/config"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
)

var gmailUserPattern = regexp.MustCompile(`(?i)@gmail\.com$`)

// ResolveFrom returns the server-enforced sender address: SMTP_USER when
// set, else MAIL_FROM. It fails before any transport is constructed when
// neither is configured.
func ResolveFrom(cfg config.SMTPConfig) (string, error) {
	if cfg.User != "" {
		return cfg.User, nil
	}
	if cfg.MailFrom != "" {
		return cfg.MailFrom, nil
	}
	return "", appErrors.ErrSenderNotConfigured
}

// Candidates builds the ordered transport list for a dispatch: the selected
// primary first, the preview transport as the single safety net. When no
// primary can be configured the preview transport IS the primary and the
// list has one entry.
//
// Selection policy, first match wins:
//  1. no host, Gmail user, password present -> managed Gmail transport
//  2. host, user and password all present   -> direct SMTP
//  3. partial host/user/pass configuration  -> warn, preview only
//  4. nothing configured                    -> preview only
func Candidates(cfg config.SMTPConfig, preview Transport, logger *zap.Logger) []Transport {
	if logger == nil {
		logger = zap.NewNop()
	}

	if primary := selectPrimary(cfg, logger); primary != nil {
		return []Transport{primary, preview}
	}
	return []Transport{preview}
}

func selectPrimary(cfg config.SMTPConfig, logger *zap.Logger) Transport {
	secure := cfg.Secure == "true" || cfg.Secure == "1" || cfg.Port == 465

	if cfg.Host == "" && cfg.User != "" && gmailUserPattern.MatchString(cfg.User) && cfg.Pass != "" {
		return NewGmailTransport(cfg.User, cfg.Pass)
	}

	if cfg.Host != "" && cfg.User != "" && cfg.Pass != "" {
		port := cfg.Port
		if port == 0 {
			if secure {
				port = 465
			} else {
				port = 587
			}
		}
		return NewSMTPTransport(cfg.Host, port, secure, cfg.User, cfg.Pass)
	}

	if cfg.Host != "" || cfg.User != "" || cfg.Pass != "" {
		logger.Sugar().Warnw("partial SMTP configuration detected; falling back to preview transport",
			"host_set", cfg.Host != "", "user_set", cfg.User != "", "pass_set", cfg.Pass != "")
	}
	return nil
}

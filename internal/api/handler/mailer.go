package handler

import (
	"context"
	"devlinkr/backend/internal/localization"
	"log/slog"
	"slices"
	"time"
)

// Mailer delivers one-time codes. Outbound email is an external concern;
// LogMailer stands in for it.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogMailer writes the localized OTP mail to the log.
type LogMailer struct {
	Localizer *localization.Localizer
	Lang      string
	TTL       time.Duration
	logger    *slog.Logger
}

// NewLogMailer warns when lang has no translations loaded; mails then go out
// in English.
func NewLogMailer(l *localization.Localizer, lang string, ttl time.Duration, logger *slog.Logger) *LogMailer {
	if !slices.Contains(l.Languages(), lang) {
		logger.Warn("mail language not loaded, falling back to English",
			slog.String("lang", lang), slog.Any("loaded", l.Languages()))
	}
	return &LogMailer{
		Localizer: l,
		Lang:      lang,
		TTL:       ttl,
		logger:    logger.With(slog.String("component", "mailer")),
	}
}

func (m *LogMailer) SendOTP(ctx context.Context, email, code string) error {
	m.logger.InfoContext(ctx, "otp mail",
		slog.String("to", email),
		slog.String("subject", m.Localizer.GetString(m.Lang, "otp_subject")),
		slog.String("body", m.Localizer.Format(m.Lang, "otp_body", code, int(m.TTL.Minutes()))),
	)
	return nil
}

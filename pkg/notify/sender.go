package notify

import (
	"context"
	"errors"
	"fmt"

	"krishi-setu/pkg/utils"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPSender delivers mail through the configured relay.
type SMTPSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(config utils.EmailConfig) (*SMTPSender, error) {
	if config.Host == "" {
		return nil, errors.New("SMTP_HOST is required for the smtp transport")
	}

	from := config.From
	if from == "" {
		from = config.User
	}
	if from == "" {
		return nil, errors.New("SENDER_EMAIL is required for the smtp transport")
	}

	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if config.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(config.Timeout))
	}
	if config.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.User),
			mail.WithPassword(config.Password),
		)
	}

	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: from}, nil
}

func (s *SMTPSender) Name() string {
	return "smtp"
}

func (s *SMTPSender) Send(ctx context.Context, m Mail) error {
	msg, err := s.message(m)
	if err != nil {
		return err
	}
	return s.client.DialAndSendWithContext(ctx, msg)
}

func (s *SMTPSender) message(m Mail) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.from, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	return msg, nil
}

// LogSender writes mail to the log instead of a relay. Used when no SMTP host
// is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Name() string {
	return "log"
}

func (s *LogSender) Send(ctx context.Context, m Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
	}
	if m.Link != "" {
		fields = append(fields, zap.String("link", m.Link))
	}
	s.log.Info("Mail not sent, no SMTP host configured", fields...)
	return nil
}

// NewSender picks the SMTP transport when a host is configured.
func NewSender(config utils.EmailConfig, log *zap.Logger) (Sender, error) {
	if config.Host == "" {
		return NewLogSender(log), nil
	}
	return NewSMTPSender(config)
}

package email

import (
	"context"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/gomail.v2"

	"github.com/hospitalward/ward-api/pkg/logger"
)

// Service delivers billing mail. The invoice copy sent on discharge is
// an archive record, so delivery failures are logged, never fatal to
// the discharge itself.
type Service interface {
	SendInvoice(ctx context.Context, to, subject, body string) error
}

// SMTPConfig is read from the environment, separate from the YAML
// config so credentials stay out of the config file.
type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:"localhost"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" default:"ward@hospital.example"`
}

func LoadSMTPConfig() (*SMTPConfig, error) {
	var cfg SMTPConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type smtpService struct {
	cfg    *SMTPConfig
	dialer *gomail.Dialer
	logger *logger.Logger
}

func NewService(cfg *SMTPConfig, log *logger.Logger) Service {
	return &smtpService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: log.WithComponent("email"),
	}
}

func (s *smtpService) SendInvoice(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error(err, "failed to send invoice email")
		return err
	}
	s.logger.Info("invoice email sent", "to", to)
	return nil
}

// NoopService discards mail. Used when SMTP is not configured.
type NoopService struct{}

func (NoopService) SendInvoice(ctx context.Context, to, subject, body string) error {
	return nil
}

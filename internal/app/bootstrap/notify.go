package bootstrap

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // BUSINESS_TIMEZONE must resolve in minimal containers

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/wolfman30/frontdesk/internal/booking"
	appconfig "github.com/wolfman30/frontdesk/internal/config"
	"github.com/wolfman30/frontdesk/internal/notify"
	"github.com/wolfman30/frontdesk/internal/observability/metrics"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

const (
	EmailProviderAuto     = "auto"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderSMTP     = "smtp"
	EmailProviderStub     = "stub"
)

// BuildEmailSender picks the email transport. An explicitly requested
// transport that lacks credentials degrades to the stub with a warning;
// auto tries sendgrid, smtp, then ses (only with static AWS keys).
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.EmailProvider))

	var candidates []string
	switch provider {
	case "", EmailProviderAuto:
		candidates = []string{EmailProviderSendGrid, EmailProviderSMTP}
		if strings.TrimSpace(cfg.AWSAccessKeyID) != "" {
			candidates = append(candidates, EmailProviderSES)
		}
	case EmailProviderStub:
	default:
		candidates = []string{provider}
	}

	for _, name := range candidates {
		sender, err := buildSender(name, cfg, awsCfg, logger)
		if err != nil {
			logger.Warn("email provider unavailable", "provider", name, "error", err)
			continue
		}
		if sender != nil {
			logger.Info("using email provider", "provider", name, "from", cfg.EmailFrom)
			return sender
		}
		if provider != "" && provider != EmailProviderAuto {
			logger.Warn("email provider not configured; simulating sends", "provider", name)
		}
	}
	return notify.NewStubEmailSender(logger)
}

// buildSender returns nil, nil when the transport has no credentials.
func buildSender(name string, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, error) {
	switch name {
	case EmailProviderSendGrid:
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger); s != nil {
			return s, nil
		}
	case EmailProviderSMTP:
		s, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUser,
			Password:  cfg.SMTPPass,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if err != nil {
			return nil, err
		}
		if s != nil {
			return s, nil
		}
	case EmailProviderSES:
		if awsCfg == nil {
			return nil, nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", name)
	}
	return nil, nil
}

// BuildArchiveStore returns the S3 booking archive, or nil when no bucket
// is configured.
func BuildArchiveStore(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *booking.ArchiveStore {
	bucket := strings.TrimSpace(cfg.BookingArchiveBucket)
	if bucket == "" || awsCfg == nil {
		return nil
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		// LocalStack serves buckets by path, not virtual host.
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	return booking.NewArchiveStore(client, bucket, logger)
}

// BuildConfirmer wires booking confirmations in the business timezone.
func BuildConfirmer(cfg *appconfig.Config, sender notify.EmailSender, archive *booking.ArchiveStore, bridgeMetrics *metrics.BridgeMetrics, logger *logging.Logger) (*booking.Confirmer, error) {
	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load BUSINESS_TIMEZONE %q: %w", cfg.BusinessTimezone, err)
	}
	owner := cfg.OwnerAddress()
	if owner == "" && logger != nil {
		logger.Warn("OWNER_EMAIL not set; owner booking notices will be skipped")
	}
	return booking.NewConfirmer(booking.ConfirmerConfig{
		Sender:       sender,
		OwnerEmail:   owner,
		BusinessName: cfg.BusinessName,
		Location:     loc,
		Archive:      archive,
		Metrics:      bridgeMetrics,
		Logger:       logger,
	}), nil
}

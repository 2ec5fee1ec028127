package bootstrap

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/wolfman30/frontdesk/internal/config"
	"github.com/wolfman30/frontdesk/internal/notify"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

func TestBuildEmailSenderSelection(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}
	tests := []struct {
		name   string
		cfg    appconfig.Config
		aws    *aws.Config
		expect string
	}{
		{name: "auto with nothing configured", cfg: appconfig.Config{EmailProvider: "auto"}, expect: "stub"},
		{name: "auto prefers sendgrid", cfg: appconfig.Config{EmailProvider: "auto", SendGridAPIKey: "SG.key", SMTPHost: "smtp.example.com"}, expect: "sendgrid"},
		{name: "auto falls to smtp", cfg: appconfig.Config{SMTPHost: "smtp.example.com", SMTPPort: 587}, expect: "smtp"},
		{name: "auto uses ses with static keys", cfg: appconfig.Config{AWSAccessKeyID: "AKIA"}, aws: &awsCfg, expect: "ses"},
		{name: "auto skips ses without static keys", cfg: appconfig.Config{}, aws: &awsCfg, expect: "stub"},
		{name: "explicit sendgrid without key", cfg: appconfig.Config{EmailProvider: "sendgrid"}, expect: "stub"},
		{name: "explicit ses", cfg: appconfig.Config{EmailProvider: "ses"}, aws: &awsCfg, expect: "ses"},
		{name: "explicit stub ignores keys", cfg: appconfig.Config{EmailProvider: "stub", SendGridAPIKey: "SG.key"}, expect: "stub"},
		{name: "unknown provider", cfg: appconfig.Config{EmailProvider: "pigeon"}, expect: "stub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.EmailFrom = "desk@example.com"
			sender := BuildEmailSender(&cfg, tt.aws, logging.New("error"))

			var got string
			switch sender.(type) {
			case *notify.SendGridSender:
				got = "sendgrid"
			case *notify.SMTPSender:
				got = "smtp"
			case *notify.SESSender:
				got = "ses"
			case *notify.StubEmailSender:
				got = "stub"
			default:
				t.Fatalf("unexpected sender %T", sender)
			}
			if got != tt.expect {
				t.Fatalf("expected %s sender, got %s", tt.expect, got)
			}
		})
	}
}

func TestBuildArchiveStore(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}
	if store := BuildArchiveStore(&appconfig.Config{}, &awsCfg, nil); store != nil {
		t.Fatalf("expected no archive without bucket")
	}
	if store := BuildArchiveStore(&appconfig.Config{BookingArchiveBucket: "bookings"}, nil, nil); store != nil {
		t.Fatalf("expected no archive without aws config")
	}
	store := BuildArchiveStore(&appconfig.Config{BookingArchiveBucket: "bookings", AWSEndpointOverride: "http://localhost:4566"}, &awsCfg, nil)
	if !store.Enabled() {
		t.Fatalf("expected enabled archive")
	}
}

func TestBuildConfirmer(t *testing.T) {
	cfg := &appconfig.Config{BusinessTimezone: "America/Chicago", BusinessName: "Test Detailing"}
	confirmer, err := BuildConfirmer(cfg, notify.NewStubEmailSender(nil), nil, nil, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmer == nil {
		t.Fatalf("expected confirmer")
	}

	cfg.BusinessTimezone = "Mars/Olympus_Mons"
	if _, err := BuildConfirmer(cfg, notify.NewStubEmailSender(nil), nil, nil, nil); err == nil {
		t.Fatalf("expected timezone error")
	}
}

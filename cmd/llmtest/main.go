package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"

	"github.com/wolfman30/frontdesk/cmd/mainconfig"
	"github.com/wolfman30/frontdesk/internal/app/bootstrap"
	appconfig "github.com/wolfman30/frontdesk/internal/config"
	"github.com/wolfman30/frontdesk/internal/conversation"
	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/internal/notify"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

// defaultScript walks a lead from first contact to a booking.
var defaultScript = []string{
	"Hi, I need a full detail on my SUV. Do you come to 77008?",
	"Saturday morning works best for me.",
	"10am Saturday is perfect, please book it.",
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline for the scripted conversation")
	jobDetails := flag.String("job", "Full detail for my SUV", "job details on the test lead")
	flag.Parse()

	script := defaultScript
	if flag.NArg() > 0 {
		script = flag.Args()
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, *jobDetails, script, logger); err != nil {
		fmt.Fprintf(os.Stderr, "llmtest: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *appconfig.Config, jobDetails string, script []string, logger *logging.Logger) error {
	var awsCfg *aws.Config
	if loaded, err := mainconfig.LoadAWSConfig(ctx, cfg); err == nil {
		awsCfg = &loaded
	}

	conductor, err := bootstrap.BuildConductor(ctx, cfg, awsCfg, nil, logger)
	if err != nil {
		return err
	}
	if err := conductor.Ready(); err != nil {
		return err
	}

	// Confirmation emails are simulated so the smoke test never mails anyone.
	confirmer, err := bootstrap.BuildConfirmer(cfg, notify.NewStubEmailSender(logger), nil, nil, logger)
	if err != nil {
		return err
	}

	repo := leads.NewInMemoryRepository()
	desk := conversation.NewFrontDesk(repo, conductor, confirmer, logger)
	lead, err := repo.Create(ctx, &leads.CreateLeadRequest{
		Name:       "Smoke Test",
		Phone:      "713-555-0100",
		JobDetails: jobDetails,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Provider: %s (fallback %q)\n", cfg.LLMProvider, cfg.LLMFallbackProvider)
	fmt.Println(strings.Repeat("=", 60))

	welcome, err := desk.Welcome(ctx, lead.ID)
	if err != nil {
		return fmt.Errorf("welcome: %w", err)
	}
	fmt.Printf("AI: %s\n", welcome.Body)

	for _, body := range script {
		start := time.Now()
		result, err := desk.HandleMessage(ctx, lead.ID, body)
		if err != nil {
			return fmt.Errorf("message %q: %w", body, err)
		}
		fmt.Printf("\nCustomer: %s\n", body)
		fmt.Printf("AI [%s, %s]: %s\n", result.Action.Action, time.Since(start).Round(time.Millisecond), result.Action.Reply)
		fmt.Printf("    status=%s slot=%q service=%q\n", result.Lead.Status, result.Lead.ChosenSlot, result.Lead.ServiceRequested)
	}

	final, err := repo.GetByID(ctx, lead.ID)
	if err != nil {
		return err
	}
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Final status: %s after %d messages\n", final.Status, len(final.Messages))
	return nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitlibraries/ccslips/pkg/models/domain"
	"github.com/mitlibraries/ccslips/pkg/runtime/export"
	termexport "github.com/mitlibraries/ccslips/pkg/runtime/terminal/export"
	"github.com/mitlibraries/ccslips/pkg/services/config"
	"github.com/mitlibraries/ccslips/pkg/services/email"
	"github.com/mitlibraries/ccslips/pkg/services/reporting"
	"github.com/mitlibraries/ccslips/pkg/services/slips"
	"github.com/mitlibraries/ccslips/pkg/store/client"
	"github.com/mitlibraries/ccslips/pkg/store/template"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// Dependencies are the collaborators the slips command reaches out to.
type Dependencies struct {
	LogOutput     io.Writer
	Now           func() time.Time
	AlmaTransport http.RoundTripper
	EmailSender   func(ctx context.Context, cfg *config.Config) (email.Sender, error)
	S3Client      func(ctx context.Context, cfg *config.Config) (template.ObjectGetter, error)
	DotEnvFiles   []string
}

type SlipsCmd struct {
	sourceEmail     string
	recipientEmails []string
	date            string
	templateSource  string
	verbose         bool
	dryRun          bool
	reporter        *termexport.Reporter
	deps            Dependencies
}

func NewSlipsCmd(reporter *termexport.Reporter, deps Dependencies) *cobra.Command {
	sc := &SlipsCmd{reporter: reporter, deps: deps}
	cmd := &cobra.Command{
		Use:           "ccslips",
		Short:         "Generate credit card slips for PO lines created on a given date and email them",
		RunE:          sc.run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&sc.sourceEmail, "source-email", "s", "",
		"The email address sending the credit card slips (default $SES_SEND_FROM_EMAIL)")
	cmd.Flags().StringArrayVarP(&sc.recipientEmails, "recipient-email", "r", nil,
		"The email address(es) receiving the credit card slips. Repeatable "+
			"(default $SES_RECIPIENT_EMAIL, space separated)")
	cmd.Flags().StringVarP(&sc.date, "date", "d", "",
		"Creation date of the PO lines to process, in 'YYYY-MM-DD' format. "+
			"Defaults to two days before today (UTC)")
	cmd.Flags().StringVarP(&sc.templateSource, "template", "t", "",
		"Slip template path or s3://bucket/key uri (default $CCSLIPS_TEMPLATE)")
	cmd.Flags().BoolVarP(&sc.verbose, "verbose", "v", false,
		"Set log level to DEBUG. Defaults to INFO")
	cmd.Flags().BoolVar(&sc.dryRun, "dry-run", false,
		"Write the slips document to stdout instead of emailing it")

	return cmd
}

func (sc *SlipsCmd) run(cmd *cobra.Command, _ []string) (err error) {
	start := sc.deps.Now()
	ctx := cmd.Context()

	if err := config.LoadDotEnv(sc.deps.DotEnvFiles...); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, msg := reporting.ConfigureLogger(sc.deps.LogOutput, sc.verbose)
	ctx = logger.WithContext(ctx)
	logger.Info().Msg(msg)

	sentryEnabled, msg, err := reporting.ConfigureSentry(cfg.SentryDSN, cfg.Workspace)
	if err != nil {
		return err
	}
	logger.Info().Msg(msg)
	if sentryEnabled {
		defer func() {
			reporting.CaptureError(err)
		}()
	}

	if err := cfg.CheckRequired(); err != nil {
		return err
	}

	date := sc.date
	if date == "" {
		date = start.UTC().AddDate(0, 0, -2).Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
	}

	source := sc.sourceEmail
	if source == "" {
		source = cfg.SESFromEmail
	}
	recipients := sc.recipientEmails
	if len(recipients) == 0 {
		recipients = cfg.Recipients()
	}
	if !sc.dryRun && (source == "" || len(recipients) == 0) {
		return fmt.Errorf("source and recipient email addresses are required unless --dry-run is set")
	}

	logger.Debug().
		Str("source_email", source).
		Strs("recipient_email", recipients).
		Str("date", date).
		Bool("dry_run", sc.dryRun).
		Msg("Command called with options")
	logger.Info().Msg("Starting credit card slips process")

	alma, err := client.NewClient(client.Config{
		BaseURL:           cfg.AlmaAPIURL,
		APIKey:            cfg.AlmaAPIKey,
		Timeout:           cfg.Timeout(),
		RateLimitInterval: cfg.RateLimitInterval,
		Transport:         sc.deps.AlmaTransport,
	})
	if err != nil {
		return fmt.Errorf("failed to create alma client: %w", err)
	}

	renderer, err := sc.renderer(ctx, cfg)
	if err != nil {
		return err
	}

	document, count, err := renderer.Render(slips.ProcessPOLines(ctx, alma, date))
	if err != nil {
		return fmt.Errorf("failed to process PO lines for %s: %w", date, err)
	}
	logger.Info().Int("slips", count).Str("date", date).Msg("Credit card slips generated")

	if sc.dryRun {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), document)
		return err
	}

	sender, err := sc.deps.EmailSender(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create email sender: %w", err)
	}
	messageID, err := email.NewClient(sender).Send(ctx, email.Message{
		From:    source,
		To:      recipients,
		Subject: subject(cfg, date),
		Attachments: []email.Attachment{{
			Filename: fmt.Sprintf("%s_credit_card_slips.htm", date),
			Content:  []byte(document),
		}},
	})
	if err != nil {
		return err
	}

	elapsed := sc.deps.Now().Sub(start)
	logger.Info().Msgf(
		"Credit card slips processing complete for date %s. Email sent to recipient(s) %v "+
			"with SES message ID %s. Total time to complete process: %s",
		date, recipients, messageID, elapsed,
	)

	return sc.reporter.Handle(&domain.RunSummary{
		Date:       date,
		Slips:      count,
		Recipients: recipients,
		MessageID:  messageID,
		Elapsed:    elapsed,
	})
}

func (sc *SlipsCmd) renderer(ctx context.Context, cfg *config.Config) (*export.Renderer, error) {
	source := sc.templateSource
	if source == "" {
		source = cfg.Template
	}

	var s3Client template.ObjectGetter
	if template.IsS3URI(source) {
		c, err := sc.deps.S3Client(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		s3Client = c
	}

	data, err := template.NewLoader(s3Client).Load(ctx, source)
	if err != nil {
		return nil, err
	}
	return export.NewRenderer(data)
}

func subject(cfg *config.Config, date string) string {
	prefix := ""
	if !cfg.IsProduction() {
		prefix = strings.ToUpper(cfg.Workspace) + " "
	}
	return fmt.Sprintf("%sCredit card slips %s", prefix, date)
}

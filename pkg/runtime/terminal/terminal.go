package terminal

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/mitlibraries/ccslips/pkg/runtime/terminal/commands"
	"github.com/mitlibraries/ccslips/pkg/runtime/terminal/export"
	"github.com/mitlibraries/ccslips/pkg/services/config"
	"github.com/mitlibraries/ccslips/pkg/services/email"
	"github.com/mitlibraries/ccslips/pkg/store/template"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	reporter *export.Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	// Output receives the slips document on dry runs and the run summary otherwise.
	Output io.Writer
	// LogOutput receives structured logs.
	LogOutput     io.Writer
	Now           func() time.Time
	AlmaTransport http.RoundTripper
	EmailSender   func(ctx context.Context, cfg *config.Config) (email.Sender, error)
	S3Client      func(ctx context.Context, cfg *config.Config) (template.ObjectGetter, error)
	DotEnvFiles   []string
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.EmailSender == nil {
		opts.EmailSender = defaultEmailSender
	}
	if opts.S3Client == nil {
		opts.S3Client = defaultS3Client
	}

	cli := &CLI{reporter: export.NewReporter(opts.Output)}
	cli.rootCmd = commands.NewSlipsCmd(cli.reporter, commands.Dependencies{
		LogOutput:     opts.LogOutput,
		Now:           opts.Now,
		AlmaTransport: opts.AlmaTransport,
		EmailSender:   opts.EmailSender,
		S3Client:      opts.S3Client,
		DotEnvFiles:   opts.DotEnvFiles,
	})
	cli.rootCmd.SetOut(opts.Output)
	cli.rootCmd.SetErr(opts.LogOutput)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context, args ...string) error {
	if args != nil {
		cli.rootCmd.SetArgs(args)
	}
	return cli.rootCmd.ExecuteContext(ctx)
}

func defaultEmailSender(ctx context.Context, cfg *config.Config) (email.Sender, error) {
	awsCfg, err := cfg.AWS(ctx)
	if err != nil {
		return nil, err
	}
	return ses.NewFromConfig(awsCfg), nil
}

func defaultS3Client(ctx context.Context, cfg *config.Config) (template.ObjectGetter, error) {
	awsCfg, err := cfg.AWS(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg), nil
}

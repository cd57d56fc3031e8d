package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/phishlens/internal/di"
	"github.com/phishlens/internal/domain"
	"github.com/phishlens/internal/request"
	"github.com/phishlens/internal/service"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze an email or a URL",
	}
	cmd.AddCommand(newAnalyzeEmailCmd(a))
	cmd.AddCommand(newAnalyzeURLCmd(a))
	return cmd
}

func newAnalyzeEmailCmd(a *app) *cobra.Command {
	var (
		file        string
		showHeaders bool
		headers     domain.EmailHeaders
	)

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Analyze a full email body, read from --file or stdin",
		Example: `  phishlens analyze email --file suspicious.eml
  cat message.txt | phishlens analyze email --from billing@bank.com --reply-to help@bank-secure.tk`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(a.stdin, file)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			form := request.FormFields{
				EmailBody:   body,
				ShowHeaders: showHeaders || flags.Changed("from") || flags.Changed("reply-to") || flags.Changed("subject"),
				Headers:     headers,
			}
			return a.analyze(cmd.Context(), domain.ModeFullEmail, form)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&file, "file", "f", "", "file holding the email body (- for stdin)")
	flags.BoolVar(&showHeaders, "headers", false, "send headers even when all header flags are empty")
	flags.StringVar(&headers.From, "from", "", "From header")
	flags.StringVar(&headers.ReplyTo, "reply-to", "", "Reply-To header")
	flags.StringVar(&headers.Subject, "subject", "", "Subject header")

	return cmd
}

func newAnalyzeURLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "url <url>",
		Short:   "Analyze a single URL or address",
		Example: `  phishlens analyze url http://bit.ly/3xYz`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			if len(args) == 1 {
				url = args[0]
			}
			return a.analyze(cmd.Context(), domain.ModeURLOnly, request.FormFields{URL: url})
		},
	}
}

func (a *app) analyze(ctx context.Context, mode domain.AnalysisMode, form request.FormFields) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	container, err := di.BuildContainer(a.cfg)
	if err != nil {
		return err
	}

	return container.Invoke(func(d *service.Dashboard) error {
		result, err := d.Analyze(ctx, mode, form)
		if err != nil {
			return a.fail(err)
		}
		return a.renderer.Render(a.stdout, result)
	})
}

func readBody(stdin io.Reader, file string) (string, error) {
	if file != "" && file != "-" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

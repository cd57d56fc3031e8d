package main

import (
	"io"

	"github.com/joho/godotenv"
	"github.com/phishlens/internal/config"
	"github.com/phishlens/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is the state shared by all subcommands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	output     string
	noColor    bool
	verbose    bool

	v        *viper.Viper
	cfg      *config.Config
	renderer *report.Renderer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, v: config.NewViper()}

	// Command output goes to stdout; keep logs quiet unless asked
	a.v.SetDefault("logging.level", "warn")

	root := &cobra.Command{
		Use:   "phishlens",
		Short: "PhishLens checks emails and URLs for phishing",
		Long: `PhishLens sends an email or a URL to the phishing prediction backend
and reports the verdict, a risk gauge, the classifier breakdown and the
indicators that drove the decision.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./phishlens.yaml if present)")
	flags.String("backend", "", "prediction backend base URL")
	flags.Bool("mock", false, "simulate backend responses")
	flags.StringVarP(&a.output, "output", "o", "text", "output format: text, json or yaml")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	_ = a.v.BindPFlag("backend.base_url", flags.Lookup("backend"))
	_ = a.v.BindPFlag("backend.mock_mode", flags.Lookup("mock"))

	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newServeCmd(a))

	return root
}

func (a *app) setup() error {
	_ = godotenv.Load()

	if a.verbose {
		a.v.Set("logging.level", "debug")
	}

	cfg, err := config.LoadViper(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	format, err := report.ParseFormat(a.output)
	if err != nil {
		return err
	}
	a.renderer, err = report.NewRenderer(format, report.NewColorizer(a.stdout, a.noColor))
	if err != nil {
		return err
	}

	return nil
}

// reportedError is an error already shown to the user.
type reportedError struct {
	error
}

func (e *reportedError) Unwrap() error { return e.error }

// fail shows the user message for err in the chosen format and returns it
// so the process exits non-zero.
func (a *app) fail(err error) error {
	if a.renderer == nil {
		return err
	}
	if rerr := a.renderer.RenderError(a.stderr, err); rerr != nil {
		return err
	}
	return &reportedError{err}
}

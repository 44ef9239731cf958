package main

import (
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-pdf-form-filler/internal/config"
	"github.com/a3tai/mcp-pdf-form-filler/internal/filler"
	"github.com/a3tai/mcp-pdf-form-filler/internal/llm"
	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf"
	"github.com/a3tai/mcp-pdf-form-filler/internal/pdf/form"
	"github.com/a3tai/mcp-pdf-form-filler/internal/resilience"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// app holds the components shared by subcommands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	reader  *pdf.Reader
	service *filler.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "form-filler",
		Short:         "Fill PDF forms from donor documents",
		Long:          "Extracts a PDF form's fields, reads donor PDFs and text files, infers which donor values belong in which field, and writes a filled copy of the form.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetVersionTemplate(versionText())
	config.DefineFlags(root.PersistentFlags())

	root.AddCommand(newFillCmd(a), newFieldsCmd(), newServeCmd(a))
	return root
}

// init loads configuration and wires the pipeline.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := config.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Debug("configuration loaded", zap.Stringer("config", cfg))

	a.cfg = cfg
	a.logger = logger
	a.reader = pdf.NewReader(cfg.MaxFileSize)
	a.service = newService(cfg, logger, a.reader)
	return nil
}

// newService builds the pipeline from configuration.
func newService(cfg *config.Config, logger *zap.Logger, reader *pdf.Reader) *filler.Service {
	primary := llm.NewSonarClient(cfg.Primary.APIKey,
		llm.WithSonarBaseURL(cfg.Primary.BaseURL),
		llm.WithSonarModel(cfg.Primary.Model),
		llm.WithSonarHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
	)
	fallback := llm.NewOpenAIClient(cfg.Fallback.APIKey,
		llm.WithOpenAIBaseURL(cfg.Fallback.BaseURL),
		llm.WithOpenAIModel(cfg.Fallback.Model),
		llm.WithOpenAITimeout(cfg.RequestTimeout),
	)
	inferer := llm.NewClient(primary, fallback,
		llm.WithLogger(logger),
		llm.WithRetry(resilience.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff:     resilience.Exponential(cfg.Retry.Multiplier, cfg.Retry.MinWait, cfg.Retry.MaxWait),
		}),
	)

	if !cfg.HasCredentials() {
		logger.Warn("no API keys configured; set " + config.EnvSonarAPIKey + " or " + config.EnvOpenAIAPIKey)
	}

	writer := form.NewFiller(
		form.WithAutoRegenerate(cfg.AutoRegenerate),
		form.WithLogger(logger),
	)
	return filler.NewService(reader, inferer, writer,
		filler.WithLogger(logger),
		filler.WithPromptCharLimit(cfg.PromptCharLimit),
	)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// versionText returns the version banner.
func versionText() string {
	return fmt.Sprintf("PDF Form Filler\nVersion: %s\nBuild Time: %s\nGit Commit: %s\nBuilt with: %s\n",
		version, buildTime, gitCommit, runtime.Version())
}


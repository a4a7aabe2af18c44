// Package main is the entry point for the eml2md converter.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shineum/eml2md/internal/config"
	"github.com/shineum/eml2md/internal/convert"
	"github.com/shineum/eml2md/internal/formatter"
	"github.com/shineum/eml2md/internal/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("conversion failed", "error", err)
		stop()
		os.Exit(1)
	}
}

type options struct {
	input      string
	output     string
	format     string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "eml2md",
		Short: "Convert an EML message into a Markdown document",
		Long: "Convert an EML message into a Markdown document with a header table.\n" +
			"The html format embeds images referenced by the body as data URIs.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "path to the .eml file (\"-\" or empty reads stdin)")
	flags.StringVarP(&opts.output, "output", "o", "", "path to the .md file (\"-\" or empty writes stdout)")
	flags.StringVarP(&opts.format, "format", "f", formatter.NameSimple,
		"output format: "+strings.Join(formatter.Names(), ", "))
	flags.StringVar(&opts.configPath, "config", "", "path to YAML configuration file (optional)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlags(cmd, opts, cfg)

	setupLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	var maxSize int64
	if cfg.SizeLimited() {
		maxSize = cfg.Convert.MaxMessageSize
	}

	conv, err := convert.New(convert.Options{
		Format:         cfg.Convert.Format,
		MaxMessageSize: maxSize,
	})
	if err != nil {
		return err
	}

	destination := "stdout"
	if !cfg.WritesToStdout() {
		destination = cfg.Output.Path
	}
	slog.Debug("starting conversion",
		"input", opts.input,
		"output", destination,
		"format", conv.Format(),
		"size_limited", cfg.SizeLimited(),
	)

	in, name, err := openInput(cmd, opts.input)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	text, err := conv.Convert(in)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", name, err)
	}

	return output.New(cfg.Output.Path).Write(cmd.Context(), name, text)
}

// applyFlags lets explicitly set flags override file and environment values.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Convert.Format = strings.ToLower(opts.format)
	}
	if flags.Changed("output") {
		cfg.Output.Path = opts.output
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(opts.logLevel)
	}
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open input: %w", err)
	}
	return f, filepath.Base(path), nil
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with the specified level
// and handler format. Logs go to w so stdout stays free for documents.
func setupLogger(w io.Writer, level, format string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

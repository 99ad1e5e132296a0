// Package cli wires configuration, the answer service and the presentation
// surfaces into the asknehru command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"asknehru/internal/chunker"
	"asknehru/internal/config"
	"asknehru/internal/domain"
	"asknehru/internal/generator"
	"asknehru/internal/generator/gemini"
	"asknehru/internal/generator/openai"
	"asknehru/internal/knowledge"
	"asknehru/internal/logging"
	"asknehru/internal/metrics"
	"asknehru/internal/search"
	"asknehru/internal/service"
	"asknehru/internal/summarizer"
)

const serviceName = "asknehru"

var (
	cfgPath     string
	verbose     bool
	corpusPaths []string
)

// App holds everything a command needs.
type App struct {
	Config  *config.AppConfig
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Service *service.AnswerService

	logFile io.Closer
}

// Close releases the log file, if one was opened.
func (a *App) Close() error {
	if a == nil || a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	return err
}

var app *App

// buildApp is swapped out in tests.
var buildApp = newApp

var rootCmd = &cobra.Command{
	Use:   "asknehru",
	Short: "Ask questions of The Discovery of India",
	Long: `asknehru answers questions about Jawaharlal Nehru's "The Discovery of India".

It ranks passages of the book with a lexical search, then answers with a
generated reply when a model is configured, an extractive summary of the best
passages otherwise, or a curated answer when the book has nothing to say.

Without a subcommand it opens the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/asknehru/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringArrayVar(&corpusPaths, "corpus", nil, "corpus file or glob, repeatable (overrides config)")
	addChatFlags(rootCmd)
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := app.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close log file: %w", cerr)
	}
	return err
}

func newApp(cmd *cobra.Command) (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if len(corpusPaths) > 0 {
		cfg.Corpus = corpusPaths
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	w, logFile, err := logWriter(cmd, cfg)
	if err != nil {
		return nil, err
	}
	logger := logging.New(w, serviceName, cfg.Log.Format, level)
	slog.SetDefault(logger)

	kb, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}
	m := metrics.New()
	svc := service.NewAnswerService(
		chunker.NewWindowChunker(
			chunker.WithSize(cfg.Chunker.Size),
			chunker.WithOverlap(cfg.Chunker.Overlap),
			chunker.WithLookahead(cfg.Chunker.Lookahead),
		),
		search.NewLexicalSearcher(search.DefaultWeights(), cfg.Search.TopK),
		summarizer.NewExtractiveSummarizer(3, cfg.Summarizer.MaxSentences),
		buildGenerator(cfg, logger),
		kb,
		service.Options{
			Provenance:       cfg.Summarizer.Provenance,
			GeneratorTimeout: cfg.GeneratorTimeout(),
			Logger:           logger,
			Recorder:         m,
		},
	)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := svc.Load(ctx, cfg.Corpus...); err != nil {
		logger.Error("corpus not loaded; answering from the knowledge base only", "error", err)
	}
	return &App{Config: cfg, Logger: logger, Metrics: m, Service: svc, logFile: logFile}, nil
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

// logWriter keeps logs off stdout for the terminal UI, which owns the screen.
// The closer is nil unless a log file was opened.
func logWriter(cmd *cobra.Command, cfg *config.AppConfig) (io.Writer, io.Closer, error) {
	if cmd.HasParent() && cmd.Name() != "chat" {
		return cmd.ErrOrStderr(), nil, nil
	}
	if cfg.Log.File == "" {
		return io.Discard, nil, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f, nil
}

// buildGenerator degrades to generator.None when a backend cannot be set up.
func buildGenerator(cfg *config.AppConfig, logger *slog.Logger) domain.Generator {
	var (
		gen domain.Generator
		err error
	)
	switch cfg.Generator.Type {
	case "gemini":
		gc := cfg.Generator.Gemini
		if gc == nil {
			gc = &config.GeminiConfig{}
		}
		gen, err = gemini.NewClient(gemini.Config{
			BaseURL:   gc.BaseURL,
			APIKeyEnv: gc.APIKeyEnv,
			Model:     gc.Model,
			Timeout:   cfg.GeneratorTimeout(),
		})
	case "openai":
		oc := cfg.Generator.OpenAI
		if oc == nil {
			oc = &config.OpenAIConfig{}
		}
		gen, err = openai.NewClient(openai.Config{
			BaseURL:     oc.BaseURL,
			APIKeyEnv:   oc.APIKeyEnv,
			Model:       oc.Model,
			Temperature: oc.Temperature,
			Timeout:     cfg.GeneratorTimeout(),
		})
	default:
		return generator.None{}
	}
	if err != nil {
		logger.Warn("answer generator disabled, using extractive summaries", "generator", cfg.Generator.Type, "error", err)
		return generator.None{}
	}
	return generator.NewGuarded(gen, cfg.Resilience())
}

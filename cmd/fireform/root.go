package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/config"
	"github.com/jackzampolin/fireform/internal/fill"
	"github.com/jackzampolin/fireform/internal/home"
	"github.com/jackzampolin/fireform/internal/providers"
	"github.com/jackzampolin/fireform/internal/render"
	"github.com/jackzampolin/fireform/internal/templates"
	"github.com/jackzampolin/fireform/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "fireform",
	Short: "Fill report forms from incident transcripts with a local LLM",
	Long: `FireForm turns a free-text incident transcript into filled report forms.

For every field of a form it asks a language model (Ollama by default) for
the value, normalizes the reply, and writes the values onto the widgets of a
fillable PDF in reading order or through a LaTeX template.

  fireform fill --pdf incident.pdf -f "Officer" -f "Date" < transcript.txt
  fireform serve                 # HTTP API on 127.0.0.1:8080
  fireform api extract -t incident < transcript.txt`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.fireform/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "fireform home directory (default: ~/.fireform)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, err := api.ParseOutputFormat(outputFormat)
		if err != nil {
			return err
		}
		api.SetOutputFormat(format)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the text logger used by every command. Commands that
// print records log to stderr so stdout stays parseable.
func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(logLevel))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", logLevel)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// env is what local commands need: config, home, logger and services built
// from them.
type env struct {
	home   *home.Dir
	config *config.Manager
	logger *slog.Logger
}

func loadEnv(logOut io.Writer) (*env, error) {
	logger, err := newLogger(logOut)
	if err != nil {
		return nil, err
	}
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	cm.SetLogger(logger)
	return &env{home: h, config: cm, logger: logger}, nil
}

func (e *env) fillService() (*fill.Service, error) {
	cfg := e.config.Get()
	registry, err := providers.NewRegistry(cfg.ToProviderConfig(), e.logger)
	if err != nil {
		return nil, err
	}
	compiler, err := render.NewCompiler(cfg.Render.Engine, cfg.Render.Binary, cfg.Render.Image)
	if err != nil {
		return nil, err
	}
	return fill.NewService(fill.Config{
		Clients:  registry,
		Compiler: compiler,
		Passes:   cfg.Render.Passes,
		Logger:   e.logger,
	})
}

func (e *env) templates() (*templates.Store, error) {
	return templates.NewStore(e.home.TemplatesPath())
}

// template loads a stored template, or returns nil for an empty id.
func (e *env) template(id string) (*templates.Template, *templates.Store, error) {
	if id == "" {
		return nil, nil, nil
	}
	store, err := e.templates()
	if err != nil {
		return nil, nil, err
	}
	t, err := store.Get(id)
	if err != nil {
		return nil, nil, err
	}
	return t, store, nil
}

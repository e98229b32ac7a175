// Package cmd builds the command line: serve (default), migrate and version.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/m3rciful/delofix/core/buildinfo"
	"github.com/m3rciful/delofix/core/config"
	"github.com/m3rciful/delofix/core/logger"
)

// Options describe how to load configuration and run the application.
type Options struct {
	Use   string
	Short string

	// ConfigEnvVar names the variable holding the config path; default CONFIG_PATH.
	ConfigEnvVar      string
	DefaultConfigPath string
	// EnvFile is loaded into the environment when present; default ".env".
	EnvFile string

	LoadConfig func(path string) (*config.Config, error)
	Serve      func(ctx context.Context, cfg *config.Config) error
	Migrate    func(ctx context.Context, cfg *config.Config) error

	ShutdownLogger func() error
}

// NewRoot returns the root command. Running it without a subcommand serves.
func NewRoot(opts Options) *cobra.Command {
	opts.defaults()

	var (
		cfgPath string
		cfg     *config.Config
	)
	root := &cobra.Command{
		Use:           opts.Use,
		Short:         opts.Short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		fmt.Sprintf("path to the YAML config (overrides $%s)", opts.ConfigEnvVar))

	load := func(*cobra.Command, []string) error {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cmd: failed to load %s: %w", opts.EnvFile, err)
		}
		path := cfgPath
		if path == "" {
			path = os.Getenv(opts.ConfigEnvVar)
		}
		if path == "" {
			path = opts.DefaultConfigPath
		}
		if path != "" {
			log.Printf("loading config: %s", path)
		}
		var err error
		if cfg, err = opts.LoadConfig(path); err != nil {
			return fmt.Errorf("cmd: failed to load config: %w", err)
		}
		return nil
	}

	serve := func(cmd *cobra.Command, _ []string) error {
		if opts.Serve == nil {
			return errors.New("cmd: Serve is required")
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		defer func() {
			if err := opts.ShutdownLogger(); err != nil {
				log.Printf("logger shutdown error: %v", err)
			}
		}()

		startedAt := time.Now()
		logger.LogEvent(ctx, logger.Component(logger.CompApp), slog.LevelInfo, "start",
			slog.String("version", buildinfo.String()),
		)
		err := opts.Serve(ctx, cfg)
		logger.LogEvent(ctx, logger.Component(logger.CompApp), slog.LevelInfo, "shutdown",
			slog.String("status", logger.Status(err)),
			slog.Duration("uptime", logger.RoundMS(time.Since(startedAt))),
		)
		return err
	}
	root.PreRunE = load
	root.RunE = serve

	root.AddCommand(
		&cobra.Command{
			Use:     "serve",
			Short:   "Run the bot",
			PreRunE: load,
			RunE:    serve,
		},
		&cobra.Command{
			Use:     "migrate",
			Short:   "Apply pending database migrations and exit",
			PreRunE: load,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if opts.Migrate == nil {
					return errors.New("cmd: Migrate is required")
				}
				defer func() { _ = opts.ShutdownLogger() }()
				return opts.Migrate(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Println(buildinfo.String())
			},
		},
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(opts Options) int {
	if err := NewRoot(opts).ExecuteContext(context.Background()); err != nil {
		log.Printf("%s: %v", opts.Use, err)
		return 1
	}
	return 0
}

func (o *Options) defaults() {
	if o.Use == "" {
		o.Use = "bot"
	}
	if o.ConfigEnvVar == "" {
		o.ConfigEnvVar = "CONFIG_PATH"
	}
	if o.EnvFile == "" {
		o.EnvFile = ".env"
	}
	if o.LoadConfig == nil {
		o.LoadConfig = config.Load
	}
	if o.ShutdownLogger == nil {
		o.ShutdownLogger = logger.Shutdown
	}
}

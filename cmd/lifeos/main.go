// ABOUTME: Entry point for the lifeos tracker service and CLI
// ABOUTME: Wires cobra subcommands to config, store, tracker and server

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/2389/lifeos/internal/config"
	"github.com/2389/lifeos/internal/server"
	"github.com/2389/lifeos/internal/store"
	"github.com/2389/lifeos/internal/tracker"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _ _  __
 | (_)/ _| ___  ___  ___
 | | | |_ / _ \/ _ \/ __|
 | | |  _|  __/ (_) \__ \
 |_|_|_|  \___|\___/|___/
`

// app carries state shared by subcommands.
type app struct {
	configPath string
	logLevel   string
	out        io.Writer
	errOut     io.Writer
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "lifeos",
		Short:         "Life OS - daily, weekly and monthly tracker",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		a.serveCmd(),
		a.initCmd(),
		a.statusCmd(),
		a.addBookCmd(),
		a.addPersonCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.tokenCmd(),
		a.healthCmd(),
	)
	return root
}

// loadConfig reads the config file. A missing file at the default location
// yields the defaults; a missing explicit file is an error.
func (a *app) loadConfig() (*config.Config, string, error) {
	path := a.configPath
	explicit := path != ""
	if !explicit {
		path = config.Path()
	}

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit && os.Getenv("LIFEOS_CONFIG") == "" {
		cfg = config.Default()
		if p := os.Getenv("LIFEOS_DB_PATH"); p != "" {
			cfg.Database.Path = p
		}
		err = nil
	}
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	return cfg, path, nil
}

// openTracker opens the configured store and loads the tracker from it.
func (a *app) openTracker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tracker.Tracker, store.Store, error) {
	st, err := server.OpenStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	t := tracker.New(tracker.Config{
		Store:  st,
		Logger: logger,
	})
	if err := t.Load(ctx); err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return t, st, nil
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Fprint(a.out, banner)

	gray := color.New(color.FgHiBlack)
	gray.Fprintf(a.out, "    version: %s\n\n", version)

	cfg, configPath, err := a.loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, a.errOut)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Fprint(a.out, "    ▶ ")
	fmt.Fprintf(a.out, "Config:    %s\n", configPath)
	green.Fprint(a.out, "    ▶ ")
	fmt.Fprintf(a.out, "Database:  %s\n", describeDatabase(cfg.Database))
	green.Fprint(a.out, "    ▶ ")
	fmt.Fprintf(a.out, "HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Fprint(a.out, "    ▶ ")
	fmt.Fprintf(a.out, "Cache:     %s\n", cfg.Cache.Name)
	if cfg.Auth.JWTSecret == "" {
		yellow.Fprintln(a.out, "    ! auth disabled (no auth.jwt_secret)")
	}

	if cfg.Tailscale.Enabled {
		green.Fprint(a.out, "    ▶ ")
		fmt.Fprint(a.out, "Tailscale: ")
		cyan.Fprint(a.out, cfg.Tailscale.Hostname)
		if cfg.Tailscale.Ephemeral {
			gray.Fprint(a.out, " (ephemeral)")
		}
		fmt.Fprintln(a.out)
	}

	fmt.Fprintln(a.out)

	logger.Info("starting lifeos",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"driver", cfg.Database.Driver,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func describeDatabase(db config.DatabaseConfig) string {
	if db.Driver == config.DriverPostgres {
		return "postgres"
	}
	return db.Path
}

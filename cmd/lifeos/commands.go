// ABOUTME: Offline subcommands operating directly on the configured store
// ABOUTME: init, status, add-book, add-person, export, import, token and health

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/2389/lifeos/internal/auth"
	"github.com/2389/lifeos/internal/config"
	"github.com/2389/lifeos/internal/store"
	"github.com/2389/lifeos/internal/tracker"
)

// cliLogger logs to stderr at warn unless --log-level is given.
func (a *app) cliLogger(cfg *config.Config) *slog.Logger {
	lc := cfg.Logging
	if a.logLevel == "" {
		lc.Level = "warn"
	}
	logger := setupLogger(lc, a.errOut)
	slog.SetDefault(logger)
	return logger
}

// withTracker loads config, opens the tracker and runs fn.
func (a *app) withTracker(ctx context.Context, fn func(*tracker.Tracker) error) error {
	cfg, _, err := a.loadConfig()
	if err != nil {
		return err
	}
	t, st, err := a.openTracker(ctx, cfg, a.cliLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(t)
}

func (a *app) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file with a fresh JWT secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				path = config.Path()
			}
			return a.runInit(path, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}

func (a *app) runInit(path string, force bool) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return errors.New("init writes YAML; use a .yaml path")
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Auth.JWTSecret = secret
	if p := os.Getenv("LIFEOS_DB_PATH"); p != "" {
		cfg.Database.Path = p
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Fprint(a.out, "✓ ")
	fmt.Fprintf(a.out, "Wrote %s\n", path)
	green.Fprint(a.out, "✓ ")
	fmt.Fprintf(a.out, "Database: %s\n", cfg.Database.Path)
	return nil
}

// generateSecret returns a random 32-byte secret, base64 encoded.
func generateSecret() (string, error) {
	b := make([]byte, auth.MinSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show completion gauges and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTracker(cmd.Context(), func(t *tracker.Tracker) error {
				a.printStatus(cmd.Context(), t)
				return nil
			})
		},
	}
}

func (a *app) printStatus(ctx context.Context, t *tracker.Tracker) {
	snap := t.Export()
	st := t.Status()

	fmt.Fprintln(a.out, "Life OS")
	fmt.Fprintln(a.out, strings.Repeat("=", 32))
	for _, g := range st.Gauges {
		bandColor(g.Color).Fprintf(a.out, "  %-10s %3d%%\n", g.Section, g.Percent)
	}
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "  Books:  %d\n", len(snap.Reading))
	fmt.Fprintf(a.out, "  People: %d\n", len(snap.People))

	entry, err := t.Stored(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintln(a.out, "  Stored: nothing saved yet")
	case err != nil:
		fmt.Fprintf(a.out, "  Stored: unavailable (%v)\n", err)
	default:
		fmt.Fprintf(a.out, "  Stored: %d bytes, updated %s\n", entry.Size, entry.UpdatedAt.Local().Format(time.DateTime))
	}
}

// bandColor maps a gauge band to a terminal colour.
func bandColor(band string) *color.Color {
	switch band {
	case tracker.ColorHigh:
		return color.New(color.FgGreen)
	case tracker.ColorMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func (a *app) addBookCmd() *cobra.Command {
	var form tracker.BookForm
	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Append a book to the reading log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTracker(cmd.Context(), func(t *tracker.Tracker) error {
				book, ok := t.AddBook(cmd.Context(), form)
				if !ok {
					return errors.New("title is required")
				}
				if err := saveError(t); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Added %q (%s)\n", book.Title, book.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&form.Title, "title", "t", "", "book title (required)")
	cmd.Flags().StringVar(&form.Theme, "theme", "", "theme")
	cmd.Flags().StringVar(&form.Takeaways, "takeaways", "", "key takeaways")
	cmd.Flags().StringVar(&form.Insights, "insights", "", "insights")
	return cmd
}

func (a *app) addPersonCmd() *cobra.Command {
	var form tracker.ContactForm
	cmd := &cobra.Command{
		Use:   "add-person",
		Short: "Append a contact to the people tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTracker(cmd.Context(), func(t *tracker.Tracker) error {
				contact, ok := t.AddPerson(cmd.Context(), form)
				if !ok {
					return errors.New("name is required")
				}
				if err := saveError(t); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Added %q (%s)\n", contact.Name, contact.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&form.Name, "name", "n", "", "name (required)")
	cmd.Flags().StringVar(&form.Role, "role", "", "role or relationship")
	cmd.Flags().StringVar(&form.LastContact, "last-contact", "", "when you last spoke")
	cmd.Flags().StringVar(&form.Notes, "notes", "", "notes")
	cmd.Flags().StringVar(&form.FollowUpDate, "follow-up", "", "follow-up date")
	return cmd
}

// saveError returns the last save failure, if any.
func saveError(t *tracker.Tracker) error {
	if msg := t.Status().LastError; msg != "" {
		return fmt.Errorf("saving snapshot: %s", msg)
	}
	return nil
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTracker(cmd.Context(), func(t *tracker.Tracker) error {
				data, err := json.MarshalIndent(t.Export(), "", "  ")
				if err != nil {
					return fmt.Errorf("encoding snapshot: %w", err)
				}
				data = append(data, '\n')
				if out == "" || out == "-" {
					_, err = a.out.Write(data)
					return err
				}
				return os.WriteFile(out, data, 0600)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the snapshot with a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			return a.withTracker(cmd.Context(), func(t *tracker.Tracker) error {
				res, err := t.Import(cmd.Context(), data)
				if err != nil {
					return fmt.Errorf("importing: %w", err)
				}
				if res.Err != nil {
					return fmt.Errorf("saving snapshot: %w", res.Err)
				}
				a.printStatus(cmd.Context(), t)
				return nil
			})
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set; run `lifeos init` or set it in the config")
			}
			verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
			if err != nil {
				return err
			}
			token, err := verifier.Generate(subject, ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "owner", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime (0 for no expiry)")
	return cmd
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check a running server's readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.runHealth(cmd.Context(), "http://"+cfg.Server.HTTPAddr)
		},
	}
}

func (a *app) runHealth(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health/ready", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	fmt.Fprintln(a.out, strings.TrimSpace(string(body)))
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/analytics"
	"github.com/sadopc/tomato/internal/config"
	"github.com/sadopc/tomato/internal/export"
	"github.com/sadopc/tomato/internal/logging"
	"github.com/sadopc/tomato/internal/notify"
	"github.com/sadopc/tomato/internal/settings"
	"github.com/sadopc/tomato/internal/store"
	"github.com/sadopc/tomato/internal/timer"
	"github.com/sadopc/tomato/internal/tui"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:   "tomato",
		Short: "A Pomodoro timer that tracks focused work per project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}

			logger, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}

			s, err := store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer s.Close()

			svc := settings.NewService(s, logger)
			if cfg.Theme != "" {
				svc.Update(settings.Patch{Theme: &cfg.Theme})
			}

			engine := timer.New(svc, s, notify.NewDesktop(logger), logger)

			app := tui.NewApp(s, svc, engine)
			p := tea.NewProgram(app, tea.WithAltScreen())

			logger.Info().Str("db", cfg.DBPath).Msg("starting tomato")
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (default: user config dir)")
	root.AddCommand(statsCmd(&dbPath), exportCmd(&dbPath), versionCmd())
	return root
}

func openStore(dbPath string) (*store.Store, error) {
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		dbPath = cfg.DBPath
	}
	return store.New(dbPath)
}

// parseRange turns optional YYYY-MM-DD bounds into a [from, to) window.
func parseRange(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if err != nil {
			return nil, nil, fmt.Errorf("parse --from: %w", err)
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.ParseInLocation("2006-01-02", toStr, time.Local)
		if err != nil {
			return nil, nil, fmt.Errorf("parse --to: %w", err)
		}
		// Inclusive end date.
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	return from, to, nil
}

func statsCmd(dbPath *string) *cobra.Command {
	var fromStr, toStr string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print focus statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			from, to, err := parseRange(fromStr, toStr)
			if err != nil {
				return err
			}

			sum, err := analytics.Range(s, from, to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Focused time:     %s\n", formatStatMs(sum.TotalFocusMs))
			fmt.Fprintf(out, "Sessions:         %d (%d completed, %.0f%%)\n", sum.SessionCount, sum.CompletedCount, sum.CompletionRate)
			fmt.Fprintf(out, "Average session:  %s\n", formatStatMs(sum.AvgSessionMs))
			if len(sum.Projects) > 0 {
				fmt.Fprintln(out, "\nBy project:")
				for _, pb := range sum.Projects {
					fmt.Fprintf(out, "  %-24s %10s  %d sessions\n", pb.Name, formatStatMs(pb.TotalMs), pb.Sessions)
				}
			}
			if len(sum.Categories) > 0 {
				fmt.Fprintln(out, "\nBy category:")
				for _, cb := range sum.Categories {
					fmt.Fprintf(out, "  %-24s %10s  %d sessions\n", cb.Name, formatStatMs(cb.TotalMs), cb.Sessions)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date, inclusive (YYYY-MM-DD)")
	return cmd
}

func formatStatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %02dm", h, m)
}

func exportCmd(dbPath *string) *cobra.Command {
	var format, out, fromStr, toStr string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions to CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q: want csv or json", format)
			}

			s, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			from, to, err := parseRange(fromStr, toStr)
			if err != nil {
				return err
			}

			sessions, err := s.ListSessions(store.SessionFilter{From: from, To: to})
			if err != nil {
				return err
			}

			projects := make(map[string]store.Project)
			categories := make(map[string]store.Category)
			plist, err := s.ListProjects(true)
			if err != nil {
				return err
			}
			for _, p := range plist {
				projects[p.ID] = p
				clist, err := s.ListCategories(p.ID)
				if err != nil {
					return err
				}
				for _, c := range clist {
					categories[c.ID] = c
				}
			}

			if out == "" {
				home, _ := os.UserHomeDir()
				out = filepath.Join(home, fmt.Sprintf("tomato-export-%s.%s", time.Now().Format("2006-01-02"), format))
			}

			if format == "csv" {
				err = export.ToCSV(sessions, projects, categories, out)
			} else {
				err = export.ToJSON(sessions, projects, categories, out)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sessions to %s\n", len(sessions), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or json")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: ~/tomato-export-<date>.<format>)")
	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date, inclusive (YYYY-MM-DD)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tomato "+version)
		},
	}
}

// Package main is the entry point for the loadout CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flemzord/loadout/internal/compiler"
	"github.com/flemzord/loadout/internal/config"
	"github.com/flemzord/loadout/internal/engine"
	"github.com/flemzord/loadout/internal/sched"
	"github.com/flemzord/loadout/internal/server"
	"github.com/flemzord/loadout/internal/workspace"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "loadout",
		Short:         "Budget-constrained content compiler with learned ranking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringP("workspace", "w", "", "Workspace directory (overrides config)")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.AddCommand(
		versionCmd(),
		compileCmd(),
		serveCmd(),
		attentionCmd(),
		integrityCmd(),
		configCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("loadout %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func compileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile workspace sections into a budgeted payload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, ws, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			budget, _ := cmd.Flags().GetInt("budget")
			if budget <= 0 {
				budget = cfg.Budget
			}
			if budget <= 0 {
				return errors.New("no budget: set budget in the config or pass --budget")
			}

			eng, cleanup, err := buildEngine(cfg, ws, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			in, err := engine.LoadInput(ws, cfg)
			if err != nil {
				return err
			}
			if len(in.Sections) == 0 {
				return fmt.Errorf("no sections found in %s", ws.SectionsDir())
			}

			if reinforce, _ := cmd.Flags().GetStringSlice("reinforce"); len(reinforce) > 0 {
				if err := eng.Ledger().Reinforce(reinforce...); err != nil {
					logger.Warn("reinforcement not persisted", "error", err)
				}
			}

			result := eng.RunCycle(in.Sections, in.Critical, budget)

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Print(result.Output)
			return nil
		},
	}
	cmd.Flags().IntP("budget", "b", 0, "Compilation budget in cost units (overrides config)")
	cmd.Flags().StringSlice("reinforce", nil, "Section names to reinforce before compiling")
	cmd.Flags().Bool("json", false, "Emit the full result (payload + report) as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with scheduled maintenance jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, ws, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			eng, cleanup, err := buildEngine(cfg, ws, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(cfg, eng, ws, logger)
			if err := srv.Start(); err != nil {
				return err
			}

			scheduler := sched.NewScheduler(logger)
			if expr := cfg.Server.DecaySchedule; expr != "" {
				if err := scheduler.RegisterJob(&sched.AttentionDecayJob{
					Ledger:       eng.Ledger(),
					Logger:       logger,
					ScheduleExpr: expr,
				}); err != nil {
					return err
				}
			}
			if expr := cfg.Server.DriftSchedule; expr != "" {
				if err := scheduler.RegisterJob(&sched.IntegrityDriftJob{
					Monitor:      eng.Monitor(),
					Recorder:     srv.Metrics(),
					LoadCritical: criticalLoader(ws, cfg),
					Logger:       logger,
					ScheduleExpr: expr,
				}); err != nil {
					return err
				}
			}
			scheduler.Start()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			sig := <-sigCh
			logger.Info("shutdown signal received", "signal", sig.String())

			scheduler.Stop()
			if err := srv.Stop(context.Background()); err != nil {
				return err
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
}

func attentionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attention",
		Short: "Inspect and adjust the learned section weights",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "List tracked weights, highest first",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEngine(cmd, func(eng *engine.Engine, _ *workspace.Workspace, _ *config.Config) error {
					entries := eng.Ledger().Snapshot()
					if len(entries) == 0 {
						fmt.Println("No tracked weights.")
						return nil
					}
					for _, entry := range entries {
						fmt.Printf("%-30s %.3f\n", entry.Name, entry.Weight)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reinforce <name>...",
			Short: "Bump the weight of the named sections",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEngine(cmd, func(eng *engine.Engine, _ *workspace.Workspace, _ *config.Config) error {
					if err := eng.Ledger().Reinforce(args...); err != nil {
						return err
					}
					fmt.Printf("Reinforced %d section(s)\n", len(args))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "decay",
			Short: "Apply one decay tick to every weight",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEngine(cmd, func(eng *engine.Engine, _ *workspace.Workspace, _ *config.Config) error {
					if err := eng.Ledger().DecayAll(); err != nil {
						return err
					}
					fmt.Printf("Decayed; %d section(s) still tracked\n", eng.Ledger().Len())
					return nil
				})
			},
		},
	)
	return cmd
}

func integrityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Protect critical sections against silent corruption",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "snapshot",
			Short: "Adopt the current critical sections as the baseline",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEngine(cmd, func(eng *engine.Engine, ws *workspace.Workspace, cfg *config.Config) error {
					sections, err := criticalLoader(ws, cfg)()
					if err != nil {
						return err
					}
					if len(sections) == 0 {
						return errors.New("no critical sections configured")
					}
					if err := eng.Monitor().Snapshot(sections); err != nil {
						return err
					}
					fmt.Printf("Baseline covers %d section(s)\n", len(sections))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Compare critical sections against the baseline",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEngine(cmd, func(eng *engine.Engine, ws *workspace.Workspace, cfg *config.Config) error {
					sections, err := criticalLoader(ws, cfg)()
					if err != nil {
						return err
					}
					deviations, err := eng.Monitor().CheckDrift(sections)
					if err != nil {
						return err
					}
					if len(deviations) == 0 {
						fmt.Println("No drift detected.")
						return nil
					}
					for _, dev := range deviations {
						fmt.Printf("%s: %s\n", dev.Name, dev.Kind)
						if dev.Diff != "" {
							fmt.Println(dev.Diff)
						}
					}
					return fmt.Errorf("%d section(s) deviate from the baseline", len(deviations))
				})
			},
		},
		&cobra.Command{
			Use:   "restore",
			Short: "Rewrite deviating sections from their backups",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEngine(cmd, func(eng *engine.Engine, ws *workspace.Workspace, cfg *config.Config) error {
					// Refresh deviation state so restore acts on current drift.
					sections, err := criticalLoader(ws, cfg)()
					if err != nil {
						return err
					}
					if _, err := eng.Monitor().CheckDrift(sections); err != nil {
						return err
					}
					restored, err := eng.Monitor().Restore(func(name, content string) error {
						return os.WriteFile(ws.SectionPath(name), []byte(content), 0o644)
					})
					if err != nil {
						return err
					}
					if len(restored) == 0 {
						fmt.Println("Nothing to restore.")
						return nil
					}
					for _, name := range restored {
						fmt.Printf("Restored %s\n", name)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Println("Configuration OK")
			return nil
		},
	})
	return cmd
}

// setup loads configuration and resolves the workspace for one invocation.
func setup(cmd *cobra.Command) (*config.Config, *workspace.Workspace, *slog.Logger, error) {
	level := slog.LevelInfo
	if name, _ := cmd.Flags().GetString("log-level"); name != "" {
		if err := level.UnmarshalText([]byte(name)); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid log level %q", name)
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	root, _ := cmd.Flags().GetString("workspace")
	if root == "" {
		root = cfg.Workspace
	}
	if root == "" {
		root, _ = os.Getwd()
	}
	return cfg, workspace.New(root), logger, nil
}

// loadConfig loads the configured file, falling back to defaults when no
// file exists anywhere: loadout works out of the box on a bare workspace.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		resolved, err := config.ResolvePath()
		if err != nil {
			return &config.Config{}, nil
		}
		path = resolved
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withEngine runs fn with a fully wired engine and releases the storage
// backend afterwards.
func withEngine(cmd *cobra.Command, fn func(*engine.Engine, *workspace.Workspace, *config.Config) error) error {
	cfg, ws, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	eng, cleanup, err := buildEngine(cfg, ws, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(eng, ws, cfg)
}

// criticalLoader returns a loader for the monitored subset of the workspace,
// shared between the CLI commands and the scheduled drift sweep.
func criticalLoader(ws *workspace.Workspace, cfg *config.Config) func() ([]compiler.Section, error) {
	return func() ([]compiler.Section, error) {
		in, err := engine.LoadInput(ws, cfg)
		if err != nil {
			return nil, err
		}
		sections := make([]compiler.Section, 0, len(in.Critical))
		for _, sec := range in.Sections {
			if in.Critical[sec.Name] {
				sections = append(sections, sec)
			}
		}
		return sections, nil
	}
}

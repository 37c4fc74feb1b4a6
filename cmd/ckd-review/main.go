package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ckdreview/ckdreview/internal/config"
	"github.com/ckdreview/ckdreview/internal/platform/watch"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "ckd-review",
		Short:        "CKD register review from EMIS extracts",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("creatinine-file", "", "Creatinine extract (CSV or XLSX)")
	flags.String("ckd-check-file", "", "CKD register extract (CSV or XLSX)")
	flags.String("reference-dir", "", "Directory holding the drug reference tables")
	flags.String("guidance-file", "", "YAML file overriding the built-in medication and lifestyle guidance")
	flags.String("output-dir", "", "Directory for the review outputs")
	flags.String("merge-mode", "", "merged, ckd_check or creatinine")
	flags.String("as-of-date", "", "Date days-since-visit is measured against (YYYY-MM-DD)")
	flags.Bool("xlsx-export", false, "Also write the review as an Excel workbook")
	flags.Bool("publish-db", false, "Also publish the run to Postgres")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(dbCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Derive the review table once from the configured extracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := runReview(ctx, cfg, logger)
			if res != nil {
				printSummary(os.Stdout, res, cfg.OutputDir)
			}
			if err != nil {
				logger.Error().Err(err).Msg("review failed")
				return err
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the review whenever a configured extract changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			dir := cfg.WatchDir
			if dir == "" {
				dir = filepath.Dir(cfg.CKDCheckFile)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			inputs := map[string]bool{
				filepath.Base(cfg.CreatinineFile): true,
				filepath.Base(cfg.CKDCheckFile):   true,
			}
			trigger := func(ctx context.Context, changed []string) {
				relevant := false
				for _, f := range changed {
					if inputs[filepath.Base(f)] {
						relevant = true
						break
					}
				}
				if !relevant {
					logger.Debug().Strs("files", changed).Msg("ignoring unrelated files")
					return
				}
				res, err := runReview(ctx, cfg, logger)
				if res != nil {
					printSummary(os.Stdout, res, cfg.OutputDir)
				}
				if err != nil {
					logger.Error().Err(err).Msg("review failed")
				}
			}

			w := watch.New(dir, cfg.WatchDebounce, trigger, logger)
			if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
				existing, err := w.Backfill()
				if err != nil {
					return err
				}
				trigger(ctx, existing)
			}

			done, err := w.Start(ctx)
			if err != nil {
				return err
			}
			<-done
			logger.Info().Msg("watcher stopped")
			return nil
		},
	}
	cmd.Flags().String("watch-dir", "", "Directory to watch (defaults to the CKD register extract's directory)")
	cmd.Flags().Bool("run-now", false, "Run once for the extracts already present before watching")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ckdreview/ckdreview/internal/config"
	"github.com/ckdreview/ckdreview/internal/domain/reference"
	"github.com/ckdreview/ckdreview/internal/domain/review"
	"github.com/ckdreview/ckdreview/internal/domain/scoring"
	"github.com/ckdreview/ckdreview/internal/domain/triage"
	"github.com/ckdreview/ckdreview/internal/platform/db"
)

// serviceOptions maps configuration onto pipeline options.
func serviceOptions(cfg *config.Config) (review.Options, error) {
	opts := review.DefaultOptions()

	mode, err := review.ParseMergeMode(cfg.MergeMode)
	if err != nil {
		return opts, err
	}
	opts.MergeMode = mode

	asOf, err := cfg.AsOf()
	if err != nil {
		return opts, err
	}
	opts.AsOf = asOf
	opts.Workers = cfg.Workers
	opts.Match.Window = time.Duration(cfg.MatchWindowDays) * 24 * time.Hour
	opts.KFRE.ACRZeroSubstitute = cfg.ACRZeroSubstitute
	opts.Policy.EarlyACRInclusive = cfg.TriageACRInclusive
	if cfg.TriageFallbackLabel != "" {
		opts.Policy.Fallback = triage.Category(cfg.TriageFallbackLabel)
	}
	return opts, nil
}

func loadGuidance(cfg *config.Config) (*scoring.Guidance, error) {
	if cfg.GuidanceFile != "" {
		return scoring.LoadGuidance(cfg.GuidanceFile)
	}
	return scoring.DefaultGuidance()
}

// runReview performs one full run: reference tables, extracts, derivation
// and every configured output. Files are written before any database
// publish; a failed publish returns the result together with an error
// wrapping errPublish.
func runReview(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*review.Result, error) {
	tables, err := reference.Load(cfg.ReferenceDir, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", review.ErrMissingRequiredInput, err)
	}
	guidance, err := loadGuidance(cfg)
	if err != nil {
		return nil, fmt.Errorf("load guidance: %w", err)
	}
	opts, err := serviceOptions(cfg)
	if err != nil {
		return nil, err
	}

	svc := review.NewService(tables, guidance, opts, logger)
	res, err := svc.RunFiles(ctx, review.Inputs{
		CKDCheckPath:   cfg.CKDCheckFile,
		CreatininePath: cfg.CreatinineFile,
	})
	if err != nil {
		return nil, err
	}

	repos := []review.SnapshotRepository{review.NewSnapshotRepoCSV(cfg.OutputDir)}
	if cfg.XLSXExport {
		repos = append(repos, review.NewSnapshotRepoXLSX(cfg.OutputDir))
	}
	if err := review.SaveAll(ctx, res, repos...); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}
	logger.Info().
		Str("run_id", res.RunID.String()).
		Str("output_dir", cfg.OutputDir).
		Bool("xlsx", cfg.XLSXExport).
		Msg("review saved")

	if cfg.PublishDB {
		if err := publishReview(ctx, cfg, res); err != nil {
			logger.Error().Err(err).Str("run_id", res.RunID.String()).Msg("publish failed")
			return res, fmt.Errorf("%w: %w", errPublish, err)
		}
		logger.Info().Str("run_id", res.RunID.String()).Str("schema", cfg.DBSchema).Msg("review published")
	}
	return res, nil
}

// errPublish marks a run whose files were written but whose database
// publish failed.
var errPublish = errors.New("publish review")

// publishReview copies a saved result into Postgres.
func publishReview(ctx context.Context, cfg *config.Config, res *review.Result) error {
	pool, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	return review.NewSnapshotRepoPG(pool, cfg.DBSchema).Save(ctx, res)
}

// openStore connects to Postgres and brings the review schema up to date.
func openStore(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, err
	}
	migrator := db.NewMigrator(pool, db.Migrations, "migrations")
	if err := db.EnsureSchema(ctx, pool, cfg.DBSchema, migrator); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ckdreview/ckdreview/internal/config"
	"github.com/ckdreview/ckdreview/internal/platform/db"
)

// migrationSource returns the embedded schema unless --dir names a
// directory on disk.
func migrationSource(cmd *cobra.Command) (fs.FS, string) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		return db.Migrations, "migrations"
	}
	return os.DirFS(dir), "."
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the review store schema",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			fsys, dir := migrationSource(cmd)
			fmt.Printf("Running migrations on schema: %s\n", cfg.DBSchema)
			if err := db.EnsureSchema(ctx, pool, cfg.DBSchema, nil); err != nil {
				return err
			}
			count, err := db.NewMigrator(pool, fsys, dir).Up(ctx, cfg.DBSchema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("db-schema", "", "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Migrations directory on disk (defaults to the built-in schema)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			fsys, dir := migrationSource(cmd)
			statuses, err := db.NewMigrator(pool, fsys, dir).Status(ctx, cfg.DBSchema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", cfg.DBSchema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("db-schema", "", "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Migrations directory on disk (defaults to the built-in schema)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Review store utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check the review store connection and print pool statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			stats, pingErr := db.Check(ctx, pool)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(stats); err != nil {
				return err
			}
			return pingErr
		},
	})
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soaringjerry/Talentflow/internal/config"
	dbstore "github.com/soaringjerry/Talentflow/internal/db"
	"github.com/soaringjerry/Talentflow/internal/services"
)

func migrateCmd(load func() (*config.Config, error)) *cobra.Command {
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and optionally import a JSON snapshot",
		Long: `Apply pending schema migrations to the SQLite database.

With --snapshot, a JSON export of the browser app's IndexedDB is imported on first run,
i.e. only while the database holds no jobs.

Examples:
  talentflow migrate
  talentflow migrate --snapshot ./export.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return migrateIfNeeded(cmd.Context(), cmd.OutOrStdout(), cfg, snapshotPath)
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "JSON snapshot to import into an empty database")
	return cmd
}

func migrateIfNeeded(ctx context.Context, out io.Writer, cfg *config.Config, snapshotPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sqlDB, err := dbstore.Open(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			fmt.Fprintf(out, "%s failed to close sqlite db: %v\n", color.New(color.FgYellow).Sprint("warning:"), cerr)
		}
	}()

	applied, err := dbstore.RunMigrations(ctx, sqlDB, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if len(applied) == 0 {
		fmt.Fprintf(out, "%s schema is up to date\n", color.New(color.FgGreen).Sprint("✓"))
	}
	for _, name := range applied {
		fmt.Fprintf(out, "%s %s\n", color.New(color.FgGreen).Sprint("APPLIED"), name)
	}

	if snapshotPath == "" {
		return nil
	}
	snap, err := dbstore.LoadSnapshot(snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "%s snapshot %s not found, nothing to import\n", color.New(color.FgYellow).Sprint("SKIP"), snapshotPath)
			return nil
		}
		return fmt.Errorf("load snapshot: %w", err)
	}

	store, err := dbstore.NewSQLiteStore(sqlDB, nil)
	if err != nil {
		return fmt.Errorf("init sqlite store: %w", err)
	}
	if err := store.ImportSnapshot(ctx, snap); err != nil {
		if se, ok := services.AsServiceError(err); ok && se.Code == services.ErrorConflict {
			fmt.Fprintf(out, "%s %s, snapshot not imported\n", color.New(color.FgYellow).Sprint("SKIP"), se.Message)
			return nil
		}
		return fmt.Errorf("import snapshot: %w", err)
	}
	fmt.Fprintf(out, "%s %d jobs, %d candidates, %d assessments, %d submissions, %d notes\n",
		color.New(color.FgGreen).Sprint("IMPORTED"),
		len(snap.Jobs), len(snap.Candidates), len(snap.Assessments), len(snap.Submissions), len(snap.Notes))
	return nil
}

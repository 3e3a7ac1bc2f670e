package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/config"
	"github.com/Spok95/gymflow/internal/db"
	"github.com/Spok95/gymflow/internal/export"
	"github.com/Spok95/gymflow/internal/jobs"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/messaging"
)

type env struct {
	cfg   *config.Config
	store *db.Store
	log   *zap.Logger
	close func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, err
	}
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Closer()
		return nil, err
	}
	return &env{
		cfg:   cfg,
		store: db.NewStore(database),
		log:   lg.Base,
		close: func() { _ = database.Close(); lg.Closer() },
	}, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			if err := db.Migrate(cmd.Context(), e.store.DB); err != nil {
				return err
			}
			v, err := db.MigrationStatus(cmd.Context(), e.store.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			v, err := db.MigrationStatus(cmd.Context(), e.store.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	})
	return cmd
}

func exportCheckInsCmd() *cobra.Command {
	var orgFlag, fromFlag, toFlag, out string
	cmd := &cobra.Command{
		Use:   "export-checkins",
		Short: "Export an organization's check-ins to .xlsx",
		Long: `Export check-ins of one organization for the date window [from, to).

Examples:
  gymctl export-checkins --org 6f1c... --from 2024-01-01 --to 2024-02-01
  gymctl export-checkins --org 6f1c... --from 2024-01-01 --to 2024-02-01 -o janeiro.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := uuid.Parse(orgFlag)
			if err != nil {
				return fmt.Errorf("--org: %w", err)
			}
			from, err := time.Parse(time.DateOnly, fromFlag)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			to, err := time.Parse(time.DateOnly, toFlag)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			if !to.After(from) {
				return fmt.Errorf("--to must be after --from")
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()
			org, err := e.store.GetOrganization(ctx, orgID)
			if err != nil {
				return fmt.Errorf("organization %s: %w", orgID, err)
			}
			if out == "" {
				out = export.BuildCheckInsFilename(org.Name, from, to.AddDate(0, 0, -1))
			}
			n, err := writeFile(out, func(w io.Writer) (int, error) {
				return export.WriteCheckIns(ctx, e.store, orgID, from, to, e.cfg.Location, w)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d check-ins written to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgFlag, "org", "", "organization id")
	cmd.Flags().StringVar(&fromFlag, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&toFlag, "to", "", "day after the last one, YYYY-MM-DD")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func expireTrialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-trials",
		Short: "Deactivate organizations whose trial has ended",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			runner := jobs.New(cmd.Context(), e.log)
			return runner.RunOnce("expire_trials", jobs.ExpireTrials(e.store, time.Now, e.log))
		},
	}
}

func sendRemindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send-reminders",
		Short: "Send enrollment expiry reminders once",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			sender, err := messaging.NewSender(e.cfg.Messaging, e.log)
			if err != nil {
				return err
			}
			r := jobs.NewReminders(e.store, sender, e.cfg.Location, e.cfg.ReminderDaysBefore, e.log)
			return jobs.New(cmd.Context(), e.log).RunOnce("expiry_reminders", r.Run)
		},
	}
}

func writeFile(path string, fn func(w io.Writer) (int, error)) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := fn(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return n, err
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"data-migration-tool/internal/domain"
	"data-migration-tool/internal/usecase"
)

// migrateCmd はマイグレーションの適用コマンド。
func migrateCmd() *cobra.Command {
	var opts usecase.MigrateOptions
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply migrations and run their post scripts",
		Long: `Apply pending migrations up to --to (or all of them).

A migration's post script runs only when that migration was newly applied
by this invocation. When several migrations are applied in one step the
post script is skipped and must be run with "migratectl execute".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newMigrationService()
			if err != nil {
				return err
			}

			result, err := svc.Migrate(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			if len(result.Advanced) == 0 {
				fmt.Println("No migrations in range.")
				return nil
			}
			for _, name := range result.PostScripts {
				fmt.Printf("Ran post script for %s\n", name)
			}
			for _, s := range result.Skipped {
				switch s.Decision {
				case domain.PostScriptSkipAlreadyApplied:
					fmt.Printf("Skipped post script for %s (already applied)\n", s.Migration)
				default:
					fmt.Printf("Skipped post script for %s (%d steps applied at once); run \"migratectl execute %s\" if it is still needed\n",
						s.Migration, s.Delta, s.Migration)
				}
			}
			fmt.Printf("Database is up to date with %s.\n", result.Advanced[len(result.Advanced)-1])
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Target, "to", "", "Target migration name (defaults to the latest)")
	cmd.Flags().BoolVar(&opts.IncludeTarget, "include-target", true, "Apply the target migration itself")
	return cmd
}

// statusCmd はマイグレーションの適用状況を表示する。
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  "Show the status of all migrations (applied/pending)",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newMigrationService()
			if err != nil {
				return err
			}

			migrations, err := svc.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			// テーブル形式で出力
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tSCHEMA\tPOST SCRIPT\tAPPLIED AT")
			fmt.Fprintln(w, "----\t------\t------\t-----------\t----------")
			for _, m := range migrations {
				appliedAt := "-"
				if m.AppliedAt != nil {
					appliedAt = m.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.Name, m.Status, yesNo(m.HasSchema), yesNo(m.HasPostScript), appliedAt)
			}

			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush output: %w", err)
			}
			return nil
		},
	}
}

// executeCmd はポストスクリプトを手動で実行する。
func executeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <migration>",
		Short: "Run a migration's post script manually",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newMigrationService()
			if err != nil {
				return err
			}
			if err := svc.ExecutePostScript(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Ran post script for %s\n", args[0])
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

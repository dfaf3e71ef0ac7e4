package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"galactischevrienden/internal/service"
	"galactischevrienden/internal/validation"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:          "export <user-id>",
		Short:        "Export a player's hosted data to a JSON file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), rootOpts, cmd, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: backup_<user>_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func runExport(ctx context.Context, opts *RootOptions, cmd *cobra.Command, userID, output string) error {
	if err := validation.ValidateUserID(userID); err != nil {
		return err
	}
	if output == "" {
		output = fmt.Sprintf("backup_%s_%s.json", userID, time.Now().Format("20060102_150405"))
	}
	if dir := filepath.Dir(output); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := opts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	backup, err := service.NewBackupService(db, opts.logger(cmd.ErrOrStderr())).Export(ctx, userID, file)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s: %d stars, %d completed levels, %d week words, %d attempts\n",
		userID, output, backup.Progress.Stars, backup.Progress.CompletedCount(), len(backup.WeekWords), len(backup.Attempts))
	return nil
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <backup-file>",
		Short: "Merge a backup into the hosted database",
		Long: `Merge a backup into the hosted database. Progress is reconciled with
what is stored, so importing never removes stars, levels or items.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), rootOpts, cmd, args[0])
		},
	}
}

func runImport(ctx context.Context, opts *RootOptions, cmd *cobra.Command, input string) error {
	file, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	db, err := opts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	backup, err := service.NewBackupService(db, opts.logger(cmd.ErrOrStderr())).Import(ctx, file)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d week words, %d attempts\n", backup.UserID, len(backup.WeekWords), len(backup.Attempts))
	return nil
}

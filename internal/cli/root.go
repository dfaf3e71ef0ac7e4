// Package cli implements the galactictl maintenance commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"galactischevrienden/internal/config"
	"galactischevrienden/internal/database"
	"galactischevrienden/internal/wordbank"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	WordBankDir string
	DBPath      string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for galactictl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "galactictl",
		Short: "Maintenance tool for Galactische Vrienden",
		Long:  "Validate word banks, preview practice sessions and back up player data.",
		// main prints the error once
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.WordBankDir, "wordbank-dir", "", "read word banks from this directory instead of the embedded ones")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "sqlite database file; overrides the configured database")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSampleCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) wordBank() *wordbank.Repository {
	if o.WordBankDir != "" {
		return wordbank.NewRepositoryFromDir(o.WordBankDir)
	}
	return wordbank.NewRepository()
}

func (o *RootOptions) logger(errOut io.Writer) *zap.Logger {
	if !o.Verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(errOut, "failed to build logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

// openDB connects to the --db file or, without it, the configured database,
// and brings the schema up to date
func (o *RootOptions) openDB() (*database.DB, error) {
	var (
		db             *database.DB
		err            error
		migrationsPath string
	)
	if o.DBPath != "" {
		db, err = database.Initialize(o.DBPath)
	} else {
		cfg, cfgErr := config.Load()
		if cfgErr != nil {
			return nil, cfgErr
		}
		migrationsPath = cfg.MigrationsPath
		db, err = database.InitializeWithConfig(cfg)
	}
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

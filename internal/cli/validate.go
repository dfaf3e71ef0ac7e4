package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"galactischevrienden/internal/models"
)

// ErrInvalidContent is returned when a word bank has invalid entries
var ErrInvalidContent = errors.New("word banks contain invalid entries")

type validateIssue struct {
	Level models.AVILevel `json:"level"`
	Word  string          `json:"word"`
	Error string          `json:"error"`
}

type validateResult struct {
	Valid  bool                    `json:"valid"`
	Words  map[models.AVILevel]int `json:"words"`
	Issues []validateIssue         `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every word bank entry",
		Long: `Load all word banks and check that syllables spell each word,
syllable counts match and stress indexes are in range.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	bank := opts.wordBank()
	defer bank.Close()

	if err := bank.LoadAll(); err != nil {
		return err
	}

	result := validateResult{Words: make(map[models.AVILevel]int, len(models.AVILevels))}
	for _, level := range models.AVILevels {
		words, err := bank.Level(level)
		if err != nil {
			return err
		}
		result.Words[level] = len(words)
	}
	for _, issue := range bank.Issues() {
		result.Issues = append(result.Issues, validateIssue{Level: issue.Level, Word: issue.Word, Error: issue.Err.Error()})
	}
	result.Valid = len(result.Issues) == 0

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	} else {
		for _, level := range models.AVILevels {
			fmt.Fprintf(out, "%-6s %3d words\n", level, result.Words[level])
		}
		for _, issue := range result.Issues {
			fmt.Fprintf(out, "invalid %s/%s: %s\n", issue.Level, issue.Word, issue.Error)
		}
	}

	if !result.Valid {
		return fmt.Errorf("%w: %d", ErrInvalidContent, len(result.Issues))
	}
	return nil
}

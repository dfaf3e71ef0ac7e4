package cli

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"galactischevrienden/internal/models"
	"galactischevrienden/internal/service"
)

type sampleOptions struct {
	level string
	game  string
	size  int
	seed  int64
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sampleOptions{}

	cmd := &cobra.Command{
		Use:          "sample",
		Short:        "Print an offline practice session",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.level, "level", string(models.AVIStart), "AVI level")
	cmd.Flags().StringVar(&opts.game, "game", "", "only words the game can use (troll, jumper, ...)")
	cmd.Flags().IntVar(&opts.size, "size", service.DefaultSessionSize, "number of words")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 picks one)")

	return cmd
}

func runSample(rootOpts *RootOptions, opts *sampleOptions, cmd *cobra.Command) error {
	level := models.AVILevel(opts.level)
	if !level.Valid() {
		return fmt.Errorf("unknown AVI level %q", opts.level)
	}
	game := models.GameID(opts.game)
	if game != "" && !game.Valid() {
		return fmt.Errorf("unknown game %q", opts.game)
	}
	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	bank := rootOpts.wordBank()
	defer bank.Close()

	selector := service.NewWordSelector(bank, nil, nil, opts.size, rand.New(rand.NewSource(seed)), rootOpts.logger(cmd.ErrOrStderr()))
	words := selector.OfflineSample(level, game)

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return writeJSON(out, words)
	}
	for _, w := range words {
		fmt.Fprintf(out, "%-16s %-20s %s\n", w.Word, strings.Join(w.Syllables, "-"), w.Category)
	}
	return nil
}

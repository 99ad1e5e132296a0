package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var chunksLimit int

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Show how the corpus was chunked",
	Long: `Prints corpus statistics, a frequency-based overview of the book and the
first chunks as the searcher sees them.`,
	Args: cobra.NoArgs,
	RunE: runChunks,
}

func init() {
	chunksCmd.Flags().IntVarP(&chunksLimit, "limit", "n", 5, "number of chunks to print (0 = none, -1 = all)")
	rootCmd.AddCommand(chunksCmd)
}

func runChunks(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	stats := app.Service.Stats()
	fmt.Fprintf(out, "Sources:    %s\n", strings.Join(stats.Sources, ", "))
	fmt.Fprintf(out, "Characters: %d\n", stats.Chars)
	fmt.Fprintf(out, "Chunks:     %d\n", stats.Chunks)
	if !stats.LoadedAt.IsZero() {
		fmt.Fprintf(out, "Loaded:     %s\n", stats.LoadedAt.Format(time.RFC3339))
	}
	if ov := app.Service.Overview(); ov != "" {
		fmt.Fprintf(out, "\nOverview:\n  %s\n", ov)
	}

	chunks := app.Service.Chunks()
	if chunksLimit >= 0 && len(chunks) > chunksLimit {
		chunks = chunks[:chunksLimit]
	}
	for _, ch := range chunks {
		fmt.Fprintf(out, "\n#%d (%d chars)\n  %s\n", ch.ID, len([]rune(ch.Content)), snippet(ch.Content, snippetRunes))
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"asknehru/internal/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and exit",
	Long: `Answer a single question from the book and print it.

The answer comes from the first tier that can serve it: a generated reply over
the best passages, an extractive summary of them, a curated answer, or the
fallback guide.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	ans := app.Service.Answer(cmd.Context(), question)
	if askJSON {
		data, err := json.MarshalIndent(ans, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	writeAnswer(cmd.OutOrStdout(), ans)
	return nil
}

func writeAnswer(w io.Writer, ans domain.Answer) {
	fmt.Fprintln(w, ans.Content)
	fmt.Fprintln(w)
	if ans.Score != nil {
		fmt.Fprintf(w, "MATCH SCORE: %s\n", strconv.FormatFloat(*ans.Score, 'f', -1, 64))
	}
	if ans.Reference != "" {
		fmt.Fprintf(w, "Reference: %s\n", ans.Reference)
	}
	if n := len(ans.RelatedResults); n > 0 {
		fmt.Fprintf(w, "Based on %d relevant excerpt(s); run `asknehru search` to see them.\n", n)
	}
}

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"asknehru/internal/corpus"
	"asknehru/internal/speech"
	"asknehru/internal/tui"
)

var (
	chatSkipIntro bool
	chatWatch     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open the terminal chat with Nehru.

Controls:
  Enter     - Ask the typed question
  1-8       - Ask a suggested question (empty transcript only)
  ↑/↓       - Scroll the transcript
  Ctrl+S    - Read the last answer aloud / stop
  Ctrl+P    - Pause / resume reading
  Ctrl+C    - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&chatSkipIntro, "no-intro", false, "skip the opening scenes")
	cmd.Flags().BoolVar(&chatWatch, "watch", false, "reload the corpus when its files change")
}

func init() {
	addChatFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if chatWatch {
		startWatcher(ctx)
	}

	player := speech.NewPlayer(speech.NewExecEngine(app.Config.Speech.Command, app.Config.Speech.Args...))
	defer player.Stop()

	model := tui.New(app.Service, player, tui.Options{
		SkipIntro: chatSkipIntro,
		Overview:  app.Service.Overview(),
	})
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

// startWatcher reloads the corpus in the background whenever a loaded file changes.
func startWatcher(ctx context.Context) {
	files := app.Service.Stats().Sources
	if len(files) == 0 {
		app.Logger.Warn("nothing to watch: no corpus files loaded")
		return
	}
	go func() {
		err := corpus.Watch(ctx, files, func() {
			if _, err := app.Service.Load(ctx, app.Config.Corpus...); err != nil {
				app.Logger.Error("corpus reload failed", "error", err)
			}
		})
		if err != nil {
			app.Logger.Error("corpus watcher stopped", "error", err)
		}
	}()
}

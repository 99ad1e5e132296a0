package cli

import (
	"github.com/spf13/cobra"

	"asknehru/internal/httpapi"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve answers over HTTP",
	Long: `Start the JSON HTTP API.

Endpoints:
  POST /search    {"query"} -> {"summary", "references":[{"text","relevance"}]}
  POST /ask       {"query"} -> answer with score, reference and related passages
  POST /passages  {"query","limit"} -> ranked passages
  GET  /healthz
  GET  /metrics   Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the corpus when its files change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	addr := serveAddr
	if addr == "" {
		addr = app.Config.Server.Addr
	}
	if serveWatch {
		startWatcher(ctx)
	}
	handler := httpapi.NewRouter(app.Service, app.Metrics, app.Logger).Handler()
	return httpapi.Serve(ctx, addr, handler, app.Logger)
}

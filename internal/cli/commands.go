package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"metasearch/internal/config"
	"metasearch/internal/container"
	"metasearch/server"
	"metasearch/websearch"
)

const (
	CmdServe       = "serve"
	CmdSearch      = "search"
	CmdConfigCheck = "config-check"
	FlagConfig     = "config"
	FlagLang       = "lang"
	FlagXLSX       = "xlsx"
	FlagJSON       = "json"

	shutdownTimeout = 30 * time.Second
)

var (
	configPath string
	searchLang string
	xlsxPath   string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "metasearch",
	Short: "Multi-provider web search aggregator",
	Long: `Metasearch fans a query out to several search providers in parallel,
retries transient failures, caches successful results and returns one
aggregated result with a per-provider outcome.

  metasearch serve                  # HTTP API on the configured port
  metasearch search "golang"        # one aggregated search from the terminal
  metasearch config-check           # validate and print the effective config`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	serveCmd = &cobra.Command{
		Use:   CmdServe,
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}

	searchCmd = &cobra.Command{
		Use:   CmdSearch + " <query>",
		Short: "Run one aggregated search and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearchCmd,
	}

	configCheckCmd = &cobra.Command{
		Use:   CmdConfigCheck,
		Short: "Validate configuration and print it with secrets masked",
		Args:  cobra.NoArgs,
		RunE:  runConfigCheckCmd,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, FlagConfig, "c", "", "Path to YAML configuration file")

	searchCmd.Flags().StringVarP(&searchLang, FlagLang, "l", "", "Query language (BCP 47), defaults to web_search.default_language")
	searchCmd.Flags().StringVar(&xlsxPath, FlagXLSX, "", "Also save the result as an XLSX report")
	searchCmd.Flags().BoolVar(&outputJSON, FlagJSON, false, "Print the full result as JSON")

	rootCmd.AddCommand(serveCmd, searchCmd, configCheckCmd)
}

// Execute запускает корневую команду
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCommand возвращает корневую команду для тестов
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newContainer(cfg *config.Config, logOut io.Writer) (*container.Container, error) {
	logger := server.SetupLogger(logOut, cfg.LogLevel, cfg.LogFormat)
	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return c, nil
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := newContainer(cfg, os.Stdout)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, c)
	if err != nil {
		_ = c.Shutdown(context.Background())
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		_ = c.Shutdown(context.Background())
		return err
	case sig := <-quit:
		server.Logger.Info("Shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// логи в stderr, чтобы не смешивать их с результатом
	c, err := newContainer(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Shutdown(context.Background())
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	query := strings.Join(args, " ")
	result, err := c.WebSearchAggregator.Aggregate(ctx, query, searchLang)
	if err != nil {
		return err
	}

	if xlsxPath != "" {
		if err := websearch.SaveXLSX(xlsxPath, result); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(out, result)
	if xlsxPath != "" {
		fmt.Fprintf(out, "\nReport saved to %s\n", xlsxPath)
	}
	return nil
}

func runConfigCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "# configuration is valid")
	return cfg.Redacted().WriteYAML(out)
}

func printResult(w io.Writer, result *websearch.AggregatedResult) {
	fmt.Fprintf(w, "Query: %q (%s), %d ms\n", result.Query, result.Language, result.TotalLatencyMs)
	fmt.Fprintf(w, "Providers: %d attempted, %d succeeded, %d failed, %d items\n",
		result.Summary.Attempted, result.Summary.Succeeded, result.Summary.Failed, result.Summary.TotalItems)

	for _, id := range result.ProviderOrder {
		outcome := result.PerProvider[id]
		fmt.Fprintln(w)
		switch {
		case outcome.Error != nil:
			fmt.Fprintf(w, "[%s] error (%s): %s\n", id, outcome.Error.Kind, outcome.Error.UserMessage)
		case outcome.Data != nil:
			source := "live"
			if outcome.FromCache {
				source = "cache"
			}
			fmt.Fprintf(w, "[%s] %d items (%s)\n", id, outcome.Data.ItemCount, source)
			for i, item := range outcome.Data.Items {
				fmt.Fprintf(w, "  %d. %s\n     %s\n", i+1, item.Title, item.URL)
			}
		}
		if outcome.DirectURL != "" {
			fmt.Fprintf(w, "  open: %s\n", outcome.DirectURL)
		}
	}
}

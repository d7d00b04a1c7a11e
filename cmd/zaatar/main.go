package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/zaatar/internal/config"
	"github.com/young1lin/zaatar/internal/fetch"
	"github.com/young1lin/zaatar/internal/handler"
	"github.com/young1lin/zaatar/internal/search"
	"github.com/young1lin/zaatar/internal/summarize"
	"github.com/young1lin/zaatar/pkg/logger"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile string
	port    int
	showVer bool
)

var rootCmd = &cobra.Command{
	Use:   "zaatar",
	Short: "Web search and fetch API backed by SearXNG",
	Long: `An HTTP API exposing web_search and web_fetch. Searches are
delegated to a SearXNG instance and can be summarized by a local
Ollama model; fetched pages are reduced to readable markdown or text.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Printf("zaatar %s (built %s)\n", Version, BuildDate)
			return nil
		}

		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		logger.Info("starting server",
			zap.String("version", Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("searxng", cfg.SearXNG.BaseURL),
			zap.String("ollama", cfg.Ollama.BaseURL),
		)

		return startServer(cfg)
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Make sure the configured Ollama model is available, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		client := summarize.NewOllamaClient(&cfg.Ollama)
		return client.EnsureModelAvailable(context.Background(), client.Model())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ./config.yaml if present)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")
	rootCmd.AddCommand(pullCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and initializes the logger
func setup() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if port > 0 {
		cfg.Server.Port = port
	}
	if cfg.Fetch.UserAgent == "zaatar/dev" {
		cfg.Fetch.UserAgent = "zaatar/" + Version
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// warmUp is the startup phase: it runs once, before any request is accepted
func warmUp(cfg *config.Config, client *summarize.OllamaClient) {
	if !cfg.Ollama.PullOnStartup {
		logger.Info("skipping model pull on startup", zap.String("model", client.Model()))
		return
	}
	if err := client.EnsureModelAvailable(context.Background(), client.Model()); err != nil {
		// Search and fetch still work; summaries will fail per request
		logger.Error("failed to ensure ollama model, summaries will be unavailable",
			zap.String("model", client.Model()),
			zap.Error(err),
		)
	}
}

func startServer(cfg *config.Config) error {
	ollama := summarize.NewOllamaClient(&cfg.Ollama)
	h := handler.New(
		cfg,
		search.NewSearXNGProvider(&cfg.SearXNG, cfg.Search.MaxCount),
		fetch.NewFetcher(&cfg.Fetch),
		ollama,
		Version,
	)

	warmUp(cfg, ollama)
	h.MarkReady()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  config.Seconds(cfg.Server.ReadTimeout),
		WriteTimeout: config.Seconds(cfg.Server.WriteTimeout),
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return err
	case <-quit:
	}

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}

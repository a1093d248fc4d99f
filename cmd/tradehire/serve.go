package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/trade-hire/internal/config"
	"github.com/jonathan/trade-hire/internal/db"
	"github.com/jonathan/trade-hire/internal/extraction"
	"github.com/jonathan/trade-hire/internal/fetch"
	"github.com/jonathan/trade-hire/internal/llm"
	"github.com/jonathan/trade-hire/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing the extraction endpoints and form sessions.
Form sessions are stored in PostgreSQL when DATABASE_URL is set and in memory otherwise.
Bearer authentication is enabled when JWT_SECRET is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, PORT, or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
	if err != nil {
		return err
	}
	defer client.Close()

	opts := []extraction.Option{
		extraction.WithFetcher(newFetcher(cfg, !cfg.AllowPrivateFetch)),
		extraction.WithVerbose(cfg.Verbose),
	}

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return err
		}
		opts = append(opts, extraction.WithRecorder(database))
	} else {
		log.Println("[server] DATABASE_URL not set; form sessions are kept in memory")
	}

	srvCfg := server.Config{
		Port:           cfg.Port,
		Extractor:      extraction.NewPipeline(client, opts...),
		DB:             database,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}

	jwtCfg, err := config.LoadJWTConfig()
	if err != nil {
		return err
	}
	if jwtCfg != nil {
		srvCfg.Auth = server.NewJWTService(jwtCfg).AsTokenValidator()
	} else {
		log.Println("[server] JWT_SECRET not set; authentication disabled")
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

// newFetcher builds the website fetcher. The server refuses non-public addresses unless
// ALLOW_PRIVATE_FETCH is set; the local extract command does not.
func newFetcher(cfg config.Config, denyPrivate bool) fetch.Fetcher {
	opts := fetch.DefaultOptions()
	opts.UseBrowser = cfg.UseBrowser
	opts.Verbose = cfg.Verbose
	opts.DenyPrivate = denyPrivate
	if denyPrivate && cfg.UseBrowser {
		log.Println("[fetch] browser fallback disabled while private addresses are denied")
	}
	return fetch.New(opts)
}

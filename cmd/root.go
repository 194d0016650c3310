package cmd

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gober/internal/config"
	"gober/internal/embedder"
	"gober/internal/ingest"
	"gober/internal/knowledge"
	"gober/internal/logger"
	"gober/internal/store"
)

var (
	flagConfig  string
	flagData    string
	flagDB      string
	flagOllama  string
	flagModel   string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gober",
	Short: "Retrieval engine over the official development plan documents",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(flagVerbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Environment from .env, if present, feeds config defaults (OLLAMA_HOST).
	godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "gober.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "corpus directory (default ./data)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "vector database path (default ./gober.db)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "", "ollama base URL")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "embedding model")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging to stderr")
}

// loadConfig resolves the effective configuration: config file first, then
// non-empty flags override it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagData != "" {
		cfg.DataDir = flagData
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagOllama != "" {
		cfg.Embedder.BaseURL = flagOllama
	}
	if flagModel != "" {
		cfg.Embedder.Model = flagModel
	}
	return cfg, nil
}

// openService wires store, embedder, loader and the knowledge service from
// the effective config. The caller owns Close.
func openService() (*knowledge.Service, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.DBPath, cfg.Embedder.Dimension)
	if err != nil {
		return nil, nil, err
	}

	emb := embedder.NewOllamaEmbedder(cfg.Embedder.BaseURL, cfg.Embedder.Model,
		embedder.WithTimeout(time.Duration(cfg.Embedder.TimeoutSecs)*time.Second))
	loader := ingest.NewLoader(st, emb, cfg.DataDir, ingest.Options{
		MaxChars:  cfg.Chunker.MaxChars,
		RowBlock:  cfg.Chunker.RowBlock,
		BatchSize: cfg.Embedder.BatchSize,
	})

	svc := knowledge.New(st, emb, loader,
		knowledge.WithContextK(cfg.Search.ContextK),
		knowledge.WithAnswerK(cfg.Search.AnswerK),
	)
	return svc, cfg, nil
}

// Command voltdex is the entry point for the electrical documentation
// index: a CLI for ingestion and querying, plus an HTTP API server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/voltdex/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/voltdex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/voltdex/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/voltdex/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/voltdex/internal/adapters/driving/cli"
	"github.com/custodia-labs/voltdex/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/voltdex/internal/connectors/filesystem"
	"github.com/custodia-labs/voltdex/internal/connectors/googledrive"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/core/services"
	"github.com/custodia-labs/voltdex/internal/logger"
	"github.com/custodia-labs/voltdex/internal/segment"
	"github.com/custodia-labs/voltdex/internal/textextract"
	"github.com/custodia-labs/voltdex/internal/vocab"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "voltdex: %v\n", err)
		os.Exit(1)
	}
}

// metadataStore is the surface both storage backends provide.
type metadataStore interface {
	DocumentStore() driven.DocumentStore
	ChunkStore() driven.ChunkStore
	IngestStateStore() driven.IngestStateStore
	QueryLogStore() driven.QueryLogStore
	Close() error
}

func run() error {
	cfg, err := configfile.NewConfigStore(os.Getenv("VOLTDEX_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	settings := aiSettings(cfg)
	llm := ai.CreateLLMService(settings)
	embeddings := ai.CreateEmbeddingService(settings)
	defer func() {
		if llm != nil {
			_ = llm.Close()
		}
		if embeddings != nil {
			_ = embeddings.Close()
		}
	}()

	source, err := openSource(cfg)
	if err != nil {
		return err
	}

	vocabulary, err := loadVocabulary(cfg)
	if err != nil {
		return err
	}

	extractor := textextract.New(
		textextract.NewPlainText(),
		textextract.NewHTML(),
		textextract.NewPDF(),
		textextract.NewVision(llm),
		textextract.NewRawDecode(),
	)

	tagger := services.NewTagExtractor(llm, vocabulary)
	embedder := services.NewEmbeddingClient(embeddings)

	ingest := services.NewIngestService(
		store.DocumentStore(),
		store.ChunkStore(),
		store.IngestStateStore(),
		source,
		extractor,
		tagger,
		embedder,
		segment.NewConfig(vocabulary.SectionMarkers),
	)
	if budget := cfg.GetInt("ingest.batch_budget_seconds"); budget > 0 {
		ingest.SetBatchBudget(time.Duration(budget) * time.Second)
	}

	query := services.NewQueryService(
		store.ChunkStore(),
		store.QueryLogStore(),
		llm,
		embedder,
		vocabulary,
	)

	server := httpapi.NewServer(ingest, query)

	deps := cli.Deps{
		Ingest: ingest,
		Query:  query,
		Serve:  server.Listen,
	}
	if watchable, ok := source.(driven.WatchableSource); ok {
		deps.Watch = watchable.Watch
	}
	cli.Initialize(deps)
	return cli.Execute()
}

// openStore selects the storage backend. SQLite is the default;
// Postgres serves shared deployments.
func openStore(cfg driven.ConfigStore) (metadataStore, error) {
	switch backend := cfg.GetString("storage.backend"); backend {
	case "", "sqlite":
		store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	case "postgres":
		dsn := os.Getenv("VOLTDEX_POSTGRES_DSN")
		if dsn == "" {
			dsn = cfg.GetString("storage.postgres_dsn")
		}
		store, err := postgres.NewStore(context.Background(), postgres.Config{
			ConnString: dsn,
			Dimensions: cfg.GetInt("storage.embedding_dimensions"),
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// openSource selects the document source. A local directory is the
// default; Google Drive needs an OAuth access token.
func openSource(cfg driven.ConfigStore) (driven.DocumentSource, error) {
	switch backend := cfg.GetString("source.backend"); backend {
	case "", "filesystem":
		root := cfg.GetString("source.root")
		if root == "" {
			root = "."
		}
		return filesystem.New(root), nil
	case "googledrive":
		token := os.Getenv("GOOGLE_DRIVE_ACCESS_TOKEN")
		if token == "" {
			return nil, fmt.Errorf("source.backend googledrive requires GOOGLE_DRIVE_ACCESS_TOKEN")
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		return googledrive.New(context.Background(), ts)
	default:
		return nil, fmt.Errorf("unknown source backend %q", backend)
	}
}

// loadVocabulary loads a custom vocabulary file when configured,
// otherwise the embedded one.
func loadVocabulary(cfg driven.ConfigStore) (*vocab.Vocabulary, error) {
	path := cfg.GetString("vocab.path")
	if path == "" {
		return vocab.Builtin(), nil
	}
	v, err := vocab.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary %s: %w", path, err)
	}
	logger.Info("Loaded vocabulary from %s", path)
	return v, nil
}

// aiSettings merges provider settings from environment and config file.
// Environment variables win.
func aiSettings(cfg driven.ConfigStore) ai.Settings {
	settings := ai.DefaultSettings()

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		settings.GeminiAPIKey = key
	} else {
		settings.GeminiAPIKey = cfg.GetString("ai.gemini_api_key")
	}
	if models := cfg.GetStringSlice("ai.gemini_models"); len(models) > 0 {
		settings.GeminiModels = models
	}
	if models := cfg.GetStringSlice("ai.gemini_embed_models"); len(models) > 0 {
		settings.GeminiEmbedModels = models
	}

	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		settings.OllamaBaseURL = url
	} else {
		settings.OllamaBaseURL = cfg.GetString("ai.ollama_base_url")
	}
	if model := cfg.GetString("ai.ollama_model"); model != "" {
		settings.OllamaModel = model
	}
	if model := cfg.GetString("ai.ollama_embed_model"); model != "" {
		settings.OllamaEmbedModel = model
	}

	if timeout := cfg.GetInt("ai.timeout_seconds"); timeout > 0 {
		settings.Timeout = time.Duration(timeout) * time.Second
	}
	return settings
}

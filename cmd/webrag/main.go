package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"webrag/internal/answer"
	"webrag/internal/chunker"
	"webrag/internal/config"
	"webrag/internal/domain"
	"webrag/internal/embedding"
	"webrag/internal/embedding/hashing"
	embopenai "webrag/internal/embedding/openai"
	"webrag/internal/generation"
	"webrag/internal/generation/gemini"
	genopenai "webrag/internal/generation/openai"
	"webrag/internal/ingest"
	"webrag/internal/metadata"
	mdmemory "webrag/internal/metadata/memory"
	"webrag/internal/metadata/sqlite"
	"webrag/internal/retrieval"
	"webrag/internal/scraper"
	"webrag/internal/server"
	"webrag/internal/state"
	"webrag/internal/summarizer"
	"webrag/internal/tui"
	"webrag/internal/vectorindex"
	ixmemory "webrag/internal/vectorindex/memory"
	"webrag/internal/vectorindex/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, addr string
	var useTUI bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/webrag/config.yaml if not provided)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	flag.BoolVar(&useTUI, "tui", false, "Run the terminal UI instead of the HTTP server")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Printf("[config] Loaded %s", cfgPath)
	if urls := flag.Args(); len(urls) > 0 {
		cfg.Sources.URLs = urls
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if len(cfg.Sources.URLs) == 0 {
		fmt.Println("Usage: webrag [-config config.yaml] [-tui] [-addr :5000] url1 [url2 ...]")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Assemble components
	emb := buildEmbedder(ctx, cfg)
	log.Printf("[embedding] Using %s embedder (dimension %d)", emb.Name(), emb.Dimension())

	ix := buildIndex(ctx, cfg, emb.Dimension())
	md := buildMetadataStore(cfg)
	st, err := state.New(ix, md)
	if err != nil {
		log.Fatalf("retrieval state init failed: %v", err)
	}
	defer st.Close()

	gen := buildGenerator(cfg)
	log.Printf("[generation] Using %s generator", gen.Name())

	var splitter chunker.Splitter
	if cfg.Chunker.Type == "sentence" {
		splitter = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	}

	// Ingest every source, then freeze the state for serving.
	sc := scraper.New(scraper.Config{
		Timeout:      cfg.SourceTimeout(),
		UserAgent:    cfg.Sources.UserAgent,
		MaxBodyBytes: cfg.Sources.MaxBodyBytes,
	})
	pipeline := ingest.NewPipeline(emb, st, splitter)
	var ingested []string
	for _, url := range cfg.Sources.URLs {
		doc, err := sc.Fetch(ctx, url)
		if err != nil {
			log.Printf("[scraper] Skipping %s: %v", url, err)
			continue
		}
		report, err := pipeline.IngestDocument(ctx, doc)
		if err != nil {
			log.Fatalf("ingest %s failed: %v", url, err)
		}
		log.Printf("[ingest] %s: %d/%d chunks ingested, %d failed", url, report.Ingested, report.Total, len(report.Failed))
		ingested = append(ingested, doc.Chunks...)
	}
	st.Seal()
	log.Printf("[state] Sealed with %d chunks", st.Index.Count())

	summary := summarizer.NewFrequencySummarizer().Summarize(ingested, cfg.Summarizer.MaxSentences)
	if summary != "" {
		log.Printf("[summarizer] %s", domain.Preview(summary, 200))
	}

	retriever := retrieval.NewService(emb, st, cfg.Retrieval.TopK)
	composer := answer.NewComposer(retriever, gen, answer.Config{
		Temperature:     cfg.Generation.Temperature,
		MaxOutputTokens: cfg.Generation.MaxOutputTokens,
		Timeout:         cfg.GenerationTimeout(),
	})

	if useTUI {
		if _, err := tea.NewProgram(tui.New(composer, summary)).Run(); err != nil {
			log.Fatal(err)
		}
		return
	}

	srv, err := server.New(server.Config{Composer: composer, Chunks: st.Index.Count})
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func buildEmbedder(ctx context.Context, cfg *config.AppConfig) embedding.Embedder {
	switch cfg.Embedder.Type {
	case "hashing", "":
		emb, err := hashing.NewEmbedder(cfg.Embedder.Hashing.Dimension)
		if err != nil {
			log.Fatalf("hashing embedder init failed: %v", err)
		}
		return emb
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		o := cfg.Embedder.OpenAI
		client, err := embopenai.NewClient(ctx, embopenai.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Dimensions: o.Dimensions,
			Timeout:    time.Duration(o.TimeoutSecs) * time.Second,
			MaxRetries: o.MaxRetries,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}
	return nil
}

func buildIndex(ctx context.Context, cfg *config.AppConfig, dim int) vectorindex.Index {
	switch cfg.VectorIndex.Type {
	case "memory", "":
		ix, err := ixmemory.NewIndex(dim)
		if err != nil {
			log.Fatalf("memory index init failed: %v", err)
		}
		return ix
	case "qdrant":
		q := cfg.VectorIndex.Qdrant
		if q == nil {
			log.Fatalf("qdrant config missing")
		}
		var apiKey string
		if q.APIKeyEnv != "" {
			apiKey = strings.TrimSpace(os.Getenv(q.APIKeyEnv))
			if apiKey == "" {
				log.Fatalf("qdrant index init failed: %v: env %s is empty", domain.ErrMissingCredential, q.APIKeyEnv)
			}
		}
		ix, err := qdrant.NewIndex(ctx, qdrant.Config{
			URL:        q.URL,
			APIKey:     apiKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		}, dim)
		if err != nil {
			log.Fatalf("qdrant index init failed: %v", err)
		}
		log.Printf("[qdrant] Recreated collection %s at %s", q.Collection, q.URL)
		return ix
	default:
		log.Fatalf("unknown vector index: %s", cfg.VectorIndex.Type)
	}
	return nil
}

func buildMetadataStore(cfg *config.AppConfig) metadata.Store {
	switch cfg.MetadataStore.Type {
	case "memory", "":
		return mdmemory.NewStore()
	case "sqlite":
		dsn := ":memory:"
		if cfg.MetadataStore.SQLite != nil {
			dsn = cfg.MetadataStore.SQLite.DSN
		}
		s, err := sqlite.Open(dsn)
		if err != nil {
			log.Fatalf("sqlite metadata store init failed: %v", err)
		}
		return s
	default:
		log.Fatalf("unknown metadata store: %s", cfg.MetadataStore.Type)
	}
	return nil
}

func buildGenerator(cfg *config.AppConfig) generation.Generator {
	timeout := cfg.GenerationTimeout()
	switch cfg.Generation.Type {
	case "gemini", "":
		g := cfg.Generation.Gemini
		if g == nil {
			g = &config.GeminiConfig{}
		}
		client, err := gemini.NewClient(gemini.Config{Endpoint: g.Endpoint, APIKeyEnv: g.APIKeyEnv, Timeout: timeout})
		if err != nil {
			log.Fatalf("gemini generator init failed: %v", err)
		}
		return client
	case "openai":
		o := cfg.Generation.OpenAI
		if o == nil {
			o = &config.OpenAIGenerationConfig{}
		}
		client, err := genopenai.NewClient(genopenai.Config{BaseURL: o.BaseURL, APIKeyEnv: o.APIKeyEnv, Model: o.Model, Timeout: timeout})
		if err != nil {
			log.Fatalf("openai generator init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown generator: %s", cfg.Generation.Type)
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"knowledge-rag/internal/config"
	"knowledge-rag/internal/costs"
	"knowledge-rag/internal/embedding"
	"knowledge-rag/internal/helper"
	"knowledge-rag/internal/ingest"
	"knowledge-rag/internal/llmservice"
	"knowledge-rag/internal/models"
	"knowledge-rag/internal/rag"
	"knowledge-rag/internal/retriever"
	"knowledge-rag/internal/tokens"
	"knowledge-rag/internal/vectorstore"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	ingestAll := flag.Bool("ingest", false, "Rebuild the whole document index")
	category := flag.String("category", "", "Limit -ingest to one category, or re-index just that category")
	query := flag.String("query", "", "Question to answer against the indexed documents")
	stream := flag.Bool("stream", false, "Stream the answer token by token")
	stats := flag.Bool("stats", false, "Print index statistics")
	costReport := flag.String("costs", "", "Cost report: summary, breakdown, alerts, efficiency or export")
	days := flag.Int("days", 30, "Trailing window in days for cost reports")
	threshold := flag.Float64("threshold", 10.0, "Daily cost threshold for -costs alerts")
	format := flag.String("format", "json", "Output format for -costs export: json or csv")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	switch {
	case *ingestAll || (*category != "" && *query == ""):
		runIngest(ctx, cfg, *category)
	case *query != "":
		runQuery(ctx, cfg, *query, *stream)
	case *stats:
		runStats(cfg)
	case *costReport != "":
		runCostReport(ctx, cfg, *costReport, *days, *threshold, *format)
	default:
		flag.Usage()
	}
}

func openStore(cfg *config.Config) *vectorstore.Store {
	store, err := vectorstore.New(cfg.VectorDB.Path, cfg.VectorDB.Collection, cfg.VectorDB.InMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	return store
}

func runIngest(ctx context.Context, cfg *config.Config, category string) {
	store := openStore(cfg)

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	engine := ingest.NewEngine(store, embedder, &cfg.RAG)

	var summary *models.IngestSummary
	if category != "" {
		summary, err = engine.IngestCategory(ctx, category)
	} else {
		summary, err = engine.IngestAll(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting documents")
	}

	helper.PrettyPrint(summary)
}

func runQuery(ctx context.Context, cfg *config.Config, query string, stream bool) {
	store := openStore(cfg)

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	generator, err := llmservice.NewClient(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	tracker := openTracker(ctx, cfg)
	var sink rag.CostSink
	if tracker != nil {
		defer tracker.Close()
		sink = tracker
	}

	searcher := retriever.New(embedder, store)
	engine := rag.NewEngine(searcher, generator, tokens.NewCounter(), sink, &cfg.ChatLLM)

	if stream {
		streamAnswer(ctx, engine, query)
		return
	}

	answer, err := engine.Answer(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}
	printAnswer(query, answer)
}

func streamAnswer(ctx context.Context, engine *rag.Engine, query string) {
	fmt.Printf("Q: %s\n\n", query)
	for ev := range engine.AnswerStream(ctx, query) {
		switch ev.Type {
		case models.StreamToken:
			fmt.Print(ev.Content)
		case models.StreamSources:
			fmt.Printf("\n\nSources (confidence %.2f):\n", ev.Confidence)
			for _, hit := range ev.Sources {
				fmt.Printf("  %d. %s (%.0f%%)\n", hit.Rank, hit.Chunk.Title, hit.Score*100)
			}
			fmt.Printf("Estimated cost: $%.6f\n", ev.Cost.EstimatedCost)
		case models.StreamError:
			log.Fatal().Err(ev.Err).Msg("Error answering query")
		}
	}
}

func printAnswer(query string, answer *models.Answer) {
	fmt.Printf("Q: %s\n\n%s\n\n", query, answer.Text)
	if answer.Degraded {
		fmt.Println("(assistant unavailable, answer built from document excerpts)")
	}
	fmt.Printf("Confidence: %.2f\n", answer.Confidence)
	if len(answer.Sources) > 0 {
		fmt.Println("Sources:")
		for _, hit := range answer.Sources {
			fmt.Printf("  %d. %s (%.0f%%)\n", hit.Rank, hit.Chunk.Title, hit.Score*100)
		}
	}
	fmt.Printf("Tokens: %d in / %d out, estimated cost $%.6f\n",
		answer.Cost.InputTokens, answer.Cost.OutputTokens, answer.Cost.EstimatedCost)
}

func runStats(cfg *config.Config) {
	store := openStore(cfg)

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	engine := ingest.NewEngine(store, embedder, &cfg.RAG)
	helper.PrettyPrint(engine.Stats())
}

// openTracker connects the cost store when one is configured. Cost tracking
// is optional; answering works without it.
func openTracker(ctx context.Context, cfg *config.Config) *costs.Tracker {
	if cfg.Database.DSN == "" {
		log.Debug().Msg("no cost database configured, skipping cost tracking")
		return nil
	}

	sqldb, err := costs.ConnectDB(&cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("cost database unavailable, continuing without tracking")
		return nil
	}

	tracker := costs.NewTracker(sqldb, cfg.Database.Debug)
	if err := tracker.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("cost table init failed, continuing without tracking")
		tracker.Close()
		return nil
	}
	return tracker
}

func runCostReport(ctx context.Context, cfg *config.Config, report string, days int, threshold float64, format string) {
	if cfg.Database.DSN == "" {
		log.Fatal().Msg("cost reports need a configured cost database")
	}

	sqldb, err := costs.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to cost database")
	}
	tracker := costs.NewTracker(sqldb, cfg.Database.Debug)
	defer tracker.Close()

	switch report {
	case "summary":
		summary, err := tracker.Summary(ctx, days)
		if err != nil {
			log.Fatal().Err(err).Msg("Error building cost summary")
		}
		helper.PrettyPrint(summary)
	case "breakdown":
		breakdown, err := tracker.Breakdown(ctx, days)
		if err != nil {
			log.Fatal().Err(err).Msg("Error building model breakdown")
		}
		helper.PrettyPrint(breakdown)
	case "alerts":
		alerts, err := tracker.Alerts(ctx, threshold)
		if err != nil {
			log.Fatal().Err(err).Msg("Error checking cost alerts")
		}
		if len(alerts) == 0 {
			fmt.Printf("No days over $%.2f in the last week.\n", threshold)
			return
		}
		helper.PrettyPrint(alerts)
	case "efficiency":
		efficiency, err := tracker.Efficiency(ctx, days)
		if err != nil {
			log.Fatal().Err(err).Msg("Error computing efficiency metrics")
		}
		helper.PrettyPrint(efficiency)
	case "export":
		out, err := tracker.Export(ctx, format, days)
		if err != nil {
			log.Fatal().Err(err).Msg("Error exporting cost data")
		}
		fmt.Println(out)
	default:
		log.Fatal().Str("report", report).Msg("unknown cost report, use summary, breakdown, alerts, efficiency or export")
	}
}

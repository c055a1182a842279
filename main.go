package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coursekb/virtual-ta/api"
	"github.com/coursekb/virtual-ta/config"
	"github.com/coursekb/virtual-ta/database"
	"github.com/coursekb/virtual-ta/embeddings"
	"github.com/coursekb/virtual-ta/index"
	"github.com/coursekb/virtual-ta/ingestion"
	"github.com/coursekb/virtual-ta/llm"
	"github.com/coursekb/virtual-ta/search"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "search":
		searchCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "eval":
		evalCmd(cfg, logger, os.Args[2:])
	case "stats":
		statsCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func newSearchService(ctx context.Context, cfg config.Config, logger *log.Logger) (*search.Service, func(), error) {
	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres connection: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("embedder setup: %w", err)
	}

	store := index.NewPostgres(pool)
	svc := search.NewService(store, embedder, logger, search.Options{
		SemanticWeight: cfg.Retrieval.SemanticWeight,
		LexicalDivisor: cfg.Retrieval.LexicalDivisor,
	})
	return svc, pool.Close, nil
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataDir := flags.String("dir", cfg.DataDir, "directory containing forum JSON and docs JSONL exports")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	svc := ingestion.NewService(index.NewPostgres(pool), embedder, logger, cfg.Retrieval)
	logger.Printf("ingesting corpus from %s using %s/%s embeddings", *dataDir, strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)

	count, err := svc.IngestDirectory(ctx, *dataDir)
	if err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}
	logger.Printf("done: %d chunks indexed", count)
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to ask")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	searcher, closeFn, err := newSearchService(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer closeFn()

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	answer, links, err := api.Answer(ctx, searcher, llmClient, *question, "")
	if err != nil {
		logger.Fatalf("ask failed: %v", err)
	}

	fmt.Println(answer)
	if len(links) > 0 {
		fmt.Println()
		fmt.Println("Links:")
		for _, link := range links {
			fmt.Printf("- %s (%s)\n", link.Text, link.URL)
		}
	}
}

func searchCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	query := flags.String("query", "", "search query")
	k := flags.Int("k", 5, "number of results")
	category := flags.String("category", "", "restrict to one category")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse search flags: %v", err)
	}
	if strings.TrimSpace(*query) == "" && strings.TrimSpace(*category) == "" {
		logger.Fatal("query or category is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	searcher, closeFn, err := newSearchService(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer closeFn()

	// A bare category lists its chunks instead of ranking.
	if strings.TrimSpace(*query) == "" {
		entries, err := searcher.Browse(ctx, index.Category(*category), *k)
		if err != nil {
			logger.Fatalf("browse category: %v", err)
		}
		if len(entries) == 0 {
			fmt.Println("no results")
			return
		}
		for i, entry := range entries {
			snippet := entry.Text
			if len(snippet) > 200 {
				snippet = snippet[:200] + "..."
			}
			fmt.Printf("%d. [%s] %s\n   %s\n", i+1, entry.Meta.Category, entry.ID, snippet)
		}
		return
	}

	results := searcher.Hybrid(ctx, *query, *k, index.Category(*category))
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}

	for i, result := range results {
		fmt.Printf("%d. [%s] %.3f (semantic %.3f, lexical %.3f) %s\n",
			i+1, result.Meta.Category, result.Score, result.SemanticScore, result.LexicalScore, result.ID)
		if result.Meta.Title != "" {
			fmt.Printf("   %s\n", result.Meta.Title)
		}
		if result.Meta.URL != "" {
			fmt.Printf("   %s\n", result.Meta.URL)
		}
		snippet := result.Text
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		fmt.Printf("   %s\n", snippet)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.HTTPAddr, "listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	searcher, closeFn, err := newSearchService(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer closeFn()

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Printf("llm setup: %v (serving degraded, answers unavailable)", err)
		llmClient = nil
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(searcher, llmClient, cfg.Embeddings.Model, logger),
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Printf("listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("serve: %v", err)
	}
}

func evalCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("eval", flag.ExitOnError)
	casesPath := flags.String("cases", "", "path to a JSON file of labeled evaluation cases")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse eval flags: %v", err)
	}
	if *casesPath == "" {
		logger.Fatal("cases file is required")
	}

	data, err := os.ReadFile(*casesPath)
	if err != nil {
		logger.Fatalf("read cases: %v", err)
	}

	var cases []search.Case
	if err := json.Unmarshal(data, &cases); err != nil {
		logger.Fatalf("parse cases: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	searcher, closeFn, err := newSearchService(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer closeFn()

	metrics := searcher.Evaluate(ctx, cases)
	fmt.Printf("cases: %d\n", len(cases))
	fmt.Printf("MAP:       %.4f\n", metrics.MAP)
	fmt.Printf("Precision: %.4f\n", metrics.Precision)
	fmt.Printf("Recall:    %.4f\n", metrics.Recall)
}

func statsCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse stats flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	searcher, closeFn, err := newSearchService(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer closeFn()

	stats, err := searcher.Stats(ctx)
	if err != nil {
		logger.Fatalf("stats: %v", err)
	}

	fmt.Printf("total chunks: %d\n", stats.TotalDocuments)
	for category, count := range stats.Categories {
		fmt.Printf("  %s: %d\n", category, count)
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete the indexed corpus. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := index.NewPostgres(pool).Clear(ctx); err != nil {
		logger.Fatalf("clear index: %v", err)
	}
	logger.Println("indexed corpus removed")
}

func printUsage() {
	fmt.Println("Usage: virtual-ta <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  ingest   Index forum/docs exports into Postgres (use --dir to override data directory)")
	fmt.Println("  ask      Answer one question using the indexed corpus")
	fmt.Println("  search   Run a raw hybrid retrieval query, or list a category with -category alone")
	fmt.Println("  serve    Start the question-answering HTTP API")
	fmt.Println("  eval     Score retrieval quality against labeled cases")
	fmt.Println("  stats    Print corpus statistics")
	fmt.Println("  clear    Remove the indexed corpus")
}

// Copyright 2026 The Codemem Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/codemem/codemem"
	"github.com/codemem/codemem/ai"
	"github.com/codemem/codemem/config"
	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/ingestion"
	"github.com/codemem/codemem/orchestration"
	"github.com/codemem/codemem/query"
	"github.com/codemem/codemem/reembed"
)

func main() {
	app := &cli.App{
		Name:   "codemem",
		Usage:  "Semantic memory store for code snippets",
		Before: setup,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (defaults to ./codemem.yaml)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to database directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides config)",
			},
			&cli.StringFlag{
				Name:  "agent-host",
				Usage: "Reasoning agent host URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "agent-model",
				Usage: "Reasoning agent model name (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest snippets from a JSON-Lines file (one object per line)",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent ingestion workers",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search stored snippets by similarity",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "project",
						Aliases: []string{"p"},
						Usage:   "Restrict results to one project",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Drop results scoring below this threshold",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print search stage details to stderr",
					},
				},
			},
			{
				Name:      "orchestrate",
				Usage:     "Run a task graph over snippets retrieved for a query",
				ArgsUsage: "QUERY",
				Action:    orchestrateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "project",
						Aliases: []string{"p"},
						Usage:   "Restrict retrieval to one project",
					},
					&cli.StringSliceFlag{
						Name:    "task",
						Aliases: []string{"t"},
						Usage:   "Task declaration id:kind[:dep1,dep2] (repeatable)",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of snippets to retrieve as task context",
					},
					&cli.StringFlag{
						Name:  "merge",
						Usage: "Merge policy: strict or best_effort",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Deadline for the whole run",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute stored embeddings with the configured model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "project",
						Aliases: []string{"p"},
						Usage:   "Restrict to one project",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Probe every capability and report status",
				Action: healthCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}

	// Missing .env is fine; only surface real read failures.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "err", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig merges the YAML config with command-line overrides.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.String("db"); v != "" {
		cfg.DatabasePath = v
	}
	if v := c.String("embedding-host"); v != "" {
		cfg.AI.EmbeddingHost = v
	}
	if v := c.String("embedding-model"); v != "" {
		cfg.AI.EmbeddingModel = v
	}
	if v := c.String("agent-host"); v != "" {
		cfg.AI.AgentHost = v
	}
	if v := c.String("agent-model"); v != "" {
		cfg.AI.AgentModel = v
	}
	return cfg, nil
}

func openStore(c *cli.Context) (*codemem.Store, *config.AppConfig, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	var aiOpts []ai.ConfigOption
	if cfg.AI.EmbeddingHost != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingHost(cfg.AI.EmbeddingHost))
	}
	if cfg.AI.AgentHost != "" {
		aiOpts = append(aiOpts, ai.WithAgentHost(cfg.AI.AgentHost))
	}
	if cfg.AI.EmbeddingModel != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingModel(cfg.AI.EmbeddingModel))
	}
	if cfg.AI.AgentModel != "" {
		aiOpts = append(aiOpts, ai.WithAgentModel(cfg.AI.AgentModel))
	}
	if cfg.AI.EmbeddingDim > 0 {
		aiOpts = append(aiOpts, ai.WithEmbeddingDim(cfg.AI.EmbeddingDim))
	}

	aiConfig := ai.NewConfig(aiOpts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	store, err := codemem.Open(cfg.DatabasePath, codemem.WithAIConfig(aiConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store at %s: %w", cfg.DatabasePath, err)
	}
	return store, cfg, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one FILE argument")
	}
	path := c.Args().First()

	store, cfg, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	var pipelineOpts []ingestion.Option
	workers := c.Int("workers")
	if workers == 0 {
		workers = cfg.Ingestion.Workers
	}
	if workers > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithWorkers(workers))
	}

	pipeline, err := store.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	summary, err := pipeline.IngestReader(c.Context, path, file)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %s: %d accepted, %d skipped, %d failed\n",
		summary.Source, summary.Accepted, summary.Skipped, summary.Failed)
	for _, itemErr := range summary.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", itemErr.Error())
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d items failed", summary.Failed)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one QUERY argument")
	}
	queryText := c.Args().First()

	store, cfg, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := store.NewQueryEngine()
	if err != nil {
		return err
	}

	topK := c.Int("top-k")
	if topK == 0 {
		topK = cfg.Search.TopK
	}
	minScore := float32(c.Float64("min-score"))
	if minScore == 0 {
		minScore = cfg.Search.MinScore
	}

	opts := []query.SearchOption{query.WithTopK(topK), query.WithMinScore(minScore)}
	if project := c.String("project"); project != "" {
		opts = append(opts, query.WithProject(project))
	}
	if c.Bool("verbose") {
		opts = append(opts, query.WithMonitor(&stderrMonitor{}))
	}

	results, err := engine.Search(c.Context, queryText, opts...)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No matching snippets.")
		return nil
	}

	for i, hit := range results {
		doc := hit.Document
		fmt.Printf("%d. %s/%s [%s] score=%.4f\n", i+1, doc.ProjectID, doc.Name, doc.Language, hit.Score)
		if doc.Description != "" {
			fmt.Printf("   %s\n", doc.Description)
		}
		for _, line := range strings.Split(doc.Code, "\n") {
			fmt.Printf("   | %s\n", line)
		}
	}
	return nil
}

func orchestrateCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one QUERY argument")
	}
	queryText := c.Args().First()

	taskDecls := c.StringSlice("task")
	if len(taskDecls) == 0 {
		return fmt.Errorf("at least one --task declaration is required")
	}

	graph, err := parseGraph(taskDecls)
	if err != nil {
		return err
	}

	store, cfg, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	mergeName := c.String("merge")
	if mergeName == "" {
		mergeName = cfg.Orchestration.MergePolicy
	}
	policy, err := parseMergePolicy(mergeName)
	if err != nil {
		return err
	}

	timeout := c.Duration("timeout")
	if timeout == 0 && cfg.Orchestration.TimeoutSecs > 0 {
		timeout = time.Duration(cfg.Orchestration.TimeoutSecs) * time.Second
	}

	orchOpts := []orchestration.Option{
		orchestration.WithMergePolicy(policy),
		orchestration.WithTimeout(timeout),
	}
	if cfg.Orchestration.Workers > 0 {
		orchOpts = append(orchOpts, orchestration.WithWorkers(cfg.Orchestration.Workers))
	}

	orch, err := store.NewOrchestrator(orchOpts...)
	if err != nil {
		return err
	}
	defer orch.Release()

	topK := c.Int("top-k")
	if topK == 0 {
		topK = cfg.Search.TopK
	}

	artifact, err := orch.Run(c.Context, orchestration.Request{
		ProjectID: c.String("project"),
		Query:     queryText,
		TopK:      topK,
		Graph:     graph,
	})
	if err != nil {
		return err
	}

	fmt.Printf("# Request %s\n\n", artifact.RequestID)
	for _, section := range artifact.Sections {
		fmt.Printf("## %s (%s)\n\n%s\n\n", section.TaskID, section.Kind, section.Content)
	}
	for _, failure := range artifact.Failures {
		fmt.Fprintf(os.Stderr, "task %s failed: %v\n", failure.TaskID, failure.Err)
	}
	if artifact.Partial {
		fmt.Fprintln(os.Stderr, "warning: artifact is partial")
	}
	return nil
}

// parseGraph decodes --task declarations of the form id:kind[:dep1,dep2].
func parseGraph(decls []string) (orchestration.GraphSpec, error) {
	var graph orchestration.GraphSpec
	for _, decl := range decls {
		parts := strings.SplitN(decl, ":", 3)
		if len(parts) < 2 {
			return graph, fmt.Errorf("invalid task declaration %q: want id:kind[:dep1,dep2]", decl)
		}

		kind, err := orchestration.ParseTaskKind(parts[1])
		if err != nil {
			return graph, err
		}

		spec := orchestration.TaskSpec{ID: parts[0], Kind: kind}
		if len(parts) == 3 && parts[2] != "" {
			spec.DependsOn = strings.Split(parts[2], ",")
		}
		graph.Tasks = append(graph.Tasks, spec)
	}
	return graph, nil
}

func parseMergePolicy(name string) (orchestration.MergePolicy, error) {
	switch name {
	case "strict":
		return orchestration.MergeStrict, nil
	case "best_effort":
		return orchestration.MergeBestEffort, nil
	default:
		return 0, fmt.Errorf("invalid merge policy %q: want strict or best_effort", name)
	}
}

func reembedCommand(c *cli.Context) error {
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	reembedConfig := &reembed.Config{
		ProjectID:      c.String("project"),
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder, err := store.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return err
	}

	return reembedder.Run(c.Context)
}

func healthCommand(c *cli.Context) error {
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	report := store.Health(ctx)
	fmt.Printf("status: %s\n", report.Status)
	for _, cap := range report.Capabilities {
		switch {
		case !cap.Enabled:
			fmt.Printf("  %-15s disabled\n", cap.Name)
		case cap.Healthy:
			fmt.Printf("  %-15s ok\n", cap.Name)
		default:
			fmt.Printf("  %-15s FAILING: %v\n", cap.Name, cap.Err)
		}
	}

	if !report.Healthy() {
		return fmt.Errorf("store is degraded")
	}
	return nil
}

// stderrMonitor prints search stages for --verbose.
type stderrMonitor struct{}

var _ query.SearchMonitor = (*stderrMonitor)(nil)

func (m *stderrMonitor) Start(q string) {
	fmt.Fprintf(os.Stderr, "searching: %q\n", q)
}

func (m *stderrMonitor) AfterEmbedding(dim int) {
	fmt.Fprintf(os.Stderr, "query embedded (%d dims)\n", dim)
}

func (m *stderrMonitor) AfterSimilaritySearch(candidates []*core.ScoredSnippet) {
	fmt.Fprintf(os.Stderr, "similarity search: %d candidates\n", len(candidates))
}

func (m *stderrMonitor) AfterScoreFilter(kept, dropped int) {
	fmt.Fprintf(os.Stderr, "score filter: kept %d, dropped %d\n", kept, dropped)
}

func (m *stderrMonitor) Finish(results []*core.ScoredSnippet) {
	fmt.Fprintf(os.Stderr, "finished with %d results\n", len(results))
}

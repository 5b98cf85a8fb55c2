// Copyright 2025 Poiesic Systems
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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/config"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/reembed"
	"github.com/urfave/cli/v2"
)

// app carries what the commands need beyond their flags.
type app struct {
	loader ai.EncoderLoader // nil uses the OpenAI-compatible loader
	out    io.Writer
}

// stopSignals cancel a running reembed.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	a := &app{out: os.Stdout}
	if err := a.cli().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func (a *app) cli() *cli.App {
	return &cli.App{
		Name:  "recall",
		Usage: "Semantic search for a private journal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"RECALL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides config)",
			},
			&cli.IntFlag{
				Name:  "dimension",
				Usage: "Embedding vector width (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a journal entry",
				ArgsUsage: "<text>",
				Action:    a.addCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Entry title",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag the entry (repeatable)",
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "When the entry was written (YYYY-MM-DD or RFC 3339, default now)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search entries by meaning",
				ArgsUsage: "<query>",
				Action:    a.searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (overrides config)",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity (overrides config)",
					},
					&cli.IntFlag{
						Name:  "window",
						Usage: "Snippet width in characters (overrides config)",
					},
				},
			},
			{
				Name:      "show",
				Usage:     "Show entries by id, tag or recency",
				ArgsUsage: "[id...]",
				Action:    a.showCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "recent",
						Usage: "Show the N most recent entries",
					},
					&cli.StringFlag{
						Name:  "tag",
						Usage: "Show entries with this tag",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all entries with the configured model",
				Action: a.reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for failed encoder calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "missing",
						Usage: "Only embed entries that have no vector",
					},
				},
			},
		},
	}
}

// setupLogger configures the global logger based on the log-level flag.
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

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("db") {
		cfg.Database.Path = config.ExpandPath(c.String("db"))
	}
	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("dimension") {
		cfg.AI.Dimension = c.Int("dimension")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) openDatabase(cfg *config.Config) (*recall.Database, error) {
	opts := []recall.DatabaseOption{recall.FromConfig(cfg)}
	if a.loader != nil {
		opts = append(opts, recall.WithLoader(a.loader))
	}

	db, err := recall.NewDatabase(cfg.Database.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func (a *app) addCommand(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("entry text is required")
	}

	entry := &core.Entry{
		Title:    c.String("title"),
		Contents: text,
		Tags:     c.StringSlice("tag"),
	}
	if date := c.String("date"); date != "" {
		ts, err := parseDate(date)
		if err != nil {
			return err
		}
		entry.Timestamp = ts
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := a.openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(ingestion.WithPoolSize(1))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	added, err := pipeline.Ingest(c.Context, []*core.Entry{entry}, nil)
	if err != nil {
		return fmt.Errorf("failed to add entry: %w", err)
	}
	pipeline.Wait()

	fmt.Fprintf(a.out, "Added entry %d\n", added[0].Id)
	return nil
}

func (a *app) searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opts := cfg.SearchOptions()
	if c.IsSet("limit") {
		opts.Limit = c.Int("limit")
	}
	if c.IsSet("threshold") {
		opts.Threshold = c.Float64("threshold")
	}
	if c.IsSet("window") {
		opts.SnippetWindow = c.Int("window")
	}

	db, err := a.openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	results, err := searcher.SearchEntries(c.Context, query, &opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(a.out, "No matching entries")
		return nil
	}
	for i, r := range results {
		entry := r.Entry()
		fmt.Fprintf(a.out, "%d. [%0.3f] #%d %s %s\n", i+1, r.Score, r.Id,
			entry.Timestamp.Local().Format(time.DateOnly), entry.Title)
		fmt.Fprintf(a.out, "   %s\n", oneLine(r.Snippet))
	}
	return nil
}

func (a *app) showCommand(c *cli.Context) error {
	var ids []core.ID
	for _, arg := range c.Args().Slice() {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id %q", arg)
		}
		ids = append(ids, core.ID(id))
	}
	if len(ids) == 0 && !c.IsSet("recent") && !c.IsSet("tag") {
		return fmt.Errorf("an entry id, --recent or --tag is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := a.openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := db.Repository()
	var entries []*core.Entry
	switch {
	case len(ids) > 0:
		entries, err = repo.GetEntries(c.Context, ids...)
	case c.IsSet("tag"):
		entries, err = repo.GetEntriesByTag(c.Context, c.String("tag"))
	default:
		entries, err = repo.GetRecentEntries(c.Context, c.Int("recent"))
	}
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries found")
		return nil
	}
	for _, entry := range entries {
		printEntry(a.out, entry)
	}
	return nil
}

func (a *app) reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:       c.Int("batch-size"),
		EncodeBatchSize: 32,
		ReportInterval:  c.Int("report-interval"),
		MaxRetries:      c.Int("max-retries"),
		RetryDelay:      c.Duration("retry-delay"),
		MissingOnly:     c.Bool("missing"),
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

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Embedding.BatchSize > 0 {
		reembedConfig.EncodeBatchSize = cfg.Embedding.BatchSize
	}

	db, err := a.openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(c.Context, stopSignals...)
	defer stop()

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Database.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	result, err := db.NewReembedder(reembedConfig, os.Stderr).Run(ctx)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	fmt.Fprintf(a.out, "Reembedded %d of %d entries\n", result.Embedded, result.Total)
	return nil
}

func printEntry(w io.Writer, entry *core.Entry) {
	fmt.Fprintf(w, "#%d %s", entry.Id, entry.Timestamp.Local().Format(time.DateTime))
	if entry.Title != "" {
		fmt.Fprintf(w, " %s", entry.Title)
	}
	if len(entry.Tags) > 0 {
		fmt.Fprintf(w, " [%s]", strings.Join(entry.Tags, ", "))
	}
	if len(entry.Vector) == 0 {
		fmt.Fprint(w, " (not embedded)")
	}
	fmt.Fprintf(w, "\n%s\n\n", entry.Contents)
}

// parseDate accepts a calendar date in local time or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if ts, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return ts.UTC(), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

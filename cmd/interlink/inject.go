package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"

	"github.com/docutag/interlinker"
	"github.com/docutag/interlinker/db"
	"github.com/docutag/interlinker/models"
	"github.com/docutag/interlinker/storage"
	"github.com/docutag/interlinker/tracing"
)

// injectCmd represents the inject command
var injectCmd = &cobra.Command{
	Use:   "inject [file...]",
	Short: "Inject internal links into HTML documents",
	Long: `Inject internal links into one or more HTML documents.

Each document gets a fresh pass: link quotas and spacing never carry over
between files. Linked HTML and a JSON report per document are written to
the output directory, or to S3 when a bucket is configured. An interrupt
stops the batch between documents.

Examples:
  interlink inject --pages pages.yaml --base-url https://example.com/blog post.html
  interlink inject --pages pages.yaml --base-url https://example.com --out ./linked *.html
  interlink inject --db interlinker.db --category gardening --base-url https://example.com *.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInject,
}

func init() {
	rootCmd.AddCommand(injectCmd)

	injectCmd.Flags().String("base-url", "", "base URL that page slugs are resolved against")
	injectCmd.Flags().String("out", "./interlinked", "output directory for linked documents and reports")
	injectCmd.Flags().String("s3-bucket", "", "write output to this S3 bucket instead of --out")
	injectCmd.Flags().String("s3-region", "us-east-1", "S3 region")
	injectCmd.Flags().String("s3-endpoint", "", "custom S3 endpoint (MinIO, Spaces)")
	injectCmd.Flags().String("s3-prefix", "", "key prefix inside the bucket")
	injectCmd.Flags().String("db", "", "SQLite database for the page catalog and run history")
	injectCmd.Flags().String("category", "", "catalog category used when --pages is not set")
	injectCmd.Flags().Bool("trace", false, "export a span per document over OTLP")

	for _, name := range []string{"base-url", "out", "s3-bucket", "s3-region", "s3-endpoint", "s3-prefix", "db", "category", "trace"} {
		cobra.CheckErr(viper.BindPFlag(name, injectCmd.Flags().Lookup(name)))
	}
}

// documentReport is the JSON report written next to each linked document
type documentReport struct {
	Document         string                   `json:"document"`
	Slug             string                   `json:"slug"`
	RunID            string                   `json:"run_id,omitempty"`
	ContentPath      string                   `json:"content_path"`
	LinksInjected    int                      `json:"links_injected"`
	Distribution     map[string]int           `json:"distribution"`
	UnderfilledZones []string                 `json:"underfilled_zones,omitempty"`
	Injections       []models.InjectionRecord `json:"injections"`
	ProcessedAt      time.Time                `json:"processed_at"`
}

// batch injects links into a list of documents
type batch struct {
	engine  *interlinker.Engine
	pages   []models.PageInfo
	baseURL string
	store   storage.Store
	db      *db.DB // Optional run history
	logger  *slog.Logger
}

func runInject(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cmd.ErrOrStderr())

	if viper.GetBool("trace") {
		tp, err := tracing.InitTracer("interlink")
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	engine, err := newEngine(logger)
	if err != nil {
		return err
	}

	var database *db.DB
	if path := viper.GetString("db"); path != "" {
		database, err = db.New(db.Config{Driver: "sqlite", DSN: path})
		if err != nil {
			return err
		}
		defer database.Close()
	}

	pages, err := targetPages(database)
	if err != nil {
		return err
	}

	store, err := outputStore(ctx)
	if err != nil {
		return err
	}

	b := &batch{
		engine:  engine,
		pages:   pages,
		baseURL: viper.GetString("base-url"),
		store:   store,
		db:      database,
		logger:  logger,
	}
	return b.run(ctx, args, cmd.OutOrStdout())
}

// targetPages loads pages from the pages file, falling back to the catalog
func targetPages(database *db.DB) ([]models.PageInfo, error) {
	if path := viper.GetString("pages"); path != "" {
		return loadPages(path)
	}
	if database != nil {
		return database.ListPages(viper.GetString("category"))
	}
	return nil, errors.New("no target pages: set --pages or --db")
}

func outputStore(ctx context.Context) (storage.Store, error) {
	if bucket := viper.GetString("s3-bucket"); bucket != "" {
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        viper.GetString("s3-endpoint"),
			Region:          viper.GetString("s3-region"),
			Bucket:          bucket,
			Prefix:          viper.GetString("s3-prefix"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			UsePathStyle:    viper.GetString("s3-endpoint") != "",
		})
	}
	return storage.New(storage.Config{BasePath: viper.GetString("out")})
}

// run processes files in order. A failed document is logged and counted;
// cancellation stops the batch before the next document.
func (b *batch) run(ctx context.Context, files []string, w io.Writer) error {
	failed := 0
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted after %d of %d documents: %w", i, len(files), err)
		}

		report, err := b.processFile(ctx, path)
		if err != nil {
			failed++
			b.logger.Error("document failed", "path", path, "error", err)
			continue
		}
		fmt.Fprintf(w, "%s: %d links -> %s\n", path, report.LinksInjected, b.store.GetFullPath(report.ContentPath))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	return nil
}

func (b *batch) processFile(ctx context.Context, path string) (report *documentReport, err error) {
	ctx, span := tracing.Start(ctx, "interlink.document", attribute.String("document.path", path))
	defer func() { tracing.End(span, err) }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	docSlug := documentSlug(path)
	start := time.Now()
	result, err := b.engine.ProcessContent(string(data), withoutPage(b.pages, docSlug), b.baseURL)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("links.injected", result.LinksInjected))

	contentPath, err := b.store.SaveContent(ctx, result.HTML, docSlug)
	if err != nil {
		return nil, err
	}

	report = &documentReport{
		Document:         path,
		Slug:             docSlug,
		ContentPath:      contentPath,
		LinksInjected:    result.LinksInjected,
		Distribution:     result.Distribution,
		UnderfilledZones: result.UnderfilledZones,
		Injections:       result.InjectionDetails,
		ProcessedAt:      time.Now().UTC(),
	}

	if b.db != nil {
		run := &models.Run{
			ID:             uuid.NewString(),
			DocumentSlug:   docSlug,
			BaseURL:        b.baseURL,
			LinksInjected:  result.LinksInjected,
			Distribution:   result.Distribution,
			Injections:     result.InjectionDetails,
			ContentPath:    contentPath,
			ProcessingTime: time.Since(start).Seconds(),
			CreatedAt:      report.ProcessedAt,
		}
		if err := b.db.SaveRun(run); err != nil {
			return nil, err
		}
		report.RunID = run.ID
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := b.store.SaveReport(ctx, encoded, docSlug); err != nil {
		return nil, err
	}

	b.logger.Info("document linked",
		"path", path,
		"links", result.LinksInjected,
		"underfilled_zones", len(result.UnderfilledZones),
	)
	return report, nil
}

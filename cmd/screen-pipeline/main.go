package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/discovery"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/fetch"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/pipeline"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/report"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/store"
)

func main() {
	date := flag.String("date", time.Now().Format("2006-01-02"), "Run date (YYYY-MM-DD)")
	dataDir := flag.String("data-dir", "data", "Root directory for downloads and artifacts")
	dbPath := flag.String("db", "", "SQLite prediction store path (empty disables persistence)")
	feedURL := flag.String("feed-url", discovery.DefaultFeedURL, "Announcement feed URL")
	attachmentBase := flag.String("attachment-base", discovery.DefaultAttachmentBase, "Base URL for disclosure attachments")
	mcapCSV := flag.String("mcap-csv", "", "Market-cap CSV path (empty disables the cap filter)")
	mcapMin := flag.Float64("mcap-min", 2500, "Minimum market cap (crores)")
	mcapMax := flag.Float64("mcap-max", 25000, "Maximum market cap (crores)")
	cutoff := flag.String("cutoff", "20:30:00", "Latest submission time considered for the run date")
	reportPath := flag.String("report", "", "Write a PDF report of the ranked table to this path")
	flag.Parse()

	runDate, err := time.Parse("2006-01-02", *date)
	if err != nil {
		log.Fatalf("invalid -date %q: %v", *date, err)
	}

	disc, err := discovery.NewClient(discovery.Config{
		FeedURL:        *feedURL,
		AttachmentBase: *attachmentBase,
		MarketCapCSV:   *mcapCSV,
		MarketCapMin:   *mcapMin,
		MarketCapMax:   *mcapMax,
		CutoffTime:     *cutoff,
	})
	if err != nil {
		log.Fatalf("discovery: %v", err)
	}

	caller, err := screen.NewAnthropicCaller(screen.ClassifierConfig{APIKey: requiredEnv("ANTHROPIC_API_KEY")})
	if err != nil {
		log.Fatal(err)
	}
	classifier := screen.NewClassifier(screen.ClassifierConfig{}, caller)
	analyzer := screen.NewAnalyzer(classifier)
	downloader := fetch.NewDownloader(fetch.Config{})

	var st *store.Store
	if *dbPath != "" {
		st, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("store: %v", err)
		}
		defer st.Close()
	}

	p := pipeline.New(pipeline.Config{DataDir: *dataDir}, disc, downloader, analyzer, st)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting screen pipeline for %s", *date)
	outcome, err := p.Run(ctx, runDate, pipeline.RunOptions{})
	if err != nil {
		log.Fatalf("run failed at %s: %v", pipeline.StageNameFromError(err), err)
	}
	log.Printf("run %s finished: status=%s candidates=%d downloaded=%d ranked=%d",
		outcome.Date, outcome.Status, outcome.Candidates, outcome.Downloaded, len(outcome.Records))
	for scrip, reason := range outcome.Skipped {
		log.Printf("skipped %s: %s", scrip, reason)
	}
	for _, msg := range outcome.AnalysisFailures {
		log.Printf("analysis failure: %s", msg)
	}

	if *reportPath != "" && outcome.Status == pipeline.StatusRanked {
		if err := writeReport(ctx, *reportPath, outcome); err != nil {
			log.Fatalf("report: %v", err)
		}
		log.Printf("report written to %s", *reportPath)
	}
}

func writeReport(ctx context.Context, path string, outcome pipeline.RunOutcome) error {
	html, err := report.RenderHTML(report.BuildMarkdown(outcome.Date, outcome.Records))
	if err != nil {
		return err
	}
	renderer := report.NewPDFRenderer()
	pdf, err := renderer.Render(ctx, html)
	if err != nil {
		return err
	}
	return os.WriteFile(path, pdf, 0o644)
}

func requiredEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Fatalf("missing required env var %s", key)
	}
	return v
}

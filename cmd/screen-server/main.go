package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/discovery"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/fetch"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/httpapi"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/pipeline"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dataDir := flag.String("data-dir", "data", "Root directory for downloads and artifacts")
	dbPath := flag.String("db", "predictions.db", "SQLite prediction store path")
	feedURL := flag.String("feed-url", discovery.DefaultFeedURL, "Announcement feed URL")
	attachmentBase := flag.String("attachment-base", discovery.DefaultAttachmentBase, "Base URL for disclosure attachments")
	mcapCSV := flag.String("mcap-csv", "", "Market-cap CSV path (empty disables the cap filter)")
	mcapMin := flag.Float64("mcap-min", 2500, "Minimum market cap (crores)")
	mcapMax := flag.Float64("mcap-max", 25000, "Maximum market cap (crores)")
	cutoff := flag.String("cutoff", "20:30:00", "Latest submission time considered for the run date")
	schedule := flag.String("schedule", "", "Cron spec for automatic daily runs (empty disables)")
	flag.Parse()

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

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	p := pipeline.New(pipeline.Config{DataDir: *dataDir}, disc, downloader, analyzer, st)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var scheduler *cron.Cron
	if *schedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(*schedule, func() {
			date := time.Now()
			log.Printf("scheduled run for %s", date.Format("2006-01-02"))
			outcome, err := p.Run(ctx, date, pipeline.RunOptions{})
			if errors.Is(err, pipeline.ErrRunInProgress) {
				log.Printf("scheduled run for %s skipped: %v", date.Format("2006-01-02"), err)
				return
			}
			if err != nil {
				log.Printf("scheduled run failed at %s: %v", pipeline.StageNameFromError(err), err)
				return
			}
			log.Printf("scheduled run %s finished: status=%s ranked=%d",
				outcome.Date, outcome.Status, len(outcome.Records))
		})
		if err != nil {
			log.Fatalf("invalid -schedule %q: %v", *schedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewServer(p, st),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("screen server listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("screen server stopped")
}

func requiredEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Fatalf("missing required env var %s", key)
	}
	return v
}

/*
Package pipeline wires discovery, acquisition, analysis, the incremental
merge and the ranker into one run per date.
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/artifact"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/discovery"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/fetch"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/store"
)

// Status tells callers apart "nothing to do" from "everything filtered
// out"; a ranked table is StatusRanked even with failures along the way.
type Status string

const (
	// StatusNoCandidates: discovery returned nothing matching the filters.
	StatusNoCandidates Status = "no-candidates"
	// StatusNoDownloads: candidates existed but no PDF made it to disk.
	StatusNoDownloads Status = "no-downloads"
	// StatusNoResults: PDFs were analyzed but nothing survived
	// classification and the midpoint filter.
	StatusNoResults Status = "no-results"
	StatusRanked    Status = "ranked"
)

type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}

// RunOutcome summarizes one run.
type RunOutcome struct {
	Date             string            `json:"date"`
	Status           Status            `json:"status"`
	Records          []screen.Record   `json:"records,omitempty"`
	Candidates       int               `json:"candidates"`
	NewEntries       int               `json:"new_entries"`
	Downloaded       int               `json:"downloaded"`
	DownloadFailures []string          `json:"download_failures,omitempty"`
	Skipped          map[string]string `json:"skipped,omitempty"`
	AnalysisFailures []string          `json:"analysis_failures,omitempty"`
	ArtifactPath     string            `json:"artifact_path,omitempty"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      time.Time         `json:"completed_at"`
}

type Config struct {
	// DataDir is the root under which per-date PDF directories and run
	// artifacts live.
	DataDir string
}

// RunOptions narrows a single run; zero values use the configured defaults.
type RunOptions struct {
	Cutoff       string  // "HH:MM:SS"
	MarketCapMin float64
	MarketCapMax float64
}

// Discoverer, Fetcher and Analyzer are the pipeline's collaborators, kept
// behind interfaces so runs are testable without network or model access.
type Discoverer interface {
	Discover(ctx context.Context, date time.Time, ov discovery.Overrides) ([]discovery.Announcement, error)
}

type Fetcher interface {
	DownloadAll(ctx context.Context, dir string, tasks []fetch.Task) []fetch.Result
}

type Analyzer interface {
	Analyze(ctx context.Context, pdfs []screen.PDF) []screen.Outcome
}

// ErrRunInProgress is returned by Run when another run holds the pipeline.
// Runs for the same date share the download directory and the artifact, so
// overlapping them would interleave writes.
var ErrRunInProgress = errors.New("run already in progress")

type Pipeline struct {
	cfg        Config
	discoverer Discoverer
	fetcher    Fetcher
	analyzer   Analyzer
	store      *store.Store // optional

	mu      sync.Mutex
	running bool
}

func New(cfg Config, d Discoverer, f Fetcher, a Analyzer, st *store.Store) *Pipeline {
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	return &Pipeline{cfg: cfg, discoverer: d, fetcher: f, analyzer: a, store: st}
}

// PDFDir is where a date's disclosures are downloaded. The directory is
// append-only during a run: the deterministic per-scrip filenames prevent
// collisions.
func (p *Pipeline) PDFDir(runDate string) string {
	return filepath.Join(p.cfg.DataDir, "reports", "reports_"+runDate)
}

// ArtifactPath is the date's run artifact, read at start and atomically
// rewritten at the end of a run.
func (p *Pipeline) ArtifactPath(runDate string) string {
	return filepath.Join(p.cfg.DataDir, "output", "impact_screen_"+runDate+".xlsx")
}

// Run executes the full screen for one date.
func (p *Pipeline) Run(ctx context.Context, date time.Time, opts RunOptions) (RunOutcome, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return RunOutcome{Date: date.Format("2006-01-02")}, ErrRunInProgress
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	out := RunOutcome{
		Date:      date.Format("2006-01-02"),
		Skipped:   map[string]string{},
		StartedAt: time.Now(),
	}

	anns, err := p.discoverer.Discover(ctx, date, discovery.Overrides{
		CutoffTime:   opts.Cutoff,
		MarketCapMin: opts.MarketCapMin,
		MarketCapMax: opts.MarketCapMax,
	})
	if err != nil {
		return out, &StageError{Stage: "discover", Err: err}
	}
	out.Candidates = len(anns)
	if len(anns) == 0 {
		out.Status = StatusNoCandidates
		out.CompletedAt = time.Now()
		return out, nil
	}

	pdfDir := p.PDFDir(out.Date)
	discovery.MarkNew(anns, existingScrips(pdfDir))

	links := make(map[string]string, len(anns))
	submitted := make(map[string]time.Time, len(anns))
	newScrips := map[string]bool{}
	var tasks []fetch.Task
	for _, ann := range anns {
		links[ann.ScripCode] = ann.AttachmentURL
		submitted[ann.ScripCode] = ann.SubmittedAt
		if !ann.IsNewEntry {
			continue
		}
		t := fetch.Task{ScripCode: ann.ScripCode, URL: ann.AttachmentURL}
		if !t.Valid() {
			continue
		}
		newScrips[ann.ScripCode] = true
		tasks = append(tasks, t)
	}
	out.NewEntries = len(tasks)

	if len(tasks) > 0 {
		for _, res := range p.fetcher.DownloadAll(ctx, pdfDir, tasks) {
			if res.Err != nil {
				out.DownloadFailures = append(out.DownloadFailures, res.Err.Error())
				continue
			}
			out.Downloaded++
		}
	}

	pdfs, err := fetch.ListDownloaded(pdfDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return out, &StageError{Stage: "scan-downloads", Err: err}
	}
	if len(pdfs) == 0 {
		// nothing on disk for this date: report immediately rather than
		// returning a table that silently lost the whole batch
		out.Status = StatusNoDownloads
		out.CompletedAt = time.Now()
		return out, nil
	}

	prior, err := artifact.Read(p.ArtifactPath(out.Date))
	if err != nil {
		return out, &StageError{Stage: "artifact-read", Err: err}
	}

	toAnalyze, carried := artifact.Plan(pdfs, newScrips, prior)
	for i := range toAnalyze {
		toAnalyze[i].Link = links[toAnalyze[i].ScripCode]
	}
	log.Printf("pipeline: %d to analyze, %d carried from prior run", len(toAnalyze), len(carried))

	outcomes := p.analyzer.Analyze(ctx, toAnalyze)
	out.Skipped = screen.SkipReasons(outcomes)
	for _, err := range screen.Failures(outcomes) {
		out.AnalysisFailures = append(out.AnalysisFailures, err.Error())
	}

	ranked := screen.Rank(artifact.Merge(screen.Records(outcomes), carried))
	if len(ranked) == 0 {
		out.Status = StatusNoResults
		out.CompletedAt = time.Now()
		return out, nil
	}

	artifactPath := p.ArtifactPath(out.Date)
	if err := artifact.Write(artifactPath, ranked); err != nil {
		return out, &StageError{Stage: "artifact-write", Err: err}
	}
	out.ArtifactPath = artifactPath

	if p.store != nil {
		if err := p.store.SaveRun(out.Date, ranked, submitted); err != nil {
			return out, &StageError{Stage: "persist", Err: err}
		}
	}

	out.Records = ranked
	out.Status = StatusRanked
	out.CompletedAt = time.Now()
	log.Printf("pipeline: %s ranked %d disclosures (%d skipped, %d failed)",
		out.Date, len(ranked), len(out.Skipped), len(out.AnalysisFailures))
	return out, nil
}

func existingScrips(pdfDir string) map[string]bool {
	existing := map[string]bool{}
	if _, err := os.Stat(pdfDir); err != nil {
		return existing
	}
	pdfs, err := fetch.ListDownloaded(pdfDir)
	if err != nil {
		return existing
	}
	for _, p := range pdfs {
		existing[p.ScripCode] = true
	}
	return existing
}

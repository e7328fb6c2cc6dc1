package screen

import (
	"context"
	"log"
	"sync"
)

// AnalysisWorkers is fixed well below the acquisition pool: this stage makes
// paid, rate-limited model calls, and oversubscribing buys throttling and
// cost spikes instead of throughput.
const AnalysisWorkers = 5

// DocumentClassifier is what the analyzer needs from the classifier client.
type DocumentClassifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Analyzer drives extract → classify → parse per downloaded disclosure over
// a bounded worker pool.
type Analyzer struct {
	classifier DocumentClassifier
	workers    int
	extract    func(path string) string
}

func NewAnalyzer(classifier DocumentClassifier) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		workers:    AnalysisWorkers,
		extract:    ExtractTextFromFile,
	}
}

// Analyze processes every disclosure and collects one Outcome per item as
// items complete, not in submission order. A single item's failure never
// cancels its siblings.
func (a *Analyzer) Analyze(ctx context.Context, pdfs []PDF) []Outcome {
	if len(pdfs) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.workers)
	out := make(chan Outcome, len(pdfs))

	for _, p := range pdfs {
		wg.Add(1)
		sem <- struct{}{}
		go func(p PDF) {
			defer wg.Done()
			defer func() { <-sem }()
			out <- a.analyzeOne(ctx, p)
		}(p)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	collected := make([]Outcome, 0, len(pdfs))
	done := 0
	for o := range out {
		done++
		switch o.Kind {
		case OutcomeOK:
			log.Printf("analysis %d/%d: %s classified", done, len(pdfs), o.ScripCode)
		case OutcomeSkip:
			log.Printf("analysis %d/%d: %s skipped (%s)", done, len(pdfs), o.ScripCode, o.Reason)
		case OutcomeFail:
			log.Printf("analysis %d/%d: %s failed: %v", done, len(pdfs), o.ScripCode, o.Err)
		}
		collected = append(collected, o)
	}
	return collected
}

func (a *Analyzer) analyzeOne(ctx context.Context, p PDF) Outcome {
	text := a.extract(p.Path)
	if len(text) < MinTextChars {
		return Outcome{ScripCode: p.ScripCode, Kind: OutcomeSkip, Reason: "insufficient text"}
	}

	raw, err := a.classifier.Classify(ctx, text)
	if err != nil {
		return Outcome{ScripCode: p.ScripCode, Kind: OutcomeFail, Err: err}
	}
	if raw == "" {
		return Outcome{ScripCode: p.ScripCode, Kind: OutcomeSkip, Reason: "no model answer"}
	}

	ans, ok := ParseAnswer(raw)
	if !ok {
		return Outcome{ScripCode: p.ScripCode, Kind: OutcomeSkip, Reason: "malformed answer"}
	}

	return Outcome{ScripCode: p.ScripCode, Kind: OutcomeOK, Record: Record{
		File:       p.ScripCode,
		PDFLink:    p.Link,
		Company:    ans.Company,
		ScripCode:  p.ScripCode,
		Impact:     ans.Impact,
		Summary:    ans.Summary,
		PriceRange: ans.PriceRange,
		Rationale:  ans.Rationale,
	}}
}

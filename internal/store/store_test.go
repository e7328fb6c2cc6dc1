package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "predictions.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testRecords() []screen.Record {
	return []screen.Record{
		{
			Rank: 1, File: "500100", PDFLink: "https://example.com/a.pdf",
			Company: "Acme Industries", ScripCode: "500100", Impact: "STRONGLY POSITIVE",
			Summary: "Record profit.", PriceRange: "4% to 6%", Rationale: "Broad beat.",
			ImpactScore: 5, MidPercent: 5,
		},
		{
			Rank: 2, File: "500200", PDFLink: "https://example.com/b.pdf",
			Company: "Beta Ltd", ScripCode: "500200", Impact: "POSITIVE",
			Summary: "Order win.", PriceRange: "2% to 3%", Rationale: "Material order.",
			ImpactScore: 4, MidPercent: 2.5,
		},
	}
}

func TestSaveRunAndQueryByDate(t *testing.T) {
	st := openTestStore(t)
	submitted := map[string]time.Time{
		"500100": time.Date(2026, 8, 28, 21, 5, 0, 0, time.UTC),
		"500200": time.Date(2026, 8, 28, 20, 45, 0, 0, time.UTC),
	}
	if err := st.SaveRun("2026-08-28", testRecords(), submitted); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	preds, err := st.PredictionsByDate("2026-08-28")
	if err != nil {
		t.Fatalf("PredictionsByDate: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("got %d predictions, want 2", len(preds))
	}
	if preds[0].Rank != 1 || preds[0].ScripCode != "500100" {
		t.Errorf("first prediction = %+v", preds[0])
	}
	if preds[1].Company != "Beta Ltd" || preds[1].ImpactScore != 4 {
		t.Errorf("second prediction = %+v", preds[1])
	}

	if preds, err := st.PredictionsByDate("2026-08-27"); err != nil || len(preds) != 0 {
		t.Errorf("other date: preds=%v err=%v", preds, err)
	}
}

func TestSaveRunReplacesDate(t *testing.T) {
	st := openTestStore(t)
	if err := st.SaveRun("2026-08-28", testRecords(), nil); err != nil {
		t.Fatalf("first SaveRun: %v", err)
	}
	shrunk := testRecords()[:1]
	if err := st.SaveRun("2026-08-28", shrunk, nil); err != nil {
		t.Fatalf("second SaveRun: %v", err)
	}
	preds, err := st.PredictionsByDate("2026-08-28")
	if err != nil {
		t.Fatalf("PredictionsByDate: %v", err)
	}
	if len(preds) != 1 || preds[0].ScripCode != "500100" {
		t.Errorf("preds = %+v, want only the rewritten row", preds)
	}
}

func TestSaveRunKeepsDuplicateScrips(t *testing.T) {
	st := openTestStore(t)
	// Results announcement plus an investor-call note from the same company.
	records := []screen.Record{
		{
			Rank: 1, File: "500100", PDFLink: "https://example.com/results.pdf",
			Company: "Acme Industries", ScripCode: "500100", Impact: "STRONGLY POSITIVE",
			Summary: "Record profit.", ImpactScore: 5, MidPercent: 5,
		},
		{
			Rank: 2, File: "500100", PDFLink: "https://example.com/call.pdf",
			Company: "Acme Industries", ScripCode: "500100", Impact: "POSITIVE",
			Summary: "Guidance raised on the call.", ImpactScore: 4, MidPercent: 3,
		},
	}
	if err := st.SaveRun("2026-08-28", records, nil); err != nil {
		t.Fatalf("SaveRun with repeated scrip: %v", err)
	}
	preds, err := st.PredictionsByDate("2026-08-28")
	if err != nil {
		t.Fatalf("PredictionsByDate: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("got %d predictions, want both filings kept", len(preds))
	}
	if preds[0].PDFLink == preds[1].PDFLink {
		t.Errorf("both rows point at %s, want distinct filings", preds[0].PDFLink)
	}
}

func TestLatest(t *testing.T) {
	st := openTestStore(t)

	latest, err := st.Latest()
	if err != nil {
		t.Fatalf("Latest on empty store: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil on empty store", latest)
	}

	early := map[string]time.Time{
		"500100": time.Date(2026, 8, 28, 19, 0, 0, 0, time.UTC),
		"500200": time.Date(2026, 8, 28, 22, 30, 0, 0, time.UTC),
	}
	if err := st.SaveRun("2026-08-28", testRecords(), early); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	latest, err = st.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil {
		t.Fatal("latest is nil after a save")
	}
	if latest.ScripCode != "500200" {
		t.Errorf("latest scrip = %s, want the most recently submitted", latest.ScripCode)
	}
}

package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
)

func sampleRecords() []screen.Record {
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

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "screen.xlsx")
	want := sampleRecords()
	if err := Write(path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d:\n got %+v\nwant %+v", i, got[i], want[i])
		}
	}
	if _, err := os.Stat(path + ".tmp.xlsx"); !os.IsNotExist(err) {
		t.Errorf("staging file left behind after write")
	}
}

func TestReadMissingArtifact(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "never-written.xlsx"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for a first run", got)
	}
}

func TestWriteEmptyThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := Write(path, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v, want no rows", got)
	}
}

func TestPlanSplitsNewAndCarried(t *testing.T) {
	pdfs := []screen.PDF{
		{ScripCode: "A", Path: "a.pdf"},
		{ScripCode: "B", Path: "b.pdf"},
		{ScripCode: "C", Path: "c.pdf"},
	}
	newScrips := map[string]bool{"B": true}
	prior := []screen.Record{
		{ScripCode: "C", Company: "Carry Co", Rank: 1},
		{ScripCode: "A", Company: "Also Carried", Rank: 2},
		{ScripCode: "B", Company: "Stale Row", Rank: 3},
		{ScripCode: "Z", Company: "Gone From Disk", Rank: 4},
	}

	analyze, carried := Plan(pdfs, newScrips, prior)
	if len(analyze) != 1 || analyze[0].ScripCode != "B" {
		t.Errorf("analyze = %+v, want only B", analyze)
	}
	// carried keeps prior order, drops the re-analyzed scrip and rows whose
	// document is no longer on disk
	if len(carried) != 2 || carried[0].ScripCode != "C" || carried[1].ScripCode != "A" {
		t.Errorf("carried = %+v", carried)
	}
}

func TestPlanNoPrior(t *testing.T) {
	pdfs := []screen.PDF{{ScripCode: "A"}, {ScripCode: "B"}}
	analyze, carried := Plan(pdfs, map[string]bool{"A": true}, nil)
	if len(analyze) != 1 || analyze[0].ScripCode != "A" {
		t.Errorf("analyze = %+v", analyze)
	}
	if len(carried) != 0 {
		t.Errorf("carried = %+v, want none without a prior artifact", carried)
	}
}

func TestPlanIdempotentRerun(t *testing.T) {
	prior := screen.Rank([]screen.Record{
		{ScripCode: "A", Impact: "BEAT", PriceRange: "4% to 6%"},
		{ScripCode: "B", Impact: "NEUTRAL", PriceRange: "2%"},
	})
	pdfs := []screen.PDF{{ScripCode: "A"}, {ScripCode: "B"}}

	analyze, carried := Plan(pdfs, map[string]bool{}, prior)
	if len(analyze) != 0 {
		t.Fatalf("nothing should be re-analyzed, got %+v", analyze)
	}
	reranked := screen.Rank(Merge(nil, carried))
	if len(reranked) != len(prior) {
		t.Fatalf("got %d rows, want %d", len(reranked), len(prior))
	}
	for i := range prior {
		if reranked[i] != prior[i] {
			t.Errorf("row %d changed on rerun:\n got %+v\nwant %+v", i, reranked[i], prior[i])
		}
	}
}

func TestMergeFreshFirst(t *testing.T) {
	fresh := []screen.Record{{ScripCode: "N"}}
	carried := []screen.Record{{ScripCode: "O1"}, {ScripCode: "O2"}}
	merged := Merge(fresh, carried)
	if len(merged) != 3 || merged[0].ScripCode != "N" || merged[1].ScripCode != "O1" {
		t.Errorf("merged = %+v", merged)
	}
}

package screen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

func buildPDF(t *testing.T, pages []string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		doc.MultiCell(180, 6, text, "", "L", false)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build fixture pdf: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextFindsPageContent(t *testing.T) {
	pdf := buildPDF(t, []string{
		"QUARTERLY RESULTS DISCLOSURE " + strings.Repeat("revenue grew strongly ", 20),
		"SEGMENT DETAILS PAGE TWO " + strings.Repeat("margin expansion continued ", 20),
	})
	text := ExtractText(pdf)
	if text == "" {
		t.Fatal("expected non-empty extraction")
	}
	if !strings.Contains(text, "QUARTERLY") {
		t.Error("first page text missing")
	}
	if !strings.Contains(text, "SEGMENT") {
		t.Error("second page text missing")
	}
}

func TestExtractTextStopsAtPageLimit(t *testing.T) {
	pages := make([]string, MaxExtractPages+2)
	for i := range pages {
		pages[i] = fmt.Sprintf("PAGEMARKER%d short filler text", i+1)
	}
	text := ExtractText(buildPDF(t, pages))
	if !strings.Contains(text, fmt.Sprintf("PAGEMARKER%d", MaxExtractPages)) {
		t.Errorf("page %d missing from extraction", MaxExtractPages)
	}
	if strings.Contains(text, fmt.Sprintf("PAGEMARKER%d", MaxExtractPages+1)) {
		t.Errorf("page %d should not be extracted", MaxExtractPages+1)
	}
}

func TestExtractTextCapsLength(t *testing.T) {
	long := strings.Repeat("disclosure body text with many repeated words ", 200)
	text := ExtractText(buildPDF(t, []string{long, long, long, long, long}))
	if len(text) > MaxExtractChars {
		t.Errorf("extracted %d chars, cap is %d", len(text), MaxExtractChars)
	}
}

func TestClampRunesKeepsRuneBoundaries(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"plain ascii", 20, "plain ascii"},
		{"plain ascii", 5, "plain"},
		{"marge ₹450 crore", 8, "marge "},  // ₹ is 3 bytes starting at index 6
		{"marge ₹450 crore", 9, "marge ₹"},
		{"₹", 1, ""},
	}
	for _, c := range cases {
		if got := clampRunes(c.in, c.max); got != c.want {
			t.Errorf("clampRunes(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
	}
}

func TestExtractTextCorruptInput(t *testing.T) {
	for _, blob := range [][]byte{
		nil,
		[]byte("not a pdf at all"),
		[]byte("%PDF-1.7 truncated garbage"),
	} {
		if got := ExtractText(blob); got != "" {
			t.Errorf("ExtractText(%q...) = %q, want empty", blob, got)
		}
	}
}

func TestExtractTextFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	pdf := buildPDF(t, []string{"FILEMARKER " + strings.Repeat("body ", 50)})
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		t.Fatal(err)
	}
	if text := ExtractTextFromFile(path); !strings.Contains(text, "FILEMARKER") {
		t.Errorf("extraction from file missing marker: %q", text)
	}
	if text := ExtractTextFromFile(filepath.Join(dir, "missing.pdf")); text != "" {
		t.Errorf("missing file should extract empty, got %q", text)
	}
}

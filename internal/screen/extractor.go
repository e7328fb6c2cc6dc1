package screen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfcpu names extracted pages "<input-stem>_Content_page_<n>.txt"; only the
// page number is load-bearing.
var contentPageNo = regexp.MustCompile(`page_(\d+)`)

const (
	// MaxExtractPages bounds how deep into a disclosure the extractor reads;
	// material facts in exchange filings front-load into the first pages.
	MaxExtractPages = 5
	// MaxExtractChars caps the text handed to the classifier.
	MaxExtractChars = 12000
)

// ExtractText pulls plain text from the leading pages of a PDF, stopping at
// MaxExtractPages pages or MaxExtractChars characters, whichever comes first.
// Extraction failure is not an error: a corrupt, encrypted or image-only PDF
// yields an empty string, which downstream treats as insufficient text.
func ExtractText(pdfBytes []byte) string {
	tmpDir, err := os.MkdirTemp("", "screen-pdf-")
	if err != nil {
		return ""
	}
	defer os.RemoveAll(tmpDir)

	tmpFile := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(tmpFile, pdfBytes, 0o644); err != nil {
		return ""
	}

	pdfCtx, err := api.ReadContextFile(tmpFile)
	if err != nil {
		return ""
	}
	lastPage := pdfCtx.PageCount
	if lastPage > MaxExtractPages {
		lastPage = MaxExtractPages
	}
	if lastPage < 1 {
		return ""
	}

	outDir := filepath.Join(tmpDir, "pages")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return ""
	}
	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tmpFile, outDir, []string{fmt.Sprintf("1-%d", lastPage)}, conf); err != nil {
		return ""
	}

	pageText := make(map[int]string, lastPage)
	entries, _ := os.ReadDir(outDir)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := contentPageNo.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		blob, err := os.ReadFile(filepath.Join(outDir, e.Name()))
		if err != nil {
			continue
		}
		pageText[n] = string(blob)
	}

	var b strings.Builder
	for n := 1; n <= lastPage; n++ {
		if b.Len() > MaxExtractChars {
			break
		}
		b.WriteString(pageText[n])
		b.WriteString("\n")
	}
	return clampRunes(b.String(), MaxExtractChars)
}

// clampRunes cuts s to at most max bytes without splitting a rune.
func clampRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ExtractTextFromFile reads a downloaded disclosure and extracts its text.
// An unreadable file behaves like an unparseable one: empty string.
func ExtractTextFromFile(path string) string {
	blob, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return ExtractText(blob)
}

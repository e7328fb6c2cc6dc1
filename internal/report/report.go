/*
Package report renders a run's ranked table as markdown, HTML and,
optionally, a printable PDF.
*/
package report

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
)

// BuildMarkdown produces the ranked-table report for one run date.
func BuildMarkdown(runDate string, records []screen.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Disclosure Impact Screen — %s\n\n", runDate)
	if len(records) == 0 {
		fmt.Fprintf(&b, "No disclosures cleared the screen for this date.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d disclosures ranked by impact score and price-move midpoint.\n\n", len(records))
	fmt.Fprintf(&b, "| Rank | Scrip | Company | Impact | Score | Mid %% | Price Range | Rationale |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|---|---|\n")
	for _, r := range records {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %d | %.2f | %s | %s |\n",
			r.Rank, mdCell(r.ScripCode), mdCell(r.Company), mdCell(r.Impact),
			r.ImpactScore, r.MidPercent, mdCell(r.PriceRange), mdCell(r.Rationale))
	}
	b.WriteString("\n## Summaries\n\n")
	for _, r := range records {
		fmt.Fprintf(&b, "### %d. %s (%s)\n\n", r.Rank, r.Company, r.ScripCode)
		if r.PDFLink != "" {
			fmt.Fprintf(&b, "[Source PDF](%s)\n\n", r.PDFLink)
		}
		fmt.Fprintf(&b, "%s\n\n", r.Summary)
	}
	return b.String()
}

func mdCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "\\|")
}

// RenderHTML converts report markdown into a standalone HTML document.
func RenderHTML(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Impact Screen</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='report'>" + content.String() + "</div>" +
		"</body></html>", nil
}

const reportCSS = `
body{font-family:ui-sans-serif,system-ui,sans-serif;color:#1c1917;background:#fff;margin:0;padding:1rem;}
.report{max-width:1000px;margin:0 auto;}
.report table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.85rem;}
.report th,.report td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.report thead th{background:#f1f5f9;font-weight:700;}
.report a{color:#1d4ed8;text-decoration:underline;}
@media print{ @page{size:auto;margin:12mm;} body{padding:0;} }
`

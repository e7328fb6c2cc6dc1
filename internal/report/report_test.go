package report

import (
	"strings"
	"testing"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
)

func rankedRecords() []screen.Record {
	return []screen.Record{
		{
			Rank: 1, Company: "Acme Industries", ScripCode: "500100",
			Impact: "STRONGLY POSITIVE", ImpactScore: 5, MidPercent: 5,
			PriceRange: "4% to 6%", Rationale: "Broad beat.",
			Summary: "Record quarterly profit.", PDFLink: "https://example.com/a.pdf",
		},
		{
			Rank: 2, Company: "Pipe | Cell Co", ScripCode: "500200",
			Impact: "POSITIVE", ImpactScore: 4, MidPercent: 2.5,
			PriceRange: "2% to 3%", Rationale: "Order win.",
			Summary: "Large export order.",
		},
	}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown("2026-08-28", rankedRecords())
	for _, want := range []string{
		"# Disclosure Impact Screen — 2026-08-28",
		"| 1 | 500100 | Acme Industries | STRONGLY POSITIVE | 5 | 5.00 | 4% to 6% | Broad beat. |",
		"Pipe \\| Cell Co",
		"## Summaries",
		"### 1. Acme Industries (500100)",
		"[Source PDF](https://example.com/a.pdf)",
		"Record quarterly profit.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestBuildMarkdownEmpty(t *testing.T) {
	md := BuildMarkdown("2026-08-28", nil)
	if !strings.Contains(md, "No disclosures cleared the screen") {
		t.Errorf("markdown = %s", md)
	}
	if strings.Contains(md, "| Rank |") {
		t.Error("empty report should not contain a table header")
	}
}

func TestRenderHTMLTable(t *testing.T) {
	html, err := RenderHTML(BuildMarkdown("2026-08-28", rankedRecords()))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{
		"<!doctype html>",
		"<table>",
		"<td>Acme Industries</td>",
		`<a href="https://example.com/a.pdf">Source PDF</a>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

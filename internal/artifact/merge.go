package artifact

import "github.com/mab-007/elrond-stock-analyzer-be/internal/screen"

// Plan splits the PDFs present for a run into the set to analyze and the
// rows carried forward from the prior run. A scrip flagged new is always
// (re)analyzed, superseding any stale prior row; a scrip present locally but
// not flagged new is only ever sourced from the prior artifact, never
// re-analyzed. With no prior artifact, non-new scrips contribute nothing.
//
// Carried rows keep the prior artifact's order so an unchanged document set
// reproduces the previous run's table exactly.
func Plan(pdfs []screen.PDF, newScrips map[string]bool, prior []screen.Record) (analyze []screen.PDF, carried []screen.Record) {
	local := make(map[string]bool, len(pdfs))
	for _, p := range pdfs {
		local[p.ScripCode] = true
		if newScrips[p.ScripCode] {
			analyze = append(analyze, p)
		}
	}
	for _, r := range prior {
		if local[r.ScripCode] && !newScrips[r.ScripCode] {
			carried = append(carried, r)
		}
	}
	return analyze, carried
}

// Merge combines fresh analysis output with carried-forward rows. Fresh rows
// come first; ordering beyond that is the ranker's job.
func Merge(fresh, carried []screen.Record) []screen.Record {
	merged := make([]screen.Record, 0, len(fresh)+len(carried))
	merged = append(merged, fresh...)
	merged = append(merged, carried...)
	return merged
}

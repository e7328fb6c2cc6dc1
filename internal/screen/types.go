package screen

// Record is one analyzed disclosure. Records survive across runs through the
// run artifact; ImpactScore, MidPercent and Rank are derived by the ranker
// and recomputed deterministically from Impact and PriceRange.
type Record struct {
	File       string
	PDFLink    string
	Company    string
	ScripCode  string
	Impact     string
	Summary    string
	PriceRange string
	Rationale  string

	ImpactScore int
	MidPercent  float64
	Rank        int
}

// PDF pairs a scrip code with the local path of its downloaded disclosure.
// Link is the source attachment URL when known.
type PDF struct {
	ScripCode string
	Path      string
	Link      string
}

type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeSkip
	OutcomeFail
)

// Outcome is the per-item result of the analysis pool. Skips carry the
// reason a document produced no row; a Fail carries the one error class
// that escalates past the item (classifier retries exhausted).
type Outcome struct {
	ScripCode string
	Kind      OutcomeKind
	Record    Record
	Reason    string
	Err       error
}

// Records extracts the successful records from a slice of outcomes,
// preserving collection order.
func Records(outcomes []Outcome) []Record {
	var recs []Record
	for _, out := range outcomes {
		if out.Kind == OutcomeOK {
			recs = append(recs, out.Record)
		}
	}
	return recs
}

// Failures extracts the errors of failed items.
func Failures(outcomes []Outcome) []error {
	var errs []error
	for _, out := range outcomes {
		if out.Kind == OutcomeFail && out.Err != nil {
			errs = append(errs, out.Err)
		}
	}
	return errs
}

// SkipReasons maps scrip code to skip reason for the skipped items.
func SkipReasons(outcomes []Outcome) map[string]string {
	reasons := map[string]string{}
	for _, out := range outcomes {
		if out.Kind == OutcomeSkip {
			reasons[out.ScripCode] = out.Reason
		}
	}
	return reasons
}

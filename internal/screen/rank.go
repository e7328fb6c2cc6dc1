package screen

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var impactScores = map[string]int{
	"STRONGLY POSITIVE": 5,
	"BEAT":              5,
	"POSITIVE":          4,
	"NEUTRAL":           3,
	"MATCHED":           3,
	"NEGATIVE":          2,
	"STRONGLY NEGATIVE": 1,
	"MISSED":            1,
}

var signedNumber = regexp.MustCompile(`-?\d+\.?\d*`)

// ImpactScore maps an impact tag to its numeric score, case-insensitively.
// Unrecognized tags (including "N/A") score 0.
func ImpactScore(tag string) int {
	return impactScores[strings.ToUpper(strings.TrimSpace(tag))]
}

// Midpoint returns the arithmetic mean of every signed decimal number found
// in a free-text price-move range, or 0 when none are present.
func Midpoint(priceRange string) float64 {
	matches := signedNumber.FindAllString(priceRange, -1)
	var sum float64
	var n int
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Rank scores, filters and orders the merged result set. Rows whose price
// midpoint is not positive carry no material quantified move and are
// excluded. The sort is stable: rows tied on both keys keep input order.
// Rank is the 1-based position after sorting.
func Rank(records []Record) []Record {
	ranked := make([]Record, 0, len(records))
	for _, r := range records {
		r.ImpactScore = ImpactScore(r.Impact)
		r.MidPercent = Midpoint(r.PriceRange)
		if r.MidPercent > 0 {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ImpactScore != ranked[j].ImpactScore {
			return ranked[i].ImpactScore > ranked[j].ImpactScore
		}
		return ranked[i].MidPercent > ranked[j].MidPercent
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

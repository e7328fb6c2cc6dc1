package screen

import "testing"

func TestImpactScore(t *testing.T) {
	cases := []struct {
		tag  string
		want int
	}{
		{"STRONGLY POSITIVE", 5},
		{"BEAT", 5},
		{"beat", 5},
		{"POSITIVE", 4},
		{"NEUTRAL", 3},
		{"matched", 3},
		{"NEGATIVE", 2},
		{"STRONGLY NEGATIVE", 1},
		{"MISSED", 1},
		{"  positive  ", 4},
		{"WHATEVER", 0},
		{"N/A", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ImpactScore(tc.tag); got != tc.want {
			t.Errorf("ImpactScore(%q) = %d, want %d", tc.tag, got, tc.want)
		}
	}
}

func TestMidpoint(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"4% to 6%", 5},
		{"2% to 3%", 2.5},
		{"5%", 5},
		{"4-6%", -1}, // hyphen reads as a negative sign on the second number
		{"-3% to -1%", -2},
		{"around 7.5%", 7.5},
		{"no numbers here", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := Midpoint(tc.in); got != tc.want {
			t.Errorf("Midpoint(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRankOrdering(t *testing.T) {
	records := []Record{
		{ScripCode: "A", Impact: "NEUTRAL", PriceRange: "50%"},
		{ScripCode: "B", Impact: "BEAT", PriceRange: "10%"},
		{ScripCode: "C", Impact: "STRONGLY POSITIVE", PriceRange: "20%"},
	}
	ranked := Rank(records)
	if len(ranked) != 3 {
		t.Fatalf("got %d records, want 3", len(ranked))
	}
	// score desc first, midpoint desc breaks the 5-5 tie
	wantOrder := []string{"C", "B", "A"}
	for i, want := range wantOrder {
		if ranked[i].ScripCode != want {
			t.Errorf("position %d = %s, want %s", i, ranked[i].ScripCode, want)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("%s rank = %d, want %d", ranked[i].ScripCode, ranked[i].Rank, i+1)
		}
	}
	if ranked[0].ImpactScore != 5 || ranked[2].ImpactScore != 3 {
		t.Errorf("scores not recomputed: %+v", ranked)
	}
}

func TestRankDropsNonPositiveMidpoints(t *testing.T) {
	records := []Record{
		{ScripCode: "A", Impact: "POSITIVE", PriceRange: "3% to 5%"},
		{ScripCode: "B", Impact: "POSITIVE", PriceRange: "no numbers here"},
		{ScripCode: "C", Impact: "NEGATIVE", PriceRange: "-3% to -1%"},
	}
	ranked := Rank(records)
	if len(ranked) != 1 {
		t.Fatalf("got %d records, want 1", len(ranked))
	}
	if ranked[0].ScripCode != "A" || ranked[0].Rank != 1 {
		t.Errorf("survivor = %+v", ranked[0])
	}
}

func TestRankStableOnFullTies(t *testing.T) {
	records := []Record{
		{ScripCode: "X", Impact: "POSITIVE", PriceRange: "2% to 4%"},
		{ScripCode: "Y", Impact: "POSITIVE", PriceRange: "2% to 4%"},
		{ScripCode: "Z", Impact: "POSITIVE", PriceRange: "2% to 4%"},
	}
	ranked := Rank(records)
	for i, want := range []string{"X", "Y", "Z"} {
		if ranked[i].ScripCode != want {
			t.Errorf("tie order broken at %d: got %s, want %s", i, ranked[i].ScripCode, want)
		}
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", got)
	}
}

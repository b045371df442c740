package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"colon and runs", "ABC: def  ghi", "abc def ghi"},
		{"punctuation dropped", "Tom & Jerry!", "tom jerry"},
		{"digits kept", "Mission 2: Impossible", "mission 2 impossible"},
		{"non ascii dropped", "Café Crème", "caf crme"},
		{"tabs collapse", "a\t\tb", "a b"},
		{"trailing separator kept once", "News: ", "news "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"ABC: def  ghi", " Leading", "x :: y", "Ünïcödé Tïtle: Part 2", "::"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestSimilarTitles(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"The Great Escape", "Great Escape Part 2", true},
		{"Tagesschau", "TAGESSCHAU", true},
		{"Tatort: Köln", "Tatort", true},
		{"The Office", "The Bang", false},
		{"Sport", "Wetter", false},
		{"", "Wetter", false},
	}
	for _, tc := range cases {
		if got := SimilarTitles(tc.a, tc.b); got != tc.want {
			t.Fatalf("SimilarTitles(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

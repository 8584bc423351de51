package hybrid

import "testing"

func TestShouldRetrieve(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"", false},
		{"   ", false},
		{"!!!", false},
		{"hi", false},
		{"thanks", false},
		{"ok", false},
		{"what decisions did we make about auth", true},
		{"why?", true},
		{"storage layer", false},
	}
	for _, c := range cases {
		if got := ShouldRetrieve(c.query); got != c.want {
			t.Errorf("ShouldRetrieve(%q) = %v, want %v", c.query, got, c.want)
		}
	}
}

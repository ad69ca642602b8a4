package mark

import "testing"

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		scores    map[string]float64
		fitted    bool
		threshold float64
		want      string
		wantOK    bool
	}{
		{"highest wins", map[string]float64{"A": 10, "B": 200, "C": 50}, false, 0, "B", true},
		{"negative scores unfitted", map[string]float64{"A": -5, "B": -1}, false, 0, "B", true},
		{"zero scores unfitted", map[string]float64{"A": 0, "B": 0}, false, 100, "A", true},
		{"unfitted ignores threshold", map[string]float64{"A": 3, "B": 1}, false, 1000, "A", true},
		{"fitted above threshold", map[string]float64{"A": 15, "B": 2}, true, 10, "A", true},
		{"fitted equal to threshold", map[string]float64{"A": 10, "B": 2}, true, 10, "", false},
		{"fitted below threshold", map[string]float64{"A": 5, "B": -5}, true, 10, "", false},
		{"fitted zero threshold", map[string]float64{"A": 0.5, "B": 0}, true, 0, "A", true},
		{"tie goes to smallest name", map[string]float64{"b": 7, "a": 7, "c": 1}, false, 0, "a", true},
		{"tie with larger winner", map[string]float64{"b": 7, "a": 7, "c": 9}, false, 0, "c", true},
		{"single value", map[string]float64{"only": 1}, false, 0, "only", true},
		{"empty", map[string]float64{}, false, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Select(tt.scores, tt.fitted, tt.threshold)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Select: got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSelect_UnfittedAlwaysSelects(t *testing.T) {
	for _, threshold := range []float64{-1000, 0, 1, 255, 1e9} {
		for _, score := range []float64{-255, 0, 0.001, 255} {
			if _, ok := Select(map[string]float64{"x": score, "y": score - 1}, false, threshold); !ok {
				t.Errorf("unfitted Select returned no selection (score %v, threshold %v)", score, threshold)
			}
		}
	}
}

func TestSelectOrdered(t *testing.T) {
	scores := map[string]float64{"a": 7, "b": 7, "c": 1}

	tests := []struct {
		name  string
		order []string
		want  string
	}{
		{"listed first wins tie", []string{"b", "a", "c"}, "b"},
		{"name order", []string{"a", "b", "c"}, "a"},
		{"lower score listed first", []string{"c", "b", "a"}, "b"},
		{"unlisted values skipped", []string{"c", "a"}, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectOrdered(scores, tt.order, false, 0)
			if !ok || got != tt.want {
				t.Errorf("SelectOrdered: got (%q, %v), want (%q, true)", got, ok, tt.want)
			}
		})
	}

	if got, ok := SelectOrdered(scores, []string{"b", "a"}, true, 7); ok {
		t.Errorf("tie at threshold selected %q", got)
	}
}

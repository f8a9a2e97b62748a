package cefr

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "exact code lowercase", input: "b2", expected: "B2"},
		{name: "exact code uppercase", input: "C1", expected: "C1"},
		{name: "beginner", input: "beginner", expected: "A1"},
		{name: "basico", input: "basico", expected: "A1"},
		{name: "just starting phrase", input: "I'm just starting out", expected: "A1"},
		{name: "intermediate", input: "intermediate", expected: "B1"},
		{name: "intermedio", input: "intermedio", expected: "B1"},
		{name: "advanced", input: "advanced", expected: "B2"},
		{name: "fluent", input: "pretty fluent", expected: "B2"},
		{name: "native", input: "native speaker", expected: "C1"},
		{name: "empty defaults to A1", input: "", expected: "A1"},
		{name: "unknown defaults to A1", input: "somewhere in the middle of nowhere?", expected: "A1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		stated   string
		scores   []float64
		expected string
	}{
		{name: "stated level no scores", stated: "B1", scores: nil, expected: "B1"},
		{name: "stated level scores inside band", stated: "B1", scores: []float64{0.6, 0.7}, expected: "B1"},
		{name: "step down on weak performance", stated: "B2", scores: []float64{0.2, 0.3}, expected: "B1"},
		{name: "step up on strong performance", stated: "A2", scores: []float64{0.95, 0.9}, expected: "B1"},
		{name: "A1 cannot step down", stated: "A1", scores: []float64{0.0}, expected: "A1"},
		{name: "C2 cannot step up", stated: "C2", scores: []float64{1.0, 1.0}, expected: "C2"},
		{name: "colloquial stated level", stated: "beginner", scores: nil, expected: "A1"},
		{name: "slightly below band is not enough to step down", stated: "B1", scores: []float64{0.35}, expected: "B1"},
		{name: "exactly 0.15 above band top stays put", stated: "B1", scores: []float64{0.95}, expected: "B1"},
		{name: "just past 0.15 above band top steps up", stated: "B1", scores: []float64{0.96}, expected: "B2"},
		{name: "no stated level no scores", stated: "", scores: nil, expected: "A1"},
		{name: "no stated level high average", stated: "", scores: []float64{0.92, 0.9}, expected: "C2"},
		{name: "no stated level C1 bucket", stated: "", scores: []float64{0.86}, expected: "C1"},
		{name: "no stated level B2 bucket", stated: "", scores: []float64{0.75}, expected: "B2"},
		{name: "no stated level B1 bucket", stated: "", scores: []float64{0.65}, expected: "B1"},
		{name: "no stated level A2 bucket", stated: "", scores: []float64{0.55}, expected: "A2"},
		{name: "no stated level low average", stated: "", scores: []float64{0.2}, expected: "A1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.stated, tt.scores); got != tt.expected {
				t.Errorf("Resolve(%q, %v) = %q, want %q", tt.stated, tt.scores, got, tt.expected)
			}
		})
	}
}

func TestTargetBand(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		exact    bool
		expected string
	}{
		{name: "A1 band", level: "A1", exact: false, expected: "A1-A2"},
		{name: "B1 band", level: "B1", exact: false, expected: "B1-B2"},
		{name: "C1 band", level: "C1", exact: false, expected: "C1-C2"},
		{name: "C2 has no headroom", level: "C2", exact: false, expected: "C2"},
		{name: "exact keeps level", level: "A1", exact: true, expected: "A1"},
		{name: "exact B2", level: "B2", exact: true, expected: "B2"},
		{name: "unknown level treated as A1", level: "Z9", exact: false, expected: "A1-A2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetBand(tt.level, tt.exact); got != tt.expected {
				t.Errorf("TargetBand(%q, %v) = %q, want %q", tt.level, tt.exact, got, tt.expected)
			}
		})
	}
}

func TestFormatForPrompt(t *testing.T) {
	got := FormatForPrompt("A1-A2")
	if got == "" {
		t.Fatal("expected non-empty prompt text")
	}
	if want := "A1-A2 (Waystage): "; len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("FormatForPrompt(A1-A2) = %q, want prefix %q", got, want)
	}

	single := FormatForPrompt("B2")
	if want := "B2 (Vantage): "; len(single) < len(want) || single[:len(want)] != want {
		t.Errorf("FormatForPrompt(B2) = %q, want prefix %q", single, want)
	}
}

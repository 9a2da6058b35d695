package instruction

import "testing"

func hasToken(tokens map[string]struct{}, want string) bool {
	_, ok := tokens[want]
	return ok
}

func TestExtractTokens(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		want        []string
		wantAbsent  []string
	}{
		{
			name:        "numbered reference",
			instruction: "Delete paragraph 1.3",
			want:        []string{"1.3"},
		},
		{
			name:        "quoted phrase and its long words",
			instruction: `Replace "reasonable care" with "professional diligence"`,
			want:        []string{"reasonable care", "reasonable", "care", "professional diligence", "professional", "diligence"},
		},
		{
			name:        "short quoted words dropped individually",
			instruction: `Replace "the fee" with "the sum"`,
			want:        []string{"the fee", "the sum"},
			wantAbsent:  []string{"the", "fee", "sum"},
		},
		{
			name:        "curly quotes",
			instruction: "Strike “force majeure” from the clause",
			want:        []string{"force majeure", "force", "majeure"},
		},
		{
			name:        "action verb reference",
			instruction: "Please delete 4.2 entirely",
			want:        []string{"4.2"},
		},
		{
			name:        "position anchor",
			instruction: "Insert a new clause after the indemnification section",
			want:        []string{"indemnification"},
		},
		{
			name:        "substitute clause captures replacement wording",
			instruction: "Substitute the following for paragraph 2.1: the supplier warrants the deliverables",
			want:        []string{"2.1", "supplier", "warrants", "deliverables"},
		},
		{
			name:        "article reference",
			instruction: "Amend Article B-12 accordingly",
			want:        []string{"b-12"},
		},
		{
			name:        "tokens are lower-cased",
			instruction: `Replace "Governing Law"`,
			want:        []string{"governing law", "governing"},
			wantAbsent:  []string{"Governing Law"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := ExtractTokens(tt.instruction)
			for _, w := range tt.want {
				if !hasToken(tokens, w) {
					t.Errorf("missing token %q in %v", w, keys(tokens))
				}
			}
			for _, w := range tt.wantAbsent {
				if hasToken(tokens, w) {
					t.Errorf("unexpected token %q", w)
				}
			}
		})
	}
}

func TestExtractTokensEmptyInstruction(t *testing.T) {
	if tokens := ExtractTokens("tidy this up"); len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", keys(tokens))
	}
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

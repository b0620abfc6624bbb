package jwt

import "testing"

func TestMatchAlgorithm(t *testing.T) {
	var tests = []struct {
		declared string
		allowed  []Alg
		ok       bool
	}{
		{"HS256", []Alg{HS256}, true},
		{"HS256", []Alg{HS384, HS256}, true},
		{"hs256", []Alg{HS256}, false},
		{"HS256 ", []Alg{HS256}, false},
		{"RS256", []Alg{HS384, ES256}, false},
		{"HS256", nil, false},
		{"HS256", []Alg{nil, HS256}, true},
		{"", []Alg{HS256}, false},
	}

	for i, tt := range tests {
		if got := MatchAlgorithm(tt.declared, tt.allowed...); got != tt.ok {
			t.Fatalf("[%d] MatchAlgorithm(%q): expected %v but got %v", i, tt.declared, tt.ok, got)
		}
	}

	// the allowed instance is returned, not a registry lookup.
	custom := FromSigningMethod(HS256.(*algMethod).method)
	alg, ok := matchAlgorithm("HS256", []Alg{custom})
	if !ok || alg != custom {
		t.Fatalf("expected the allowed instance back")
	}
}

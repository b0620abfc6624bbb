package jwt

// MatchAlgorithm reports whether declared is exactly (case-sensitive) the
// name of one of the allowed algorithms.
func MatchAlgorithm(declared string, allowed ...Alg) bool {
	_, ok := matchAlgorithm(declared, allowed)
	return ok
}

// matchAlgorithm returns the allowed algorithm named declared.
// The verifier signs and verifies with that one, never with a lookup
// driven by the token itself.
func matchAlgorithm(declared string, allowed []Alg) (Alg, bool) {
	for _, alg := range allowed {
		if alg != nil && alg.Name() == declared {
			return alg, true
		}
	}

	return nil, false
}

package rules

import "math"

// ShannonEntropy calculates the Shannon entropy of a string in bits per
// symbol over its rune-frequency distribution. Empty input and input with a
// single distinct rune both yield 0.0. Two equally likely symbols yield 1.0
// bit, four yield 2.0 bits.
//
// Entropy above HighEntropyThreshold suggests random or encoded content
// rather than natural language.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}

	// H(X) = -sum p(x) * log2(p(x))
	var entropy float64
	length := float64(total)
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// IsHighEntropy reports whether s exceeds the catalog's entropy threshold.
func IsHighEntropy(s string) bool {
	return ShannonEntropy(s) > HighEntropyThreshold
}

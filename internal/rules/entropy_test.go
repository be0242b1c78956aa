package rules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestShannonEntropy(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"empty", "", 0.0},
		{"single distinct rune", "aaaa", 0.0},
		{"two equally likely symbols", "ab", 1.0},
		{"four equally likely symbols", "abcd", 2.0},
		{"two symbols repeated", "abab", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ShannonEntropy(tt.in), 0.0001)
		})
	}
}

func TestShannonEntropy_NaturalVsRandom(t *testing.T) {
	prose := "the quick brown fox jumps over the lazy dog and keeps running"
	random := "x9K2mQ8vL4pR7wN3jT6bY1cZ5dF0hG9aS2eU8iO4"

	assert.Less(t, ShannonEntropy(prose), ShannonEntropy(random))
	assert.False(t, IsHighEntropy(prose))
}

func TestShannonEntropy_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		h := ShannonEntropy(s)

		assert.GreaterOrEqual(t, h, 0.0)

		// Entropy is bounded by log2 of the number of distinct runes.
		distinct := make(map[rune]bool)
		for _, r := range s {
			distinct[r] = true
		}
		if len(distinct) > 0 {
			assert.LessOrEqual(t, h, math.Log2(float64(len(distinct)))+0.0001)
		}

		// Entropy depends only on the distribution, not the order.
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		assert.InDelta(t, h, ShannonEntropy(string(runes)), 0.0001)
	})
}

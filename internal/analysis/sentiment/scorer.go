// Package sentiment scores article text with a lexicon-based compound
// polarity model and extracts named entities from it.
package sentiment

import (
	"math"
	"strings"
	"unicode"
)

const (
	boostIncr = 0.293
	boostDecr = -0.293

	// negationScalar flips and dampens a negated sentiment word.
	negationScalar = -0.74

	// normalizationAlpha approximates the maximum expected raw sum.
	normalizationAlpha = 15.0

	maxPhraseLen = 3
	window       = 3
)

// Analyzer computes compound sentiment scores.
type Analyzer struct {
	lexicon map[string]float64
	phrases map[string]float64
}

// NewAnalyzer returns an Analyzer backed by the built-in lexicon.
func NewAnalyzer() *Analyzer {
	return &Analyzer{lexicon: lexicon, phrases: phraseLexicon}
}

// Score returns the compound polarity of text in [-1, 1]. Text without
// any sentiment-bearing words scores 0.
func (a *Analyzer) Score(text string) float64 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	valences := make([]float64, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if n, v, ok := a.matchPhrase(tokens, i); ok {
			valences[i] = a.modify(tokens, i, v)
			i += n - 1
			continue
		}
		v, ok := a.lexicon[tokens[i]]
		if !ok {
			continue
		}
		valences[i] = a.modify(tokens, i, v)
	}

	applyButRule(tokens, valences)

	sum := 0.0
	for _, v := range valences {
		sum += v
	}
	return normalize(sum)
}

// matchPhrase looks for the longest phrase entry starting at i.
func (a *Analyzer) matchPhrase(tokens []string, i int) (int, float64, bool) {
	for n := maxPhraseLen; n >= 2; n-- {
		if i+n > len(tokens) {
			continue
		}
		if v, ok := a.phrases[strings.Join(tokens[i:i+n], " ")]; ok {
			return n, v, true
		}
	}
	return 0, 0, false
}

// modify applies booster and negation words found in the window of
// tokens preceding position i.
func (a *Analyzer) modify(tokens []string, i int, v float64) float64 {
	for d := 1; d <= window && i-d >= 0; d++ {
		prev := tokens[i-d]
		if b, ok := boosters[prev]; ok {
			scalar := b
			if v < 0 {
				scalar = -scalar
			}
			switch d {
			case 2:
				scalar *= 0.95
			case 3:
				scalar *= 0.9
			}
			v += scalar
		}
	}
	for d := 1; d <= window && i-d >= 0; d++ {
		if negations[tokens[i-d]] {
			v *= negationScalar
			break
		}
	}
	return v
}

// applyButRule dampens sentiment before a contrastive "but" and
// emphasizes sentiment after it.
func applyButRule(tokens []string, valences []float64) {
	for i, t := range tokens {
		if t != "but" {
			continue
		}
		for j := range valences {
			switch {
			case j < i:
				valences[j] *= 0.5
			case j > i:
				valences[j] *= 1.5
			}
		}
		return
	}
}

func normalize(sum float64) float64 {
	if sum == 0 {
		return 0
	}
	score := sum / math.Sqrt(sum*sum+normalizationAlpha)
	return math.Max(-1, math.Min(1, score))
}

// Tokenize lowercases text and splits it into words of ASCII letters.
// Apostrophes inside words are dropped, so "don't" becomes "dont".
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		case r == '\'' || r == '’':
		default:
			flush()
		}
	}
	flush()
	return tokens
}

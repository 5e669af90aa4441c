// Package lexicon implements a lexical sentiment analyzer used as the
// fallback tier when the pretrained classifier is unavailable. It scores text
// with a small valence word list, producing a signed polarity in [-1, 1] that
// is mapped onto the shared label set with fixed thresholds.
package lexicon

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/solacevoice/solace/pkg/provider/sentiment"
)

// Polarity thresholds for the label mapping. Values above positiveThreshold
// map to POSITIVE, below negativeThreshold to NEGATIVE, everything else to
// NEUTRAL. These are part of the service contract and must not drift.
const (
	positiveThreshold = 0.2
	negativeThreshold = -0.2
)

// valences assigns each known word a strength in [-5, 5], AFINN-style. The
// list is intentionally small and skewed toward the emotional vocabulary of a
// therapy conversation.
var valences = map[string]float64{
	"abandoned": -3, "afraid": -3, "alone": -2, "amazing": 4,
	"angry": -3, "anxious": -3, "awful": -4, "bad": -3,
	"better": 2, "broken": -3, "calm": 2, "cheerful": 3,
	"content": 2, "crying": -3, "depressed": -4, "despair": -4,
	"devastated": -5, "down": -2, "dreadful": -4, "empty": -3,
	"excited": 3, "exhausted": -3, "fantastic": 4, "fine": 1,
	"glad": 3, "good": 3, "grateful": 3, "great": 3,
	"grief": -4, "happy": 3, "hate": -4, "heartbroken": -5,
	"helpless": -4, "hopeful": 3, "hopeless": -4, "hurt": -3,
	"joy": 4, "joyful": 4, "lonely": -3, "lost": -2,
	"love": 3, "loved": 3, "miserable": -4, "nervous": -2,
	"okay": 1, "optimistic": 3, "overwhelmed": -3, "panic": -4,
	"peaceful": 3, "proud": 3, "relaxed": 2, "relieved": 3,
	"sad": -3, "scared": -3, "stressed": -3, "strong": 2,
	"struggling": -3, "stuck": -2, "terrible": -4, "terrified": -5,
	"thankful": 3, "tired": -2, "trapped": -3, "upset": -3,
	"useless": -3, "wonderful": 4, "worried": -3, "worse": -3,
	"worthless": -5,
}

// negators flip the valence of the word that follows them.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true,
	"dont": true, "can't": true, "cant": true, "isn't": true, "isnt": true,
}

// Compile-time assertion.
var _ sentiment.Provider = (*Analyzer)(nil)

// Analyzer is the lexical fallback sentiment provider. It is stateless and
// safe for concurrent use.
type Analyzer struct{}

// New returns a new lexical Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze scores text and returns a Judgment tagged UsedFallback. It never
// fails: text with no known words (including empty text) is NEUTRAL with
// score 0.
func (a *Analyzer) Analyze(_ context.Context, text string) (sentiment.Judgment, error) {
	polarity := Polarity(text)

	label := sentiment.LabelNeutral
	switch {
	case polarity > positiveThreshold:
		label = sentiment.LabelPositive
	case polarity < negativeThreshold:
		label = sentiment.LabelNegative
	}

	return sentiment.Judgment{
		Label:        label,
		Score:        math.Round(math.Abs(polarity)*100) / 100,
		UsedFallback: true,
	}, nil
}

// Polarity computes the signed polarity of text in [-1, 1]: the mean valence
// of matched words, normalised by the maximum word strength. Unknown words
// contribute nothing; a preceding negator flips a word's sign.
func Polarity(text string) float64 {
	words := tokenize(text)

	var sum float64
	var matched int
	negate := false
	for _, w := range words {
		if negators[w] {
			negate = true
			continue
		}
		v, ok := valences[w]
		if ok {
			if negate {
				v = -v
			}
			sum += v / 5
			matched++
		}
		negate = false
	}
	if matched == 0 {
		return 0
	}

	p := sum / float64(matched)
	if p > 1 {
		p = 1
	} else if p < -1 {
		p = -1
	}
	return p
}

// tokenize lower-cases text and splits it into words, keeping in-word
// apostrophes so contractions like "can't" survive.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// Package intent resolves free-text requests to tool invocations using a
// deterministic keyword scoring function. No ML, no randomness: the same
// text against the same signatures always produces the same result.
package intent

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultThreshold is the minimum normalized score a signature must reach
// before the classifier commits to a tool instead of returning no match.
const DefaultThreshold = 0.3

// Signature maps a set of trigger phrases to a tool. Multi-word phrases
// carry more weight than single keywords so that more specific intents win.
// Multiple signatures may target the same tool (synonyms).
type Signature struct {
	Tool       string
	Phrases    []string
	Extractors []Extractor
}

// Candidate is a scored signature, reported for diagnostics.
type Candidate struct {
	Tool  string  `json:"tool"`
	Score float64 `json:"score"`
}

// Result is the outcome of a classification call. Tool is empty when no
// signature reached the confidence threshold.
type Result struct {
	Tool       string         `json:"tool,omitempty"`
	Confidence float64        `json:"confidence"`
	Args       map[string]any `json:"args,omitempty"`
	Candidates []Candidate    `json:"candidates,omitempty"`
}

// Matched reports whether classification committed to a tool.
func (r Result) Matched() bool { return r.Tool != "" }

// Classifier scores text against a fixed, ordered set of signatures.
// Signatures are added during startup; Classify is safe for concurrent use
// once the classifier is built.
type Classifier struct {
	sigs      []Signature
	threshold float64
}

// NewClassifier creates a classifier with the given confidence threshold.
// A threshold <= 0 falls back to DefaultThreshold.
func NewClassifier(threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{threshold: threshold}
}

// Add registers a signature. Registration order is the final tie-breaker,
// so earlier signatures win exact ties (first registered wins).
func (c *Classifier) Add(sig Signature) {
	c.sigs = append(c.sigs, sig)
}

// Threshold returns the configured confidence threshold.
func (c *Classifier) Threshold() float64 { return c.threshold }

// scored pairs a signature with its match score for ranking.
type scored struct {
	index     int // registration order
	score     float64
	phraseLen int // total trigger-phrase length, for specificity tie-break
}

// Classify scores text against every signature and returns the best match
// with extracted arguments, or an unmatched result carrying the ranked
// runner-up candidates when nothing reaches the threshold.
func (c *Classifier) Classify(text string) Result {
	normalized := Normalize(text)
	tokens := tokenSet(normalized)

	var matches []scored
	for i, sig := range c.sigs {
		score := matchScore(sig, normalized, tokens)
		if score > 0 {
			matches = append(matches, scored{index: i, score: score, phraseLen: totalPhraseLen(sig)})
		}
	}

	// Rank: score desc, then longer total trigger-phrase length (more
	// specific wins), then registration order. sort.SliceStable plus the
	// index comparison keeps the ordering fully deterministic.
	sort.SliceStable(matches, func(a, b int) bool {
		ma, mb := matches[a], matches[b]
		if ma.score != mb.score {
			return ma.score > mb.score
		}
		if ma.phraseLen != mb.phraseLen {
			return ma.phraseLen > mb.phraseLen
		}
		return ma.index < mb.index
	})

	candidates := make([]Candidate, 0, len(matches))
	seen := make(map[string]bool)
	for _, m := range matches {
		tool := c.sigs[m.index].Tool
		if seen[tool] {
			continue // keep only the best-scoring signature per tool
		}
		seen[tool] = true
		candidates = append(candidates, Candidate{Tool: tool, Score: m.score})
	}

	if len(matches) == 0 || matches[0].score < c.threshold {
		return Result{Confidence: topScore(matches), Candidates: candidates}
	}

	best := c.sigs[matches[0].index]
	return Result{
		Tool:       best.Tool,
		Confidence: matches[0].score,
		Args:       extractArgs(best.Extractors, text),
		Candidates: candidates,
	}
}

func topScore(matches []scored) float64 {
	if len(matches) == 0 {
		return 0
	}
	return matches[0].score
}

// matchScore computes the signature's match against normalized text in
// [0,1]: the sum of matched phrase weights over the maximum achievable sum.
// A phrase's weight is its word count, so "create branch" outweighs "branch".
func matchScore(sig Signature, normalized string, tokens map[string]bool) float64 {
	var matched, max int
	for _, phrase := range sig.Phrases {
		words := strings.Fields(phrase)
		weight := len(words)
		if weight == 0 {
			continue
		}
		max += weight
		if weight == 1 {
			if tokens[words[0]] {
				matched += weight
			}
			continue
		}
		if containsPhrase(normalized, strings.Join(words, " ")) {
			matched += weight
		}
	}
	if max == 0 {
		return 0
	}
	return float64(matched) / float64(max)
}

// containsPhrase reports a word-boundary-aware substring match.
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || text[start-1] == ' '
		afterOK := end == len(text) || text[end] == ' '
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func totalPhraseLen(sig Signature) int {
	n := 0
	for _, p := range sig.Phrases {
		n += len(p)
	}
	return n
}

// Normalize lowercases text and replaces punctuation with spaces without
// touching the caller's string. Hyphens, underscores and slashes become
// spaces so "feature-x" and "feature x" tokenize the same way.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		set[tok] = true
	}
	return set
}

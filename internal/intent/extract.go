package intent

import (
	"regexp"
	"strings"
)

// Extractor pulls a parameter value out of the original (non-normalized)
// request text. Pattern must contain at least one capture group; the first
// non-empty group becomes the value.
type Extractor struct {
	Param   string
	Pattern *regexp.Regexp
	// Clean post-processes the captured value (trim quotes, etc.).
	// Optional; nil means the raw capture is used as-is.
	Clean func(string) string
}

// extractArgs runs every extractor against text and collects the parameters
// that could be confidently pulled out. Parameters no rule matched are left
// absent for the execution engine to report.
func extractArgs(extractors []Extractor, text string) map[string]any {
	if len(extractors) == 0 {
		return nil
	}
	args := make(map[string]any)
	for _, ex := range extractors {
		if _, done := args[ex.Param]; done {
			continue
		}
		m := ex.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := firstGroup(m)
		if ex.Clean != nil {
			value = ex.Clean(value)
		}
		value = strings.TrimSpace(value)
		if value != "" {
			args[ex.Param] = value
		}
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// Common extraction patterns shared by the catalog's signatures.
var (
	// "... called feature-x", "... named my-repo"
	namedValue = regexp.MustCompile(`(?i)(?:called|named)\s+["']?([\w./-]+)["']?`)

	// quoted free text: 'a commit message' or "a commit message"
	quotedText = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

	// repository URLs, with or without a trailing .git
	repoURL = regexp.MustCompile(`(https?://\S+?)(?:\s|$)`)

	// "into main", "into the develop branch"
	mergeTarget = regexp.MustCompile(`(?i)into\s+(?:the\s+)?["']?([\w./-]+?)["']?(?:\s+branch)?(?:\s|$|[.,])`)

	// "merge feature/login into ..." captures the source branch
	mergeSource = regexp.MustCompile(`(?i)merge\s+(?:the\s+)?["']?([\w./-]+?)["']?(?:\s+branch)?\s+into\b`)
)

// Named returns an extractor for "called X" / "named X" forms.
func Named(param string) Extractor {
	return Extractor{Param: param, Pattern: namedValue}
}

// Quoted returns an extractor for a quoted span of text.
func Quoted(param string) Extractor {
	return Extractor{Param: param, Pattern: quotedText}
}

// URL returns an extractor capturing the first http(s) URL in the text.
func URL(param string) Extractor {
	return Extractor{Param: param, Pattern: repoURL, Clean: func(s string) string {
		return strings.TrimRight(s, ".,;")
	}}
}

// MergeSource returns an extractor for the source branch of a merge request.
func MergeSource(param string) Extractor {
	return Extractor{Param: param, Pattern: mergeSource}
}

// MergeTarget returns an extractor for the target branch of a merge request.
func MergeTarget(param string) Extractor {
	return Extractor{Param: param, Pattern: mergeTarget}
}

// Custom builds an extractor from an arbitrary pattern string. The pattern
// is compiled once at startup; a bad pattern is a programming error.
func Custom(param, pattern string) Extractor {
	return Extractor{Param: param, Pattern: regexp.MustCompile(pattern)}
}

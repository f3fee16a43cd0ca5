// Package redact scrubs credentials from diagnostic text before it is
// attached to errors, ticket comments, or review-request bodies. Apply
// failures embed tool output and patch snippets verbatim, and those regularly
// contain whatever the model hallucinated into the change, so everything
// outward-bound passes through Scrub.
package redact

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// candidateRe matches token-shaped runs long enough to be worth an entropy check.
var candidateRe = regexp.MustCompile(`[A-Za-z0-9/+_=-]{10,}`)

// entropyThreshold separates identifiers from key material. Typical API keys
// sit well above 5.0; common words and paths stay below.
const entropyThreshold = 4.5

const placeholder = "REDACTED"

var (
	detector     *detect.Detector
	detectorOnce sync.Once
)

func getDetector() *detect.Detector {
	detectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		detector = d
	})
	return detector
}

type span struct{ start, end int }

// Scrub replaces suspected secrets in s with a placeholder. Two layers:
// high-entropy token detection and the gitleaks ruleset. A token flagged by
// either layer is redacted.
func Scrub(s string) string {
	var spans []span

	for _, loc := range candidateRe.FindAllStringIndex(s, -1) {
		if shannonEntropy(s[loc[0]:loc[1]]) > entropyThreshold {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}

	if d := getDetector(); d != nil {
		for _, f := range d.DetectString(s) {
			if f.Secret == "" {
				continue
			}
			from := 0
			for {
				idx := strings.Index(s[from:], f.Secret)
				if idx < 0 {
					break
				}
				abs := from + idx
				spans = append(spans, span{abs, abs + len(f.Secret)})
				from = abs + len(f.Secret)
			}
		}
	}

	if len(spans) == 0 {
		return s
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := spans[:1]
	for _, r := range spans[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			if r.end > last.end {
				last.end = r.end
			}
		} else {
			merged = append(merged, r)
		}
	}

	var b strings.Builder
	prev := 0
	for _, r := range merged {
		b.WriteString(s[prev:r.start])
		b.WriteString(placeholder)
		prev = r.end
	}
	b.WriteString(s[prev:])
	return b.String()
}

func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}
	var entropy float64
	n := float64(len(s))
	for _, c := range counts {
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

package crisis

import (
	"sort"
	"strings"
	"unicode"
)

// Severity orders how urgently a message needs a human response.
type Severity string

const (
	Low    Severity = "low"
	Medium Severity = "medium"
	High   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// Result is the outcome of checking one message.
type Result struct {
	Severity  Severity `json:"severity"`
	Triggered bool     `json:"triggered"`
	Keywords  []string `json:"keywords,omitempty"`
}

var defaultBuckets = map[Severity][]string{
	High: {
		"suicide", "suicidal", "kill myself", "killing myself", "end my life", "ending my life",
		"take my own life", "want to die", "wanna die", "better off dead", "no reason to live",
		"hurt myself", "harm myself", "self harm", "cut myself", "overdose", "end it all",
	},
	Medium: {
		"hopeless", "cant go on", "can not go on", "give up on life", "worthless", "no way out",
		"nobody would care", "no one would miss me", "trapped", "unbearable", "cant take it anymore",
		"disappear forever", "burden to everyone",
	},
	Low: {
		"depressed", "depression", "panic attack", "anxious", "anxiety", "overwhelmed",
		"lonely", "so alone", "all alone", "feel alone", "feeling alone", "cant sleep", "crying",
		"empty inside", "exhausted",
	},
}

// Detector is a keyword matcher over three severity buckets. Phrases are
// matched on word boundaries after normalisation, so "diet" never matches "die".
type Detector struct {
	buckets map[Severity][]string
}

// NewDetector builds a detector from the built-in buckets plus extra phrases.
func NewDetector(extra map[Severity][]string) *Detector {
	buckets := make(map[Severity][]string, len(defaultBuckets))
	for sev, words := range defaultBuckets {
		buckets[sev] = normaliseAll(words)
	}
	for sev, words := range extra {
		if sev.rank() == 0 {
			continue
		}
		buckets[sev] = append(buckets[sev], normaliseAll(words)...)
	}
	return &Detector{buckets: buckets}
}

// Detect classifies text. The highest matching bucket wins; with no match the
// result is Low and not triggered.
func (d *Detector) Detect(text string) Result {
	normalized := normalise(text)
	if normalized == "" {
		return Result{Severity: Low}
	}
	padded := " " + normalized + " "

	best := Severity("")
	seen := make(map[string]struct{})
	var keywords []string
	for sev, phrases := range d.buckets {
		for _, phrase := range phrases {
			if phrase == "" {
				continue
			}
			if !strings.Contains(padded, " "+phrase+" ") {
				continue
			}
			if _, ok := seen[phrase]; !ok {
				seen[phrase] = struct{}{}
				keywords = append(keywords, phrase)
			}
			if sev.rank() > best.rank() {
				best = sev
			}
		}
	}

	if best == "" {
		return Result{Severity: Low}
	}
	sort.Strings(keywords)
	return Result{Severity: best, Triggered: true, Keywords: keywords}
}

// normalise lower-cases, drops apostrophes and collapses everything that is not
// a letter or digit into single spaces.
func normalise(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func normaliseAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if n := normalise(w); n != "" {
			out = append(out, n)
		}
	}
	return out
}

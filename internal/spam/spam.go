// Package spam flags contact messages that look automated and decides
// whether they are stored.
package spam

import (
	"strings"
	"unicode/utf8"
)

// Default thresholds used when a Config leaves them unset.
const (
	DefaultMaxLinks  = 3
	DefaultMinLength = 20
)

// DefaultKeywords is the phrase list applied by DetectSpam.
var DefaultKeywords = []string{
	"viagra", "cialis", "casino", "lottery", "bitcoin", "crypto", "forex",
	"million dollar", "mlm", "earn from home", "work from home",
	"make money fast", "prize", "winner", "free money", "loan offer",
	"seo services", "backlinks",
}

// Config tunes the heuristic.
type Config struct {
	Keywords  []string
	MaxLinks  int
	MinLength int
}

// Detector applies keyword and link rules to lower-cased messages.
type Detector struct {
	keywords  []string
	maxLinks  int
	minLength int
}

// Decision is the outcome of Screen.
type Decision struct {
	Persist bool
	Reason  string
}

// Reasons reported by Screen.
const (
	ReasonClean       = ""
	ReasonKeyword     = "keyword"
	ReasonTooManyURLs = "too_many_links"
	ReasonShortLink   = "short_link"
)

// NewDetector builds a Detector. Nil keywords select DefaultKeywords and
// zero thresholds select the defaults.
func NewDetector(cfg Config) *Detector {
	keywords := cfg.Keywords
	if keywords == nil {
		keywords = DefaultKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	if cfg.MaxLinks == 0 {
		cfg.MaxLinks = DefaultMaxLinks
	}
	if cfg.MinLength == 0 {
		cfg.MinLength = DefaultMinLength
	}
	return &Detector{keywords: lowered, maxLinks: cfg.MaxLinks, minLength: cfg.MinLength}
}

var defaultDetector = NewDetector(Config{})

// DetectSpam applies the default heuristic to message.
func DetectSpam(message string) bool {
	return defaultDetector.IsSpam(message)
}

// IsSpam reports whether message trips any rule. Empty messages never do.
func (d *Detector) IsSpam(message string) bool {
	return d.classify(message) != ReasonClean
}

// Screen is the silent-drop policy for contact submissions: a flagged
// message is answered as a success but must not be persisted.
func (d *Detector) Screen(message string) Decision {
	reason := d.classify(message)
	return Decision{Persist: reason == ReasonClean, Reason: reason}
}

func (d *Detector) classify(message string) string {
	if message == "" {
		return ReasonClean
	}
	lower := strings.ToLower(message)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return ReasonKeyword
		}
	}
	links := strings.Count(lower, "http://") + strings.Count(lower, "https://")
	if links > d.maxLinks {
		return ReasonTooManyURLs
	}
	if utf8.RuneCountInString(lower) < d.minLength && strings.Contains(lower, "http") {
		return ReasonShortLink
	}
	return ReasonClean
}

package ai

import (
	"regexp"
	"strings"
)

// RefKind says how an upstream video reply was interpreted.
type RefKind int

const (
	RefText RefKind = iota
	RefJobID
	RefURL
)

func (k RefKind) String() string {
	switch k {
	case RefJobID:
		return "job_id"
	case RefURL:
		return "url"
	default:
		return "text"
	}
}

// Reference is the tracking handle pulled out of a free-text upstream reply.
type Reference struct {
	Kind  RefKind
	Value string
}

const maxReferenceText = 100

var (
	jobIDPattern = regexp.MustCompile(`(?i)job[_-]?id["']?\s*[:=]\s*["']?([a-zA-Z0-9\-]+)["']?`)
	urlPattern   = regexp.MustCompile(`https?://[^\s)]+`)
)

// ExtractReference applies the ordered heuristic: an explicit job id, then the
// first URL, then a bounded prefix of the text itself.
func ExtractReference(text string) Reference {
	if m := jobIDPattern.FindStringSubmatch(text); m != nil {
		return Reference{Kind: RefJobID, Value: m[1]}
	}
	if u := FirstURL(text); u != "" {
		return Reference{Kind: RefURL, Value: u}
	}
	return Reference{Kind: RefText, Value: strings.ReplaceAll(truncateRunes(text, maxReferenceText), "\n", " ")}
}

// FirstURL returns the first http(s) URL in text, or "".
func FirstURL(text string) string {
	return urlPattern.FindString(text)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

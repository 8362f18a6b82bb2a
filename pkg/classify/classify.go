// Package classify maps job log lines to display categories using keyword
// markers. The rules are checked in a fixed order and the first match wins:
//
//  1. success markers -> CategorySuccess
//  2. error markers   -> CategoryError
//  3. alert markers   -> CategoryHighlight
//  4. otherwise       -> CategoryInfo
//
// A line containing markers from several families is classified by the
// earliest rule, so "완료 ... 오류" is a success line.
package classify

import "strings"

type Category string

const (
	CategoryInfo      Category = "info"
	CategorySuccess   Category = "success"
	CategoryError     Category = "error"
	CategoryHighlight Category = "highlight"
)

type Markers struct {
	Success   []string `yaml:"success,omitempty"`
	Error     []string `yaml:"error,omitempty"`
	Highlight []string `yaml:"highlight,omitempty"`
}

// DefaultMarkers are the tokens the GLOP driver prints.
func DefaultMarkers() Markers {
	return Markers{
		Success:   []string{"완료", "성공"},
		Error:     []string{"오류", "실패"},
		Highlight: []string{"알림", ">>>"},
	}
}

// Merge appends extra tokens to each family, skipping empties and duplicates.
func (m Markers) Merge(extra Markers) Markers {
	return Markers{
		Success:   appendTokens(m.Success, extra.Success),
		Error:     appendTokens(m.Error, extra.Error),
		Highlight: appendTokens(m.Highlight, extra.Highlight),
	}
}

type Classifier struct {
	markers Markers
}

func New(markers Markers) *Classifier {
	return &Classifier{markers: markers}
}

func (c *Classifier) Classify(text string) Category {
	switch {
	case containsAny(text, c.markers.Success):
		return CategorySuccess
	case containsAny(text, c.markers.Error):
		return CategoryError
	case containsAny(text, c.markers.Highlight):
		return CategoryHighlight
	default:
		return CategoryInfo
	}
}

var defaultClassifier = New(DefaultMarkers())

// Classify uses DefaultMarkers.
func Classify(text string) Category {
	return defaultClassifier.Classify(text)
}

func containsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if tok != "" && strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

func appendTokens(base, extra []string) []string {
	out := append([]string{}, base...)
	for _, tok := range extra {
		if tok == "" || contains(out, tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

package store

import (
	"strings"

	"golang.org/x/text/cases"
)

// titleMatcher reports whether a title contains the keyword, ignoring case.
// Both sides are Unicode case folded before the substring test.
type titleMatcher struct {
	caser   cases.Caser
	keyword string
}

func newTitleMatcher(keyword string) *titleMatcher {
	c := cases.Fold()
	return &titleMatcher{
		caser:   c,
		keyword: c.String(strings.TrimSpace(keyword)),
	}
}

func (m *titleMatcher) empty() bool {
	return m.keyword == ""
}

func (m *titleMatcher) match(title string) bool {
	return strings.Contains(m.caser.String(title), m.keyword)
}

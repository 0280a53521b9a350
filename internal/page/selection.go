package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Selection is a range over a set of elements
type Selection struct {
	doc       *Document
	nodes     *goquery.Selection
	collapsed bool
}

// Document returns the document the selection belongs to
func (s *Selection) Document() *Document {
	return s.doc
}

// Collapsed reports whether the range is empty or has been cleared
func (s *Selection) Collapsed() bool {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.collapsed || s.nodes.Length() == 0
}

// Text returns the trimmed text covered by the range
func (s *Selection) Text() string {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	if s.collapsed {
		return ""
	}
	parts := make([]string, 0, s.nodes.Length())
	s.nodes.Each(func(_ int, el *goquery.Selection) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Anchor returns the element enclosing the start of the range
func (s *Selection) Anchor() *Node {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	if s.nodes.Length() == 0 {
		return nil
	}
	start := s.nodes.Get(0)
	for start != nil && start.Type != html.ElementNode {
		start = start.Parent
	}
	if start == nil {
		return nil
	}
	return s.doc.node(start)
}

// Image returns the resolved src of the first image inside the range
func (s *Selection) Image() (string, bool) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	if s.collapsed {
		return "", false
	}
	var src string
	found := false
	s.nodes.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		img := el.Filter("img")
		if img.Length() == 0 {
			img = el.Find("img")
		}
		if value, ok := img.First().Attr("src"); ok && strings.TrimSpace(value) != "" {
			src, found = value, true
			return false
		}
		return true
	})
	if !found {
		return "", false
	}
	return s.doc.ResolveURL(src), true
}

// RemoveAllRanges clears the selection highlight
func (s *Selection) RemoveAllRanges() {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	s.collapsed = true
	if s.doc.active == s {
		s.doc.active = nil
	}
}

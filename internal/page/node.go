package page

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is an element of a Document. The same element always maps to the same
// *Node, so nodes can be used as map keys.
type Node struct {
	doc *Document
	n   *html.Node
}

// Tag returns the element name
func (n *Node) Tag() string {
	return n.n.Data
}

// Attached reports whether the node is still part of the document
func (n *Node) Attached() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.doc.attached(n.n)
}

// SetTitle sets the title attribute
func (n *Node) SetTitle(title string) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if !n.doc.attached(n.n) {
		return ErrDetached
	}
	goquery.NewDocumentFromNode(n.n).Selection.SetAttr("title", title)
	return nil
}

// Title returns the title attribute, empty when unset
func (n *Node) Title() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	title, _ := goquery.NewDocumentFromNode(n.n).Selection.Attr("title")
	return title
}

// Package page models the DOM the agent works on: a parsed document, the
// user's selection range over it and the title attributes used as tooltips.
package page

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrDetached is returned when mutating a node that left the document
var ErrDetached = errors.New("page: node is no longer attached to the document")

// Document is a parsed page. All reads and writes go through mu because
// tooltip resets fire from timer goroutines.
type Document struct {
	mu        sync.Mutex
	doc       *goquery.Document
	base      *url.URL
	nodes     map[*html.Node]*Node
	resources map[string][]byte
	active    *Selection
}

// Parse reads an HTML page served from pageURL
func Parse(r io.Reader, pageURL string) (*Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Url = base

	return &Document{
		doc:       doc,
		base:      base,
		nodes:     make(map[*html.Node]*Node),
		resources: make(map[string][]byte),
	}, nil
}

// Origin returns scheme://host of the page
func (d *Document) Origin() string {
	return d.base.Scheme + "://" + d.base.Host
}

// ResolveURL resolves ref against the page URL
func (d *Document) ResolveURL(ref string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(ref)), "data:") {
		return strings.TrimSpace(ref)
	}
	u, err := d.base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return u.String()
}

// AddResource registers an already loaded subresource, such as an image the
// page has displayed
func (d *Document) AddResource(src string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resources[d.ResolveURL(src)] = data
}

// LoadResources registers every same-origin <img> found in fsys, which is
// treated as the origin's document root. It returns how many were loaded;
// images missing from fsys are skipped.
func (d *Document) LoadResources(fsys fs.FS) (int, error) {
	d.mu.Lock()
	var srcs []string
	d.doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		srcs = append(srcs, img.AttrOr("src", ""))
	})
	d.mu.Unlock()

	loaded := 0
	for _, src := range srcs {
		u, err := url.Parse(d.ResolveURL(src))
		if err != nil || u.Scheme != d.base.Scheme || u.Host != d.base.Host {
			continue
		}
		name := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
		if !fs.ValidPath(name) || name == "." {
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", name, err)
		}
		d.AddResource(src, data)
		loaded++
	}
	return loaded, nil
}

// Resource returns a loaded subresource by url
func (d *Document) Resource(src string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.resources[d.ResolveURL(src)]
	return data, ok
}

// Body returns the body element, nil when the page has none
func (d *Document) Body() *Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	return d.node(body.Get(0))
}

// Select creates a selection range spanning every element matching css and
// makes it the active selection
func (d *Document) Select(css string) *Selection {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := &Selection{doc: d, nodes: d.doc.Find(css)}
	d.active = sel
	return sel
}

// Active returns the current selection, nil after RemoveAllRanges
func (d *Document) Active() *Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Remove detaches every element matching css
func (d *Document) Remove(css string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	matched := d.doc.Find(css)
	n := matched.Length()
	matched.Remove()
	return n
}

// HTML renders the current state of the document
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return goquery.OuterHtml(d.doc.Selection)
}

// node returns the canonical wrapper for n so that wrappers compare equal
func (d *Document) node(n *html.Node) *Node {
	if existing, ok := d.nodes[n]; ok {
		return existing
	}
	wrapped := &Node{doc: d, n: n}
	d.nodes[n] = wrapped
	return wrapped
}

func (d *Document) attached(n *html.Node) bool {
	root := d.doc.Get(0)
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == root {
			return true
		}
	}
	return false
}

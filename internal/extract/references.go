package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind selects which structural references to look at.
type Kind int

const (
	Hyperlink Kind = iota
	Image
)

func (k Kind) String() string {
	switch k {
	case Hyperlink:
		return "hyperlink"
	case Image:
		return "image"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DefaultLabel is used when an element has no text (links) or alt (images).
func (k Kind) DefaultLabel() string {
	if k == Image {
		return "Image"
	}
	return "Link"
}

// EmptyMessage is rendered in place of an empty reference list.
func (k Kind) EmptyMessage() string {
	if k == Image {
		return "No images found"
	}
	return "No external links found"
}

func (k Kind) element() atom.Atom {
	if k == Image {
		return atom.Img
	}
	return atom.A
}

func (k Kind) attr() string {
	if k == Image {
		return "src"
	}
	return "href"
}

// Accepts reports whether locator is eligible for kind: absolute http(s)
// for hyperlinks, absolute http(s) or root-relative for images.
func (k Kind) Accepts(locator string) bool {
	if hasHTTPPrefix(locator) {
		return true
	}
	return k == Image && strings.HasPrefix(locator, "/")
}

func hasHTTPPrefix(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Reference is one hyperlink or image target. Label is only for display.
type Reference struct {
	Kind    Kind
	Locator string
	Label   string
}

func (r Reference) String() string {
	return r.Label + ": " + r.Locator
}

// References extracts references of kind from markup.
func References(markup string, kind Kind) []Reference {
	return Parse(markup).References(kind)
}

// References lists eligible references of kind in document order. Elements
// whose locator is not accepted are skipped. The tree is not modified.
func (d *Document) References(kind Kind) []Reference {
	var refs []Reference
	d.eachEligible(kind, func(n *html.Node, idx int) bool {
		refs = append(refs, Reference{
			Kind:    kind,
			Locator: n.Attr[idx].Val,
			Label:   labelFor(kind, n),
		})
		return true
	})
	return refs
}

// Assign overwrites the locators of eligible elements of kind, in document
// order, with locators. Elements past the end of locators keep their value.
// It returns how many elements were rewritten.
func (d *Document) Assign(kind Kind, locators []string) int {
	i := 0
	d.eachEligible(kind, func(n *html.Node, idx int) bool {
		if i >= len(locators) {
			return false
		}
		n.Attr[idx].Val = locators[i]
		i++
		return true
	})
	return i
}

// eachEligible calls fn for every element of kind whose locator attribute is
// accepted, passing the attribute index. fn returns false to stop the walk.
func (d *Document) eachEligible(kind Kind, fn func(n *html.Node, attrIdx int) bool) {
	want := kind.element()
	key := kind.attr()
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == want && n.Namespace == "" {
			if idx := attrIndex(n, key); idx >= 0 && kind.Accepts(n.Attr[idx].Val) {
				if !fn(n, idx) {
					return false
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(d.root)
}

func attrIndex(n *html.Node, key string) int {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return i
		}
	}
	return -1
}

func labelFor(kind Kind, n *html.Node) string {
	var label string
	if kind == Image {
		if idx := attrIndex(n, "alt"); idx >= 0 {
			label = n.Attr[idx].Val
		}
	} else {
		label = textContent(n)
	}
	// labels are rendered one per line
	label = collapseWhitespace(label)
	if label == "" {
		return kind.DefaultLabel()
	}
	return label
}

// FormatReferences renders refs as "label: locator" lines, or the kind's
// empty message when there are none.
func FormatReferences(kind Kind, refs []Reference) string {
	if len(refs) == 0 {
		return kind.EmptyMessage()
	}
	lines := make([]string, len(refs))
	for i, r := range refs {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

package extract

import (
	"bytes"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxTextChars caps plain-text extraction, counted in code points after
// whitespace collapsing.
const MaxTextChars = 5000

// Document is a parsed markup tree. The zero value is not usable; build one
// with Parse.
type Document struct {
	root *html.Node
}

// Parse builds a best-effort tree from markup. It never fails: input the
// parser rejects yields an empty document.
func Parse(markup string) *Document {
	node, err := html.Parse(strings.NewReader(markup))
	if err != nil || node == nil {
		return &Document{root: &html.Node{Type: html.DocumentNode}}
	}
	return &Document{root: node}
}

// PlainText extracts the visible text of markup. See (*Document).PlainText.
func PlainText(markup string) string {
	return Parse(markup).PlainText()
}

// PlainText concatenates the text under <body> (or the whole document when
// there is no body), skipping script, style and noscript content. Whitespace
// runs collapse to a single space, the result is trimmed and then silently
// truncated to MaxTextChars. Other code points pass through untouched and the
// tree is not modified.
func (d *Document) PlainText() string {
	root := findFirst(d.root, atom.Body)
	if root == nil {
		root = d.root
	}
	var b strings.Builder
	collectText(&b, root)
	text := collapseWhitespace(b.String())
	return truncateRunes(text, MaxTextChars)
}

// Render serializes the tree back to markup.
func (d *Document) Render() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return ""
	}
	return buf.String()
}

// Clone returns a deep copy that shares no nodes with d.
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root)}
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, a); res != nil {
			return res
		}
	}
	return nil
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript:
			return
		}
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// textContent returns every text node below n, like the DOM property.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

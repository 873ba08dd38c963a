// Package richtext inspects note content, which is stored as an HTML
// fragment produced by a rich-text editor.
package richtext

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EmptyDocument is what the editor stores for a note with no text.
const EmptyDocument = "<p><br></p>"

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Ul: true, atom.Ol: true, atom.Table: true,
}

// embeds count as content even though they carry no text.
var embeds = map[atom.Atom]bool{
	atom.Img: true, atom.Video: true, atom.Iframe: true,
}

func parse(fragment string) []*html.Node {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		// not reachable with a strings.Reader; treat as plain text
		return []*html.Node{{Type: html.TextNode, Data: fragment}}
	}
	return nodes
}

// Paragraphs returns the text of each block, with inline markup dropped and
// <br> turned into a newline. Empty blocks are kept as "".
func Paragraphs(fragment string) []string {
	var (
		out  []string
		cur  strings.Builder
		open bool
	)
	flush := func() {
		if open || cur.Len() > 0 {
			out = append(out, strings.TrimRight(cur.String(), "\n"))
		}
		cur.Reset()
		open = false
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Br {
				cur.WriteByte('\n')
				return
			}
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		isBlock := n.Type == html.ElementNode && blocks[n.DataAtom]
		if isBlock {
			if cur.Len() > 0 {
				flush()
			}
			open = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if isBlock {
			flush()
		}
	}
	for _, n := range parse(fragment) {
		walk(n)
	}
	flush()
	return out
}

// PlainText is the visible text, blocks separated by newlines.
func PlainText(fragment string) string {
	var parts []string
	for _, p := range Paragraphs(fragment) {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

// IsEmpty reports whether fragment has no visible text and no embedded
// media. The editor's empty paragraph placeholder is empty.
func IsEmpty(fragment string) bool {
	if strings.TrimSpace(fragment) == "" || fragment == EmptyDocument {
		return true
	}
	if strings.TrimSpace(PlainText(fragment)) != "" {
		return false
	}
	for _, n := range parse(fragment) {
		if hasEmbed(n) {
			return false
		}
	}
	return true
}

func hasEmbed(n *html.Node) bool {
	if n.Type == html.ElementNode && embeds[n.DataAtom] {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasEmbed(c) {
			return true
		}
	}
	return false
}

// Length is the caret-addressable length of fragment: one position per
// character plus one per block break.
func Length(fragment string) int {
	ps := Paragraphs(fragment)
	n := 0
	for _, p := range ps {
		n += utf8.RuneCountInString(p)
	}
	if len(ps) > 1 {
		n += len(ps) - 1
	}
	return n
}

// Selection is a caret position with an optional selected range.
type Selection struct {
	Index  int
	Length int
}

// Clamp fits s into a document of docLength positions. A caret past the end
// moves to the end of the document.
func (s Selection) Clamp(docLength int) Selection {
	if docLength < 0 {
		docLength = 0
	}
	if s.Index < 0 {
		s.Index = 0
	}
	if s.Index > docLength {
		return Selection{Index: docLength}
	}
	if s.Length < 0 {
		s.Length = 0
	}
	if s.Index+s.Length > docLength {
		s.Length = docLength - s.Index
	}
	return s
}

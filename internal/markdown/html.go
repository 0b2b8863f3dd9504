// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// blankLines matches runs of three or more newlines, collapsed to exactly
// two in the final output.
var blankLines = regexp.MustCompile(`\n{3,}`)

// tagEntry is one open tag on the machine's stack. Anchor entries record
// the href seen on open so the close event can finish the link without a
// side table.
type tagEntry struct {
	name string
	href string
}

// tagMachine converts a stream of tag open/close/text events to Markdown.
// State is an output fragment list and the open-tag stack; both live for a
// single ConvertHTML call, so concurrent conversions never share anything.
type tagMachine struct {
	parts []string
	stack []tagEntry
}

// ConvertHTML converts a Granola summary HTML fragment to Markdown.
// Tokenizing the markup is delegated to x/net/html; irregular or
// overlapping tags degrade to best-effort output, never an error.
func ConvertHTML(fragment string) string {
	m := &tagMachine{}
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed markup; emit what we have.
			return m.finish()
		case html.StartTagToken:
			t := z.Token()
			m.open(t.Data, t.Attr)
		case html.SelfClosingTagToken:
			t := z.Token()
			m.open(t.Data, t.Attr)
			m.close(t.Data)
		case html.EndTagToken:
			t := z.Token()
			m.close(t.Data)
		case html.TextToken:
			m.emit(z.Token().Data)
		}
	}
}

func (m *tagMachine) emit(s string) {
	m.parts = append(m.parts, s)
}

func (m *tagMachine) open(tag string, attrs []html.Attribute) {
	// br never takes a stack entry; its open/close handling is
	// self-contained either way it arrives.
	if tag == "br" {
		m.emit("\n")
		return
	}

	m.stack = append(m.stack, tagEntry{name: tag})

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(tag[1] - '0')
		m.emit("\n" + strings.Repeat("#", level) + " ")
	case "li":
		// Indent by list nesting depth, counting the list this item
		// belongs to.
		depth := m.listDepth() - 1
		if depth < 0 {
			depth = 0
		}
		m.emit(strings.Repeat("  ", depth) + "- ")
	case "a":
		m.stack[len(m.stack)-1].href = attrValue(attrs, "href")
		m.emit("[")
	case "strong", "b":
		m.emit("**")
	case "em", "i":
		m.emit("*")
	case "code":
		m.emit("`")
	case "blockquote":
		m.emit("> ")
	}
}

func (m *tagMachine) close(tag string) {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		m.emit("\n\n")
	case "li":
		m.emit("\n")
	case "p":
		m.emit("\n\n")
	case "ul", "ol":
		m.emit("\n")
	case "a":
		if i := m.find("a"); i >= 0 {
			m.emit("](" + m.stack[i].href + ")")
		} else {
			// Close without a matching open: finish the bracket alone.
			m.emit("]")
		}
	case "strong", "b":
		m.emit("**")
	case "em", "i":
		m.emit("*")
	case "code":
		m.emit("`")
	case "blockquote":
		m.emit("\n")
	}
	m.pop(tag)
}

// listDepth counts open ul/ol entries on the stack.
func (m *tagMachine) listDepth() int {
	depth := 0
	for _, e := range m.stack {
		if e.name == "ul" || e.name == "ol" {
			depth++
		}
	}
	return depth
}

// find returns the index of the nearest entry with the given tag name,
// scanning from the top of the stack, or -1.
func (m *tagMachine) find(tag string) int {
	for i := len(m.stack) - 1; i >= 0; i-- {
		if m.stack[i].name == tag {
			return i
		}
	}
	return -1
}

// pop removes the nearest matching entry. Tags that close out of order
// must not disturb unrelated entries, so the match is by identity scan
// rather than assuming the top of the stack. A close with no matching
// open is a no-op.
func (m *tagMachine) pop(tag string) {
	if i := m.find(tag); i >= 0 {
		m.stack = append(m.stack[:i], m.stack[i+1:]...)
	}
}

func (m *tagMachine) finish() string {
	text := strings.Join(m.parts, "")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func attrValue(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

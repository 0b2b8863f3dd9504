// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown converts Granola's two summary representations into
// Markdown text: ProseMirror JSON trees stored in local cache panels, and
// HTML fragments streamed into publicly shared note pages.
//
// Bullet and ordered lists both render as "- " bullets. The app's own
// renderer does the same and the cache carries no numbering, so numbering
// is deliberately not computed here.
package markdown

import "strings"

// NodeKind identifies a ProseMirror node type. Node types not in this set
// map to KindUnknown, which passes the node's children through unchanged
// rather than failing.
type NodeKind string

const (
	KindDoc            NodeKind = "doc"
	KindText           NodeKind = "text"
	KindParagraph      NodeKind = "paragraph"
	KindHeading        NodeKind = "heading"
	KindBulletList     NodeKind = "bulletList"
	KindOrderedList    NodeKind = "orderedList"
	KindListItem       NodeKind = "listItem"
	KindBlockquote     NodeKind = "blockquote"
	KindCodeBlock      NodeKind = "codeBlock"
	KindHardBreak      NodeKind = "hardBreak"
	KindHorizontalRule NodeKind = "horizontalRule"
	KindUnknown        NodeKind = "unknown"
)

// nodeKinds is the closed set of recognized node types.
var nodeKinds = map[string]NodeKind{
	"doc":            KindDoc,
	"text":           KindText,
	"paragraph":      KindParagraph,
	"heading":        KindHeading,
	"bulletList":     KindBulletList,
	"orderedList":    KindOrderedList,
	"listItem":       KindListItem,
	"blockquote":     KindBlockquote,
	"codeBlock":      KindCodeBlock,
	"hardBreak":      KindHardBreak,
	"horizontalRule": KindHorizontalRule,
}

func kindOf(s string) NodeKind {
	if k, ok := nodeKinds[s]; ok {
		return k
	}
	return KindUnknown
}

// RenderNode renders a JSON-decoded ProseMirror node (or subtree) to
// Markdown. Values that are not node objects render as the empty string;
// malformed nodes degrade rather than fail.
func RenderNode(node any) string {
	n, ok := node.(map[string]any)
	if !ok {
		return ""
	}

	kind := kindOf(stringField(n, "type"))
	if kind == KindText {
		return applyMarks(stringField(n, "text"), listField(n, "marks"))
	}

	var joined strings.Builder
	for _, child := range listField(n, "content") {
		joined.WriteString(RenderNode(child))
	}

	switch kind {
	case KindHeading:
		level := clampHeadingLevel(intAttr(n, "level", 1))
		return "\n" + strings.Repeat("#", level) + " " + joined.String() + "\n\n"
	case KindParagraph:
		return joined.String() + "\n\n"
	case KindListItem:
		return renderListItem(joined.String())
	case KindBlockquote:
		return renderBlockquote(joined.String())
	case KindCodeBlock:
		return "\n```" + stringAttr(n, "language") + "\n" + joined.String() + "\n```\n\n"
	case KindHardBreak:
		return "\n"
	case KindHorizontalRule:
		return "\n---\n\n"
	default:
		// doc, bulletList, orderedList, and unknown kinds pass their
		// children through; list items carry their own bullets.
		return joined.String()
	}
}

// renderListItem bullets the first line and indents the rest by one level.
// Nested lists inside an item get exactly one extra indent regardless of
// their real depth; blank interior lines are dropped.
func renderListItem(joined string) string {
	lines := strings.Split(strings.TrimSpace(joined), "\n")
	var b strings.Builder
	b.WriteString("- " + lines[0] + "\n")
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) != "" {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func renderBlockquote(joined string) string {
	lines := strings.Split(strings.TrimSpace(joined), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n") + "\n\n"
}

// applyMarks wraps text with inline formatting in mark-list order. Order
// matters: marks [bold, link] produce [**x**](href) while [link, bold]
// produce **[x](href)**; no canonicalization happens.
func applyMarks(text string, marks []any) string {
	for _, m := range marks {
		mark, ok := m.(map[string]any)
		if !ok {
			continue
		}
		switch stringField(mark, "type") {
		case "bold":
			text = "**" + text + "**"
		case "italic":
			text = "*" + text + "*"
		case "code":
			text = "`" + text + "`"
		case "link":
			text = "[" + text + "](" + stringAttr(mark, "href") + ")"
		}
	}
	return text
}

// clampHeadingLevel bounds a heading level to Markdown's 1-6 range so an
// out-of-range attribute degrades instead of panicking strings.Repeat or
// allocating an absurd prefix.
func clampHeadingLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

func stringField(n map[string]any, key string) string {
	s, _ := n[key].(string)
	return s
}

func listField(n map[string]any, key string) []any {
	l, _ := n[key].([]any)
	return l
}

func attrsField(n map[string]any) map[string]any {
	a, _ := n["attrs"].(map[string]any)
	return a
}

func stringAttr(n map[string]any, key string) string {
	s, _ := attrsField(n)[key].(string)
	return s
}

// intAttr reads a numeric attribute, tolerating the float64 that
// encoding/json produces for all JSON numbers.
func intAttr(n map[string]any, key string, def int) int {
	switch v := attrsField(n)[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

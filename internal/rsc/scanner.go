// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rsc locates document data inside the React Server Components
// (Flight) payload embedded in Granola's shared-note pages.
//
// The payload is a series of self.__next_f.push([id,"..."]) script chunks
// holding backslash-escaped string fragments. One decoded fragment carries
// the documentPanel JSON subtree; the summary HTML travels in a separate
// fragment, referenced from the JSON only by an opaque "$1a"-style
// placeholder. Placeholder references are not resolved here: the HTML
// fragment is paired by sniffing fragment shape instead, the only
// correlation available without a Flight schema. Known limitation: an
// upstream format change makes Locate fail rather than misparse.
package rsc

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// markerKey identifies the JSON subtree that carries the shared document.
const markerKey = "documentPanel"

// htmlLeadLen bounds how far into a fragment the leading-tag sniff looks.
const htmlLeadLen = 20

var (
	// fragmentPattern matches one pushed payload chunk and captures its
	// escaped string body. (?s) lets escapes span physical lines.
	fragmentPattern = regexp.MustCompile(`(?s)self\.__next_f\.push\(\[\d+,"((?:[^"\\]|\\.)*)"\]`)

	// escapePattern matches the escape sequences the streaming format
	// uses. Anything else, including already-decoded multi-byte text,
	// must pass through untouched.
	escapePattern = regexp.MustCompile(`\\u[0-9a-fA-F]{4}|\\[ntr\\"/]`)
)

// simpleEscapes maps two-character escapes to their literal values.
var simpleEscapes = map[string]string{
	`\n`: "\n",
	`\t`: "\t",
	`\r`: "\r",
	`\\`: `\`,
	`\"`: `"`,
	`\/`: "/",
}

// htmlLeads are the tag prefixes that identify a summary HTML fragment.
var htmlLeads = []string{"<h", "<ul", "<p"}

// ErrNotFound reports that no payload fragment contained the document
// subtree. The caller should surface this as "could not find document
// data" since any downstream output would be meaningless.
var ErrNotFound = errors.New("document data not found in payload")

// DecodeFragment decodes the streaming format's escape sequences. Bytes
// that are not part of a recognized escape are left alone, so text that is
// already valid UTF-8 round-trips unchanged.
func DecodeFragment(s string) string {
	return escapePattern.ReplaceAllStringFunc(s, func(esc string) string {
		if strings.HasPrefix(esc, `\u`) {
			code, err := strconv.ParseUint(esc[2:], 16, 32)
			if err != nil {
				return esc
			}
			return string(rune(code))
		}
		if lit, ok := simpleEscapes[esc]; ok {
			return lit
		}
		return esc
	})
}

// Fragments extracts and decodes all payload fragments, in stream order.
func Fragments(payload string) []string {
	matches := fragmentPattern.FindAllStringSubmatch(payload, -1)
	frags := make([]string, 0, len(matches))
	for _, m := range matches {
		frags = append(frags, DecodeFragment(m[1]))
	}
	return frags
}

// Locate finds the documentPanel metadata subtree and the summary HTML
// blob in a shared-note page. The two live in different fragments whose
// ordering is not fixed, so they are matched by content, not position. A
// missing subtree is ErrNotFound; a missing HTML blob means the note has
// no summary and yields an empty string.
func Locate(payload string) (map[string]any, string, error) {
	frags := Fragments(payload)

	var subtree map[string]any
	for _, frag := range frags {
		if !strings.Contains(frag, markerKey) {
			continue
		}
		// The JSON starts after the Flight row prefix (e.g. "5:").
		start := strings.Index(frag, "[")
		if start == -1 {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(frag[start:]), &parsed); err != nil {
			// Not the JSON-bearing fragment after all; keep scanning.
			continue
		}
		if found := findKey(parsed, markerKey); found != nil {
			subtree = found
			break
		}
	}
	if subtree == nil {
		return nil, "", ErrNotFound
	}

	return subtree, findHTMLBlob(frags), nil
}

// findHTMLBlob returns the first fragment shaped like summary markup: it
// starts with "<" and one of the recognized leading tags appears within
// the first few characters.
func findHTMLBlob(frags []string) string {
	for _, frag := range frags {
		trimmed := strings.TrimSpace(frag)
		if !strings.HasPrefix(trimmed, "<") {
			continue
		}
		head := trimmed
		if len(head) > htmlLeadLen {
			head = head[:htmlLeadLen]
		}
		for _, lead := range htmlLeads {
			if strings.Contains(head, lead) {
				return trimmed
			}
		}
	}
	return ""
}

// findKey walks maps and slices for the first mapping whose keys contain
// key, returning that mapping.
func findKey(v any, key string) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t[key]; ok {
			return t
		}
		for _, child := range t {
			if found := findKey(child, key); found != nil {
				return found
			}
		}
	case []any:
		for _, child := range t {
			if found := findKey(child, key); found != nil {
				return found
			}
		}
	}
	return nil
}

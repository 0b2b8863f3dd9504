// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export assembles converted content into final Markdown documents
// and writes them into a date-organized output tree.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/granolocal/internal/markdown"
	"github.com/pdiddy/granolocal/pkg/types"
)

// maxFilenameRunes bounds sanitized titles used in filenames.
const maxFilenameRunes = 80

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	repeatedWhitespace   = regexp.MustCompile(`\s+`)
)

// SanitizeFilename strips characters that are problematic in filenames,
// collapses whitespace, and truncates long titles at a word boundary.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(repeatedWhitespace.ReplaceAllString(name, " "))
	if utf8.RuneCountInString(name) > maxFilenameRunes {
		runes := []rune(name)
		cut := string(runes[:maxFilenameRunes])
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		name = cut
	}
	if name == "" {
		return "Untitled"
	}
	return name
}

// granolaTimeLayouts covers the timestamp shapes Granola writes: RFC 3339
// with or without sub-second precision, and calendar times with offsets.
var granolaTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseGranolaTime(s string) (time.Time, error) {
	for _, layout := range granolaTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// docTime parses a document timestamp, falling back to the current time so
// undated documents still land somewhere in the date tree.
func docTime(s string) time.Time {
	if t, err := parseGranolaTime(s); err == nil {
		return t
	}
	return time.Now()
}

// FormatTranscript renders transcript entries as Markdown lines. Entries
// with a parseable start timestamp get a bold [HH:MM:SS] prefix; entries
// without one degrade to bare text; empty entries are dropped.
func FormatTranscript(entries []types.TranscriptEntry) string {
	var lines []string
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		if e.StartTimestamp != "" {
			if ts, err := parseGranolaTime(e.StartTimestamp); err == nil {
				lines = append(lines, fmt.Sprintf("**[%s]** %s", ts.Format("15:04:05"), text))
				continue
			}
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n\n")
}

// Attendees extracts attendee display names from the people field, falling
// back to the calendar event when the people field is sparse. The calendar
// owner (self) is excluded from the fallback.
func Attendees(doc types.Document) []string {
	var out []string
	if doc.People != nil {
		for _, a := range doc.People.Attendees {
			if name := firstNonEmpty(a.Name, a.Email); name != "" {
				out = append(out, name)
			}
		}
	}
	if len(out) == 0 && doc.CalendarEvent != nil {
		for _, a := range doc.CalendarEvent.Attendees {
			if a.Self {
				continue
			}
			if name := firstNonEmpty(a.DisplayName, a.Email); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// BuildMarkdown assembles the final document for a cached meeting: title,
// metadata lines, then Summary, Notes, and Transcript sections, each
// included only when non-empty.
func BuildMarkdown(doc types.Document, summary, transcript string) string {
	title := doc.Title
	if title == "" {
		title = "Untitled"
	}

	sections := []string{"# " + title + "\n"}

	var meta []string
	if doc.CreatedAt != "" {
		if ts, err := parseGranolaTime(doc.CreatedAt); err == nil {
			meta = append(meta, "**Date:** "+ts.Format("2006-01-02 15:04"))
		} else {
			meta = append(meta, "**Date:** "+doc.CreatedAt)
		}
	}
	if doc.CalendarEvent != nil {
		start, end := doc.CalendarEvent.Start.DateTime, doc.CalendarEvent.End.DateTime
		if start != "" && end != "" {
			st, errS := parseGranolaTime(start)
			et, errE := parseGranolaTime(end)
			if errS == nil && errE == nil {
				meta = append(meta, fmt.Sprintf("**Time:** %s - %s", st.Format("15:04"), et.Format("15:04")))
			}
		}
	}
	docType := doc.Type
	if docType == "" {
		docType = "meeting"
	}
	meta = append(meta, "**Type:** "+docType)
	if atts := Attendees(doc); len(atts) > 0 {
		meta = append(meta, "**Attendees:** "+strings.Join(atts, ", "))
	}
	sections = append(sections, strings.Join(meta, "\n")+"\n")

	if s := strings.TrimSpace(summary); s != "" {
		sections = append(sections, "---\n", "## Summary\n", s+"\n")
	}

	notes := strings.TrimSpace(doc.NotesMarkdown)
	if notes == "" {
		notes = strings.TrimSpace(doc.NotesPlain)
	}
	if notes != "" {
		sections = append(sections, "---\n", "## Notes\n", notes+"\n")
	}

	if strings.TrimSpace(transcript) != "" {
		sections = append(sections, "---\n", "## Transcript\n", transcript+"\n")
	}

	return strings.Join(sections, "\n")
}

// BuildSharedMarkdown assembles the document for a downloaded shared note:
// title, metadata (including creator and source URL), and the summary
// converted from its HTML fragment.
func BuildSharedMarkdown(note types.SharedNote) string {
	title := note.Title
	if title == "" {
		title = "Untitled"
	}

	sections := []string{"# " + title + "\n"}

	var meta []string
	if note.CreatedAt != "" {
		if ts, err := parseGranolaTime(note.CreatedAt); err == nil {
			meta = append(meta, "**Date:** "+ts.Format("2006-01-02 15:04"))
		} else {
			meta = append(meta, "**Date:** "+note.CreatedAt)
		}
	}
	if note.Creator != "" {
		meta = append(meta, "**Creator:** "+note.Creator)
	}
	if len(note.Attendees) > 0 {
		meta = append(meta, "**Attendees:** "+strings.Join(note.Attendees, ", "))
	}
	meta = append(meta, "**Source:** "+note.SourceURL)
	sections = append(sections, strings.Join(meta, "\n")+"\n")

	if note.SummaryHTML != "" {
		if summary := markdown.ConvertHTML(note.SummaryHTML); summary != "" {
			sections = append(sections, "---\n", "## Summary\n", summary+"\n")
		}
	}

	return strings.Join(sections, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

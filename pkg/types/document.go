// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the value types shared across the export stages.
package types

// Document is one meeting note as stored in the local Granola cache.
// Only the fields the exporter reads are declared; the cache carries many
// more that pass through untouched.
type Document struct {
	// ID is the document UUID (also the key in the cache's documents map).
	ID string `json:"id"`

	// Title is the meeting title shown in the app.
	Title string `json:"title"`

	// Type is the document type, "meeting" for calendar-backed notes.
	Type string `json:"type"`

	// CreatedAt is an ISO-8601 timestamp.
	CreatedAt string `json:"created_at"`

	// DeletedAt is non-empty for soft-deleted documents, which are skipped.
	DeletedAt string `json:"deleted_at"`

	// NotesMarkdown and NotesPlain hold the user's own notes; Markdown is
	// preferred when both are present.
	NotesMarkdown string `json:"notes_markdown"`
	NotesPlain    string `json:"notes_plain"`

	// People carries attendee records collected by the app.
	People *People `json:"people"`

	// CalendarEvent is the linked Google Calendar event, when one exists.
	CalendarEvent *CalendarEvent `json:"google_calendar_event"`
}

// People holds the attendee list Granola attaches to a document.
type People struct {
	Attendees []Person `json:"attendees"`
}

// Person is one attendee from the document's people field.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CalendarEvent is the subset of a Google Calendar event the exporter uses
// for meeting times and fallback attendees.
type CalendarEvent struct {
	Start     EventTime          `json:"start"`
	End       EventTime          `json:"end"`
	Attendees []CalendarAttendee `json:"attendees"`
}

// EventTime wraps the calendar API's dateTime field.
type EventTime struct {
	DateTime string `json:"dateTime"`
}

// CalendarAttendee is one attendee from the calendar event.
type CalendarAttendee struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	// Self marks the calendar owner, excluded from attendee lists.
	Self bool `json:"self"`
}

// Panel is one AI-generated panel attached to a document. Summary panels
// (Title == "Summary") carry the ProseMirror content the exporter renders.
type Panel struct {
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`

	// Content is the ProseMirror document tree, kept as a generic JSON
	// value because its node set is open-ended.
	Content map[string]any `json:"content"`
}

// TranscriptEntry is one utterance of a meeting transcript, from the cache
// or from the get-document-transcript API.
type TranscriptEntry struct {
	Text           string `json:"text"`
	StartTimestamp string `json:"start_timestamp"`
	Source         string `json:"source,omitempty"`
}

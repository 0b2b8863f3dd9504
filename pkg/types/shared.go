// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SharedNote holds everything extracted from a publicly shared note page:
// document metadata from the RSC payload plus the raw summary HTML that is
// streamed in a separate payload fragment.
type SharedNote struct {
	// DocID is the document UUID taken from the final (post-redirect) URL.
	DocID string

	// Title is the note title, "Untitled" when absent.
	Title string

	// CreatedAt is the ISO-8601 creation timestamp, may be empty.
	CreatedAt string

	// Creator is the display name (or email) of the note's owner.
	Creator string

	// Attendees lists attendee display names or emails.
	Attendees []string

	// SummaryHTML is the raw summary fragment; empty when the note has no
	// shared summary.
	SummaryHTML string

	// SourceURL is the URL the note was fetched from, recorded in the
	// exported Markdown.
	SourceURL string
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package shared downloads publicly shared Granola notes from their URLs.
package shared

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/pdiddy/granolocal/internal/rsc"
	"github.com/pdiddy/granolocal/pkg/types"
)

// docIDPattern extracts the document UUID from the final page URL. Share
// links redirect from /t/<token> to /d/<uuid>.
var docIDPattern = regexp.MustCompile(`/d/([0-9a-f-]+)`)

// FetchNote downloads a shared-note page and extracts its metadata and raw
// summary HTML from the embedded payload.
func FetchNote(ctx context.Context, client *http.Client, url, userAgent string) (types.SharedNote, error) {
	var note types.SharedNote

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return note, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return note, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return note, fmt.Errorf("shared note page returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return note, fmt.Errorf("reading page: %w", err)
	}

	finalURL := resp.Request.URL.String()
	m := docIDPattern.FindStringSubmatch(finalURL)
	if m == nil {
		return note, fmt.Errorf("could not extract document id from URL %s", finalURL)
	}

	subtree, summaryHTML, err := rsc.Locate(string(body))
	if err != nil {
		return note, fmt.Errorf("scanning shared note page: %w", err)
	}

	document := mapValue(subtree, "document")
	metadata := mapValue(subtree, "documentMetadata")

	note = types.SharedNote{
		DocID:       m[1],
		Title:       firstNonEmpty(stringValue(document, "title"), stringValue(metadata, "title"), "Untitled"),
		CreatedAt:   firstNonEmpty(stringValue(document, "created_at"), stringValue(metadata, "created_at")),
		Creator:     creatorName(metadata),
		Attendees:   attendeeNames(metadata),
		SummaryHTML: summaryHTML,
		SourceURL:   url,
	}
	return note, nil
}

// attendeeNames digs display names out of the metadata's attendee records,
// falling back to the attendee email.
func attendeeNames(metadata map[string]any) []string {
	var names []string
	attendees, _ := metadata["attendees"].([]any)
	for _, a := range attendees {
		att, ok := a.(map[string]any)
		if !ok {
			continue
		}
		name := personFullName(att)
		if name == "" {
			name = stringValue(att, "email")
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// creatorName resolves the creator's display name through the same
// details.person.name chain, then the flat name and email fields.
func creatorName(metadata map[string]any) string {
	creator := mapValue(metadata, "creator")
	return firstNonEmpty(
		personFullName(creator),
		stringValue(creator, "name"),
		stringValue(creator, "email"),
	)
}

// personFullName walks record.details.person.name.fullName.
func personFullName(record map[string]any) string {
	details := mapValue(record, "details")
	person := mapValue(details, "person")
	name := mapValue(person, "name")
	return stringValue(name, "fullName")
}

func mapValue(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func stringValue(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// noteAttachment matches the [[file{...}]] marker Todoist embeds in notes.
var noteAttachment = regexp.MustCompile(`(?s)\[\[file(.*?)\]\]`)

// Note is the text and optional attachment extracted from a note record.
type Note struct {
	Text       string
	Attachment *Attachment
}

// ParseNote splits note content into free text and an attachment.
func ParseNote(content string) (Note, error) {
	loc := noteAttachment.FindStringSubmatchIndex(content)
	if loc == nil {
		return Note{Text: content}, nil
	}

	payload := content[loc[2]:loc[3]]
	var a Attachment
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return Note{}, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}
	if a.URL == "" {
		return Note{}, fmt.Errorf("%w: missing file_url", ErrInvalidAttachment)
	}

	text := strings.TrimSpace(content[:loc[0]] + content[loc[1]:])
	return Note{Text: text, Attachment: &a}, nil
}

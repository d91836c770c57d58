package notes

import (
	"encoding/json"
	"strings"
	"time"
)

// Action is a call to action rendered under a note.
type Action struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	URL     string `json:"url"`
	Primary bool   `json:"primary"`
}

// Note is an admin inbox entry. ContentData is free-form JSON owned by the
// producer of the note; Marker, when set, is unique together with Name.
type Note struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Locale      string          `json:"locale"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	ContentData json.RawMessage `json:"contentData,omitempty"`
	Marker      string          `json:"marker,omitempty"`
	Icon        string          `json:"icon"`
	Source      string          `json:"source"`
	Status      string          `json:"status"`
	Actions     []Action        `json:"actions"`
	CreatedAt   time.Time       `json:"createdAt"`
	ActionedAt  *time.Time      `json:"actionedAt,omitempty"`
}

type Filter struct {
	Name   string
	Status string
	Source string
}

func (n Note) Validate() error {
	if strings.TrimSpace(n.Name) == "" || strings.TrimSpace(n.Title) == "" {
		return ErrInvalidNote
	}
	return nil
}

// withDefaults fills the fields a store expects on insert.
func (n Note) withDefaults(now time.Time) Note {
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if n.Status == "" {
		n.Status = StatusUnactioned
	}
	if len(n.ContentData) == 0 {
		n.ContentData = json.RawMessage("{}")
	}
	if n.Actions == nil {
		n.Actions = []Action{}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	return n
}

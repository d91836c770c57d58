package milestones

import (
	"encoding/json"
	"fmt"
	"time"

	"milestonenotifier/internal/domain/notes"
	"milestonenotifier/internal/platform/i18n"
)

// Content is the structured payload stored with every milestone note. Exactly
// one of FirstCustomer, TenthCustomer or Milestone is set.
type Content struct {
	FirstCustomer      bool   `json:"first_customer,omitempty"`
	TenthCustomer      bool   `json:"tenth_customer,omitempty"`
	Milestone          int    `json:"milestone,omitempty"`
	Activated          int64  `json:"activated"`
	ActivatedFormatted string `json:"activated_formatted"`
	// ActivatedYear is the year in the store time zone, matching
	// ActivatedFormatted rather than the UTC instant.
	ActivatedYear int `json:"activated_year,omitempty"`
}

func newContent(kind Kind, count int, activated time.Time) Content {
	c := Content{
		Activated:          activated.Unix(),
		ActivatedFormatted: i18n.FormatActivated(activated),
		ActivatedYear:      activated.Year(),
	}
	switch kind {
	case KindFirstCustomer:
		c.FirstCustomer = true
	case KindTenthCustomer:
		c.TenthCustomer = true
	default:
		c.Milestone = count
	}
	return c
}

// HasMarker reports whether the payload carries the marker for kind.
func (c Content) HasMarker(kind Kind) bool {
	switch kind {
	case KindFirstCustomer:
		return c.FirstCustomer
	case KindTenthCustomer:
		return c.TenthCustomer
	case KindOtherMilestone:
		return c.Milestone > 0
	}
	return false
}

// ContentOf decodes the milestone payload of a stored note.
func ContentOf(note notes.Note) (Content, error) {
	var c Content
	if len(note.ContentData) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(note.ContentData, &c); err != nil {
		return Content{}, fmt.Errorf("decode content of note %s: %w", note.ID, err)
	}
	return c, nil
}

func (c Content) ActivatedAt() time.Time {
	return time.Unix(c.Activated, 0)
}

// ReachedOn is the activation day as printed on certificates.
func (c Content) ReachedOn() string {
	if c.ActivatedFormatted == "" {
		return ""
	}
	year := c.ActivatedYear
	if year == 0 {
		year = c.ActivatedAt().UTC().Year()
	}
	return fmt.Sprintf("%s %d", c.ActivatedFormatted, year)
}

// Package milestones creates admin notes when the number of registered
// customers reaches one of a fixed set of thresholds.
package milestones

import "slices"

// Kind names a milestone note. The string value is the note name in the store.
type Kind string

const (
	KindFirstCustomer  Kind = "first-customer"
	KindTenthCustomer  Kind = "tenth-customer"
	KindOtherMilestone Kind = "other-milestone"
)

// Kinds lists every note name this package owns.
var Kinds = []Kind{KindFirstCustomer, KindTenthCustomer, KindOtherMilestone}

// Milestones are the customer counts that produce a note.
var Milestones = []int{1, 10, 100, 250, 500, 1000, 5000, 10000}

// otherMilestones share the single replaceable other-milestone note.
var otherMilestones = []int{100, 250, 500, 1000, 5000, 10000}

const (
	NoteIcon = "trophy"

	ActionCustomerAnalytics = "customer_analytics"
	ActionSuccessStories    = "success_stories"
)

func IsMilestone(count int) bool {
	return slices.Contains(Milestones, count)
}

// KindFor maps a customer count to the note it produces.
func KindFor(count int) (Kind, bool) {
	switch {
	case count == 1:
		return KindFirstCustomer, true
	case count == 10:
		return KindTenthCustomer, true
	case slices.Contains(otherMilestones, count):
		return KindOtherMilestone, true
	}
	return "", false
}

// Marker is the content flag that identifies an already created note of this
// kind. Other-milestone notes are replaced rather than deduplicated.
func (k Kind) Marker() string {
	switch k {
	case KindFirstCustomer:
		return "first_customer"
	case KindTenthCustomer:
		return "tenth_customer"
	}
	return ""
}

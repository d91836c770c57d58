// Package i18n holds the translated copy for milestone notes and the locale
// aware number and date formatting used in them.
package i18n

import (
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. English keys double as the English translation.
const (
	FirstCustomerTitle   = "First Customer"
	FirstCustomerBody    = "Congratulations on getting your first customer..!!"
	TenthCustomerTitle   = "Tenth Customer"
	TenthCustomerBody    = "Ten customers and counting! See how other merchants grew their stores from here."
	OtherMilestoneTitle  = "Congratulations on reaching %s customers"
	OtherMilestoneBody   = "Your store keeps growing. Visit the customer report to see who is buying from you."
	ActionTrackCustomers = "Track Customer orders"
	ActionSuccessStories = "Browse success stories"
	ActionCustomerReport = "View customer report"
	EmailSubject         = "Store milestone: %s"
)

var supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(supported)

var translations = map[language.Tag]map[string]string{
	language.German: {
		FirstCustomerTitle:   "Erster Kunde",
		FirstCustomerBody:    "Glückwunsch zu deinem ersten Kunden!",
		TenthCustomerTitle:   "Zehnter Kunde",
		TenthCustomerBody:    "Zehn Kunden und es werden mehr! Sieh dir an, wie andere Händler von hier aus gewachsen sind.",
		OtherMilestoneTitle:  "Glückwunsch, du hast %s Kunden erreicht",
		OtherMilestoneBody:   "Dein Shop wächst weiter. Im Kundenbericht siehst du, wer bei dir kauft.",
		ActionTrackCustomers: "Kundenbestellungen verfolgen",
		ActionSuccessStories: "Erfolgsgeschichten ansehen",
		ActionCustomerReport: "Kundenbericht ansehen",
		EmailSubject:         "Shop-Meilenstein: %s",
	},
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range []string{
		FirstCustomerTitle, FirstCustomerBody, TenthCustomerTitle, TenthCustomerBody,
		OtherMilestoneTitle, OtherMilestoneBody, ActionTrackCustomers, ActionSuccessStories,
		ActionCustomerReport, EmailSubject,
	} {
		_ = b.SetString(language.English, key, key)
	}
	for tag, msgs := range translations {
		for key, value := range msgs {
			_ = b.SetString(tag, key, value)
		}
	}
	return b
}

// Printer renders translated strings for one locale.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// NewPrinter picks the closest supported locale; unknown locales get English.
func NewPrinter(locale string) *Printer {
	tag := language.English
	if parsed, err := language.Parse(locale); err == nil {
		_, idx, _ := matcher.Match(parsed)
		tag = supported[idx]
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

func (p *Printer) Locale() string {
	return p.tag.String()
}

func (p *Printer) Sprintf(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

// Count formats n with the locale's digit grouping, e.g. 10,000 or 10.000.
func (p *Printer) Count(n int) string {
	return p.p.Sprintf("%d", n)
}

// FormatActivated renders t as full month name plus ordinal day, "November 1st".
func FormatActivated(t time.Time) string {
	return t.Format("January") + " " + humanize.Ordinal(t.Day())
}

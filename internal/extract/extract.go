// Package extract pulls field values out of rendered elements with ordered
// fallback strategies. A missing optional field is never an error: it
// resolves to NotAvailable.
package extract

import (
	"strings"
	"unicode"

	"go-jobboard-scraper/internal/browser"

	"golang.org/x/text/unicode/norm"
)

// NotAvailable stands in for a field none of the strategies could resolve.
const NotAvailable = "N/A"

// Strategy is one way of locating a value inside a section element.
type Strategy struct {
	// Selector is a CSS selector relative to the element; "" means the element itself.
	Selector string
	// Attr names the attribute to read; "" reads the element text.
	Attr string
	// JoinAll joins the values of every match with a space instead of taking the first.
	JoinAll bool
}

// Rule is an ordered list of strategies; the first non-empty result wins.
type Rule []Strategy

// Text selects the element's text with the given selector.
func Text(selector string) Strategy {
	return Strategy{Selector: selector}
}

// Attr selects the named attribute of the element matched by selector.
func Attr(selector, attr string) Strategy {
	return Strategy{Selector: selector, Attr: attr}
}

// Joined selects the text of every match of selector, joined with spaces.
func Joined(selector string) Strategy {
	return Strategy{Selector: selector, JoinAll: true}
}

// Extract evaluates rule against el and returns NotAvailable when every
// strategy comes back empty.
func Extract(el browser.Element, rule Rule) (value string) {
	defer func() {
		if recover() != nil {
			value = NotAvailable
		}
	}()
	if el == nil {
		return NotAvailable
	}
	for _, s := range rule {
		if v := s.apply(el); v != "" {
			return v
		}
	}
	return NotAvailable
}

// IsMissing reports whether v carries no data.
func IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == NotAvailable
}

func (s Strategy) apply(el browser.Element) string {
	targets := []browser.Element{el}
	if s.Selector != "" {
		found, err := el.FindAll(s.Selector)
		if err != nil || len(found) == 0 {
			return ""
		}
		targets = found
	}

	var parts []string
	for _, t := range targets {
		var v string
		if s.Attr != "" {
			attr, err := t.Attribute(s.Attr)
			if err != nil {
				continue
			}
			v = Normalize(attr)
		} else {
			v = ElementText(t)
		}
		if v == "" {
			continue
		}
		if !s.JoinAll {
			return v
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

var (
	textProperties = []string{"innerText", "textContent"}
	textAttributes = []string{"aria-label", "title"}
)

// ElementText reads the text of a single element: visible rendered text
// first, then the raw DOM text properties, then accessible-label attributes.
func ElementText(el browser.Element) string {
	if t, err := el.Text(); err == nil {
		if t = Normalize(t); t != "" {
			return t
		}
	}
	for _, p := range textProperties {
		if t, err := el.Property(p); err == nil {
			if t = Normalize(t); t != "" {
				return t
			}
		}
	}
	for _, a := range textAttributes {
		if t, err := el.Attribute(a); err == nil {
			if t = Normalize(t); t != "" {
				return t
			}
		}
	}
	return ""
}

// Normalize composes the string to NFC and collapses all whitespace runs
// (including non-breaking spaces) to a single space.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

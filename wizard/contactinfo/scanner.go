// Package contactinfo detects contact details embedded in free text so that
// users cannot exchange them before a deal is brokered through the platform.
package contactinfo

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Type names the kind of contact detail found.
type Type string

const (
	TypeEmail     Type = "email"
	TypePhone     Type = "phone"
	TypeURL       Type = "url"
	TypeMessaging Type = "messaging"
	TypeSocial    Type = "social"
)

// Severity grades a detection. Only SeverityHigh blocks a submission.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Detection is a single match in scanned text.
type Detection struct {
	Type     Type     `json:"type"`
	Severity Severity `json:"severity"`
	Match    string   `json:"match"`
}

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

var (
	emailRe      = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	obfuscatedRe = regexp.MustCompile(`(?i)[a-z0-9._%+-]+\s*[\[(]\s*at\s*[\])]\s*[a-z0-9-]+(?:\s*(?:[\[(]\s*dot\s*[\])]|\.)\s*[a-z]{2,})+`)
	phoneRe      = regexp.MustCompile(`\+?\(?\d(?:[ .\-()]{0,2}\d){5,}`)
	isoDateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:[ T]\d{1,2})?$`)
	urlRe        = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	domainRe     = regexp.MustCompile(`(?i)\b[a-z0-9-]+\.(?:com|net|org|io|co|me|qa|ae|sa|info|biz)\b`)
	messagingRe  = regexp.MustCompile(`(?i)\b(?:whats\s?app|telegram|viber|signal|wechat|skype)\b`)
	handleRe     = regexp.MustCompile(`(?:^|\s)(@[A-Za-z0-9_]{3,})`)
	attrRe       = regexp.MustCompile(`(?i)(?:href|src)\s*=\s*["']([^"']+)["']`)

	// amounts and quantities that look like a run of digits
	groupedRe  = regexp.MustCompile(`^\d{1,3}(?:[ ,]\d{3})+(?:\.\d{1,2})?$`)
	unitAfter  = regexp.MustCompile(`(?i)^\s*(?:qar|qr|riyals?|usd|aed|sar|eur|dollars?|units?|sqm|sq\.?\s?m|m2|m²|pcs|pieces|kg|tons?|tonnes?|litres?|liters?|meters?|metres?|items?)(?:[^a-z0-9]|$)`)
	unitBefore = regexp.MustCompile(`(?i)(?:\b(?:qar|qr|usd|aed|sar|eur)|[$€])\s*$`)
)

// Scanner runs the detection rules in a fixed order. It is safe for
// concurrent use.
type Scanner struct {
	policy *bluemonday.Policy
}

func New() *Scanner {
	return &Scanner{policy: bluemonday.StrictPolicy()}
}

var defaultScanner = New()

// Scan runs the default scanner.
func Scan(text string) []Detection {
	return defaultScanner.Scan(text)
}

type span struct{ start, end int }

type scan struct {
	text       string
	covered    []span
	detections []Detection
}

func (s *scan) overlaps(start, end int) bool {
	for _, c := range s.covered {
		if start < c.end && c.start < end {
			return true
		}
	}
	return false
}

func (s *scan) add(start, end int, t Type, sev Severity) {
	s.covered = append(s.covered, span{start, end})
	s.detections = append(s.detections, Detection{Type: t, Severity: sev, Match: s.text[start:end]})
}

// Scan returns detections in rule order: email, obfuscated email, phone, url,
// bare domain, messaging app, social handle. A match overlapping an earlier
// detection is not reported twice.
func (sc *Scanner) Scan(text string) []Detection {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s := &scan{text: sc.plain(text)}

	for _, loc := range emailRe.FindAllStringIndex(s.text, -1) {
		s.add(loc[0], loc[1], TypeEmail, SeverityHigh)
	}
	for _, loc := range obfuscatedRe.FindAllStringIndex(s.text, -1) {
		if !s.overlaps(loc[0], loc[1]) {
			s.add(loc[0], loc[1], TypeEmail, SeverityHigh)
		}
	}
	// links are located up front so digits inside a link are not read as a
	// phone number
	links := urlRe.FindAllStringIndex(s.text, -1)
	for _, loc := range phoneRe.FindAllStringIndex(s.text, -1) {
		if s.overlaps(loc[0], loc[1]) || inAny(loc[0], loc[1], links) {
			continue
		}
		match := strings.TrimRight(s.text[loc[0]:loc[1]], " .-(")
		if isoDateRe.MatchString(match) {
			continue
		}
		digits := countDigits(match)
		switch {
		case digits < minPhoneDigits:
		case isQuantity(s.text, loc[0], loc[0]+len(match)):
			s.add(loc[0], loc[0]+len(match), TypePhone, SeverityMedium)
		case digits <= maxPhoneDigits:
			s.add(loc[0], loc[0]+len(match), TypePhone, SeverityHigh)
		default:
			s.add(loc[0], loc[0]+len(match), TypePhone, SeverityMedium)
		}
	}
	for _, loc := range links {
		if !s.overlaps(loc[0], loc[1]) {
			s.add(loc[0], loc[1], TypeURL, SeverityHigh)
		}
	}

	for _, loc := range domainRe.FindAllStringIndex(s.text, -1) {
		if !s.overlaps(loc[0], loc[1]) {
			s.add(loc[0], loc[1], TypeURL, SeverityMedium)
		}
	}
	for _, loc := range messagingRe.FindAllStringIndex(s.text, -1) {
		if !s.overlaps(loc[0], loc[1]) {
			s.add(loc[0], loc[1], TypeMessaging, SeverityMedium)
		}
	}
	for _, loc := range handleRe.FindAllStringSubmatchIndex(s.text, -1) {
		if !s.overlaps(loc[2], loc[3]) {
			s.add(loc[2], loc[3], TypeSocial, SeverityLow)
		}
	}
	return s.detections
}

// plain strips markup, keeping link targets so that an address hidden in an
// href is still scanned.
func (sc *Scanner) plain(text string) string {
	stripped := html.UnescapeString(sc.policy.Sanitize(text))
	attrs := attrRe.FindAllStringSubmatch(text, -1)
	if len(attrs) == 0 {
		return stripped
	}
	var b strings.Builder
	b.WriteString(stripped)
	for _, a := range attrs {
		b.WriteString("\n")
		b.WriteString(strings.TrimPrefix(a[1], "mailto:"))
	}
	return b.String()
}

// FirstBlocking returns the first high severity detection, if any.
func FirstBlocking(detections []Detection) (Detection, bool) {
	for _, d := range detections {
		if d.Severity == SeverityHigh {
			return d, true
		}
	}
	return Detection{}, false
}

// Sanitize returns text with all markup removed, for storing user answers.
func (sc *Scanner) Sanitize(text string) string {
	return html.UnescapeString(sc.policy.Sanitize(text))
}

// isQuantity reports whether the digits at text[start:end] read as an amount
// rather than a phone number: written with thousands grouping, or next to a
// currency or unit.
func isQuantity(text string, start, end int) bool {
	match := text[start:end]
	if strings.HasPrefix(match, "+") || strings.HasPrefix(match, "(") {
		return false
	}
	return groupedRe.MatchString(match) ||
		unitAfter.MatchString(text[end:]) ||
		unitBefore.MatchString(text[:start])
}

func inAny(start, end int, spans [][]int) bool {
	for _, sp := range spans {
		if start < sp[1] && sp[0] < end {
			return true
		}
	}
	return false
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

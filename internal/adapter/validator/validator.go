package validator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"reforma/internal/domain"
)

const dateLayout = "2006-01-02"

var difficulties = map[string]bool{
	"basico":        true,
	"intermediario": true,
	"avancado":      true,
}

var statuses = map[string]bool{
	domain.StatusDraft:     true,
	domain.StatusReview:    true,
	domain.StatusPublished: true,
}

// citationPatterns recognise references to the reform's legal texts.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bEC\s*(n[º°o.]?\s*)?\d+`),
	regexp.MustCompile(`(?i)\bEmenda\s+Constitucional\s*(n[º°o.]?\s*)?\d+`),
	regexp.MustCompile(`(?i)\bLC\s*(n[º°o.]?\s*)?\d+`),
	regexp.MustCompile(`(?i)\bLei\s+Complementar\s*(n[º°o.]?\s*)?\d+`),
	regexp.MustCompile(`(?i)\bLei\s*(n[º°o.]?\s*)?\d[\d.]*/\d{2,4}`),
	regexp.MustCompile(`(?i)\bart(igo|\.)\s*\d+`),
}

var headingRe = regexp.MustCompile(`(?m)^(#{1,6})\s+\S`)

// Validator checks knowledge-base documents before ingestion.
type Validator struct {
	now               func() time.Time
	known             map[string]bool
	staleAfter        time.Duration
	minPublishedWords int
	minDraftWords     int
}

type Option func(*Validator)

func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithKnownPaths sets the document paths that related references may point to.
func WithKnownPaths(paths []string) Option {
	return func(v *Validator) {
		v.known = make(map[string]bool, len(paths))
		for _, p := range paths {
			v.known[normalizeRef(p)] = true
		}
	}
}

func WithStaleAfter(d time.Duration) Option {
	return func(v *Validator) { v.staleAfter = d }
}

func WithWordThresholds(published, draft int) Option {
	return func(v *Validator) {
		v.minPublishedWords = published
		v.minDraftWords = draft
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{
		now:               time.Now,
		staleAfter:        180 * 24 * time.Hour,
		minPublishedWords: 300,
		minDraftWords:     100,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type report struct {
	res domain.ValidationResult
}

func (r *report) fail(field, format string, args ...any) {
	r.res.Errors = append(r.res.Errors, domain.ValidationIssue{
		Field: field, Message: fmt.Sprintf(format, args...), Severity: domain.SeverityError,
	})
}

func (r *report) warn(field, format string, args ...any) {
	r.res.Warnings = append(r.res.Warnings, domain.ValidationIssue{
		Field: field, Message: fmt.Sprintf(format, args...), Severity: domain.SeverityWarning,
	})
}

// Validate returns the hard errors and soft warnings for doc.
func (v *Validator) Validate(doc domain.Document) domain.ValidationResult {
	r := &report{res: domain.ValidationResult{Path: doc.RelPath}}
	fm := doc.FrontMatter
	published := fm.EffectiveStatus() == domain.StatusPublished

	if strings.TrimSpace(fm.Title) == "" {
		r.fail("title", "title is required")
	}
	if strings.TrimSpace(fm.Description) == "" {
		r.fail("description", "description is required")
	}
	switch {
	case fm.Category == "":
		r.fail("category", "category is required")
	case !domain.IsCategory(fm.Category):
		r.fail("category", "unknown category %q", fm.Category)
	case doc.Category != "" && doc.Category != fm.Category:
		r.warn("category", "category %q differs from directory %q", fm.Category, doc.Category)
	}
	if fm.Status != "" && !statuses[fm.Status] {
		r.fail("status", "unknown status %q", fm.Status)
	}
	if fm.Difficulty != "" && !difficulties[fm.Difficulty] {
		r.fail("difficulty", "unknown difficulty %q", fm.Difficulty)
	}

	v.checkWords(r, doc.Body, published)
	v.checkVerification(r, fm, published)
	v.checkCitations(r, doc, published)
	checkHeadings(r, doc.Body)
	checkTags(r, fm.Tags)
	v.checkRelated(r, fm.Related)

	return r.res
}

func (v *Validator) checkWords(r *report, body string, published bool) {
	words := len(strings.Fields(body))
	if published && words < v.minPublishedWords {
		r.fail("body", "published content needs at least %d words, has %d", v.minPublishedWords, words)
	}
	if !published && words < v.minDraftWords {
		r.warn("body", "draft has only %d words", words)
	}
}

func (v *Validator) checkVerification(r *report, fm domain.FrontMatter, published bool) {
	if published && len(fm.Sources) == 0 {
		r.fail("sources", "published content must list sources")
	}
	if fm.LastVerified == "" {
		if published {
			r.fail("lastVerified", "published content must have a verification date")
		}
		return
	}
	verified, err := time.Parse(dateLayout, fm.LastVerified)
	if err != nil {
		r.fail("lastVerified", "invalid date %q, expected YYYY-MM-DD", fm.LastVerified)
		return
	}
	if age := v.now().Sub(verified); age > v.staleAfter {
		r.warn("lastVerified", "last verified %d days ago", int(age.Hours()/24))
	}
}

func (v *Validator) checkCitations(r *report, doc domain.Document, published bool) {
	if !domain.LegalCategories[doc.FrontMatter.Category] {
		return
	}
	if HasLegalCitation(doc.Body) || HasLegalCitation(strings.Join(doc.FrontMatter.Sources, "\n")) {
		return
	}
	if published {
		r.fail("body", "legal content must cite EC 132/2023, LC 214/2025 or another legal text")
		return
	}
	r.warn("body", "no legal citation found")
}

// HasLegalCitation reports whether text references a law, amendment or article.
func HasLegalCitation(text string) bool {
	for _, re := range citationPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func checkHeadings(r *report, body string) {
	matches := headingRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		r.warn("headings", "document has no sections")
		return
	}
	prev := 1
	for _, m := range matches {
		level := len(m[1])
		if level == 1 {
			r.warn("headings", "level 1 heading in body duplicates the title")
		}
		if level > prev+1 {
			r.warn("headings", "heading level jumps from %d to %d", prev, level)
		}
		prev = level
	}
}

func checkTags(r *report, tags []string) {
	if len(tags) == 0 {
		r.warn("tags", "no tags")
		return
	}
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" {
			r.warn("tags", "empty tag")
			continue
		}
		if seen[key] {
			r.warn("tags", "duplicate tag %q", tag)
		}
		seen[key] = true
	}
}

func (v *Validator) checkRelated(r *report, related []string) {
	if v.known == nil {
		return
	}
	for _, ref := range related {
		if !v.known[normalizeRef(ref)] {
			r.warn("related", "related document %q not found", ref)
		}
	}
}

func normalizeRef(p string) string {
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	return strings.TrimSuffix(p, ".md")
}

// Package filter rejects parsed records against user-configured blacklists.
package filter

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ebookmeta/kobosource/models"
)

// Blacklist holds the title-word and tag blacklists. Both are lowercase
// sets, configured once and read-only afterwards.
type Blacklist struct {
	titleWords map[string]struct{}
	tags       map[string]struct{}
}

// New parses the comma-separated option strings. Empty strings disable the
// corresponding check.
func New(titleCSV, tagCSV string) *Blacklist {
	return &Blacklist{
		titleWords: parseCSV(titleCSV),
		tags:       parseCSV(tagCSV),
	}
}

func parseCSV(csv string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, entry := range strings.Split(csv, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			set[entry] = struct{}{}
		}
	}
	return set
}

// TitleMatches returns the blacklisted words found in the title. The title
// is lowercased and stripped of punctuation before splitting.
func (b *Blacklist) TitleMatches(title string) []string {
	if len(b.titleWords) == 0 {
		return nil
	}

	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, strings.ToLower(title))

	var matched []string
	for _, word := range strings.Fields(stripped) {
		if _, ok := b.titleWords[word]; ok {
			matched = append(matched, word)
		}
	}
	return dedupeSorted(matched)
}

// TagMatches returns the record tags that are blacklisted.
func (b *Blacklist) TagMatches(tags []string) []string {
	if len(b.tags) == 0 {
		return nil
	}

	var matched []string
	for _, tag := range tags {
		lowered := strings.ToLower(tag)
		if _, ok := b.tags[lowered]; ok {
			matched = append(matched, lowered)
		}
	}
	return dedupeSorted(matched)
}

// Check returns all blacklisted terms hit by the record, or nil when the
// record passes.
func (b *Blacklist) Check(book *models.Book) []string {
	matched := b.TitleMatches(book.Title)
	matched = append(matched, b.TagMatches(book.Tags)...)
	if len(matched) == 0 {
		return nil
	}
	return matched
}

func dedupeSorted(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	var out []string
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

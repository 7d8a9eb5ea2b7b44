// Package models defines data structures shared across the metadata source.
package models

import "time"

// Book is the normalized metadata record produced from one product page.
// Title is the only mandatory field; everything else stays zero-valued when
// the page does not carry it.
type Book struct {
	Title       string     `json:"title"`
	Authors     []string   `json:"authors,omitempty"`
	Series      string     `json:"series,omitempty"`
	SeriesIndex string     `json:"series_index,omitempty"`
	Publisher   string     `json:"publisher,omitempty"`
	PubDate     *time.Time `json:"pubdate,omitempty"`
	ISBN        string     `json:"isbn,omitempty"`
	Language    string     `json:"language,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	// SynopsisHTML keeps the synopsis container's inner markup as-is; the
	// host renders it as HTML.
	SynopsisHTML string `json:"synopsis_html,omitempty"`
	CoverURL     string `json:"cover_url,omitempty"`
	// Relevance is the zero-based emission rank assigned by identify.
	Relevance int `json:"relevance"`
}

// HasTag reports whether the record carries the given tag.
func (b *Book) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag unless it is already present. Tag order is not
// meaningful; the slice only exists because the host cannot store sets.
func (b *Book) AddTag(tag string) {
	if tag == "" || b.HasTag(tag) {
		return
	}
	b.Tags = append(b.Tags, tag)
}

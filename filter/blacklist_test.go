package filter

import (
	"reflect"
	"testing"

	"github.com/ebookmeta/kobosource/models"
)

func TestTitleMatches(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		title    string
		expected []string
	}{
		{name: "case and punctuation insensitive", csv: "zero", title: "The Zero: Hero!", expected: []string{"zero"}},
		{name: "plain hit", csv: "zero,villain", title: "The Zero Hero", expected: []string{"zero"}},
		{name: "no hit", csv: "zero", title: "The One Hero", expected: nil},
		{name: "empty blacklist", csv: "", title: "The Zero Hero", expected: nil},
		{name: "multiple hits sorted", csv: "zero,hero", title: "The Zero Hero", expected: []string{"hero", "zero"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.csv, "")
			if got := b.TitleMatches(tt.title); !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("TitleMatches(%q) = %v, want %v", tt.title, got, tt.expected)
			}
		})
	}
}

func TestTagMatches(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		tags     []string
		expected []string
	}{
		{name: "case insensitive", csv: "romance", tags: []string{"Romance", "Action"}, expected: []string{"romance"}},
		{name: "no hit", csv: "romance", tags: []string{"Action"}, expected: nil},
		{name: "empty blacklist", csv: "", tags: []string{"Romance"}, expected: nil},
		{name: "whitespace in config", csv: " romance , western ", tags: []string{"Western"}, expected: []string{"western"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("", tt.csv)
			if got := b.TagMatches(tt.tags); !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("TagMatches(%v) = %v, want %v", tt.tags, got, tt.expected)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	book := &models.Book{Title: "The Zero Hero", Tags: []string{"Romance", "Action"}}

	if got := New("", "").Check(book); got != nil {
		t.Fatalf("empty blacklists should reject nothing, got %v", got)
	}
	if got := New("zero", "").Check(book); len(got) != 1 || got[0] != "zero" {
		t.Fatalf("Check = %v, want [zero]", got)
	}
	if got := New("", "romance").Check(book); len(got) != 1 || got[0] != "romance" {
		t.Fatalf("Check = %v, want [romance]", got)
	}
	if got := New("zero", "romance").Check(book); len(got) != 2 {
		t.Fatalf("Check = %v, want both terms", got)
	}
}

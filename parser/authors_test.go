package parser

import (
	"reflect"
	"testing"
)

func TestFixAuthors(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "last first flipped",
			input:    []string{"Yarros, Rebecca"},
			expected: []string{"Rebecca Yarros"},
		},
		{
			name:     "plain names untouched",
			input:    []string{"Rebecca Yarros", "Brandon Sanderson"},
			expected: []string{"Rebecca Yarros", "Brandon Sanderson"},
		},
		{
			name:     "duplicates dropped",
			input:    []string{"Rebecca Yarros", "Yarros, Rebecca"},
			expected: []string{"Rebecca Yarros"},
		},
		{
			name:     "empties dropped",
			input:    []string{"", "  ", "Rebecca Yarros"},
			expected: []string{"Rebecca Yarros"},
		},
		{
			name:     "nil input",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixAuthors(tt.input); !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("FixAuthors(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

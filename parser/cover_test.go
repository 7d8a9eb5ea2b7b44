package parser

import "testing"

func TestDeriveCoverURL(t *testing.T) {
	src := "//cdn.kobo.com/book-images/44f0e8b9-3338-4d1c-bd6e-e88e82cb8fad/353/569/90/False/holly-23.jpg"

	tests := []struct {
		name     string
		resize   bool
		width    int
		height   int
		expected string
	}{
		{
			name:     "full resolution",
			resize:   false,
			expected: "https://cdn.kobo.com/book-images/44f0e8b9-3338-4d1c-bd6e-e88e82cb8fad/holly-23.jpg",
		},
		{
			name:     "resized",
			resize:   true,
			width:    1650,
			height:   2200,
			expected: "https://cdn.kobo.com/book-images/44f0e8b9-3338-4d1c-bd6e-e88e82cb8fad/1650/2200/100/False/holly-23.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveCoverURL(src, tt.resize, tt.width, tt.height); got != tt.expected {
				t.Fatalf("DeriveCoverURL = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDeriveCoverURLKeepsAbsolute(t *testing.T) {
	src := "https://cdn.kobo.com/book-images/abc/353/569/90/False/slug.jpg"
	if got := DeriveCoverURL(src, false, 0, 0); got != "https://cdn.kobo.com/book-images/abc/slug.jpg" {
		t.Fatalf("DeriveCoverURL = %q", got)
	}
}

package parser

import (
	"fmt"
	"strings"
)

// Thumbnail URLs embed a fixed width/height/quality path segment, e.g.
// https://cdn.kobo.com/book-images/<id>/353/569/90/False/<slug>.jpg
const coverSizeSegment = "353/569/90"

// DeriveCoverURL turns a raw cover img src into a usable URL. The raw value
// is scheme-relative. Dropping the size segment recovers the full-resolution
// asset; substituting target dimensions makes the CDN scale to the requested
// width with the correct aspect ratio. This is a pure string transform.
func DeriveCoverURL(src string, resize bool, width, height int) string {
	u := src
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	} else if !strings.Contains(u, "://") {
		u = "https:" + u
	}

	if resize {
		return strings.Replace(u, coverSizeSegment, fmt.Sprintf("%d/%d/100", width, height), 1)
	}
	return strings.Replace(u, coverSizeSegment+"/False/", "", 1)
}

package parser

import "strings"

// FixAuthors is the default contributor normalization: trims whitespace,
// drops duplicates, and flips single-comma "Last, First" names.
func FixAuthors(authors []string) []string {
	var fixed []string
	seen := make(map[string]struct{})
	for _, author := range authors {
		author = strings.TrimSpace(author)
		if author == "" {
			continue
		}
		if strings.Count(author, ",") == 1 {
			parts := strings.SplitN(author, ",", 2)
			author = strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
			author = strings.TrimSpace(author)
		}
		if _, ok := seen[author]; ok {
			continue
		}
		seen[author] = struct{}{}
		fixed = append(fixed, author)
	}
	return fixed
}

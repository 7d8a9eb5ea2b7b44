// Package query builds search strings and storefront URLs.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// TitleTokenizer splits a title into search tokens. The host application may
// supply a locale-aware implementation; DefaultTitleTokens is used otherwise.
type TitleTokenizer func(title string) []string

// AuthorTokenizer flattens author names into search tokens.
type AuthorTokenizer func(authors []string) []string

// Builder constructs search queries and storefront URLs. URL construction is
// pure string templating; no I/O happens here.
type Builder struct {
	BaseURL      string
	TitleTokens  TitleTokenizer
	AuthorTokens AuthorTokenizer
}

// NewBuilder returns a builder with the default tokenizers.
func NewBuilder(baseURL string) *Builder {
	return &Builder{
		BaseURL:      baseURL,
		TitleTokens:  DefaultTitleTokens,
		AuthorTokens: DefaultAuthorTokens,
	}
}

// Query builds the normalized search string from title and author tokens.
// Kobo's search matches numbers poorly, so leading zeroes can be stripped
// from title tokens ("007" becomes "7").
func (b *Builder) Query(title string, authors []string, removeLeadingZeroes bool) string {
	var tokens []string
	for _, tok := range b.TitleTokens(title) {
		if removeLeadingZeroes {
			tok = strings.TrimLeft(tok, "0")
		}
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	tokens = append(tokens, b.AuthorTokens(authors)...)
	return strings.Join(tokens, " ")
}

// SearchURL builds the search endpoint URL for one result page.
func (b *Builder) SearchURL(query string, pageNumber int, country, language string) string {
	values := url.Values{}
	values.Set("query", query)
	values.Set("fcmedia", "Book")
	values.Set("pageNumber", strconv.Itoa(pageNumber))
	values.Set("fclanguages", language)
	return b.BaseURL + country + "/en/search?" + values.Encode()
}

// DetailURL builds a direct product page URL from a known Kobo identifier.
func (b *Builder) DetailURL(country, id string) string {
	return b.BaseURL + country + "/en/ebook/" + url.PathEscape(id)
}

// DefaultTitleTokens splits on whitespace and trims surrounding punctuation.
func DefaultTitleTokens(title string) []string {
	var tokens []string
	for _, tok := range strings.Fields(title) {
		tok = strings.Trim(tok, ".,:;!?\"'()[]{}")
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// DefaultAuthorTokens flattens author names, dropping commas and periods so
// "Yarros, Rebecca" contributes the same tokens as "Rebecca Yarros".
func DefaultAuthorTokens(authors []string) []string {
	var tokens []string
	for _, author := range authors {
		author = strings.NewReplacer(",", " ", ".", " ").Replace(author)
		tokens = append(tokens, strings.Fields(author)...)
	}
	return tokens
}

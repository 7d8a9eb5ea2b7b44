// Package parser extracts book metadata from storefront product pages.
package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/ebookmeta/kobosource/config"
	"github.com/ebookmeta/kobosource/models"
)

// ErrMalformedPage indicates a page that was expected to be a product page
// but is missing its mandatory title element.
type ErrMalformedPage struct {
	Missing string
}

func (e ErrMalformedPage) Error() string {
	return fmt.Sprintf("malformed product page: missing %s", e.Missing)
}

// AuthorFixer normalizes contributor names, e.g. flipping "Last, First"
// artifacts. The host application may supply its own implementation.
type AuthorFixer func(authors []string) []string

// pageVariant describes one known generation of the product page template.
// Variants are probed in order; extraction differs only in selectors, so a
// future template generation slots in as another entry.
type pageVariant struct {
	name      string
	probe     string
	selectors selectors
}

type selectors struct {
	title        string
	authors      string
	series       string
	seriesName   string
	seriesPrefix string
	details      string
	tags         string
	tagsAttr     string // attribute carrying the tag text; empty means node text
	synopsis     string
	cover        string
}

var variants = []pageVariant{
	{
		name:  "rework",
		probe: "div[data-testid=book-details-widget]",
		selectors: selectors{
			title:        "h1[data-testid=title]",
			authors:      "a[data-testid=contributor]",
			series:       "div[data-testid=series]",
			seriesName:   "a",
			seriesPrefix: "span[data-testid=sequence]",
			details:      "div[data-testid=book-metadata] ul li",
			tags:         "a[data-testid=category]",
			tagsAttr:     "",
			synopsis:     "div[data-testid=synopsis]",
			cover:        "img[data-testid=cover-image]",
		},
	},
	{
		name:  "legacy",
		probe: "h1.title.product-field",
		selectors: selectors{
			title:        "h1.title.product-field",
			authors:      "span.visible-contributors a",
			series:       "span.series.product-field",
			seriesName:   "span.product-sequence-field a",
			seriesPrefix: "span.sequenced-name-prefix",
			details:      "div.bookitem-secondary-metadata ul li",
			tags:         "ul.category-rankings meta[property=genre]",
			tagsAttr:     "content",
			synopsis:     "div.synopsis-description",
			cover:        "img[class*=cover-image]",
		},
	},
}

// Matches the "Book 1.5 - " prefix in front of a series name; the captured
// index is kept verbatim because it may be fractional.
var seriesIndexRe = regexp.MustCompile(`^Book (.*) - `)

// Parser turns a product page document into a Book record.
type Parser struct {
	resizeCover bool
	coverWidth  int
	coverHeight int
	fixAuthors  AuthorFixer
	log         *slog.Logger
}

// New builds a parser from configuration, using the default author fixer.
func New(cfg *config.Config, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{
		resizeCover: cfg.ResizeCover,
		coverWidth:  cfg.CoverWidth,
		coverHeight: cfg.CoverHeight,
		fixAuthors:  FixAuthors,
		log:         log,
	}
}

// SetAuthorFixer replaces the contributor normalization step.
func (p *Parser) SetAuthorFixer(fix AuthorFixer) {
	if fix != nil {
		p.fixAuthors = fix
	}
}

// ParseBookPage extracts a Book from a product detail page. The title is the
// only mandatory field; any other absent field is simply left unset.
func (p *Parser) ParseBookPage(doc *goquery.Document) (*models.Book, error) {
	variant, ok := detectVariant(doc)
	if !ok {
		return nil, ErrMalformedPage{Missing: "title"}
	}
	sel := variant.selectors

	title := strings.TrimSpace(doc.Find(sel.title).First().Text())
	if title == "" {
		return nil, ErrMalformedPage{Missing: "title"}
	}
	p.log.Debug("parsing product page", slog.String("variant", variant.name), slog.String("title", title))

	book := &models.Book{Title: title}

	var authors []string
	doc.Find(sel.authors).Each(func(_ int, a *goquery.Selection) {
		if name := strings.TrimSpace(a.Text()); name != "" {
			authors = append(authors, name)
		}
	})
	book.Authors = p.fixAuthors(authors)

	p.parseSeries(doc, sel, book)
	p.parseDetails(doc, sel, book)
	p.parseTags(doc, sel, book)

	if synopsis := doc.Find(sel.synopsis).First(); synopsis.Length() > 0 {
		if markup, err := synopsis.Html(); err == nil {
			book.SynopsisHTML = strings.TrimSpace(markup)
		}
	}

	if src, ok := doc.Find(sel.cover).First().Attr("src"); ok {
		book.CoverURL = DeriveCoverURL(src, p.resizeCover, p.coverWidth, p.coverHeight)
	}

	return book, nil
}

func detectVariant(doc *goquery.Document) (pageVariant, bool) {
	for _, v := range variants {
		if doc.Find(v.probe).Length() > 0 {
			return v, true
		}
	}
	return pageVariant{}, false
}

// parseSeries reads the series container. Books in a series without a
// numeric index nest the series field one level deeper, so the last match
// is the authoritative one.
func (p *Parser) parseSeries(doc *goquery.Document, sel selectors, book *models.Book) {
	series := doc.Find(sel.series).Last()
	if series.Length() == 0 {
		return
	}

	if name := strings.TrimSpace(series.Find(sel.seriesName).First().Text()); name != "" {
		book.Series = name
	}
	prefix := strings.TrimSpace(series.Find(sel.seriesPrefix).First().Text())
	if m := seriesIndexRe.FindStringSubmatch(prefix); m != nil {
		book.SeriesIndex = m[1]
	}
}

// parseDetails walks the secondary metadata list: the first entry carries no
// label and is the publisher, the rest are label/value pairs. Unknown labels
// are ignored.
func (p *Parser) parseDetails(doc *goquery.Document, sel selectors, book *models.Book) {
	doc.Find(sel.details).Each(func(i int, li *goquery.Selection) {
		if i == 0 {
			book.Publisher = ownText(li)
			return
		}

		label := ownText(li)
		value := strings.TrimSpace(li.Find("span").First().Text())
		switch label {
		case "Release Date:":
			if value == "" {
				return
			}
			parsed, err := dateparse.ParseAny(value)
			if err != nil {
				p.log.Debug("unparseable release date", slog.String("value", value))
				return
			}
			book.PubDate = &parsed
		case "ISBN:", "Book ID:":
			book.ISBN = value
		case "Language:":
			book.Language = value
		}
	})
}

func (p *Parser) parseTags(doc *goquery.Document, sel selectors, book *models.Book) {
	doc.Find(sel.tags).Each(func(_ int, node *goquery.Selection) {
		var tag string
		if sel.tagsAttr != "" {
			tag, _ = node.Attr(sel.tagsAttr)
		} else {
			tag = node.Text()
		}
		// Commas are the host's tag separator and cannot appear inside one.
		tag = strings.ReplaceAll(tag, ", ", " ")
		tag = strings.ReplaceAll(tag, ",", " ")
		book.AddTag(strings.TrimSpace(tag))
	})
}

// ownText returns the text directly under a node, skipping child elements.
// The details list puts the label in the li's own text and the value in a
// child span.
func ownText(s *goquery.Selection) string {
	var sb strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			sb.WriteString(c.Text())
		}
	})
	return strings.TrimSpace(sb.String())
}

// Package extract resolves structured product fields from HTML documents.
//
// Every field follows the same cascade: a site-specific override selector,
// then a fixed list of heuristic selectors, then a field-specific default.
// The first tier that yields a non-empty, valid value wins and later tiers
// are not attempted. Extraction is pure: no I/O, and malformed documents
// resolve to best-effort defaults instead of errors.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kkandukuri/pricetracker/internal/siteconfig"
)

const unknownName = "Unknown Product"

// Fields is the candidate record produced from one document.
type Fields struct {
	Name        string
	Description string
	Price       float64
	Currency    string
	ImageURLs   []string
	UPC         string
}

// Resolver runs the per-field cascades.
type Resolver struct {
	maxImages       int
	defaultCurrency string
}

// NewResolver builds a resolver with the standard limits.
func NewResolver() *Resolver {
	return &Resolver{maxImages: 5, defaultCurrency: "USD"}
}

// Extract resolves all product fields from the document, consulting the
// override first for each field.
func (r *Resolver) Extract(doc *goquery.Document, ov siteconfig.Override) Fields {
	priceText, price := r.extractPrice(doc, ov)
	return Fields{
		Name:        r.extractName(doc, ov),
		Description: r.extractDescription(doc, ov),
		Price:       price,
		Currency:    r.extractCurrency(doc, ov, priceText),
		ImageURLs:   r.extractImages(doc, ov),
		UPC:         r.extractUPC(doc, ov),
	}
}

// textStrategy yields one candidate value for a field.
type textStrategy func(doc *goquery.Document) (string, bool)

// firstMatch runs strategies in order and returns the first hit.
func firstMatch(doc *goquery.Document, strategies []textStrategy) (string, bool) {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v, true
		}
	}
	return "", false
}

// selectorText matches the first element for the selector and takes its
// trimmed text.
func selectorText(selector string) textStrategy {
	return func(doc *goquery.Document) (string, bool) {
		sel := query(doc, selector)
		if sel == nil || sel.Length() == 0 {
			return "", false
		}
		text := strings.TrimSpace(sel.First().Text())
		if text == "" {
			return "", false
		}
		return text, true
	}
}

// attrValue matches the first element for the selector and takes the named
// attribute.
func attrValue(selector, attr string) textStrategy {
	return func(doc *goquery.Document) (string, bool) {
		sel := query(doc, selector)
		if sel == nil || sel.Length() == 0 {
			return "", false
		}
		v, ok := sel.First().Attr(attr)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}
}

// query guards Find against invalid selector expressions, which would
// otherwise panic; override selectors arrive from operator config.
func query(doc *goquery.Document, selector string) (sel *goquery.Selection) {
	defer func() {
		if recover() != nil {
			sel = nil
		}
	}()
	return doc.Find(selector)
}

var nameSelectors = []string{
	`h1[itemprop="name"]`,
	"h1.product-title",
	"h1#productTitle",
	"h1.product-name",
	"h1",
	`[data-testid="product-title"]`,
	".product-title",
	"#product-title",
}

func (r *Resolver) extractName(doc *goquery.Document, ov siteconfig.Override) string {
	strategies := make([]textStrategy, 0, len(nameSelectors)+1)
	if ov.Name != "" {
		strategies = append(strategies, selectorText(ov.Name))
	}
	for _, s := range nameSelectors {
		strategies = append(strategies, selectorText(s))
	}

	if name, ok := firstMatch(doc, strategies); ok {
		return name
	}
	return unknownName
}

var descriptionSelectors = []string{
	`[itemprop="description"]`,
	"#productDescription",
	".product-description",
	".description",
	`[data-testid="product-description"]`,
}

func (r *Resolver) extractDescription(doc *goquery.Document, ov siteconfig.Override) string {
	strategies := make([]textStrategy, 0, len(descriptionSelectors)+2)
	if ov.Description != "" {
		strategies = append(strategies, selectorText(ov.Description))
	}
	for _, s := range descriptionSelectors {
		strategies = append(strategies, selectorText(s))
	}
	strategies = append(strategies, attrValue(`meta[name="description"]`, "content"))

	desc, _ := firstMatch(doc, strategies)
	return desc
}

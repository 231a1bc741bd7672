package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kkandukuri/pricetracker/internal/siteconfig"
)

// Structured-data attributes commonly carrying a product identifier.
var upcMetaSelectors = []textStrategy{
	attrValue(`meta[itemprop="gtin13"]`, "content"),
	attrValue(`meta[itemprop="gtin"]`, "content"),
	attrValue(`meta[property="product:upc"]`, "content"),
	attrValue(`meta[itemprop="productID"]`, "content"),
	selectorText(`[itemprop="gtin13"]`),
	selectorText(`[itemprop="gtin"]`),
}

// CSS conventions, including explicit data attributes.
var upcCSSSelectors = []textStrategy{
	attrValue(`[data-upc]`, "data-upc"),
	attrValue(`[data-gtin]`, "data-gtin"),
	selectorText(".upc"),
	selectorText("#upc"),
	selectorText(".product-upc"),
	selectorText(`[data-testid="product-upc"]`),
}

// Containers plausibly holding product details, scanned as free text last.
var upcScanContainers = []string{
	".product-details",
	"#productDetails",
	".product-info",
	".product-meta",
	".specifications",
	"#detailBullets",
}

var upcCandidate = regexp.MustCompile(`\b\d[\d\- ]{8,16}\d\b`)
var upcSeparators = regexp.MustCompile(`[\s\-]`)
var digitsOnly = regexp.MustCompile(`^\d+$`)

// extractUPC cascades meta attributes, CSS heuristics, and a restricted
// free-text scan; the first candidate surviving validation wins.
func (r *Resolver) extractUPC(doc *goquery.Document, ov siteconfig.Override) string {
	if ov.Identifier != "" {
		if text, ok := selectorText(ov.Identifier)(doc); ok {
			if upc, ok := NormalizeUPC(text); ok {
				return upc
			}
		}
	}

	for _, s := range upcMetaSelectors {
		if text, ok := s(doc); ok {
			if upc, ok := NormalizeUPC(text); ok {
				return upc
			}
		}
	}

	for _, s := range upcCSSSelectors {
		if text, ok := s(doc); ok {
			if upc, ok := NormalizeUPC(text); ok {
				return upc
			}
		}
	}

	for _, container := range upcScanContainers {
		var found string
		doc.Find(container).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			for _, candidate := range upcCandidate.FindAllString(el.Text(), -1) {
				if upc, ok := NormalizeUPC(candidate); ok {
					found = upc
					return false
				}
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	return ""
}

// NormalizeUPC strips separator characters and validates the result as a
// UPC-A/EAN/GTIN code: entirely numeric with length 10, 12, 13, or 14.
// Candidates carrying any other non-digit content are rejected outright.
func NormalizeUPC(text string) (string, bool) {
	digits := upcSeparators.ReplaceAllString(strings.TrimSpace(text), "")
	if !digitsOnly.MatchString(digits) {
		return "", false
	}
	switch len(digits) {
	case 10, 12, 13, 14:
		return digits, true
	}
	return "", false
}

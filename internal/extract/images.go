package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kkandukuri/pricetracker/internal/siteconfig"
)

var imageSelectors = []string{
	`img[itemprop="image"]`,
	".product-image img",
	"#landingImage",
	"#imgTagWrapperId img",
	`[data-testid="product-image"]`,
	".gallery-image img",
}

// srcAttrs lists the attributes checked for an image reference, in order.
var srcAttrs = []string{"src", "data-src", "data-lazy-src"}

// extractImages collects image references for the winning tier, normalizes
// protocol-relative references, drops unresolvable relative ones,
// de-duplicates, and caps the result.
func (r *Resolver) extractImages(doc *goquery.Document, ov siteconfig.Override) []string {
	// Override tier: take every match of the configured selector.
	if ov.Image != "" {
		var urls []string
		if sel := query(doc, ov.Image); sel != nil {
			sel.Each(func(_ int, el *goquery.Selection) {
				urls = appendImageURL(urls, imageRef(el), r.maxImages)
			})
		}
		if len(urls) > 0 {
			return urls
		}
	}

	// Heuristic tier: collect across every selector in the list.
	var urls []string
	for _, s := range imageSelectors {
		doc.Find(s).Each(func(_ int, el *goquery.Selection) {
			urls = appendImageURL(urls, imageRef(el), r.maxImages)
		})
	}

	// Fallback tier: any image inside a product-looking container.
	if len(urls) == 0 {
		doc.Find(`.product, #product, [id*="product"]`).Each(func(_ int, container *goquery.Selection) {
			container.Find("img").Each(func(_ int, el *goquery.Selection) {
				urls = appendImageURL(urls, imageRef(el), r.maxImages)
			})
		})
	}

	return urls
}

// imageRef picks the first populated src-like attribute.
func imageRef(el *goquery.Selection) string {
	for _, attr := range srcAttrs {
		if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// appendImageURL normalizes and de-duplicates one candidate reference.
// Protocol-relative references become https; other relative references are
// dropped because no base URL is available here.
func appendImageURL(urls []string, ref string, max int) []string {
	if ref == "" || len(urls) >= max {
		return urls
	}
	if strings.HasPrefix(ref, "//") {
		ref = "https:" + ref
	}
	if !strings.HasPrefix(ref, "http") {
		return urls
	}
	for _, existing := range urls {
		if existing == ref {
			return urls
		}
	}
	return append(urls, ref)
}

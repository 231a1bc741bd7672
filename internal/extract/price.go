package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kkandukuri/pricetracker/internal/siteconfig"
)

var priceSelectors = []string{
	`[itemprop="price"]`,
	".price",
	"#priceblock_ourprice",
	"#priceblock_dealprice",
	".product-price",
	`[data-testid="product-price"]`,
	".a-price-whole",
	"span.price",
}

var nonPriceChars = regexp.MustCompile(`[^\d.]`)

// extractPrice resolves the price and also returns the raw matched text,
// which the currency cascade scans for glyphs.
func (r *Resolver) extractPrice(doc *goquery.Document, ov siteconfig.Override) (string, float64) {
	// Override tier: the configured selector decides, even when it parses
	// to zero.
	if ov.Price != "" {
		if text, ok := selectorText(ov.Price)(doc); ok {
			return text, ParsePrice(text)
		}
	}

	// Heuristic tier: first selector whose text parses to a positive price.
	for _, s := range priceSelectors {
		text, ok := selectorText(s)(doc)
		if !ok {
			continue
		}
		if price := ParsePrice(text); price > 0 {
			return text, price
		}
	}

	// Structured metadata before giving up.
	if content, ok := attrValue(`meta[property="product:price:amount"]`, "content")(doc); ok {
		return content, ParsePrice(content)
	}

	return "", 0
}

// ParsePrice strips every character that is not a digit or a decimal point
// and parses the remainder as a non-negative decimal. A zero result is
// ambiguous: it signals either "no price present" or a genuine free item.
// Formats using "," as the decimal separator are mis-parsed on purpose;
// fixing them silently would corrupt the dominant "." formats.
func ParsePrice(text string) float64 {
	cleaned := nonPriceChars.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}

// currencyGlyphs maps recognized symbols to their three-letter codes.
// Order matters: scanning stops at the first glyph present.
var currencyGlyphs = []struct {
	glyph string
	code  string
}{
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
}

func (r *Resolver) extractCurrency(doc *goquery.Document, ov siteconfig.Override, priceText string) string {
	if ov.Currency != "" {
		if text, ok := selectorText(ov.Currency)(doc); ok {
			return text
		}
	}

	if content, ok := attrValue(`meta[property="product:price:currency"]`, "content")(doc); ok {
		return content
	}

	// Scan the price text (however it was resolved) for a known glyph.
	scan := priceText
	if itemprop, ok := selectorText(`[itemprop="price"]`)(doc); ok {
		scan = itemprop
	}
	for _, c := range currencyGlyphs {
		if strings.Contains(scan, c.glyph) {
			return c.code
		}
	}

	return r.defaultCurrency
}

package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/kkandukuri/pricetracker/internal/siteconfig"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestExtractFullPage(t *testing.T) {
	t.Parallel()

	html := `
	<html><head>
	  <meta property="product:price:currency" content="USD">
	</head><body>
	  <h1 itemprop="name">Wireless Headphones Black</h1>
	  <div id="productDescription">Over-ear wireless headphones with noise cancellation.</div>
	  <span class="price">$129.99</span>
	  <img itemprop="image" src="https://cdn.example.com/a.jpg">
	  <div class="product-details">UPC: 036000291452</div>
	</body></html>`

	fields := NewResolver().Extract(parseHTML(t, html), siteconfig.Override{})

	if fields.Name != "Wireless Headphones Black" {
		t.Fatalf("name = %q", fields.Name)
	}
	if !strings.Contains(fields.Description, "noise cancellation") {
		t.Fatalf("description = %q", fields.Description)
	}
	if fields.Price != 129.99 {
		t.Fatalf("price = %v", fields.Price)
	}
	if fields.Currency != "USD" {
		t.Fatalf("currency = %q", fields.Currency)
	}
	if len(fields.ImageURLs) != 1 || fields.ImageURLs[0] != "https://cdn.example.com/a.jpg" {
		t.Fatalf("images = %v", fields.ImageURLs)
	}
	if fields.UPC != "036000291452" {
		t.Fatalf("upc = %q", fields.UPC)
	}
}

func TestExtractNameFallsBackToDefault(t *testing.T) {
	t.Parallel()

	fields := NewResolver().Extract(parseHTML(t, `<html><body><p>nothing here</p></body></html>`), siteconfig.Override{})
	if fields.Name != "Unknown Product" {
		t.Fatalf("expected default name, got %q", fields.Name)
	}
	if fields.Price != 0 {
		t.Fatalf("expected zero price, got %v", fields.Price)
	}
}

func TestOverrideWinsOverHeuristics(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <h1>Heuristic Title</h1>
	  <div class="custom-title">Override Title</div>
	  <span class="price">$10.00</span>
	  <span class="store-price">$24.50</span>
	</body></html>`

	ov := siteconfig.Override{Name: ".custom-title", Price: ".store-price"}
	fields := NewResolver().Extract(parseHTML(t, html), ov)

	if fields.Name != "Override Title" {
		t.Fatalf("name = %q", fields.Name)
	}
	if fields.Price != 24.50 {
		t.Fatalf("price = %v", fields.Price)
	}
}

func TestOverrideMissesFallThroughToHeuristics(t *testing.T) {
	t.Parallel()

	html := `<html><body><h1>Heuristic Title</h1></body></html>`
	ov := siteconfig.Override{Name: ".custom-title"}
	fields := NewResolver().Extract(parseHTML(t, html), ov)

	if fields.Name != "Heuristic Title" {
		t.Fatalf("name = %q", fields.Name)
	}
}

func TestInvalidOverrideSelectorDoesNotPanic(t *testing.T) {
	t.Parallel()

	html := `<html><body><h1>Safe Title</h1></body></html>`
	ov := siteconfig.Override{Name: "[[["}
	fields := NewResolver().Extract(parseHTML(t, html), ov)

	if fields.Name != "Safe Title" {
		t.Fatalf("name = %q", fields.Name)
	}
}

func TestOverridePriceAcceptsZero(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <span class="giveaway">Free</span>
	  <span class="price">$15.00</span>
	</body></html>`

	ov := siteconfig.Override{Price: ".giveaway"}
	fields := NewResolver().Extract(parseHTML(t, html), ov)

	// The override selector matched, so its zero result stands.
	if fields.Price != 0 {
		t.Fatalf("price = %v", fields.Price)
	}
}

func TestHeuristicPriceSkipsZeroCandidates(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <span class="price">Call for price</span>
	  <span class="product-price">$42.00</span>
	</body></html>`

	fields := NewResolver().Extract(parseHTML(t, html), siteconfig.Override{})
	if fields.Price != 42.00 {
		t.Fatalf("price = %v", fields.Price)
	}
}

func TestDescriptionMetaFallback(t *testing.T) {
	t.Parallel()

	html := `
	<html><head><meta name="description" content="Meta description text."></head>
	<body><h1>Title</h1></body></html>`

	fields := NewResolver().Extract(parseHTML(t, html), siteconfig.Override{})
	if fields.Description != "Meta description text." {
		t.Fatalf("description = %q", fields.Description)
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
	}{
		{"$19.99", 19.99},
		{"$1,299.99", 1299.99},
		{"Price: $1,299.99", 1299.99},
		{"USD 45", 45},
		{"free", 0},
		{"", 0},
		{"...", 0},
	}
	for _, tc := range cases {
		if got := ParsePrice(tc.in); got != tc.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	// Comma-decimal inputs mis-parse rather than being guessed at.
	if got := ParsePrice("€1.299,99"); got == 1299.99 {
		t.Errorf("ParsePrice(€1.299,99) unexpectedly normalized to %v", got)
	}
}

func TestCurrencyFromGlyph(t *testing.T) {
	t.Parallel()

	cases := []struct {
		html string
		want string
	}{
		{`<span class="price">£30.00</span>`, "GBP"},
		{`<span class="price">€25.00</span>`, "EUR"},
		{`<span itemprop="price">¥1200</span>`, "JPY"},
		{`<span class="price">25.00</span>`, "USD"},
	}
	for _, tc := range cases {
		fields := NewResolver().Extract(parseHTML(t, "<html><body>"+tc.html+"</body></html>"), siteconfig.Override{})
		if fields.Currency != tc.want {
			t.Errorf("currency for %q = %q, want %q", tc.html, fields.Currency, tc.want)
		}
	}
}

func TestCurrencyMetaBeatsGlyph(t *testing.T) {
	t.Parallel()

	html := `
	<html><head><meta property="product:price:currency" content="CAD"></head>
	<body><span class="price">$10.00</span></body></html>`

	fields := NewResolver().Extract(parseHTML(t, html), siteconfig.Override{})
	if fields.Currency != "CAD" {
		t.Fatalf("currency = %q", fields.Currency)
	}
}

func TestExtractImages(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <img itemprop="image" src="//cdn.example.com/a.jpg">
	  <div class="product-image"><img data-src="https://cdn.example.com/b.jpg"></div>
	  <div class="product-image"><img src="https://cdn.example.com/b.jpg"></div>
	  <div class="product-image"><img src="/relative/c.jpg"></div>
	</body></html>`

	fields := NewResolver().Extract(parseHTML(t, html), siteconfig.Override{})

	want := []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}
	if len(fields.ImageURLs) != len(want) {
		t.Fatalf("images = %v", fields.ImageURLs)
	}
	for i, u := range want {
		if fields.ImageURLs[i] != u {
			t.Fatalf("images[%d] = %q, want %q", i, fields.ImageURLs[i], u)
		}
	}
}

func TestExtractImagesCapped(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 8; i++ {
		sb.WriteString(`<div class="product-image"><img src="https://cdn.example.com/img`)
		sb.WriteByte(byte('0' + i))
		sb.WriteString(`.jpg"></div>`)
	}
	sb.WriteString("</body></html>")

	fields := NewResolver().Extract(parseHTML(t, sb.String()), siteconfig.Override{})
	if len(fields.ImageURLs) != 5 {
		t.Fatalf("expected 5 images, got %d", len(fields.ImageURLs))
	}
}

func TestExtractImagesContainerFallback(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <div id="product-area"><img src="https://cdn.example.com/fallback.jpg"></div>
	</body></html>`

	fields := NewResolver().Extract(parseHTML(t, html), siteconfig.Override{})
	if len(fields.ImageURLs) != 1 || fields.ImageURLs[0] != "https://cdn.example.com/fallback.jpg" {
		t.Fatalf("images = %v", fields.ImageURLs)
	}
}

func TestNormalizeUPC(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"036000291452", "036000291452", true},
		{"0 36000 29145 2", "036000291452", true},
		{"4006381-333931", "4006381333931", true},
		{"12345678901234", "12345678901234", true},
		{"1234567890", "1234567890", true},
		{"12345678901", "", false},
		{"123456789", "", false},
		{"HP-2024-BLK99", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeUPC(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizeUPC(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractUPCFromMeta(t *testing.T) {
	t.Parallel()

	html := `
	<html><head><meta itemprop="gtin13" content="4006381333931"></head>
	<body><div class="product-details">Model HX-100, batch 9982211</div></body></html>`

	fields := NewResolver().Extract(parseHTML(t, html), siteconfig.Override{})
	if fields.UPC != "4006381333931" {
		t.Fatalf("upc = %q", fields.UPC)
	}
}

func TestExtractUPCScanIgnoresShortNumbers(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <div class="product-details">Weight 500 g, item no. 12345, UPC 036000291452.</div>
	</body></html>`

	fields := NewResolver().Extract(parseHTML(t, html), siteconfig.Override{})
	if fields.UPC != "036000291452" {
		t.Fatalf("upc = %q", fields.UPC)
	}
}

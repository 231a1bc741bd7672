package export

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// shortDescriptionMax caps the ShortDescription column length in runes.
const shortDescriptionMax = 100

// ShortDescription truncates a description at a word boundary and appends
// an ellipsis. Short inputs pass through unchanged. The cut counts runes,
// never splitting a multi-byte character.
func ShortDescription(description string) string {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) <= shortDescriptionMax {
		return description
	}

	truncated := string([]rune(description)[:shortDescriptionMax])
	if idx := strings.LastIndex(truncated, " "); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated + "..."
}

var knownColors = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange", "purple",
	"pink", "brown", "grey", "gray", "silver", "gold", "beige", "navy",
	"teal", "maroon", "olive", "lime", "cyan", "magenta", "tan", "violet",
	"indigo", "turquoise", "multicolor", "multi-color", "assorted",
}

// DetectColor scans the name, then the description, for a known color word.
func DetectColor(name, description string) string {
	for _, text := range []string{strings.ToLower(name), strings.ToLower(description)} {
		for _, color := range knownColors {
			if strings.Contains(text, color) {
				return strings.ToUpper(color[:1]) + color[1:]
			}
		}
	}
	return ""
}

// Ordered from most to least specific: unit-bearing quantities before bare
// garment letters, so "250ml Shampoo L" reads as 250ml.
var sizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d+\s*ml)\b`),
	regexp.MustCompile(`\b(\d+\s*l)\b`),
	regexp.MustCompile(`\b(\d+\s*g)\b`),
	regexp.MustCompile(`\b(\d+\s*kg)\b`),
	regexp.MustCompile(`\b(\d+\s*oz)\b`),
	regexp.MustCompile(`\b(\d+\s*lb)\b`),
	regexp.MustCompile(`\b(x?s|small)\b`),
	regexp.MustCompile(`\b(m|medium)\b`),
	regexp.MustCompile(`\b(x?l|large)\b`),
	regexp.MustCompile(`\b(xx?l)\b`),
	regexp.MustCompile(`\b(\d+x\d+)\b`),
	regexp.MustCompile(`\b(\d+")`),
	regexp.MustCompile(`\b(\d+\s*inch)\b`),
	regexp.MustCompile(`\b(\d+\s*cm)\b`),
	regexp.MustCompile(`\b(\d+\s*mm)\b`),
}

// DetectSize matches common size notations in the name and description.
func DetectSize(name, description string) string {
	text := strings.ToLower(name + " " + description)
	for _, p := range sizePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

type categoryRule struct {
	keyword  string
	category string
	child    string
}

// Checked in order, first keyword hit wins.
var categoryRules = []categoryRule{
	{"beauty", "Beauty", "Personal Care"},
	{"hair", "Beauty", "Hair Care"},
	{"skin", "Beauty", "Skin Care"},
	{"makeup", "Beauty", "Makeup"},
	{"shampoo", "Beauty", "Hair Care"},
	{"conditioner", "Beauty", "Hair Care"},
	{"lotion", "Beauty", "Skin Care"},
	{"cream", "Beauty", "Skin Care"},
	{"serum", "Beauty", "Skin Care"},

	{"electronics", "Electronics", "General"},
	{"phone", "Electronics", "Mobile"},
	{"laptop", "Electronics", "Computers"},
	{"computer", "Electronics", "Computers"},
	{"headphone", "Electronics", "Audio"},
	{"speaker", "Electronics", "Audio"},
	{"camera", "Electronics", "Photography"},

	{"clothing", "Fashion", "Clothing"},
	{"shirt", "Fashion", "Clothing"},
	{"pants", "Fashion", "Clothing"},
	{"dress", "Fashion", "Clothing"},
	{"shoes", "Fashion", "Footwear"},

	{"home", "Home", "General"},
	{"kitchen", "Home", "Kitchen"},
	{"furniture", "Home", "Furniture"},
	{"bedding", "Home", "Bedroom"},

	{"food", "Grocery", "Food"},
	{"snack", "Grocery", "Snacks"},
	{"beverage", "Grocery", "Beverages"},
	{"organic", "Grocery", "Organic"},

	{"toy", "Toys", "General"},
	{"game", "Toys", "Games"},

	{"book", "Books", "General"},
	{"novel", "Books", "Fiction"},

	{"sport", "Sports", "General"},
	{"fitness", "Sports", "Fitness"},
}

// DetectCategory derives a category pair from the URL, name, and description.
func DetectCategory(url, name, description string) (category, child string) {
	text := strings.ToLower(url + " " + name + " " + description)
	for _, rule := range categoryRules {
		if strings.Contains(text, rule.keyword) {
			return rule.category, rule.child
		}
	}
	return "", ""
}

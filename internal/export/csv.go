// Package export renders tracked products and price history as CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/ledger"
)

// Options toggles the optional column groups of a product export.
type Options struct {
	IncludeImages   bool
	IncludeMetadata bool
}

// WriteProducts renders one row per product with enrichment columns derived
// from its name, description, and URL.
func WriteProducts(w io.Writer, products []domain.Product, opts Options) error {
	writer := csv.NewWriter(w)

	header := []string{
		"URL", "NAME", "Description", "ShortDescription", "Price",
		"color", "Size", "Category", "childCategory",
	}
	if opts.IncludeImages {
		header = append(header, "ImageURLs")
	}
	if opts.IncludeMetadata {
		header = append(header, "Currency", "Site", "ProductID", "CreatedAt", "UpdatedAt")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range products {
		category, child := DetectCategory(p.URL, p.Name, p.Description)
		row := []string{
			p.URL,
			p.Name,
			p.Description,
			ShortDescription(p.Description),
			formatPrice(p.CurrentPrice),
			DetectColor(p.Name, p.Description),
			DetectSize(p.Name, p.Description),
			category,
			child,
		}
		if opts.IncludeImages {
			row = append(row, joinImages(p.ImageURLs))
		}
		if opts.IncludeMetadata {
			row = append(row,
				p.Currency,
				p.SiteName,
				strconv.FormatInt(p.ID, 10),
				formatTime(p.CreatedAt),
				formatTime(p.UpdatedAt),
			)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// historyLimit bounds per-product rows in a history export.
const historyLimit = 1000

// WritePriceHistory renders the observation ledger of every product, oldest
// first, with a signed change column. The first row of a product carries no
// change value.
func WritePriceHistory(ctx context.Context, w io.Writer, products []domain.Product, l *ledger.Ledger) error {
	writer := csv.NewWriter(w)

	header := []string{"ProductID", "ProductName", "Date", "Price", "Currency", "PriceChange"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range products {
		deltas, err := l.Deltas(ctx, p.ID, historyLimit)
		if err != nil {
			return fmt.Errorf("history for product %d: %w", p.ID, err)
		}
		for _, d := range deltas {
			row := []string{
				strconv.FormatInt(p.ID, 10),
				p.Name,
				formatTime(d.Observation.RecordedAt),
				formatPrice(d.Observation.Price),
				d.Observation.Currency,
				formatChange(d),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// formatChange renders the delta with an explicit sign; the first entry of a
// product has nothing to compare against and stays empty.
func formatChange(d domain.PriceDelta) string {
	if d.First {
		return ""
	}
	switch {
	case d.Change > 0:
		return fmt.Sprintf("+%.2f", d.Change)
	case d.Change < 0:
		return fmt.Sprintf("%.2f", d.Change)
	}
	return "0.00"
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func joinImages(urls []string) string {
	return strings.Join(urls, "; ")
}

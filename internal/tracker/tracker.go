// Package tracker ties fetching, extraction, persistence, and the price
// ledger into the track-one-product operation.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/extract"
	"github.com/kkandukuri/pricetracker/internal/ledger"
	"github.com/kkandukuri/pricetracker/internal/ports"
	"github.com/kkandukuri/pricetracker/internal/siteconfig"
)

// ErrStore marks a persistence failure. Callers running bulk jobs use it to
// tell a broken backend (abort the run) from a broken page (skip the item).
var ErrStore = errors.New("store failure")

// Tracker extracts a product page and keeps the stored record and its price
// history current.
type Tracker struct {
	fetcher   ports.Fetcher
	repo      ports.ProductRepository
	resolver  *extract.Resolver
	overrides *siteconfig.Resolver
	ledger    *ledger.Ledger
	notifier  ports.Notifier
	logger    *slog.Logger
}

// New wires a tracker. The notifier may be nil.
func New(
	fetcher ports.Fetcher,
	repo ports.ProductRepository,
	overrides *siteconfig.Resolver,
	l *ledger.Ledger,
	notifier ports.Notifier,
	logger *slog.Logger,
) *Tracker {
	return &Tracker{
		fetcher:   fetcher,
		repo:      repo,
		resolver:  extract.NewResolver(),
		overrides: overrides,
		ledger:    l,
		notifier:  notifier,
		logger:    logger,
	}
}

// Track fetches the page, extracts its fields, upserts the product record,
// and appends a ledger entry when the price moved. Fetch and parse failures
// come back as plain errors; persistence failures are wrapped with ErrStore.
func (t *Tracker) Track(ctx context.Context, target string) (domain.Product, error) {
	doc, err := t.fetcher.Fetch(ctx, target)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch %s: %w", target, err)
	}

	fields := t.resolver.Extract(doc, t.overrides.Resolve(target))

	product, err := t.repo.GetByURL(ctx, target)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		product = domain.Product{URL: target, SiteName: siteName(target)}
	case err != nil:
		return domain.Product{}, errors.Join(ErrStore, fmt.Errorf("load product: %w", err))
	}

	oldPrice := product.CurrentPrice
	existing := product.ID != 0

	product.Name = fields.Name
	product.Description = fields.Description
	product.CurrentPrice = fields.Price
	product.Currency = fields.Currency
	product.ImageURLs = fields.ImageURLs
	product.UPC = fields.UPC

	if existing {
		err = t.repo.Update(ctx, &product)
	} else {
		err = t.repo.Create(ctx, &product)
	}
	if err != nil {
		return domain.Product{}, errors.Join(ErrStore, fmt.Errorf("persist product: %w", err))
	}

	recorded, err := t.ledger.Record(ctx, product.ID, product.CurrentPrice, product.Currency)
	if err != nil {
		return domain.Product{}, errors.Join(ErrStore, err)
	}

	t.logger.Info("tracked product",
		"url", target, "name", product.Name,
		"price", product.CurrentPrice, "currency", product.Currency,
		"recorded", recorded)

	if existing && recorded && t.notifier != nil {
		if err := t.notifier.PriceChanged(ctx, product, oldPrice, product.CurrentPrice); err != nil {
			t.logger.Warn("price notification failed", "url", target, "error", err)
		}
	}

	return product, nil
}

// UpdateResult summarizes one pass over every tracked product.
type UpdateResult struct {
	Total   int
	Updated int
	Failed  int
}

// UpdateAll re-tracks every stored product in turn. Per-product failures are
// logged and counted; only listing the products or a store failure aborts.
func (t *Tracker) UpdateAll(ctx context.Context) (UpdateResult, error) {
	products, err := t.repo.List(ctx)
	if err != nil {
		return UpdateResult{}, errors.Join(ErrStore, fmt.Errorf("list products: %w", err))
	}

	result := UpdateResult{Total: len(products)}
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := t.Track(ctx, p.URL); err != nil {
			if errors.Is(err, ErrStore) {
				return result, err
			}
			result.Failed++
			t.logger.Warn("update failed", "url", p.URL, "error", err)
			continue
		}
		result.Updated++
	}
	return result, nil
}

// siteName derives a display name for the site from the URL host.
func siteName(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// Package ports declares the driven interfaces wired together in app.
package ports

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"

	"github.com/kkandukuri/pricetracker/internal/domain"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// Fetcher retrieves a target URL and parses it into a document.
// Implementations own their timeout; a stalled fetch blocks the caller up
// to that bound and no further.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// ProductRepository persists tracked products and their price history.
// Observations are append-only and returned in ascending recorded-at order;
// a positive limit keeps the newest limit entries, still ascending.
type ProductRepository interface {
	GetByURL(ctx context.Context, url string) (domain.Product, error)
	GetByID(ctx context.Context, id int64) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error

	AddObservation(ctx context.Context, o *domain.PriceObservation) error
	LatestObservation(ctx context.Context, productID int64) (domain.PriceObservation, error)
	Observations(ctx context.Context, productID int64, limit int) ([]domain.PriceObservation, error)
}

// Notifier pushes price-change alerts to an outbound channel.
type Notifier interface {
	PriceChanged(ctx context.Context, p domain.Product, oldPrice, newPrice float64) error
}

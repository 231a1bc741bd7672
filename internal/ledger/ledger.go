// Package ledger maintains the append-only price history of tracked products.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/ports"
)

// priceEpsilon bounds float comparison when deciding whether a price moved.
const priceEpsilon = 1e-9

// Ledger appends price observations and reads them back with deltas.
type Ledger struct {
	repo ports.ProductRepository
}

// New builds a ledger over the given repository.
func New(repo ports.ProductRepository) *Ledger {
	return &Ledger{repo: repo}
}

// Record appends an observation when it is the first for the product or the
// price differs from the latest recorded one. It reports whether an entry
// was written, so repeated extractions of an unchanged price stay silent.
func (l *Ledger) Record(ctx context.Context, productID int64, price float64, currency string) (bool, error) {
	latest, err := l.repo.LatestObservation(ctx, productID)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		// First observation for this product.
	case err != nil:
		return false, fmt.Errorf("read latest observation: %w", err)
	default:
		if math.Abs(latest.Price-price) < priceEpsilon {
			return false, nil
		}
	}

	obs := domain.PriceObservation{
		ProductID: productID,
		Price:     price,
		Currency:  currency,
	}
	if err := l.repo.AddObservation(ctx, &obs); err != nil {
		return false, fmt.Errorf("append observation: %w", err)
	}
	return true, nil
}

// History returns the observations for a product in recorded order. A zero
// limit returns everything.
func (l *Ledger) History(ctx context.Context, productID int64, limit int) ([]domain.PriceObservation, error) {
	obs, err := l.repo.Observations(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	return obs, nil
}

// Deltas returns the history annotated with the change against the previous
// entry. The first entry is flagged instead of carrying a change.
func (l *Ledger) Deltas(ctx context.Context, productID int64, limit int) ([]domain.PriceDelta, error) {
	obs, err := l.History(ctx, productID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PriceDelta, 0, len(obs))
	for i, o := range obs {
		d := domain.PriceDelta{Observation: o}
		if i == 0 {
			d.First = true
		} else {
			d.Change = o.Price - obs[i-1].Price
		}
		out = append(out, d)
	}
	return out, nil
}

package domain

import "time"

// Product is a tracked item from an ecommerce site, keyed by its source URL.
type Product struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	// CurrentPrice is zero both when the page listed no price and for a
	// genuinely free item; the two cases are not distinguishable here.
	CurrentPrice float64   `json:"price"`
	Currency     string    `json:"currency"`
	ImageURLs    []string  `json:"image_urls"`
	SiteName     string    `json:"site"`
	UPC          string    `json:"upc"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PriceObservation is one append-only entry in a product's price history.
type PriceObservation struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PriceDelta pairs an observation with its change from the previous one.
// First is set on the earliest observation, where no delta exists.
type PriceDelta struct {
	Observation PriceObservation
	Change      float64
	First       bool
}

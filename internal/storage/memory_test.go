package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/ports"
)

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	p := domain.Product{URL: "https://shop.example.com/p/1", Name: "Widget"}
	if err := repo.Create(context.Background(), &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 || p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Fatalf("product = %+v", p)
	}
}

func TestGetByURLAndByID(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	ctx := context.Background()
	p := domain.Product{URL: "https://shop.example.com/p/1", Name: "Widget"}
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}

	byURL, err := repo.GetByURL(ctx, p.URL)
	if err != nil {
		t.Fatalf("get by url: %v", err)
	}
	byID, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byURL.ID != byID.ID || byURL.Name != "Widget" {
		t.Fatalf("byURL = %+v, byID = %+v", byURL, byID)
	}

	if _, err := repo.GetByURL(ctx, "https://other.example.com"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := repo.GetByID(ctx, 999); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	ctx := context.Background()
	p := domain.Product{URL: "https://shop.example.com/p/1", Name: "Widget"}
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	created := p.CreatedAt

	p.Name = "Widget v2"
	p.CurrentPrice = 10
	if err := repo.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !p.CreatedAt.Equal(created) {
		t.Fatalf("created at changed: %v != %v", p.CreatedAt, created)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Widget v2" || got.CurrentPrice != 10 {
		t.Fatalf("got = %+v", got)
	}
}

func TestUpdateUnknownProduct(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	p := domain.Product{ID: 42, URL: "https://shop.example.com/p/1"}
	if err := repo.Update(context.Background(), &p); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	ctx := context.Background()
	p := domain.Product{
		URL:       "https://shop.example.com/p/1",
		Name:      "Widget",
		ImageURLs: []string{"https://cdn.example.com/a.jpg"},
	}
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.ImageURLs[0] = "https://evil.example.com/x.jpg"

	again, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.ImageURLs[0] != "https://cdn.example.com/a.jpg" {
		t.Fatalf("stored product mutated: %+v", again)
	}
}

func TestObservations(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	ctx := context.Background()
	p := domain.Product{URL: "https://shop.example.com/p/1"}
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.LatestObservation(ctx, p.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}

	base := time.Now().UTC()
	for i, price := range []float64{10, 12, 11} {
		o := domain.PriceObservation{ProductID: p.ID, Price: price, Currency: "USD", RecordedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.AddObservation(ctx, &o); err != nil {
			t.Fatalf("add observation: %v", err)
		}
	}

	latest, err := repo.LatestObservation(ctx, p.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Price != 11 {
		t.Fatalf("latest = %+v", latest)
	}

	obs, err := repo.Observations(ctx, p.ID, 2)
	if err != nil {
		t.Fatalf("observations: %v", err)
	}
	if len(obs) != 2 || obs[0].Price != 12 || obs[1].Price != 11 {
		t.Fatalf("obs = %+v", obs)
	}
}

func TestListMostRecentFirst(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	ctx := context.Background()
	for _, url := range []string{"https://a", "https://b", "https://c"} {
		p := domain.Product{URL: url}
		if err := repo.Create(ctx, &p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	// Touch the oldest product so it sorts first.
	oldest, err := repo.GetByURL(ctx, "https://a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	time.Sleep(time.Millisecond)
	if err := repo.Update(ctx, &oldest); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].URL != "https://a" {
		t.Fatalf("list = %+v", list)
	}
}

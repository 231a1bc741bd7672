package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/ports"
)

// Postgres persists products and price history in Postgres via pgx,
// building statements with squirrel.
type Postgres struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

var _ ports.ProductRepository = (*Postgres)(nil)

// NewPostgres wires a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Connect opens a pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (r *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			url TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			current_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'USD',
			image_urls TEXT NOT NULL DEFAULT '[]',
			site_name TEXT NOT NULL DEFAULT '',
			upc TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products (id),
			price DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_product
			ON price_history (product_id, recorded_at)`,
	}
	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var productColumns = []string{
	"id", "url", "name", "description", "current_price",
	"currency", "image_urls", "site_name", "upc", "created_at", "updated_at",
}

func (r *Postgres) GetByURL(ctx context.Context, url string) (domain.Product, error) {
	query := r.sb.Select(productColumns...).From("products").Where(sq.Eq{"url": url})
	return r.queryProduct(ctx, query)
}

func (r *Postgres) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	query := r.sb.Select(productColumns...).From("products").Where(sq.Eq{"id": id})
	return r.queryProduct(ctx, query)
}

func (r *Postgres) queryProduct(ctx context.Context, query sq.SelectBuilder) (domain.Product, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return domain.Product{}, fmt.Errorf("build query: %w", err)
	}

	p, err := scanProduct(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, ports.ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (r *Postgres) List(ctx context.Context) ([]domain.Product, error) {
	sqlStr, args, err := r.sb.Select(productColumns...).
		From("products").
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (r *Postgres) Create(ctx context.Context, p *domain.Product) error {
	images, err := json.Marshal(p.ImageURLs)
	if err != nil {
		return fmt.Errorf("marshal image urls: %w", err)
	}

	sqlStr, args, err := r.sb.Insert("products").
		Columns("url", "name", "description", "current_price", "currency",
			"image_urls", "site_name", "upc").
		Values(p.URL, p.Name, p.Description, p.CurrentPrice, p.Currency,
			string(images), p.SiteName, p.UPC).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	row := r.pool.QueryRow(ctx, sqlStr, args...)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *Postgres) Update(ctx context.Context, p *domain.Product) error {
	images, err := json.Marshal(p.ImageURLs)
	if err != nil {
		return fmt.Errorf("marshal image urls: %w", err)
	}

	sqlStr, args, err := r.sb.Update("products").
		Set("name", p.Name).
		Set("description", p.Description).
		Set("current_price", p.CurrentPrice).
		Set("currency", p.Currency).
		Set("image_urls", string(images)).
		Set("site_name", p.SiteName).
		Set("upc", p.UPC).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": p.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	row := r.pool.QueryRow(ctx, sqlStr, args...)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *Postgres) AddObservation(ctx context.Context, o *domain.PriceObservation) error {
	sqlStr, args, err := r.sb.Insert("price_history").
		Columns("product_id", "price", "currency").
		Values(o.ProductID, o.Price, o.Currency).
		Suffix("RETURNING id, recorded_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	row := r.pool.QueryRow(ctx, sqlStr, args...)
	if err := row.Scan(&o.ID, &o.RecordedAt); err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

func (r *Postgres) LatestObservation(ctx context.Context, productID int64) (domain.PriceObservation, error) {
	sqlStr, args, err := r.sb.Select("id", "product_id", "price", "currency", "recorded_at").
		From("price_history").
		Where(sq.Eq{"product_id": productID}).
		OrderBy("recorded_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.PriceObservation{}, fmt.Errorf("build query: %w", err)
	}

	var o domain.PriceObservation
	row := r.pool.QueryRow(ctx, sqlStr, args...)
	if err := row.Scan(&o.ID, &o.ProductID, &o.Price, &o.Currency, &o.RecordedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PriceObservation{}, ports.ErrNotFound
		}
		return domain.PriceObservation{}, fmt.Errorf("query observation: %w", err)
	}
	return o, nil
}

func (r *Postgres) Observations(ctx context.Context, productID int64, limit int) ([]domain.PriceObservation, error) {
	sqlStr, args, err := r.observationsQuery(productID, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceObservation
	for rows.Next() {
		var o domain.PriceObservation
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Price, &o.Currency, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	if limit > 0 {
		reverseObservations(out)
	}
	return out, nil
}

// observationsQuery selects history rows in ascending recorded order.
// A positive limit must keep the newest rows, so the limited query scans
// descending and the caller reverses the result.
func (r *Postgres) observationsQuery(productID int64, limit int) sq.SelectBuilder {
	query := r.sb.Select("id", "product_id", "price", "currency", "recorded_at").
		From("price_history").
		Where(sq.Eq{"product_id": productID})
	if limit > 0 {
		return query.OrderBy("recorded_at DESC", "id DESC").Limit(uint64(limit))
	}
	return query.OrderBy("recorded_at ASC", "id ASC")
}

func reverseObservations(obs []domain.PriceObservation) {
	for i, j := 0, len(obs)-1; i < j; i, j = i+1, j-1 {
		obs[i], obs[j] = obs[j], obs[i]
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var images string
	err := row.Scan(&p.ID, &p.URL, &p.Name, &p.Description, &p.CurrentPrice,
		&p.Currency, &images, &p.SiteName, &p.UPC, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if images != "" {
		if err := json.Unmarshal([]byte(images), &p.ImageURLs); err != nil {
			return domain.Product{}, fmt.Errorf("decode image urls: %w", err)
		}
	}
	return p, nil
}

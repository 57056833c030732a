package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/alpha-markets/dropgate/internal/model"
)

// schema mirrors the marketplace tables. EnsureSchema applies it on startup
// so a fresh database is usable without a separate migration step.
const schema = `
CREATE TABLE IF NOT EXISTS sellers (
	id         BIGSERIAL PRIMARY KEY,
	wallet     TEXT NOT NULL UNIQUE,
	fid        BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id          BIGSERIAL PRIMARY KEY,
	seller_id   BIGINT NOT NULL REFERENCES sellers(id),
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	content     TEXT NOT NULL,
	price_usd   NUMERIC NOT NULL CHECK (price_usd > 0),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS purchases (
	id           BIGSERIAL PRIMARY KEY,
	product_id   BIGINT NOT NULL REFERENCES products(id),
	buyer_wallet TEXT NOT NULL,
	buyer_fid    BIGINT,
	amount_usd   NUMERIC NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS seller_ratings (
	id           BIGSERIAL PRIMARY KEY,
	seller_id    BIGINT NOT NULL REFERENCES sellers(id),
	buyer_wallet TEXT NOT NULL,
	rating       INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment      TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Postgres is the production Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the marketplace tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) CreateSeller(ctx context.Context, s NewSeller) (*model.Seller, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO sellers (wallet, fid) VALUES ($1, $2)
		 RETURNING id, wallet, fid, created_at`,
		s.Wallet, s.FID)
	return scanSeller(row)
}

func (p *Postgres) SellerByWallet(ctx context.Context, wallet string) (*model.Seller, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, wallet, fid, created_at FROM sellers WHERE wallet = $1`, wallet)
	return scanSeller(row)
}

func (p *Postgres) SellerByFID(ctx context.Context, fid int64) (*model.Seller, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, wallet, fid, created_at FROM sellers WHERE fid = $1`, fid)
	return scanSeller(row)
}

func (p *Postgres) CreateProduct(ctx context.Context, np NewProduct) (*model.Product, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO products (seller_id, title, description, content, price_usd)
		 VALUES ($1, $2, $3, $4, $5::numeric)
		 RETURNING id, seller_id, title, description, content, price_usd::text, created_at`,
		np.SellerID, np.Title, np.Description, np.Content, model.CanonicalAmount(np.PriceUSD))
	return scanProduct(row)
}

func (p *Postgres) ProductByID(ctx context.Context, id int64) (*model.Product, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, seller_id, title, description, content, price_usd::text, created_at
		 FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (p *Postgres) ProductsBySeller(ctx context.Context, sellerID int64) ([]model.Product, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, seller_id, title, description, content, price_usd::text, created_at
		 FROM products WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *product)
	}
	return out, rows.Err()
}

func (p *Postgres) CreatePurchase(ctx context.Context, np NewPurchase) (*model.Purchase, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO purchases (product_id, buyer_wallet, buyer_fid, amount_usd)
		 VALUES ($1, $2, $3, $4::numeric)
		 RETURNING id, product_id, buyer_wallet, buyer_fid, amount_usd::text, created_at`,
		np.ProductID, np.BuyerWallet, np.BuyerFID, model.CanonicalAmount(np.AmountUSD))
	return scanPurchase(row)
}

func (p *Postgres) PurchasesByBuyer(ctx context.Context, buyerWallet string) ([]model.PurchaseWithProduct, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT pu.id, pu.product_id, pu.buyer_wallet, pu.buyer_fid, pu.amount_usd::text, pu.created_at,
		        pr.id, pr.seller_id, pr.title, pr.description, pr.content, pr.price_usd::text, pr.created_at
		 FROM purchases pu
		 JOIN products pr ON pr.id = pu.product_id
		 WHERE pu.buyer_wallet = $1
		 ORDER BY pu.created_at DESC`, buyerWallet)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()
	return scanJoinedPurchases(rows)
}

func (p *Postgres) PurchasesByProduct(ctx context.Context, productID int64) ([]model.Purchase, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, product_id, buyer_wallet, buyer_fid, amount_usd::text, created_at
		 FROM purchases WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var out []model.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *purchase)
	}
	return out, rows.Err()
}

func (p *Postgres) RecentPurchases(ctx context.Context, limit int) ([]model.PurchaseWithProduct, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT pu.id, pu.product_id, pu.buyer_wallet, pu.buyer_fid, pu.amount_usd::text, pu.created_at,
		        pr.id, pr.seller_id, pr.title, pr.description, pr.content, pr.price_usd::text, pr.created_at
		 FROM purchases pu
		 JOIN products pr ON pr.id = pu.product_id
		 ORDER BY pu.created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent purchases: %w", err)
	}
	defer rows.Close()
	return scanJoinedPurchases(rows)
}

func (p *Postgres) CreateRating(ctx context.Context, nr NewRating) (*model.Rating, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO seller_ratings (seller_id, buyer_wallet, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, seller_id, buyer_wallet, rating, comment, created_at`,
		nr.SellerID, nr.BuyerWallet, nr.Rating, nr.Comment)
	return scanRating(row)
}

func (p *Postgres) RatingsBySeller(ctx context.Context, sellerID int64) ([]model.Rating, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, seller_id, buyer_wallet, rating, comment, created_at
		 FROM seller_ratings WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var out []model.Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rating)
	}
	return out, rows.Err()
}

func (p *Postgres) SellerStats(ctx context.Context, sellerID int64) (*model.SellerStats, error) {
	var totalText string
	var buyers int
	err := p.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(pu.amount_usd), 0)::text, COUNT(DISTINCT pu.buyer_wallet)
		 FROM purchases pu
		 JOIN products pr ON pr.id = pu.product_id
		 WHERE pr.seller_id = $1`, sellerID).Scan(&totalText, &buyers)
	if err != nil {
		return nil, fmt.Errorf("query purchase totals: %w", err)
	}

	total, err := decimal.NewFromString(totalText)
	if err != nil {
		return nil, fmt.Errorf("parse purchase total %q: %w", totalText, err)
	}

	var avg float64
	err = p.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0) FROM seller_ratings WHERE seller_id = $1`,
		sellerID).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("query rating average: %w", err)
	}

	return &model.SellerStats{
		TotalEarned: total,
		Pending:     decimal.Zero,
		Buyers:      buyers,
		AvgStars:    avg,
		TrustTags:   model.DefaultTrustTags,
	}, nil
}

// Row scanning helpers. Prices come back as text so decimal values keep
// their stored scale.

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeller(row rowScanner) (*model.Seller, error) {
	var s model.Seller
	err := row.Scan(&s.ID, &s.Wallet, &s.FID, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan seller: %w", err)
	}
	return &s, nil
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var p model.Product
	var priceText string
	err := row.Scan(&p.ID, &p.SellerID, &p.Title, &p.Description, &p.Content, &priceText, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if p.PriceUSD, err = decimal.NewFromString(priceText); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", priceText, err)
	}
	return &p, nil
}

func scanPurchase(row rowScanner) (*model.Purchase, error) {
	var p model.Purchase
	var amountText string
	err := row.Scan(&p.ID, &p.ProductID, &p.BuyerWallet, &p.BuyerFID, &amountText, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan purchase: %w", err)
	}
	if p.AmountUSD, err = decimal.NewFromString(amountText); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amountText, err)
	}
	return &p, nil
}

func scanRating(row rowScanner) (*model.Rating, error) {
	var r model.Rating
	err := row.Scan(&r.ID, &r.SellerID, &r.BuyerWallet, &r.Rating, &r.Comment, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan rating: %w", err)
	}
	return &r, nil
}

func scanJoinedPurchases(rows pgx.Rows) ([]model.PurchaseWithProduct, error) {
	var out []model.PurchaseWithProduct
	for rows.Next() {
		var joined model.PurchaseWithProduct
		var product model.Product
		var amountText, priceText string
		err := rows.Scan(
			&joined.ID, &joined.ProductID, &joined.BuyerWallet, &joined.BuyerFID, &amountText, &joined.CreatedAt,
			&product.ID, &product.SellerID, &product.Title, &product.Description, &product.Content, &priceText, &product.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}
		if joined.AmountUSD, err = decimal.NewFromString(amountText); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amountText, err)
		}
		if product.PriceUSD, err = decimal.NewFromString(priceText); err != nil {
			return nil, fmt.Errorf("parse price %q: %w", priceText, err)
		}
		joined.Product = &product
		out = append(out, joined)
	}
	return out, rows.Err()
}

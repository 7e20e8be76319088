package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// ProductStore implements domain.ProductStore using PostgreSQL.
type ProductStore struct {
	pool *pgxpool.Pool
}

var _ domain.ProductStore = (*ProductStore)(nil)

// NewProductStore creates a ProductStore backed by the given connection pool.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// InsertRun persists all products of one run, with their members, inside a
// single transaction.
func (s *ProductStore) InsertRun(ctx context.Context, runID string, products []domain.UnifiedProduct) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin insert run %s: %w", runID, err)
	}
	defer tx.Rollback(ctx)

	const insertProduct = `
		INSERT INTO unified_products (run_id, position, unified_title, avg_confidence, member_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	const insertMember = `
		INSERT INTO product_members (product_id, position, site, site_product_id, title, price, url, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for pos, p := range products {
		var productID int64
		err := tx.QueryRow(ctx, insertProduct,
			runID, pos, p.UnifiedTitle, p.AverageConfidence(), len(p.Members),
		).Scan(&productID)
		if err != nil {
			return fmt.Errorf("postgres: insert product %d of run %s: %w", pos, runID, err)
		}

		for i, m := range p.Members {
			confidence := 0.0
			if i < len(p.ConfidenceScores) {
				confidence = p.ConfidenceScores[i]
			}
			if _, err := tx.Exec(ctx, insertMember,
				productID, i, m.Site, m.ID, m.Title, m.Price, m.URL, confidence,
			); err != nil {
				return fmt.Errorf("postgres: insert member %d of product %d: %w", i, productID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit run %s: %w", runID, err)
	}
	return nil
}

// ListRecent returns the most recently stored products, newest first, with
// members in their original cluster order.
func (s *ProductStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.UnifiedProduct, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, unified_title
		FROM unified_products
		ORDER BY id DESC
		LIMIT $1 OFFSET $2`, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent products: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var products []domain.UnifiedProduct
	index := make(map[int64]int)
	for rows.Next() {
		var id int64
		var p domain.UnifiedProduct
		if err := rows.Scan(&id, &p.UnifiedTitle); err != nil {
			return nil, fmt.Errorf("postgres: scan product: %w", err)
		}
		index[id] = len(products)
		ids = append(ids, id)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent products rows: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	memberRows, err := s.pool.Query(ctx, `
		SELECT product_id, site, site_product_id, title, price, url, confidence
		FROM product_members
		WHERE product_id = ANY($1)
		ORDER BY product_id DESC, position ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: list product members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var productID int64
		var m domain.Market
		var confidence float64
		if err := memberRows.Scan(&productID, &m.Site, &m.ID, &m.Title, &m.Price, &m.URL, &confidence); err != nil {
			return nil, fmt.Errorf("postgres: scan product member: %w", err)
		}
		i, ok := index[productID]
		if !ok {
			continue
		}
		products[i].Members = append(products[i].Members, m)
		products[i].ConfidenceScores = append(products[i].ConfidenceScores, confidence)
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list product members rows: %w", err)
	}

	return products, nil
}

// CountProducts returns the total number of stored unified products.
func (s *ProductStore) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM unified_products").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count products: %w", err)
	}
	return count, nil
}

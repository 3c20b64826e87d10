package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/exportdesk/debt-ledger/internal/domain"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}

	const query = `
SELECT id, name, unit, price, created_at
FROM products
WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, "load products", err)
	}
	defer rows.Close()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Unit, &product.Price, &product.CreatedAt); err != nil {
			return nil, domain.Wrap(domain.KindInternal, "scan product", err)
		}
		products[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.KindInternal, "load products", err)
	}

	return products, nil
}

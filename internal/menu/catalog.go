package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gensavor/internal/domain"
)

// ErrUnknownItem rejects checkout lines referencing items the catalog
// does not carry.
var ErrUnknownItem = errors.New("unknown menu item")

// Catalog is the read-only view of the menu the order core is allowed
// to see. Menu management lives elsewhere; nothing here writes.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) List(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, name, description, price, category, image, is_popular
		FROM menu_items
		ORDER BY category ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query menu: %w: %v", domain.ErrUnavailable, err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price,
			&item.Category, &item.Image, &item.IsPopular)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w: %v", domain.ErrUnavailable, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (c *Catalog) GetByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := c.pool.QueryRow(ctx, `
		SELECT id, name, description, price, category, image, is_popular
		FROM menu_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Description, &item.Price,
		&item.Category, &item.Image, &item.IsPopular)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query menu item: %w: %v", domain.ErrUnavailable, err)
	}
	return &item, nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/storefront/internal/domain"
)

// CartRepository persists carts and their items.
type CartRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID int64, item domain.CartItem) error
}

type cartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a Postgres-backed implementation.
func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &cartRepository{pool: pool}
}

func (r *cartRepository) GetByID(ctx context.Context, id int64) (*domain.Cart, error) {
	const cartQuery = `SELECT id, user_id, updated_at FROM carts WHERE id=$1`

	var cart domain.Cart
	if err := r.pool.QueryRow(ctx, cartQuery, id).Scan(&cart.ID, &cart.UserID, &cart.UpdatedAt); err != nil {
		return nil, mapNoRows(err)
	}

	const itemsQuery = `
        SELECT product_id, quantity FROM cart_items
        WHERE cart_id=$1 ORDER BY product_id`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CartItem, error) {
		var item domain.CartItem
		err := row.Scan(&item.ProductID, &item.Quantity)
		return item, err
	})
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

// AddItem inserts the product or increases its quantity.
func (r *cartRepository) AddItem(ctx context.Context, cartID int64, item domain.CartItem) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE carts SET updated_at=NOW() WHERE id=$1`, cartID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}

		const upsert = `
            INSERT INTO cart_items (cart_id, product_id, quantity)
            VALUES ($1, $2, $3)
            ON CONFLICT (cart_id, product_id)
            DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
		_, err = tx.Exec(ctx, upsert, cartID, item.ProductID, item.Quantity)
		return err
	})
}

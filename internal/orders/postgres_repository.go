package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type dbQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores orders in Postgres. Line items live in a jsonb
// column; orders are read and written whole.
type PostgresRepository struct {
	db dbQuerier
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("orders: pgx pool is required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db dbQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, order *Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("orders: marshal line items: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO orders (id, customer_id, name, address, phone, payment_method, items, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		order.ID, order.CustomerID, order.Name, order.Address, order.Phone,
		order.PaymentMethod, items, order.Total, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("orders: insert order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, order *Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("orders: marshal line items: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET name = $2, address = $3, phone = $4, payment_method = $5, items = $6, total = $7, updated_at = $8
		WHERE id = $1`,
		order.ID, order.Name, order.Address, order.Phone,
		order.PaymentMethod, items, order.Total, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("orders: update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *PostgresRepository) FindRecentByCustomer(ctx context.Context, customerID string, since time.Time) (*Order, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, customer_id, name, address, phone, payment_method, items, total, created_at, updated_at
		FROM orders
		WHERE customer_id = $1 AND updated_at >= $2
		ORDER BY updated_at DESC
		LIMIT 1`,
		customerID, since)
	return scanOrder(row)
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, customer_id, name, address, phone, payment_method, items, total, created_at, updated_at
		FROM orders
		WHERE id = $1`,
		id)
	return scanOrder(row)
}

func (r *PostgresRepository) List(ctx context.Context) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, customer_id, name, address, phone, payment_method, items, total, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("orders: list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders: list orders: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("orders: delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		order Order
		items []byte
	)
	err := row.Scan(&order.ID, &order.CustomerID, &order.Name, &order.Address,
		&order.Phone, &order.PaymentMethod, &items, &order.Total,
		&order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("orders: scan order: %w", err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, fmt.Errorf("orders: decode line items: %w", err)
		}
	}
	return &order, nil
}

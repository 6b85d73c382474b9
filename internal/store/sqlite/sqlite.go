// Package sqlite caches parsed orders so repeated boots skip CSV parsing.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"superstore-map/internal/models"
)

const dateFormat = "2006-01-02"

type Cache struct {
	db *sql.DB
}

func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	cache := &Cache{db: db}
	if err := cache.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return cache, nil
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Count reports how many cached orders are available.
func (c *Cache) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}

// SaveOrders replaces the cached order set wholesale.
func (c *Cache) SaveOrders(ctx context.Context, orders []models.Order) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders (
			order_id, order_date, ship_date, ship_mode, segment, city, country,
			market, product_name, category, sub_category, sales, quantity,
			discount, profit, shipping_cost, order_priority
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range orders {
		order := &orders[i]
		var shipDate any
		if !order.ShipDate.IsZero() {
			shipDate = order.ShipDate.Format(dateFormat)
		}
		_, err = stmt.ExecContext(ctx,
			order.OrderID,
			order.OrderDate.Format(dateFormat),
			shipDate,
			order.ShipMode,
			order.Segment,
			order.City,
			order.Country,
			order.Market,
			order.ProductName,
			order.Category,
			order.SubCategory,
			order.Sales,
			order.Quantity,
			order.Discount,
			order.Profit,
			order.ShippingCost,
			order.OrderPriority,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadOrders reads the cached order set back in insertion order.
func (c *Cache) LoadOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT order_id, order_date, ship_date, ship_mode, segment, city,
			country, market, product_name, category, sub_category, sales,
			quantity, discount, profit, shipping_cost, order_priority
		FROM orders ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		var orderDate string
		var shipDate sql.NullString
		if err := rows.Scan(
			&order.OrderID,
			&orderDate,
			&shipDate,
			&order.ShipMode,
			&order.Segment,
			&order.City,
			&order.Country,
			&order.Market,
			&order.ProductName,
			&order.Category,
			&order.SubCategory,
			&order.Sales,
			&order.Quantity,
			&order.Discount,
			&order.Profit,
			&order.ShippingCost,
			&order.OrderPriority,
		); err != nil {
			return nil, err
		}

		order.OrderDate, err = time.Parse(dateFormat, orderDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt cached order date %q: %w", orderDate, err)
		}
		if shipDate.Valid {
			order.ShipDate, _ = time.Parse(dateFormat, shipDate.String)
		}

		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (c *Cache) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT NOT NULL,
			order_date TEXT NOT NULL,
			ship_date TEXT,
			ship_mode TEXT NOT NULL,
			segment TEXT NOT NULL,
			city TEXT NOT NULL,
			country TEXT NOT NULL,
			market TEXT NOT NULL,
			product_name TEXT NOT NULL,
			category TEXT NOT NULL,
			sub_category TEXT NOT NULL,
			sales REAL NOT NULL,
			quantity INTEGER NOT NULL,
			discount REAL NOT NULL,
			profit REAL NOT NULL,
			shipping_cost REAL NOT NULL,
			order_priority TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date);`,
	}

	for _, statement := range statements {
		if _, err := c.db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}

// Package sqlite provides the SQLite-backed order store for the
// submission path.
//
// WAL mode is enabled on Open so that readers never block writers —
// the submission handler writes while monitor traffic may be reading.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/storefront/ordermonitor/internal/gateway/core/domain/entity"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps Docker (Alpine) builds simple.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    -- Server-generated order id (UUID). Orders are immutable once written.
    id          TEXT PRIMARY KEY,

    user_id     TEXT NOT NULL,
    user_name   TEXT NOT NULL,

    -- JSON array of {productId, quantity}. Positions have no lifecycle
    -- of their own, so a denormalized column beats a child table here.
    positions   TEXT NOT NULL,

    -- RFC3339 stored as TEXT, SQLite idiom.
    created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
`

// Repository is the SQLite implementation of ports.OrderStore.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Repository, error) {
	// _pragma query parameters configure connection state for the
	// pure-Go driver. busy_timeout waits for locks instead of failing.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

// Add inserts a new order. Safe for concurrent use.
func (r *Repository) Add(ctx context.Context, order entity.Order) error {
	positions, err := json.Marshal(order.Positions)
	if err != nil {
		return fmt.Errorf("sqlite: marshal positions for %q: %w", order.ID, err)
	}

	const q = `
		INSERT INTO orders (id, user_id, user_name, positions, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, q,
		order.ID,
		order.UserID,
		order.UserName,
		string(positions),
		order.CreatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: add order %q: %w", order.ID, err)
	}
	return nil
}

// List returns all orders in insertion order.
func (r *Repository) List(ctx context.Context) ([]entity.Order, error) {
	const q = `
		SELECT id, user_id, user_name, positions, created_at
		FROM   orders
		ORDER  BY created_at, id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	defer rows.Close()

	var out []entity.Order
	for rows.Next() {
		var o entity.Order
		var positions, createdAt string
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserName, &positions, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan order: %w", err)
		}
		if err := json.Unmarshal([]byte(positions), &o.Positions); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal positions for %q: %w", o.ID, err)
		}
		// created_at is RFC3339 TEXT; SQLite has no datetime type.
		o.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: decode created_at for %q: %w", o.ID, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate orders: %w", err)
	}
	return out, nil
}

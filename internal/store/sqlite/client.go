package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"worldgraph/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Index = (*Client)(nil)

// Client is an in-memory sqlite index. Nothing is ever written to disk.
type Client struct {
	db *sql.DB
}

func New(ctx context.Context) (*Client, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragma: %w", err)
	}

	c := &Client{db: db}
	if err := c.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}

// Package postgres implements the deployment-link store against PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xcaliber/xcaliber-bot/links"
)

const (
	createTableQuery = `CREATE TABLE IF NOT EXISTS pr_links (
	pr_number INT NOT NULL,
	project TEXT NOT NULL,
	url TEXT NOT NULL,
	PRIMARY KEY (pr_number, project)
)`
	deleteLinksQuery = `DELETE FROM pr_links WHERE pr_number=$1`
	insertLinkQuery  = `INSERT INTO pr_links(pr_number, project, url) VALUES ($1,$2,$3)`
	selectLinksQuery = `SELECT project, url FROM pr_links WHERE pr_number=$1`
)

// Store persists deployment-link sets in a pgx pool.
type Store struct {
	db *pgxpool.Pool
}

var _ links.Store = new(Store)

// New connects a pool to the given DSN and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pool: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableQuery); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: pool}, nil
}

// Close releases the pool connections.
func (s *Store) Close() {
	s.db.Close()
}

// Save replaces the recorded link set for the PR within a transaction.
func (s *Store) Save(ctx context.Context, number int, urls links.Set) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, deleteLinksQuery, number); err != nil {
		return fmt.Errorf("delete links: %w", err)
	}

	for project, url := range urls {
		if _, err := tx.Exec(ctx, insertLinkQuery, number, project, url); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Load returns the recorded link set, or links.ErrNotFound when empty.
func (s *Store) Load(ctx context.Context, number int) (links.Set, error) {
	rows, err := s.db.Query(ctx, selectLinksQuery, number)
	if err != nil {
		return nil, fmt.Errorf("select links: %w", err)
	}
	defer rows.Close()

	urls := make(links.Set)
	for rows.Next() {
		var project, url string
		if err := rows.Scan(&project, &url); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}

		urls[project] = url
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(urls) == 0 {
		return nil, links.ErrNotFound
	}

	return urls, nil
}

// Package postgres implements service.NodeRepo using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/manta/service"
)

const nodeColumns = `id, path, parent, name, type, content_type, etag, content_md5, size_bytes, metadata, created_at, updated_at`

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

var _ service.NodeRepo = (*Repo)(nil)

func NewRepo(pool *pgxpool.Pool, tables service.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: pgx.Identifier{tables.Nodes}.Sanitize()}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanNode(row pgx.Row) (service.Node, error) {
	var n service.Node
	err := row.Scan(
		&n.ID, &n.Path, &n.Parent, &n.Name, &n.Type, &n.ContentType,
		&n.ETag, &n.ContentMD5, &n.Size, &n.Metadata, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return service.Node{}, err
	}
	if len(n.Metadata) == 0 {
		n.Metadata = nil
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, nil
}

func (r *Repo) Get(ctx context.Context, path string) (service.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE path = $1`, nodeColumns, r.tableName)

	n, err := scanNode(r.pool.QueryRow(ctx, query, path))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Node{}, service.ErrNotFound
		}
		return service.Node{}, fmt.Errorf("get: %w", err)
	}

	return n, nil
}

func (r *Repo) Upsert(ctx context.Context, entry service.NodeEntry) (service.Node, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (path, parent, name, type, content_type, etag, content_md5, size_bytes, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (path) DO UPDATE
		SET type = EXCLUDED.type,
			content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			content_md5 = EXCLUDED.content_md5,
			size_bytes = EXCLUDED.size_bytes,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING %s, (xmax = 0) AS inserted
	`, r.tableName, nodeColumns)

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	parent, name := service.SplitPath(entry.Path)

	var n service.Node
	var inserted bool

	err := r.pool.QueryRow(ctx, query,
		entry.Path, parent, name, entry.Type, entry.ContentType,
		entry.ETag, entry.ContentMD5, entry.Size, metadata,
	).Scan(
		&n.ID, &n.Path, &n.Parent, &n.Name, &n.Type, &n.ContentType,
		&n.ETag, &n.ContentMD5, &n.Size, &n.Metadata, &n.CreatedAt, &n.UpdatedAt, &inserted,
	)
	if err != nil {
		return service.Node{}, false, fmt.Errorf("upsert: %w", err)
	}
	if len(n.Metadata) == 0 {
		n.Metadata = nil
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()

	return n, inserted, nil
}

func (r *Repo) Delete(ctx context.Context, path string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE path = $1`, r.tableName)

	result, err := r.pool.Exec(ctx, query, path)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", service.ErrNotFound)
	}

	return nil
}

func (r *Repo) List(ctx context.Context, q service.ListQuery) ([]service.Node, error) {
	// A NULL limit means no limit.
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE parent = $1 AND name COLLATE "C" > $2
		ORDER BY name COLLATE "C"
		LIMIT $3
	`, nodeColumns, r.tableName)

	rows, err := r.pool.Query(ctx, query, q.Parent, q.Marker, limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	nodes := []service.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return nodes, nil
}

func (r *Repo) CountChildren(ctx context.Context, parent string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE parent = $1`, r.tableName)

	var count int
	if err := r.pool.QueryRow(ctx, query, parent).Scan(&count); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return count, nil
}

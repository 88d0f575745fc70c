// Package sqlite implements service.NodeRepo using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/manta/service"
)

const nodeColumns = `id, path, parent, name, type, content_type, etag, content_md5, size_bytes, metadata, created_at, updated_at`

type Repo struct {
	db        *sql.DB
	tableName string
}

var _ service.NodeRepo = (*Repo)(nil)

func NewRepo(db *sql.DB, tables service.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tableName: quoteIdentifier(tables.Nodes)}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (service.Node, error) {
	var n service.Node
	var idStr, metadata, createdAt, updatedAt string

	err := row.Scan(
		&idStr, &n.Path, &n.Parent, &n.Name, &n.Type, &n.ContentType,
		&n.ETag, &n.ContentMD5, &n.Size, &metadata, &createdAt, &updatedAt,
	)
	if err != nil {
		return service.Node{}, err
	}

	if n.ID, err = uuid.Parse(idStr); err != nil {
		return service.Node{}, fmt.Errorf("parse uuid: %w", err)
	}

	if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return service.Node{}, fmt.Errorf("parse created_at: %w", err)
	}

	if n.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return service.Node{}, fmt.Errorf("parse updated_at: %w", err)
	}

	if n.Metadata, err = decodeMetadata(metadata); err != nil {
		return service.Node{}, err
	}

	return n, nil
}

func (r *Repo) Get(ctx context.Context, path string) (service.Node, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE path = ?`, nodeColumns, r.tableName)

	n, err := scanNode(r.db.QueryRowContext(ctx, query, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return service.Node{}, service.ErrNotFound
		}
		return service.Node{}, fmt.Errorf("get: %w", err)
	}

	return n, nil
}

func (r *Repo) Upsert(ctx context.Context, entry service.NodeEntry) (service.Node, bool, error) {
	metadata, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return service.Node{}, false, fmt.Errorf("upsert: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return service.Node{}, false, fmt.Errorf("upsert: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Check if entry exists first to determine if this is an insert or update
	var existingID, createdAt string
	checkQuery := fmt.Sprintf(`SELECT id, created_at FROM %s WHERE path = ?`, r.tableName) //nolint:gosec // table name is validated
	err = tx.QueryRowContext(ctx, checkQuery, entry.Path).Scan(&existingID, &createdAt)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return service.Node{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	parent, name := service.SplitPath(entry.Path)

	if isInsert {
		existingID = uuid.NewString()
		createdAt = now
		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName, nodeColumns)

		_, err = tx.ExecContext(ctx, insertQuery,
			existingID, entry.Path, parent, name, entry.Type, entry.ContentType,
			entry.ETag, entry.ContentMD5, entry.Size, metadata, now, now,
		)
		if err != nil {
			return service.Node{}, false, fmt.Errorf("upsert: insert: %w", err)
		}
	} else {
		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET type = ?, content_type = ?, etag = ?, content_md5 = ?, size_bytes = ?, metadata = ?, updated_at = ?
			WHERE path = ?`, r.tableName)

		_, err = tx.ExecContext(ctx, updateQuery,
			entry.Type, entry.ContentType, entry.ETag, entry.ContentMD5, entry.Size, metadata, now, entry.Path,
		)
		if err != nil {
			return service.Node{}, false, fmt.Errorf("upsert: update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return service.Node{}, false, fmt.Errorf("upsert: commit: %w", err)
	}

	n := service.Node{
		Path:        entry.Path,
		Parent:      parent,
		Name:        name,
		Type:        entry.Type,
		ContentType: entry.ContentType,
		ETag:        entry.ETag,
		ContentMD5:  entry.ContentMD5,
		Size:        entry.Size,
		Metadata:    entry.Metadata,
	}
	n.ID, _ = uuid.Parse(existingID)
	n.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	n.UpdatedAt, _ = time.Parse(time.RFC3339Nano, now)

	return n, isInsert, nil
}

func (r *Repo) Delete(ctx context.Context, path string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE path = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	result, err := r.db.ExecContext(ctx, query, path)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete: %w", service.ErrNotFound)
	}

	return nil
}

func (r *Repo) List(ctx context.Context, q service.ListQuery) ([]service.Node, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s
		WHERE parent = ? AND name > ?
		ORDER BY name
		LIMIT ?`, nodeColumns, r.tableName)

	rows, err := r.db.QueryContext(ctx, query, q.Parent, q.Marker, limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE parent = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	var count int
	if err := r.db.QueryRowContext(ctx, query, parent).Scan(&count); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return count, nil
}

func encodeMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

func decodeMetadata(s string) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

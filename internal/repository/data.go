package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/alphabase/internal/models"
)

// PostgresDataRepository stores the JSON data items, keyed by collection and
// key.
type PostgresDataRepository struct {
	DB *sql.DB
}

// NewPostgresDataRepository creates a PostgresDataRepository on db.
func NewPostgresDataRepository(db *sql.DB) *PostgresDataRepository {
	return &PostgresDataRepository{DB: db}
}

// ListCollections returns the distinct collection names, sorted.
func (r *PostgresDataRepository) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT collection FROM data_items ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("ListCollections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCollections: %w", err)
	}
	return names, nil
}

// GetItem returns one item or ErrItemNotFound.
func (r *PostgresDataRepository) GetItem(ctx context.Context, collection, key string) (models.StoredItem, error) {
	var (
		item  models.StoredItem
		value []byte
		owner sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT collection, key, value, owner_login, created_at, updated_at
		FROM data_items WHERE collection = $1 AND key = $2
	`, collection, key).Scan(&item.Collection, &item.Key, &value, &owner, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredItem{}, ErrItemNotFound
	}
	if err != nil {
		return models.StoredItem{}, fmt.Errorf("GetItem: %w", err)
	}
	item.Value = value
	item.Owner = owner.String
	return item, nil
}

// PutItem creates or replaces an item. The writer becomes its owner. value
// is sent as text since pq encodes []byte as bytea.
func (r *PostgresDataRepository) PutItem(ctx context.Context, collection, key string, value []byte, owner string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO data_items (collection, key, value, owner_login)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, key) DO UPDATE SET
			value = EXCLUDED.value,
			owner_login = EXCLUDED.owner_login,
			updated_at = now()
	`, collection, key, string(value), owner)
	if err != nil {
		return fmt.Errorf("PutItem: %w", err)
	}
	return nil
}

// ListItems returns every item of collection ordered by key.
func (r *PostgresDataRepository) ListItems(ctx context.Context, collection string) ([]models.StoredItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT key, value, owner_login, created_at, updated_at
		FROM data_items WHERE collection = $1
		ORDER BY key
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	defer rows.Close()

	var items []models.StoredItem
	for rows.Next() {
		var (
			value []byte
			owner sql.NullString
		)
		item := models.StoredItem{Collection: collection}
		if err := rows.Scan(&item.Key, &value, &owner, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		item.Value = value
		item.Owner = owner.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	return items, nil
}

// DeleteItem removes one item or returns ErrItemNotFound.
func (r *PostgresDataRepository) DeleteItem(ctx context.Context, collection, key string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM data_items WHERE collection = $1 AND key = $2`, collection, key)
	if err != nil {
		return fmt.Errorf("DeleteItem: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteItem: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/inventar/internal/model"
)

// Registry is the authoritative collection of items.
//
// It expects a database from db.Open, whose pool holds a single connection, so
// all reads and writes are mutually exclusive.
type Registry struct {
	db *sql.DB
}

// NewRegistry returns a registry backed by db.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// NewItem holds the fields for Create. Photo is an optional blob reference that
// must already be stored.
type NewItem struct {
	Name        string
	Description string
	Photo       string
}

// ItemUpdate holds the fields for Update. Empty fields are left untouched.
type ItemUpdate struct {
	Name        string
	Description string
}

const itemColumns = `id, name, description, photo`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var photo sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &photo); err != nil {
		return nil, err
	}
	if photo.Valid {
		item.Photo = &photo.String
	}
	return item, nil
}

// Create registers a new item and returns it with its assigned id.
func (r *Registry) Create(ctx context.Context, in NewItem) (*model.Item, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	var photo sql.NullString
	if in.Photo != "" {
		photo = sql.NullString{String: in.Photo, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO items (name, description, photo) VALUES (?, ?, ?)`,
		in.Name, in.Description, photo,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	item := &model.Item{ID: id, Name: in.Name, Description: in.Description}
	if photo.Valid {
		item.Photo = &photo.String
	}
	return item, nil
}

// List returns all items in insertion order.
func (r *Registry) List(ctx context.Context) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Get returns an item by id.
func (r *Registry) Get(ctx context.Context, id int64) (*model.Item, error) {
	return getItem(ctx, r.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getItem(ctx context.Context, q querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// Update overwrites the non-empty fields of upd and returns the resulting item.
func (r *Registry) Update(ctx context.Context, id int64, upd ItemUpdate) (*model.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE items
		 SET name = COALESCE(NULLIF(?, ''), name),
		     description = COALESCE(NULLIF(?, ''), description)
		 WHERE id = ?`,
		upd.Name, upd.Description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	item, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update: %w", err)
	}
	return item, nil
}

// SetPhoto replaces the item's photo reference, last write wins. It returns
// the updated item and the reference it replaced ("" if there was none) so
// the caller can release the old blob.
func (r *Registry) SetPhoto(ctx context.Context, id int64, ref string) (*model.Item, string, error) {
	if ref == "" {
		return nil, "", fmt.Errorf("%w: photo reference is required", ErrValidation)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, "", err
	}

	var previous string
	if item.Photo != nil {
		previous = *item.Photo
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET photo = ? WHERE id = ?`, ref, id,
	); err != nil {
		return nil, "", fmt.Errorf("setting item photo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("committing photo: %w", err)
	}

	item.Photo = &ref
	return item, previous, nil
}

// GetPhotoRef returns the item's photo reference.
func (r *Registry) GetPhotoRef(ctx context.Context, id int64) (string, error) {
	item, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !item.HasPhoto() {
		return "", ErrNoPhoto
	}
	return *item.Photo, nil
}

// Delete removes an item and returns it as it was. The photo blob, if any, is
// left for the caller to release.
func (r *Registry) Delete(ctx context.Context, id int64) (*model.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing delete: %w", err)
	}
	return item, nil
}

// Count returns the number of items in the collection.
func (r *Registry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

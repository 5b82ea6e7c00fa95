package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines persistence operations for account links.
type Repository interface {
	Create(ctx context.Context, link *Link) error
	Get(ctx context.Context, id string) (*Link, error)
	ListByOwner(ctx context.Context, owner string) ([]Link, error)
	Update(ctx context.Context, link *Link) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed link repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectLinks = `SELECT id, owner, type, auth_code, access_token, expires, refresh_token, created_at, updated_at
	FROM account_links`

// Create inserts a new link.
func (r *SQLiteRepository) Create(ctx context.Context, link *Link) error {
	now := time.Now().UTC().Truncate(time.Second)
	link.CreatedAt = now
	link.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_links (id, owner, type, auth_code, access_token, expires, refresh_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID, link.Owner, link.Type, link.AuthCode, link.AccessToken,
		nullTime(link.Expires), link.RefreshToken,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating account link: %w", err)
	}
	return nil
}

// Get retrieves a link by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Link, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx, selectLinks+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting account link: %w", err)
	}
	return link, nil
}

// ListByOwner returns the links of one building, oldest first.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string) ([]Link, error) {
	rows, err := r.db.QueryContext(ctx, selectLinks+" WHERE owner = ? ORDER BY created_at, id", owner)
	if err != nil {
		return nil, fmt.Errorf("listing account links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account link: %w", err)
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

// Update writes the flow and token fields of a link. Owner and type are
// fixed at creation.
func (r *SQLiteRepository) Update(ctx context.Context, link *Link) error {
	link.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		`UPDATE account_links
		 SET auth_code = ?, access_token = ?, expires = ?, refresh_token = ?, updated_at = ?
		 WHERE id = ?`,
		link.AuthCode, link.AccessToken, nullTime(link.Expires), link.RefreshToken,
		link.UpdatedAt.Format(time.RFC3339), link.ID,
	)
	if err != nil {
		return fmt.Errorf("updating account link: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrLinkNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*Link, error) {
	var link Link
	var expires sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&link.ID, &link.Owner, &link.Type, &link.AuthCode, &link.AccessToken,
		&expires, &link.RefreshToken, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if expires.Valid {
		if t, err := time.Parse(time.RFC3339, expires.String); err == nil {
			link.Expires = &t
		}
	}
	link.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	link.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &link, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

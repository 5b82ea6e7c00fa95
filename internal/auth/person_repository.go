package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PersonRepository defines the interface for person persistence.
type PersonRepository interface {
	Get(ctx context.Context, id string) (*Person, error)
	GetOrCreate(ctx context.Context, id, email string) (*Person, error)
	SetBuildings(ctx context.Context, id string, buildings []string) error
}

// SQLitePersonRepository implements PersonRepository using SQLite.
type SQLitePersonRepository struct {
	db *sql.DB
}

// NewPersonRepository creates a new SQLite-backed person repository.
func NewPersonRepository(db *sql.DB) *SQLitePersonRepository {
	return &SQLitePersonRepository{db: db}
}

// Get retrieves a person by ID.
func (r *SQLitePersonRepository) Get(ctx context.Context, id string) (*Person, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, buildings, created_at, updated_at FROM persons WHERE id = ?", id)
	return scanPerson(row)
}

// GetOrCreate returns the person with id, inserting them with a single
// building named after their id when they have not been seen before.
// An existing person's email and buildings are left unchanged.
func (r *SQLitePersonRepository) GetOrCreate(ctx context.Context, id, email string) (*Person, error) {
	buildings, err := json.Marshal([]string{id})
	if err != nil {
		return nil, fmt.Errorf("encoding buildings: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO persons (id, email, buildings, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		id, email, string(buildings), now, now,
	); err != nil {
		return nil, fmt.Errorf("creating person: %w", err)
	}
	return r.Get(ctx, id)
}

// SetBuildings replaces the buildings of a person.
func (r *SQLitePersonRepository) SetBuildings(ctx context.Context, id string, buildings []string) error {
	if buildings == nil {
		buildings = []string{}
	}
	encoded, err := json.Marshal(buildings)
	if err != nil {
		return fmt.Errorf("encoding buildings: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE persons SET buildings = ?, updated_at = ? WHERE id = ?",
		string(encoded), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating buildings: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrPersonNotFound
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (*Person, error) {
	var p Person
	var buildings, createdAt, updatedAt string

	if err := s.Scan(&p.ID, &p.Email, &buildings, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("scanning person: %w", err)
	}

	if err := json.Unmarshal([]byte(buildings), &p.Buildings); err != nil {
		return nil, fmt.Errorf("decoding buildings of %s: %w", p.ID, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &p, nil
}

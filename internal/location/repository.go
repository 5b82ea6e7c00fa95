package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Stainless-Nata/awesomation/internal/infrastructure/database"
)

// Repository defines the interface for room persistence operations.
type Repository interface {
	CreateRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, id string) (*Room, error)
	ListRooms(ctx context.Context, owner string) ([]Room, error)
	UpdateRoom(ctx context.Context, room *Room) error
	DeleteRoom(ctx context.Context, id string) error

	// AddDevice appends deviceID to the room's device set. Adding a member
	// that is already present leaves its position unchanged.
	AddDevice(ctx context.Context, roomID, deviceID string) error

	// RemoveDevice drops deviceID from the room's device set, if present.
	RemoveDevice(ctx context.Context, roomID, deviceID string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed room repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateRoom inserts a new room. Initial members are stored in order.
func (r *SQLiteRepository) CreateRoom(ctx context.Context, room *Room) error {
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	return database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `INSERT INTO rooms (id, owner, name, hue_group_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, query,
			room.ID, room.Owner, room.Name, nullStr(room.HueGroupID),
			now.Format(time.RFC3339), now.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("inserting room %s: %w", room.ID, err)
		}
		for _, deviceID := range room.DeviceIDs {
			if err := addDevice(ctx, tx, room.ID, deviceID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRoom returns a room with its members in order.
func (r *SQLiteRepository) GetRoom(ctx context.Context, id string) (*Room, error) {
	const query = `SELECT id, owner, name, hue_group_id, created_at, updated_at
		FROM rooms WHERE id = ?`
	room, err := scanRoom(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("scanning room: %w", err)
	}
	if room.DeviceIDs, err = r.members(ctx, id); err != nil {
		return nil, err
	}
	return room, nil
}

// ListRooms returns the rooms of one building ordered by name.
func (r *SQLiteRepository) ListRooms(ctx context.Context, owner string) ([]Room, error) {
	const query = `SELECT id, owner, name, hue_group_id, created_at, updated_at
		FROM rooms WHERE owner = ? ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}

	for i := range rooms {
		if rooms[i].DeviceIDs, err = r.members(ctx, rooms[i].ID); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

// UpdateRoom updates name and Hue group. Membership changes go through
// AddDevice and RemoveDevice.
func (r *SQLiteRepository) UpdateRoom(ctx context.Context, room *Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET name = ?, hue_group_id = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		room.Name, nullStr(room.HueGroupID), room.UpdatedAt.Format(time.RFC3339), room.ID)
	if err != nil {
		return fmt.Errorf("updating room %s: %w", room.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom removes a single room by ID.
// Returns ErrRoomNotFound if the room does not exist.
func (r *SQLiteRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting room %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// AddDevice appends deviceID to the room's device set.
func (r *SQLiteRepository) AddDevice(ctx context.Context, roomID, deviceID string) error {
	return database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := requireRoom(ctx, tx, roomID); err != nil {
			return err
		}
		if err := addDevice(ctx, tx, roomID, deviceID); err != nil {
			return err
		}
		return touch(ctx, tx, roomID)
	})
}

// RemoveDevice drops deviceID from the room's device set.
func (r *SQLiteRepository) RemoveDevice(ctx context.Context, roomID, deviceID string) error {
	return database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := requireRoom(ctx, tx, roomID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM room_devices WHERE room_id = ? AND device_id = ?", roomID, deviceID); err != nil {
			return fmt.Errorf("removing device %s from room %s: %w", deviceID, roomID, err)
		}
		return touch(ctx, tx, roomID)
	})
}

func (r *SQLiteRepository) members(ctx context.Context, roomID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT device_id FROM room_devices WHERE room_id = ? ORDER BY position", roomID)
	if err != nil {
		return nil, fmt.Errorf("querying room devices: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning room device: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func requireRoom(ctx context.Context, tx *sql.Tx, roomID string) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM rooms WHERE id = ?", roomID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("checking room %s: %w", roomID, err)
	}
	return nil
}

func addDevice(ctx context.Context, tx *sql.Tx, roomID, deviceID string) error {
	const query = `INSERT INTO room_devices (room_id, device_id, position)
		SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM room_devices WHERE room_id = ?
		ON CONFLICT (room_id, device_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, roomID, deviceID, roomID); err != nil {
		return fmt.Errorf("adding device %s to room %s: %w", deviceID, roomID, err)
	}
	return nil
}

func touch(ctx context.Context, tx *sql.Tx, roomID string) error {
	_, err := tx.ExecContext(ctx, "UPDATE rooms SET updated_at = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), roomID)
	if err != nil {
		return fmt.Errorf("touching room %s: %w", roomID, err)
	}
	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*Room, error) {
	var rm Room
	var hueGroupID sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&rm.ID, &rm.Owner, &rm.Name, &hueGroupID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if hueGroupID.Valid {
		rm.HueGroupID = &hueGroupID.String
	}
	rm.CreatedAt = parseTime(createdAt)
	rm.UpdatedAt = parseTime(updatedAt)
	return &rm, nil
}

func nullStr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

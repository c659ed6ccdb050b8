// package repositories provides the SQLite persistence behind the client's local state.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ssx/internal/session"
	"github.com/desertthunder/ssx/internal/shared"
)

// LocalStorageRepository is a string key/value store over the local_storage table.
//
// It mirrors the browser localStorage API so the snapshot mirror can persist
// JSON blobs under fixed keys.
type LocalStorageRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewLocalStorageRepository creates a new [LocalStorageRepository] with the given database connection
func NewLocalStorageRepository(db *sql.DB) *LocalStorageRepository {
	return &LocalStorageRepository{db: db, now: time.Now}
}

// GetItem returns the stored value and whether the key exists.
func (r *LocalStorageRepository) GetItem(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM local_storage WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query local storage item %s: %w", key, err)
	}
	return value, true, nil
}

// SetItem inserts or replaces the value stored under key.
func (r *LocalStorageRepository) SetItem(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty local storage key", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to set local storage item %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (r *LocalStorageRepository) RemoveItem(key string) error {
	if _, err := r.db.Exec("DELETE FROM local_storage WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to remove local storage item %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys in alphabetical order.
func (r *LocalStorageRepository) Keys() ([]string, error) {
	rows, err := r.db.Query("SELECT key FROM local_storage ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list local storage keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan local storage key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Clear removes every item.
func (r *LocalStorageRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM local_storage"); err != nil {
		return fmt.Errorf("failed to clear local storage: %w", err)
	}
	return nil
}

// CookieRepository implements [session.CookieStore] over the cookies table.
type CookieRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ session.CookieStore = (*CookieRepository)(nil)

// NewCookieRepository creates a new [CookieRepository] with the given database connection
func NewCookieRepository(db *sql.DB) *CookieRepository {
	return &CookieRepository{db: db, now: time.Now}
}

// Get retrieves a cookie by name; (nil, nil) when absent.
func (r *CookieRepository) Get(name string) (*session.Cookie, error) {
	var (
		value     string
		expiresAt sql.NullTime
	)

	err := r.db.QueryRow("SELECT value, expires_at FROM cookies WHERE name = ?", name).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cookie %s: %w", name, err)
	}

	c := &session.Cookie{Name: name, Value: value}
	if expiresAt.Valid {
		c.ExpiresAt = expiresAt.Time
	}
	return c, nil
}

// Put inserts the cookie or replaces the value and expiry of an existing one.
func (r *CookieRepository) Put(c session.Cookie) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty cookie name", shared.ErrInvalidInput)
	}

	var expires any
	if !c.ExpiresAt.IsZero() {
		expires = c.ExpiresAt.UTC()
	}

	query := `
		INSERT INTO cookies (id, name, value, expires_at, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`
	if _, err := r.db.Exec(query, shared.GenerateID(), c.Name, c.Value, expires, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to store cookie %s: %w", c.Name, err)
	}
	return nil
}

// Delete removes a cookie by name.
func (r *CookieRepository) Delete(name string) error {
	if _, err := r.db.Exec("DELETE FROM cookies WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete cookie %s: %w", name, err)
	}
	return nil
}

// All returns every stored cookie, expired ones included.
func (r *CookieRepository) All() ([]session.Cookie, error) {
	rows, err := r.db.Query("SELECT name, value, expires_at FROM cookies ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}
	defer rows.Close()

	var cookies []session.Cookie
	for rows.Next() {
		var (
			c         session.Cookie
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&c.Name, &c.Value, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		if expiresAt.Valid {
			c.ExpiresAt = expiresAt.Time
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// PurgeExpired deletes cookies whose expiry has passed and returns how many were removed.
func (r *CookieRepository) PurgeExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM cookies WHERE expires_at IS NOT NULL AND expires_at <= ?", r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired cookies: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

package persist

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// CustomCategory is a user-defined suggestion category.
type CustomCategory struct {
	ID        string
	Name      string
	Icon      string
	Prompt    string
	CreatedAt time.Time
}

// Store persists custom categories and user overrides of builtin
// templates using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new SQLite-backed store at the given path.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// init creates the necessary tables if they don't exist
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS custom_categories (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			icon        TEXT NOT NULL,
			prompt      TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS template_overrides (
			category    TEXT PRIMARY KEY,
			prompt      TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);
	`)
	return err
}

// SaveCustomCategory inserts or replaces a custom category.
func (s *Store) SaveCustomCategory(cat CustomCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cat.ID == "" {
		return errors.New("custom category id is required")
	}
	if cat.CreatedAt.IsZero() {
		cat.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO custom_categories (id, name, icon, prompt, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, icon=excluded.icon, prompt=excluded.prompt
	`, cat.ID, cat.Name, cat.Icon, cat.Prompt, cat.CreatedAt.Format(time.RFC3339))
	return err
}

// GetCustomCategory returns the custom category with the given id.
func (s *Store) GetCustomCategory(id string) (*CustomCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT id, name, icon, prompt, created_at FROM custom_categories WHERE id = ?`, id)
	return scanCustomCategory(row)
}

// ListCustomCategories returns all custom categories in creation order.
func (s *Store) ListCustomCategories() ([]CustomCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, name, icon, prompt, created_at FROM custom_categories ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []CustomCategory
	for rows.Next() {
		cat, err := scanCustomCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, *cat)
	}
	return cats, rows.Err()
}

// DeleteCustomCategory removes a custom category. Deleting an unknown
// id returns ErrNotFound.
func (s *Store) DeleteCustomCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`DELETE FROM custom_categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveTemplateOverride stores a user customization of a builtin
// category template.
func (s *Store) SaveTemplateOverride(category, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category == "" {
		return errors.New("category is required")
	}
	_, err := s.db.Exec(`
		INSERT INTO template_overrides (category, prompt, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET prompt=excluded.prompt, updated_at=excluded.updated_at
	`, category, prompt, time.Now().Format(time.RFC3339))
	return err
}

// GetTemplateOverride returns the override for a category, or
// ErrNotFound when none is stored.
func (s *Store) GetTemplateOverride(category string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prompt string
	err := s.db.QueryRow(`SELECT prompt FROM template_overrides WHERE category = ?`, category).Scan(&prompt)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return prompt, nil
}

// DeleteTemplateOverride resets a category back to its builtin
// template.
func (s *Store) DeleteTemplateOverride(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM template_overrides WHERE category = ?`, category)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomCategory(sc scanner) (*CustomCategory, error) {
	var cat CustomCategory
	var created string
	err := sc.Scan(&cat.ID, &cat.Name, &cat.Icon, &cat.Prompt, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		cat.CreatedAt = t
	}
	return &cat, nil
}

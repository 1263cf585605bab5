package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateCategory(projectID, name string) (*Category, error) {
	// FK on project_id rejects categories for projects that don't exist.
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO categories (id, project_id, name, created_at) VALUES (?, ?, ?, ?)`,
		id, projectID, name, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return s.GetCategory(id)
}

func (s *Store) GetCategory(id string) (*Category, error) {
	c := &Category{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, project_id, name, created_at FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.ProjectID, &c.Name, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return c, nil
}

func (s *Store) ListCategories(projectID string) ([]Category, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, name, created_at FROM categories WHERE project_id = ? ORDER BY name`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		var createdAt string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) UpdateCategory(id, name string) error {
	_, err := s.db.Exec(`UPDATE categories SET name = ? WHERE id = ?`, name, id)
	return err
}

// DeleteCategory removes the category and its sessions.
func (s *Store) DeleteCategory(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM timer_sessions WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("delete category sessions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return tx.Commit()
}

package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateProject(name, description, color string) (*Project, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, description, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, description, color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(id)
}

func (s *Store) GetProject(id string) (*Project, error) {
	p := &Project{}
	var createdAt, updatedAt string
	var archived int
	err := s.db.QueryRow(
		`SELECT id, name, description, color, archived, created_at, updated_at FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Color, &archived, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	p.Archived = archived == 1
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

func (s *Store) ListProjects(includeArchived bool) ([]Project, error) {
	query := `SELECT id, name, description, color, archived, created_at, updated_at FROM projects`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var createdAt, updatedAt string
		var archived int
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &archived, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.Archived = archived == 1
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(id, name, description, color string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE projects SET name = ?, description = ?, color = ?, updated_at = ? WHERE id = ?`,
		name, description, color, now, id,
	)
	return err
}

func (s *Store) ArchiveProject(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE projects SET archived = 1, updated_at = ? WHERE id = ?`, now, id,
	)
	return err
}

// DeleteProject removes the project together with its categories and all
// timer sessions referencing it, in one transaction. No orphaned rows remain.
func (s *Store) DeleteProject(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete project: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM timer_sessions WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project sessions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project categories: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return tx.Commit()
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSession persists a timer session. The caller is responsible for
// validation; the store only enforces referential integrity.
func (s *Store) CreateSession(sess TimerSession) (*TimerSession, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)

	var endTime any
	if sess.EndTime != nil {
		endTime = sess.EndTime.UTC().Format(time.RFC3339)
	}
	completed := 0
	if sess.Completed {
		completed = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO timer_sessions (id, project_id, category_id, type, planned_ms, actual_ms, start_time, end_time, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ProjectID, sess.CategoryID, sess.Type, sess.PlannedMs, sess.ActualMs,
		sess.StartTime.UTC().Format(time.RFC3339), endTime, completed, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s.GetSession(sess.ID)
}

func (s *Store) GetSession(id string) (*TimerSession, error) {
	row := s.db.QueryRow(
		`SELECT id, project_id, category_id, type, planned_ms, actual_ms, start_time, end_time, completed, created_at
		 FROM timer_sessions WHERE id = ?`, id,
	)
	sess, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (*TimerSession, error) {
	sess := &TimerSession{}
	var startTime, createdAt string
	var endTime sql.NullString
	var completed int

	err := r.Scan(&sess.ID, &sess.ProjectID, &sess.CategoryID, &sess.Type, &sess.PlannedMs,
		&sess.ActualMs, &startTime, &endTime, &completed, &createdAt)
	if err != nil {
		return nil, err
	}
	sess.Completed = completed == 1
	sess.StartTime, _ = time.Parse(time.RFC3339, startTime)
	if endTime.Valid {
		t, _ := time.Parse(time.RFC3339, endTime.String)
		sess.EndTime = &t
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return sess, nil
}

func (s *Store) ListSessions(f SessionFilter) ([]TimerSession, error) {
	query := `SELECT id, project_id, category_id, type, planned_ms, actual_ms, start_time, end_time, completed, created_at
	          FROM timer_sessions WHERE 1=1`
	var args []any

	if f.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *f.ProjectID)
	}
	if f.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if f.Type != nil {
		query += ` AND type = ?`
		args = append(args, *f.Type)
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY start_time DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []TimerSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// UpdateSessionDurations is the administrative edit path: planned/actual
// durations and the completed flag can be corrected after the fact.
func (s *Store) UpdateSessionDurations(id string, plannedMs, actualMs int64, completed bool) error {
	c := 0
	if completed {
		c = 1
	}
	_, err := s.db.Exec(
		`UPDATE timer_sessions SET planned_ms = ?, actual_ms = ?, completed = ? WHERE id = ?`,
		plannedMs, actualMs, c, id,
	)
	return err
}

func (s *Store) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM timer_sessions WHERE id = ?`, id)
	return err
}

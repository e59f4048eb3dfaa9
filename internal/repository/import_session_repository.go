package repository

import (
	"estate-admin/internal/models"
	"strings"

	"github.com/jmoiron/sqlx"
)

const importSessionColumns = `id, session_code, user_id, entity_kind, filename, format,
	total_records, imported, skipped, failed, status, message, created_at, updated_at, completed_at`

type ImportSessionRepository struct {
	db *sqlx.DB
}

func NewImportSessionRepository(db *sqlx.DB) *ImportSessionRepository {
	return &ImportSessionRepository{db: db}
}

func (r *ImportSessionRepository) CreateSession(session *models.ImportSession) error {
	query := `INSERT INTO import_sessions (session_code, user_id, entity_kind, filename, format,
	          total_records, status, message) VALUES (:session_code, :user_id, :entity_kind,
	          :filename, :format, :total_records, :status, :message)`
	result, err := r.db.NamedExec(query, session)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	session.ID = id
	return nil
}

// UpdateSession writes the outcome columns of an existing session.
func (r *ImportSessionRepository) UpdateSession(session *models.ImportSession) error {
	query := `UPDATE import_sessions SET filename = :filename, format = :format,
	          status = :status, message = :message, total_records = :total_records,
	          imported = :imported, skipped = :skipped, failed = :failed,
	          completed_at = :completed_at, updated_at = NOW()
	          WHERE session_code = :session_code`
	_, err := r.db.NamedExec(query, session)
	return err
}

func (r *ImportSessionRepository) GetSessionByCode(code string) (*models.ImportSession, error) {
	var session models.ImportSession
	query := "SELECT " + importSessionColumns + " FROM import_sessions WHERE session_code = ? LIMIT 1"
	if err := r.db.Get(&session, query, code); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns one page of history, newest first. Empty filters are ignored.
func (r *ImportSessionRepository) ListSessions(limit, offset int, entityKind, status string) ([]models.ImportSession, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if entityKind != "" {
		conditions = append(conditions, "entity_kind = ?")
		args = append(args, entityKind)
	}
	if status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, status)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.Get(&total, "SELECT COUNT(*) FROM import_sessions"+whereClause, args...); err != nil {
		return nil, 0, err
	}

	sessions := []models.ImportSession{}
	query := "SELECT " + importSessionColumns + " FROM import_sessions" + whereClause +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	if err := r.db.Select(&sessions, query, args...); err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

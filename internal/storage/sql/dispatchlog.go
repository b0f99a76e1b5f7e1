package sql

import (
	"time"

	"mailblast/backend/internal/domain"
)

// ========== DispatchLog Repository ==========

// AppendDispatchLog 追加一条投递记录
func (s *Store) AppendDispatchLog(entry *domain.DispatchLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(s.rebind(`
		INSERT INTO dispatch_logs (id, sender_email, recipient_email, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), entry.ID, entry.SenderEmail, entry.RecipientEmail, entry.Status, entry.ErrorMessage, entry.CreatedAt)
	return err
}

// ListDispatchLogs 按时间倒序返回最近 limit 条投递记录
func (s *Store) ListDispatchLogs(limit int) ([]domain.DispatchLog, error) {
	query := `SELECT id, sender_email, recipient_email, status, error_message, created_at
	          FROM dispatch_logs ORDER BY created_at DESC, id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DispatchLog, 0)
	for rows.Next() {
		var entry domain.DispatchLog
		if err := rows.Scan(&entry.ID, &entry.SenderEmail, &entry.RecipientEmail,
			&entry.Status, &entry.ErrorMessage, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ClearDispatchLogs 清空投递记录
func (s *Store) ClearDispatchLogs() error {
	_, err := s.db.Exec(`DELETE FROM dispatch_logs`)
	return err
}

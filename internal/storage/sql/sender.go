package sql

import (
	"database/sql"
	"errors"
	"time"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage"
)

// ========== Sender Repository ==========

// SaveSender 保存发信账号（存在则更新）
func (s *Store) SaveSender(sender *domain.Sender) error {
	now := time.Now().UTC()
	if sender.CreatedAt.IsZero() {
		sender.CreatedAt = now
	}
	sender.UpdatedAt = now

	res, err := s.db.Exec(s.rebind(`
		UPDATE senders
		SET email = ?, app_password = ?, host = ?, port = ?, secure = ?,
		    sent_count = ?, daily_limit = ?, batch_size = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`),
		sender.Email,
		sender.AppPassword,
		sender.Host,
		sender.Port,
		sender.Secure,
		sender.SentCount,
		sender.DailyLimit,
		sender.BatchSize,
		sender.IsActive,
		sender.UpdatedAt,
		sender.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.db.Exec(s.rebind(`
		INSERT INTO senders (id, email, app_password, host, port, secure, sent_count, daily_limit, batch_size, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		sender.ID,
		sender.Email,
		sender.AppPassword,
		sender.Host,
		sender.Port,
		sender.Secure,
		sender.SentCount,
		sender.DailyLimit,
		sender.BatchSize,
		sender.IsActive,
		sender.CreatedAt,
		sender.UpdatedAt,
	)
	return err
}

const senderColumns = `id, email, app_password, host, port, secure, sent_count, daily_limit, batch_size, is_active, created_at, updated_at`

func scanSender(row interface{ Scan(...any) error }) (*domain.Sender, error) {
	var sender domain.Sender
	err := row.Scan(
		&sender.ID,
		&sender.Email,
		&sender.AppPassword,
		&sender.Host,
		&sender.Port,
		&sender.Secure,
		&sender.SentCount,
		&sender.DailyLimit,
		&sender.BatchSize,
		&sender.IsActive,
		&sender.CreatedAt,
		&sender.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sender, nil
}

// GetSender 根据 ID 获取发信账号
func (s *Store) GetSender(id string) (*domain.Sender, error) {
	row := s.db.QueryRow(s.rebind(`SELECT `+senderColumns+` FROM senders WHERE id = ?`), id)
	sender, err := scanSender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSenderNotFound
	}
	return sender, err
}

// GetSenderByEmail 根据邮箱获取发信账号
func (s *Store) GetSenderByEmail(email string) (*domain.Sender, error) {
	row := s.db.QueryRow(s.rebind(`SELECT `+senderColumns+` FROM senders WHERE email = ?`), email)
	sender, err := scanSender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSenderNotFound
	}
	return sender, err
}

func (s *Store) listSenders(query string, args ...any) ([]domain.Sender, error) {
	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Sender, 0)
	for rows.Next() {
		sender, err := scanSender(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sender)
	}
	return out, rows.Err()
}

// ListSenders 返回全部发信账号，按创建时间升序
func (s *Store) ListSenders() ([]domain.Sender, error) {
	return s.listSenders(`SELECT ` + senderColumns + ` FROM senders ORDER BY created_at, id`)
}

// ListActiveSenders 返回所有启用的发信账号
func (s *Store) ListActiveSenders() ([]domain.Sender, error) {
	return s.listSenders(`SELECT `+senderColumns+` FROM senders WHERE is_active = ? ORDER BY created_at, id`, true)
}

// DeleteSender 删除发信账号
func (s *Store) DeleteSender(id string) error {
	res, err := s.db.Exec(s.rebind(`DELETE FROM senders WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrSenderNotFound
	}
	return nil
}

// ResetSenderCounts 将所有账号的已发送计数归零
func (s *Store) ResetSenderCounts() error {
	_, err := s.db.Exec(s.rebind(`UPDATE senders SET sent_count = 0, updated_at = ?`), time.Now().UTC())
	return err
}

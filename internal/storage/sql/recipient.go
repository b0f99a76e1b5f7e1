package sql

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage"
)

// ========== Recipient Repository ==========

// SaveRecipient 保存收件人（存在则更新）
func (s *Store) SaveRecipient(recipient *domain.Recipient) error {
	now := time.Now().UTC()
	if recipient.CreatedAt.IsZero() {
		recipient.CreatedAt = now
	}
	if recipient.Status == "" {
		recipient.Status = domain.RecipientStatusPending
	}
	recipient.UpdatedAt = now

	res, err := s.db.Exec(s.rebind(`
		UPDATE recipients SET email = ?, name = ?, status = ?, updated_at = ? WHERE id = ?
	`), recipient.Email, recipient.Name, recipient.Status, recipient.UpdatedAt, recipient.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.db.Exec(s.rebind(`
		INSERT INTO recipients (id, email, name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), recipient.ID, recipient.Email, recipient.Name, recipient.Status, recipient.CreatedAt, recipient.UpdatedAt)
	return err
}

// SaveRecipients 批量保存收件人（单事务插入）
func (s *Store) SaveRecipients(recipients []*domain.Recipient) error {
	if len(recipients) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.rebind(`
		INSERT INTO recipients (id, email, name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range recipients {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.Status == "" {
			r.Status = domain.RecipientStatusPending
		}
		r.UpdatedAt = now
		if _, err := stmt.Exec(r.ID, r.Email, r.Name, r.Status, r.CreatedAt, r.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const recipientColumns = `id, email, name, status, created_at, updated_at`

func scanRecipient(row interface{ Scan(...any) error }) (*domain.Recipient, error) {
	var r domain.Recipient
	err := row.Scan(&r.ID, &r.Email, &r.Name, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecipient 根据 ID 获取收件人
func (s *Store) GetRecipient(id string) (*domain.Recipient, error) {
	row := s.db.QueryRow(s.rebind(`SELECT `+recipientColumns+` FROM recipients WHERE id = ?`), id)
	recipient, err := scanRecipient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRecipientNotFound
	}
	return recipient, err
}

// ListRecipients 分页查询收件人
func (s *Store) ListRecipients(status *domain.RecipientStatus, page, pageSize int) ([]domain.Recipient, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}

	countQuery := `SELECT COUNT(*) FROM recipients`
	listQuery := `SELECT ` + recipientColumns + ` FROM recipients`
	args := make([]any, 0, 3)
	if status != nil {
		countQuery += ` WHERE status = ?`
		listQuery += ` WHERE status = ?`
		args = append(args, *status)
	}

	var total int
	if err := s.db.QueryRow(s.rebind(countQuery), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery += ` ORDER BY created_at, id LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(s.rebind(listQuery), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.Recipient, 0, pageSize)
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *recipient)
	}
	return out, total, rows.Err()
}

// ListRecipientsByStatus 按创建时间升序返回指定状态的全部收件人
func (s *Store) ListRecipientsByStatus(statuses ...domain.RecipientStatus) ([]domain.Recipient, error) {
	if len(statuses) == 0 {
		return []domain.Recipient{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = st
	}

	rows, err := s.db.Query(s.rebind(
		`SELECT `+recipientColumns+` FROM recipients WHERE status IN (`+placeholders+`) ORDER BY created_at, id`,
	), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Recipient, 0)
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *recipient)
	}
	return out, rows.Err()
}

// CountRecipientsByStatus 统计指定状态的收件人数量
func (s *Store) CountRecipientsByStatus(status domain.RecipientStatus) (int, error) {
	var count int
	err := s.db.QueryRow(s.rebind(`SELECT COUNT(*) FROM recipients WHERE status = ?`), status).Scan(&count)
	return count, err
}

// DeleteRecipient 删除收件人
func (s *Store) DeleteRecipient(id string) error {
	res, err := s.db.Exec(s.rebind(`DELETE FROM recipients WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrRecipientNotFound
	}
	return nil
}

// DeleteAllRecipients 清空收件人
func (s *Store) DeleteAllRecipients() error {
	_, err := s.db.Exec(`DELETE FROM recipients`)
	return err
}

// ResetRecipientStatuses 将所有收件人状态重置为 pending
func (s *Store) ResetRecipientStatuses() error {
	_, err := s.db.Exec(s.rebind(`UPDATE recipients SET status = ?, updated_at = ?`),
		domain.RecipientStatusPending, time.Now().UTC())
	return err
}

package sql

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage"
)

// ========== Template Repository ==========

// SaveTemplate 保存模板（存在则更新）
func (s *Store) SaveTemplate(template *domain.Template) error {
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	res, err := s.db.Exec(s.rebind(`
		UPDATE templates
		SET name = ?, subject = ?, html_body = ?, sent_count = ?, updated_at = ?
		WHERE id = ?
	`), template.Name, template.Subject, template.HTMLBody, template.SentCount, template.UpdatedAt, template.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.db.Exec(s.rebind(`
		INSERT INTO templates (id, name, subject, html_body, sent_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), template.ID, template.Name, template.Subject, template.HTMLBody, template.SentCount, template.CreatedAt, template.UpdatedAt)
	return err
}

const templateColumns = `id, name, subject, html_body, sent_count, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*domain.Template, error) {
	var t domain.Template
	err := row.Scan(&t.ID, &t.Name, &t.Subject, &t.HTMLBody, &t.SentCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTemplate 根据 ID 获取模板
func (s *Store) GetTemplate(id string) (*domain.Template, error) {
	row := s.db.QueryRow(s.rebind(`SELECT `+templateColumns+` FROM templates WHERE id = ?`), id)
	template, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrTemplateNotFound
	}
	return template, err
}

// ListTemplates 返回全部模板，按创建时间升序
func (s *Store) ListTemplates() ([]domain.Template, error) {
	rows, err := s.db.Query(`SELECT ` + templateColumns + ` FROM templates ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Template, 0)
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *template)
	}
	return out, rows.Err()
}

// ListTemplatesByIDs 返回指定 ID 集合中存在的模板
func (s *Store) ListTemplatesByIDs(ids []string) ([]domain.Template, error) {
	if len(ids) == 0 {
		return []domain.Template{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(s.rebind(
		`SELECT `+templateColumns+` FROM templates WHERE id IN (`+placeholders+`) ORDER BY created_at, id`,
	), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Template, 0, len(ids))
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *template)
	}
	return out, rows.Err()
}

// DeleteTemplate 删除模板
func (s *Store) DeleteTemplate(id string) error {
	res, err := s.db.Exec(s.rebind(`DELETE FROM templates WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrTemplateNotFound
	}
	return nil
}

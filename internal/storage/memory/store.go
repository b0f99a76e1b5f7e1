package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage"
)

// Store 使用内存保存发信账号、收件人、模板与投递历史，主要用于开发验证与测试。
type Store struct {
	mu            sync.RWMutex
	senders       map[string]*domain.Sender
	bySenderEmail map[string]string // email -> senderID
	recipients    map[string]*domain.Recipient
	templates     map[string]*domain.Template
	byTemplate    map[string]string // name -> templateID
	logs          []*domain.DispatchLog
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		senders:       make(map[string]*domain.Sender),
		bySenderEmail: make(map[string]string),
		recipients:    make(map[string]*domain.Recipient),
		templates:     make(map[string]*domain.Template),
		byTemplate:    make(map[string]string),
		logs:          make([]*domain.DispatchLog, 0),
	}
}

// ========== Sender Repository ==========

// SaveSender 保存发信账号（新增或更新）。
func (s *Store) SaveSender(sender *domain.Sender) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(sender.Email)
	if existingID, ok := s.bySenderEmail[email]; ok && existingID != sender.ID {
		return storage.ErrSenderExists
	}

	now := time.Now().UTC()
	if old, ok := s.senders[sender.ID]; ok {
		sender.CreatedAt = old.CreatedAt
		delete(s.bySenderEmail, strings.ToLower(old.Email))
	} else if sender.CreatedAt.IsZero() {
		sender.CreatedAt = now
	}
	sender.UpdatedAt = now

	cp := *sender
	s.senders[sender.ID] = &cp
	s.bySenderEmail[email] = sender.ID
	return nil
}

// GetSender 根据 ID 获取发信账号。
func (s *Store) GetSender(id string) (*domain.Sender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sender, ok := s.senders[id]
	if !ok {
		return nil, storage.ErrSenderNotFound
	}
	cp := *sender
	return &cp, nil
}

// GetSenderByEmail 根据邮箱获取发信账号。
func (s *Store) GetSenderByEmail(email string) (*domain.Sender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySenderEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrSenderNotFound
	}
	cp := *s.senders[id]
	return &cp, nil
}

// ListSenders 返回全部发信账号，按创建时间升序。
func (s *Store) ListSenders() ([]domain.Sender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Sender, 0, len(s.senders))
	for _, sender := range s.senders {
		out = append(out, *sender)
	}
	sortByCreatedAt(out, func(x domain.Sender) (time.Time, string) { return x.CreatedAt, x.ID })
	return out, nil
}

// ListActiveSenders 返回所有启用的发信账号。
func (s *Store) ListActiveSenders() ([]domain.Sender, error) {
	all, _ := s.ListSenders()
	out := make([]domain.Sender, 0, len(all))
	for _, sender := range all {
		if sender.IsActive {
			out = append(out, sender)
		}
	}
	return out, nil
}

// DeleteSender 删除发信账号。
func (s *Store) DeleteSender(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.senders[id]
	if !ok {
		return storage.ErrSenderNotFound
	}
	delete(s.bySenderEmail, strings.ToLower(sender.Email))
	delete(s.senders, id)
	return nil
}

// ResetSenderCounts 将所有账号的已发送计数归零。
func (s *Store) ResetSenderCounts() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, sender := range s.senders {
		sender.SentCount = 0
		sender.UpdatedAt = now
	}
	return nil
}

// ========== Recipient Repository ==========

// SaveRecipient 保存收件人（新增或更新）。
func (s *Store) SaveRecipient(recipient *domain.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveRecipientLocked(recipient)
	return nil
}

// SaveRecipients 批量保存收件人。
func (s *Store) SaveRecipients(recipients []*domain.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recipients {
		s.saveRecipientLocked(r)
	}
	return nil
}

func (s *Store) saveRecipientLocked(recipient *domain.Recipient) {
	now := time.Now().UTC()
	if old, ok := s.recipients[recipient.ID]; ok {
		recipient.CreatedAt = old.CreatedAt
	} else if recipient.CreatedAt.IsZero() {
		recipient.CreatedAt = now
	}
	recipient.UpdatedAt = now
	if recipient.Status == "" {
		recipient.Status = domain.RecipientStatusPending
	}
	cp := *recipient
	s.recipients[recipient.ID] = &cp
}

// GetRecipient 根据 ID 获取收件人。
func (s *Store) GetRecipient(id string) (*domain.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipient, ok := s.recipients[id]
	if !ok {
		return nil, storage.ErrRecipientNotFound
	}
	cp := *recipient
	return &cp, nil
}

// ListRecipients 分页查询收件人。
func (s *Store) ListRecipients(status *domain.RecipientStatus, page, pageSize int) ([]domain.Recipient, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Recipient, 0, len(s.recipients))
	for _, r := range s.recipients {
		if status != nil && r.Status != *status {
			continue
		}
		all = append(all, *r)
	}
	sortByCreatedAt(all, func(x domain.Recipient) (time.Time, string) { return x.CreatedAt, x.ID })

	total := len(all)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []domain.Recipient{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// ListRecipientsByStatus 按创建时间升序返回指定状态的全部收件人。
func (s *Store) ListRecipientsByStatus(statuses ...domain.RecipientStatus) ([]domain.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[domain.RecipientStatus]struct{}, len(statuses))
	for _, st := range statuses {
		want[st] = struct{}{}
	}

	out := make([]domain.Recipient, 0)
	for _, r := range s.recipients {
		if _, ok := want[r.Status]; ok {
			out = append(out, *r)
		}
	}
	sortByCreatedAt(out, func(x domain.Recipient) (time.Time, string) { return x.CreatedAt, x.ID })
	return out, nil
}

// CountRecipientsByStatus 统计指定状态的收件人数量。
func (s *Store) CountRecipientsByStatus(status domain.RecipientStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.recipients {
		if r.Status == status {
			count++
		}
	}
	return count, nil
}

// DeleteRecipient 删除收件人。
func (s *Store) DeleteRecipient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipients[id]; !ok {
		return storage.ErrRecipientNotFound
	}
	delete(s.recipients, id)
	return nil
}

// DeleteAllRecipients 清空收件人。
func (s *Store) DeleteAllRecipients() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients = make(map[string]*domain.Recipient)
	return nil
}

// ResetRecipientStatuses 将所有收件人状态重置为 pending。
func (s *Store) ResetRecipientStatuses() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, r := range s.recipients {
		r.Status = domain.RecipientStatusPending
		r.UpdatedAt = now
	}
	return nil
}

// ========== Template Repository ==========

// SaveTemplate 保存模板（新增或更新）。
func (s *Store) SaveTemplate(template *domain.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byTemplate[template.Name]; ok && existingID != template.ID {
		return storage.ErrTemplateExists
	}

	now := time.Now().UTC()
	if old, ok := s.templates[template.ID]; ok {
		template.CreatedAt = old.CreatedAt
		delete(s.byTemplate, old.Name)
	} else if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	cp := *template
	s.templates[template.ID] = &cp
	s.byTemplate[template.Name] = template.ID
	return nil
}

// GetTemplate 根据 ID 获取模板。
func (s *Store) GetTemplate(id string) (*domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	template, ok := s.templates[id]
	if !ok {
		return nil, storage.ErrTemplateNotFound
	}
	cp := *template
	return &cp, nil
}

// ListTemplates 返回全部模板，按创建时间升序。
func (s *Store) ListTemplates() ([]domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, *t)
	}
	sortByCreatedAt(out, func(x domain.Template) (time.Time, string) { return x.CreatedAt, x.ID })
	return out, nil
}

// ListTemplatesByIDs 返回指定 ID 集合中存在的模板。
func (s *Store) ListTemplatesByIDs(ids []string) ([]domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Template, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.templates[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

// DeleteTemplate 删除模板。
func (s *Store) DeleteTemplate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	template, ok := s.templates[id]
	if !ok {
		return storage.ErrTemplateNotFound
	}
	delete(s.byTemplate, template.Name)
	delete(s.templates, id)
	return nil
}

// ========== DispatchLog Repository ==========

// AppendDispatchLog 追加一条投递记录。
func (s *Store) AppendDispatchLog(entry *domain.DispatchLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	cp := *entry
	s.logs = append(s.logs, &cp)
	return nil
}

// ListDispatchLogs 按时间倒序返回最近 limit 条投递记录。
func (s *Store) ListDispatchLogs(limit int) ([]domain.DispatchLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DispatchLog, 0, len(s.logs))
	for i := len(s.logs) - 1; i >= 0; i-- {
		out = append(out, *s.logs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ClearDispatchLogs 清空投递记录。
func (s *Store) ClearDispatchLogs() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = s.logs[:0]
	return nil
}

// Close 关闭存储（内存实现为空操作）。
func (s *Store) Close() error { return nil }

// Health 健康检查（内存实现恒为健康）。
func (s *Store) Health() error { return nil }

// sortByCreatedAt 按 (创建时间, ID) 升序排序，保证查询顺序稳定。
func sortByCreatedAt[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	})
}

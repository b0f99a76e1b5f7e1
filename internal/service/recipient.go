package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage"
)

var ErrInvalidStatus = errors.New("invalid recipient status")

// RecipientService 封装收件人相关业务操作。
type RecipientService struct {
	repo storage.RecipientRepository
}

// NewRecipientService 创建收件人业务服务。
func NewRecipientService(repo storage.RecipientRepository) *RecipientService {
	return &RecipientService{repo: repo}
}

// RecipientInput 定义创建收件人所需的输入。
type RecipientInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Create 创建新的收件人，初始状态为 pending。
func (s *RecipientService) Create(input RecipientInput) (*domain.Recipient, error) {
	recipient, err := buildRecipient(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveRecipient(recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

func buildRecipient(input RecipientInput) (*domain.Recipient, error) {
	email := strings.TrimSpace(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%s: %w", email, err)
	}
	now := time.Now().UTC()
	return &domain.Recipient{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(input.Name),
		Status:    domain.RecipientStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdateRecipientInput 定义更新收件人的可选字段。
type UpdateRecipientInput struct {
	Email  *string                 `json:"email"`
	Name   *string                 `json:"name"`
	Status *domain.RecipientStatus `json:"status"`
}

// Update 更新收件人，只修改显式提供的字段。
func (s *RecipientService) Update(id string, input UpdateRecipientInput) (*domain.Recipient, error) {
	recipient, err := s.repo.GetRecipient(id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if err := domain.ValidateEmail(email); err != nil {
			return nil, err
		}
		recipient.Email = email
	}
	if input.Name != nil {
		recipient.Name = strings.TrimSpace(*input.Name)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		recipient.Status = *input.Status
	}
	recipient.UpdatedAt = time.Now().UTC()

	if err := s.repo.SaveRecipient(recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

// Get 查询单个收件人。
func (s *RecipientService) Get(id string) (*domain.Recipient, error) {
	return s.repo.GetRecipient(id)
}

// List 分页查询收件人，status 为 nil 时不过滤。
func (s *RecipientService) List(status *domain.RecipientStatus, page, pageSize int) ([]domain.Recipient, int, error) {
	if status != nil && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}
	return s.repo.ListRecipients(status, page, pageSize)
}

// Delete 删除收件人。
func (s *RecipientService) Delete(id string) error {
	return s.repo.DeleteRecipient(id)
}

// Clear 删除全部收件人。
func (s *RecipientService) Clear() error {
	return s.repo.DeleteAllRecipients()
}

// ResetStatuses 将所有收件人重置为 pending，供下一次活动复用名单。
func (s *RecipientService) ResetStatuses() error {
	return s.repo.ResetRecipientStatuses()
}

// ImportJSON 批量导入收件人，逐行校验，非法行计入错误继续。
func (s *RecipientService) ImportJSON(inputs []RecipientInput) (*ImportResult, error) {
	result := &ImportResult{}
	batch := make([]*domain.Recipient, 0, len(inputs))
	for i, input := range inputs {
		recipient, err := buildRecipient(input)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: %v", i+1, err))
			continue
		}
		batch = append(batch, recipient)
	}

	if len(batch) > 0 {
		if err := s.repo.SaveRecipients(batch); err != nil {
			return result, err
		}
	}
	result.Imported = len(batch)
	return result, nil
}

// ImportCSV 从 CSV 文件导入收件人。
//
// 第一列为邮箱，第二列为姓名（可缺省）。首行若是表头
// （email/name）则自动跳过。
func (s *RecipientService) ImportCSV(r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var inputs []RecipientInput
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++

		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "email") {
			continue
		}

		input := RecipientInput{Email: record[0]}
		if len(record) > 1 {
			input.Name = record[1]
		}
		inputs = append(inputs, input)
	}

	if len(inputs) == 0 {
		return nil, ErrEmptyImportFile
	}
	return s.ImportJSON(inputs)
}

package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage"
)

var ErrTemplateNameRequired = errors.New("template name required")

// TemplateService 封装邮件模板相关业务操作。
type TemplateService struct {
	repo storage.TemplateRepository
}

// NewTemplateService 创建模板业务服务。
func NewTemplateService(repo storage.TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

// TemplateInput 定义创建模板所需的输入。
type TemplateInput struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"htmlBody"`
}

// Create 创建新的邮件模板。
func (s *TemplateService) Create(input TemplateInput) (*domain.Template, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTemplateNameRequired
	}

	now := time.Now().UTC()
	template := &domain.Template{
		ID:        uuid.NewString(),
		Name:      name,
		Subject:   input.Subject,
		HTMLBody:  input.HTMLBody,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := domain.ValidateTemplate(template); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTemplate(template); err != nil {
		return nil, err
	}
	return template, nil
}

// UpdateTemplateInput 定义更新模板的可选字段。
type UpdateTemplateInput struct {
	Name     *string `json:"name"`
	Subject  *string `json:"subject"`
	HTMLBody *string `json:"htmlBody"`
}

// Update 更新模板，只修改显式提供的字段。
func (s *TemplateService) Update(id string, input UpdateTemplateInput) (*domain.Template, error) {
	template, err := s.repo.GetTemplate(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTemplateNameRequired
		}
		template.Name = name
	}
	if input.Subject != nil {
		template.Subject = *input.Subject
	}
	if input.HTMLBody != nil {
		template.HTMLBody = *input.HTMLBody
	}
	template.UpdatedAt = time.Now().UTC()

	if err := domain.ValidateTemplate(template); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTemplate(template); err != nil {
		return nil, err
	}
	return template, nil
}

// Get 查询单个模板。
func (s *TemplateService) Get(id string) (*domain.Template, error) {
	return s.repo.GetTemplate(id)
}

// List 返回全部模板。
func (s *TemplateService) List() ([]domain.Template, error) {
	return s.repo.ListTemplates()
}

// Delete 删除模板。
func (s *TemplateService) Delete(id string) error {
	return s.repo.DeleteTemplate(id)
}

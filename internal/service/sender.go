package service

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage"
)

var (
	ErrSenderEmailRequired = errors.New("sender email required")
	ErrEmptyImportFile     = errors.New("import file contains no rows")
)

// 新账号的默认 SMTP 参数
const (
	defaultSenderHost  = "smtp.yandex.com"
	defaultSenderPort  = domain.PortSMTPS
	defaultDailyLimit  = 100
	importColumnEmail  = "Email"
	importColumnSecret = "AppPassword"
	importColumnLimit  = "DailyLimit"
)

// SenderService 封装发信账号相关业务操作。
type SenderService struct {
	repo storage.SenderRepository
}

// NewSenderService 创建发信账号业务服务。
func NewSenderService(repo storage.SenderRepository) *SenderService {
	return &SenderService{repo: repo}
}

// CreateSenderInput 定义创建发信账号所需的输入。
type CreateSenderInput struct {
	Email       string `json:"email"`
	AppPassword string `json:"appPassword"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Secure      *bool  `json:"secure"`
	DailyLimit  int    `json:"dailyLimit"`
	IsActive    *bool  `json:"isActive"`
}

// Create 创建新的发信账号。
func (s *SenderService) Create(input CreateSenderInput) (*domain.Sender, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, ErrSenderEmailRequired
	}
	sender := s.buildSender(input)
	if err := domain.ValidateSender(sender); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSender(sender); err != nil {
		return nil, err
	}
	return sender, nil
}

// CreateBatch 批量创建发信账号，逐个校验，任一失败即中止。
func (s *SenderService) CreateBatch(inputs []CreateSenderInput) ([]domain.Sender, error) {
	created := make([]domain.Sender, 0, len(inputs))
	for i, input := range inputs {
		sender, err := s.Create(input)
		if err != nil {
			return created, fmt.Errorf("sender %d (%s): %w", i+1, input.Email, err)
		}
		created = append(created, *sender)
	}
	return created, nil
}

// buildSender 根据输入和默认值组装账号实体。
func (s *SenderService) buildSender(input CreateSenderInput) *domain.Sender {
	now := time.Now().UTC()
	sender := &domain.Sender{
		ID:          uuid.NewString(),
		Email:       strings.TrimSpace(input.Email),
		AppPassword: input.AppPassword,
		Host:        strings.TrimSpace(input.Host),
		Port:        input.Port,
		Secure:      true,
		DailyLimit:  input.DailyLimit,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if sender.Host == "" {
		sender.Host = defaultSenderHost
	}
	if sender.Port == 0 {
		sender.Port = defaultSenderPort
	}
	if input.Secure != nil {
		sender.Secure = *input.Secure
	}
	if sender.DailyLimit <= 0 {
		sender.DailyLimit = defaultDailyLimit
	}
	if input.IsActive != nil {
		sender.IsActive = *input.IsActive
	}
	return sender
}

// UpdateSenderInput 定义更新发信账号的可选字段。
type UpdateSenderInput struct {
	AppPassword *string `json:"appPassword"`
	Host        *string `json:"host"`
	Port        *int    `json:"port"`
	Secure      *bool   `json:"secure"`
	DailyLimit  *int    `json:"dailyLimit"`
	IsActive    *bool   `json:"isActive"`
	SentCount   *int    `json:"sentCount"`
}

// Update 更新发信账号，只修改显式提供的字段。
func (s *SenderService) Update(id string, input UpdateSenderInput) (*domain.Sender, error) {
	sender, err := s.repo.GetSender(id)
	if err != nil {
		return nil, err
	}

	if input.AppPassword != nil {
		sender.AppPassword = *input.AppPassword
	}
	if input.Host != nil {
		sender.Host = strings.TrimSpace(*input.Host)
	}
	if input.Port != nil {
		sender.Port = *input.Port
	}
	if input.Secure != nil {
		sender.Secure = *input.Secure
	}
	if input.DailyLimit != nil {
		sender.DailyLimit = *input.DailyLimit
	}
	if input.IsActive != nil {
		sender.IsActive = *input.IsActive
	}
	if input.SentCount != nil {
		sender.SentCount = *input.SentCount
	}
	sender.UpdatedAt = time.Now().UTC()

	if err := domain.ValidateSender(sender); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSender(sender); err != nil {
		return nil, err
	}
	return sender, nil
}

// Get 查询单个发信账号。
func (s *SenderService) Get(id string) (*domain.Sender, error) {
	return s.repo.GetSender(id)
}

// List 返回全部发信账号。
func (s *SenderService) List() ([]domain.Sender, error) {
	return s.repo.ListSenders()
}

// Delete 删除发信账号。
func (s *SenderService) Delete(id string) error {
	return s.repo.DeleteSender(id)
}

// ResetCounts 将所有账号的已发送计数归零（新的一天开始时调用）。
func (s *SenderService) ResetCounts() error {
	return s.repo.ResetSenderCounts()
}

// ImportResult 批量导入的结果统计。
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportExcel 从 xlsx 文件导入发信账号。
//
// 读取第一个工作表，按表头定位 Email / AppPassword / DailyLimit
// 三列。邮箱已存在的行跳过，缺少凭据的行计入错误，其余行
// 以默认 SMTP 参数入库。
func (s *SenderService) ImportExcel(r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyImportFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyImportFile
	}

	// 按表头定位各列，列顺序不作假设
	columns := make(map[string]int)
	for idx, name := range rows[0] {
		columns[strings.TrimSpace(name)] = idx
	}
	emailCol, ok := columns[importColumnEmail]
	if !ok {
		return nil, fmt.Errorf("missing required column %q", importColumnEmail)
	}
	secretCol, hasSecret := columns[importColumnSecret]
	limitCol, hasLimit := columns[importColumnLimit]

	cell := func(row []string, idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	result := &ImportResult{}
	for lineNo, row := range rows[1:] {
		email := cell(row, emailCol)
		if email == "" {
			continue
		}

		if _, err := s.repo.GetSenderByEmail(email); err == nil {
			result.Skipped++
			continue
		} else if !errors.Is(err, storage.ErrSenderNotFound) {
			return result, fmt.Errorf("lookup %s: %w", email, err)
		}

		input := CreateSenderInput{Email: email}
		if hasSecret {
			input.AppPassword = cell(row, secretCol)
		}
		if hasLimit {
			if limit, err := strconv.Atoi(cell(row, limitCol)); err == nil {
				input.DailyLimit = limit
			}
		}

		if _, err := s.Create(input); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d (%s): %v", lineNo+2, email, err))
			continue
		}
		result.Imported++
	}

	return result, nil
}

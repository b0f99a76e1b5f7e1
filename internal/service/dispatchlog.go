package service

import (
	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage"
)

// DispatchLogService 封装投递历史查询操作。
type DispatchLogService struct {
	repo storage.DispatchLogRepository
}

// NewDispatchLogService 创建投递历史业务服务。
func NewDispatchLogService(repo storage.DispatchLogRepository) *DispatchLogService {
	return &DispatchLogService{repo: repo}
}

// List 按时间倒序返回最近 limit 条投递记录。
func (s *DispatchLogService) List(limit int) ([]domain.DispatchLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	return s.repo.ListDispatchLogs(limit)
}

// Clear 清空投递历史。
func (s *DispatchLogService) Clear() error {
	return s.repo.ClearDispatchLogs()
}

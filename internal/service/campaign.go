package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"mailblast/backend/internal/config"
	"mailblast/backend/internal/dispatch"
)

var ErrNoTemplateSelected = errors.New("at least one template must be selected")

// CampaignService 封装活动投递的启动与运行控制。
type CampaignService struct {
	engine  *dispatch.Engine
	control *dispatch.Control
	feed    *dispatch.Feed
	cfg     config.DispatchConfig
}

// NewCampaignService 创建活动业务服务。
func NewCampaignService(engine *dispatch.Engine, control *dispatch.Control, feed *dispatch.Feed, cfg config.DispatchConfig) *CampaignService {
	return &CampaignService{
		engine:  engine,
		control: control,
		feed:    feed,
		cfg:     cfg,
	}
}

// SendInput 定义启动活动所需的输入。
type SendInput struct {
	JobID       string   `json:"jobId"`
	TemplateIDs []string `json:"templateIds"`
	BrandName   string   `json:"brandName"`
	MinDelay    *int     `json:"minDelay"`
	MaxDelay    *int     `json:"maxDelay"`
	TotalLimit  *int     `json:"totalLimit"`
}

// SendResult 活动结束后的汇总，附运行标识。
type SendResult struct {
	JobID string `json:"jobId"`
	dispatch.RunSummary
}

// Send 同步执行一次活动投递，完成后返回汇总。
//
// 未提供的参数落到配置的默认值: 品牌名、延迟区间；
// 未提供 JobID 时生成一个，订阅进度需要在启动前拿到它。
func (s *CampaignService) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	if len(input.TemplateIDs) == 0 {
		return nil, ErrNoTemplateSelected
	}

	jobID := input.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}

	brand := input.BrandName
	if brand == "" {
		brand = s.cfg.DefaultBrand
	}
	minDelay := s.cfg.DefaultMinDelay
	if input.MinDelay != nil && *input.MinDelay >= 0 {
		minDelay = *input.MinDelay
	}
	maxDelay := s.cfg.DefaultMaxDelay
	if input.MaxDelay != nil && *input.MaxDelay >= 0 {
		maxDelay = *input.MaxDelay
	}

	summary, err := s.engine.Run(ctx, dispatch.RunInput{
		RunID:       jobID,
		TemplateIDs: input.TemplateIDs,
		BrandName:   brand,
		MinDelay:    minDelay,
		MaxDelay:    maxDelay,
		TotalLimit:  input.TotalLimit,
	})

	// 运行被取消时引擎仍返回部分汇总，一并透出给调用方
	result := &SendResult{JobID: jobID}
	if summary != nil {
		result.RunSummary = *summary
	}
	return result, err
}

// Pause 请求暂停指定运行，返回该运行是否存在。
func (s *CampaignService) Pause(jobID string) bool {
	return s.control.Pause(jobID)
}

// Resume 请求恢复指定运行，返回该运行是否存在。
func (s *CampaignService) Resume(jobID string) bool {
	return s.control.Resume(jobID)
}

// Paused 返回指定运行当前是否暂停。
func (s *CampaignService) Paused(jobID string) bool {
	return s.control.Paused(jobID)
}

// Subscribe 订阅指定运行的进度事件流。
func (s *CampaignService) Subscribe(jobID string) <-chan string {
	return s.feed.Subscribe(jobID)
}

// Unsubscribe 取消进度订阅，运行本身不受影响。
func (s *CampaignService) Unsubscribe(jobID string, ch <-chan string) {
	s.feed.Unsubscribe(jobID, ch)
}

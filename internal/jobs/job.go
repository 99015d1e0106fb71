package jobs

import (
	"errors"
	"time"

	"ratecard-converter/internal/convert"

	"github.com/google/uuid"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrRateCardNotFound = errors.New("rate card not found")
)

// Status 任务状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job 异步转换任务
type Job struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename"`
	Source       string     `json:"source"` // upload / s3 / sql
	Status       Status     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RateCardID   string     `json:"rate_card_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewJob 创建 pending 状态的任务
func NewJob(filename, source string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		Source:    source,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start pending -> processing
func (j *Job) Start() {
	j.Status = StatusProcessing
	j.UpdatedAt = time.Now().UTC()
}

// Complete processing -> completed
func (j *Job) Complete(rateCardID string) {
	now := time.Now().UTC()
	j.Status = StatusCompleted
	j.RateCardID = rateCardID
	j.UpdatedAt = now
	j.CompletedAt = &now
}

// Fail 记录错误并结束任务
func (j *Job) Fail(err error) {
	now := time.Now().UTC()
	j.Status = StatusFailed
	j.ErrorMessage = err.Error()
	j.UpdatedAt = now
	j.CompletedAt = &now
}

// Done 任务是否已结束
func (j *Job) Done() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// RateCard 已保存的转换结果
type RateCard struct {
	ID           string                    `json:"id"`
	Filename     string                    `json:"filename"`
	ProviderUsed string                    `json:"provider_used,omitempty"`
	RowCount     int                       `json:"row_count"`
	RejectedRows int                       `json:"rejected_rows"`
	Result       *convert.ConversionResult `json:"result,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// NewRateCard 包装转换结果
func NewRateCard(filename, provider string, result *convert.ConversionResult) *RateCard {
	return &RateCard{
		ID:           uuid.NewString(),
		Filename:     filename,
		ProviderUsed: provider,
		RowCount:     len(result.Rows),
		RejectedRows: result.RejectedRows,
		Result:       result,
		CreatedAt:    time.Now().UTC(),
	}
}

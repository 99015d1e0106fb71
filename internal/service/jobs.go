package service

import (
	"context"
	"fmt"

	"ratecard-converter/internal/analyzer"
	"ratecard-converter/internal/graph"
	"ratecard-converter/internal/jobs"
	"ratecard-converter/internal/pkg/logger"
	"ratecard-converter/internal/renderer"

	"github.com/rotisserie/eris"
)

// SubmitJob 创建任务并在后台转换
func (s *Service) SubmitJob(ctx context.Context, filename string, content []byte) (*jobs.Job, error) {
	if err := s.checkSize(content); err != nil {
		return nil, err
	}
	job := jobs.NewJob(filename, "upload")
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, eris.Wrap(err, "create job")
	}

	snapshot := *job
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(job, func(ctx context.Context) (*Conversion, error) {
			return s.ConvertFile(ctx, filename, content)
		})
	}()
	return &snapshot, nil
}

// SubmitS3Job 创建任务并在后台转换 S3 对象
func (s *Service) SubmitS3Job(ctx context.Context, bucket, key string) (*jobs.Job, error) {
	job := jobs.NewJob(fmt.Sprintf("s3://%s/%s", bucket, key), "s3")
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, eris.Wrap(err, "create job")
	}

	snapshot := *job
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(job, func(ctx context.Context) (*Conversion, error) {
			return s.ConvertS3(ctx, bucket, key)
		})
	}()
	return &snapshot, nil
}

// runJob pending -> processing -> completed|failed
func (s *Service) runJob(job *jobs.Job, convertFn func(context.Context) (*Conversion, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()

	job.Start()
	if err := s.jobs.Update(ctx, job); err != nil {
		logger.Error("job update failed", "job_id", job.ID, "error", err)
	}

	conv, err := convertFn(ctx)
	if err == nil {
		card := jobs.NewRateCard(job.Filename, conv.ProviderUsed(), conv.Result)
		if err = s.repo.Save(ctx, card); err == nil {
			job.Complete(card.ID)
		}
	}
	if err != nil {
		logger.Warn("job failed", "job_id", job.ID, "filename", job.Filename, "error", err)
		job.Fail(err)
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		logger.Error("job update failed", "job_id", job.ID, "error", err)
	}
}

// Wait 等待后台任务结束
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) GetJob(ctx context.Context, id string) (*jobs.Job, error) {
	return s.jobs.Get(ctx, id)
}

func (s *Service) GetRateCard(ctx context.Context, id string) (*jobs.RateCard, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListRateCards(ctx context.Context, limit, offset int) ([]jobs.RateCard, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) DeleteRateCard(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// RateCardReport 由保存的结果重建映射图并渲染 Markdown
func (s *Service) RateCardReport(ctx context.Context, id string) (string, error) {
	card, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	cm := analyzer.NewColumnMap()
	var headers []string
	seen := make(map[string]bool)
	for _, ev := range card.Result.MappingEvidence {
		cm.Set(ev.CanonicalField, ev.SourceColumn)
		if !seen[ev.SourceColumn] {
			seen[ev.SourceColumn] = true
			headers = append(headers, ev.SourceColumn)
		}
	}

	report := &renderer.Report{
		Filename:     card.Filename,
		ProviderUsed: card.ProviderUsed,
		Result:       card.Result,
		Graph:        graph.Build(headers, s.catalog, card.Result.MappingEvidence, cm, nil),
	}
	return renderer.NewEnhancedMarkdownRenderer().Render(report), nil
}

package service

import (
	"context"
	"sync"
	"time"

	"ratecard-converter/internal/adapter"
	"ratecard-converter/internal/analyzer"
	"ratecard-converter/internal/catalog"
	"ratecard-converter/internal/convert"
	"ratecard-converter/internal/graph"
	"ratecard-converter/internal/jobs"
	"ratecard-converter/internal/pkg/logger"
	"ratecard-converter/internal/renderer"
	"ratecard-converter/internal/storage"
	"ratecard-converter/internal/table"

	"github.com/rotisserie/eris"
)

// ErrTooLarge 上传内容超过上限
var ErrTooLarge = eris.New("input exceeds upload limit")

// Conversion 一次转换的完整输出
type Conversion struct {
	Filename string                    `json:"filename"`
	Result   *convert.ConversionResult `json:"result"`
	Hybrid   *analyzer.HybridResult    `json:"hybrid,omitempty"`
	Profiles []analyzer.ColumnProfile  `json:"profiles"`
	Graph    *graph.MappingGraph       `json:"-"`
}

// ProviderUsed 使用的 provider，未启用混合映射时为空
func (c *Conversion) ProviderUsed() string {
	if c.Hybrid == nil {
		return ""
	}
	return c.Hybrid.ProviderUsed
}

// Report 转为报告
func (c *Conversion) Report() *renderer.Report {
	r := &renderer.Report{
		Filename:     c.Filename,
		ProviderUsed: c.ProviderUsed(),
		Result:       c.Result,
		Graph:        c.Graph,
		Profiles:     c.Profiles,
	}
	if c.Hybrid != nil {
		r.Suggestions = c.Hybrid.Suggestions
	}
	return r
}

// Options 服务参数
type Options struct {
	UseLLMMapping  bool
	MaxUploadBytes int64 // <=0 表示不限制
	JobTimeout     time.Duration
}

// Service 加载 -> 映射 -> 转换 的编排，以及异步任务
type Service struct {
	catalog   *catalog.Catalog
	converter *convert.Converter
	hybrid    *analyzer.HybridAgent
	jobs      jobs.Store
	repo      jobs.Repository
	s3        *storage.S3Source
	opts      Options
	wg        sync.WaitGroup
}

// New 创建服务；hybrid 为 nil 时不使用混合映射，s3 可以为 nil
func New(converter *convert.Converter, hybrid *analyzer.HybridAgent, store jobs.Store, repo jobs.Repository, s3 *storage.S3Source, opts Options) *Service {
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Minute
	}
	return &Service{
		catalog:   converter.Mapper().Catalog(),
		converter: converter,
		hybrid:    hybrid,
		jobs:      store,
		repo:      repo,
		s3:        s3,
		opts:      opts,
	}
}

// Fields 标准字段目录
func (s *Service) Fields() []catalog.FieldDefinition {
	return s.catalog.Fields()
}

// UsesLLMMapping 是否启用混合映射
func (s *Service) UsesLLMMapping() bool {
	return s.opts.UseLLMMapping && s.hybrid != nil
}

func (s *Service) checkSize(content []byte) error {
	if s.opts.MaxUploadBytes > 0 && int64(len(content)) > s.opts.MaxUploadBytes {
		return eris.Wrapf(ErrTooLarge, "%d bytes > %d", len(content), s.opts.MaxUploadBytes)
	}
	return nil
}

// ConvertFile 按文件名解析内容后转换
func (s *Service) ConvertFile(ctx context.Context, filename string, content []byte) (*Conversion, error) {
	if err := s.checkSize(content); err != nil {
		return nil, err
	}
	t, err := adapter.Load(filename, content)
	if err != nil {
		return nil, err
	}
	return s.ConvertTable(ctx, filename, t)
}

// ConvertS3 读取 S3 对象后转换
func (s *Service) ConvertS3(ctx context.Context, bucket, key string) (*Conversion, error) {
	if s.s3 == nil {
		return nil, eris.New("s3 source is not configured")
	}
	content, err := s.s3.Fetch(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return s.ConvertFile(ctx, key, content)
}

// ConvertQuery 从数据库查询结果转换
func (s *Service) ConvertQuery(ctx context.Context, db adapter.DBAdapter, query string) (*Conversion, error) {
	t, err := db.LoadQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.ConvertTable(ctx, "query", t)
}

// ConvertTable 映射并转换；启用混合映射时使用补齐后的映射
func (s *Service) ConvertTable(ctx context.Context, name string, t *table.Table) (*Conversion, error) {
	if t.Len() == 0 {
		return nil, eris.Wrapf(table.ErrEmptyInput, "%s", name)
	}

	conv := &Conversion{Filename: name, Profiles: analyzer.ProfileTable(t)}
	var cm *analyzer.ColumnMap
	var evidence []analyzer.MappingEvidence

	if s.UsesLLMMapping() {
		h, err := s.hybrid.Run(ctx, t)
		if err != nil {
			return nil, err
		}
		conv.Hybrid = h
		cm, evidence = h.ImprovedMapping, h.Evidence
	} else {
		m := s.converter.Mapper().BuildColumnMapping(t.Headers)
		cm, evidence = m.ColumnMap, m.Evidence
	}

	result, err := s.converter.ConvertWithMapping(t, cm, evidence)
	if err != nil {
		return nil, err
	}
	if conv.Hybrid != nil {
		result.Warnings = append(result.Warnings, conv.Hybrid.Warnings...)
	}
	conv.Result = result
	conv.Graph = graph.Build(t.Headers, s.catalog, evidence, cm, conv.Profiles)

	logger.Info("rate card converted",
		"source", name,
		"rows", len(result.Rows),
		"rejected", result.RejectedRows,
		"warnings", len(result.Warnings),
		"provider", conv.ProviderUsed(),
	)
	return conv, nil
}

// PreviewMapping 只做混合映射，不转换行
func (s *Service) PreviewMapping(ctx context.Context, filename string, content []byte) (*analyzer.HybridResult, error) {
	if err := s.checkSize(content); err != nil {
		return nil, err
	}
	t, err := adapter.Load(filename, content)
	if err != nil {
		return nil, err
	}
	agent := s.hybrid
	if agent == nil {
		agent = analyzer.NewHybridAgent(s.converter.Mapper(), nil)
	}
	return agent.Run(ctx, t)
}

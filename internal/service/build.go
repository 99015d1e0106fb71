package service

import (
	"context"

	"ratecard-converter/internal/ai"
	"ratecard-converter/internal/analyzer"
	"ratecard-converter/internal/catalog"
	"ratecard-converter/internal/config"
	"ratecard-converter/internal/convert"
	"ratecard-converter/internal/jobs"
	"ratecard-converter/internal/pkg/logger"
	"ratecard-converter/internal/storage"

	"github.com/rotisserie/eris"
)

// LoadCatalog 读取配置的目录文件，未配置时使用内置目录
func LoadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Mapping.CatalogFile == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.Mapping.CatalogFile)
	if err != nil {
		return nil, eris.Wrap(err, "load catalog")
	}
	return cat, nil
}

// TargetFields 目录字段转为 provider 提示词字段
func TargetFields(cat *catalog.Catalog) []ai.TargetField {
	fields := make([]ai.TargetField, 0, cat.Len())
	for _, f := range cat.Fields() {
		fields = append(fields, ai.TargetField{Name: f.Name, Description: f.Description})
	}
	return fields
}

// ProviderConfig 配置转为 provider 选择参数
func ProviderConfig(cfg *config.Config) ai.ProviderConfig {
	return ai.ProviderConfig{
		Provider: cfg.Provider.Name,
		Model:    cfg.Provider.Model,
		APIKey:   cfg.Provider.APIKey,
		Endpoint: cfg.Provider.Endpoint,
		Region:   cfg.Provider.Region,
		Timeout:  cfg.Provider.Timeout(),
	}
}

// Backends 任务存储与结果仓库，Close 释放连接
type Backends struct {
	Store jobs.Store
	Repo  jobs.Repository
	S3    *storage.S3Source

	closers []func() error
}

// Close 关闭所有外部连接
func (b *Backends) Close() {
	for _, c := range b.closers {
		if err := c(); err != nil {
			logger.Warn("backend close failed", "error", err)
		}
	}
}

// OpenBackends 按配置连接 Redis、Postgres/SQLite 与 S3，未配置的使用内存实现
func OpenBackends(ctx context.Context, cfg *config.Config) (*Backends, error) {
	b := &Backends{Store: jobs.NewMemoryStore(), Repo: jobs.NewMemoryRepository()}

	if cfg.Storage.RedisURL != "" {
		rs, err := jobs.NewRedisStoreFromURL(ctx, cfg.Storage.RedisURL, cfg.Storage.JobTTL())
		if err != nil {
			return nil, eris.Wrap(err, "connect redis")
		}
		b.Store = rs
		b.closers = append(b.closers, rs.Close)
		logger.Info("job store", "backend", "redis", "url", cfg.Storage.RedisURL)
	}

	switch {
	case cfg.Storage.DatabaseURL != "":
		pg, err := jobs.OpenPostgres(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			b.Close()
			return nil, eris.Wrap(err, "connect postgres")
		}
		b.Repo = pg
		b.closers = append(b.closers, pg.Close)
		logger.Info("rate card repository", "backend", "postgres", "dsn", cfg.Storage.DatabaseURL)
	case cfg.Storage.SQLitePath != "":
		lite, err := jobs.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			b.Close()
			return nil, eris.Wrap(err, "open sqlite")
		}
		b.Repo = lite
		b.closers = append(b.closers, lite.Close)
		logger.Info("rate card repository", "backend", "sqlite", "path", cfg.Storage.SQLitePath)
	}

	if cfg.Storage.S3Bucket != "" {
		src, err := storage.NewS3Source(ctx, storage.Options{
			Bucket:   cfg.Storage.S3Bucket,
			Region:   cfg.Storage.S3Region,
			Profile:  cfg.Storage.AWSProfile,
			MaxBytes: cfg.Server.MaxUploadBytes(),
		})
		if err != nil {
			b.Close()
			return nil, eris.Wrap(err, "configure s3")
		}
		b.S3 = src
	}
	return b, nil
}

// FromConfig 组装完整的转换服务
func FromConfig(ctx context.Context, cfg *config.Config, b *Backends) (*Service, error) {
	cat, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	mapper := analyzer.NewColumnMapper(cat, analyzer.MapperOptions{AcceptThreshold: cfg.Mapping.AcceptThreshold})
	conv := convert.NewConverter(mapper, convert.Options{
		LowConfidenceThreshold: cfg.Mapping.ConfidenceThreshold,
		DefaultCurrency:        cfg.Mapping.DefaultCurrency,
	})

	var hybrid *analyzer.HybridAgent
	if cfg.Mapping.UseLLMMapping {
		provider := ai.BuildProvider(ctx, ProviderConfig(cfg), TargetFields(cat))
		hybrid = analyzer.NewHybridAgent(mapper, provider)
		logger.Info("hybrid mapping enabled", "provider", provider.Name())
	}

	return New(conv, hybrid, b.Store, b.Repo, b.S3, Options{
		UseLLMMapping:  cfg.Mapping.UseLLMMapping,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
	}), nil
}

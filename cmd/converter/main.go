package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"ratecard-converter/internal/adapter"
	"ratecard-converter/internal/ai"
	"ratecard-converter/internal/analyzer"
	"ratecard-converter/internal/config"
	"ratecard-converter/internal/jobs"
	"ratecard-converter/internal/pkg/logger"
	"ratecard-converter/internal/renderer"
	"ratecard-converter/internal/service"
	"ratecard-converter/internal/storage"

	"github.com/spf13/cobra"
)

var (
	configPath string
	outputDir  string
	useLLM     bool
	provider   string

	sqlDriver string
	sqlConn   string
	sqlSchema string
	sqlQuery  string
	sqlTable  string
	sqlLimit  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ratecard-converter",
		Short: "费率卡标准化转换工具",
		Long:  "将承运商的 CSV/Excel/数据库费率卡映射并转换为标准行，生成映射报告和 Mermaid 图",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径 (YAML)")

	convertCmd := &cobra.Command{
		Use:   "convert <file|s3://bucket/key>",
		Short: "转换费率卡文件",
		Args:  cobra.ExactArgs(1),
		Run:   runConvert,
	}
	convertCmd.Flags().StringVar(&outputDir, "output", "./output", "输出目录")
	convertCmd.Flags().BoolVar(&useLLM, "llm", false, "启用 provider 补齐映射")
	convertCmd.Flags().StringVar(&provider, "provider", "", "provider (openai/qwen/bedrock/keyword)")

	previewCmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "预览混合映射（初始映射与补齐后的映射）",
		Args:  cobra.ExactArgs(1),
		Run:   runPreview,
	}
	previewCmd.Flags().StringVar(&provider, "provider", "", "provider (openai/qwen/bedrock/keyword)")

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "列出标准字段目录",
		Run:   runFields,
	}

	sqlCmd := &cobra.Command{
		Use:   "sql",
		Short: "从数据库表或查询转换费率卡",
		Run:   runSQL,
	}
	sqlCmd.Flags().StringVar(&sqlDriver, "driver", "sqlserver", "数据库类型 (sqlserver/mysql)")
	sqlCmd.Flags().StringVar(&sqlConn, "conn", "", "连接字符串")
	sqlCmd.Flags().StringVar(&sqlSchema, "schema", "", "数据库 schema (MySQL 必需)")
	sqlCmd.Flags().StringVar(&sqlQuery, "query", "", "只读查询")
	sqlCmd.Flags().StringVar(&sqlTable, "table", "", "表名（未指定 --query 时使用）")
	sqlCmd.Flags().IntVar(&sqlLimit, "limit", 0, "最多读取行数")
	sqlCmd.Flags().StringVar(&outputDir, "output", "./output", "输出目录")
	sqlCmd.Flags().BoolVar(&useLLM, "llm", false, "启用 provider 补齐映射")
	sqlCmd.MarkFlagRequired("conn")

	rootCmd.AddCommand(convertCmd, previewCmd, fieldsCmd, sqlCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadConfig 读取配置并应用命令行覆盖
func loadConfig() *config.Config {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if useLLM {
		cfg.Mapping.UseLLMMapping = true
	}
	if provider != "" {
		cfg.Provider.Name = provider
	}
	logger.SetLevel(logger.ParseLevel(cfg.App.LogLevel))
	return cfg
}

func newService(ctx context.Context, cfg *config.Config, needS3 bool) *service.Service {
	b := &service.Backends{Store: jobs.NewMemoryStore(), Repo: jobs.NewMemoryRepository()}

	if needS3 {
		src, err := storage.NewS3Source(ctx, storage.Options{
			Bucket:   cfg.Storage.S3Bucket,
			Region:   cfg.Storage.S3Region,
			Profile:  cfg.Storage.AWSProfile,
			MaxBytes: cfg.Server.MaxUploadBytes(),
		})
		if err != nil {
			log.Fatalf("初始化 S3 失败: %v", err)
		}
		b.S3 = src
	}

	svc, err := service.FromConfig(ctx, cfg, b)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	return svc
}

func runConvert(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg := loadConfig()
	src := args[0]

	fmt.Printf("🔍 开始转换 %s...\n", src)
	svc := newService(ctx, cfg, storage.IsURI(src))

	var (
		conv *service.Conversion
		err  error
	)
	if storage.IsURI(src) {
		bucket, key, perr := storage.ParseURI(src)
		if perr != nil {
			log.Fatal(perr)
		}
		conv, err = svc.ConvertS3(ctx, bucket, key)
	} else {
		content, rerr := os.ReadFile(src)
		if rerr != nil {
			log.Fatalf("读取文件失败: %v", rerr)
		}
		conv, err = svc.ConvertFile(ctx, filepath.Base(src), content)
	}
	if err != nil {
		log.Fatalf("转换失败: %v", err)
	}

	writeOutputs(conv)
}

func runSQL(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg := loadConfig()

	fmt.Println("🔍 连接数据库...")
	db, err := adapter.NewSQLAdapter(sqlDriver, sqlConn, sqlSchema)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	defer db.Close()
	fmt.Println("✓ 数据库连接成功")

	svc := newService(ctx, cfg, false)

	var conv *service.Conversion
	switch {
	case sqlQuery != "":
		conv, err = svc.ConvertQuery(ctx, db, sqlQuery)
	case sqlTable != "":
		t, lerr := db.LoadTable(ctx, sqlTable, sqlLimit)
		if lerr != nil {
			log.Fatalf("读取表失败: %v", lerr)
		}
		conv, err = svc.ConvertTable(ctx, sqlTable, t)
	default:
		tables, lerr := db.ListTables(ctx)
		if lerr != nil {
			log.Fatalf("获取表列表失败: %v", lerr)
		}
		fmt.Printf("✓ 发现 %d 个表，请使用 --table 或 --query 指定来源\n", len(tables))
		for _, name := range tables {
			fmt.Printf("  - %s\n", name)
		}
		return
	}
	if err != nil {
		log.Fatalf("转换失败: %v", err)
	}

	writeOutputs(conv)
}

// writeOutputs 写出 result.json / report.md / mapping.mmd / graph.json
func writeOutputs(conv *service.Conversion) {
	res := conv.Result
	fmt.Printf("✓ 接受 %d 行，拒绝 %d 行\n", len(res.Rows), res.RejectedRows)
	if p := conv.ProviderUsed(); p != "" {
		fmt.Printf("🤖 Provider: %s\n", p)
	}
	if unmapped := conv.Graph.UnmappedColumns(); len(unmapped) > 0 {
		fmt.Printf("⚠️  未映射的列: %v\n", unmapped)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  - %s\n", w)
	}

	fmt.Println("\n📝 生成输出文件...")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("创建输出目录失败: %v", err)
	}

	resultJSON, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Fatalf("序列化结果失败: %v", err)
	}
	writeFile("result.json", resultJSON)

	report := renderer.NewEnhancedMarkdownRenderer().Render(conv.Report())
	writeFile("report.md", []byte(report))

	writeFile("mapping.mmd", []byte(renderer.NewMermaidRenderer().Render(conv.Graph)))

	graphJSON, err := conv.Graph.ToJSON()
	if err != nil {
		log.Fatalf("序列化映射图失败: %v", err)
	}
	writeFile("graph.json", graphJSON)

	fmt.Println("\n✅ 转换完成！")
}

func writeFile(name string, data []byte) {
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("写入 %s 失败: %v", path, err)
	}
	fmt.Printf("✓ %s\n", path)
}

func runPreview(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg := loadConfig()

	content, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("读取文件失败: %v", err)
	}
	t, err := adapter.Load(filepath.Base(args[0]), content)
	if err != nil {
		log.Fatalf("解析文件失败: %v", err)
	}

	cat, err := service.LoadCatalog(cfg)
	if err != nil {
		log.Fatal(err)
	}
	mapper := analyzer.NewColumnMapper(cat, analyzer.MapperOptions{AcceptThreshold: cfg.Mapping.AcceptThreshold})
	p := ai.BuildProvider(ctx, service.ProviderConfig(cfg), service.TargetFields(cat))

	fmt.Printf("🤖 使用 provider: %s\n", p.Name())
	res, err := analyzer.NewHybridAgent(mapper, p).Run(ctx, t)
	if err != nil {
		log.Fatalf("映射失败: %v", err)
	}

	fmt.Println("\n📊 初始映射:")
	printMapping(res.InitialMapping)
	fmt.Println("\n🔨 补齐后的映射:")
	printMapping(res.ImprovedMapping)

	if len(res.Suggestions) > 0 {
		fmt.Println("\n💡 采纳的建议:")
		for _, s := range res.Suggestions {
			fmt.Printf("  - %s: %s\n", s.Issue, s.Action)
		}
	}
	for _, w := range res.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
}

func printMapping(cm *analyzer.ColumnMap) {
	if cm.Len() == 0 {
		fmt.Println("  (空)")
		return
	}
	for _, f := range cm.Fields() {
		col, _ := cm.Get(f)
		fmt.Printf("  %-20s <- %s\n", f, col)
	}
}

func runFields(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	cat, err := service.LoadCatalog(cfg)
	if err != nil {
		log.Fatal(err)
	}

	required := make(map[string]bool)
	for _, f := range analyzer.RequiredFields {
		required[f] = true
	}

	fmt.Printf("📋 标准字段 (%d)\n", cat.Len())
	for _, f := range cat.Fields() {
		mark := " "
		if required[f.Name] {
			mark = "*"
		}
		fmt.Printf("%s %-20s %s\n", mark, f.Name, f.Description)
	}
}

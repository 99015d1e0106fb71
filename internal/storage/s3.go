package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"
)

// ErrObjectTooLarge 对象超过大小上限
var ErrObjectTooLarge = eris.New("object exceeds size limit")

// S3API s3.Client 的子集
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Source 从 S3 读取费率卡文件
type S3Source struct {
	client   S3API
	bucket   string
	maxBytes int64
}

// Options S3 来源参数
type Options struct {
	Bucket   string
	Region   string
	Profile  string
	MaxBytes int64 // <=0 表示不限制
}

// NewS3Source 使用默认凭证链（可指定 profile）创建
func NewS3Source(ctx context.Context, opts Options) (*S3Source, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "load AWS config")
	}
	return NewS3SourceWithClient(s3.NewFromConfig(awsCfg), opts.Bucket, opts.MaxBytes), nil
}

// NewS3SourceWithClient 使用现有客户端创建
func NewS3SourceWithClient(client S3API, bucket string, maxBytes int64) *S3Source {
	return &S3Source{client: client, bucket: bucket, maxBytes: maxBytes}
}

// Bucket 默认 bucket
func (s *S3Source) Bucket() string {
	return s.bucket
}

// Fetch 读取对象内容；bucket 为空时使用默认 bucket
func (s *S3Source) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	if bucket == "" || key == "" {
		return nil, eris.New("bucket and key are required")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "get s3://%s/%s", bucket, key)
	}
	defer out.Body.Close()

	var r io.Reader = out.Body
	if s.maxBytes > 0 {
		r = io.LimitReader(out.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "read s3://%s/%s", bucket, key)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, eris.Wrapf(ErrObjectTooLarge, "s3://%s/%s", bucket, key)
	}
	return data, nil
}

// List 列出前缀下受支持的费率卡文件
func (s *S3Source) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, eris.Wrapf(err, "list s3://%s/%s", s.bucket, prefix)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if isRateCardFile(key) {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

func isRateCardFile(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv", ".txt", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ParseURI 解析 s3://bucket/key
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", eris.Errorf("not an s3 uri: %s", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", eris.Errorf("s3 uri needs bucket and key: %s", uri)
	}
	return bucket, key, nil
}

// IsURI 是否为 s3:// 地址
func IsURI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

package ingestion

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"document-rag-backend/config"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
)

// ObjectFetcher 从OSS拉取文档对象到本地临时文件
// 分块管线按文件路径加载，对象先落盘再进入加载器
type ObjectFetcher struct {
	client *oss.Client
	bucket string
}

func NewObjectFetcher() *ObjectFetcher {
	cfg := &oss.Config{
		Region: oss.Ptr(config.Cfg.OSS.Region),
		CredentialsProvider: credentials.NewStaticCredentialsProvider(
			config.Cfg.OSS.AccessKeyID,
			config.Cfg.OSS.AccessKeySecret,
		),
	}
	return &ObjectFetcher{
		client: oss.NewClient(cfg),
		bucket: config.Cfg.OSS.BucketName,
	}
}

// Fetch 下载对象到临时目录，返回本地路径与清理函数
// 临时文件保留原扩展名，加载器按扩展名选择解析方式
func (f *ObjectFetcher) Fetch(ctx context.Context, objectName string) (string, func(), error) {
	result, err := f.client.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(f.bucket),
		Key:    oss.Ptr(objectName),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to get object from oss: %v", err)
	}
	defer result.Body.Close()

	tmp, err := os.CreateTemp("", "ingest-*"+filepath.Ext(objectName))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %v", err)
	}

	if _, err := io.Copy(tmp, result.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to write object to temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to close temp file: %v", err)
	}

	cleanup := func() { os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}

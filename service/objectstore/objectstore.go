package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"

	"doc-chat-backend/config"
)

const uploadPrefix = "uploads"

// Client OSS客户端包装，进程内只创建一次并注入使用方
type Client struct {
	bucket string
	oss    *oss.Client
}

func NewClient(cfg config.OSSConfig) *Client {
	ossCfg := &oss.Config{
		Region: oss.Ptr(cfg.Region),
		CredentialsProvider: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.AccessKeySecret,
		),
	}

	return &Client{
		bucket: cfg.BucketName,
		oss:    oss.NewClient(ossCfg),
	}
}

func (c *Client) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := c.oss.PutObject(ctx, &oss.PutObjectRequest{
		Bucket:      oss.Ptr(c.bucket),
		Key:         oss.Ptr(objectName),
		ContentType: oss.Ptr(contentType),
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %v", objectName, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, objectName string) ([]byte, error) {
	result, err := c.oss.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(c.bucket),
		Key:    oss.Ptr(objectName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %v", objectName, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %v", objectName, err)
	}

	return data, nil
}

func (c *Client) Delete(ctx context.Context, objectName string) error {
	_, err := c.oss.DeleteObject(ctx, &oss.DeleteObjectRequest{
		Bucket: oss.Ptr(c.bucket),
		Key:    oss.Ptr(objectName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %v", objectName, err)
	}
	return nil
}

// BuildObjectKey 生成对象存储路径，时间戳前缀避免同名文件冲突
func BuildObjectKey(conversationID, fileName string) string {
	return fmt.Sprintf("%s/%s/%d_%s",
		uploadPrefix, conversationID, time.Now().UnixMilli(), SanitizeFileName(fileName))
}

// SanitizeFileName 去除路径分隔符等不适合作为对象名的字符
func SanitizeFileName(fileName string) string {
	name := filepath.Base(fileName)
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		" ", "_",
		"#", "_",
		"?", "_",
	)
	return replacer.Replace(name)
}

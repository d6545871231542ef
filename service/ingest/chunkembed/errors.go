package chunkembed

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmbeddingAuth API密钥无效或缺失，不可重试
	ErrEmbeddingAuth = errors.New("embedding auth failure")

	// ErrEmbeddingQuota 配额或限流，由队列重试机制退避后重投
	ErrEmbeddingQuota = errors.New("embedding quota exhausted")
)

// ClassifyEmbeddingError 区分认证失败和配额耗尽
// 调用方据此决定标记失败还是交回队列重试
func ClassifyEmbeddingError(err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "invalid_api_key") ||
		strings.Contains(msg, "unauthorized"):
		return fmt.Errorf("%w: %v", ErrEmbeddingAuth, err)

	case strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit"):
		return fmt.Errorf("%w: %v", ErrEmbeddingQuota, err)
	}

	return fmt.Errorf("error embedding text: %v", err)
}

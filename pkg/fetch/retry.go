package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// リトライ関連の定数
	DefaultMaxRetries      = 2
	initialBackoffInterval = 500 * time.Millisecond
	maxBackoffInterval     = 5 * time.Second
)

// retryConfig はリトライ動作の設定です。
type retryConfig struct {
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxRetries:      DefaultMaxRetries,
		initialInterval: initialBackoffInterval,
		maxInterval:     maxBackoffInterval,
	}
}

// retry は指数バックオフを使用して操作をリトライします。
// 非リトライ対象のエラー (4xx) は backoff.Permanent でラップして即時終了させます。
func (c *Client) retry(ctx context.Context, operationName string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryConfig.initialInterval
	b.MaxInterval = c.retryConfig.maxInterval

	bo := backoff.WithContext(backoff.WithMaxRetries(b, c.retryConfig.maxRetries), ctx)

	var lastErr error
	retryableOp := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			lastErr = err
			return err
		}
		lastErr = err
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(retryableOp, bo); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%sに失敗しました: コンテキストタイムアウト/キャンセル: %w", operationName, err)
		}
		var pErr *backoff.PermanentError
		if errors.As(err, &pErr) {
			return fmt.Errorf("%sに失敗しました: %w", operationName, pErr.Err)
		}
		return fmt.Errorf("%sに失敗しました: 最大リトライ回数 (%d回) に到達: %w", operationName, c.retryConfig.maxRetries, lastErr)
	}
	return nil
}
